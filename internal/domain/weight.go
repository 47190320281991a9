package domain

import "time"

// WeightEntry is a single dated body weight measurement.
type WeightEntry struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Weight    float64   `json:"weight" db:"weight"`
	Date      Date      `json:"date" db:"date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (w *WeightEntry) OwnerID() int64 { return w.UserID }

type WeightCreate struct {
	Weight float64 `json:"weight" validate:"gt=0"`
	Date   string  `json:"date"`
}

type WeightUpdate struct {
	Weight *float64 `json:"weight" validate:"omitempty,gt=0"`
	Date   *string  `json:"date"`
}
