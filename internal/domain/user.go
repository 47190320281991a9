package domain

import "time"

// Allowed gender values for a profile.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    *string   `json:"first_name" db:"first_name"`
	LastName     *string   `json:"last_name" db:"last_name"`
	Age          *int      `json:"age" db:"age"`
	HeightCM     *float64  `json:"height_cm" db:"height_cm"`
	Gender       *string   `json:"gender" db:"gender"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ProfileUpdate carries the profile fields to change; nil fields are left as is.
type ProfileUpdate struct {
	FirstName *string  `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string  `json:"last_name" validate:"omitempty,max=100"`
	Age       *int     `json:"age" validate:"omitempty,gte=1,lte=150"`
	HeightCM  *float64 `json:"height_cm" validate:"omitempty,gt=0,lte=300"`
	Gender    *string  `json:"gender" validate:"omitempty,oneof=male female other"`
}

// IsEmpty reports whether no field is set.
func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Age == nil && p.HeightCM == nil && p.Gender == nil
}

// Apply copies the set fields onto u. u never shares memory with p.
func (p ProfileUpdate) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = copyOf(p.FirstName)
	}
	if p.LastName != nil {
		u.LastName = copyOf(p.LastName)
	}
	if p.Age != nil {
		u.Age = copyOf(p.Age)
	}
	if p.HeightCM != nil {
		u.HeightCM = copyOf(p.HeightCM)
	}
	if p.Gender != nil {
		u.Gender = copyOf(p.Gender)
	}
}

func copyOf[T any](p *T) *T {
	v := *p
	return &v
}
