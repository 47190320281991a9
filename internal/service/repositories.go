package service

import (
	"context"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
)

// Lookups return (nil, nil) when no row matches.

type UserRepository interface {
	// Create inserts u and sets its ID and timestamps. A taken username
	// yields domain.ErrUsernameTaken.
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, p domain.ProfileUpdate) error
	// Delete removes the user and every entry it owns.
	Delete(ctx context.Context, id int64) error
}

type WeightRepository interface {
	// Create inserts w unless the user already has an entry on w.Date, in
	// which case it returns a *domain.DuplicateDateError.
	Create(ctx context.Context, w *domain.WeightEntry) error
	GetByID(ctx context.Context, id int64) (*domain.WeightEntry, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.WeightEntry, error)
	// Update writes weight and date of w, failing with a
	// *domain.DuplicateDateError if another entry of the user has w.Date.
	Update(ctx context.Context, w *domain.WeightEntry) error
	Delete(ctx context.Context, id int64) error
}

type MetricRepository interface {
	// Upsert inserts m, or overwrites the value of the entry with the same
	// (user, metric type, date). m is filled from the stored row.
	Upsert(ctx context.Context, m *domain.MetricEntry) (created bool, err error)
	GetByID(ctx context.Context, id int64) (*domain.MetricEntry, error)
	List(ctx context.Context, f domain.MetricFilter) ([]domain.MetricEntry, error)
	// Update writes value and date of m, failing with a
	// *domain.DuplicateDateError if another entry of the same user and type
	// has m.Date.
	Update(ctx context.Context, m *domain.MetricEntry) error
	Delete(ctx context.Context, id int64) error
}
