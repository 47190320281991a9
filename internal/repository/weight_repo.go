package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
	"github.com/yusufkecer/fit-tracker-backend/internal/service"
)

var _ service.WeightRepository = (*WeightRepository)(nil)

const weightResource = "weight entry"

type WeightRepository struct {
	db *sqlx.DB
}

func NewWeightRepository(db *sqlx.DB) *WeightRepository {
	return &WeightRepository{db: db}
}

// Create checks the date with a plain read and leaves concurrent inserts to
// uq_weights_user_date; the loser of such a race gets the same conflict.
func (r *WeightRepository) Create(ctx context.Context, w *domain.WeightEntry) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := weightDateFree(ctx, tx, w, 0); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO weights (user_id, weight, date) VALUES (?, ?, ?)`,
			w.UserID, w.Weight, w.Date,
		)
		if err != nil {
			if isDuplicateKey(err) {
				return weightConflict(ctx, tx, w, 0)
			}
			return fmt.Errorf("failed to create weight: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read weight id: %w", err)
		}

		if err := tx.GetContext(ctx, w, `SELECT id, user_id, weight, date, created_at FROM weights WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to reload weight: %w", err)
		}
		return nil
	})
}

func (r *WeightRepository) GetByID(ctx context.Context, id int64) (*domain.WeightEntry, error) {
	var w domain.WeightEntry
	err := r.db.GetContext(ctx, &w, `SELECT id, user_id, weight, date, created_at FROM weights WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weight: %w", err)
	}
	return &w, nil
}

func (r *WeightRepository) ListByUser(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	var entries []domain.WeightEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT id, user_id, weight, date, created_at
		 FROM weights
		 WHERE user_id = ?
		 ORDER BY date DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list weights: %w", err)
	}
	return entries, nil
}

func (r *WeightRepository) Update(ctx context.Context, w *domain.WeightEntry) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := weightDateFree(ctx, tx, w, w.ID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE weights SET weight = ?, date = ? WHERE id = ?`,
			w.Weight, w.Date, w.ID,
		); err != nil {
			if isDuplicateKey(err) {
				return weightConflict(ctx, tx, w, w.ID)
			}
			return fmt.Errorf("failed to update weight: %w", err)
		}
		return nil
	})
}

func (r *WeightRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM weights WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete weight: %w", err)
	}
	return nil
}

// weightDateFree fails with a *domain.DuplicateDateError if another entry of
// w.UserID, other than skip, is dated w.Date.
func weightDateFree(ctx context.Context, tx *sqlx.Tx, w *domain.WeightEntry, skip int64) error {
	var existing int64
	err := tx.GetContext(ctx, &existing,
		`SELECT id FROM weights WHERE user_id = ? AND date = ? AND id <> ?`,
		w.UserID, w.Date, skip,
	)
	switch {
	case err == nil:
		return &domain.DuplicateDateError{Resource: weightResource, Date: w.Date, ExistingID: existing}
	case errors.Is(err, sql.ErrNoRows):
		return nil
	default:
		return fmt.Errorf("failed to check weight date: %w", err)
	}
}

// weightConflict builds the error for a write rejected by the unique key,
// filling in the winning entry when it is visible.
func weightConflict(ctx context.Context, tx *sqlx.Tx, w *domain.WeightEntry, skip int64) error {
	if err := weightDateFree(ctx, tx, w, skip); err != nil {
		return err
	}
	return &domain.DuplicateDateError{Resource: weightResource, Date: w.Date}
}
