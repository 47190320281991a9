package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
	"github.com/yusufkecer/fit-tracker-backend/internal/service"
)

var _ service.MetricRepository = (*MetricRepository)(nil)

const (
	metricResource = "metric entry"
	metricColumns  = "id, user_id, metric_type, date, value, created_at"
)

type MetricRepository struct {
	db *sqlx.DB
}

func NewMetricRepository(db *sqlx.DB) *MetricRepository {
	return &MetricRepository{db: db}
}

// Upsert relies on uq_user_metric_date: a clash on (user_id, metric_type,
// date) turns the insert into a value overwrite, and LAST_INSERT_ID(id)
// exposes the id of the row that was kept.
func (r *MetricRepository) Upsert(ctx context.Context, m *domain.MetricEntry) (bool, error) {
	var created bool
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO metric_entries (user_id, metric_type, date, value)
			 VALUES (?, ?, ?, ?)
			 ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id), value = VALUES(value)`,
			m.UserID, m.MetricType, m.Date, m.Value,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert metric: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read metric id: %w", err)
		}
		// MySQL reports 1 for an insert, 2 for an update and 0 when the
		// overwrite left the row unchanged.
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read metric upsert result: %w", err)
		}
		created = affected == 1

		if err := tx.GetContext(ctx, m, `SELECT `+metricColumns+` FROM metric_entries WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to reload metric: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *MetricRepository) GetByID(ctx context.Context, id int64) (*domain.MetricEntry, error) {
	var m domain.MetricEntry
	err := r.db.GetContext(ctx, &m, `SELECT `+metricColumns+` FROM metric_entries WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metric: %w", err)
	}
	return &m, nil
}

func (r *MetricRepository) List(ctx context.Context, f domain.MetricFilter) ([]domain.MetricEntry, error) {
	q := sq.Select(metricColumns).
		From("metric_entries").
		Where(sq.Eq{"user_id": f.UserID}).
		OrderBy("date DESC", "id DESC")
	if f.MetricType != "" {
		q = q.Where(sq.Eq{"metric_type": f.MetricType})
	}
	if f.From != nil {
		q = q.Where(sq.GtOrEq{"date": *f.From})
	}
	if f.To != nil {
		q = q.Where(sq.LtOrEq{"date": *f.To})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build metric query: %w", err)
	}

	var entries []domain.MetricEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	return entries, nil
}

func (r *MetricRepository) Update(ctx context.Context, m *domain.MetricEntry) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := metricDateFree(ctx, tx, m); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE metric_entries SET value = ?, date = ? WHERE id = ?`,
			m.Value, m.Date, m.ID,
		); err != nil {
			if isDuplicateKey(err) {
				if err := metricDateFree(ctx, tx, m); err != nil {
					return err
				}
				return &domain.DuplicateDateError{Resource: m.MetricType + " entry", Date: m.Date}
			}
			return fmt.Errorf("failed to update metric: %w", err)
		}
		return nil
	})
}

// metricDateFree uses a plain read; uq_user_metric_date settles races.
func metricDateFree(ctx context.Context, tx *sqlx.Tx, m *domain.MetricEntry) error {
	var clash int64
	err := tx.GetContext(ctx, &clash,
		`SELECT id FROM metric_entries WHERE user_id = ? AND metric_type = ? AND date = ? AND id <> ?`,
		m.UserID, m.MetricType, m.Date, m.ID,
	)
	switch {
	case err == nil:
		return &domain.DuplicateDateError{Resource: m.MetricType + " entry", Date: m.Date, ExistingID: clash}
	case errors.Is(err, sql.ErrNoRows):
		return nil
	default:
		return fmt.Errorf("failed to check metric date: %w", err)
	}
}

func (r *MetricRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM metric_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete metric: %w", err)
	}
	return nil
}
