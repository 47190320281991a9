package service

import (
	"bytes"
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
	"github.com/yusufkecer/fit-tracker-backend/internal/metricschema"
)

const metricResource = "metric entry"

// MetricService manages metric entries of any registered type. Values are
// validated by the registry; at most one entry exists per user, type and date.
type MetricService struct {
	repo     MetricRepository
	registry *metricschema.Registry
	log      *zap.Logger
}

func NewMetricService(repo MetricRepository, registry *metricschema.Registry, log *zap.Logger) *MetricService {
	return &MetricService{repo: repo, registry: registry, log: log}
}

// Create stores the entry, overwriting the value of an existing entry for
// the same user, type and date. created reports whether a new row was added.
func (s *MetricService) Create(ctx context.Context, userID int64, req domain.MetricCreate) (entry *domain.MetricEntry, created bool, err error) {
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return nil, false, err
	}
	value, err := s.registry.Validate(req.MetricType, req.Value)
	if err != nil {
		return nil, false, err
	}

	entry = &domain.MetricEntry{
		UserID:     userID,
		MetricType: req.MetricType,
		Date:       date,
		Value:      value,
	}
	created, err = s.repo.Upsert(ctx, entry)
	if err != nil {
		return nil, false, err
	}
	if !created {
		s.log.Debug("metric entry overwritten",
			zap.Int64("entry_id", entry.ID),
			zap.String("metric_type", entry.MetricType),
			zap.Stringer("date", entry.Date))
	}
	return entry, created, nil
}

// List returns the user's entries matching q, newest date first.
func (s *MetricService) List(ctx context.Context, userID int64, q domain.MetricQuery) ([]domain.MetricEntry, error) {
	f := domain.MetricFilter{UserID: userID, MetricType: q.MetricType}
	if q.DateFrom != "" {
		d, err := domain.ParseDate(q.DateFrom)
		if err != nil {
			return nil, &domain.ValidationError{Field: "date_from", Message: err.Error()}
		}
		f.From = &d
	}
	if q.DateTo != "" {
		d, err := domain.ParseDate(q.DateTo)
		if err != nil {
			return nil, &domain.ValidationError{Field: "date_to", Message: err.Error()}
		}
		f.To = &d
	}

	entries, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.MetricEntry{}
	}
	return entries, nil
}

func (s *MetricService) Get(ctx context.Context, id, userID int64) (*domain.MetricEntry, error) {
	return s.owned(ctx, id, userID)
}

// Update changes value and/or date of an owned entry. The metric type of an
// entry never changes, so a new value is validated against the stored type.
func (s *MetricService) Update(ctx context.Context, id, userID int64, req domain.MetricUpdate) (*domain.MetricEntry, error) {
	entry, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	updated := *entry
	if present(req.Value) {
		value, err := s.registry.Validate(entry.MetricType, req.Value)
		if err != nil {
			return nil, err
		}
		updated.Value = value
	}
	if req.Date != nil {
		date, err := domain.ParseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		updated.Date = date
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *MetricService) Delete(ctx context.Context, id, userID int64) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *MetricService) owned(ctx context.Context, id, userID int64) (*domain.MetricEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return CheckOwnership(entry, userID, metricResource)
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
