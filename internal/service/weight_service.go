package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
)

const weightResource = "weight entry"

// WeightService manages the legacy single-purpose weight log. Unlike metric
// entries, creating a second entry for a date is an error.
type WeightService struct {
	repo WeightRepository
	log  *zap.Logger
}

func NewWeightService(repo WeightRepository, log *zap.Logger) *WeightService {
	return &WeightService{repo: repo, log: log}
}

func (s *WeightService) Create(ctx context.Context, userID int64, req domain.WeightCreate) (*domain.WeightEntry, error) {
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	entry := &domain.WeightEntry{UserID: userID, Weight: req.Weight, Date: date}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, duplicateWeightError(err)
	}
	return entry, nil
}

// List returns the user's entries, newest date first.
func (s *WeightService) List(ctx context.Context, userID int64) ([]domain.WeightEntry, error) {
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.WeightEntry{}
	}
	return entries, nil
}

func (s *WeightService) Get(ctx context.Context, id, userID int64) (*domain.WeightEntry, error) {
	return s.owned(ctx, id, userID)
}

func (s *WeightService) Update(ctx context.Context, id, userID int64, req domain.WeightUpdate) (*domain.WeightEntry, error) {
	entry, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	updated := *entry
	if req.Date != nil {
		date, err := domain.ParseDate(*req.Date)
		if err != nil {
			return nil, err
		}
		updated.Date = date
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Weight != nil {
		updated.Weight = *req.Weight
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		var dup *domain.DuplicateDateError
		if errors.As(err, &dup) {
			return nil, fmt.Errorf("%w, cannot move an entry onto a date that already has one", err)
		}
		return nil, err
	}
	return &updated, nil
}

func (s *WeightService) Delete(ctx context.Context, id, userID int64) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *WeightService) owned(ctx context.Context, id, userID int64) (*domain.WeightEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return CheckOwnership(entry, userID, weightResource)
}

func duplicateWeightError(err error) error {
	var dup *domain.DuplicateDateError
	if errors.As(err, &dup) && dup.ExistingID != 0 {
		return fmt.Errorf("%w, use PUT /weights/%d to update it", err, dup.ExistingID)
	}
	return err
}
