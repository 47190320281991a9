package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
)

type ProfileService struct {
	users UserRepository
	log   *zap.Logger
}

func NewProfileService(users UserRepository, log *zap.Logger) *ProfileService {
	return &ProfileService{users: users, log: log}
}

func (s *ProfileService) Get(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %w", domain.ErrNotFound)
	}
	return user, nil
}

// Update changes the provided profile fields and returns the stored profile.
func (s *ProfileService) Update(ctx context.Context, userID int64, p domain.ProfileUpdate) (*domain.User, error) {
	if err := validateStruct(p); err != nil {
		return nil, err
	}
	if !p.IsEmpty() {
		if err := s.users.UpdateProfile(ctx, userID, p); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, userID)
}

// Delete removes the account together with all of its entries.
func (s *ProfileService) Delete(ctx context.Context, userID int64) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Int64("user_id", userID))
	return nil
}
