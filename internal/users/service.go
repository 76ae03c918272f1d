// Package users manages profiles keyed by the auth subject.
package users

import (
	"context"
	"errors"
	"time"

	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/store"
)

type Service struct {
	profiles *store.Collection[models.Profile]
	now      func() time.Time
}

func NewService(profiles *store.Collection[models.Profile]) *Service {
	return &Service{profiles: profiles, now: time.Now}
}

// GetMe returns the caller's profile, provisioning an empty one on first
// read.
func (s *Service) GetMe(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("failed to load profile", err)
	}

	now := s.now()
	profile = &models.Profile{
		ID:        userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, apperr.Internal("failed to provision profile", err)
	}
	return profile, nil
}

// UpdateMe applies the non-empty fields of the request onto the caller's
// profile.
func (s *Service) UpdateMe(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Profile, error) {
	if req.HeightCm < 0 {
		return nil, apperr.Validation("height must not be negative")
	}
	if req.WeightKg < 0 {
		return nil, apperr.Validation("weight must not be negative")
	}

	profile, err := s.GetMe(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Email != "" {
		profile.Email = req.Email
	}
	if req.DisplayName != "" {
		profile.DisplayName = req.DisplayName
	}
	if req.Gender != "" {
		profile.Gender = req.Gender
	}
	if req.HeightCm > 0 {
		profile.HeightCm = req.HeightCm
	}
	if req.WeightKg > 0 {
		profile.WeightKg = req.WeightKg
	}
	if req.Preferences != nil {
		profile.Preferences = req.Preferences
	}
	profile.UpdatedAt = s.now()

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, apperr.Internal("failed to save profile", err)
	}
	return profile, nil
}
