package avatar

import (
	"context"
	"errors"
	"log"

	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/store"
	"virtual-fit-backend/internal/supabase"
)

// Service reads and deletes avatars on a user's behalf. Creation happens
// only through the Materializer.
type Service struct {
	avatars  *store.Collection[models.Avatar]
	storage  *supabase.StorageClient
	testMode bool
}

func NewService(avatars *store.Collection[models.Avatar], storage *supabase.StorageClient, testMode bool) *Service {
	return &Service{avatars: avatars, storage: storage, testMode: testMode}
}

// List returns the caller's avatars, newest first.
func (s *Service) List(ctx context.Context, userID string, page, limit int) (*store.Page[models.Avatar], error) {
	result, err := s.avatars.FindMany(ctx, store.Filter{"userId": userID}, store.FindOptions{
		Sort:  "-createdAt",
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return nil, apperr.Internal("failed to list avatars", err)
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, userID, avatarID string) (*models.Avatar, error) {
	av, err := s.avatars.FindByID(ctx, avatarID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("avatar %s not found", avatarID)
	}
	if err != nil {
		return nil, apperr.Internal("failed to load avatar", err)
	}
	if err := s.authorize(userID, av.UserID); err != nil {
		return nil, err
	}
	return av, nil
}

// Delete removes the avatar record and then its storage assets. Asset
// cleanup failures are logged, not surfaced: the record is already gone.
func (s *Service) Delete(ctx context.Context, userID, avatarID string) error {
	av, err := s.Get(ctx, userID, avatarID)
	if err != nil {
		return err
	}
	if err := s.avatars.Delete(ctx, avatarID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("avatar %s not found", avatarID)
		}
		return apperr.Internal("failed to delete avatar", err)
	}
	if err := s.storage.DeleteAvatarAssets(av.UserID, av.ID); err != nil {
		log.Printf("avatar: failed to delete assets for %s: %v", av.ID, err)
	}
	return nil
}

func (s *Service) authorize(callerID, ownerID string) error {
	if s.testMode {
		return nil
	}
	if callerID != ownerID {
		return apperr.Forbidden("avatar belongs to another user")
	}
	return nil
}
