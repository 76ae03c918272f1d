// Package closet keeps each user's saved products, at most one entry per
// product.
package closet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/store"
)

type Service struct {
	items    *store.Collection[models.ClosetItem]
	products *store.Collection[models.Product]
	testMode bool
	now      func() time.Time
}

func NewService(items *store.Collection[models.ClosetItem], products *store.Collection[models.Product], testMode bool) *Service {
	return &Service{items: items, products: products, testMode: testMode, now: time.Now}
}

// Add saves a product to the caller's closet. Saving the same product
// twice conflicts.
func (s *Service) Add(ctx context.Context, userID string, req models.AddClosetItemRequest) (*models.ClosetItem, error) {
	if req.ProductID == "" {
		return nil, apperr.Validation("product id is required")
	}
	source := req.Source
	if source == "" {
		source = models.ClosetSourceManual
	}
	switch source {
	case models.ClosetSourcePurchase, models.ClosetSourceTryOn, models.ClosetSourceManual:
	default:
		return nil, apperr.Validation("invalid source %q", source)
	}

	if _, err := s.products.FindByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("product %s not found", req.ProductID)
		}
		return nil, apperr.Internal("failed to load product", err)
	}

	_, err := s.items.FindOne(ctx, store.Filter{"userId": userID, "productId": req.ProductID})
	if err == nil {
		return nil, apperr.Conflict("product %s is already in the closet", req.ProductID)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("failed to check closet", err)
	}

	item := &models.ClosetItem{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: req.ProductID,
		Source:    source,
		AddedAt:   s.now(),
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, apperr.Internal("failed to add closet item", err)
	}
	return item, nil
}

// List returns the caller's closet, newest first.
func (s *Service) List(ctx context.Context, userID string, page, limit int) (*store.Page[models.ClosetItem], error) {
	result, err := s.items.FindMany(ctx, store.Filter{"userId": userID}, store.FindOptions{
		Sort:  "-addedAt",
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return nil, apperr.Internal("failed to list closet", err)
	}
	return result, nil
}

func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	item, err := s.items.FindByID(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("closet item %s not found", itemID)
	}
	if err != nil {
		return apperr.Internal("failed to load closet item", err)
	}
	if !s.testMode && item.UserID != userID {
		return apperr.Forbidden("closet item belongs to another user")
	}
	if err := s.items.Delete(ctx, itemID); err != nil {
		return apperr.Internal("failed to remove closet item", err)
	}
	return nil
}
