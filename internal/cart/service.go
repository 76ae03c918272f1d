// Package cart maintains the per-user shopping cart. Lines merge on
// product+size+color, and every read recomputes names, prices and totals
// against the current catalog.
package cart

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/store"
)

type Service struct {
	carts    *store.Collection[models.Cart]
	products *store.Collection[models.Product]
	now      func() time.Time
}

func NewService(carts *store.Collection[models.Cart], products *store.Collection[models.Product]) *Service {
	return &Service{carts: carts, products: products, now: time.Now}
}

// GetCart returns the caller's cart, creating an empty one on first use.
// The cart is recomputed against the catalog and persisted if anything
// changed (price drift, deleted products).
func (s *Service) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	changed, err := s.recompute(ctx, cart)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

// AddItem puts a product variant in the cart. The same product in the same
// size and color merges into the existing line.
func (s *Service) AddItem(ctx context.Context, userID string, req models.AddCartItemRequest) (*models.Cart, error) {
	if req.ProductID == "" {
		return nil, apperr.Validation("product id is required")
	}
	if req.Quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("product %s not found", req.ProductID)
	}
	if err != nil {
		return nil, apperr.Internal("failed to load product", err)
	}
	if req.Size != "" && !product.OffersSize(req.Size) {
		return nil, apperr.Validation("size %q is not offered for %s", req.Size, product.Name)
	}
	if req.Color != "" && !product.OffersColor(req.Color) {
		return nil, apperr.Validation("color %q is not offered for %s", req.Color, product.Name)
	}

	cart, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ProductID == req.ProductID && item.Size == req.Size && item.Color == req.Color {
			item.Quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{
			ID:        uuid.NewString(),
			ProductID: req.ProductID,
			Name:      product.Name,
			Size:      req.Size,
			Color:     req.Color,
			Quantity:  req.Quantity,
			UnitPrice: product.Price,
		})
	}

	if _, err := s.recompute(ctx, cart); err != nil {
		return nil, err
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem replaces a line's quantity.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}

	cart, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			cart.Items[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		return nil, apperr.NotFound("cart item %s not found", itemID)
	}

	if _, err := s.recompute(ctx, cart); err != nil {
		return nil, err
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID string) (*models.Cart, error) {
	cart, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	found := false
	for _, item := range cart.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return nil, apperr.NotFound("cart item %s not found", itemID)
	}
	cart.Items = kept

	if _, err := s.recompute(ctx, cart); err != nil {
		return nil, err
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Clear empties the cart but keeps the record.
func (s *Service) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.findOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.Items = nil
	cart.ItemCount = 0
	cart.Total = 0
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *Service) findOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.FindOne(ctx, store.Filter{"userId": userID})
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("failed to load cart", err)
	}

	now := s.now()
	cart = &models.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     []models.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, apperr.Internal("failed to create cart", err)
	}
	return cart, nil
}

// recompute resolves every line against the catalog: lines whose product
// no longer exists are dropped, the rest pick up current name and price.
// Returns whether anything changed.
func (s *Service) recompute(ctx context.Context, cart *models.Cart) (bool, error) {
	changed := false
	kept := cart.Items[:0]
	itemCount := 0
	total := 0.0

	for _, item := range cart.Items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			changed = true
			continue
		}
		if err != nil {
			return false, apperr.Internal("failed to resolve cart item", err)
		}

		lineTotal := round2(product.Price * float64(item.Quantity))
		if item.Name != product.Name || item.UnitPrice != product.Price || item.LineTotal != lineTotal {
			changed = true
		}
		item.Name = product.Name
		item.UnitPrice = product.Price
		item.LineTotal = lineTotal

		kept = append(kept, item)
		itemCount += item.Quantity
		total += lineTotal
	}

	cart.Items = kept
	if cart.ItemCount != itemCount || cart.Total != round2(total) {
		changed = true
	}
	cart.ItemCount = itemCount
	cart.Total = round2(total)
	return changed, nil
}

func (s *Service) save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, cart); err != nil {
		return apperr.Internal("failed to save cart", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
