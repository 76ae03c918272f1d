// Package catalog is the product catalog backing try-on, cart and orders.
package catalog

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
	products *store.Collection[models.Product]
	now      func() time.Time
}

func NewService(products *store.Collection[models.Product]) *Service {
	return &Service{products: products, now: time.Now}
}

// List returns products newest first, optionally narrowed to a category.
func (s *Service) List(ctx context.Context, category string, page, limit int) (*store.Page[models.Product], error) {
	filter := store.Filter{}
	if category != "" {
		filter["category"] = category
	}
	result, err := s.products.FindMany(ctx, filter, store.FindOptions{
		Sort:  "-createdAt",
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return nil, apperr.Internal("failed to list products", err)
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("product %s not found", productID)
	}
	if err != nil {
		return nil, apperr.Internal("failed to load product", err)
	}
	return product, nil
}

func (s *Service) Create(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	product := &models.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Sizes:       req.Sizes,
		Colors:      req.Colors,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, apperr.Internal("failed to create product", err)
	}
	return product, nil
}

func (s *Service) Update(ctx context.Context, productID string, req models.ProductRequest) (*models.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	product, err := s.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	product.Name = req.Name
	product.Description = req.Description
	product.Category = req.Category
	product.Price = req.Price
	product.Sizes = req.Sizes
	product.Colors = req.Colors
	product.ImageURL = req.ImageURL
	product.Stock = req.Stock
	product.UpdatedAt = s.now()

	if err := s.products.Save(ctx, product); err != nil {
		return nil, apperr.Internal("failed to update product", err)
	}
	return product, nil
}

func (s *Service) Delete(ctx context.Context, productID string) error {
	err := s.products.Delete(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("product %s not found", productID)
	}
	if err != nil {
		return apperr.Internal("failed to delete product", err)
	}
	return nil
}

func validateRequest(req models.ProductRequest) error {
	if req.Name == "" {
		return apperr.Validation("product name is required")
	}
	if req.Price < 0 {
		return apperr.Validation("product price must not be negative")
	}
	if req.Stock < 0 {
		return apperr.Validation("product stock must not be negative")
	}
	return nil
}
