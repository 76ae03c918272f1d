// Package order places orders from the cart and walks them through their
// lifecycle. Stock moves at order time: checkout decrements it,
// cancellation restores it exactly once.
package order

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/cart"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/notify"
	"virtual-fit-backend/internal/store"
)

const (
	// Flat shipping below the free-shipping threshold.
	shippingFlatFee       = 10.0
	freeShippingThreshold = 100.0
	taxRate               = 0.08
)

type Service struct {
	orders   *store.Collection[models.Order]
	products *store.Collection[models.Product]
	profiles *store.Collection[models.Profile]
	carts    *cart.Service
	mailer   *notify.Mailer
	testMode bool
	now      func() time.Time
}

func NewService(orders *store.Collection[models.Order], products *store.Collection[models.Product], profiles *store.Collection[models.Profile], carts *cart.Service, mailer *notify.Mailer, testMode bool) *Service {
	return &Service{
		orders:   orders,
		products: products,
		profiles: profiles,
		carts:    carts,
		mailer:   mailer,
		testMode: testMode,
		now:      time.Now,
	}
}

// Create places an order from the caller's cart: snapshots the lines,
// checks and decrements stock, prices shipping and tax, clears the cart
// and fires the confirmation email.
func (s *Service) Create(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.Order, error) {
	userCart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(userCart.Items) == 0 {
		return nil, apperr.Validation("cart is empty")
	}

	// Resolve and stock-check every line before touching anything.
	resolved := make([]*models.Product, len(userCart.Items))
	for i, item := range userCart.Items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("product %s no longer exists", item.ProductID)
		}
		if err != nil {
			return nil, apperr.Internal("failed to resolve order item", err)
		}
		if product.Stock < item.Quantity {
			return nil, apperr.Exhausted("insufficient stock for %s: %d requested, %d available", product.Name, item.Quantity, product.Stock)
		}
		resolved[i] = product
	}

	now := s.now()
	items := make([]models.OrderItem, len(userCart.Items))
	subtotal := 0.0
	for i, item := range userCart.Items {
		product := resolved[i]
		lineTotal := round2(product.Price * float64(item.Quantity))
		items[i] = models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			LineTotal: lineTotal,
		}
		subtotal += lineTotal

		product.Stock -= item.Quantity
		product.UpdatedAt = now
		if err := s.products.Save(ctx, product); err != nil {
			return nil, apperr.Internal("failed to reserve stock", err)
		}
	}

	subtotal = round2(subtotal)
	shipping := shippingFlatFee
	if subtotal >= freeShippingThreshold {
		shipping = 0
	}
	tax := round2(subtotal * taxRate)

	order := &models.Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		Items:           items,
		Subtotal:        subtotal,
		ShippingFee:     shipping,
		Tax:             tax,
		Total:           round2(subtotal + shipping + tax),
		Status:          models.OrderStatusPending,
		ShippingAddress: req.ShippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperr.Internal("failed to create order", err)
	}

	if _, err := s.carts.Clear(ctx, userID); err != nil {
		log.Printf("order: failed to clear cart for %s after order %s: %v", userID, order.ID, err)
	}
	go s.sendConfirmation(userID, order)

	return order, nil
}

func (s *Service) Get(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(userID, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}

// List returns the caller's orders, newest first.
func (s *Service) List(ctx context.Context, userID string, page, limit int) (*store.Page[models.Order], error) {
	result, err := s.orders.FindMany(ctx, store.Filter{"userId": userID}, store.FindOptions{
		Sort:  "-createdAt",
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return nil, apperr.Internal("failed to list orders", err)
	}
	return result, nil
}

// Cancel cancels a pending or paid order and restores each line's stock.
// The status guard makes restoration happen exactly once: a second cancel
// finds the order already cancelled and conflicts.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(userID, order.UserID); err != nil {
		return nil, err
	}
	if !order.Status.Cancellable() {
		return nil, apperr.Conflict("order %s cannot be cancelled in status %s", orderID, order.Status)
	}

	order.Status = models.OrderStatusCancelled
	order.UpdatedAt = s.now()
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, apperr.Internal("failed to cancel order", err)
	}

	for _, item := range order.Items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			// Product removed since checkout; nothing to restore.
			continue
		}
		product.Stock += item.Quantity
		product.UpdatedAt = s.now()
		if err := s.products.Save(ctx, product); err != nil {
			log.Printf("order: failed to restore stock for %s on cancel of %s: %v", item.ProductID, orderID, err)
		}
	}

	return order, nil
}

// MarkPaid moves a pending order to paid. Called by payment confirmation,
// not exposed over HTTP.
func (s *Service) MarkPaid(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperr.Conflict("order %s cannot be paid in status %s", orderID, order.Status)
	}
	order.Status = models.OrderStatusPaid
	order.UpdatedAt = s.now()
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, apperr.Internal("failed to mark order paid", err)
	}
	return order, nil
}

func (s *Service) load(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("order %s not found", orderID)
	}
	if err != nil {
		return nil, apperr.Internal("failed to load order", err)
	}
	return order, nil
}

func (s *Service) authorize(callerID, ownerID string) error {
	if s.testMode {
		return nil
	}
	if callerID != ownerID {
		return apperr.Forbidden("order belongs to another user")
	}
	return nil
}

func (s *Service) sendConfirmation(userID string, order *models.Order) {
	profile, err := s.profiles.FindByID(context.Background(), userID)
	if err != nil || profile.Email == "" {
		log.Printf("order: no email on file for %s, skipping confirmation for %s", userID, order.ID)
		return
	}
	if err := s.mailer.SendOrderConfirmation(profile.Email, order); err != nil {
		log.Printf("order: confirmation email for %s failed: %v", order.ID, err)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
