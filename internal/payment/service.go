// Package payment simulates payment processing against pending orders.
// Confirmation is a coin flip drawn from an injectable source, standing in
// for a real payment provider callback.
package payment

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/order"
	"virtual-fit-backend/internal/store"
)

// successThreshold is the probability a confirmation succeeds.
const successThreshold = 0.5

// Options tune the service; zero values mean production defaults.
type Options struct {
	TestMode bool

	// Roll draws the confirmation outcome in [0, 1). Tests pin it.
	Roll func() float64
	Now  func() time.Time
}

type Service struct {
	payments *store.Collection[models.Payment]
	orders   *order.Service
	testMode bool

	roll func() float64
	now  func() time.Time
}

func NewService(payments *store.Collection[models.Payment], orders *order.Service, opts Options) *Service {
	if opts.Roll == nil {
		opts.Roll = rand.Float64
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		payments: payments,
		orders:   orders,
		testMode: opts.TestMode,
		roll:     opts.Roll,
		now:      opts.Now,
	}
}

// Create opens a payment attempt for a pending order. The amount is
// snapshotted from the order total.
func (s *Service) Create(ctx context.Context, userID string, req models.CreatePaymentRequest) (*models.Payment, error) {
	if req.OrderID == "" {
		return nil, apperr.Validation("order id is required")
	}
	if !models.ValidPaymentMethod(req.Method) {
		return nil, apperr.Validation("invalid payment method %q", req.Method)
	}

	ord, err := s.orders.Get(ctx, userID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if ord.Status != models.OrderStatusPending {
		return nil, apperr.Conflict("order %s cannot be paid in status %s", ord.ID, ord.Status)
	}

	now := s.now()
	payment := &models.Payment{
		ID:        uuid.NewString(),
		OrderID:   ord.ID,
		UserID:    userID,
		Amount:    ord.Total,
		Method:    req.Method,
		Status:    models.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, apperr.Internal("failed to create payment", err)
	}
	return payment, nil
}

// Confirm settles a pending payment. On success the order moves to paid;
// on failure the payment is marked failed and the order stays pending, so
// the user can retry with a new payment.
func (s *Service) Confirm(ctx context.Context, userID, paymentID string) (*models.Payment, error) {
	payment, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(userID, payment.UserID); err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, apperr.Conflict("payment %s is already %s", paymentID, payment.Status)
	}

	if s.roll() < successThreshold {
		payment.Status = models.PaymentStatusConfirmed
	} else {
		payment.Status = models.PaymentStatusFailed
	}
	payment.UpdatedAt = s.now()
	if err := s.payments.Save(ctx, payment); err != nil {
		return nil, apperr.Internal("failed to save payment", err)
	}

	if payment.Status == models.PaymentStatusConfirmed {
		if _, err := s.orders.MarkPaid(ctx, payment.OrderID); err != nil {
			return nil, err
		}
	}
	return payment, nil
}

func (s *Service) Get(ctx context.Context, userID, paymentID string) (*models.Payment, error) {
	payment, err := s.load(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(userID, payment.UserID); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *Service) load(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("payment %s not found", paymentID)
	}
	if err != nil {
		return nil, apperr.Internal("failed to load payment", err)
	}
	return payment, nil
}

func (s *Service) authorize(callerID, ownerID string) error {
	if s.testMode {
		return nil
	}
	if callerID != ownerID {
		return apperr.Forbidden("payment belongs to another user")
	}
	return nil
}
