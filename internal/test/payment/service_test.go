package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/cart"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/notify"
	"virtual-fit-backend/internal/order"
	"virtual-fit-backend/internal/payment"
	"virtual-fit-backend/internal/store"
)

type fixture struct {
	svc    *payment.Service
	orders *order.Service
}

// newFixture wires a payment service with a pinned roll and seeds one
// pending order for u-1 (29.99 subtotal + 10.00 shipping + 2.40 tax).
func newFixture(t *testing.T, roll float64) (*fixture, *models.Order) {
	t.Helper()
	backend, err := store.NewMemoryBackend("")
	require.NoError(t, err)
	payments := store.NewCollection[models.Payment](backend, "payments")
	orderStore := store.NewCollection[models.Order](backend, "orders")
	products := store.NewCollection[models.Product](backend, "products")
	profiles := store.NewCollection[models.Profile](backend, "profiles")
	carts := cart.NewService(store.NewCollection[models.Cart](backend, "carts"), products)
	mailer := notify.NewMailer("", "Virtual Fit", "noreply@example.com")
	orders := order.NewService(orderStore, products, profiles, carts, mailer, false)

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, products.Create(ctx, &models.Product{
		ID: "p-tee", Name: "Basic Tee", Category: "tops", Price: 29.99, Stock: 10,
		CreatedAt: now, UpdatedAt: now,
	}))
	_, err = carts.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-tee", Quantity: 1})
	require.NoError(t, err)
	placed, err := orders.Create(ctx, "u-1", models.CreateOrderRequest{})
	require.NoError(t, err)

	svc := payment.NewService(payments, orders, payment.Options{
		Roll: func() float64 { return roll },
	})
	return &fixture{svc: svc, orders: orders}, placed
}

func TestCreate_SnapshotsOrderTotal(t *testing.T) {
	f, placed := newFixture(t, 0.1)
	ctx := context.Background()

	got, err := f.svc.Create(ctx, "u-1", models.CreatePaymentRequest{OrderID: placed.ID, Method: "card"})
	require.NoError(t, err)
	assert.Equal(t, placed.ID, got.OrderID)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, models.PaymentStatusPending, got.Status)
	assert.Equal(t, "card", got.Method)
	assert.InDelta(t, placed.Total, got.Amount, 0.001)
}

func TestCreate_Validation(t *testing.T) {
	f, placed := newFixture(t, 0.1)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "u-1", models.CreatePaymentRequest{Method: "card"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))
	assert.Contains(t, err.Error(), "order id is required")

	_, err = f.svc.Create(ctx, "u-1", models.CreatePaymentRequest{OrderID: placed.ID, Method: "cheque"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))
	assert.Contains(t, err.Error(), `invalid payment method "cheque"`)

	_, err = f.svc.Create(ctx, "u-1", models.CreatePaymentRequest{OrderID: "no-such-order", Method: "card"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestCreate_NonPendingOrderConflicts(t *testing.T) {
	f, placed := newFixture(t, 0.1)
	ctx := context.Background()

	_, err := f.orders.MarkPaid(ctx, placed.ID)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, "u-1", models.CreatePaymentRequest{OrderID: placed.ID, Method: "card"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflictingState))
	assert.Contains(t, err.Error(), "cannot be paid in status paid")
}

func TestCreate_OtherUsersOrderForbidden(t *testing.T) {
	f, placed := newFixture(t, 0.1)

	_, err := f.svc.Create(context.Background(), "u-2", models.CreatePaymentRequest{OrderID: placed.ID, Method: "card"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeForbidden))
}

func TestConfirm_SuccessMarksOrderPaid(t *testing.T) {
	f, placed := newFixture(t, 0.1)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "u-1", models.CreatePaymentRequest{OrderID: placed.ID, Method: "card"})
	require.NoError(t, err)

	got, err := f.svc.Confirm(ctx, "u-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusConfirmed, got.Status)

	ord, err := f.orders.Get(ctx, "u-1", placed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, ord.Status)
}

func TestConfirm_FailureLeavesOrderPending(t *testing.T) {
	f, placed := newFixture(t, 0.9)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "u-1", models.CreatePaymentRequest{OrderID: placed.ID, Method: "paypal"})
	require.NoError(t, err)

	got, err := f.svc.Confirm(ctx, "u-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, got.Status)

	// The order is still payable, so a fresh attempt can be opened.
	ord, err := f.orders.Get(ctx, "u-1", placed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, ord.Status)

	retry, err := f.svc.Create(ctx, "u-1", models.CreatePaymentRequest{OrderID: placed.ID, Method: "card"})
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, retry.ID)
	assert.Equal(t, models.PaymentStatusPending, retry.Status)
}

func TestConfirm_TwiceConflicts(t *testing.T) {
	f, placed := newFixture(t, 0.1)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "u-1", models.CreatePaymentRequest{OrderID: placed.ID, Method: "card"})
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, "u-1", created.ID)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, "u-1", created.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflictingState))
	assert.Contains(t, err.Error(), "already confirmed")
}

func TestConfirm_OwnershipEnforced(t *testing.T) {
	f, placed := newFixture(t, 0.1)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "u-1", models.CreatePaymentRequest{OrderID: placed.ID, Method: "card"})
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, "u-2", created.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeForbidden))
}

func TestGet_UnknownPayment(t *testing.T) {
	f, _ := newFixture(t, 0.1)

	_, err := f.svc.Get(context.Background(), "u-1", "no-such-payment")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}
