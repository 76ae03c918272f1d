package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/cart"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/store"
)

type fixture struct {
	svc      *cart.Service
	products *store.Collection[models.Product]
	carts    *store.Collection[models.Cart]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend, err := store.NewMemoryBackend("")
	require.NoError(t, err)
	carts := store.NewCollection[models.Cart](backend, "carts")
	products := store.NewCollection[models.Product](backend, "products")

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, products.Create(ctx, &models.Product{
		ID: "p-tee", Name: "Basic Tee", Category: "tops", Price: 29.99, Stock: 50,
		Sizes: []string{"S", "M", "L"}, Colors: []string{"black", "white"},
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, products.Create(ctx, &models.Product{
		ID: "p-jeans", Name: "Slim Jeans", Category: "bottoms", Price: 40.00, Stock: 20,
		CreatedAt: now, UpdatedAt: now,
	}))

	return &fixture{svc: cart.NewService(carts, products), products: products, carts: carts}
}

func TestGetCart_CreatesEmptyCartOnFirstUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.GetCart(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.Empty(t, got.Items)
	assert.Equal(t, 0, got.ItemCount)
	assert.Equal(t, 0.0, got.Total)

	// Second read returns the same cart
	again, err := f.svc.GetCart(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)
}

func TestAddItem_ComputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{
		ProductID: "p-tee", Size: "M", Color: "black", Quantity: 2,
	})
	require.NoError(t, err)

	got, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{
		ProductID: "p-jeans", Quantity: 1,
	})
	require.NoError(t, err)

	require.Len(t, got.Items, 2)
	assert.Equal(t, 3, got.ItemCount)
	assert.InDelta(t, 59.98, got.Items[0].LineTotal, 0.001)
	assert.InDelta(t, 40.00, got.Items[1].LineTotal, 0.001)
	assert.InDelta(t, 99.98, got.Total, 0.001)
}

func TestAddItem_MergesSameVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{
		ProductID: "p-tee", Size: "M", Color: "black", Quantity: 1,
	})
	require.NoError(t, err)

	got, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{
		ProductID: "p-tee", Size: "M", Color: "black", Quantity: 2,
	})
	require.NoError(t, err)

	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.InDelta(t, 89.97, got.Items[0].LineTotal, 0.001)

	// A different size is its own line
	got, err = f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{
		ProductID: "p-tee", Size: "L", Color: "black", Quantity: 1,
	})
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestAddItem_RepeatAddDoublesLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, f.products.Create(ctx, &models.Product{
		ID: "p-hoodie", Name: "Zip Hoodie", Category: "tops", Price: 49.99, Stock: 10,
		CreatedAt: now, UpdatedAt: now,
	}))

	_, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-hoodie", Quantity: 1})
	require.NoError(t, err)
	got, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-hoodie", Quantity: 1})
	require.NoError(t, err)

	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.InDelta(t, 99.98, got.Items[0].LineTotal, 0.001)
	assert.InDelta(t, 99.98, got.Total, 0.001)
}

func TestAddItem_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{Quantity: 1})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))

	_, err = f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-tee", Quantity: 0})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))

	_, err = f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "missing", Quantity: 1})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	_, err = f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-tee", Size: "XXL", Quantity: 1})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))

	_, err = f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-tee", Color: "green", Quantity: 1})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))
}

func TestUpdateItem_ChangesQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-tee", Quantity: 1})
	require.NoError(t, err)
	itemID := added.Items[0].ID

	got, err := f.svc.UpdateItem(ctx, "u-1", itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Items[0].Quantity)
	assert.InDelta(t, 119.96, got.Total, 0.001)

	_, err = f.svc.UpdateItem(ctx, "u-1", itemID, 0)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))

	_, err = f.svc.UpdateItem(ctx, "u-1", "missing", 2)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestRemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	added, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-tee", Quantity: 2})
	require.NoError(t, err)
	itemID := added.Items[0].ID

	got, err := f.svc.RemoveItem(ctx, "u-1", itemID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Equal(t, 0, got.ItemCount)
	assert.Equal(t, 0.0, got.Total)

	_, err = f.svc.RemoveItem(ctx, "u-1", itemID)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-tee", Quantity: 2})
	require.NoError(t, err)

	got, err := f.svc.Clear(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Equal(t, 0.0, got.Total)

	// The cart record itself survives
	reloaded, err := f.svc.GetCart(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, got.ID, reloaded.ID)
}

func TestGetCart_DropsDeletedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-tee", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-jeans", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(ctx, "p-jeans"))

	got, err := f.svc.GetCart(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "p-tee", got.Items[0].ProductID)
	assert.InDelta(t, 29.99, got.Total, 0.001)

	// The pruned cart was persisted
	stored, err := f.carts.FindByID(ctx, got.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1)
}

func TestGetCart_PicksUpPriceChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-tee", Quantity: 2})
	require.NoError(t, err)

	product, err := f.products.FindByID(ctx, "p-tee")
	require.NoError(t, err)
	product.Price = 24.99
	product.Name = "Basic Tee (Sale)"
	require.NoError(t, f.products.Save(ctx, product))

	got, err := f.svc.GetCart(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Basic Tee (Sale)", got.Items[0].Name)
	assert.InDelta(t, 24.99, got.Items[0].UnitPrice, 0.001)
	assert.InDelta(t, 49.98, got.Total, 0.001)
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "u-1", models.AddCartItemRequest{ProductID: "p-tee", Quantity: 1})
	require.NoError(t, err)

	other, err := f.svc.GetCart(ctx, "u-2")
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}
