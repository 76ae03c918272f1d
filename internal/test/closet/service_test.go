package closet_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/closet"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/store"
)

func newService(t *testing.T, testMode bool) (*closet.Service, *store.Collection[models.Product]) {
	t.Helper()
	backend, err := store.NewMemoryBackend("")
	require.NoError(t, err)
	items := store.NewCollection[models.ClosetItem](backend, "closet_items")
	products := store.NewCollection[models.Product](backend, "products")

	ctx := context.Background()
	now := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, products.Create(ctx, &models.Product{
			ID: fmt.Sprintf("p-%d", i), Name: fmt.Sprintf("Item %d", i), Category: "tops",
			Price: 10, Stock: 5, CreatedAt: now, UpdatedAt: now,
		}))
	}
	return closet.NewService(items, products, testMode), products
}

func TestAdd_DefaultsToManualSource(t *testing.T) {
	svc, _ := newService(t, false)

	got, err := svc.Add(context.Background(), "u-1", models.AddClosetItemRequest{ProductID: "p-0"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.Equal(t, "p-0", got.ProductID)
	assert.Equal(t, models.ClosetSourceManual, got.Source)
	assert.False(t, got.AddedAt.IsZero())
}

func TestAdd_Validation(t *testing.T) {
	svc, _ := newService(t, false)
	ctx := context.Background()

	_, err := svc.Add(ctx, "u-1", models.AddClosetItemRequest{})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))
	assert.Contains(t, err.Error(), "product id is required")

	_, err = svc.Add(ctx, "u-1", models.AddClosetItemRequest{ProductID: "p-0", Source: "gift"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))
	assert.Contains(t, err.Error(), `invalid source "gift"`)

	_, err = svc.Add(ctx, "u-1", models.AddClosetItemRequest{ProductID: "no-such-product"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestAdd_DuplicateProductConflicts(t *testing.T) {
	svc, _ := newService(t, false)
	ctx := context.Background()

	_, err := svc.Add(ctx, "u-1", models.AddClosetItemRequest{ProductID: "p-0", Source: models.ClosetSourceTryOn})
	require.NoError(t, err)

	_, err = svc.Add(ctx, "u-1", models.AddClosetItemRequest{ProductID: "p-0"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflictingState))
	assert.Contains(t, err.Error(), "already in the closet")

	// Another user can still save the same product.
	_, err = svc.Add(ctx, "u-2", models.AddClosetItemRequest{ProductID: "p-0"})
	require.NoError(t, err)
}

func TestList_NewestFirstOwnOnly(t *testing.T) {
	svc, _ := newService(t, false)
	ctx := context.Background()

	first, err := svc.Add(ctx, "u-1", models.AddClosetItemRequest{ProductID: "p-0"})
	require.NoError(t, err)
	second, err := svc.Add(ctx, "u-1", models.AddClosetItemRequest{ProductID: "p-1"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, "u-2", models.AddClosetItemRequest{ProductID: "p-2"})
	require.NoError(t, err)

	page, err := svc.List(ctx, "u-1", 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Total)
	ids := []string{page.Data[0].ID, page.Data[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
	for _, item := range page.Data {
		assert.Equal(t, "u-1", item.UserID)
	}
}

func TestRemove_OwnershipEnforced(t *testing.T) {
	svc, _ := newService(t, false)
	ctx := context.Background()

	item, err := svc.Add(ctx, "u-1", models.AddClosetItemRequest{ProductID: "p-0"})
	require.NoError(t, err)

	err = svc.Remove(ctx, "u-2", item.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeForbidden))

	require.NoError(t, svc.Remove(ctx, "u-1", item.ID))

	err = svc.Remove(ctx, "u-1", item.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestRemove_TestModeSkipsOwnership(t *testing.T) {
	svc, _ := newService(t, true)
	ctx := context.Background()

	item, err := svc.Add(ctx, "u-1", models.AddClosetItemRequest{ProductID: "p-0"})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, "someone-else", item.ID))
}
