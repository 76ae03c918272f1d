package tryon_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/progress"
	"virtual-fit-backend/internal/store"
	"virtual-fit-backend/internal/supabase"
	"virtual-fit-backend/internal/tryon"
)

var fastSteps = []progress.Step{
	{Progress: 30, Message: "Preparing avatar and garment", Delay: 5 * time.Millisecond},
	{Progress: 70, Message: "Rendering try-on frames", Delay: 5 * time.Millisecond},
	{Progress: 100, Message: "Render complete", Delay: 5 * time.Millisecond},
}

type fixture struct {
	svc     *tryon.Service
	renders *store.Collection[models.TryOnRender]
}

func newFixture(t *testing.T, opts tryon.Options) *fixture {
	t.Helper()
	backend, err := store.NewMemoryBackend("")
	require.NoError(t, err)
	renders := store.NewCollection[models.TryOnRender](backend, "tryon_renders")
	avatars := store.NewCollection[models.Avatar](backend, "avatars")
	products := store.NewCollection[models.Product](backend, "products")
	storageClient, err := supabase.NewStorageClient("https://project.supabase.co", "service-key", "virtual-fit")
	require.NoError(t, err)

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, avatars.Create(ctx, &models.Avatar{
		ID: "a-1", UserID: "u-1", ScanSessionID: "s-1", Name: "Avatar", Status: "ready",
		CreatedAt: now, UpdatedAt: now,
	}))
	for _, id := range []string{"p-1", "p-2", "p-3", "p-4", "p-5", "p-6"} {
		require.NoError(t, products.Create(ctx, &models.Product{
			ID: id, Name: "Garment " + id, Category: "tops", Price: 29.99, Stock: 10,
			CreatedAt: now, UpdatedAt: now,
		}))
	}

	svc := tryon.NewService(renders, avatars, products, storageClient, nil, opts)
	return &fixture{svc: svc, renders: renders}
}

func TestStartTryOn_CreatesPendingRender(t *testing.T) {
	f := newFixture(t, tryon.Options{Steps: fastSteps})
	defer f.svc.Wait()

	render, err := f.svc.StartTryOn(context.Background(), "u-1", models.StartTryOnRequest{
		AvatarID:  "a-1",
		ProductID: "p-1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RenderStatusPending, render.Status)
	assert.Equal(t, 0, render.Progress)
	assert.Equal(t, "Render queued", render.Message)
	assert.Equal(t, tryon.DefaultEstimatedSeconds, render.EstimatedSeconds)
	assert.Empty(t, render.BatchID)
	assert.Equal(t, "standard", render.Options.Quality)
	assert.Equal(t, "studio", render.Options.Background)
}

func TestStartTryOn_RunsToCompletionWithResultURL(t *testing.T) {
	f := newFixture(t, tryon.Options{Steps: fastSteps})
	ctx := context.Background()

	render, err := f.svc.StartTryOn(ctx, "u-1", models.StartTryOnRequest{
		AvatarID:  "a-1",
		ProductID: "p-1",
		Options:   models.TryOnOptions{Quality: "high", Background: "outdoor", Size: "M"},
	})
	require.NoError(t, err)
	f.svc.Wait()

	got, err := f.svc.GetTryOnStatus(ctx, "u-1", render.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RenderStatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Contains(t, got.ResultURL, "users/u-1/renders/"+render.ID+".png")
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, "high", got.Options.Quality)
}

func TestStartTryOn_ValidatesOptions(t *testing.T) {
	f := newFixture(t, tryon.Options{Steps: fastSteps})
	ctx := context.Background()

	_, err := f.svc.StartTryOn(ctx, "u-1", models.StartTryOnRequest{
		AvatarID:  "a-1",
		ProductID: "p-1",
		Options:   models.TryOnOptions{Quality: "ultra"},
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))

	_, err = f.svc.StartTryOn(ctx, "u-1", models.StartTryOnRequest{
		AvatarID:  "a-1",
		ProductID: "p-1",
		Options:   models.TryOnOptions{Background: "moon"},
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))
}

func TestStartTryOn_ChecksAvatarAndProduct(t *testing.T) {
	f := newFixture(t, tryon.Options{Steps: fastSteps})
	ctx := context.Background()

	_, err := f.svc.StartTryOn(ctx, "u-1", models.StartTryOnRequest{AvatarID: "missing", ProductID: "p-1"})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	_, err = f.svc.StartTryOn(ctx, "u-1", models.StartTryOnRequest{AvatarID: "a-1", ProductID: "missing"})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	// Another user's avatar is off limits
	_, err = f.svc.StartTryOn(ctx, "u-2", models.StartTryOnRequest{AvatarID: "a-1", ProductID: "p-1"})
	assert.True(t, apperr.IsCode(err, apperr.CodeForbidden))
}

func TestBatchTryOn_SharesBatchID(t *testing.T) {
	f := newFixture(t, tryon.Options{Steps: fastSteps})
	ctx := context.Background()

	renders, err := f.svc.BatchTryOn(ctx, "u-1", models.BatchTryOnRequest{
		AvatarID:   "a-1",
		ProductIDs: []string{"p-1", "p-2", "p-3"},
	})
	require.NoError(t, err)
	f.svc.Wait()

	require.Len(t, renders, 3)
	batchID := renders[0].BatchID
	assert.NotEmpty(t, batchID)
	for _, r := range renders {
		assert.Equal(t, batchID, r.BatchID)
	}

	// Each render completes independently
	page, err := f.renders.FindMany(ctx, store.Filter{"batchId": batchID}, store.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	for _, r := range page.Data {
		assert.Equal(t, models.RenderStatusCompleted, r.Status)
	}
}

func TestBatchTryOn_SizeLimits(t *testing.T) {
	f := newFixture(t, tryon.Options{Steps: fastSteps})
	ctx := context.Background()

	_, err := f.svc.BatchTryOn(ctx, "u-1", models.BatchTryOnRequest{AvatarID: "a-1"})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidationFailed))

	_, err = f.svc.BatchTryOn(ctx, "u-1", models.BatchTryOnRequest{
		AvatarID:   "a-1",
		ProductIDs: []string{"p-1", "p-2", "p-3", "p-4", "p-5", "p-6"},
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeResourceExhausted))

	// Exactly the cap is fine
	renders, err := f.svc.BatchTryOn(ctx, "u-1", models.BatchTryOnRequest{
		AvatarID:   "a-1",
		ProductIDs: []string{"p-1", "p-2", "p-3", "p-4", "p-5"},
	})
	require.NoError(t, err)
	assert.Len(t, renders, 5)
	f.svc.Wait()
}

func TestBatchTryOn_BadProductCreatesNothing(t *testing.T) {
	f := newFixture(t, tryon.Options{Steps: fastSteps})
	ctx := context.Background()

	_, err := f.svc.BatchTryOn(ctx, "u-1", models.BatchTryOnRequest{
		AvatarID:   "a-1",
		ProductIDs: []string{"p-1", "missing", "p-2"},
	})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	page, err := f.renders.FindMany(ctx, nil, store.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total, "a failed batch must not leave partial renders")
}

func TestCancelTryOn_StopsRender(t *testing.T) {
	f := newFixture(t, tryon.Options{Steps: []progress.Step{
		{Progress: 100, Message: "done", Delay: 10 * time.Second},
	}})
	ctx := context.Background()

	render, err := f.svc.StartTryOn(ctx, "u-1", models.StartTryOnRequest{AvatarID: "a-1", ProductID: "p-1"})
	require.NoError(t, err)

	cancelled, err := f.svc.CancelTryOn(ctx, "u-1", render.ID)
	require.NoError(t, err)
	f.svc.Wait()

	assert.Equal(t, models.RenderStatusCancelled, cancelled.Status)
	assert.Equal(t, "Render cancelled", cancelled.Message)
	require.NotNil(t, cancelled.EndedAt)
	assert.Empty(t, cancelled.ResultURL)

	_, err = f.svc.CancelTryOn(ctx, "u-1", render.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflictingState))
}

func TestCancelTryOn_CompletedRenderConflicts(t *testing.T) {
	f := newFixture(t, tryon.Options{Steps: fastSteps})
	ctx := context.Background()

	render, err := f.svc.StartTryOn(ctx, "u-1", models.StartTryOnRequest{AvatarID: "a-1", ProductID: "p-1"})
	require.NoError(t, err)
	f.svc.Wait()

	_, err = f.svc.CancelTryOn(ctx, "u-1", render.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflictingState))
	assert.Contains(t, err.Error(), "already completed")
}

func TestGetTryOnStatus_OwnershipEnforced(t *testing.T) {
	f := newFixture(t, tryon.Options{Steps: fastSteps})
	ctx := context.Background()

	render, err := f.svc.StartTryOn(ctx, "u-1", models.StartTryOnRequest{AvatarID: "a-1", ProductID: "p-1"})
	require.NoError(t, err)
	f.svc.Wait()

	_, err = f.svc.GetTryOnStatus(ctx, "u-2", render.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeForbidden))

	_, err = f.svc.GetTryOnStatus(ctx, "u-1", "missing")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}
