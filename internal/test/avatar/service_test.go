package avatar_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/avatar"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/store"
	"virtual-fit-backend/internal/supabase"
)

func newService(t *testing.T, testMode bool) (*avatar.Service, *store.Collection[models.Avatar]) {
	t.Helper()
	backend, err := store.NewMemoryBackend("")
	require.NoError(t, err)
	avatars := store.NewCollection[models.Avatar](backend, "avatars")
	storageClient, err := supabase.NewStorageClient("https://project.supabase.co", "service-key", "virtual-fit")
	require.NoError(t, err)
	return avatar.NewService(avatars, storageClient, testMode), avatars
}

func seedAvatar(t *testing.T, avatars *store.Collection[models.Avatar], id, userID string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, avatars.Create(context.Background(), &models.Avatar{
		ID:            id,
		UserID:        userID,
		ScanSessionID: "s-" + id,
		Name:          "Avatar",
		Status:        "ready",
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}))
}

func TestList_NewestFirstOwnOnly(t *testing.T) {
	svc, avatars := newService(t, false)
	base := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	seedAvatar(t, avatars, "a-1", "u-1", base)
	seedAvatar(t, avatars, "a-2", "u-1", base.Add(time.Hour))
	seedAvatar(t, avatars, "a-3", "u-2", base.Add(2*time.Hour))

	page, err := svc.List(context.Background(), "u-1", 1, 20)
	require.NoError(t, err)

	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "a-2", page.Data[0].ID)
	assert.Equal(t, "a-1", page.Data[1].ID)
}

func TestGet_OwnershipEnforced(t *testing.T) {
	svc, avatars := newService(t, false)
	seedAvatar(t, avatars, "a-1", "u-1", time.Now())

	got, err := svc.Get(context.Background(), "u-1", "a-1")
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)

	_, err = svc.Get(context.Background(), "u-2", "a-1")
	assert.True(t, apperr.IsCode(err, apperr.CodeForbidden))

	_, err = svc.Get(context.Background(), "u-1", "missing")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestGet_TestModeSkipsOwnership(t *testing.T) {
	svc, avatars := newService(t, true)
	seedAvatar(t, avatars, "a-1", "u-1", time.Now())

	got, err := svc.Get(context.Background(), "someone-else", "a-1")
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)
}

func TestDelete_RemovesRecord(t *testing.T) {
	svc, avatars := newService(t, false)
	ctx := context.Background()
	seedAvatar(t, avatars, "a-1", "u-1", time.Now())

	require.NoError(t, svc.Delete(ctx, "u-1", "a-1"))

	_, err := avatars.FindByID(ctx, "a-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = svc.Delete(ctx, "u-1", "a-1")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestDelete_OtherUserForbidden(t *testing.T) {
	svc, avatars := newService(t, false)
	seedAvatar(t, avatars, "a-1", "u-1", time.Now())

	err := svc.Delete(context.Background(), "u-2", "a-1")
	assert.True(t, apperr.IsCode(err, apperr.CodeForbidden))

	// Record untouched
	_, ferr := avatars.FindByID(context.Background(), "a-1")
	assert.NoError(t, ferr)
}
