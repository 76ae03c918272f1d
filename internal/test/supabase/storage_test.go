package supabase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"virtual-fit-backend/internal/supabase"
)

func newTestStorage(t *testing.T) *supabase.StorageClient {
	t.Helper()
	client, err := supabase.NewStorageClient("https://project.supabase.co", "service-key", "virtual-fit")
	require.NoError(t, err)
	return client
}

func TestStorageClient_AssetPaths(t *testing.T) {
	client := newTestStorage(t)

	assert.Equal(t, "users/u-1/avatars/a-1/model.glb", client.AvatarModelPath("u-1", "a-1"))
	assert.Equal(t, "users/u-1/avatars/a-1/preview.png", client.AvatarPreviewPath("u-1", "a-1"))
	assert.Equal(t, "users/u-1/renders/r-1.png", client.RenderImagePath("u-1", "r-1"))
}

func TestStorageClient_PublicURL(t *testing.T) {
	client := newTestStorage(t)

	url := client.PublicURL("users/u-1/captures/front.jpg")
	assert.Equal(t, "https://project.supabase.co/storage/v1/object/public/virtual-fit/users/u-1/captures/front.jpg", url)
}

func TestStorageClient_PublicURL_TrailingSlashTrimmed(t *testing.T) {
	client, err := supabase.NewStorageClient("https://project.supabase.co/", "service-key", "virtual-fit")
	require.NoError(t, err)

	url := client.PublicURL("users/u-1/renders/r-1.png")
	assert.Equal(t, "https://project.supabase.co/storage/v1/object/public/virtual-fit/users/u-1/renders/r-1.png", url)
}
