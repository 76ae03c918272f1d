package supabase

import (
	"bytes"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// StorageClient holds the asset bucket: capture uploads, avatar model
// files and try-on render images all live under users/{user_id}/.
type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// UploadCapture stores one scan capture image and returns its storage path
// and public URL.
func (s *StorageClient) UploadCapture(userID, filename, contentType string, data []byte) (string, string, error) {
	storagePath := fmt.Sprintf("users/%s/captures/%s", userID, filename)

	if contentType == "" {
		contentType = "image/jpeg"
	}
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload capture: %w", err)
	}

	return storagePath, s.PublicURL(storagePath), nil
}

// AvatarModelPath returns the canonical storage path of an avatar's model
// file. The simulated pipeline never writes these objects; the path is the
// reference clients resolve.
func (s *StorageClient) AvatarModelPath(userID, avatarID string) string {
	return fmt.Sprintf("users/%s/avatars/%s/model.glb", userID, avatarID)
}

func (s *StorageClient) AvatarPreviewPath(userID, avatarID string) string {
	return fmt.Sprintf("users/%s/avatars/%s/preview.png", userID, avatarID)
}

func (s *StorageClient) RenderImagePath(userID, renderID string) string {
	return fmt.Sprintf("users/%s/renders/%s.png", userID, renderID)
}

func (s *StorageClient) PublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}

func (s *StorageClient) DeleteFile(storagePath string) error {
	_, err := s.client.RemoveFile(s.bucket, []string{storagePath})
	return err
}

// DeleteAvatarAssets removes everything stored under an avatar's prefix.
func (s *StorageClient) DeleteAvatarAssets(userID, avatarID string) error {
	prefix := fmt.Sprintf("users/%s/avatars/%s/", userID, avatarID)

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) > 0 {
		filePaths := make([]string, len(files))
		for i, file := range files {
			filePaths[i] = file.Name
		}
		if _, err := s.client.RemoveFile(s.bucket, filePaths); err != nil {
			return fmt.Errorf("failed to delete files: %w", err)
		}
	}

	return nil
}

func (s *StorageClient) DownloadFile(storagePath string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	return data, nil
}
