package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/supabase"
)

type UploadsHandler struct {
	storageClient *supabase.StorageClient
}

func NewUploadsHandler(storageClient *supabase.StorageClient) *UploadsHandler {
	return &UploadsHandler{
		storageClient: storageClient,
	}
}

// Upload godoc
// @Summary     Upload capture images
// @Description Uploads one or more capture images to storage and returns their paths, for use in a scan start request
// @Tags        uploads
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       images formData file true "Capture images (multiple files allowed)"
// @Success     201 {object} models.APIResponse{data=models.UploadResponse}
// @Failure     400 {object} models.APIError
// @Failure     401 {object} models.APIError
// @Failure     500 {object} models.APIError
// @Router      /uploads [post]
func (h *UploadsHandler) Upload(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	// 32MB in-memory cap for the multipart form.
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		respondError(c, apperr.Validation("failed to parse multipart form: %v", err))
		return
	}
	form := c.Request.MultipartForm
	if form == nil || len(form.File["images"]) == 0 {
		respondError(c, apperr.Validation("no images provided, use the 'images' form field"))
		return
	}

	uploaded := make([]models.UploadedFile, 0, len(form.File["images"]))
	for _, header := range form.File["images"] {
		file, err := header.Open()
		if err != nil {
			respondError(c, apperr.Internal(fmt.Sprintf("failed to open %s", header.Filename), err))
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			respondError(c, apperr.Internal(fmt.Sprintf("failed to read %s", header.Filename), err))
			return
		}

		// Unique name per upload so client filenames never collide.
		name := uuid.NewString() + filepath.Ext(header.Filename)
		path, url, err := h.storageClient.UploadCapture(uid, name, header.Header.Get("Content-Type"), data)
		if err != nil {
			respondError(c, apperr.Internal(fmt.Sprintf("failed to store %s", header.Filename), err))
			return
		}

		uploaded = append(uploaded, models.UploadedFile{
			Filename: header.Filename,
			Path:     path,
			URL:      url,
			Size:     header.Size,
		})
	}

	respondData(c, http.StatusCreated, models.UploadResponse{Files: uploaded})
}
