package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"virtual-fit-backend/internal/avatar"
)

type AvatarsHandler struct {
	avatars *avatar.Service
}

func NewAvatarsHandler(avatars *avatar.Service) *AvatarsHandler {
	return &AvatarsHandler{
		avatars: avatars,
	}
}

// ListAvatars godoc
// @Summary     List avatars
// @Description Returns the caller's avatars, newest first
// @Tags        avatars
// @Produce     json
// @Security    Bearer
// @Param       page query int false "Page number (1-based)"
// @Param       limit query int false "Page size"
// @Success     200 {object} models.APIResponse
// @Failure     401 {object} models.APIError
// @Router      /avatars [get]
func (h *AvatarsHandler) ListAvatars(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	page, limit := pagination(c)

	result, err := h.avatars.List(c.Request.Context(), uid, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

// GetAvatar godoc
// @Summary     Get an avatar
// @Tags        avatars
// @Produce     json
// @Security    Bearer
// @Param       avatar_id path string true "Avatar ID"
// @Success     200 {object} models.APIResponse{data=models.Avatar}
// @Failure     403 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /avatars/{avatar_id} [get]
func (h *AvatarsHandler) GetAvatar(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	av, err := h.avatars.Get(c.Request.Context(), uid, c.Param("avatar_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, av)
}

// DeleteAvatar godoc
// @Summary     Delete an avatar
// @Description Removes the avatar and its stored assets. The originating scan session is kept.
// @Tags        avatars
// @Produce     json
// @Security    Bearer
// @Param       avatar_id path string true "Avatar ID"
// @Success     200 {object} models.APIResponse
// @Failure     403 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /avatars/{avatar_id} [delete]
func (h *AvatarsHandler) DeleteAvatar(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	if err := h.avatars.Delete(c.Request.Context(), uid, c.Param("avatar_id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Avatar deleted")
}
