package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/users"
)

type UsersHandler struct {
	users *users.Service
}

func NewUsersHandler(usersService *users.Service) *UsersHandler {
	return &UsersHandler{
		users: usersService,
	}
}

// GetMe godoc
// @Summary     Get my profile
// @Description Returns the caller's profile, provisioning an empty one on first read
// @Tags        users
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.APIResponse{data=models.Profile}
// @Failure     401 {object} models.APIError
// @Router      /users/me [get]
func (h *UsersHandler) GetMe(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	profile, err := h.users.GetMe(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, profile)
}

// UpdateMe godoc
// @Summary     Update my profile
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.UpdateProfileRequest true "Profile fields to update"
// @Success     200 {object} models.APIResponse{data=models.Profile}
// @Failure     400 {object} models.APIError
// @Failure     401 {object} models.APIError
// @Router      /users/me [put]
func (h *UsersHandler) UpdateMe(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	profile, err := h.users.UpdateMe(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, profile)
}
