package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"virtual-fit-backend/internal/closet"
	"virtual-fit-backend/internal/models"
)

type ClosetHandler struct {
	closet *closet.Service
}

func NewClosetHandler(closetService *closet.Service) *ClosetHandler {
	return &ClosetHandler{
		closet: closetService,
	}
}

// AddClosetItem godoc
// @Summary     Save a product to the closet
// @Tags        closet
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.AddClosetItemRequest true "Product and source"
// @Success     201 {object} models.APIResponse{data=models.ClosetItem}
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /closet [post]
func (h *ClosetHandler) AddClosetItem(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.AddClosetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	item, err := h.closet.Add(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, item)
}

// ListCloset godoc
// @Summary     List the closet
// @Tags        closet
// @Produce     json
// @Security    Bearer
// @Param       page query int false "Page number (1-based)"
// @Param       limit query int false "Page size"
// @Success     200 {object} models.APIResponse
// @Failure     401 {object} models.APIError
// @Router      /closet [get]
func (h *ClosetHandler) ListCloset(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	page, limit := pagination(c)

	result, err := h.closet.List(c.Request.Context(), uid, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

// RemoveClosetItem godoc
// @Summary     Remove a closet item
// @Tags        closet
// @Produce     json
// @Security    Bearer
// @Param       item_id path string true "Closet item ID"
// @Success     200 {object} models.APIResponse
// @Failure     403 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /closet/{item_id} [delete]
func (h *ClosetHandler) RemoveClosetItem(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	if err := h.closet.Remove(c.Request.Context(), uid, c.Param("item_id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Closet item removed")
}
