package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/tryon"
)

type TryOnHandler struct {
	renders *tryon.Service
}

func NewTryOnHandler(renders *tryon.Service) *TryOnHandler {
	return &TryOnHandler{
		renders: renders,
	}
}

// StartTryOn godoc
// @Summary     Start a try-on render
// @Description Renders a product on an avatar; poll the returned render for progress
// @Tags        tryon
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.StartTryOnRequest true "Avatar, product and render options"
// @Success     202 {object} models.APIResponse{data=models.TryOnRender}
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /tryon [post]
func (h *TryOnHandler) StartTryOn(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.StartTryOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	render, err := h.renders.StartTryOn(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusAccepted, render, "Render started")
}

// BatchTryOn godoc
// @Summary     Start a batch of try-on renders
// @Description Renders up to 5 products on one avatar as independent jobs sharing a batch id
// @Tags        tryon
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.BatchTryOnRequest true "Avatar, products and render options"
// @Success     202 {object} models.APIResponse
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /tryon/batch [post]
func (h *TryOnHandler) BatchTryOn(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.BatchTryOnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	renders, err := h.renders.BatchTryOn(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusAccepted, renders, "Batch render started")
}

// GetTryOn godoc
// @Summary     Get a try-on render
// @Tags        tryon
// @Produce     json
// @Security    Bearer
// @Param       render_id path string true "Render ID"
// @Success     200 {object} models.APIResponse{data=models.TryOnRender}
// @Failure     403 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /tryon/{render_id} [get]
func (h *TryOnHandler) GetTryOn(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	render, err := h.renders.GetTryOnStatus(c.Request.Context(), uid, c.Param("render_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, render)
}

// CancelTryOn godoc
// @Summary     Cancel a try-on render
// @Tags        tryon
// @Produce     json
// @Security    Bearer
// @Param       render_id path string true "Render ID"
// @Success     200 {object} models.APIResponse{data=models.TryOnRender}
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /tryon/{render_id}/cancel [post]
func (h *TryOnHandler) CancelTryOn(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	render, err := h.renders.CancelTryOn(c.Request.Context(), uid, c.Param("render_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, render, "Render cancelled")
}
