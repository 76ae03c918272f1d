package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"virtual-fit-backend/internal/cart"
	"virtual-fit-backend/internal/models"
)

type CartHandler struct {
	cart *cart.Service
}

func NewCartHandler(cartService *cart.Service) *CartHandler {
	return &CartHandler{
		cart: cartService,
	}
}

// GetCart godoc
// @Summary     Get the cart
// @Description Returns the caller's cart, recomputed against the current catalog
// @Tags        cart
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.APIResponse{data=models.Cart}
// @Failure     401 {object} models.APIError
// @Router      /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	userCart, err := h.cart.GetCart(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, userCart)
}

// AddCartItem godoc
// @Summary     Add a product to the cart
// @Description Adds a product variant; the same product, size and color merge into one line
// @Tags        cart
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.AddCartItemRequest true "Product, variant and quantity"
// @Success     201 {object} models.APIResponse{data=models.Cart}
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /cart/items [post]
func (h *CartHandler) AddCartItem(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	userCart, err := h.cart.AddItem(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, userCart)
}

// UpdateCartItem godoc
// @Summary     Update a cart line's quantity
// @Tags        cart
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       item_id path string true "Cart item ID"
// @Param       request body models.UpdateCartItemRequest true "New quantity"
// @Success     200 {object} models.APIResponse{data=models.Cart}
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /cart/items/{item_id} [put]
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	userCart, err := h.cart.UpdateItem(c.Request.Context(), uid, c.Param("item_id"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, userCart)
}

// RemoveCartItem godoc
// @Summary     Remove a cart line
// @Tags        cart
// @Produce     json
// @Security    Bearer
// @Param       item_id path string true "Cart item ID"
// @Success     200 {object} models.APIResponse{data=models.Cart}
// @Failure     404 {object} models.APIError
// @Router      /cart/items/{item_id} [delete]
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	userCart, err := h.cart.RemoveItem(c.Request.Context(), uid, c.Param("item_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, userCart)
}

// ClearCart godoc
// @Summary     Clear the cart
// @Tags        cart
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.APIResponse{data=models.Cart}
// @Failure     401 {object} models.APIError
// @Router      /cart [delete]
func (h *CartHandler) ClearCart(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	userCart, err := h.cart.Clear(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, userCart, "Cart cleared")
}
