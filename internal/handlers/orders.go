package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/order"
)

type OrdersHandler struct {
	orders *order.Service
}

func NewOrdersHandler(orders *order.Service) *OrdersHandler {
	return &OrdersHandler{
		orders: orders,
	}
}

// CreateOrder godoc
// @Summary     Place an order
// @Description Places an order from the caller's cart: snapshots lines, reserves stock, prices shipping and tax, clears the cart
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateOrderRequest false "Shipping address (optional)"
// @Success     201 {object} models.APIResponse{data=models.Order}
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /orders [post]
func (h *OrdersHandler) CreateOrder(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An empty body is a valid order with no shipping address.
		req = models.CreateOrderRequest{}
	}

	ord, err := h.orders.Create(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, ord, "Order placed")
}

// ListOrders godoc
// @Summary     List orders
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       page query int false "Page number (1-based)"
// @Param       limit query int false "Page size"
// @Success     200 {object} models.APIResponse
// @Failure     401 {object} models.APIError
// @Router      /orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	page, limit := pagination(c)

	result, err := h.orders.List(c.Request.Context(), uid, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

// GetOrder godoc
// @Summary     Get an order
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID"
// @Success     200 {object} models.APIResponse{data=models.Order}
// @Failure     403 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /orders/{order_id} [get]
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	ord, err := h.orders.Get(c.Request.Context(), uid, c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, ord)
}

// CancelOrder godoc
// @Summary     Cancel an order
// @Description Cancels a pending or paid order and restores its stock
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID"
// @Success     200 {object} models.APIResponse{data=models.Order}
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /orders/{order_id}/cancel [post]
func (h *OrdersHandler) CancelOrder(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	ord, err := h.orders.Cancel(c.Request.Context(), uid, c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, ord, "Order cancelled")
}
