package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/payment"
)

type PaymentsHandler struct {
	payments *payment.Service
}

func NewPaymentsHandler(payments *payment.Service) *PaymentsHandler {
	return &PaymentsHandler{
		payments: payments,
	}
}

// CreatePayment godoc
// @Summary     Create a payment
// @Description Opens a payment attempt for a pending order
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreatePaymentRequest true "Order and method"
// @Success     201 {object} models.APIResponse{data=models.Payment}
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /payments [post]
func (h *PaymentsHandler) CreatePayment(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	pay, err := h.payments.Create(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, pay)
}

// GetPayment godoc
// @Summary     Get a payment
// @Tags        payments
// @Produce     json
// @Security    Bearer
// @Param       payment_id path string true "Payment ID"
// @Success     200 {object} models.APIResponse{data=models.Payment}
// @Failure     403 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /payments/{payment_id} [get]
func (h *PaymentsHandler) GetPayment(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	pay, err := h.payments.Get(c.Request.Context(), uid, c.Param("payment_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, pay)
}

// ConfirmPayment godoc
// @Summary     Confirm a payment
// @Description Settles a pending payment; on success the order moves to paid
// @Tags        payments
// @Produce     json
// @Security    Bearer
// @Param       payment_id path string true "Payment ID"
// @Success     200 {object} models.APIResponse{data=models.Payment}
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /payments/{payment_id}/confirm [post]
func (h *PaymentsHandler) ConfirmPayment(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	pay, err := h.payments.Confirm(c.Request.Context(), uid, c.Param("payment_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, pay)
}
