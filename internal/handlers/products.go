package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"virtual-fit-backend/internal/catalog"
	"virtual-fit-backend/internal/models"
)

type ProductsHandler struct {
	catalog *catalog.Service
}

func NewProductsHandler(catalogService *catalog.Service) *ProductsHandler {
	return &ProductsHandler{
		catalog: catalogService,
	}
}

// ListProducts godoc
// @Summary     List products
// @Tags        products
// @Produce     json
// @Security    Bearer
// @Param       category query string false "Filter by category"
// @Param       page query int false "Page number (1-based)"
// @Param       limit query int false "Page size"
// @Success     200 {object} models.APIResponse
// @Router      /products [get]
func (h *ProductsHandler) ListProducts(c *gin.Context) {
	page, limit := pagination(c)

	result, err := h.catalog.List(c.Request.Context(), c.Query("category"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

// GetProduct godoc
// @Summary     Get a product
// @Tags        products
// @Produce     json
// @Security    Bearer
// @Param       product_id path string true "Product ID"
// @Success     200 {object} models.APIResponse{data=models.Product}
// @Failure     404 {object} models.APIError
// @Router      /products/{product_id} [get]
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.Get(c.Request.Context(), c.Param("product_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, product)
}

// CreateProduct godoc
// @Summary     Create a product
// @Tags        products
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.ProductRequest true "Product fields"
// @Success     201 {object} models.APIResponse{data=models.Product}
// @Failure     400 {object} models.APIError
// @Router      /products [post]
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, product)
}

// UpdateProduct godoc
// @Summary     Update a product
// @Tags        products
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       product_id path string true "Product ID"
// @Param       request body models.ProductRequest true "Product fields"
// @Success     200 {object} models.APIResponse{data=models.Product}
// @Failure     400 {object} models.APIError
// @Failure     404 {object} models.APIError
// @Router      /products/{product_id} [put]
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), c.Param("product_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, product)
}

// DeleteProduct godoc
// @Summary     Delete a product
// @Tags        products
// @Produce     json
// @Security    Bearer
// @Param       product_id path string true "Product ID"
// @Success     200 {object} models.APIResponse
// @Failure     404 {object} models.APIError
// @Router      /products/{product_id} [delete]
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("product_id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Product deleted")
}
