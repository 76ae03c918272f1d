// Package handlers is the HTTP surface. Every endpoint speaks the same
// envelope: {"success":true,"data":…} or {"success":false,"error":{…}}.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/middleware"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/store"
)

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, models.APIResponse{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, data any, message string) {
	c.JSON(status, models.APIResponse{Success: true, Data: data, Message: message})
}

// respondError maps any error onto the failure envelope. Unknown errors
// become INTERNAL.
func respondError(c *gin.Context, err error) {
	e := apperr.From(err)
	c.JSON(e.HTTPStatus(), models.APIError{
		Success: false,
		Error:   models.ErrorBody{Code: e.Code, Message: e.Message},
	})
}

// userID pulls the authenticated subject off the context. The auth
// middleware always sets it; a miss means the route is miswired.
func userID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.UserIDKey)
	if !exists {
		respondError(c, apperr.Unauthorized("user id not found"))
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		respondError(c, apperr.Unauthorized("user id not found"))
		return "", false
	}
	return id, true
}

// bindError turns a gin body-binding failure into the validation error
// shape.
func bindError(err error) error {
	return apperr.Validation("invalid request body: %v", err)
}

// pagination reads ?page and ?limit, leaving zero for the store defaults.
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	if page < 0 {
		page = 0
	}
	if limit < 0 {
		limit = 0
	}
	if limit > store.MaxLimit {
		limit = store.MaxLimit
	}
	return page, limit
}
