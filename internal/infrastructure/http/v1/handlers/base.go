// Package handlers provides HTTP request handlers.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"orderdesk/internal/core/apperror"
	appctx "orderdesk/internal/core/context"
	"orderdesk/internal/core/id"
	"orderdesk/internal/domain/visibility"
	"orderdesk/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct {
	policy *visibility.Policy
}

// NewBaseHandler creates a new base handler.
func NewBaseHandler(policy *visibility.Policy) *BaseHandler {
	return &BaseHandler{policy: policy}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, bindError("invalid request body", err))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, bindError("invalid query parameters", err))
		return false
	}
	return true
}

func bindError(message string, err error) *apperror.AppError {
	appErr := apperror.NewValidation(message)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		return appErr.WithDetail("fields", fields)
	}
	return appErr.WithDetail("error", err.Error())
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID parses an id path parameter.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	v, err := dto.ParseID(param, c.Param(param))
	if err != nil {
		h.Error(c, err)
		return id.Nil(), false
	}
	return v, true
}

// ParseIndex parses a non-negative integer path parameter.
func (h *BaseHandler) ParseIndex(c *gin.Context, param string) (int, bool) {
	n, err := strconv.Atoi(c.Param(param))
	if err != nil || n < 0 {
		h.Error(c, apperror.NewValidation("invalid index").WithDetail("value", c.Param(param)))
		return 0, false
	}
	return n, true
}

// Viewer returns the authenticated viewer of the request.
func (h *BaseHandler) Viewer(c *gin.Context) *appctx.Viewer {
	return appctx.GetViewer(c.Request.Context())
}

// Decide evaluates field visibility for the request viewer.
func (h *BaseHandler) Decide(c *gin.Context) visibility.Decision {
	return h.policy.Decide(h.Viewer(c))
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
