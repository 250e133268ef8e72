// Package handler holds the gin handlers of the qm API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/infrastructure/logger"
	"github.com/qm/backend/internal/interfaces/http/dto"
	"github.com/qm/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides the response helpers every handler embeds
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// List sends one page of a listing
func (h *BaseHandler) List(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewListResponse(data, total, page, pageSize))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error envelope whose status follows the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.HTTPStatus(code), dto.NewErrorResponse(code, message, middleware.RequestID(c)))
}

// HandleError answers err: domain errors keep their code, binding failures
// are 400 with field details and anything else is logged and hidden behind
// a 500
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.RequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.JSON(dto.HTTPStatus(domainErr.Code), dto.NewErrorResponse(domainErr.Code, domainErr.Message, requestID))
		return
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(requestID, middleware.ValidationDetails(err)))
		return
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		h.Error(c, dto.ErrCodeTooLarge, "request body too large")
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		h.Error(c, dto.ErrCodeBadRequest, "malformed request body")
		return
	}

	_ = c.Error(err)
	logger.L(c.Request.Context()).Error("request failed", zap.Error(err))
	h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// BindJSON binds the body into req, answering the failure itself
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

// BindQuery binds the query string into req, answering the failure itself
func (h *BaseHandler) BindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.bindError(c, err)
		return false
	}
	return true
}

func (h *BaseHandler) bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	var maxBytes *http.MaxBytesError
	if errors.As(err, &verrs) || errors.As(err, &maxBytes) {
		h.HandleError(c, err)
		return
	}
	h.Error(c, dto.ErrCodeBadRequest, "malformed request: "+err.Error())
}

// ParamID parses a uuid path parameter, answering INVALID_ID when malformed
func (h *BaseHandler) ParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, "INVALID_ID", "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

// Tenant returns the caller's company, answering 401 when unauthenticated
func (h *BaseHandler) Tenant(c *gin.Context) (uuid.UUID, bool) {
	tenantID := middleware.TenantID(c)
	if tenantID == uuid.Nil {
		h.Error(c, dto.ErrCodeUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	return tenantID, true
}

// scope resolves the tenant and the path id of item routes
func (h *BaseHandler) scope(c *gin.Context) (tenantID, id uuid.UUID, ok bool) {
	if tenantID, ok = h.Tenant(c); !ok {
		return
	}
	id, ok = h.ParamID(c, "id")
	return
}

// listQuery binds the paging parameters shared by simple listings
func (h *BaseHandler) listQuery(c *gin.Context) (shared.Filter, bool) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return shared.Filter{}, false
	}
	return req.Filter(), true
}

// itemAction runs a body-less action on the record named by the :id param
func itemAction[T any](h *BaseHandler, c *gin.Context, fn func(ctx context.Context, tenantID, id uuid.UUID) (T, error)) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	resp, err := fn(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
