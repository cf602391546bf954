package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/retailops/backend/internal/domain/reconciliation"
	"github.com/retailops/backend/internal/domain/taxonomy"
	"github.com/retailops/backend/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	requestID := getRequestID(c)
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	))
}

// domainErrorCode maps a domain sentinel error to an API error code.
// The second return value is false for errors no mapping claims.
func domainErrorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, reconciliation.ErrRecordNotFound),
		errors.Is(err, taxonomy.ErrRuleNotFound):
		return dto.ErrCodeNotFound, true

	case errors.Is(err, reconciliation.ErrConcurrentConfirm):
		return dto.ErrCodeConcurrencyConflict, true

	case errors.Is(err, taxonomy.ErrRulePairExists):
		return dto.ErrCodeAlreadyExists, true

	case errors.Is(err, reconciliation.ErrRecordAlreadyLinked):
		return dto.ErrCodeConflict, true

	case errors.Is(err, reconciliation.ErrIncompleteMapping):
		return dto.ErrCodeIncompleteMapping, true

	case errors.Is(err, taxonomy.ErrAmbiguousRule):
		return dto.ErrCodeAmbiguousRule, true

	case errors.Is(err, reconciliation.ErrNotConfirmed):
		return dto.ErrCodeInvalidState, true

	case errors.Is(err, reconciliation.ErrInvalidSourceSystem),
		errors.Is(err, reconciliation.ErrEmptySourceCode),
		errors.Is(err, reconciliation.ErrSystemMismatch),
		errors.Is(err, reconciliation.ErrNoSourceReference),
		errors.Is(err, reconciliation.ErrNoWarehouses),
		errors.Is(err, reconciliation.ErrNoPricePriority),
		errors.Is(err, taxonomy.ErrRuleEmptyClassCode):
		return dto.ErrCodeInvalidInput, true
	}
	return "", false
}

// HandleDomainError converts domain errors to HTTP responses.
// Unrecognized errors deliberately surface as opaque 500s; the real cause is
// in the request log under the same request ID.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if code, ok := domainErrorCode(err); ok {
		h.Error(c, dto.GetHTTPStatus(code), code, err.Error())
		return
	}

	h.InternalError(c, "An unexpected error occurred")
}
