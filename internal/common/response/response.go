package response

import (
	"net/http"

	"github.com/driveease/service-rental/internal/common/domain"
	"github.com/gin-gonic/gin"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries pagination details for list responses.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with pagination metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Meta{Total: total, Page: page, Limit: limit, TotalPages: totalPages},
	})
}

// BadRequest writes a 400 response for malformed input.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, string(domain.CodeValidation), message)
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, string(domain.CodeUnauthorized), message)
}

// Forbidden writes a 403 response.
func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, string(domain.CodeForbidden), message)
}

// Error maps err to an HTTP status. Non-domain errors become a generic 500 and the
// cause is attached to the gin context for the logger middleware.
func Error(c *gin.Context, err error) {
	de, ok := domain.AsDomainError(err)
	if !ok {
		_ = c.Error(err)
		abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
		return
	}
	abort(c, StatusFor(de.Code), string(de.Code), de.Message)
}

// StatusFor returns the HTTP status for a domain error code.
func StatusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeInvalidState:
		return http.StatusUnprocessableEntity
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}
