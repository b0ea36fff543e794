package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/validation"
)

// Error codes
const (
	// Validation errors
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeInvalidFormat = "INVALID_FORMAT"

	// Resource errors
	ErrCodeNotFound = "NOT_FOUND"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details any) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// RespondWithError sends an error response and stops the handler chain
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.AbortWithStatusJSON(statusCode, err)
}

// Helper functions for common error responses

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// BadRequestWithDetails sends a 400 response with details
func BadRequestWithDetails(c *gin.Context, message string, details any) {
	RespondWithError(c, http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, message, details))
}

// ValidationFailed sends a 400 response listing every rejected field of a binding error
func ValidationFailed(c *gin.Context, err error) {
	BadRequestWithDetails(c, "Validation failed", validation.Details(err))
}

// InvalidFormat sends a 400 response for a malformed path or query value
func InvalidFormat(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidFormat, message))
}

// InternalError sends a 500 response. The message never carries storage details.
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	ServiceUnavailableWithDetails(c, message, nil)
}

// ServiceUnavailableWithDetails sends a 503 response with details
func ServiceUnavailableWithDetails(c *gin.Context, message string, details any) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RespondWithError(c, http.StatusServiceUnavailable, NewAPIErrorWithDetails(ErrCodeServiceUnavailable, message, details))
}
