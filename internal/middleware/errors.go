package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError represents a structured error response
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	RetryAfter int    `json:"retry_after_ms,omitempty"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	ErrCodeBadRequest           = "BAD_REQUEST"
	ErrCodeEmptyText            = "EMPTY_TEXT"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeAIServiceUnavailable = "AI_SERVICE_UNAVAILABLE"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeClosed               = "CLOSED"
	ErrCodeConflict             = "CONFLICT"
	ErrCodeTimeout              = "TIMEOUT"
	ErrCodeNotFound             = "NOT_FOUND"
)

// RespondError sends a structured error response
func RespondError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, ErrorResponse{Error: APIError{
		Code:    code,
		Message: message,
	}})
}

// RespondErrorWithDetails sends a structured error response with details
func RespondErrorWithDetails(c *gin.Context, status int, code string, message string, details string) {
	c.JSON(status, ErrorResponse{Error: APIError{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// RespondErrorWithRetry sends a structured error response with retry hint
func RespondErrorWithRetry(c *gin.Context, status int, code string, message string, retryAfterMs int) {
	c.JSON(status, ErrorResponse{Error: APIError{
		Code:       code,
		Message:    message,
		RetryAfter: retryAfterMs,
	}})
}

// BadRequest sends a 400 error
func BadRequest(c *gin.Context, message string) {
	RespondError(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 error
func Unauthorized(c *gin.Context, message string) {
	RespondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// InternalError sends a 500 error
func InternalError(c *gin.Context, message string) {
	RespondError(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// AIServiceUnavailable sends a 502 error when the generation service could not answer
func AIServiceUnavailable(c *gin.Context, details string) {
	RespondErrorWithDetails(c, http.StatusBadGateway, ErrCodeAIServiceUnavailable, "generation service is unavailable", details)
}
