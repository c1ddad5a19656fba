package utils

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"time"     // Response timestamps

	"personal_finance/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

// Response is the envelope of every successful reply
type Response struct {
	Success   bool      `json:"success"`   // Always true
	Message   string    `json:"message"`   // Human-readable outcome
	Data      any       `json:"data"`      // Payload, may be null
	Timestamp time.Time `json:"timestamp"` // UTC time of the reply
}

// ErrorResponse is the envelope of every failed reply
type ErrorResponse struct {
	Success   bool      `json:"success"`           // Always false
	Message   string    `json:"message"`           // Human-readable reason
	ErrorCode string    `json:"errorCode"`         // Stable machine-readable code
	Timestamp time.Time `json:"timestamp"`         // UTC time of the reply
	Details   string    `json:"details,omitempty"` // Diagnostic chain, only with DEBUG_ERRORS
}

// Success writes a successful envelope
func Success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data, Timestamp: time.Now().UTC()})
}

// Fail writes a failure envelope for err
func Fail(c *gin.Context, err error, debug bool) {
	status, body := ErrorBody(err, debug)
	c.AbortWithStatusJSON(status, body)
}

// ErrorBody maps err to an HTTP status and a failure envelope
func ErrorBody(err error, debug bool) (int, ErrorResponse) {
	body := ErrorResponse{
		Message:   "Internal server error",
		ErrorCode: "INTERNAL_ERROR",
		Timestamp: time.Now().UTC(),
	}
	var de *domain.Error
	if errors.As(err, &de) {
		body.ErrorCode = de.Code
		if de.Kind != domain.KindStorage {
			body.Message = de.Message
		}
	}
	if debug && err != nil {
		body.Details = err.Error()
	}
	return StatusFor(err), body
}

// StatusFor maps the error taxonomy to HTTP status codes
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthorized, domain.KindTokenInvalid, domain.KindTokenExpired:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
