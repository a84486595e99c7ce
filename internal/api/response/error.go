// Package response provides standardized HTTP response structures and
// utilities for the railwatch API layer.
package response

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client error codes (4xx)
	ErrorCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrorCodeConflict         ErrorCode = "CONFLICT"
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Server error codes (5xx)
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error     ErrorDetails `json:"error"`
	Timestamp string       `json:"timestamp"`
	RequestID string       `json:"request_id,omitempty"`
}

// ErrorDetails contains detailed error information
type ErrorDetails struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// SuccessResponse represents a standardized success response
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, code ErrorCode, message string, details ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorDetails := ErrorDetails{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		errorDetails.Details = details[0]
	}

	resp := ErrorResponse{
		Error:     errorDetails,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: getRequestID(w),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		// Fallback to simple error if JSON encoding fails
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// WriteSuccess writes a standardized success response
func WriteSuccess(w http.ResponseWriter, data interface{}, message ...string) {
	WriteSuccessStatus(w, http.StatusOK, data, message...)
}

// WriteSuccessStatus writes a success envelope with an explicit HTTP
// status code. Health endpoints use it to report degraded states while
// keeping the payload shape.
func WriteSuccessStatus(w http.ResponseWriter, statusCode int, data interface{}, message ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := SuccessResponse{
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if len(message) > 0 {
		resp.Message = message[0]
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusBadRequest, ErrorCodeBadRequest, message, details...)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusNotFound, ErrorCodeNotFound, message, details...)
}

// WriteMethodNotAllowed writes a 405 Method Not Allowed error
func WriteMethodNotAllowed(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed, message, details...)
}

// WriteConflict writes a 409 Conflict error, used for lifecycle
// transitions attempted out of order.
func WriteConflict(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusConflict, ErrorCodeConflict, message, details...)
}

// WriteValidationError writes a 422 Validation Failed error
func WriteValidationError(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusUnprocessableEntity, ErrorCodeValidationFailed, message, details...)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusInternalServerError, ErrorCodeInternalError, message, details...)
}

// WriteServiceUnavailable writes a 503 Service Unavailable error
func WriteServiceUnavailable(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusServiceUnavailable, ErrorCodeServiceUnavailable, message, details...)
}

// getRequestID extracts request ID from response headers set by the
// logging middleware.
func getRequestID(w http.ResponseWriter) string {
	if reqID := w.Header().Get("X-Request-ID"); reqID != "" {
		return reqID
	}
	return ""
}
