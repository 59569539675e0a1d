package errors

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeAlreadyRevoked = "ALREADY_REVOKED"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// Error is the taxonomy services speak. Handlers translate it to HTTP with
// Write; anything else reaching a handler is treated as internal.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func InvalidInput(message string) *Error {
	return &Error{Code: ErrCodeInvalidInput, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Code: ErrCodeUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: ErrCodeForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Code: ErrCodeNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Code: ErrCodeConflict, Message: message}
}

func AlreadyRevoked(message string) *Error {
	return &Error{Code: ErrCodeAlreadyRevoked, Message: message}
}

func StatusFor(code string) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict, ErrCodeAlreadyRevoked:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

// Write maps a service error onto the wire. Unknown error types become 500s
// without leaking their message.
func Write(w http.ResponseWriter, err error) {
	if e, ok := err.(*Error); ok {
		WriteError(w, StatusFor(e.Code), e.Code, e.Message, nil)
		return
	}
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Internal server error", nil)
}
