package model

import "fmt"

// ErrorCode classifies an error body returned by the backend.
type ErrorCode string

const (
	// ErrTokenExpired marks a 401 caused by an expired access token.
	ErrTokenExpired ErrorCode = "TOKEN_EXPIRED"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrForbidden    ErrorCode = "FORBIDDEN"
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
)

// SessionExpiredMessage is shown when the backend reports an expired token.
const SessionExpiredMessage = "Your session has expired. Please login again."

// APIError is the error body the backend sends with 4xx/5xx replies,
// e.g. {"code":"TOKEN_EXPIRED"} or {"error":"Invalid credentials"}.
type APIError struct {
	Code    ErrorCode `json:"code,omitempty"`
	Message string    `json:"error,omitempty"`
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Code != "":
		return string(e.Code)
	default:
		return e.Message
	}
}
