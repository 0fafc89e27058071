package model

import "fmt"

// Standard error codes surfaced by the client.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeMissingField     = "MISSING_FIELD"
	ErrCodeInvalidQuantity  = "INVALID_QUANTITY"
	ErrCodeNotAuthenticated = "NOT_AUTHENTICATED"
	ErrCodeSessionExpired   = "SESSION_EXPIRED"
	ErrCodeTransport        = "TRANSPORT_ERROR"
)

// DomainError represents a client-detected error that never reaches the
// network layer.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidQuantity  = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrNotAuthenticated = NewDomainError(ErrCodeNotAuthenticated, "Not authenticated")
	ErrSessionExpired   = NewDomainError(ErrCodeSessionExpired, "Session expired, please log in again")
	ErrMissingAddress   = NewDomainError(ErrCodeMissingField, "A shipping address is required")
)

// APIError represents an error response returned by the backend. The
// message is taken from the server's error envelope ("detail" or
// "error" field) so it can be shown to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// ErrorEnvelope is the wire shape of backend error bodies. Either field
// may be set depending on the endpoint.
type ErrorEnvelope struct {
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// UserMessage returns the display message, preferring "detail".
func (e *ErrorEnvelope) UserMessage() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error
}
