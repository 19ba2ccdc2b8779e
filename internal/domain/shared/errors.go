package shared

import "errors"

// DomainError is a business rule violation identified by a stable code.
// The HTTP layer maps codes to status codes.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError with the same code, so callers can test
// errors.Is(err, shared.ErrNotFound) whatever the message.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	return errors.As(target, &other) && other.Code == e.Code
}

// NewDomainError builds a DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Sentinel errors shared by every aggregate
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrConcurrent    = NewDomainError("CONCURRENT_MODIFICATION", "Resource was modified by another request")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
