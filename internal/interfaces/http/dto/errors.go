package dto

import (
	"net/http"
	"strings"
)

// Error codes returned in ErrorInfo.Code. Domain codes without an entry in
// codeAliases are passed through unchanged.
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeForbidden       = "ERR_FORBIDDEN"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists   = "ERR_ALREADY_EXISTS"
	ErrCodeConflict        = "ERR_CONFLICT"
	ErrCodeInvalidState    = "ERR_INVALID_STATE"
	ErrCodeNotDue          = "ERR_NOT_DUE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
)

// codeStatus holds the codes whose status cannot be derived from their shape
var codeStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeAlreadyExists:   http.StatusConflict,
	ErrCodeConflict:        http.StatusConflict,
	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodeNotDue:          http.StatusUnprocessableEntity,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	"CONCURRENT_MODIFICATION":  http.StatusConflict,
	"CUSTOMER_HAS_INVOICES":    http.StatusConflict,
	"INVOICE_NUMBER_EXHAUSTED": http.StatusConflict,
	"INVALID_PAYMENT_STATE":    http.StatusUnprocessableEntity,
	// a referenced customer that is missing makes the request unprocessable,
	// not the addressed resource absent
	"CUSTOMER_NOT_FOUND": http.StatusUnprocessableEntity,
}

// codeAliases renames generic domain codes to their API form
var codeAliases = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"ALREADY_EXISTS":   ErrCodeAlreadyExists,
	"INVALID_STATE":    ErrCodeInvalidState,
	"NOT_DUE":          ErrCodeNotDue,
	"FORBIDDEN":        ErrCodeForbidden,
	"VALIDATION_ERROR": ErrCodeValidation,
	"BAD_REQUEST":      ErrCodeBadRequest,
	"INTERNAL_ERROR":   ErrCodeInternal,
}

// HTTPStatus returns the status code for an API or domain error code.
// Unlisted INVALID_* codes are field errors (400) and *_NOT_FOUND codes
// are 404; anything else is a 500.
func HTTPStatus(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode maps a generic domain code to its API code and
// returns any other code unchanged.
func NormalizeErrorCode(code string) string {
	if alias, ok := codeAliases[code]; ok {
		return alias
	}
	return code
}
