package handler

import "github.com/invoicer/backend/internal/interfaces/http/dto"

// Typed envelopes for the OpenAPI document. Handlers write dto.Response.
type (
	// APIResponse wraps a successful payload.
	APIResponse[T any] struct {
		Success bool      `json:"success" example:"true"`
		Data    T         `json:"data"`
		Meta    *dto.Meta `json:"meta,omitempty"`
	}

	// ErrorResponse carries a failed request's error.
	ErrorResponse struct {
		Success bool           `json:"success" example:"false"`
		Error   *dto.ErrorInfo `json:"error"`
	}
)
