package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorResponseWithRequestID(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponseWithRequestID("NOT_FOUND", "Invoice not found", "req-123-456")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code, "domain code is normalized")
	assert.Equal(t, "Invoice not found", resp.Error.Message)
	assert.Equal(t, "req-123-456", resp.Error.RequestID)
	assert.WithinRange(t, resp.Error.Timestamp, before, time.Now())
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "email", Message: "Invalid email format"},
		{Field: "items", Message: "items must contain at least 1 item"},
	}

	resp := NewValidationErrorResponse("Validation failed", "req-789", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Equal(t, details, resp.Error.Details)
}

func TestResponseJSON(t *testing.T) {
	decode := func(t *testing.T, r Response) map[string]any {
		data, err := json.Marshal(r)
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	}

	t.Run("error envelope", func(t *testing.T) {
		body := decode(t, NewErrorResponseWithRequestID(ErrCodeNotFound, "Invoice not found", "req-test-123"))

		assert.Equal(t, false, body["success"])
		assert.NotContains(t, body, "data")
		assert.NotContains(t, body, "meta")
		errObj := body["error"].(map[string]any)
		assert.Equal(t, ErrCodeNotFound, errObj["code"])
		assert.Equal(t, "req-test-123", errObj["request_id"])
		assert.NotContains(t, errObj, "details")
	})

	t.Run("success envelope", func(t *testing.T) {
		body := decode(t, NewSuccessResponse(map[string]string{"invoice_number": "INV-000001"}))

		assert.Equal(t, true, body["success"])
		assert.NotContains(t, body, "error")
		assert.NotContains(t, body, "meta")
		assert.Equal(t, "INV-000001", body["data"].(map[string]any)["invoice_number"])
	})

	t.Run("list envelope", func(t *testing.T) {
		body := decode(t, NewSuccessResponseWithMeta([]string{}, 41, 3, 20))

		assert.Equal(t, map[string]any{
			"total":       float64(41),
			"page":        float64(3),
			"page_size":   float64(20),
			"total_pages": float64(3),
		}, body["meta"])
	})
}

func TestNewMeta(t *testing.T) {
	tests := []struct {
		total     int64
		page      int
		pageSize  int
		wantPages int
		wantSize  int
	}{
		{100, 1, 10, 10, 10},
		{101, 1, 10, 11, 10},
		{0, 1, 10, 0, 10},
		{9, 1, 10, 1, 10},
		{11, 2, 10, 2, 10},
		{100, 1, 0, 5, DefaultPageSize},
		{100, 1, -1, 5, DefaultPageSize},
	}

	for _, tt := range tests {
		meta := NewMeta(tt.total, tt.page, tt.pageSize)
		assert.Equal(t, tt.wantPages, meta.TotalPages, "total=%d size=%d", tt.total, tt.pageSize)
		assert.Equal(t, tt.wantSize, meta.PageSize)
		assert.Equal(t, tt.page, meta.Page)
		assert.Equal(t, tt.total, meta.Total)
	}
}
