package cache

import (
	"encoding/json"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// statsPayload is the cached representation of invoicing.Stats
type statsPayload struct {
	TotalInvoices int64            `json:"total_invoices"`
	TotalRevenue  decimal.Decimal  `json:"total_revenue"`
	StatusCounts  map[string]int64 `json:"status_counts"`
}

func encodeStats(stats *invoicing.Stats) ([]byte, error) {
	payload := statsPayload{
		TotalInvoices: stats.TotalInvoices,
		TotalRevenue:  stats.TotalRevenue,
		StatusCounts:  make(map[string]int64, len(stats.StatusCounts)),
	}
	for status, count := range stats.StatusCounts {
		payload.StatusCounts[status.String()] = count
	}
	return json.Marshal(payload)
}

func decodeStats(data []byte) (*invoicing.Stats, error) {
	var payload statsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	stats := invoicing.NewStats()
	stats.TotalInvoices = payload.TotalInvoices
	stats.TotalRevenue = payload.TotalRevenue
	for status, count := range payload.StatusCounts {
		stats.StatusCounts[invoicing.Status(status)] = count
	}
	return stats, nil
}

// cloneStats returns a deep copy so cached values cannot be mutated by callers
func cloneStats(stats *invoicing.Stats) *invoicing.Stats {
	out := invoicing.NewStats()
	out.TotalInvoices = stats.TotalInvoices
	out.TotalRevenue = stats.TotalRevenue
	for status, count := range stats.StatusCounts {
		out.StatusCounts[status] = count
	}
	return out
}
