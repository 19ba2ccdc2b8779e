package invoicing

import "github.com/shopspring/decimal"

// Stats aggregates invoices for the dashboard
type Stats struct {
	TotalInvoices int64
	// TotalRevenue is the sum of totals of paid invoices
	TotalRevenue decimal.Decimal
	StatusCounts map[Status]int64
}

// NewStats returns empty stats with every status present
func NewStats() *Stats {
	counts := make(map[Status]int64, len(AllStatuses()))
	for _, s := range AllStatuses() {
		counts[s] = 0
	}
	return &Stats{
		TotalRevenue: decimal.Zero,
		StatusCounts: counts,
	}
}
