package invoicing

import (
	"strings"

	"github.com/invoicer/backend/internal/domain/shared"
	"golang.org/x/text/currency"
)

// DefaultCurrencyCode is used when an invoice is created without a currency
const DefaultCurrencyCode = "USD"

// ParseCurrencyCode normalizes and validates an ISO 4217 currency code.
// An empty code yields DefaultCurrencyCode.
func ParseCurrencyCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrencyCode, nil
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", shared.NewDomainError("INVALID_CURRENCY", "Currency code must be a valid ISO 4217 code")
	}
	return unit.String(), nil
}
