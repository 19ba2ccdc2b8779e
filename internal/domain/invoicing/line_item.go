package invoicing

import (
	"fmt"
	"strings"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ItemKey identifies a line item within one Engine. Keys are local to the
// engine and are unrelated to the ID a stored invoice item receives.
type ItemKey int

// ItemField names an editable line item field
type ItemField string

const (
	ItemFieldDescription ItemField = "description"
	ItemFieldQuantity    ItemField = "quantity"
	ItemFieldUnitPrice   ItemField = "unit_price"
	ItemFieldTotal       ItemField = "total"
)

// IsValid checks if the field is a known line item field
func (f ItemField) IsValid() bool {
	switch f {
	case ItemFieldDescription, ItemFieldQuantity, ItemFieldUnitPrice, ItemFieldTotal:
		return true
	}
	return false
}

// LineItem is one billable row held by the engine
type LineItem struct {
	Key         ItemKey
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	// TotalPinned is set when Total was edited directly and no longer
	// follows Quantity * UnitPrice.
	TotalPinned bool
}

// LineTotal returns Quantity * UnitPrice
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

func (li *LineItem) recompute() {
	li.Total = li.LineTotal()
	li.TotalPinned = false
}

// ValidateLineItems performs the submission checks on a set of line items.
// The engine itself accepts any input; callers run this before persisting.
func ValidateLineItems(items []LineItem) error {
	if len(items) == 0 {
		return shared.NewDomainError("INVALID_ITEMS", "Invoice must have at least one line item")
	}
	for i, item := range items {
		pos := i + 1
		if strings.TrimSpace(item.Description) == "" {
			return shared.NewDomainError("INVALID_ITEM_DESCRIPTION",
				fmt.Sprintf("Line item %d: description is required", pos))
		}
		if len(item.Description) > 255 {
			return shared.NewDomainError("INVALID_ITEM_DESCRIPTION",
				fmt.Sprintf("Line item %d: description cannot exceed 255 characters", pos))
		}
		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_ITEM_QUANTITY",
				fmt.Sprintf("Line item %d: quantity must be greater than zero", pos))
		}
		if item.UnitPrice.IsNegative() {
			return shared.NewDomainError("INVALID_ITEM_PRICE",
				fmt.Sprintf("Line item %d: unit price cannot be negative", pos))
		}
	}
	return nil
}
