package invoicing

import (
	"github.com/shopspring/decimal"

	"github.com/invoicer/backend/internal/domain/shared"
)

// Totals is a consistent financial snapshot of an engine
type Totals struct {
	Subtotal      decimal.Decimal
	TaxRate       decimal.Decimal
	TaxAmount     decimal.Decimal
	Total         decimal.Decimal
	SubtotalMode  Mode
	TaxAmountMode Mode
	TotalMode     Mode
}

// Check rejects totals that cannot be stored on an invoice. The engine
// itself stays permissive, so back-derived rates are only checked here.
func (t Totals) Check() error {
	switch {
	case t.Subtotal.IsNegative():
		return shared.NewDomainError("INVALID_SUBTOTAL", "Subtotal cannot be negative")
	case t.Total.IsNegative():
		return shared.NewDomainError("INVALID_TOTAL", "Total cannot be negative")
	}
	return ValidateTaxRate(t.TaxRate)
}

// ValidateTaxRate rejects rates outside 0 to 100 percent
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 100")
	}
	return nil
}

// StoredTotals are the header amounts persisted with an invoice
type StoredTotals struct {
	Subtotal  decimal.Decimal
	TaxRate   decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// Engine derives subtotal, tax and total from a list of line items and
// supports pinning any of them by hand. An engine is owned by a single
// editor and is not safe for concurrent use.
type Engine struct {
	items     []LineItem
	nextKey   ItemKey
	taxRate   decimal.Decimal
	subtotal  Amount
	taxAmount Amount
	total     Amount
}

// NewEngine creates an engine holding one empty line item
func NewEngine(taxRate decimal.Decimal) *Engine {
	e := &Engine{taxRate: taxRate}
	e.AddItem()
	return e
}

// LoadEngine rebuilds an engine from stored line items and header amounts.
// A stored amount that differs from its recomputed value by more than
// ReconcileEpsilon is loaded as an override, so the engine reproduces the
// stored figures exactly.
func LoadEngine(items []LineItem, stored StoredTotals) *Engine {
	e := &Engine{taxRate: stored.TaxRate}
	for _, src := range items {
		item := src
		item.Key = e.newKey()
		item.TotalPinned = !withinEpsilon(item.Total, item.LineTotal())
		e.items = append(e.items, item)
	}
	if len(e.items) == 0 {
		e.AddItem()
	}

	if !withinEpsilon(stored.Subtotal, e.itemSum()) {
		e.subtotal = OverriddenAmount(stored.Subtotal)
	}
	subtotal := e.ComputeSubtotal()

	if !withinEpsilon(stored.TaxAmount, subtotal.Mul(e.taxRate).Div(hundred)) {
		e.taxAmount = OverriddenAmount(stored.TaxAmount)
	}
	tax := e.ComputeTaxAmount(e.taxRate, subtotal)

	if !withinEpsilon(stored.Total, subtotal.Add(tax)) {
		e.total = OverriddenAmount(stored.Total)
	}
	return e
}

func (e *Engine) newKey() ItemKey {
	e.nextKey++
	return e.nextKey
}

func (e *Engine) find(key ItemKey) int {
	for i := range e.items {
		if e.items[i].Key == key {
			return i
		}
	}
	return -1
}

func (e *Engine) itemSum() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range e.items {
		sum = sum.Add(item.Total)
	}
	return sum
}

// Items returns a copy of the line items in display order
func (e *Engine) Items() []LineItem {
	out := make([]LineItem, len(e.items))
	copy(out, e.items)
	return out
}

// Item returns the line item with the given key
func (e *Engine) Item(key ItemKey) (LineItem, bool) {
	i := e.find(key)
	if i < 0 {
		return LineItem{}, false
	}
	return e.items[i], true
}

// TaxRate returns the current tax rate percentage
func (e *Engine) TaxRate() decimal.Decimal {
	return e.taxRate
}

// AddItem appends an item with quantity 1, unit price 0 and total 0
func (e *Engine) AddItem() ItemKey {
	key := e.newKey()
	e.items = append(e.items, LineItem{
		Key:       key,
		Quantity:  decimal.NewFromInt(1),
		UnitPrice: decimal.Zero,
		Total:     decimal.Zero,
	})
	return key
}

// RemoveItem removes the item with the given key. The last remaining item is
// never removed; false is returned when nothing changed.
func (e *Engine) RemoveItem(key ItemKey) bool {
	if len(e.items) <= 1 {
		return false
	}
	i := e.find(key)
	if i < 0 {
		return false
	}
	e.items = append(e.items[:i], e.items[i+1:]...)
	return true
}

// UpdateItem sets one field of an item from raw input. Numeric fields that
// do not parse are set to zero. Returns false for an unknown key or field.
func (e *Engine) UpdateItem(key ItemKey, field ItemField, raw string) bool {
	switch field {
	case ItemFieldDescription:
		return e.SetDescription(key, raw)
	case ItemFieldQuantity:
		return e.SetQuantity(key, ParseAmount(raw))
	case ItemFieldUnitPrice:
		return e.SetUnitPrice(key, ParseAmount(raw))
	case ItemFieldTotal:
		return e.SetItemTotal(key, ParseAmount(raw))
	}
	return false
}

// SetDescription sets the description of an item
func (e *Engine) SetDescription(key ItemKey, description string) bool {
	i := e.find(key)
	if i < 0 {
		return false
	}
	e.items[i].Description = description
	return true
}

// SetQuantity sets the quantity and recomputes the item total, replacing
// any total that was entered by hand
func (e *Engine) SetQuantity(key ItemKey, quantity decimal.Decimal) bool {
	i := e.find(key)
	if i < 0 {
		return false
	}
	e.items[i].Quantity = quantity
	e.items[i].recompute()
	return true
}

// SetUnitPrice sets the unit price and recomputes the item total, replacing
// any total that was entered by hand
func (e *Engine) SetUnitPrice(key ItemKey, unitPrice decimal.Decimal) bool {
	i := e.find(key)
	if i < 0 {
		return false
	}
	e.items[i].UnitPrice = unitPrice
	e.items[i].recompute()
	return true
}

// SetItemTotal pins the total of one item; quantity and unit price are kept
func (e *Engine) SetItemTotal(key ItemKey, total decimal.Decimal) bool {
	i := e.find(key)
	if i < 0 {
		return false
	}
	e.items[i].Total = total
	e.items[i].TotalPinned = true
	return true
}

// ComputeSubtotal returns the subtotal override when active, otherwise the
// sum of item totals
func (e *Engine) ComputeSubtotal() decimal.Decimal {
	return e.subtotal.Resolve(e.itemSum())
}

// SetSubtotalOverride pins the subtotal. Item totals are left untouched.
func (e *Engine) SetSubtotalOverride(value decimal.Decimal) {
	e.subtotal = OverriddenAmount(value)
}

// ComputeTaxAmount returns the tax override when active, otherwise
// subtotal * taxRate / 100
func (e *Engine) ComputeTaxAmount(taxRate, subtotal decimal.Decimal) decimal.Decimal {
	return e.taxAmount.Resolve(subtotal.Mul(taxRate).Div(hundred))
}

// SetTaxAmountOverride pins the tax amount and, when subtotal is positive,
// derives the matching tax rate. With a zero or negative subtotal the rate is
// left unchanged.
func (e *Engine) SetTaxAmountOverride(value, subtotal decimal.Decimal) {
	e.taxAmount = OverriddenAmount(value)
	if subtotal.IsPositive() {
		e.taxRate = value.Div(subtotal).Mul(hundred)
	}
}

// ComputeTotal returns the total override when active, otherwise
// subtotal + taxAmount
func (e *Engine) ComputeTotal(subtotal, taxAmount decimal.Decimal) decimal.Decimal {
	return e.total.Resolve(subtotal.Add(taxAmount))
}

// SetTotalOverride pins the total and derives tax = value - subtotal. The
// tax rate follows only when that tax is non-negative and subtotal is
// positive; a total below the subtotal keeps the previous rate.
func (e *Engine) SetTotalOverride(value, subtotal decimal.Decimal) {
	e.total = OverriddenAmount(value)
	tax := value.Sub(subtotal)
	e.taxAmount = OverriddenAmount(tax)
	if tax.IsNegative() || !subtotal.IsPositive() {
		return
	}
	e.taxRate = tax.Div(subtotal).Mul(hundred)
}

// SetTaxRate sets the tax rate. A pinned tax amount is released so that the
// new rate drives the tax again.
func (e *Engine) SetTaxRate(rate decimal.Decimal) {
	e.taxRate = rate
	e.taxAmount = ComputedAmount()
}

// ResetSubtotal returns the subtotal to Computed mode
func (e *Engine) ResetSubtotal() {
	e.subtotal = ComputedAmount()
}

// ResetTaxAmount returns the tax amount to Computed mode
func (e *Engine) ResetTaxAmount() {
	e.taxAmount = ComputedAmount()
}

// ResetTotal returns the total to Computed mode
func (e *Engine) ResetTotal() {
	e.total = ComputedAmount()
}

// SubtotalMode returns the mode of the subtotal
func (e *Engine) SubtotalMode() Mode { return e.subtotal.Mode() }

// TaxAmountMode returns the mode of the tax amount
func (e *Engine) TaxAmountMode() Mode { return e.taxAmount.Mode() }

// TotalMode returns the mode of the total
func (e *Engine) TotalMode() Mode { return e.total.Mode() }

// Snapshot evaluates subtotal, tax and total in dependency order. Money is
// rounded to two fraction digits and the rate to four.
func (e *Engine) Snapshot() Totals {
	subtotal := e.ComputeSubtotal()
	tax := e.ComputeTaxAmount(e.taxRate, subtotal)
	total := e.ComputeTotal(subtotal, tax)
	return Totals{
		Subtotal:      subtotal.Round(2),
		TaxRate:       e.taxRate.Round(4),
		TaxAmount:     tax.Round(2),
		Total:         total.Round(2),
		SubtotalMode:  e.subtotal.Mode(),
		TaxAmountMode: e.taxAmount.Mode(),
		TotalMode:     e.total.Mode(),
	}
}
