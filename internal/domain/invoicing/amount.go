package invoicing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ReconcileEpsilon is the largest difference between a stored amount and its
// recomputed value that is still treated as equal.
var ReconcileEpsilon = decimal.RequireFromString("0.005")

var hundred = decimal.NewFromInt(100)

// Mode tells whether a top-level amount is derived or pinned by the user
type Mode uint8

const (
	// Computed amounts are derived from their inputs on every read
	Computed Mode = iota
	// Overridden amounts hold a user-entered value and ignore their inputs
	Overridden
)

// String returns the string representation of Mode
func (m Mode) String() string {
	if m == Overridden {
		return "overridden"
	}
	return "computed"
}

// Amount is a two-state value: either computed from other fields or pinned
// to an explicit value. The zero value is Computed.
type Amount struct {
	mode  Mode
	value decimal.Decimal
}

// ComputedAmount returns an amount in Computed mode
func ComputedAmount() Amount {
	return Amount{mode: Computed}
}

// OverriddenAmount returns an amount pinned to value
func OverriddenAmount(value decimal.Decimal) Amount {
	return Amount{mode: Overridden, value: value}
}

// Mode returns the current mode
func (a Amount) Mode() Mode {
	return a.mode
}

// IsOverridden reports whether the amount is pinned
func (a Amount) IsOverridden() bool {
	return a.mode == Overridden
}

// Value returns the pinned value and true, or zero and false when computed
func (a Amount) Value() (decimal.Decimal, bool) {
	if a.mode != Overridden {
		return decimal.Zero, false
	}
	return a.value, true
}

// Resolve returns the pinned value when overridden, otherwise computed
func (a Amount) Resolve(computed decimal.Decimal) decimal.Decimal {
	if a.mode == Overridden {
		return a.value
	}
	return computed
}

// ParseAmount converts raw form input into a decimal. Input that is not a
// number yields zero instead of an error.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func withinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(ReconcileEpsilon)
}
