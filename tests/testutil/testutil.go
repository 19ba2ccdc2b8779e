// Package testutil provides shared fixtures and helpers for the invoicer
// test suites: deterministic IDs, domain object builders and polling
// assertions.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// NewTestUUID generates a deterministic UUID for testing.
// The same seed always yields the same UUID.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// TestUserID returns the owner ID used by fixtures.
func TestUserID() uuid.UUID {
	return NewTestUUID("test-user")
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Item describes one line item of a fixture invoice. Quantity and
// UnitPrice are decimal strings.
type Item struct {
	Description string
	Quantity    string
	UnitPrice   string
}

// NewCustomer builds a valid customer.
func NewCustomer(t *testing.T, name, email string) *partner.Customer {
	t.Helper()

	customer, err := partner.NewCustomer(name, email)
	require.NoError(t, err, "Failed to build customer")
	return customer
}

// NewDraftInvoice builds a draft invoice issued on issueDate, due 30 days
// later, with the given items priced at the default tax rate.
func NewDraftInvoice(t *testing.T, customerID uuid.UUID, number string, issueDate time.Time, items ...Item) *invoicing.Invoice {
	t.Helper()

	inv, err := invoicing.NewInvoice(TestUserID(), customerID, number, issueDate, issueDate.AddDate(0, 0, 30), "USD")
	require.NoError(t, err, "Failed to build invoice")

	if len(items) == 0 {
		items = []Item{{Description: "Consulting", Quantity: "1", UnitPrice: "100"}}
	}
	require.NoError(t, inv.ApplyComputation(NewEngine(t, invoicing.DefaultTaxRate, items...)))
	inv.ClearEvents()
	return inv
}

// NewEngine builds an engine holding exactly the given items.
func NewEngine(t *testing.T, taxRate decimal.Decimal, items ...Item) *invoicing.Engine {
	t.Helper()

	e := invoicing.NewEngine(taxRate)
	keys := []invoicing.ItemKey{e.Items()[0].Key}
	for len(keys) < len(items) {
		keys = append(keys, e.AddItem())
	}
	for i, item := range items {
		e.SetDescription(keys[i], item.Description)
		e.SetQuantity(keys[i], decimal.RequireFromString(item.Quantity))
		e.SetUnitPrice(keys[i], decimal.RequireFromString(item.UnitPrice))
	}
	return e
}

// ContextWithTimeout creates a context that is cancelled when the test ends.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// RequireEventually polls condition until it holds or the timeout expires.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}
