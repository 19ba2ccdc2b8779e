package partner

import (
	"github.com/invoicer/backend/internal/domain/shared"
)

const AggregateTypeCustomer = "Customer"

const (
	EventTypeCustomerCreated = "CustomerCreated"
	EventTypeCustomerUpdated = "CustomerUpdated"
	EventTypeCustomerDeleted = "CustomerDeleted"
)

// CustomerEvent snapshots the customer's identity at the time of a change.
// The header's aggregate ID is the customer ID.
type CustomerEvent struct {
	shared.EventHeader
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
}

func customerEvent(eventType string, c *Customer) *CustomerEvent {
	return &CustomerEvent{
		EventHeader: shared.NewEventHeader(eventType, AggregateTypeCustomer, c.ID),
		Name:        c.Name,
		Email:       c.Email,
		Company:     c.Company,
	}
}
