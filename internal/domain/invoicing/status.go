package invoicing

// Status represents the lifecycle state of an invoice
type Status string

const (
	StatusDraft        Status = "draft"
	StatusSent         Status = "sent"
	StatusPaid         Status = "paid"
	StatusOverdue      Status = "overdue"
	StatusReminderSent Status = "reminder_sent"
	StatusCancelled    Status = "cancelled"
)

// AllStatuses returns every status in display order
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusSent,
		StatusPaid,
		StatusOverdue,
		StatusReminderSent,
		StatusCancelled,
	}
}

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusReminderSent, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// IsOutstanding reports whether the invoice has been issued and awaits payment
func (s Status) IsOutstanding() bool {
	return s == StatusSent || s == StatusOverdue || s == StatusReminderSent
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusSent || target == StatusCancelled
	case StatusSent:
		return target == StatusPaid || target == StatusOverdue || target == StatusReminderSent || target == StatusCancelled
	case StatusOverdue:
		return target == StatusPaid || target == StatusReminderSent || target == StatusCancelled
	case StatusReminderSent:
		return target == StatusPaid || target == StatusOverdue || target == StatusReminderSent || target == StatusCancelled
	case StatusPaid, StatusCancelled:
		return false
	}
	return false
}
