package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "Open"
	TicketStatusClosed   TicketStatus = "Closed"
	TicketStatusReopened TicketStatus = "Reopened"
)

// NormalizeStatus maps a caller-supplied literal to its canonical form
// (first letter upper, remainder lower). Any other value is rejected.
func NormalizeStatus(raw string) (TicketStatus, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	formatted := strings.ToUpper(raw[:1]) + strings.ToLower(raw[1:])
	switch TicketStatus(formatted) {
	case TicketStatusOpen, TicketStatusClosed, TicketStatusReopened:
		return TicketStatus(formatted), true
	default:
		return "", false
	}
}

// Ticket is a unit of support work. SupervisorID is a snapshot taken from the
// creator's hierarchy position at creation time; later changes to the
// creator's own supervisor never touch it.
type Ticket struct {
	ID           string
	Title        string
	Description  string
	MobileNumber string
	Status       TicketStatus
	CreatedByID  string
	AssigneeID   string
	SupervisorID *string
	ClosedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Resolved relations, populated on listing/fetch.
	CreatedBy  *UserRef
	Assignee   *UserRef
	Supervisor *UserRef
}

// ApplyStatus moves the ticket to next and keeps ClosedAt coupled to the
// Closed state. All state-to-state transitions are legal; re-applying the
// current status leaves ClosedAt untouched.
func (t *Ticket) ApplyStatus(next TicketStatus, now time.Time) {
	if t.Status == next {
		return
	}
	t.Status = next
	if next == TicketStatusClosed {
		closedAt := now
		t.ClosedAt = &closedAt
	} else {
		t.ClosedAt = nil
	}
}
