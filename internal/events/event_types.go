package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates published domain events.
type EventType string

const (
	EventTicketCreated       EventType = "ticket.created"
	EventTicketStatusChanged EventType = "ticket.status_changed"
	EventTicketAssigned      EventType = "ticket.assigned"
	EventUserCreated         EventType = "user.created"
)

// Actor identifies who triggered an event.
type Actor struct {
	ID   string
	Role domain.Role
}

// Event is the envelope for all published events.
type Event struct {
	ID        string
	Type      EventType
	TicketID  string
	Actor     Actor
	Timestamp time.Time
	Payload   any
}

// TicketCreatedPayload describes a newly created ticket.
type TicketCreatedPayload struct {
	Title        string
	AssigneeID   string
	SupervisorID *string
}

// TicketStatusChangedPayload describes a status transition.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus
	NewStatus domain.TicketStatus
}

// TicketAssignedPayload describes an assignee change.
type TicketAssignedPayload struct {
	OldAssigneeID string
	NewAssigneeID string
}

// UserCreatedPayload describes a newly registered account.
type UserCreatedPayload struct {
	UserID string
	Role   domain.Role
}
