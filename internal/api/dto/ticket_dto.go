package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	MobileNumber    string `json:"mobileNumber"`
	AssignedAgentID string `json:"assignedAgentId"`
}

// UpdateTicketRequest payload; omitted fields are untouched.
type UpdateTicketRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	MobileNumber    *string `json:"mobileNumber"`
	AssignedAgentID *string `json:"assignedAgentId"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// TicketResponse is the ticket representation with resolved relations.
type TicketResponse struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	MobileNumber string              `json:"mobileNumber"`
	Status       domain.TicketStatus `json:"status"`
	CreatedBy    *UserRefResponse    `json:"createdByAgent,omitempty"`
	Assignee     *UserRefResponse    `json:"assignedAgent,omitempty"`
	Supervisor   *UserRefResponse    `json:"supervisor,omitempty"`
	ClosedAt     *time.Time          `json:"closedAt"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}
