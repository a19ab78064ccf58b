package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService coordinates ticket workflows. Every mutation fetches the
// target record first and runs the permission guard against it, so callers
// get NotFound for missing records and Forbidden for scope violations.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	MobileNumber string
	AssigneeID   string
}

// TicketEditInput describes a partial field edit. Nil fields are untouched.
type TicketEditInput struct {
	Title        *string
	Description  *string
	MobileNumber *string
	AssigneeID   *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create opens a new ticket. The assignee defaults to the creator and the
// supervisor link is snapshotted from the actor's hierarchy position; it is
// never recomputed by later edits.
func (s *TicketService) Create(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	details := map[string]any{}
	if strings.TrimSpace(input.Title) == "" {
		details["title"] = "required"
	}
	if strings.TrimSpace(input.Description) == "" {
		details["description"] = "required"
	}
	if strings.TrimSpace(input.MobileNumber) == "" {
		details["mobileNumber"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", details)
	}

	assigneeID := input.AssigneeID
	if assigneeID == "" {
		assigneeID = actor.ID
	} else if assigneeID != actor.ID {
		if _, err := s.users.GetByID(ctx, assigneeID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("assignee", map[string]any{"assignee_id": assigneeID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	ticket := &domain.Ticket{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		MobileNumber: strings.TrimSpace(input.MobileNumber),
		Status:       domain.TicketStatusOpen,
		CreatedByID:  actor.ID,
		AssigneeID:   assigneeID,
		SupervisorID: authz.SupervisorSnapshot(actor),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.TicketCreatedPayload{
			Title:        ticket.Title,
			AssigneeID:   ticket.AssigneeID,
			SupervisorID: ticket.SupervisorID,
		},
	})
	return ticket, nil
}

// List returns tickets visible to the actor, newest first.
func (s *TicketService) List(ctx context.Context, actor domain.Actor, query authz.TicketQuery) ([]domain.Ticket, error) {
	filter, err := authz.TicketScope(actor, query)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Get fetches a single ticket the actor is authorized to view.
func (s *TicketService) Get(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanViewTicket(actor, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Edit applies a partial field update to a ticket.
func (s *TicketService) Edit(ctx context.Context, actor domain.Actor, ticketID string, input TicketEditInput) (*domain.Ticket, error) {
	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanEditTicket(actor, ticket); err != nil {
		return nil, err
	}

	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		ticket.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) != "" {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.MobileNumber != nil && strings.TrimSpace(*input.MobileNumber) != "" {
		ticket.MobileNumber = strings.TrimSpace(*input.MobileNumber)
	}

	oldAssignee := ticket.AssigneeID
	if input.AssigneeID != nil && *input.AssigneeID != "" && *input.AssigneeID != ticket.AssigneeID {
		assignee, err := s.users.GetByID(ctx, *input.AssigneeID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("assignee", map[string]any{"assignee_id": *input.AssigneeID})
			}
			return nil, apperrors.MapError(err)
		}
		ticket.AssigneeID = assignee.ID
		ticket.Assignee = &domain.UserRef{ID: assignee.ID, Name: assignee.Name, Email: assignee.Email}
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if ticket.AssigneeID != oldAssignee {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    events.Actor{ID: actor.ID, Role: actor.Role},
			Payload: events.TicketAssignedPayload{
				OldAssigneeID: oldAssignee,
				NewAssigneeID: ticket.AssigneeID,
			},
		})
	}
	return ticket, nil
}

// ChangeStatus transitions a ticket to the given status literal. Any of the
// three states may follow any other; the guard, not state adjacency, decides
// who may transition. ClosedAt tracks entry to and exit from Closed.
func (s *TicketService) ChangeStatus(ctx context.Context, actor domain.Actor, ticketID, rawStatus string) (*domain.Ticket, error) {
	status, ok := domain.NormalizeStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": rawStatus})
	}

	ticket, err := s.fetch(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := authz.CanChangeStatus(actor, ticket); err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.ApplyStatus(status, time.Now())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if oldStatus != ticket.Status {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Actor:    events.Actor{ID: actor.ID, Role: actor.Role},
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	return ticket, nil
}

func (s *TicketService) fetch(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
