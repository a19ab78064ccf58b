package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const dateLayout = "2006-01-02"

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.Create(c.Context(), actor, service.TicketCreateInput{
		Title:        req.Title,
		Description:  req.Description,
		MobileNumber: req.MobileNumber,
		AssigneeID:   req.AssignedAgentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// List handles GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	query, err := parseTicketQuery(c)
	if err != nil {
		return err
	}

	tickets, err := h.tickets.List(c.Context(), actor, query)
	if err != nil {
		return err
	}

	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.tickets.Get(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Update handles PUT /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.Edit(c.Context(), actor, c.Params("id"), service.TicketEditInput{
		Title:        req.Title,
		Description:  req.Description,
		MobileNumber: req.MobileNumber,
		AssigneeID:   req.AssignedAgentID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ChangeStatus handles PATCH /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	ticket, err := h.tickets.ChangeStatus(c.Context(), actor, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) (authz.TicketQuery, error) {
	query := authz.TicketQuery{
		Title:        c.Query("title"),
		MobileNumber: c.Query("mobileNumber"),
		Status:       c.Query("status"),
	}

	if raw := c.Query("dateFrom"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return authz.TicketQuery{}, apperrors.NewValidationError("invalid dateFrom", map[string]any{"dateFrom": raw})
		}
		query.DateFrom = &from
	}
	if raw := c.Query("dateTo"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return authz.TicketQuery{}, apperrors.NewValidationError("invalid dateTo", map[string]any{"dateTo": raw})
		}
		query.DateTo = &to
	}

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("pageSize"), 100)
	query.Offset = (page - 1) * pageSize
	query.Limit = pageSize
	return query, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:           ticket.ID,
		Title:        ticket.Title,
		Description:  ticket.Description,
		MobileNumber: ticket.MobileNumber,
		Status:       ticket.Status,
		CreatedBy:    userRef(ticket.CreatedBy),
		Assignee:     userRef(ticket.Assignee),
		Supervisor:   userRef(ticket.Supervisor),
		ClosedAt:     ticket.ClosedAt,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func userRef(ref *domain.UserRef) *dto.UserRefResponse {
	if ref == nil {
		return nil
	}
	return &dto.UserRefResponse{ID: ref.ID, Name: ref.Name, Email: ref.Email}
}
