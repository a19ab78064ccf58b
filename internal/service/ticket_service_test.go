package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func testErrCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	return domainErr.Code
}

func strPtr(s string) *string { return &s }

type ticketFixture struct {
	service *TicketService
	users   *fakeUserRepo
	tickets *fakeTicketRepo
	bus     *recordingDispatcher

	admin    domain.Actor
	sup1     domain.Actor
	sup2     domain.Actor
	agent1   domain.Actor
	agent2   domain.Actor
	outsider domain.Actor
}

// newTicketFixture builds a two-supervisor hierarchy: agent1 and agent2 report
// to sup1, outsider reports to sup2.
func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	users := newFakeUserRepo()
	tickets := newFakeTicketRepo()
	bus := &recordingDispatcher{}

	seed := func(name, email string, role domain.Role, supervisorID *string) domain.Actor {
		user := &domain.User{Name: name, Email: email, MobileNumber: "0912000000", Role: role, SupervisorID: supervisorID, IsActive: true}
		if err := users.Create(context.Background(), user); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
		return domain.ActorFor(user)
	}

	admin := seed("Root", "root@example.com", domain.RoleAdmin, nil)
	sup1 := seed("Sara", "sara@example.com", domain.RoleSupervisor, nil)
	sup2 := seed("Sam", "sam@example.com", domain.RoleSupervisor, nil)
	agent1 := seed("Avi", "avi@example.com", domain.RoleAgent, strPtr(sup1.ID))
	agent2 := seed("Bea", "bea@example.com", domain.RoleAgent, strPtr(sup1.ID))
	outsider := seed("Cal", "cal@example.com", domain.RoleAgent, strPtr(sup2.ID))

	return &ticketFixture{
		service:  NewTicketService(TicketDependencies{TicketRepo: tickets, UserRepo: users, Dispatcher: bus}),
		users:    users,
		tickets:  tickets,
		bus:      bus,
		admin:    admin,
		sup1:     sup1,
		sup2:     sup2,
		agent1:   agent1,
		agent2:   agent2,
		outsider: outsider,
	}
}

func (f *ticketFixture) create(t *testing.T, actor domain.Actor, input TicketCreateInput) *domain.Ticket {
	t.Helper()
	if input.Title == "" {
		input.Title = "printer down"
	}
	if input.Description == "" {
		input.Description = "third floor printer jams"
	}
	if input.MobileNumber == "" {
		input.MobileNumber = "0912111111"
	}
	ticket, err := f.service.Create(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func TestTicketCreateDefaults(t *testing.T) {
	f := newTicketFixture(t)

	ticket := f.create(t, f.agent1, TicketCreateInput{})
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %q, want Open", ticket.Status)
	}
	if ticket.AssigneeID != f.agent1.ID {
		t.Fatalf("assignee = %q, want creator %q", ticket.AssigneeID, f.agent1.ID)
	}
	if ticket.SupervisorID == nil || *ticket.SupervisorID != f.sup1.ID {
		t.Fatalf("supervisor snapshot = %v, want %q", ticket.SupervisorID, f.sup1.ID)
	}
	if got := f.bus.byType(events.EventTicketCreated); len(got) != 1 {
		t.Fatalf("created events = %d, want 1", len(got))
	}
}

func TestTicketCreateSupervisorStampsSelf(t *testing.T) {
	f := newTicketFixture(t)

	ticket := f.create(t, f.sup1, TicketCreateInput{AssigneeID: f.agent1.ID})
	if ticket.SupervisorID == nil || *ticket.SupervisorID != f.sup1.ID {
		t.Fatalf("supervisor snapshot = %v, want %q", ticket.SupervisorID, f.sup1.ID)
	}
	if ticket.AssigneeID != f.agent1.ID {
		t.Fatalf("assignee = %q, want %q", ticket.AssigneeID, f.agent1.ID)
	}
}

func TestTicketCreateValidation(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.service.Create(context.Background(), f.agent1, TicketCreateInput{Title: "  "})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := testErrCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("code = %q, want VALIDATION_FAILED", code)
	}
	var domainErr *apperrors.DomainError
	errors.As(err, &domainErr)
	for _, field := range []string{"title", "description", "mobileNumber"} {
		if _, ok := domainErr.Details[field]; !ok {
			t.Fatalf("missing detail for %q: %v", field, domainErr.Details)
		}
	}
}

func TestTicketCreateUnknownAssignee(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.service.Create(context.Background(), f.agent1, TicketCreateInput{
		Title: "x", Description: "y", MobileNumber: "0912", AssigneeID: "missing",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := testErrCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("code = %q, want NOT_FOUND", code)
	}
}

func TestTicketListAgentSeesOnlyClosedInvolvement(t *testing.T) {
	f := newTicketFixture(t)

	closedOwn := f.create(t, f.agent1, TicketCreateInput{Title: "closed own"})
	if _, err := f.service.ChangeStatus(context.Background(), f.sup1, closedOwn.ID, "closed"); err != nil {
		t.Fatalf("close: %v", err)
	}
	f.create(t, f.agent1, TicketCreateInput{Title: "still open"})
	closedForeign := f.create(t, f.outsider, TicketCreateInput{Title: "closed foreign"})
	if _, err := f.service.ChangeStatus(context.Background(), f.sup2, closedForeign.ID, "closed"); err != nil {
		t.Fatalf("close foreign: %v", err)
	}

	// The requested Open filter is overridden, not honored.
	list, err := f.service.List(context.Background(), f.agent1, authz.TicketQuery{Status: "Open"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != closedOwn.ID {
		t.Fatalf("agent list = %+v, want only %q", list, closedOwn.ID)
	}
}

func TestTicketListSupervisorScope(t *testing.T) {
	f := newTicketFixture(t)

	own := f.create(t, f.agent1, TicketCreateInput{Title: "mine"})
	f.create(t, f.outsider, TicketCreateInput{Title: "theirs"})

	list, err := f.service.List(context.Background(), f.sup1, authz.TicketQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != own.ID {
		t.Fatalf("supervisor list = %+v, want only %q", list, own.ID)
	}

	all, err := f.service.List(context.Background(), f.admin, authz.TicketQuery{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin list = %d tickets, want 2", len(all))
	}
}

func TestTicketGetDistinguishesNotFoundFromForbidden(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.create(t, f.agent1, TicketCreateInput{})

	if _, err := f.service.Get(context.Background(), f.agent1, ticket.ID); err != nil {
		t.Fatalf("creator get: %v", err)
	}

	_, err := f.service.Get(context.Background(), f.outsider, ticket.ID)
	if err == nil || testErrCode(t, err) != "FORBIDDEN" {
		t.Fatalf("outsider get err = %v, want FORBIDDEN", err)
	}

	_, err = f.service.Get(context.Background(), f.admin, "missing")
	if err == nil || testErrCode(t, err) != "NOT_FOUND" {
		t.Fatalf("missing get err = %v, want NOT_FOUND", err)
	}
}

func TestTicketEditPermissions(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.create(t, f.agent1, TicketCreateInput{})

	_, err := f.service.Edit(context.Background(), f.agent1, ticket.ID, TicketEditInput{Title: strPtr("new")})
	if err == nil || testErrCode(t, err) != "FORBIDDEN" {
		t.Fatalf("agent edit err = %v, want FORBIDDEN", err)
	}

	_, err = f.service.Edit(context.Background(), f.sup2, ticket.ID, TicketEditInput{Title: strPtr("new")})
	if err == nil || testErrCode(t, err) != "FORBIDDEN" {
		t.Fatalf("foreign supervisor edit err = %v, want FORBIDDEN", err)
	}

	updated, err := f.service.Edit(context.Background(), f.sup1, ticket.ID, TicketEditInput{Title: strPtr("escalated printer")})
	if err != nil {
		t.Fatalf("owning supervisor edit: %v", err)
	}
	if updated.Title != "escalated printer" {
		t.Fatalf("title = %q", updated.Title)
	}
}

func TestTicketEditReassignPublishesEvent(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.create(t, f.agent1, TicketCreateInput{})

	updated, err := f.service.Edit(context.Background(), f.sup1, ticket.ID, TicketEditInput{AssigneeID: strPtr(f.agent2.ID)})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.AssigneeID != f.agent2.ID {
		t.Fatalf("assignee = %q, want %q", updated.AssigneeID, f.agent2.ID)
	}
	if updated.SupervisorID == nil || *updated.SupervisorID != f.sup1.ID {
		t.Fatal("supervisor snapshot must survive reassignment")
	}

	assigned := f.bus.byType(events.EventTicketAssigned)
	if len(assigned) != 1 {
		t.Fatalf("assigned events = %d, want 1", len(assigned))
	}
	payload, ok := assigned[0].Payload.(events.TicketAssignedPayload)
	if !ok || payload.OldAssigneeID != f.agent1.ID || payload.NewAssigneeID != f.agent2.ID {
		t.Fatalf("payload = %+v", assigned[0].Payload)
	}
}

func TestTicketChangeStatusLifecycle(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.create(t, f.agent1, TicketCreateInput{})

	closed, err := f.service.ChangeStatus(context.Background(), f.agent1, ticket.ID, "closed")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != domain.TicketStatusClosed || closed.ClosedAt == nil {
		t.Fatalf("closed = %+v", closed)
	}
	firstClose := *closed.ClosedAt

	// Re-applying the same status keeps the timestamp and emits nothing new.
	again, err := f.service.ChangeStatus(context.Background(), f.agent1, ticket.ID, "Closed")
	if err != nil {
		t.Fatalf("re-close: %v", err)
	}
	if again.ClosedAt == nil || !again.ClosedAt.Equal(firstClose) {
		t.Fatalf("ClosedAt changed on no-op: %v vs %v", again.ClosedAt, firstClose)
	}
	if got := f.bus.byType(events.EventTicketStatusChanged); len(got) != 1 {
		t.Fatalf("status events after no-op = %d, want 1", len(got))
	}

	reopened, err := f.service.ChangeStatus(context.Background(), f.agent1, ticket.ID, "reopened")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != domain.TicketStatusReopened || reopened.ClosedAt != nil {
		t.Fatalf("reopened = %+v", reopened)
	}
}

func TestTicketChangeStatusGuards(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.create(t, f.agent1, TicketCreateInput{})

	_, err := f.service.ChangeStatus(context.Background(), f.outsider, ticket.ID, "closed")
	if err == nil || testErrCode(t, err) != "FORBIDDEN" {
		t.Fatalf("outsider err = %v, want FORBIDDEN", err)
	}

	_, err = f.service.ChangeStatus(context.Background(), f.agent1, ticket.ID, "archived")
	if err == nil || testErrCode(t, err) != "VALIDATION_FAILED" {
		t.Fatalf("invalid literal err = %v, want VALIDATION_FAILED", err)
	}

	if _, err := f.service.ChangeStatus(context.Background(), f.admin, ticket.ID, "CLOSED"); err != nil {
		t.Fatalf("admin close: %v", err)
	}
}
