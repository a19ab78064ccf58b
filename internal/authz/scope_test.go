package authz

import (
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func errCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	return domainErr.Code
}

func TestUserScopeAdminSeesEverything(t *testing.T) {
	filter, err := UserScope(domain.Actor{ID: "a1", Role: domain.RoleAdmin}, "dana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.SupervisorID != nil {
		t.Fatalf("admin scope must not pin supervisor, got %v", *filter.SupervisorID)
	}
	if filter.Search != "dana" {
		t.Fatalf("search not carried: %q", filter.Search)
	}
}

func TestUserScopeSupervisorPinnedToOwnReports(t *testing.T) {
	filter, err := UserScope(domain.Actor{ID: "sup1", Role: domain.RoleSupervisor}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.SupervisorID == nil || *filter.SupervisorID != "sup1" {
		t.Fatalf("supervisor scope = %v, want sup1", filter.SupervisorID)
	}
}

func TestUserScopeAgentForbidden(t *testing.T) {
	_, err := UserScope(domain.Actor{ID: "ag1", Role: domain.RoleAgent}, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if code := errCode(t, err); code != "FORBIDDEN" {
		t.Fatalf("code = %q, want FORBIDDEN", code)
	}
}

func TestTicketScopeAdminStatusFilter(t *testing.T) {
	filter, err := TicketScope(domain.Actor{ID: "a1", Role: domain.RoleAdmin}, TicketQuery{Status: "open"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.Status == nil || *filter.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %v, want Open", filter.Status)
	}
	if filter.SupervisorID != nil || filter.InvolvedAgentID != nil {
		t.Fatal("admin scope must not pin hierarchy or agent")
	}
}

func TestTicketScopeStatusAllDisablesFilter(t *testing.T) {
	for _, literal := range []string{"all", "ALL", ""} {
		filter, err := TicketScope(domain.Actor{ID: "a1", Role: domain.RoleAdmin}, TicketQuery{Status: literal})
		if err != nil {
			t.Fatalf("status %q: unexpected error: %v", literal, err)
		}
		if filter.Status != nil {
			t.Fatalf("status %q should disable filtering, got %v", literal, *filter.Status)
		}
	}
}

func TestTicketScopeInvalidStatus(t *testing.T) {
	_, err := TicketScope(domain.Actor{ID: "a1", Role: domain.RoleAdmin}, TicketQuery{Status: "archived"})
	if err == nil {
		t.Fatal("expected error")
	}
	if code := errCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("code = %q, want VALIDATION_FAILED", code)
	}
}

func TestTicketScopeSupervisorPinnedToHierarchy(t *testing.T) {
	filter, err := TicketScope(domain.Actor{ID: "sup1", Role: domain.RoleSupervisor}, TicketQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.SupervisorID == nil || *filter.SupervisorID != "sup1" {
		t.Fatalf("supervisor scope = %v, want sup1", filter.SupervisorID)
	}
}

func TestTicketScopeAgentOverridesRequestedStatus(t *testing.T) {
	filter, err := TicketScope(domain.Actor{ID: "ag1", Role: domain.RoleAgent}, TicketQuery{Status: "Open"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.Status == nil || *filter.Status != domain.TicketStatusClosed {
		t.Fatalf("agent status = %v, want forced Closed", filter.Status)
	}
	if filter.InvolvedAgentID == nil || *filter.InvolvedAgentID != "ag1" {
		t.Fatalf("involved agent = %v, want ag1", filter.InvolvedAgentID)
	}
}

func TestTicketScopeDateToInclusiveThroughEndOfDay(t *testing.T) {
	day := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	filter, err := TicketScope(domain.Actor{ID: "a1", Role: domain.RoleAdmin}, TicketQuery{DateTo: &day})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 2, 14, 23, 59, 59, 0, time.UTC)
	if filter.CreatedTo == nil || !filter.CreatedTo.Equal(want) {
		t.Fatalf("CreatedTo = %v, want %v", filter.CreatedTo, want)
	}
}

func TestTicketScopeCarriesSearchFilters(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	filter, err := TicketScope(domain.Actor{ID: "a1", Role: domain.RoleAdmin}, TicketQuery{
		Title:        "printer",
		MobileNumber: "0912",
		DateFrom:     &from,
		Limit:        25,
		Offset:       50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.TitleSearch == nil || *filter.TitleSearch != "printer" {
		t.Fatalf("title search = %v", filter.TitleSearch)
	}
	if filter.MobileSearch == nil || *filter.MobileSearch != "0912" {
		t.Fatalf("mobile search = %v", filter.MobileSearch)
	}
	if filter.CreatedFrom == nil || !filter.CreatedFrom.Equal(from) {
		t.Fatalf("CreatedFrom = %v", filter.CreatedFrom)
	}
	if filter.Limit != 25 || filter.Offset != 50 {
		t.Fatalf("pagination = %d/%d", filter.Limit, filter.Offset)
	}
}
