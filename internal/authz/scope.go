// Package authz holds the hierarchy-scoped query builder and the per-role
// permission guard. Both are pure decision logic over the actor context and
// the target record; storage access stays in the repositories.
package authz

import (
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// StatusAll is the ticket query literal that disables status filtering.
const StatusAll = "all"

// TicketQuery carries the client-supplied ticket listing filters before
// scoping. Dates are calendar dates; DateTo is inclusive through end of day.
type TicketQuery struct {
	Title        string
	MobileNumber string
	Status       string
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

// UserScope translates (actor, search) into the predicate for account
// listing. Admin sees every non-deleted account, a Supervisor only their
// direct reports, and Agents may not list users at all.
func UserScope(actor domain.Actor, search string) (repository.UserFilter, error) {
	filter := repository.UserFilter{Search: search}
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleSupervisor:
		supervisorID := actor.ID
		filter.SupervisorID = &supervisorID
	default:
		return repository.UserFilter{}, apperrors.NewForbidden("not authorized to list users")
	}
	return filter, nil
}

// TicketScope translates (actor, query) into the predicate for ticket
// listing. For Agents the requested status filter is overridden, not
// defaulted: they observe only Closed tickets they created or are assigned
// to, whatever they asked for.
func TicketScope(actor domain.Actor, query TicketQuery) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{
		CreatedFrom: query.DateFrom,
		Limit:       query.Limit,
		Offset:      query.Offset,
	}
	if query.Title != "" {
		title := query.Title
		filter.TitleSearch = &title
	}
	if query.MobileNumber != "" {
		mobile := query.MobileNumber
		filter.MobileSearch = &mobile
	}
	if query.DateTo != nil {
		to := endOfDay(*query.DateTo)
		filter.CreatedTo = &to
	}

	if raw := strings.TrimSpace(query.Status); raw != "" && !strings.EqualFold(raw, StatusAll) {
		status, ok := domain.NormalizeStatus(raw)
		if !ok {
			return repository.TicketFilter{}, apperrors.NewValidationError(
				"invalid status filter", map[string]any{"status": raw})
		}
		filter.Status = &status
	}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleSupervisor:
		supervisorID := actor.ID
		filter.SupervisorID = &supervisorID
	case domain.RoleAgent:
		closed := domain.TicketStatusClosed
		agentID := actor.ID
		filter.Status = &closed
		filter.InvolvedAgentID = &agentID
	default:
		return repository.TicketFilter{}, apperrors.NewForbidden("unknown role")
	}
	return filter, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
