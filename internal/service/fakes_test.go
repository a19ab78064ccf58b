package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// fakeUserRepo is an in-memory UserRepository with the same soft-delete and
// not-found semantics as the Postgres implementation.
type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("u%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok || existing.IsDeleted {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[id]
	if !ok || existing.IsDeleted {
		return pgx.ErrNoRows
	}
	existing.IsDeleted = true
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[id]
	if !ok || existing.IsDeleted {
		return nil, pgx.ErrNoRows
	}
	copied := *existing
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email && !user.IsDeleted {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		if userMatches(user, filter) {
			result = append(result, *user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *fakeUserRepo) Count(_ context.Context, filter repository.UserFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, user := range r.users {
		if userMatches(user, filter) {
			count++
		}
	}
	return count, nil
}

func userMatches(user *domain.User, filter repository.UserFilter) bool {
	if user.IsDeleted {
		return false
	}
	if filter.Role != nil && user.Role != *filter.Role {
		return false
	}
	if filter.SupervisorID != nil {
		if user.SupervisorID == nil || *user.SupervisorID != *filter.SupervisorID {
			return false
		}
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		if !strings.Contains(strings.ToLower(user.Name), search) &&
			!strings.Contains(strings.ToLower(user.Email), search) &&
			!strings.Contains(strings.ToLower(user.MobileNumber), search) {
			return false
		}
	}
	return true
}

// fakeTicketRepo mirrors the query semantics of the Postgres ticket store.
type fakeTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]*domain.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("t%d", r.seq)
	ticket.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *existing
	return &copied, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticketMatches(ticket, filter) {
			result = append(result, *ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *fakeTicketRepo) CountByStatus(_ context.Context, filter repository.TicketFilter) (map[domain.TicketStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[domain.TicketStatus]int64{}
	for _, ticket := range r.tickets {
		if ticketMatches(ticket, filter) {
			counts[ticket.Status]++
		}
	}
	return counts, nil
}

func (r *fakeTicketRepo) CountByMonth(_ context.Context, filter repository.TicketFilter, since time.Time) ([]repository.StatusCountRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buckets := map[string]*repository.StatusCountRow{}
	for _, ticket := range r.tickets {
		if !ticketMatches(ticket, filter) || ticket.CreatedAt.Before(since) {
			continue
		}
		month := time.Date(ticket.CreatedAt.Year(), ticket.CreatedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		key := month.Format("2006-01") + string(ticket.Status)
		if row, ok := buckets[key]; ok {
			row.Count++
			continue
		}
		buckets[key] = &repository.StatusCountRow{Month: month, Status: ticket.Status, Count: 1}
	}
	var result []repository.StatusCountRow
	for _, row := range buckets {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month.Before(result[j].Month) })
	return result, nil
}

func ticketMatches(ticket *domain.Ticket, filter repository.TicketFilter) bool {
	if filter.TitleSearch != nil &&
		!strings.Contains(strings.ToLower(ticket.Title), strings.ToLower(*filter.TitleSearch)) {
		return false
	}
	if filter.MobileSearch != nil &&
		!strings.Contains(strings.ToLower(ticket.MobileNumber), strings.ToLower(*filter.MobileSearch)) {
		return false
	}
	if filter.Status != nil && ticket.Status != *filter.Status {
		return false
	}
	if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.SupervisorID != nil {
		if ticket.SupervisorID == nil || *ticket.SupervisorID != *filter.SupervisorID {
			return false
		}
	}
	if filter.InvolvedAgentID != nil {
		if ticket.CreatedByID != *filter.InvolvedAgentID && ticket.AssigneeID != *filter.InvolvedAgentID {
			return false
		}
	}
	return true
}

// fakeResetRepo stores reset tokens in memory.
type fakeResetRepo struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]*repository.PasswordResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: map[string]*repository.PasswordResetToken{}}
}

func (r *fakeResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	token.ID = fmt.Sprintf("rt%d", r.seq)
	token.CreatedAt = time.Now()
	stored := *token
	r.tokens[token.Token] = &stored
	return nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *existing
	return &copied, nil
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.ID == id {
			now := time.Now()
			token.UsedAt = &now
			return nil
		}
	}
	return nil
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matched []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}
