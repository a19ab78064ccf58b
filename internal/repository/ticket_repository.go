package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures scope-safe ticket query parameters. The scope fields
// (SupervisorID, InvolvedAgentID) are only ever set by the scope builder,
// never from client input.
type TicketFilter struct {
	TitleSearch     *string
	MobileSearch    *string
	Status          *domain.TicketStatus
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	SupervisorID    *string
	InvolvedAgentID *string
	Limit           int
	Offset          int
}

// StatusCountRow is one bucket of a per-month status aggregation.
type StatusCountRow struct {
	Month  time.Time
	Status domain.TicketStatus
	Count  int64
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountByStatus(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int64, error)
	CountByMonth(ctx context.Context, filter TicketFilter, since time.Time) ([]StatusCountRow, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, mobile_number, status, created_by, assignee_id, supervisor_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.MobileNumber,
		ticket.Status,
		ticket.CreatedByID,
		ticket.AssigneeID,
		ticket.SupervisorID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, mobile_number=$3, status=$4,
            assignee_id=$5, closed_at=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.MobileNumber,
		ticket.Status,
		ticket.AssigneeID,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const ticketSelect = `
    SELECT t.id, t.title, t.description, t.mobile_number, t.status,
           t.created_by, t.assignee_id, t.supervisor_id, t.closed_at, t.created_at, t.updated_at,
           cu.name, cu.email,
           au.name, au.email,
           su.id, su.name, su.email
    FROM tickets t
    JOIN users cu ON cu.id = t.created_by
    JOIN users au ON au.id = t.assignee_id
    LEFT JOIN users su ON su.id = t.supervisor_id`

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := ticketSelect + ` WHERE t.id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicketRow(row)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses, args := ticketClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		ticketSelect, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountByStatus(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int64, error) {
	clauses, args := ticketClauses(filter)
	query := fmt.Sprintf(`SELECT t.status, COUNT(*) FROM tickets t WHERE %s GROUP BY t.status`,
		strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int64)
	for rows.Next() {
		var status domain.TicketStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) CountByMonth(ctx context.Context, filter TicketFilter, since time.Time) ([]StatusCountRow, error) {
	clauses, args := ticketClauses(filter)
	args = append(args, since)
	clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))

	query := fmt.Sprintf(`
        SELECT date_trunc('month', t.created_at) AS month, t.status, COUNT(*)
        FROM tickets t WHERE %s
        GROUP BY 1, 2 ORDER BY 1`,
		strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusCountRow
	for rows.Next() {
		var row StatusCountRow
		if err := rows.Scan(&row.Month, &row.Status, &row.Count); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func ticketClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TitleSearch != nil && strings.TrimSpace(*filter.TitleSearch) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.TitleSearch))+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(t.title) LIKE $%d", len(args)))
	}
	if filter.MobileSearch != nil && strings.TrimSpace(*filter.MobileSearch) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.MobileSearch))+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(t.mobile_number) LIKE $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}
	if filter.SupervisorID != nil {
		args = append(args, *filter.SupervisorID)
		clauses = append(clauses, fmt.Sprintf("t.supervisor_id=$%d", len(args)))
	}
	if filter.InvolvedAgentID != nil {
		args = append(args, *filter.InvolvedAgentID)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(t.created_by=%s OR t.assignee_id=%s)", placeholder, placeholder))
	}
	return clauses, args
}

func scanTicketRow(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var creatorName, creatorEmail string
	var assigneeName, assigneeEmail string
	var supID, supName, supEmail *string
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.MobileNumber,
		&ticket.Status,
		&ticket.CreatedByID,
		&ticket.AssigneeID,
		&ticket.SupervisorID,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&creatorName,
		&creatorEmail,
		&assigneeName,
		&assigneeEmail,
		&supID,
		&supName,
		&supEmail,
	); err != nil {
		return nil, err
	}
	ticket.CreatedBy = &domain.UserRef{ID: ticket.CreatedByID, Name: creatorName, Email: creatorEmail}
	ticket.Assignee = &domain.UserRef{ID: ticket.AssigneeID, Name: assigneeName, Email: assigneeEmail}
	if supID != nil {
		ticket.Supervisor = &domain.UserRef{ID: *supID, Name: *supName, Email: *supEmail}
	}
	return &ticket, nil
}
