package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// UserFilter defines query params for account listing. Soft-deleted accounts
// are excluded unconditionally.
type UserFilter struct {
	Role         *domain.Role
	SupervisorID *string
	Search       string
	Limit        int
	Offset       int
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	SoftDelete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, mobile_number, password_hash, role, supervisor_id, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.MobileNumber,
		user.PasswordHash,
		user.Role,
		user.SupervisorID,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users
        SET name=$1, email=$2, mobile_number=$3, password_hash=$4, role=$5, supervisor_id=$6, is_active=$7, updated_at=NOW()
        WHERE id=$8 AND is_deleted=FALSE`

	cmd, err := r.pool.Exec(ctx, query,
		user.Name,
		user.Email,
		user.MobileNumber,
		user.PasswordHash,
		user.Role,
		user.SupervisorID,
		user.IsActive,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `
        UPDATE users SET is_deleted=TRUE, updated_at=NOW()
        WHERE id=$1 AND is_deleted=FALSE`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, mobile_number, password_hash, role, supervisor_id, is_active, is_deleted, created_at, updated_at
        FROM users WHERE id=$1 AND is_deleted=FALSE`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, mobile_number, password_hash, role, supervisor_id, is_active, is_deleted, created_at, updated_at
        FROM users WHERE email=$1 AND is_deleted=FALSE`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.MobileNumber,
		&user.PasswordHash,
		&user.Role,
		&user.SupervisorID,
		&user.IsActive,
		&user.IsDeleted,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	base := `SELECT u.id, u.name, u.email, u.mobile_number, u.password_hash, u.role, u.supervisor_id,
                    u.is_active, u.is_deleted, u.created_at, u.updated_at,
                    s.id, s.name, s.email
             FROM users u
             LEFT JOIN users s ON s.id = u.supervisor_id`
	clauses, args := userClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY u.created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		var supID, supName, supEmail *string
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.MobileNumber,
			&user.PasswordHash,
			&user.Role,
			&user.SupervisorID,
			&user.IsActive,
			&user.IsDeleted,
			&user.CreatedAt,
			&user.UpdatedAt,
			&supID,
			&supName,
			&supEmail,
		); err != nil {
			return nil, err
		}
		if supID != nil {
			user.Supervisor = &domain.UserRef{ID: *supID, Name: *supName, Email: *supEmail}
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	clauses, args := userClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM users u WHERE %s`, strings.Join(clauses, " AND "))

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func userClauses(filter UserFilter) ([]string, []any) {
	clauses := []string{"u.is_deleted=FALSE"}
	args := []any{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("u.role=$%d", len(args)))
	}
	if filter.SupervisorID != nil {
		args = append(args, *filter.SupervisorID)
		clauses = append(clauses, fmt.Sprintf("u.supervisor_id=$%d", len(args)))
	}
	if strings.TrimSpace(filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(u.name) LIKE %s OR LOWER(u.email) LIKE %s OR LOWER(u.mobile_number) LIKE %s)",
			placeholder, placeholder, placeholder))
	}
	return clauses, args
}
