package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// UserService manages accounts in the supervisor hierarchy.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// CreateUserInput describes an admin registration payload.
type CreateUserInput struct {
	Name         string
	Email        string
	MobileNumber string
	Password     string
	Role         string
	SupervisorID *string
}

// UpdateUserInput describes a partial admin update. Nil fields are untouched;
// an empty SupervisorID clears the link.
type UpdateUserInput struct {
	Name         *string
	Email        *string
	MobileNumber *string
	Role         *string
	SupervisorID *string
	IsActive     *bool
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// List returns accounts visible to the actor. Admin sees all non-deleted
// accounts, a Supervisor only their direct reports, Agents nothing.
func (s *UserService) List(ctx context.Context, actor domain.Actor, search string) ([]domain.User, error) {
	filter, err := authz.UserScope(actor, search)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Create registers a new account (Admin only).
func (s *UserService) Create(ctx context.Context, actor domain.Actor, input CreateUserInput) (*domain.User, error) {
	if err := authz.CanManageUsers(actor); err != nil {
		return nil, err
	}

	details := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "required"
	}
	if strings.TrimSpace(input.Email) == "" {
		details["email"] = "required"
	}
	if strings.TrimSpace(input.MobileNumber) == "" {
		details["mobileNumber"] = "required"
	}
	if input.Password == "" {
		details["password"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", details)
	}

	role := domain.RoleAgent
	if strings.TrimSpace(input.Role) != "" {
		parsed, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
		}
		role = parsed
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("user already exists", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	supervisorID, err := s.checkHierarchy(ctx, role, input.SupervisorID)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		MobileNumber: strings.TrimSpace(input.MobileNumber),
		PasswordHash: hash,
		Role:         role,
		SupervisorID: supervisorID,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventUserCreated,
		Actor:   events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.UserCreatedPayload{UserID: user.ID, Role: user.Role},
	})
	return user, nil
}

// Update applies a partial account update (Admin only).
func (s *UserService) Update(ctx context.Context, actor domain.Actor, userID string, input UpdateUserInput) (*domain.User, error) {
	if err := authz.CanManageUsers(actor); err != nil {
		return nil, err
	}

	user, err := s.fetch(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.MobileNumber != nil && strings.TrimSpace(*input.MobileNumber) != "" {
		user.MobileNumber = strings.TrimSpace(*input.MobileNumber)
	}
	if input.Role != nil {
		parsed, ok := domain.ParseRole(*input.Role)
		if !ok {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
		}
		user.Role = parsed
	}
	if input.SupervisorID != nil {
		if *input.SupervisorID == "" {
			user.SupervisorID = nil
		} else {
			supervisorID := *input.SupervisorID
			user.SupervisorID = &supervisorID
		}
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if _, err := s.checkHierarchy(ctx, user.Role, user.SupervisorID); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Delete soft-deletes an account (Admin only). Deletion is terminal: the
// account disappears from every listing and can no longer authenticate.
func (s *UserService) Delete(ctx context.Context, actor domain.Actor, userID string) error {
	if err := authz.CanManageUsers(actor); err != nil {
		return err
	}
	if err := s.users.SoftDelete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// UpdateProfile lets any actor change their own display name and password.
func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Actor, name, password string) (*domain.User, error) {
	user, err := s.fetch(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) != "" {
		user.Name = strings.TrimSpace(name)
	}
	if password != "" {
		hash, err := auth.HashPassword(password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		user.PasswordHash = hash
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// checkHierarchy enforces the supervisor-link invariant: Agents report to a
// Supervisor, Supervisors report to nothing or to an Admin, Admins to nothing.
func (s *UserService) checkHierarchy(ctx context.Context, role domain.Role, supervisorID *string) (*string, error) {
	if role == domain.RoleAgent && supervisorID == nil {
		return nil, apperrors.NewValidationError("agents must report to a supervisor", nil)
	}
	if supervisorID == nil {
		return nil, nil
	}

	supervisor, err := s.users.GetByID(ctx, *supervisorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("supervisor", map[string]any{"supervisor_id": *supervisorID})
		}
		return nil, apperrors.MapError(err)
	}

	switch role {
	case domain.RoleAgent:
		if supervisor.Role != domain.RoleSupervisor {
			return nil, apperrors.NewValidationError("agents must report to a supervisor", map[string]any{"supervisor_id": *supervisorID})
		}
	case domain.RoleSupervisor:
		if supervisor.Role != domain.RoleAdmin {
			return nil, apperrors.NewValidationError("supervisors may only report to an admin", map[string]any{"supervisor_id": *supervisorID})
		}
	default:
		return nil, apperrors.NewValidationError("admins may not report to a supervisor", nil)
	}
	return supervisorID, nil
}

func (s *UserService) fetch(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *UserService) publishEvent(ctx context.Context, event events.Event) {
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
