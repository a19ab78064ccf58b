package domain

import (
	"strings"
	"time"
)

// Role enumerates the three operator roles in the hierarchy.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleSupervisor Role = "Supervisor"
	RoleAgent      Role = "Agent"
)

// ParseRole normalizes a role literal. Matching is case-insensitive.
func ParseRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin, true
	case "supervisor":
		return RoleSupervisor, true
	case "agent":
		return RoleAgent, true
	default:
		return "", false
	}
}

// User is an account in the supervisor hierarchy. Agents link to exactly one
// Supervisor; Supervisors link to nothing or to an Admin. Soft-deleted
// accounts are excluded from every query and from authentication.
type User struct {
	ID           string
	Name         string
	Email        string
	MobileNumber string
	PasswordHash string
	Role         Role
	SupervisorID *string
	IsActive     bool
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Supervisor is the resolved minimal projection of SupervisorID,
	// populated on listing.
	Supervisor *UserRef
}

// UserRef is the minimal projection used when resolving relations.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

// Ref returns the minimal projection of the user.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}
