package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateUserRequest payload for admin registration.
type CreateUserRequest struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	MobileNumber string  `json:"mobileNumber"`
	Password     string  `json:"password"`
	Role         string  `json:"role"`
	SupervisorID *string `json:"supervisorId"`
}

// UpdateUserRequest payload for admin updates. Omitted fields are untouched;
// an empty supervisorId clears the link.
type UpdateUserRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	MobileNumber *string `json:"mobileNumber"`
	Role         *string `json:"role"`
	SupervisorID *string `json:"supervisorId"`
	IsActive     *bool   `json:"isActive"`
}

// UpdateProfileRequest payload for self-service profile edits.
type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// UserRefResponse is the minimal projection of a related account.
type UserRefResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserResponse is the account representation; credentials never appear.
type UserResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	MobileNumber string           `json:"mobileNumber"`
	Role         domain.Role      `json:"role"`
	SupervisorID *string          `json:"supervisorId"`
	Supervisor   *UserRefResponse `json:"supervisor,omitempty"`
	IsActive     bool             `json:"isActive"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}
