package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// UsersHandler exposes account management endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	users, err := h.users.List(c.Context(), actor, c.Query("search"))
	if err != nil {
		return err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.Create(c.Context(), actor, service.CreateUserInput{
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Password:     req.Password,
		Role:         req.Role,
		SupervisorID: req.SupervisorID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// Update handles PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.users.Update(c.Context(), actor, c.Params("id"), service.UpdateUserInput{
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Role:         req.Role,
		SupervisorID: req.SupervisorID,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Delete handles DELETE /users/:id (soft delete).
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.users.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "user removed"}})
}

// UpdateProfile handles PUT /profile.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" && req.Password == "" {
		return apperrors.NewValidationError("nothing to update", nil)
	}

	user, err := h.users.UpdateProfile(c.Context(), actor, req.Name, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func userResponse(user *domain.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		MobileNumber: user.MobileNumber,
		Role:         user.Role,
		SupervisorID: user.SupervisorID,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if user.Supervisor != nil {
		resp.Supervisor = &dto.UserRefResponse{
			ID:    user.Supervisor.ID,
			Name:  user.Supervisor.Name,
			Email: user.Supervisor.Email,
		}
	}
	return resp
}
