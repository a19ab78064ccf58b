package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// StatsHandler exposes dashboard statistics.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: statsService}
}

// Dashboard handles GET /stats.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	dashboard, err := h.stats.Dashboard(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dashboard})
}
