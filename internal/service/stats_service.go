package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const monthlyWindow = 6

// Dashboard is the role-scoped statistics payload.
type Dashboard struct {
	TotalSupervisors int64          `json:"totalSupervisors"`
	TotalAgents      int64          `json:"totalAgents"`
	Tickets          StatusCounts   `json:"tickets"`
	ChartData        []MonthlyCount `json:"chartData"`
}

// StatusCounts breaks ticket totals down by lifecycle state.
type StatusCounts struct {
	Open     int64 `json:"open"`
	Closed   int64 `json:"closed"`
	Reopened int64 `json:"reopened"`
}

// MonthlyCount is one month of the trailing aggregation window.
type MonthlyCount struct {
	Month    string `json:"month"`
	Open     int64  `json:"open"`
	Closed   int64  `json:"closed"`
	Reopened int64  `json:"reopened"`
}

// StatsService aggregates role-scoped dashboard counts. It reuses the same
// scope rules as listing: a Supervisor counts only their hierarchy, an Agent
// only tickets they created or hold — though across all statuses, unlike the
// Closed-only listing restriction.
type StatsService struct {
	tickets  repository.TicketRepository
	users    repository.UserRepository
	cache    *persistence.Redis
	cacheTTL time.Duration
	logger   *zap.Logger
}

// StatsDependencies bundles collaborators for the stats service.
type StatsDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Cache      *persistence.Redis
	Logger     *zap.Logger
}

// NewStatsService constructs the service.
func NewStatsService(cfg config.Config, deps StatsDependencies) *StatsService {
	return &StatsService{
		tickets:  deps.TicketRepo,
		users:    deps.UserRepo,
		cache:    deps.Cache,
		cacheTTL: cfg.Stats.CacheTTL(),
		logger:   deps.Logger,
	}
}

// Dashboard computes (or serves from cache) the statistics for the actor.
func (s *StatsService) Dashboard(ctx context.Context, actor domain.Actor) (*Dashboard, error) {
	cacheKey := fmt.Sprintf("stats:%s:%s", actor.Role, actor.ID)
	if cached := s.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	dashboard := &Dashboard{}
	ticketFilter := repository.TicketFilter{}

	switch actor.Role {
	case domain.RoleAdmin:
		supervisorRole := domain.RoleSupervisor
		agentRole := domain.RoleAgent
		supervisors, err := s.users.Count(ctx, repository.UserFilter{Role: &supervisorRole})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		agents, err := s.users.Count(ctx, repository.UserFilter{Role: &agentRole})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		dashboard.TotalSupervisors = supervisors
		dashboard.TotalAgents = agents
	case domain.RoleSupervisor:
		supervisorID := actor.ID
		agentRole := domain.RoleAgent
		agents, err := s.users.Count(ctx, repository.UserFilter{Role: &agentRole, SupervisorID: &supervisorID})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		dashboard.TotalAgents = agents
		ticketFilter.SupervisorID = &supervisorID
	case domain.RoleAgent:
		agentID := actor.ID
		ticketFilter.InvolvedAgentID = &agentID
	}

	counts, err := s.tickets.CountByStatus(ctx, ticketFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	dashboard.Tickets = StatusCounts{
		Open:     counts[domain.TicketStatusOpen],
		Closed:   counts[domain.TicketStatusClosed],
		Reopened: counts[domain.TicketStatusReopened],
	}

	chart, err := s.monthlyChart(ctx, ticketFilter)
	if err != nil {
		return nil, err
	}
	dashboard.ChartData = chart

	s.toCache(ctx, cacheKey, dashboard)
	return dashboard, nil
}

// monthlyChart aggregates ticket counts per status over the trailing six
// calendar months, zero-filling months without tickets.
func (s *StatsService) monthlyChart(ctx context.Context, filter repository.TicketFilter) ([]MonthlyCount, error) {
	now := time.Now()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(monthlyWindow - 1), 0)

	rows, err := s.tickets.CountByMonth(ctx, filter, since)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	indexByMonth := make(map[string]int, monthlyWindow)
	chart := make([]MonthlyCount, monthlyWindow)
	for i := range chart {
		month := since.AddDate(0, i, 0)
		chart[i] = MonthlyCount{Month: month.Format("Jan")}
		indexByMonth[month.Format("2006-01")] = i
	}

	for _, row := range rows {
		i, ok := indexByMonth[row.Month.Format("2006-01")]
		if !ok {
			continue
		}
		switch row.Status {
		case domain.TicketStatusOpen:
			chart[i].Open = row.Count
		case domain.TicketStatusClosed:
			chart[i].Closed = row.Count
		case domain.TicketStatusReopened:
			chart[i].Reopened = row.Count
		}
	}
	return chart, nil
}

func (s *StatsService) fromCache(ctx context.Context, key string) *Dashboard {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var dashboard Dashboard
	if err := json.Unmarshal(raw, &dashboard); err != nil {
		return nil
	}
	return &dashboard
}

func (s *StatsService) toCache(ctx context.Context, key string, dashboard *Dashboard) {
	if s.cache == nil || s.cache.Client == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(dashboard)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
}
