package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/yourorg/projecthub/internal/domain"
	"github.com/yourorg/projecthub/internal/infrastructure/redis"
	"github.com/yourorg/projecthub/internal/tenant"
)

// ProjectStats aggregates derived counts over one organization's projects
// and tasks.
type ProjectStats struct {
	TotalProjects         int     `json:"totalProjects"`
	ActiveProjects        int     `json:"activeProjects"`
	CompletedProjects     int     `json:"completedProjects"`
	TotalTasks            int     `json:"totalTasks"`
	CompletedTasks        int     `json:"completedTasks"`
	OverallCompletionRate float64 `json:"overallCompletionRate"`
}

// StatsService computes per-organization aggregates. Results are cached in
// Redis for a short TTL; mutations invalidate the organization's entry. The
// cache is best-effort: any Redis failure falls back to direct computation.
type StatsService struct {
	projects domain.ProjectRepository
	tasks    domain.TaskRepository
	cache    *redis.Client // nil disables caching
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewStatsService creates a new stats service. Pass a nil cache client to
// compute directly on every call.
func NewStatsService(
	projects domain.ProjectRepository,
	tasks domain.TaskRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{
		projects: projects,
		tasks:    tasks,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// ProjectStats returns the aggregate for the context organization. An
// absent context yields the neutral all-zero result, never an error.
func (s *StatsService) ProjectStats(ctx context.Context, tc tenant.Context) (*ProjectStats, error) {
	if !tc.Resolved() {
		return &ProjectStats{}, nil
	}
	orgID := tc.OrganizationID()

	if cached := s.fromCache(ctx, orgID); cached != nil {
		return cached, nil
	}

	stats, err := s.compute(ctx, orgID)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, orgID, stats)
	return stats, nil
}

// Invalidate drops the cached aggregate for an organization. Called by the
// mutation service after every successful write.
func (s *StatsService) Invalidate(ctx context.Context, organizationID string) {
	if s.cache == nil || organizationID == "" {
		return
	}
	if err := s.cache.Delete(ctx, statsKey(organizationID)); err != nil {
		s.logger.Warn("failed to invalidate stats cache",
			slog.String("organization_id", organizationID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *StatsService) compute(ctx context.Context, orgID string) (*ProjectStats, error) {
	totalProjects, err := s.projects.CountByOrganization(ctx, orgID, "")
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	activeProjects, err := s.projects.CountByOrganization(ctx, orgID, domain.ProjectStatusActive)
	if err != nil {
		return nil, fmt.Errorf("count active projects: %w", err)
	}
	completedProjects, err := s.projects.CountByOrganization(ctx, orgID, domain.ProjectStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("count completed projects: %w", err)
	}
	totalTasks, err := s.tasks.CountByOrganization(ctx, orgID, "")
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	completedTasks, err := s.tasks.CountByOrganization(ctx, orgID, domain.TaskStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("count completed tasks: %w", err)
	}

	return &ProjectStats{
		TotalProjects:         totalProjects,
		ActiveProjects:        activeProjects,
		CompletedProjects:     completedProjects,
		TotalTasks:            totalTasks,
		CompletedTasks:        completedTasks,
		OverallCompletionRate: domain.CompletionRate(completedTasks, totalTasks),
	}, nil
}

func (s *StatsService) fromCache(ctx context.Context, orgID string) *ProjectStats {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, statsKey(orgID))
	if err != nil {
		return nil
	}
	stats := &ProjectStats{}
	if err := json.Unmarshal([]byte(data), stats); err != nil {
		s.logger.Warn("failed to decode cached stats", slog.String("error", err.Error()))
		return nil
	}
	return stats
}

func (s *StatsService) toCache(ctx context.Context, orgID string, stats *ProjectStats) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsKey(orgID), string(data), s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache stats",
			slog.String("organization_id", orgID),
			slog.String("error", err.Error()),
		)
	}
}

func statsKey(orgID string) string {
	return "stats:" + orgID
}
