package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/projecthub/internal/domain"
	"github.com/yourorg/projecthub/internal/tenant"
)

// QueryService resolves all read operations. Every lookup except
// OrganizationBySlug takes an explicit tenant context and returns only rows
// whose ownership chain resolves to it. A missing entity and a wrong-tenant
// entity are indistinguishable to the caller.
//
// Convention: list operations return an empty slice on any miss (absent
// context, unknown id, wrong tenant); single-entity gets return nil.
type QueryService struct {
	orgs     domain.OrganizationRepository
	projects domain.ProjectRepository
	tasks    domain.TaskRepository
	comments domain.CommentRepository
	logger   *slog.Logger
}

// NewQueryService creates a new query service.
func NewQueryService(
	orgs domain.OrganizationRepository,
	projects domain.ProjectRepository,
	tasks domain.TaskRepository,
	comments domain.CommentRepository,
	logger *slog.Logger,
) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{
		orgs:     orgs,
		projects: projects,
		tasks:    tasks,
		comments: comments,
		logger:   logger,
	}
}

// OrganizationBySlug resolves a slug to an organization. This is a global
// lookup, not scoped by tenant context. Returns nil when the slug matches
// nothing.
func (s *QueryService) OrganizationBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	org, err := s.orgs.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("organization lookup: %w", err)
	}
	return org, nil
}

// ListProjects returns the context organization's projects with derived
// task counts populated. Empty when the context is absent.
func (s *QueryService) ListProjects(ctx context.Context, tc tenant.Context) ([]*domain.Project, error) {
	if !tc.Resolved() {
		return []*domain.Project{}, nil
	}

	projects, err := s.projects.ListByOrganization(ctx, tc.OrganizationID())
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	for _, p := range projects {
		if err := s.attachTaskCounts(ctx, p); err != nil {
			return nil, err
		}
	}
	if projects == nil {
		projects = []*domain.Project{}
	}
	return projects, nil
}

// GetProject returns the project if it belongs to the context organization,
// nil otherwise.
func (s *QueryService) GetProject(ctx context.Context, tc tenant.Context, id string) (*domain.Project, error) {
	if !tc.Resolved() {
		return nil, nil
	}

	project, err := s.projects.GetByID(ctx, id, tc.OrganizationID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	if err := s.attachTaskCounts(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// ListTasks returns tasks under the context organization, optionally
// restricted to one project. Empty when the context is absent.
func (s *QueryService) ListTasks(ctx context.Context, tc tenant.Context, projectID string) ([]*domain.Task, error) {
	if !tc.Resolved() {
		return []*domain.Task{}, nil
	}

	tasks, err := s.tasks.ListByOrganization(ctx, tc.OrganizationID(), projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

// GetTask returns the task if its ownership chain resolves to the context
// organization, nil otherwise.
func (s *QueryService) GetTask(ctx context.Context, tc tenant.Context, id string) (*domain.Task, error) {
	if !tc.Resolved() {
		return nil, nil
	}

	task, err := s.tasks.GetByID(ctx, id, tc.OrganizationID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListTaskComments returns the comments of a task that resolves under the
// context organization. A task that does not resolve yields an empty slice,
// keeping list misses uniform with the other list operations.
func (s *QueryService) ListTaskComments(ctx context.Context, tc tenant.Context, taskID string) ([]*domain.TaskComment, error) {
	if !tc.Resolved() {
		return []*domain.TaskComment{}, nil
	}

	if _, err := s.tasks.GetByID(ctx, taskID, tc.OrganizationID()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []*domain.TaskComment{}, nil
		}
		return nil, fmt.Errorf("resolve task for comments: %w", err)
	}

	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	if comments == nil {
		comments = []*domain.TaskComment{}
	}
	return comments, nil
}

func (s *QueryService) attachTaskCounts(ctx context.Context, p *domain.Project) error {
	total, err := s.tasks.CountByProject(ctx, p.ID, "")
	if err != nil {
		return fmt.Errorf("count tasks: %w", err)
	}
	completed, err := s.tasks.CountByProject(ctx, p.ID, domain.TaskStatusCompleted)
	if err != nil {
		return fmt.Errorf("count completed tasks: %w", err)
	}
	p.TaskCount = total
	p.CompletedTaskCount = completed
	p.CompletionRate = domain.CompletionRate(completed, total)
	return nil
}
