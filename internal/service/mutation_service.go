package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/projecthub/internal/domain"
	"github.com/yourorg/projecthub/internal/tenant"
)

// Error messages shared across mutations.
const (
	errContextRequired = "Organization context required"
	errProjectNotFound = "Project not found"
	errTaskNotFound    = "Task not found"
	errCommentNotFound = "Comment not found"
)

// ProjectResult is the uniform envelope for project mutations.
type ProjectResult struct {
	Project *domain.Project `json:"project,omitempty"`
	Success bool            `json:"success"`
	Errors  []string        `json:"errors"`
}

// TaskResult is the uniform envelope for task mutations.
type TaskResult struct {
	Task    *domain.Task `json:"task,omitempty"`
	Success bool         `json:"success"`
	Errors  []string     `json:"errors"`
}

// CommentResult is the uniform envelope for comment mutations.
type CommentResult struct {
	Comment *domain.TaskComment `json:"comment,omitempty"`
	Success bool                `json:"success"`
	Errors  []string            `json:"errors"`
}

// DeleteResult is the envelope for delete mutations. The payload is a
// human-readable confirmation naming the deleted entity.
type DeleteResult struct {
	Message string   `json:"message,omitempty"`
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// MutationService executes validated writes. Every mutation except
// CreateProject requires a resolved tenant context and re-verifies the
// target's ownership chain before touching it. Nothing here is fatal: all
// failures come back inside the envelope.
type MutationService struct {
	orgs     domain.OrganizationRepository
	projects domain.ProjectRepository
	tasks    domain.TaskRepository
	comments domain.CommentRepository
	stats    *StatsService
	logger   *slog.Logger
}

// NewMutationService creates a new mutation service.
func NewMutationService(
	orgs domain.OrganizationRepository,
	projects domain.ProjectRepository,
	tasks domain.TaskRepository,
	comments domain.CommentRepository,
	stats *StatsService,
	logger *slog.Logger,
) *MutationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MutationService{
		orgs:     orgs,
		projects: projects,
		tasks:    tasks,
		comments: comments,
		stats:    stats,
		logger:   logger,
	}
}

// CreateProject creates a project under the organization named by slug.
// Unlike every other mutation it takes no ambient context: project creation
// may originate from an entry point that carries none, so the slug is an
// explicit argument resolved directly.
func (s *MutationService) CreateProject(ctx context.Context, input domain.Project, organizationSlug string) *ProjectResult {
	org, err := s.orgs.GetBySlug(ctx, organizationSlug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &ProjectResult{
				Errors: []string{fmt.Sprintf("Organization with slug %q not found", organizationSlug)},
			}
		}
		return &ProjectResult{Errors: []string{err.Error()}}
	}

	project := &domain.Project{
		OrganizationID: org.ID,
		Name:           input.Name,
		Description:    input.Description,
		Status:         input.Status,
		DueDate:        input.DueDate,
	}
	if project.Status == "" {
		project.Status = domain.ProjectStatusPlanning
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return &ProjectResult{Errors: []string{err.Error()}}
	}

	s.logger.Info("project created",
		slog.String("project_id", project.ID),
		slog.String("organization_id", org.ID),
	)
	s.stats.Invalidate(ctx, org.ID)
	s.attachTaskCounts(ctx, project)
	return &ProjectResult{Project: project, Success: true, Errors: []string{}}
}

// UpdateProject applies a partial update to a project owned by the context
// organization. Omitted fields are untouched; a validation failure leaves
// the stored row unchanged.
func (s *MutationService) UpdateProject(ctx context.Context, tc tenant.Context, id string, patch domain.ProjectPatch) *ProjectResult {
	if !tc.Resolved() {
		return &ProjectResult{Errors: []string{errContextRequired}}
	}

	project, err := s.projects.GetByID(ctx, id, tc.OrganizationID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &ProjectResult{Errors: []string{errProjectNotFound}}
		}
		return &ProjectResult{Errors: []string{err.Error()}}
	}

	patch.Apply(project)
	if err := s.projects.Update(ctx, project); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &ProjectResult{Errors: []string{errProjectNotFound}}
		}
		return &ProjectResult{Errors: []string{err.Error()}}
	}

	s.stats.Invalidate(ctx, tc.OrganizationID())
	s.attachTaskCounts(ctx, project)
	return &ProjectResult{Project: project, Success: true, Errors: []string{}}
}

// attachTaskCounts populates the derived fields so envelope projects carry
// the same shape as query results. The write has already succeeded when this
// runs, so a counting failure degrades to zero values instead of failing the
// mutation.
func (s *MutationService) attachTaskCounts(ctx context.Context, p *domain.Project) {
	total, err := s.tasks.CountByProject(ctx, p.ID, "")
	if err != nil {
		s.logger.Warn("failed to count tasks for mutation payload",
			slog.String("project_id", p.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	completed, err := s.tasks.CountByProject(ctx, p.ID, domain.TaskStatusCompleted)
	if err != nil {
		s.logger.Warn("failed to count tasks for mutation payload",
			slog.String("project_id", p.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	p.TaskCount = total
	p.CompletedTaskCount = completed
	p.CompletionRate = domain.CompletionRate(completed, total)
}

// DeleteProject deletes a project and, by cascade, its tasks and comments.
func (s *MutationService) DeleteProject(ctx context.Context, tc tenant.Context, id string) *DeleteResult {
	if !tc.Resolved() {
		return &DeleteResult{Errors: []string{errContextRequired}}
	}

	project, err := s.projects.GetByID(ctx, id, tc.OrganizationID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &DeleteResult{Errors: []string{errProjectNotFound}}
		}
		return &DeleteResult{Errors: []string{err.Error()}}
	}

	if err := s.projects.Delete(ctx, project.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &DeleteResult{Errors: []string{errProjectNotFound}}
		}
		return &DeleteResult{Errors: []string{fmt.Sprintf("Error deleting project: %s", err)}}
	}

	s.logger.Info("project deleted",
		slog.String("project_id", project.ID),
		slog.String("organization_id", tc.OrganizationID()),
	)
	s.stats.Invalidate(ctx, tc.OrganizationID())
	return &DeleteResult{
		Message: fmt.Sprintf("Project %q deleted successfully", project.Name),
		Success: true,
		Errors:  []string{},
	}
}

// CreateTask creates a task under a project owned by the context
// organization.
func (s *MutationService) CreateTask(ctx context.Context, tc tenant.Context, projectID string, input domain.Task) *TaskResult {
	if !tc.Resolved() {
		return &TaskResult{Errors: []string{errContextRequired}}
	}

	project, err := s.projects.GetByID(ctx, projectID, tc.OrganizationID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &TaskResult{Errors: []string{errProjectNotFound}}
		}
		return &TaskResult{Errors: []string{err.Error()}}
	}

	task := &domain.Task{
		ProjectID:     project.ID,
		Title:         input.Title,
		Description:   input.Description,
		Status:        input.Status,
		Priority:      input.Priority,
		AssigneeEmail: input.AssigneeEmail,
		DueDate:       input.DueDate,
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = domain.TaskPriorityMedium
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return &TaskResult{Errors: []string{err.Error()}}
	}

	s.stats.Invalidate(ctx, tc.OrganizationID())
	return &TaskResult{Task: task, Success: true, Errors: []string{}}
}

// UpdateTask applies a partial update to a task whose ownership chain
// resolves to the context organization.
func (s *MutationService) UpdateTask(ctx context.Context, tc tenant.Context, id string, patch domain.TaskPatch) *TaskResult {
	if !tc.Resolved() {
		return &TaskResult{Errors: []string{errContextRequired}}
	}

	task, err := s.tasks.GetByID(ctx, id, tc.OrganizationID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &TaskResult{Errors: []string{errTaskNotFound}}
		}
		return &TaskResult{Errors: []string{err.Error()}}
	}

	patch.Apply(task)
	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &TaskResult{Errors: []string{errTaskNotFound}}
		}
		return &TaskResult{Errors: []string{err.Error()}}
	}

	s.stats.Invalidate(ctx, tc.OrganizationID())
	return &TaskResult{Task: task, Success: true, Errors: []string{}}
}

// DeleteTask deletes a task and, by cascade, its comments.
func (s *MutationService) DeleteTask(ctx context.Context, tc tenant.Context, id string) *DeleteResult {
	if !tc.Resolved() {
		return &DeleteResult{Errors: []string{errContextRequired}}
	}

	task, err := s.tasks.GetByID(ctx, id, tc.OrganizationID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &DeleteResult{Errors: []string{errTaskNotFound}}
		}
		return &DeleteResult{Errors: []string{err.Error()}}
	}

	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &DeleteResult{Errors: []string{errTaskNotFound}}
		}
		return &DeleteResult{Errors: []string{fmt.Sprintf("Error deleting task: %s", err)}}
	}

	s.stats.Invalidate(ctx, tc.OrganizationID())
	return &DeleteResult{
		Message: fmt.Sprintf("Task %q deleted successfully", task.Title),
		Success: true,
		Errors:  []string{},
	}
}

// AddTaskComment adds a comment to a task whose ownership chain resolves to
// the context organization.
func (s *MutationService) AddTaskComment(ctx context.Context, tc tenant.Context, taskID, content, authorEmail string) *CommentResult {
	if !tc.Resolved() {
		return &CommentResult{Errors: []string{errContextRequired}}
	}

	task, err := s.tasks.GetByID(ctx, taskID, tc.OrganizationID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &CommentResult{Errors: []string{errTaskNotFound}}
		}
		return &CommentResult{Errors: []string{err.Error()}}
	}

	comment := &domain.TaskComment{
		TaskID:      task.ID,
		Content:     content,
		AuthorEmail: authorEmail,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return &CommentResult{Errors: []string{err.Error()}}
	}

	return &CommentResult{Comment: comment, Success: true, Errors: []string{}}
}

// UpdateComment rewrites a comment's content.
func (s *MutationService) UpdateComment(ctx context.Context, tc tenant.Context, id, content string) *CommentResult {
	if !tc.Resolved() {
		return &CommentResult{Errors: []string{errContextRequired}}
	}

	comment, err := s.comments.GetByID(ctx, id, tc.OrganizationID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &CommentResult{Errors: []string{errCommentNotFound}}
		}
		return &CommentResult{Errors: []string{err.Error()}}
	}

	comment.Content = content
	if err := s.comments.Update(ctx, comment); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &CommentResult{Errors: []string{errCommentNotFound}}
		}
		return &CommentResult{Errors: []string{err.Error()}}
	}

	return &CommentResult{Comment: comment, Success: true, Errors: []string{}}
}

// DeleteComment deletes a comment. The confirmation quotes the content,
// truncated to 50 characters.
func (s *MutationService) DeleteComment(ctx context.Context, tc tenant.Context, id string) *DeleteResult {
	if !tc.Resolved() {
		return &DeleteResult{Errors: []string{errContextRequired}}
	}

	comment, err := s.comments.GetByID(ctx, id, tc.OrganizationID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &DeleteResult{Errors: []string{errCommentNotFound}}
		}
		return &DeleteResult{Errors: []string{err.Error()}}
	}

	if err := s.comments.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &DeleteResult{Errors: []string{errCommentNotFound}}
		}
		return &DeleteResult{Errors: []string{fmt.Sprintf("Error deleting comment: %s", err)}}
	}

	return &DeleteResult{
		Message: fmt.Sprintf("Comment %q deleted successfully", truncate(comment.Content, 50)),
		Success: true,
		Errors:  []string{},
	}
}

// truncate shortens s to max characters, appending an ellipsis marker when
// anything was cut. Counts runes, not bytes, so multi-byte content is never
// split mid-character.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
