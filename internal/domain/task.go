package domain

import (
	"context"
	"time"
)

// Task statuses.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusBlocked    = "blocked"
)

// TaskStatuses lists the accepted task status values.
var TaskStatuses = []string{
	TaskStatusTodo,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusBlocked,
}

// Task priorities.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// TaskPriorities lists the accepted task priority values.
var TaskPriorities = []string{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
	TaskPriorityUrgent,
}

// Task belongs to exactly one project. Deleting a task cascades to its
// comments.
type Task struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"projectId"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	AssigneeEmail string     `json:"assigneeEmail,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Validate checks the task's invariants before a write.
func (t *Task) Validate() error {
	if t.Title == "" {
		return &ValidationError{Message: "Task title is required"}
	}
	if t.ProjectID == "" {
		return &ValidationError{Message: "Task must belong to a project"}
	}
	if !IsValidChoice(t.Status, TaskStatuses) {
		return &ValidationError{Message: "Value \"" + t.Status + "\" is not a valid task status"}
	}
	if !IsValidChoice(t.Priority, TaskPriorities) {
		return &ValidationError{Message: "Value \"" + t.Priority + "\" is not a valid task priority"}
	}
	if t.AssigneeEmail != "" && !IsValidEmail(t.AssigneeEmail) {
		return &ValidationError{Message: "Enter a valid assignee email address"}
	}
	return nil
}

// TaskPatch is a partial update over a task.
type TaskPatch struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *string
	AssigneeEmail *string
	DueDate       *time.Time
}

// Apply copies the present fields of the patch onto the task.
func (patch TaskPatch) Apply(t *Task) {
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.AssigneeEmail != nil {
		t.AssigneeEmail = *patch.AssigneeEmail
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
}

// TaskRepository defines data access for tasks. Scoped lookups resolve the
// ownership chain (task -> project -> organization) inside the query so a
// wrong-tenant row is indistinguishable from a missing one.
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id, organizationID string) (*Task, error)
	// ListByOrganization returns tasks under the organization, optionally
	// restricted to one project ("" lists all).
	ListByOrganization(ctx context.Context, organizationID, projectID string) ([]*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error
	CountByProject(ctx context.Context, projectID, status string) (int, error)
	CountByOrganization(ctx context.Context, organizationID, status string) (int, error)
}
