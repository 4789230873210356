package domain

import (
	"context"
	"time"
)

// TaskComment belongs to exactly one task. The timestamp is set on creation
// and never updated.
type TaskComment struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"taskId"`
	Content     string    `json:"content"`
	AuthorEmail string    `json:"authorEmail"`
	Timestamp   time.Time `json:"timestamp"`
}

// Validate checks the comment's invariants before a write.
func (c *TaskComment) Validate() error {
	if c.Content == "" {
		return &ValidationError{Message: "Comment content is required"}
	}
	if c.TaskID == "" {
		return &ValidationError{Message: "Comment must belong to a task"}
	}
	if !IsValidEmail(c.AuthorEmail) {
		return &ValidationError{Message: "Enter a valid author email address"}
	}
	return nil
}

// CommentRepository defines data access for task comments. Scoped lookups
// resolve comment -> task -> project -> organization.
type CommentRepository interface {
	Create(ctx context.Context, comment *TaskComment) error
	GetByID(ctx context.Context, id, organizationID string) (*TaskComment, error)
	ListByTask(ctx context.Context, taskID string) ([]*TaskComment, error)
	Update(ctx context.Context, comment *TaskComment) error
	Delete(ctx context.Context, id string) error
}
