package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/yourorg/projecthub/internal/domain"
)

// PostgresCommentRepository implements domain.CommentRepository using
// PostgreSQL. Scoped lookups join comment -> task -> project to resolve the
// full ownership chain.
type PostgresCommentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCommentRepository creates a new comment repository.
func NewPostgresCommentRepository(db *sql.DB, logger *slog.Logger) *PostgresCommentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresCommentRepository{db: db, logger: logger}
}

// Create inserts a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment *domain.TaskComment) error {
	if err := comment.Validate(); err != nil {
		return err
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	query := `
		INSERT INTO task_comments (id, task_id, content, author_email)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		comment.ID,
		comment.TaskID,
		comment.Content,
		comment.AuthorEmail,
	).Scan(&comment.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment only if its ownership chain resolves to the
// organization.
func (r *PostgresCommentRepository) GetByID(ctx context.Context, id, organizationID string) (*domain.TaskComment, error) {
	query := `
		SELECT c.id, c.task_id, c.content, c.author_email, c.created_at
		FROM task_comments c
		JOIN tasks t ON t.id = c.task_id
		JOIN projects p ON p.id = t.project_id
		WHERE c.id = $1 AND p.organization_id = $2
	`
	c := &domain.TaskComment{}
	err := r.db.QueryRowContext(ctx, query, id, organizationID).Scan(
		&c.ID, &c.TaskID, &c.Content, &c.AuthorEmail, &c.Timestamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// ListByTask returns a task's comments, newest first. Ownership of the task
// is the caller's responsibility.
func (r *PostgresCommentRepository) ListByTask(ctx context.Context, taskID string) ([]*domain.TaskComment, error) {
	query := `
		SELECT id, task_id, content, author_email, created_at
		FROM task_comments
		WHERE task_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var out []*domain.TaskComment
	for rows.Next() {
		c := &domain.TaskComment{}
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Content, &c.AuthorEmail, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update rewrites a comment's content. The creation timestamp is immutable.
func (r *PostgresCommentRepository) Update(ctx context.Context, comment *domain.TaskComment) error {
	if err := comment.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE task_comments SET content = $1 WHERE id = $2`, comment.Content, comment.ID)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
