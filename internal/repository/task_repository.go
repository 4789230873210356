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

// PostgresTaskRepository implements domain.TaskRepository using PostgreSQL.
// Scoped lookups join through projects to resolve the ownership chain in a
// single query.
type PostgresTaskRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTaskRepository creates a new task repository.
func NewPostgresTaskRepository(db *sql.DB, logger *slog.Logger) *PostgresTaskRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskRepository{db: db, logger: logger}
}

// Create inserts a new task.
func (r *PostgresTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	query := `
		INSERT INTO tasks (id, project_id, title, description, status, priority, assignee_email, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		task.ID,
		task.ProjectID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		nullable(task.AssigneeEmail),
		task.DueDate,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID retrieves a task only if its project belongs to the organization.
func (r *PostgresTaskRepository) GetByID(ctx context.Context, id, organizationID string) (*domain.Task, error) {
	query := `
		SELECT t.id, t.project_id, t.title, t.description, t.status, t.priority,
		       COALESCE(t.assignee_email, ''), t.due_date, t.created_at, t.updated_at
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE t.id = $1 AND p.organization_id = $2
	`
	t := &domain.Task{}
	err := r.db.QueryRowContext(ctx, query, id, organizationID).Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.AssigneeEmail, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListByOrganization returns tasks whose project belongs to the
// organization, newest first, optionally restricted to one project.
func (r *PostgresTaskRepository) ListByOrganization(ctx context.Context, organizationID, projectID string) ([]*domain.Task, error) {
	query := `
		SELECT t.id, t.project_id, t.title, t.description, t.status, t.priority,
		       COALESCE(t.assignee_email, ''), t.due_date, t.created_at, t.updated_at
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE p.organization_id = $1
	`
	args := []any{organizationID}
	if projectID != "" {
		query += ` AND t.project_id = $2`
		args = append(args, projectID)
	}
	query += ` ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var out []*domain.Task
	for rows.Next() {
		t := &domain.Task{}
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&t.AssigneeEmail, &t.DueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update writes the full task row in one statement.
func (r *PostgresTaskRepository) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, priority = $4,
		    assignee_email = $5, due_date = $6, updated_at = now()
		WHERE id = $7
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		nullable(task.AssigneeEmail),
		task.DueDate,
		task.ID,
	).Scan(&task.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// Delete removes a task and, via cascade, its comments.
func (r *PostgresTaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
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

// CountByProject counts a project's tasks, optionally by status.
func (r *PostgresTaskRepository) CountByProject(ctx context.Context, projectID, status string) (int, error) {
	var (
		count int
		err   error
	)
	if status == "" {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM tasks WHERE project_id = $1`, projectID).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM tasks WHERE project_id = $1 AND status = $2`, projectID, status).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// CountByOrganization counts tasks across all of the organization's
// projects, optionally by status.
func (r *PostgresTaskRepository) CountByOrganization(ctx context.Context, organizationID, status string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE p.organization_id = $1
	`
	args := []any{organizationID}
	if status != "" {
		query += ` AND t.status = $2`
		args = append(args, status)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// nullable maps "" to NULL for optional text columns.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
