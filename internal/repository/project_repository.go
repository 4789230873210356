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

// PostgresProjectRepository implements domain.ProjectRepository using
// PostgreSQL. Scoped lookups filter by organization_id inside the query so
// a wrong-tenant row never leaves the database.
type PostgresProjectRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresProjectRepository creates a new project repository.
func NewPostgresProjectRepository(db *sql.DB, logger *slog.Logger) *PostgresProjectRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProjectRepository{db: db, logger: logger}
}

// Create inserts a new project.
func (r *PostgresProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}

	query := `
		INSERT INTO projects (id, organization_id, name, description, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		project.ID,
		project.OrganizationID,
		project.Name,
		project.Description,
		project.Status,
		project.DueDate,
	).Scan(&project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ValidationError{Message: fmt.Sprintf("Project with name %q already exists in this organization", project.Name)}
		}
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByID retrieves a project only if it belongs to the organization.
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id, organizationID string) (*domain.Project, error) {
	query := `
		SELECT id, organization_id, name, description, status, due_date, created_at, updated_at
		FROM projects
		WHERE id = $1 AND organization_id = $2
	`
	p := &domain.Project{}
	err := r.db.QueryRowContext(ctx, query, id, organizationID).Scan(
		&p.ID, &p.OrganizationID, &p.Name, &p.Description, &p.Status, &p.DueDate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListByOrganization returns the organization's projects, newest first.
func (r *PostgresProjectRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Project, error) {
	query := `
		SELECT id, organization_id, name, description, status, due_date, created_at, updated_at
		FROM projects
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []*domain.Project
	for rows.Next() {
		p := &domain.Project{}
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Description, &p.Status, &p.DueDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update writes the full project row in one statement. Callers validate the
// patched entity first, so a failed validation never reaches the database.
func (r *PostgresProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	if err := project.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE projects
		SET name = $1, description = $2, status = $3, due_date = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		project.Name,
		project.Description,
		project.Status,
		project.DueDate,
		project.ID,
	).Scan(&project.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return &domain.ValidationError{Message: fmt.Sprintf("Project with name %q already exists in this organization", project.Name)}
		}
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// Delete removes a project. Tasks and their comments go with it via the
// foreign-key cascade.
func (r *PostgresProjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
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

// CountByOrganization counts the organization's projects, optionally
// restricted to one status.
func (r *PostgresProjectRepository) CountByOrganization(ctx context.Context, organizationID, status string) (int, error) {
	var (
		count int
		err   error
	)
	if status == "" {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM projects WHERE organization_id = $1`, organizationID).Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM projects WHERE organization_id = $1 AND status = $2`, organizationID, status).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}
