package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/yourorg/projecthub/internal/domain"
)

// PostgresOrganizationRepository implements domain.OrganizationRepository
// using PostgreSQL.
type PostgresOrganizationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresOrganizationRepository creates a new organization repository.
func NewPostgresOrganizationRepository(db *sql.DB, logger *slog.Logger) *PostgresOrganizationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresOrganizationRepository{db: db, logger: logger}
}

// Create inserts a new organization.
func (r *PostgresOrganizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	if err := org.Validate(); err != nil {
		return err
	}
	if org.ID == "" {
		org.ID = uuid.NewString()
	}

	query := `
		INSERT INTO organizations (id, name, slug, contact_email)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, org.ID, org.Name, org.Slug, org.ContactEmail).Scan(
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ValidationError{Message: fmt.Sprintf("Organization with slug %q already exists", org.Slug)}
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// GetByID retrieves an organization by ID.
func (r *PostgresOrganizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `
		SELECT id, name, slug, contact_email, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetBySlug retrieves an organization by its slug. This is the one global,
// non-tenant-scoped lookup in the system.
func (r *PostgresOrganizationRepository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	query := `
		SELECT id, name, slug, contact_email, created_at, updated_at
		FROM organizations
		WHERE slug = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, slug))
}

// List returns all organizations ordered by name.
func (r *PostgresOrganizationRepository) List(ctx context.Context) ([]*domain.Organization, error) {
	query := `
		SELECT id, name, slug, contact_email, created_at, updated_at
		FROM organizations
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Organization
	for rows.Next() {
		org := &domain.Organization{}
		if err := rows.Scan(&org.ID, &org.Name, &org.Slug, &org.ContactEmail, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		out = append(out, org)
	}
	return out, rows.Err()
}

func (r *PostgresOrganizationRepository) scanOne(row *sql.Row) (*domain.Organization, error) {
	org := &domain.Organization{}
	err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.ContactEmail, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
