package domain

import (
	"context"
	"time"
)

// Organization is the tenant root. Every project, task, and comment in the
// system resolves to exactly one organization through its ownership chain.
type Organization struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"` // immutable business key, used for tenant resolution
	ContactEmail string    `json:"contactEmail"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Validate checks the organization's invariants before a write.
func (o *Organization) Validate() error {
	if o.Name == "" {
		return &ValidationError{Message: "Organization name is required"}
	}
	if !IsValidSlug(o.Slug) {
		return &ValidationError{Message: "Organization slug must be URL-safe (lowercase letters, digits, hyphens)"}
	}
	if !IsValidEmail(o.ContactEmail) {
		return &ValidationError{Message: "Enter a valid contact email address"}
	}
	return nil
}

// OrganizationRepository defines data access for organizations.
// Organizations are created administratively and never through
// tenant-scoped mutations, so there is no Delete.
type OrganizationRepository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	GetBySlug(ctx context.Context, slug string) (*Organization, error)
	List(ctx context.Context) ([]*Organization, error)
}
