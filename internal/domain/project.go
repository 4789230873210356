package domain

import (
	"context"
	"time"
)

// Project statuses. Any value may be set from any other; validity is
// membership only, there is no transition graph.
const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCancelled = "cancelled"
)

// ProjectStatuses lists the accepted project status values.
var ProjectStatuses = []string{
	ProjectStatusPlanning,
	ProjectStatusActive,
	ProjectStatusCompleted,
	ProjectStatusOnHold,
	ProjectStatusCancelled,
}

// Project belongs to exactly one organization. Project names are unique
// within their organization. Deleting a project cascades to its tasks.
type Project struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`

	// Derived, not stored. Populated by the query layer.
	TaskCount          int     `json:"taskCount"`
	CompletedTaskCount int     `json:"completedTaskCount"`
	CompletionRate     float64 `json:"completionRate"`
}

// Validate checks the project's invariants before a write. Name uniqueness
// within the organization is enforced by the datastore.
func (p *Project) Validate() error {
	if p.Name == "" {
		return &ValidationError{Message: "Project name is required"}
	}
	if p.OrganizationID == "" {
		return &ValidationError{Message: "Project must belong to an organization"}
	}
	if !IsValidChoice(p.Status, ProjectStatuses) {
		return &ValidationError{Message: "Value \"" + p.Status + "\" is not a valid project status"}
	}
	return nil
}

// ProjectPatch is a partial update: only non-nil fields overwrite the
// stored values, nil fields are left untouched.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *string
	DueDate     *time.Time
}

// Apply copies the present fields of the patch onto the project.
func (patch ProjectPatch) Apply(p *Project) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.DueDate != nil {
		p.DueDate = patch.DueDate
	}
}

// ProjectRepository defines data access for projects. Scoped lookups take
// the organization ID and must not return rows owned by other tenants.
type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	GetByID(ctx context.Context, id, organizationID string) (*Project, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*Project, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id string) error
	// CountByOrganization counts projects for an organization, optionally
	// restricted to a status ("" counts all).
	CountByOrganization(ctx context.Context, organizationID, status string) (int, error)
}

// CompletionRate returns completed/total as a percentage, 0 when total is 0.
func CompletionRate(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}
