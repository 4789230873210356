// Package memory provides map-backed implementations of the domain
// repositories for tests that run without a database. It mirrors the
// Postgres behavior: scoped lookups filter by ownership chain, deletes
// cascade, project names are unique per organization, and writes
// validate first.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/projecthub/internal/domain"
)

// Store holds all four entity collections behind one mutex.
type Store struct {
	mu       sync.Mutex
	orgs     map[string]*domain.Organization
	projects map[string]*domain.Project
	tasks    map[string]*domain.Task
	comments map[string]*domain.TaskComment
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		orgs:     map[string]*domain.Organization{},
		projects: map[string]*domain.Project{},
		tasks:    map[string]*domain.Task{},
		comments: map[string]*domain.TaskComment{},
	}
}

// Organizations returns the organization repository view of the store.
func (s *Store) Organizations() domain.OrganizationRepository { return &orgRepo{s} }

// Projects returns the project repository view of the store.
func (s *Store) Projects() domain.ProjectRepository { return &projectRepo{s} }

// Tasks returns the task repository view of the store.
func (s *Store) Tasks() domain.TaskRepository { return &taskRepo{s} }

// Comments returns the comment repository view of the store.
func (s *Store) Comments() domain.CommentRepository { return &commentRepo{s} }

// MustAddOrganization is a fixture shortcut: it creates an organization and
// panics on failure.
func (s *Store) MustAddOrganization(name, slug string) *domain.Organization {
	org := &domain.Organization{Name: name, Slug: slug, ContactEmail: "admin@example.com"}
	if err := s.Organizations().Create(context.Background(), org); err != nil {
		panic(err)
	}
	return org
}

// ProjectCount returns the number of stored projects.
func (s *Store) ProjectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.projects)
}

// TaskCount returns the number of stored tasks.
func (s *Store) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// CommentCount returns the number of stored comments.
func (s *Store) CommentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments)
}

type orgRepo struct{ s *Store }

func (r *orgRepo) Create(_ context.Context, org *domain.Organization) error {
	if err := org.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.orgs {
		if existing.Slug == org.Slug {
			return &domain.ValidationError{Message: fmt.Sprintf("Organization with slug %q already exists", org.Slug)}
		}
	}
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	org.CreatedAt = time.Now()
	org.UpdatedAt = org.CreatedAt
	r.s.orgs[org.ID] = org
	return nil
}

func (r *orgRepo) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if org, ok := r.s.orgs[id]; ok {
		return org, nil
	}
	return nil, domain.ErrNotFound
}

func (r *orgRepo) GetBySlug(_ context.Context, slug string) (*domain.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, org := range r.s.orgs {
		if org.Slug == slug {
			return org, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *orgRepo) List(_ context.Context) ([]*domain.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Organization{}
	for _, org := range r.s.orgs {
		out = append(out, org)
	}
	return out, nil
}

type projectRepo struct{ s *Store }

func (r *projectRepo) Create(_ context.Context, p *domain.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.projects {
		if existing.OrganizationID == p.OrganizationID && existing.Name == p.Name {
			return &domain.ValidationError{Message: fmt.Sprintf("Project with name %q already exists in this organization", p.Name)}
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	r.s.projects[p.ID] = &stored
	return nil
}

func (r *projectRepo) GetByID(_ context.Context, id, organizationID string) (*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.projects[id]; ok && p.OrganizationID == organizationID {
		clone := *p
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *projectRepo) ListByOrganization(_ context.Context, organizationID string) ([]*domain.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Project{}
	for _, p := range r.s.projects {
		if p.OrganizationID == organizationID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *projectRepo) Update(_ context.Context, p *domain.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[p.ID]; !ok {
		return domain.ErrNotFound
	}
	for _, existing := range r.s.projects {
		if existing.ID != p.ID && existing.OrganizationID == p.OrganizationID && existing.Name == p.Name {
			return &domain.ValidationError{Message: fmt.Sprintf("Project with name %q already exists in this organization", p.Name)}
		}
	}
	p.UpdatedAt = time.Now()
	stored := *p
	r.s.projects[p.ID] = &stored
	return nil
}

func (r *projectRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.projects, id)
	for tid, t := range r.s.tasks {
		if t.ProjectID == id {
			delete(r.s.tasks, tid)
			for cid, c := range r.s.comments {
				if c.TaskID == tid {
					delete(r.s.comments, cid)
				}
			}
		}
	}
	return nil
}

func (r *projectRepo) CountByOrganization(_ context.Context, organizationID, status string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, p := range r.s.projects {
		if p.OrganizationID == organizationID && (status == "" || p.Status == status) {
			count++
		}
	}
	return count, nil
}

type taskRepo struct{ s *Store }

// orgOf resolves the ownership chain; caller holds the lock.
func (r *taskRepo) orgOf(t *domain.Task) string {
	if p, ok := r.s.projects[t.ProjectID]; ok {
		return p.OrganizationID
	}
	return ""
}

func (r *taskRepo) Create(_ context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	stored := *t
	r.s.tasks[t.ID] = &stored
	return nil
}

func (r *taskRepo) GetByID(_ context.Context, id, organizationID string) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tasks[id]; ok && r.orgOf(t) == organizationID {
		clone := *t
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *taskRepo) ListByOrganization(_ context.Context, organizationID, projectID string) ([]*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Task{}
	for _, t := range r.s.tasks {
		if r.orgOf(t) != organizationID {
			continue
		}
		if projectID != "" && t.ProjectID != projectID {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	return out, nil
}

func (r *taskRepo) Update(_ context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[t.ID]; !ok {
		return domain.ErrNotFound
	}
	t.UpdatedAt = time.Now()
	stored := *t
	r.s.tasks[t.ID] = &stored
	return nil
}

func (r *taskRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.tasks, id)
	for cid, c := range r.s.comments {
		if c.TaskID == id {
			delete(r.s.comments, cid)
		}
	}
	return nil
}

func (r *taskRepo) CountByProject(_ context.Context, projectID, status string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, t := range r.s.tasks {
		if t.ProjectID == projectID && (status == "" || t.Status == status) {
			count++
		}
	}
	return count, nil
}

func (r *taskRepo) CountByOrganization(_ context.Context, organizationID, status string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, t := range r.s.tasks {
		if r.orgOf(t) == organizationID && (status == "" || t.Status == status) {
			count++
		}
	}
	return count, nil
}

type commentRepo struct{ s *Store }

// orgOf resolves the full ownership chain; caller holds the lock.
func (r *commentRepo) orgOf(c *domain.TaskComment) string {
	if t, ok := r.s.tasks[c.TaskID]; ok {
		if p, ok := r.s.projects[t.ProjectID]; ok {
			return p.OrganizationID
		}
	}
	return ""
}

func (r *commentRepo) Create(_ context.Context, c *domain.TaskComment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Timestamp = time.Now()
	stored := *c
	r.s.comments[c.ID] = &stored
	return nil
}

func (r *commentRepo) GetByID(_ context.Context, id, organizationID string) (*domain.TaskComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.comments[id]; ok && r.orgOf(c) == organizationID {
		clone := *c
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *commentRepo) ListByTask(_ context.Context, taskID string) ([]*domain.TaskComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.TaskComment{}
	for _, c := range r.s.comments {
		if c.TaskID == taskID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *commentRepo) Update(_ context.Context, c *domain.TaskComment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[c.ID]; !ok {
		return domain.ErrNotFound
	}
	stored := *c
	r.s.comments[c.ID] = &stored
	return nil
}

func (r *commentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.comments, id)
	return nil
}
