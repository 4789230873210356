package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/projecthub/internal/domain"
)

type stubOrgRepo struct {
	bySlug map[string]*domain.Organization
	calls  int
}

func (r *stubOrgRepo) Create(context.Context, *domain.Organization) error { return nil }
func (r *stubOrgRepo) GetByID(context.Context, string) (*domain.Organization, error) {
	return nil, domain.ErrNotFound
}
func (r *stubOrgRepo) List(context.Context) ([]*domain.Organization, error) { return nil, nil }

func (r *stubOrgRepo) GetBySlug(_ context.Context, slug string) (*domain.Organization, error) {
	r.calls++
	if org, ok := r.bySlug[slug]; ok {
		return org, nil
	}
	return nil, domain.ErrNotFound
}

func newStubRepo() *stubOrgRepo {
	return &stubOrgRepo{bySlug: map[string]*domain.Organization{
		"acme": {ID: "org-1", Name: "Acme", Slug: "acme"},
		"beta": {ID: "org-2", Name: "Beta", Slug: "beta"},
	}}
}

func captureContext(t *testing.T, rs *Resolver, target string, header string) Context {
	t.Helper()
	var got Context
	h := rs.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, target, nil)
	if header != "" {
		req.Header.Set(SlugHeader, header)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestResolveFromHeader(t *testing.T) {
	rs := NewResolver(newStubRepo(), 0, nil)
	tc := captureContext(t, rs, "/anything", "acme")
	if !tc.Resolved() || tc.Organization.ID != "org-1" {
		t.Fatalf("expected acme resolved, got %+v", tc)
	}
}

func TestResolveFromQueryParam(t *testing.T) {
	rs := NewResolver(newStubRepo(), 0, nil)
	tc := captureContext(t, rs, "/anything?organization_slug=beta", "")
	if !tc.Resolved() || tc.Organization.ID != "org-2" {
		t.Fatalf("expected beta resolved, got %+v", tc)
	}
}

func TestHeaderTakesPrecedenceOverQueryParam(t *testing.T) {
	rs := NewResolver(newStubRepo(), 0, nil)
	tc := captureContext(t, rs, "/anything?organization_slug=beta", "acme")
	if !tc.Resolved() || tc.Organization.Slug != "acme" {
		t.Fatalf("header should win, got %+v", tc)
	}
}

func TestNoSlugYieldsAbsentContext(t *testing.T) {
	rs := NewResolver(newStubRepo(), 0, nil)
	tc := captureContext(t, rs, "/anything", "")
	if tc.Resolved() || tc.Reason != ReasonNoSlug {
		t.Fatalf("expected no-slug-given absence, got %+v", tc)
	}
}

func TestUnknownSlugOffQueryPathDefersToResolvers(t *testing.T) {
	rs := NewResolver(newStubRepo(), 0, nil)
	tc := captureContext(t, rs, "/healthz", "ghost")
	if tc.Resolved() || tc.Reason != ReasonSlugNotFound {
		t.Fatalf("expected slug-not-found absence, got %+v", tc)
	}
}

func TestUnknownSlugOnQueryPathReturns404(t *testing.T) {
	rs := NewResolver(newStubRepo(), 0, nil)
	called := false
	h := rs.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/query", nil)
	req.Header.Set(SlugHeader, "ghost")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if called {
		t.Fatalf("handler must not run for unknown slug on query endpoint")
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var body struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if len(body.Errors) != 1 || body.Errors[0].Message != `Organization "ghost" not found` {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

type failingOrgRepo struct{}

func (failingOrgRepo) Create(context.Context, *domain.Organization) error { return nil }
func (failingOrgRepo) GetByID(context.Context, string) (*domain.Organization, error) {
	return nil, domain.ErrNotFound
}
func (failingOrgRepo) List(context.Context) ([]*domain.Organization, error) { return nil, nil }
func (failingOrgRepo) GetBySlug(context.Context, string) (*domain.Organization, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func TestLookupFailureOnQueryPathReturns500(t *testing.T) {
	rs := NewResolver(failingOrgRepo{}, 0, nil)
	called := false
	h := rs.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/query", nil)
	req.Header.Set(SlugHeader, "acme")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if called {
		t.Fatalf("handler must not run when resolution fails")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var body struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if len(body.Errors) != 1 || body.Errors[0].Message == `Organization "acme" not found` {
		t.Fatalf("lookup failure must not masquerade as not-found: %+v", body)
	}
}

func TestLookupFailureOffQueryPathDefersToResolvers(t *testing.T) {
	rs := NewResolver(failingOrgRepo{}, 0, nil)
	tc := captureContext(t, rs, "/healthz", "acme")
	if tc.Resolved() || tc.Reason != ReasonResolutionFailed {
		t.Fatalf("expected resolution-failed absence, got %+v", tc)
	}
}

func TestResolutionCache(t *testing.T) {
	repo := newStubRepo()
	rs := NewResolver(repo, time.Minute, nil)

	for i := 0; i < 3; i++ {
		tc := captureContext(t, rs, "/anything", "acme")
		if !tc.Resolved() {
			t.Fatalf("resolution %d failed", i)
		}
	}
	if repo.calls != 1 {
		t.Fatalf("expected 1 repository lookup with warm cache, got %d", repo.calls)
	}
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	tc := FromContext(context.Background())
	if tc.Resolved() || tc.Reason != ReasonNoSlug {
		t.Fatalf("bare context should be absent, got %+v", tc)
	}
}
