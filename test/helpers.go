package test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourorg/projecthub/internal/handler"
	"github.com/yourorg/projecthub/internal/infrastructure/logger"
	"github.com/yourorg/projecthub/internal/repository/memory"
	"github.com/yourorg/projecthub/internal/service"
	"github.com/yourorg/projecthub/internal/tenant"
)

// TestServerHelper runs the query endpoint against in-memory repositories,
// with the tenant middleware in front, so the full request path can be
// exercised without Postgres or Redis.
type TestServerHelper struct {
	Server *httptest.Server
	Store  *memory.Store
	Logger *slog.Logger
}

func NewTestServer(t *testing.T) *TestServerHelper {
	log := logger.NewLogger("error")
	store := memory.NewStore()

	orgs := store.Organizations()
	projects := store.Projects()
	tasks := store.Tasks()
	comments := store.Comments()

	stats := service.NewStatsService(projects, tasks, nil, 0, log)
	queries := service.NewQueryService(orgs, projects, tasks, comments, log)
	mutations := service.NewMutationService(orgs, projects, tasks, comments, stats, log)

	queryHandler := handler.NewQueryHandler(queries, stats, mutations, log)
	resolver := tenant.NewResolver(orgs, 0, log)

	mux := http.NewServeMux()
	mux.Handle("/api/query", queryHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	server := httptest.NewServer(resolver.Middleware(mux))

	return &TestServerHelper{
		Server: server,
		Store:  store,
		Logger: log,
	}
}

func (h *TestServerHelper) Close() {
	h.Server.Close()
}

func (h *TestServerHelper) URL() string {
	return h.Server.URL
}

// Query posts an operation to /api/query. An empty slug sends no tenant
// header.
func (h *TestServerHelper) Query(t *testing.T, slug, operation string, arguments any) *http.Response {
	t.Helper()

	body := map[string]any{"operation": operation}
	if arguments != nil {
		body["arguments"] = arguments
	}
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, h.URL()+"/api/query", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if slug != "" {
		req.Header.Set(tenant.SlugHeader, slug)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("query request failed: %v", err)
	}
	return resp
}

// DecodeBody decodes the response body into the given value and closes it.
func DecodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

// AssertStatusCode helper function
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType helper function
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	if ct := resp.Header.Get("Content-Type"); ct != expected {
		t.Errorf("Expected Content-Type %s, got %s", expected, ct)
	}
}
