package test

import (
	"io"
	"net/http"
	"testing"
)

type projectPayload struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	TaskCount      int     `json:"taskCount"`
	CompletionRate float64 `json:"completionRate"`
}

type taskPayload struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

type mutationEnvelope struct {
	Project *projectPayload `json:"project"`
	Task    *taskPayload    `json:"task"`
	Message string          `json:"message"`
	Success bool            `json:"success"`
	Errors  []string        `json:"errors"`
}

type errorBody struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// TestHealthEndpoint verifies the health check endpoint
func TestHealthEndpoint(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL() + "/healthz")
	if err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	defer resp.Body.Close()

	AssertStatusCode(t, resp, http.StatusOK)

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("Expected 'ok', got '%s'", string(body))
	}
}

// TestMutationQueryRoundTrip drives a project and task through the query
// endpoint and reads the derived fields back.
func TestMutationQueryRoundTrip(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()
	server.Store.MustAddOrganization("Test Org", "test-org")

	var created mutationEnvelope
	resp := server.Query(t, "test-org", "createProject", map[string]any{
		"organizationSlug": "test-org",
		"name":             "Test Project",
		"status":           "active",
	})
	AssertStatusCode(t, resp, http.StatusOK)
	AssertContentType(t, resp, "application/json")
	DecodeBody(t, resp, &created)
	if !created.Success || created.Project == nil {
		t.Fatalf("createProject failed: %+v", created)
	}

	var task mutationEnvelope
	resp = server.Query(t, "test-org", "createTask", map[string]any{
		"projectId": created.Project.ID,
		"title":     "Test Task",
		"dueDate":   "2024-06-30",
	})
	DecodeBody(t, resp, &task)
	if !task.Success || task.Task == nil {
		t.Fatalf("createTask failed: %+v", task)
	}
	if task.Task.Status != "todo" || task.Task.Priority != "medium" {
		t.Fatalf("expected defaults todo/medium, got %s/%s", task.Task.Status, task.Task.Priority)
	}

	var done mutationEnvelope
	resp = server.Query(t, "test-org", "updateTask", map[string]any{
		"id":     task.Task.ID,
		"status": "completed",
	})
	DecodeBody(t, resp, &done)
	if !done.Success || done.Task.Status != "completed" {
		t.Fatalf("updateTask failed: %+v", done)
	}

	var projects struct {
		Data []projectPayload `json:"data"`
	}
	resp = server.Query(t, "test-org", "projects", nil)
	DecodeBody(t, resp, &projects)
	if len(projects.Data) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects.Data))
	}
	if projects.Data[0].TaskCount != 1 || projects.Data[0].CompletionRate != 100 {
		t.Fatalf("derived fields wrong: %+v", projects.Data[0])
	}

	var stats struct {
		Data struct {
			TotalProjects         int     `json:"totalProjects"`
			CompletedTasks        int     `json:"completedTasks"`
			OverallCompletionRate float64 `json:"overallCompletionRate"`
		} `json:"data"`
	}
	resp = server.Query(t, "test-org", "projectStats", nil)
	DecodeBody(t, resp, &stats)
	if stats.Data.TotalProjects != 1 || stats.Data.CompletedTasks != 1 || stats.Data.OverallCompletionRate != 100 {
		t.Fatalf("unexpected stats: %+v", stats.Data)
	}
}

// TestTenantHeaderScopesResults verifies the header boundary end to end:
// each organization only ever sees its own projects.
func TestTenantHeaderScopesResults(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()
	server.Store.MustAddOrganization("Org One", "org-one")
	server.Store.MustAddOrganization("Org Two", "org-two")

	var created mutationEnvelope
	resp := server.Query(t, "org-one", "createProject", map[string]any{
		"organizationSlug": "org-one",
		"name":             "Private",
	})
	DecodeBody(t, resp, &created)
	if !created.Success {
		t.Fatalf("createProject failed: %+v", created)
	}

	var other struct {
		Data []projectPayload `json:"data"`
	}
	resp = server.Query(t, "org-two", "projects", nil)
	DecodeBody(t, resp, &other)
	if len(other.Data) != 0 {
		t.Fatalf("org-two must not see org-one projects, got %d", len(other.Data))
	}

	// No header at all: empty result, not an error.
	var none struct {
		Data []projectPayload `json:"data"`
	}
	resp = server.Query(t, "", "projects", nil)
	AssertStatusCode(t, resp, http.StatusOK)
	DecodeBody(t, resp, &none)
	if len(none.Data) != 0 {
		t.Fatalf("headerless request must see no projects, got %d", len(none.Data))
	}
}

// TestUnknownSlugReturns404 verifies the middleware rejects unknown
// organization slugs on the query endpoint before any resolver runs.
func TestUnknownSlugReturns404(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()
	server.Store.MustAddOrganization("Org", "known")

	resp := server.Query(t, "ghost", "projects", nil)
	AssertStatusCode(t, resp, http.StatusNotFound)

	var body errorBody
	DecodeBody(t, resp, &body)
	if len(body.Errors) != 1 || body.Errors[0].Message != `Organization "ghost" not found` {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

// TestUnknownOperationReturns400 verifies dispatch failures surface as
// structured errors.
func TestUnknownOperationReturns400(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp := server.Query(t, "", "teleport", nil)
	AssertStatusCode(t, resp, http.StatusBadRequest)

	var body errorBody
	DecodeBody(t, resp, &body)
	if len(body.Errors) != 1 || body.Errors[0].Message != `unknown operation "teleport"` {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

// TestBadDateReturns400 verifies wire date validation.
func TestBadDateReturns400(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()
	server.Store.MustAddOrganization("Org", "org")

	resp := server.Query(t, "org", "createProject", map[string]any{
		"organizationSlug": "org",
		"name":             "P",
		"dueDate":          "30/06/2024",
	})
	AssertStatusCode(t, resp, http.StatusBadRequest)

	var body errorBody
	DecodeBody(t, resp, &body)
	if len(body.Errors) != 1 || body.Errors[0].Message != `invalid date "30/06/2024", expected YYYY-MM-DD` {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

// TestDeleteConfirmationMessages verifies delete mutations name the entity
// they removed.
func TestDeleteConfirmationMessages(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()
	server.Store.MustAddOrganization("Org", "org")

	var created mutationEnvelope
	resp := server.Query(t, "org", "createProject", map[string]any{
		"organizationSlug": "org",
		"name":             "Doomed",
	})
	DecodeBody(t, resp, &created)

	var deleted mutationEnvelope
	resp = server.Query(t, "org", "deleteProject", map[string]any{"id": created.Project.ID})
	DecodeBody(t, resp, &deleted)
	if !deleted.Success || deleted.Message != `Project "Doomed" deleted successfully` {
		t.Fatalf("unexpected delete result: %+v", deleted)
	}

	// Deleting it again fails inside the envelope, not at the HTTP layer.
	var again mutationEnvelope
	resp = server.Query(t, "org", "deleteProject", map[string]any{"id": created.Project.ID})
	AssertStatusCode(t, resp, http.StatusOK)
	DecodeBody(t, resp, &again)
	if again.Success || len(again.Errors) != 1 || again.Errors[0] != "Project not found" {
		t.Fatalf("unexpected repeat delete result: %+v", again)
	}
}

// TestMethodNotAllowed verifies only POST reaches the dispatcher.
func TestMethodNotAllowed(t *testing.T) {
	server := NewTestServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL() + "/api/query")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	AssertStatusCode(t, resp, http.StatusMethodNotAllowed)
}
