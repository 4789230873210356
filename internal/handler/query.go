package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/projecthub/internal/domain"
	"github.com/yourorg/projecthub/internal/observability/metrics"
	"github.com/yourorg/projecthub/internal/service"
	"github.com/yourorg/projecthub/internal/tenant"
)

// QueryRequest is the body of POST /api/query: one operation name plus its
// arguments. All query and mutation traffic flows through this single
// endpoint.
type QueryRequest struct {
	Operation string          `json:"operation"`
	Arguments json.RawMessage `json:"arguments"`
}

// QueryHandler dispatches structured-query requests to the resolver
// services. The tenant context attached by the middleware is passed down
// explicitly to every service call.
type QueryHandler struct {
	queries   *service.QueryService
	stats     *service.StatsService
	mutations *service.MutationService
	logger    *slog.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(
	queries *service.QueryService,
	stats *service.StatsService,
	mutations *service.MutationService,
	logger *slog.Logger,
) *QueryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryHandler{
		queries:   queries,
		stats:     stats,
		mutations: mutations,
		logger:    logger,
	}
}

// ServeHTTP handles POST /api/query requests.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Operation == "" {
		writeErrors(w, http.StatusBadRequest, "operation is required")
		return
	}

	tc := tenant.FromContext(r.Context())
	start := time.Now()
	result, err := h.dispatch(r, tc, req)
	metrics.ObserveOperation(req.Operation, resultLabel(err), time.Since(start))

	if err != nil {
		var bad *badRequestError
		if errors.As(err, &bad) {
			writeErrors(w, http.StatusBadRequest, bad.Error())
			return
		}
		h.logger.Error("operation failed",
			slog.String("operation", req.Operation),
			slog.String("error", err.Error()),
		)
		writeErrors(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// badRequestError marks failures caused by the request itself: unknown
// operation names, malformed arguments, unparseable dates.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string {
	return e.msg
}

func (h *QueryHandler) dispatch(r *http.Request, tc tenant.Context, req QueryRequest) (any, error) {
	ctx := r.Context()

	switch req.Operation {

	// Queries. All responses are wrapped in {"data": ...}.

	case "organization":
		var args struct {
			Slug string `json:"slug"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		org, err := h.queries.OrganizationBySlug(ctx, args.Slug)
		if err != nil {
			return nil, err
		}
		return data(org), nil

	case "projects":
		projects, err := h.queries.ListProjects(ctx, tc)
		if err != nil {
			return nil, err
		}
		return data(projects), nil

	case "project":
		var args struct {
			ID string `json:"id"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		project, err := h.queries.GetProject(ctx, tc, args.ID)
		if err != nil {
			return nil, err
		}
		return data(project), nil

	case "projectStats":
		stats, err := h.stats.ProjectStats(ctx, tc)
		if err != nil {
			return nil, err
		}
		return data(stats), nil

	case "tasks":
		var args struct {
			ProjectID string `json:"projectId"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		tasks, err := h.queries.ListTasks(ctx, tc, args.ProjectID)
		if err != nil {
			return nil, err
		}
		return data(tasks), nil

	case "task":
		var args struct {
			ID string `json:"id"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		task, err := h.queries.GetTask(ctx, tc, args.ID)
		if err != nil {
			return nil, err
		}
		return data(task), nil

	case "taskComments":
		var args struct {
			TaskID string `json:"taskId"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		comments, err := h.queries.ListTaskComments(ctx, tc, args.TaskID)
		if err != nil {
			return nil, err
		}
		return data(comments), nil

	// Mutations. The envelope is the response.

	case "createProject":
		var args struct {
			OrganizationSlug string  `json:"organizationSlug"`
			Name             string  `json:"name"`
			Description      string  `json:"description"`
			Status           string  `json:"status"`
			DueDate          *string `json:"dueDate"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		due, err := parseDate(args.DueDate)
		if err != nil {
			return nil, err
		}
		input := domain.Project{
			Name:        args.Name,
			Description: args.Description,
			Status:      args.Status,
			DueDate:     due,
		}
		return h.mutations.CreateProject(ctx, input, args.OrganizationSlug), nil

	case "updateProject":
		var args struct {
			ID          string  `json:"id"`
			Name        *string `json:"name"`
			Description *string `json:"description"`
			Status      *string `json:"status"`
			DueDate     *string `json:"dueDate"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		due, err := parseDate(args.DueDate)
		if err != nil {
			return nil, err
		}
		patch := domain.ProjectPatch{
			Name:        args.Name,
			Description: args.Description,
			Status:      args.Status,
			DueDate:     due,
		}
		return h.mutations.UpdateProject(ctx, tc, args.ID, patch), nil

	case "deleteProject":
		var args struct {
			ID string `json:"id"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		return h.mutations.DeleteProject(ctx, tc, args.ID), nil

	case "createTask":
		var args struct {
			ProjectID     string  `json:"projectId"`
			Title         string  `json:"title"`
			Description   string  `json:"description"`
			Status        string  `json:"status"`
			Priority      string  `json:"priority"`
			AssigneeEmail string  `json:"assigneeEmail"`
			DueDate       *string `json:"dueDate"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		due, err := parseDate(args.DueDate)
		if err != nil {
			return nil, err
		}
		input := domain.Task{
			Title:         args.Title,
			Description:   args.Description,
			Status:        args.Status,
			Priority:      args.Priority,
			AssigneeEmail: args.AssigneeEmail,
			DueDate:       due,
		}
		return h.mutations.CreateTask(ctx, tc, args.ProjectID, input), nil

	case "updateTask":
		var args struct {
			ID            string  `json:"id"`
			Title         *string `json:"title"`
			Description   *string `json:"description"`
			Status        *string `json:"status"`
			Priority      *string `json:"priority"`
			AssigneeEmail *string `json:"assigneeEmail"`
			DueDate       *string `json:"dueDate"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		due, err := parseDate(args.DueDate)
		if err != nil {
			return nil, err
		}
		patch := domain.TaskPatch{
			Title:         args.Title,
			Description:   args.Description,
			Status:        args.Status,
			Priority:      args.Priority,
			AssigneeEmail: args.AssigneeEmail,
			DueDate:       due,
		}
		return h.mutations.UpdateTask(ctx, tc, args.ID, patch), nil

	case "deleteTask":
		var args struct {
			ID string `json:"id"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		return h.mutations.DeleteTask(ctx, tc, args.ID), nil

	case "addTaskComment":
		var args struct {
			TaskID      string `json:"taskId"`
			Content     string `json:"content"`
			AuthorEmail string `json:"authorEmail"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		return h.mutations.AddTaskComment(ctx, tc, args.TaskID, args.Content, args.AuthorEmail), nil

	case "updateComment":
		var args struct {
			ID      string `json:"id"`
			Content string `json:"content"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		return h.mutations.UpdateComment(ctx, tc, args.ID, args.Content), nil

	case "deleteComment":
		var args struct {
			ID string `json:"id"`
		}
		if err := decodeArgs(req.Arguments, &args); err != nil {
			return nil, err
		}
		return h.mutations.DeleteComment(ctx, tc, args.ID), nil

	default:
		return nil, &badRequestError{msg: fmt.Sprintf("unknown operation %q", req.Operation)}
	}
}

func data(v any) map[string]any {
	return map[string]any{"data": v}
}

func decodeArgs(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return &badRequestError{msg: "invalid arguments: " + err.Error()}
	}
	return nil
}

// parseDate parses an optional YYYY-MM-DD wire date.
func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, &badRequestError{msg: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", *s)}
	}
	return &t, nil
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, status int, messages ...string) {
	errs := make([]map[string]string, 0, len(messages))
	for _, m := range messages {
		errs = append(errs, map[string]string{"message": m})
	}
	writeJSON(w, status, map[string]any{"errors": errs})
}
