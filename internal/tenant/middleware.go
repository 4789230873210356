package tenant

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/projecthub/internal/domain"
	"github.com/yourorg/projecthub/internal/observability/metrics"
	"github.com/yourorg/projecthub/pkg/cache"
)

// SlugHeader and SlugQueryParam are the two places a request may name its
// organization. The header wins when both are present.
const (
	SlugHeader     = "X-Organization-Slug"
	SlugQueryParam = "organization_slug"
)

// Resolver turns request metadata into a tenant Context. Lookups are served
// from a short-TTL in-process cache to keep the per-request datastore hit
// off the hot path.
type Resolver struct {
	orgs     domain.OrganizationRepository
	cache    *cache.Cache[*domain.Organization]
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewResolver creates a tenant resolver.
func NewResolver(orgs domain.OrganizationRepository, cacheTTL time.Duration, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		orgs:     orgs,
		cache:    cache.New[*domain.Organization](),
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Resolve maps a slug to a tenant context. An empty slug and an unknown slug
// are both valid outcomes, distinguished by the context's Reason. A lookup
// that fails outright (datastore outage) is kept apart from both: the slug's
// existence is unknown, so it must not read as not-found.
func (rs *Resolver) Resolve(r *http.Request, slug string) Context {
	if slug == "" {
		return None(ReasonNoSlug)
	}

	if org, ok := rs.cache.Get(slug); ok {
		return For(org)
	}

	org, err := rs.orgs.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return None(ReasonSlugNotFound)
		}
		rs.logger.Error("organization lookup failed",
			slog.String("slug", slug),
			slog.String("error", err.Error()),
		)
		return None(ReasonResolutionFailed)
	}

	if rs.cacheTTL > 0 {
		rs.cache.Set(slug, org, rs.cacheTTL)
	}
	return For(org)
}

// SlugFromRequest reads the organization slug from the header, falling back
// to the query parameter.
func SlugFromRequest(r *http.Request) string {
	if slug := r.Header.Get(SlugHeader); slug != "" {
		return slug
	}
	return r.URL.Query().Get(SlugQueryParam)
}

// Middleware resolves the organization for every request and attaches the
// outcome to the request context. On the query endpoint a slug that matches
// no organization is answered immediately with a structured 404, and a
// failed lookup with a 500; everywhere else absence of context is deferred
// to the resolvers.
func (rs *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := SlugFromRequest(r)
		tc := rs.Resolve(r, slug)
		metrics.ObserveTenantResolution(resolutionOutcome(tc))

		switch {
		case tc.Resolved():
			rs.logger.Info("organization context set",
				slog.String("slug", slug),
				slog.String("organization", tc.Organization.Name),
			)
		case tc.Reason == ReasonSlugNotFound:
			rs.logger.Warn("organization not found", slog.String("slug", slug))
			if isQueryPath(r.URL.Path) {
				writeSlugNotFound(w, slug)
				return
			}
		case tc.Reason == ReasonResolutionFailed:
			if isQueryPath(r.URL.Path) {
				writeResolutionFailed(w)
				return
			}
		case tc.Reason == ReasonNoSlug && isQueryPath(r.URL.Path):
			rs.logger.Warn("no organization slug provided for query request")
		}

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), tc)))
	})
}

func resolutionOutcome(tc Context) string {
	if tc.Resolved() {
		return "resolved"
	}
	return string(tc.Reason)
}

func isQueryPath(path string) bool {
	return strings.HasPrefix(path, "/api/query")
}

func writeSlugNotFound(w http.ResponseWriter, slug string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{
			{"message": fmt.Sprintf("Organization %q not found", slug)},
		},
	})
}

func writeResolutionFailed(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{
			{"message": "internal error"},
		},
	})
}
