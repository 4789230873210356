package tenant

import (
	"context"

	"github.com/yourorg/projecthub/internal/domain"
)

// AbsenceReason says why a request carries no organization context.
type AbsenceReason string

const (
	// ReasonNone means the context holds a resolved organization.
	ReasonNone AbsenceReason = ""
	// ReasonNoSlug means the request supplied no slug at all.
	ReasonNoSlug AbsenceReason = "no-slug-given"
	// ReasonSlugNotFound means a slug was supplied but matched nothing.
	ReasonSlugNotFound AbsenceReason = "slug-not-found"
	// ReasonResolutionFailed means the lookup itself failed, so whether the
	// slug exists is unknown.
	ReasonResolutionFailed AbsenceReason = "resolution-failed"
)

// Context carries the organization resolved for one request. Absence of an
// organization is a valid state, not an error: reads scoped by an absent
// context return empty results and mutations fail with an explicit message.
type Context struct {
	Organization *domain.Organization
	Reason       AbsenceReason
}

// Resolved reports whether an organization is attached.
func (c Context) Resolved() bool {
	return c.Organization != nil
}

// OrganizationID returns the resolved organization's ID, "" when absent.
func (c Context) OrganizationID() string {
	if c.Organization == nil {
		return ""
	}
	return c.Organization.ID
}

// None returns an absent context with the given reason.
func None(reason AbsenceReason) Context {
	return Context{Reason: reason}
}

// For returns a context resolved to the given organization.
func For(org *domain.Organization) Context {
	return Context{Organization: org}
}

type contextKey struct{}

// NewContext attaches a tenant context to ctx.
func NewContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the tenant context attached to ctx. A request that
// never passed through the middleware yields an absent context.
func FromContext(ctx context.Context) Context {
	if tc, ok := ctx.Value(contextKey{}).(Context); ok {
		return tc
	}
	return None(ReasonNoSlug)
}
