// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set by middleware (or by the scheduler for system-initiated work)
// and consumed by services. Keeping this package free of net/http lets
// services import only what they need.
//
// Usage in services (read values):
//
//	orgID := requestcontext.OrgID(ctx)
//	actorID := requestcontext.UserID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithOrgID(ctx, orgID)
package requestcontext

import (
	"context"
	"time"

	id "taxcal/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	orgIDKey       struct{}
	userIDKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// OrgID retrieves the authenticated organization ID from the context.
// Returns the zero value (nil UUID) if not set.
func OrgID(ctx context.Context) id.OrgID {
	if orgID, ok := ctx.Value(orgIDKey{}).(id.OrgID); ok {
		return orgID
	}
	return id.OrgID{}
}

// WithOrgID injects an organization ID into the context.
func WithOrgID(ctx context.Context, orgID id.OrgID) context.Context {
	return context.WithValue(ctx, orgIDKey{}, orgID)
}

// UserID retrieves the acting user ID from the context.
// Returns the zero value (nil UUID) for system-initiated work.
func UserID(ctx context.Context) id.UserID {
	if userID, ok := ctx.Value(userIDKey{}).(id.UserID); ok {
		return userID
	}
	return id.UserID{}
}

// WithUserID injects a user ID into the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// RequestID retrieves the correlation ID assigned by middleware.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now returns the request-scoped time, falling back to wall-clock time when
// no middleware set one. Services should always use this instead of
// time.Now() so tests can freeze time.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a fixed time into the context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
