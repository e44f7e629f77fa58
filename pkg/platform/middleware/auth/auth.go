// Package auth authenticates requests with bearer tokens and places the
// resolved organization and user identity on the request context.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "taxcal/pkg/domain"
	dErrors "taxcal/pkg/domain-errors"
	"taxcal/pkg/platform/httputil"
	"taxcal/pkg/requestcontext"
)

// IdentityValidator resolves a bearer token to the organization and user it
// acts for.
type IdentityValidator interface {
	Identity(token string) (id.OrgID, id.UserID, error)
}

// RequireAuth rejects requests without a valid bearer token and injects the
// token's organization and user into the request context.
func RequireAuth(validator IdentityValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			orgID, userID, err := validator.Identity(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestID,
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithOrgID(ctx, orgID)
			ctx = requestcontext.WithUserID(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
