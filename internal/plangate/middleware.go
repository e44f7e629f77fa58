package plangate

import (
	"log/slog"
	"net/http"

	dErrors "taxcal/pkg/domain-errors"
	"taxcal/pkg/platform/httputil"
	"taxcal/pkg/requestcontext"
)

// RequireFeature rejects requests from organizations whose plan does not
// include the feature. An entitlement backend outage fails open: gating is a
// commercial control, not a security boundary, and must not take the
// calendar down with it.
func RequireFeature(gate Gate, feature Feature, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			orgID := requestcontext.OrgID(ctx)
			if orgID.IsNil() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
				return
			}

			allowed, err := gate.Allowed(ctx, orgID, feature)
			if err != nil {
				logger.WarnContext(ctx, "plan gate unavailable, allowing request",
					"request_id", requestcontext.RequestID(ctx),
					"organization_id", orgID,
					"feature", feature,
					"error", err,
				)
				allowed = true
			}
			if !allowed {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "plan does not include this feature"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
