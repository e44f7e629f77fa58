// Package httptransport assembles the HTTP surface: platform endpoints,
// middleware chain, and the authenticated calendar routes.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taxcal/internal/calendar"
	"taxcal/internal/plangate"
	"taxcal/pkg/platform/middleware/auth"
	"taxcal/pkg/platform/middleware/requestid"
	"taxcal/pkg/platform/middleware/requesttime"
)

// Deps carries everything the router mounts.
type Deps struct {
	Calendar  *calendar.Handler
	Validator auth.IdentityValidator
	Gate      plangate.Gate
	Logger    *slog.Logger
	// Health reports backend connectivity; nil checks nothing.
	Health func(r *http.Request) error
}

// NewRouter wires all endpoints. Platform endpoints stay unauthenticated;
// everything under /tax-calendar requires a bearer token and a plan that
// includes the calendar feature.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(req); err != nil {
				deps.Logger.ErrorContext(req.Context(), "health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.Validator, deps.Logger))
		r.Use(plangate.RequireFeature(deps.Gate, plangate.FeatureTaxCalendar, deps.Logger))
		deps.Calendar.Register(r)
	})

	return r
}
