package plangate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	id "taxcal/pkg/domain"
	"taxcal/pkg/requestcontext"
)

type stubGate struct {
	allowed bool
	err     error
}

func (g stubGate) Allowed(context.Context, id.OrgID, Feature) (bool, error) {
	return g.allowed, g.err
}

func gatedRequest(t *testing.T, gate Gate, withOrg bool) *httptest.ResponseRecorder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireFeature(gate, FeatureTaxCalendar, logger)(next)

	req := httptest.NewRequest(http.MethodGet, "/tax-calendar/events", nil)
	if withOrg {
		ctx := requestcontext.WithOrgID(req.Context(), id.OrgID(uuid.New()))
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireFeature(t *testing.T) {
	t.Run("entitled requests pass through", func(t *testing.T) {
		rec := gatedRequest(t, stubGate{allowed: true}, true)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("unentitled requests get 403", func(t *testing.T) {
		rec := gatedRequest(t, stubGate{allowed: false}, true)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("unauthenticated requests get 401", func(t *testing.T) {
		rec := gatedRequest(t, stubGate{allowed: true}, false)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("gate outage fails open", func(t *testing.T) {
		rec := gatedRequest(t, stubGate{err: errors.New("redis down")}, true)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204 on gate outage, got %d", rec.Code)
		}
	})
}
