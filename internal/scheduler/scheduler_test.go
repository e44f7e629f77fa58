package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxcal/internal/plangate"
	id "taxcal/pkg/domain"
)

type fakeCalendar struct {
	mu        sync.Mutex
	generated map[id.OrgID][][2]time.Time
	swept     map[id.OrgID]int
	failFor   map[id.OrgID]error
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{
		generated: make(map[id.OrgID][][2]time.Time),
		swept:     make(map[id.OrgID]int),
		failFor:   make(map[id.OrgID]error),
	}
}

func (f *fakeCalendar) Generate(_ context.Context, orgID id.OrgID, from, to time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[orgID]; err != nil {
		return 0, err
	}
	f.generated[orgID] = append(f.generated[orgID], [2]time.Time{from, to})
	return 1, nil
}

func (f *fakeCalendar) SweepOverdue(_ context.Context, orgID id.OrgID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swept[orgID]++
	return 0, nil
}

type fakeOrgs struct {
	ids []id.OrgID
}

func (f fakeOrgs) ListOrganizations(context.Context) ([]id.OrgID, error) {
	return f.ids, nil
}

type denyGate struct {
	denied id.OrgID
}

func (g denyGate) Allowed(_ context.Context, orgID id.OrgID, _ plangate.Feature) (bool, error) {
	return orgID != g.denied, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestRunExtendsAllOrganizations(t *testing.T) {
	orgA := id.OrgID(uuid.New())
	orgB := id.OrgID(uuid.New())
	cal := newFakeCalendar()
	marks := NewInMemoryHighWater()

	s := New(cal, fakeOrgs{ids: []id.OrgID{orgA, orgB}}, marks, plangate.AllowAll{}, testLogger())
	require.NoError(t, s.Run(context.Background()))

	assert.Len(t, cal.generated[orgA], 1)
	assert.Len(t, cal.generated[orgB], 1)
	assert.Equal(t, 1, cal.swept[orgA])

	markA, err := marks.Get(context.Background(), orgA)
	require.NoError(t, err)
	window := cal.generated[orgA][0]
	assert.Equal(t, window[1], markA, "mark advances to the window end")
	assert.Equal(t, DefaultHorizon, window[1].Sub(window[0]))
}

func TestRunResumesFromHighWaterMark(t *testing.T) {
	org := id.OrgID(uuid.New())
	cal := newFakeCalendar()
	marks := NewInMemoryHighWater()

	future := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	require.NoError(t, marks.Set(context.Background(), org, future))

	s := New(cal, fakeOrgs{ids: []id.OrgID{org}}, marks, plangate.AllowAll{}, testLogger())
	require.NoError(t, s.Run(context.Background()))

	require.Len(t, cal.generated[org], 1)
	assert.Equal(t, future, cal.generated[org][0][0], "window starts at the mark")
}

func TestRunBackfillsAfterLongOutage(t *testing.T) {
	org := id.OrgID(uuid.New())
	cal := newFakeCalendar()
	marks := NewInMemoryHighWater()

	// Mark further in the past than the horizon: every period between the
	// mark and now has fully elapsed while the scheduler was down.
	stale := time.Now().Add(-120 * 24 * time.Hour).Truncate(time.Second)
	require.NoError(t, marks.Set(context.Background(), org, stale))

	s := New(cal, fakeOrgs{ids: []id.OrgID{org}}, marks, plangate.AllowAll{}, testLogger())
	require.NoError(t, s.Run(context.Background()))

	require.Len(t, cal.generated[org], 1)
	window := cal.generated[org][0]
	assert.Equal(t, stale, window[0], "elapsed periods are backfilled, not skipped")
	assert.True(t, window[1].After(time.Now().Add(DefaultHorizon-time.Hour)))
}

func TestRunSkipsUpToDateOrganization(t *testing.T) {
	org := id.OrgID(uuid.New())
	cal := newFakeCalendar()
	marks := NewInMemoryHighWater()

	require.NoError(t, marks.Set(context.Background(), org, time.Now().Add(200*24*time.Hour)))

	s := New(cal, fakeOrgs{ids: []id.OrgID{org}}, marks, plangate.AllowAll{}, testLogger())
	require.NoError(t, s.Run(context.Background()))
	assert.Empty(t, cal.generated[org], "mark beyond the horizon means nothing to do")
}

func TestRunIsolatesFailures(t *testing.T) {
	broken := id.OrgID(uuid.New())
	healthy := id.OrgID(uuid.New())
	cal := newFakeCalendar()
	cal.failFor[broken] = errors.New("store down")
	marks := NewInMemoryHighWater()

	s := New(cal, fakeOrgs{ids: []id.OrgID{broken, healthy}}, marks, plangate.AllowAll{}, testLogger())
	err := s.Run(context.Background())
	require.Error(t, err)

	assert.Len(t, cal.generated[healthy], 1, "healthy organization still processed")

	brokenMark, markErr := marks.Get(context.Background(), broken)
	require.NoError(t, markErr)
	assert.True(t, brokenMark.IsZero(), "failed run does not advance the mark")
}

func TestRunHonorsPlanGate(t *testing.T) {
	gated := id.OrgID(uuid.New())
	entitled := id.OrgID(uuid.New())
	cal := newFakeCalendar()
	marks := NewInMemoryHighWater()

	s := New(cal, fakeOrgs{ids: []id.OrgID{gated, entitled}}, marks, denyGate{denied: gated}, testLogger())
	require.NoError(t, s.Run(context.Background()))

	assert.Empty(t, cal.generated[gated])
	assert.Len(t, cal.generated[entitled], 1)
}
