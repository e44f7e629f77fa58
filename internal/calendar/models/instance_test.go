package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "taxcal/pkg/domain"
)

func newTestInstance(t *testing.T) *Instance {
	t.Helper()
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	inst, err := NewInstance(
		id.InstanceID(uuid.New()),
		id.TemplateID(uuid.New()),
		id.OrgID(uuid.New()),
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.April, 21, 18, 0, 0, 0, time.UTC),
		InstanceMeta{},
		now,
	)
	require.NoError(t, err)
	return inst
}

func TestInstanceStateMachine(t *testing.T) {
	actor := id.UserID(uuid.New())
	now := time.Date(2025, time.April, 22, 10, 0, 0, 0, time.UTC)

	t.Run("new instances are upcoming", func(t *testing.T) {
		inst := newTestInstance(t)
		assert.Equal(t, StatusUpcoming, inst.Status)
	})

	t.Run("start moves upcoming to in progress", func(t *testing.T) {
		inst := newTestInstance(t)
		require.NoError(t, inst.CanStart())
		inst.ApplyStart(now)
		assert.Equal(t, StatusInProgress, inst.Status)

		assert.Error(t, inst.CanStart(), "start is only valid from upcoming")
	})

	t.Run("done records actor and time, re-done overwrites", func(t *testing.T) {
		inst := newTestInstance(t)
		require.NoError(t, inst.CanComplete())
		inst.ApplyDone(now, actor, "filed early")
		assert.Equal(t, StatusDone, inst.Status)
		assert.Equal(t, actor, inst.DoneBy)
		require.NotNil(t, inst.DoneAt)
		assert.Equal(t, now, *inst.DoneAt)

		later := now.Add(24 * time.Hour)
		other := id.UserID(uuid.New())
		require.NoError(t, inst.CanComplete(), "re-done is an explicit policy")
		inst.ApplyDone(later, other, "")
		assert.Equal(t, other, inst.DoneBy)
		assert.Equal(t, later, *inst.DoneAt)
		assert.Equal(t, "filed early", inst.Note, "empty note keeps the previous one")
	})

	t.Run("skip is unconditional, including from done", func(t *testing.T) {
		inst := newTestInstance(t)
		inst.ApplyDone(now, actor, "")
		inst.ApplySkip(now.Add(time.Hour), "not applicable this quarter")
		assert.Equal(t, StatusSkipped, inst.Status)
	})

	t.Run("skipped instances cannot be completed", func(t *testing.T) {
		inst := newTestInstance(t)
		inst.ApplySkip(now, "")
		assert.Error(t, inst.CanComplete())
	})

	t.Run("terminal statuses", func(t *testing.T) {
		assert.True(t, StatusDone.IsTerminal())
		assert.True(t, StatusSkipped.IsTerminal())
		assert.False(t, StatusUpcoming.IsTerminal())
		assert.False(t, StatusInProgress.IsTerminal())
		assert.False(t, StatusOverdue.IsTerminal())
	})
}

func TestNewInstanceRejectsEmptyPeriod(t *testing.T) {
	now := time.Now()
	start := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	_, err := NewInstance(id.InstanceID(uuid.New()), id.TemplateID(uuid.New()), id.OrgID(uuid.New()), start, start, start, InstanceMeta{}, now)
	require.Error(t, err)
}

func TestParseSettings(t *testing.T) {
	t.Run("absent document is empty settings", func(t *testing.T) {
		s, err := ParseSettings(nil)
		require.NoError(t, err)
		assert.False(t, s.HasEmployees)
	})

	t.Run("parses known fields", func(t *testing.T) {
		s, err := ParseSettings([]byte(`{"hasEmployees":true,"vatRegistered":true}`))
		require.NoError(t, err)
		assert.True(t, s.HasEmployees)
		assert.True(t, s.VATRegistered)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		_, err := ParseSettings([]byte(`{"hasEmploees":true}`))
		require.Error(t, err)
	})
}
