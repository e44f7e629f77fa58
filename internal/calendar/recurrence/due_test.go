package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDueAt(t *testing.T) {
	periodEnd := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	t.Run("offsets by calendar days and applies due time", func(t *testing.T) {
		due := DueAt(periodEnd, 20, "12:30")
		assert.Equal(t, time.Date(2025, time.April, 21, 12, 30, 0, 0, time.UTC), due)
	})

	t.Run("defaults to 18:00 when due time is absent", func(t *testing.T) {
		due := DueAt(periodEnd, 20, "")
		assert.Equal(t, time.Date(2025, time.April, 21, 18, 0, 0, 0, time.UTC), due)
	})

	t.Run("defaults to 18:00 on malformed due time", func(t *testing.T) {
		for _, bad := range []string{"25:00", "9:99", "noon", "18", "-1:30"} {
			due := DueAt(periodEnd, 0, bad)
			assert.Equal(t, 18, due.Hour(), "input %q", bad)
			assert.Equal(t, 0, due.Minute(), "input %q", bad)
		}
	})

	t.Run("offset crosses month boundaries correctly", func(t *testing.T) {
		end := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
		due := DueAt(end, 30, "18:00")
		assert.Equal(t, time.Date(2025, time.March, 3, 18, 0, 0, 0, time.UTC), due)
	})

	t.Run("zero offset keeps the period end date", func(t *testing.T) {
		due := DueAt(periodEnd, 0, "08:15")
		assert.Equal(t, time.Date(2025, time.April, 1, 8, 15, 0, 0, time.UTC), due)
	})
}
