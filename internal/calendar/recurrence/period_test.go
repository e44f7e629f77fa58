package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEnumerateMonths(t *testing.T) {
	t.Run("three month window yields three periods", func(t *testing.T) {
		periods := Enumerate(UnitMonth, date(2025, time.January, 1), date(2025, time.April, 1))
		require.Len(t, periods, 3)
		assert.Equal(t, date(2025, time.January, 1), periods[0].Start)
		assert.Equal(t, date(2025, time.February, 1), periods[0].End)
		assert.Equal(t, date(2025, time.April, 1), periods[2].End)
	})

	t.Run("count is independent of where from falls inside the first month", func(t *testing.T) {
		for _, day := range []int{1, 2, 15, 28, 31} {
			periods := Enumerate(UnitMonth, date(2025, time.January, day), date(2025, time.April, 1))
			assert.Len(t, periods, 3, "from=Jan %d", day)
			assert.Equal(t, date(2025, time.January, 1), periods[0].Start, "first period contains from")
		}
	})

	t.Run("months have true calendar lengths", func(t *testing.T) {
		periods := Enumerate(UnitMonth, date(2024, time.February, 10), date(2024, time.March, 1))
		require.Len(t, periods, 1)
		// 2024 is a leap year.
		assert.Equal(t, date(2024, time.February, 1), periods[0].Start)
		assert.Equal(t, date(2024, time.March, 1), periods[0].End)
	})

	t.Run("stops once a period start reaches to", func(t *testing.T) {
		periods := Enumerate(UnitMonth, date(2025, time.January, 1), date(2025, time.March, 1))
		require.Len(t, periods, 2)
		assert.Equal(t, date(2025, time.March, 1), periods[1].End)
	})
}

func TestEnumerateQuarters(t *testing.T) {
	t.Run("quarters anchor to january", func(t *testing.T) {
		periods := Enumerate(UnitQuarter, date(2025, time.May, 20), date(2025, time.November, 1))
		require.Len(t, periods, 3)
		assert.Equal(t, date(2025, time.April, 1), periods[0].Start)
		assert.Equal(t, date(2025, time.July, 1), periods[0].End)
		assert.Equal(t, date(2025, time.October, 1), periods[2].Start)
		assert.Equal(t, date(2026, time.January, 1), periods[2].End)
	})

	t.Run("union covers the whole range", func(t *testing.T) {
		from, to := date(2025, time.February, 14), date(2025, time.August, 2)
		periods := Enumerate(UnitQuarter, from, to)
		require.NotEmpty(t, periods)
		assert.True(t, periods[0].Contains(from))
		last := periods[len(periods)-1]
		assert.True(t, to.Before(last.End) || to.Equal(last.End))
	})
}

func TestEnumerateYears(t *testing.T) {
	periods := Enumerate(UnitYear, date(2024, time.June, 30), date(2026, time.January, 2))
	require.Len(t, periods, 3)
	assert.Equal(t, date(2024, time.January, 1), periods[0].Start)
	assert.Equal(t, date(2025, time.January, 1), periods[0].End)
	assert.Equal(t, date(2026, time.January, 1), periods[2].Start)
}

func TestEnumerateEmptyRange(t *testing.T) {
	assert.Nil(t, Enumerate(UnitMonth, date(2025, time.March, 1), date(2025, time.March, 1)))
	assert.Nil(t, Enumerate(UnitMonth, date(2025, time.April, 1), date(2025, time.March, 1)))
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("Quarter")
	require.NoError(t, err)
	assert.Equal(t, UnitQuarter, u)

	_, err = ParseUnit("fortnight")
	require.Error(t, err)
}
