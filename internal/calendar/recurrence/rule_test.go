package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "taxcal/pkg/domain-errors"
)

func TestParseRule(t *testing.T) {
	t.Run("parses frequency and interval", func(t *testing.T) {
		rule, err := ParseRule("FREQ=QUARTERLY;INTERVAL=2")
		require.NoError(t, err)
		assert.Equal(t, FreqQuarterly, rule.Freq)
		assert.Equal(t, 2, rule.Interval)
	})

	t.Run("interval defaults to 1", func(t *testing.T) {
		rule, err := ParseRule("FREQ=MONTHLY")
		require.NoError(t, err)
		assert.Equal(t, FreqMonthly, rule.Freq)
		assert.Equal(t, 1, rule.Interval)
	})

	t.Run("keys and values are case-insensitive", func(t *testing.T) {
		rule, err := ParseRule("freq=yearly;interval=1")
		require.NoError(t, err)
		assert.Equal(t, FreqYearly, rule.Freq)
	})

	t.Run("tolerates whitespace and unknown keys", func(t *testing.T) {
		rule, err := ParseRule(" FREQ = MONTHLY ; BYMONTHDAY=15 ")
		require.NoError(t, err)
		assert.Equal(t, FreqMonthly, rule.Freq)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		cases := map[string]string{
			"empty rule":           "",
			"missing freq":         "INTERVAL=2",
			"unknown frequency":    "FREQ=WEEKLY",
			"non-numeric interval": "FREQ=MONTHLY;INTERVAL=x",
			"zero interval":        "FREQ=MONTHLY;INTERVAL=0",
			"negative interval":    "FREQ=MONTHLY;INTERVAL=-1",
			"segment without =":    "FREQ=MONTHLY;INTERVAL",
		}
		for name, input := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := ParseRule(input)
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "expected validation error for %q", input)
			})
		}
	})
}

func TestFrequencyUnit(t *testing.T) {
	assert.Equal(t, UnitMonth, FreqMonthly.Unit())
	assert.Equal(t, UnitQuarter, FreqQuarterly.Unit())
	assert.Equal(t, UnitYear, FreqYearly.Unit())
}
