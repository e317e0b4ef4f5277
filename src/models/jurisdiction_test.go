package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJurisdiction(t *testing.T) {
	t.Run("known code is case-insensitive", func(t *testing.T) {
		for _, code := range []string{"AU", "au", " Au "} {
			j, err := GetJurisdiction(code)
			require.NoError(t, err, "code %q", code)
			assert.Equal(t, "AU", j.Code)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := GetJurisdiction("US")
		assert.ErrorIs(t, err, ErrUnsupportedJurisdiction)
	})
}

func TestSupportsMethod(t *testing.T) {
	j, err := GetJurisdiction("AU")
	require.NoError(t, err)

	assert.True(t, j.SupportsMethod(MethodFIFO))
	assert.True(t, j.SupportsMethod(MethodSpecificID))
	assert.False(t, j.SupportsMethod(CostBasisMethod("average_cost")))
}

func TestTaxYearBounds(t *testing.T) {
	j, err := GetJurisdiction("AU")
	require.NoError(t, err)

	start, end := j.TaxYearBounds(2025)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), end)

	t.Run("calendar-year jurisdiction keeps the named year", func(t *testing.T) {
		cal := &TaxJurisdiction{TaxYearStartMonth: time.January, TaxYearStartDay: 1}
		start, end := cal.TaxYearBounds(2025)
		assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), end)
	})
}

func TestTaxYearEndFor(t *testing.T) {
	j, err := GetJurisdiction("AU")
	require.NoError(t, err)

	// A date late in the AU tax year rolls to the upcoming 1 July.
	end := j.TaxYearEndFor(time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), end)

	// A date just after the boundary belongs to the next tax year.
	end = j.TaxYearEndFor(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), end)
}
