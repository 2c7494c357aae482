package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchValues_SubstringCaseInsensitive(t *testing.T) {
	items := []string{"access-cm2", "csiro-mk3", "ACCESS-ESM"}
	search := map[string][]string{"model": {"ACCESS"}}

	kept := MatchValues(items, "{model}", search, false, nil)
	assert.ElementsMatch(t, []string{"access-cm2", "ACCESS-ESM"}, kept)
}

func TestMatchValues_ExactMatch(t *testing.T) {
	items := []string{"access", "access-cm2"}
	search := map[string][]string{"model": {"access"}}

	kept := MatchValues(items, "{model}", search, true, nil)
	assert.Equal(t, []string{"access"}, kept)
}

func TestMatchValues_PerKeyExactOverride(t *testing.T) {
	items := []string{"access-cm2_hist", "access-cm2_ssp245"}
	search := map[string][]string{"scenario": {"hist"}}
	overrides := map[string]bool{"scenario": true}

	kept := MatchValues(items, "{model}_{scenario}", search, false, overrides)
	assert.Equal(t, []string{"access-cm2_hist"}, kept)
}

func TestMatchValues_DropsExtractionFailures(t *testing.T) {
	items := []string{"1960.nc", "not-a-year.csv"}
	kept := MatchValues(items, "{year}.nc", nil, false, nil)
	assert.Equal(t, []string{"1960.nc"}, kept)
}

func TestMatchValues_YearRange(t *testing.T) {
	items := []string{
		"1959-1965.nc",
		"1970-1975.nc",
	}
	search := map[string][]string{"year": {"1962"}}

	kept := MatchValues(items, "{year!start}-{year!end}.nc", search, false, nil)
	assert.Equal(t, []string{"1959-1965.nc"}, kept)
}

func TestMatchValues_MultipleSearchValuesAnyMatch(t *testing.T) {
	items := []string{"tas.nc", "pr.nc", "huss.nc"}
	search := map[string][]string{"var": {"tas", "pr"}}

	kept := MatchValues(items, "{var}.nc", search, true, nil)
	assert.ElementsMatch(t, []string{"tas.nc", "pr.nc"}, kept)
}

func TestMatchValues_DoesNotMutateSearchMap(t *testing.T) {
	items := []string{"tas.nc"}
	search := map[string][]string{"var": {"tas"}}
	_ = MatchValues(items, "{var}.nc", search, false, nil)
	require.Equal(t, []string{"tas"}, search["var"])
}

func TestYearRange_Inclusive(t *testing.T) {
	years, err := YearRange("1960", "1963")
	require.NoError(t, err)
	assert.Equal(t, []string{"1960", "1961", "1962", "1963"}, years)
}

func TestYearRange_NonIntegerPropagatesError(t *testing.T) {
	_, err := YearRange("abc", "1963")
	require.Error(t, err)
}
