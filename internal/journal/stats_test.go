package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecompta-dev/ecompta/internal/model"
)

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	seed(t, f)

	st, err := f.svc.Statistics("")
	require.NoError(t, err)

	assert.Equal(t, 3, st.Entries)
	assert.Equal(t, 8, st.Lines)
	assert.True(t, st.TotalDebit.Equal(dec("1870000")), st.TotalDebit.String())
	assert.True(t, st.TotalCredit.Equal(dec("1860000")), st.TotalCredit.String())
	assert.Equal(t, 3, st.ByType[model.EntryTypeStandard])
	assert.Equal(t, "33.33", st.ErrorRate.StringFixed(2))

	require.Len(t, st.ByJournal, 3)
	want := []struct {
		journal string
		amount  string
		pct     string
	}{
		{"ACH", "1180000", "63.10"},
		{"BQ", "100000", "5.35"},
		{"VTE", "590000", "31.55"},
	}
	for i, w := range want {
		js := st.ByJournal[i]
		assert.Equal(t, w.journal, js.Journal)
		assert.Equal(t, 1, js.Entries)
		assert.True(t, js.Amount.Equal(dec(w.amount)), js.Amount.String())
		assert.Equal(t, w.pct, js.Percentage.StringFixed(2), w.journal)
	}
}

func TestStatistics_Period(t *testing.T) {
	f := newFixture(t)
	seed(t, f)

	st, err := f.svc.Statistics("2025-06")
	require.NoError(t, err)
	assert.Equal(t, "2025-06", st.Period)
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, "50.00", st.ErrorRate.StringFixed(2))
}

func TestStatistics_Empty(t *testing.T) {
	f := newFixture(t)
	st, err := f.svc.Statistics("2024-01")
	require.NoError(t, err)
	assert.Zero(t, st.Entries)
	assert.True(t, st.ErrorRate.IsZero())
	assert.Empty(t, st.ByJournal)
}

func TestStatistics_ValidatesLoadedEntries(t *testing.T) {
	root := t.TempDir()
	seed(t, newFixtureWithRepo(t, NewFileRepositoryIn(root, time.UTC)))

	f := newFixtureWithRepo(t, NewFileRepositoryIn(root, time.UTC))
	loaded, err := f.svc.List(Filter{})
	require.NoError(t, err)
	for _, e := range loaded {
		assert.Nil(t, e.Validation)
	}

	st, err := f.svc.Statistics("")
	require.NoError(t, err)
	assert.Equal(t, "33.33", st.ErrorRate.StringFixed(2))

	again, err := f.svc.List(Filter{})
	require.NoError(t, err)
	for _, e := range again {
		assert.Nil(t, e.Validation)
	}
}
