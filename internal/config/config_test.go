package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecompta-dev/ecompta/internal/model"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Test Biz", "CI")
	cfg.Journals = append(cfg.Journals, model.Journal{Code: "SAL", Label: "Salaires", Type: model.JournalPayroll})

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company", "SN")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, "SN", cfg.Business.Country)
	assert.Equal(t, "XOF", cfg.Business.Currency)
	assert.Equal(t, "01-01", cfg.Fiscal.YearStart)
	assert.Equal(t, strconv.Itoa(time.Now().Year()), cfg.Fiscal.Exercise)
	assert.Equal(t, "{JOURNAL}-{YYYY}-{######}", cfg.Numbering.Format)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "admin", cfg.Audit.User)
	assert.True(t, cfg.Git.AutoCommit)
	assert.Equal(t, "ecompta", cfg.Git.AuthorName)
	require.Len(t, cfg.Journals, 5)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("business: [unterminated"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test Biz", "CI")
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "currency: XOF")
	assert.Contains(t, contents, "year_start: 01-01")
	assert.Contains(t, contents, "code: VTE")
}

func TestValidate(t *testing.T) {
	cfg := Default("X", "CI")
	cfg.Numbering.Format = "{JOURNAL}-{YYYY}"
	assert.Error(t, cfg.Validate())

	cfg = Default("X", "CI")
	cfg.Journals = append(cfg.Journals, model.Journal{Code: "VTE"})
	assert.ErrorContains(t, cfg.Validate(), "duplicate")

	cfg = Default("X", "CI")
	cfg.Fiscal.YearStart = "13-40"
	assert.ErrorContains(t, cfg.Validate(), "year_start")
}

func TestJournalLookup(t *testing.T) {
	cfg := Default("X", "CI")
	j, ok := cfg.Journal("BQ")
	require.True(t, ok)
	assert.Equal(t, model.JournalBank, j.Type)

	_, ok = cfg.Journal("ZZZ")
	assert.False(t, ok)
}

func TestExerciseFor(t *testing.T) {
	calendar := FiscalConfig{YearStart: "01-01"}
	got, err := calendar.ExerciseFor(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025", got)

	july := FiscalConfig{YearStart: "07-01"}
	got, err = july.ExerciseFor(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024", got)

	got, err = july.ExerciseFor(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025", got)
}
