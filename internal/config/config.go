package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ecompta-dev/ecompta/internal/id"
	"github.com/ecompta-dev/ecompta/internal/model"
)

// FileName is the config file at the root of a books directory.
const FileName = "ecompta.yaml"

// Config represents the top-level ecompta.yaml configuration.
type Config struct {
	Business  BusinessConfig  `yaml:"business"`
	Fiscal    FiscalConfig    `yaml:"fiscal"`
	Numbering NumberingConfig `yaml:"numbering"`
	Journals  []model.Journal `yaml:"journals"`
	Logging   LoggingConfig   `yaml:"logging"`
	Audit     AuditConfig     `yaml:"audit"`
	Git       GitConfig       `yaml:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name     string `yaml:"name"`
	Country  string `yaml:"country"`  // OHADA member state, ISO 3166 alpha-2, e.g. "CI"
	Currency string `yaml:"currency"` // e.g. "XOF"
	Chart    string `yaml:"chart"`    // default chart variant used by init
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
	Exercise  string `yaml:"exercise"`   // current exercise label, e.g. "2026"
}

// NumberingConfig controls entry numbers.
type NumberingConfig struct {
	Format string `yaml:"format"` // template or named format, see id.FormatNumber
}

// LoggingConfig controls the logger built by the logging package.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // logrus level name
	Format string `yaml:"format"` // "text" or "json"
}

// AuditConfig names the user recorded in the audit log.
type AuditConfig struct {
	User string `yaml:"user"`
}

// GitConfig controls versioning of the books directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"` // commit after posting, archiving and reversing
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads an ecompta.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName, country string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:     businessName,
			Country:  country,
			Currency: "XOF",
			Chart:    "minimal",
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
			Exercise:  strconv.Itoa(time.Now().Year()),
		},
		Numbering: NumberingConfig{
			Format: id.FormatAutomatic,
		},
		Journals: model.DefaultJournals(),
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Audit: AuditConfig{
			User: "admin",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "ecompta",
			AuthorEmail: "books@ecompta.local",
		},
	}
}

// Validate checks the fields the workflow relies on.
func (c *Config) Validate() error {
	if _, _, err := parseYearStart(c.Fiscal.YearStart); err != nil {
		return err
	}
	if err := id.ValidateFormat(c.Numbering.Format); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Journals))
	for _, j := range c.Journals {
		if j.Code == "" {
			return fmt.Errorf("journal %q has no code", j.Label)
		}
		if seen[j.Code] {
			return fmt.Errorf("duplicate journal code %q", j.Code)
		}
		seen[j.Code] = true
	}
	return nil
}

// Journal looks up a configured journal by code.
func (c *Config) Journal(code string) (model.Journal, bool) {
	for _, j := range c.Journals {
		if j.Code == code {
			return j, true
		}
	}
	return model.Journal{}, false
}

// ExerciseFor returns the label of the fiscal year containing date: the
// calendar year in which that fiscal year started.
func (f FiscalConfig) ExerciseFor(date time.Time) (string, error) {
	month, day, err := parseYearStart(f.YearStart)
	if err != nil {
		return "", err
	}
	year := date.Year()
	start := time.Date(year, month, day, 0, 0, 0, 0, date.Location())
	if date.Before(start) {
		year--
	}
	return strconv.Itoa(year), nil
}

func parseYearStart(s string) (time.Month, int, error) {
	if s == "" {
		return time.January, 1, nil
	}
	t, err := time.Parse("01-02", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid fiscal year_start %q: want MM-DD", s)
	}
	return t.Month(), t.Day(), nil
}
