package id

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Named numbering formats.
const (
	FormatAutomatic    = "{JOURNAL}-{YYYY}-{######}" // VTE-2024-000001
	FormatJournalMonth = "{JOURNAL}{MM}{######}"     // VTE01000001
	FormatSimple       = "{######}"                  // 000001
	FormatCustom       = "{JOURNAL}-{DD}{MM}{YY}-{###}"
)

var namedFormats = map[string]string{
	"AUTOMATIC":     FormatAutomatic,
	"JOURNAL_MONTH": FormatJournalMonth,
	"SIMPLE":        FormatSimple,
	"CUSTOM":        FormatCustom,
}

// ResolveFormat expands a named format ("AUTOMATIC", "SIMPLE", ...) to its
// template. Anything else is returned as is. An empty name gives
// FormatAutomatic.
func ResolveFormat(name string) string {
	if name == "" {
		return FormatAutomatic
	}
	if f, ok := namedFormats[strings.ToUpper(name)]; ok {
		return f
	}
	return name
}

// ValidateFormat checks that a numbering template carries a sequence
// placeholder, without which numbers would collide.
func ValidateFormat(format string) error {
	f := ResolveFormat(format)
	if !strings.Contains(f, "{######}") && !strings.Contains(f, "{###}") {
		return fmt.Errorf("numbering format %q has no sequence placeholder", format)
	}
	return nil
}

// FormatNumber renders an entry number like "VTE-2025-000042".
func FormatNumber(format, journal string, date time.Time, seq int) string {
	r := strings.NewReplacer(
		"{JOURNAL}", journal,
		"{YYYY}", fmt.Sprintf("%04d", date.Year()),
		"{YY}", fmt.Sprintf("%02d", date.Year()%100),
		"{MM}", fmt.Sprintf("%02d", int(date.Month())),
		"{DD}", fmt.Sprintf("%02d", date.Day()),
		"{######}", fmt.Sprintf("%06d", seq),
		"{###}", fmt.Sprintf("%03d", seq),
	)
	return r.Replace(ResolveFormat(format))
}

// NewEntryID returns an opaque, globally unique entry id.
func NewEntryID() string {
	return uuid.NewString()
}

// ValidEntryID reports whether s looks like an id from NewEntryID.
func ValidEntryID(s string) bool {
	return uuid.Validate(s) == nil
}
