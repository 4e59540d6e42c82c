package journal

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecompta-dev/ecompta/internal/model"
)

// Criteria selects entries in Search. Zero fields match everything; From and
// To are inclusive and amounts bound the entry's total debit.
type Criteria struct {
	Text      string // label, number, reference or any line label, case-insensitive
	Journal   string
	Status    model.EntryStatus
	From      time.Time
	To        time.Time
	MinAmount decimal.NullDecimal
	MaxAmount decimal.NullDecimal
	Reference string
}

func (c Criteria) match(e *model.Entry) bool {
	if !c.From.IsZero() && e.Date.Before(c.From) {
		return false
	}
	if !c.To.IsZero() && e.Date.After(c.To) {
		return false
	}
	if c.MinAmount.Valid && e.TotalDebit.LessThan(c.MinAmount.Decimal) {
		return false
	}
	if c.MaxAmount.Valid && e.TotalDebit.GreaterThan(c.MaxAmount.Decimal) {
		return false
	}
	if c.Reference != "" && !strings.EqualFold(e.Reference, c.Reference) {
		return false
	}
	if c.Text == "" {
		return true
	}
	q := strings.ToLower(c.Text)
	for _, s := range []string{e.Label, e.Number, e.Reference} {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	for _, l := range e.Lines {
		if strings.Contains(strings.ToLower(l.Label), q) {
			return true
		}
	}
	return false
}

// Search returns matching entries, newest first.
func (s *Service) Search(c Criteria) ([]*model.Entry, error) {
	entries, err := s.repo.List(Filter{Journal: c.Journal, Status: c.Status})
	if err != nil {
		return nil, err
	}
	var out []*model.Entry
	for _, e := range entries {
		if c.match(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Number > out[j].Number
	})
	return out, nil
}
