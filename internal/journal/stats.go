package journal

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ecompta-dev/ecompta/internal/model"
)

// JournalStats is the share of one journal in a period.
type JournalStats struct {
	Journal    string
	Entries    int
	Amount     decimal.Decimal // sum of total debits
	Percentage decimal.Decimal // of the period's total debit, 2 decimals
}

// Stats summarizes the entries of a period.
type Stats struct {
	Period      string // "YYYY-MM", "" = all periods
	Entries     int
	Lines       int
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	ByJournal   []JournalStats // sorted by journal code
	ByType      map[model.EntryType]int
	// ErrorRate is the percentage of entries whose latest validation holds
	// at least one anomaly, 2 decimals.
	ErrorRate decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Statistics computes Stats for period ("" for everything). Entries without
// an attached result, as loaded from disk, are validated on the fly; nothing
// is stored.
func (s *Service) Statistics(period string) (*Stats, error) {
	entries, err := s.repo.List(Filter{Period: period})
	if err != nil {
		return nil, err
	}

	st := &Stats{
		Period:      period,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
		ByType:      make(map[model.EntryType]int),
		ErrorRate:   decimal.Zero,
	}
	byJournal := make(map[string]*JournalStats)
	withErrors := 0

	for _, e := range entries {
		res := e.Validation
		if res == nil {
			res, err = s.validator.Validate(e, s.accounts)
			if err != nil {
				return nil, err
			}
		}
		if len(res.Anomalies) > 0 {
			withErrors++
		}

		st.Entries++
		st.Lines += len(e.Lines)
		st.TotalDebit = st.TotalDebit.Add(e.TotalDebit)
		st.TotalCredit = st.TotalCredit.Add(e.TotalCredit)
		st.ByType[e.Type]++

		js, ok := byJournal[e.Journal]
		if !ok {
			js = &JournalStats{Journal: e.Journal, Amount: decimal.Zero}
			byJournal[e.Journal] = js
		}
		js.Entries++
		js.Amount = js.Amount.Add(e.TotalDebit)
	}

	for _, js := range byJournal {
		js.Percentage = percent(js.Amount, st.TotalDebit)
		st.ByJournal = append(st.ByJournal, *js)
	}
	sort.Slice(st.ByJournal, func(i, j int) bool { return st.ByJournal[i].Journal < st.ByJournal[j].Journal })

	if st.Entries > 0 {
		st.ErrorRate = percent(decimal.NewFromInt(int64(withErrors)), decimal.NewFromInt(int64(st.Entries)))
	}
	return st, nil
}

func percent(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(2)
}
