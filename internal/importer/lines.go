package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecompta-dev/ecompta/internal/journal"
)

// LinesParser reads the ecompta line export: one CSV row per line, rows of
// the same journal and piece forming one entry.
type LinesParser struct{}

// LinesHeader is the expected header row.
var LinesHeader = []string{"piece", "date", "journal", "label", "reference", "account", "line_label", "debit", "credit"}

const (
	linesColPiece = iota
	linesColDate
	linesColJournal
	linesColLabel
	linesColReference
	linesColAccount
	linesColLineLabel
	linesColDebit
	linesColCredit
)

// Format returns the parser name.
func (p *LinesParser) Format() string { return "lines" }

// Parse reads a line export.
func (p *LinesParser) Parse(r io.Reader) ([]journal.CreateParams, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(LinesHeader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if !strings.EqualFold(header[linesColPiece], LinesHeader[linesColPiece]) {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(header, ","))
	}

	g := newGrouper()
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", row, err)
		}
		head, line, err := parseLinesRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		g.add(head, line)
	}
	return g.entries, nil
}

func parseLinesRow(rec []string) (journal.CreateParams, journal.LineParams, error) {
	date, err := time.Parse("2006-01-02", rec[linesColDate])
	if err != nil {
		return journal.CreateParams{}, journal.LineParams{}, fmt.Errorf("parsing date %q: %w", rec[linesColDate], err)
	}
	debit, err := parseAmount(rec[linesColDebit])
	if err != nil {
		return journal.CreateParams{}, journal.LineParams{}, err
	}
	credit, err := parseAmount(rec[linesColCredit])
	if err != nil {
		return journal.CreateParams{}, journal.LineParams{}, err
	}

	head := journal.CreateParams{
		Date:      date,
		Journal:   rec[linesColJournal],
		Label:     rec[linesColLabel],
		Reference: rec[linesColReference],
		Piece:     rec[linesColPiece],
	}
	line := journal.LineParams{
		Account: rec[linesColAccount],
		Label:   rec[linesColLineLabel],
		Debit:   debit,
		Credit:  credit,
	}
	return head, line, nil
}

// parseAmount accepts "1234.50", "1 234,50" and "" (zero).
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}
