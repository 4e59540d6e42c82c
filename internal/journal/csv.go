package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecompta-dev/ecompta/internal/model"
	"github.com/ecompta-dev/ecompta/internal/validation"
)

// Header is the CSV header for entries.csv. Each row carries the entry header
// and one line; an entry without lines is stored as a single row with empty
// line columns.
const Header = "entry_id,number,sequence,date,due_date,value_date,journal,type,origin,label,reference,piece,exercise,period,status,conforms,original_id,created_by,created_at,updated_at,line_order,account,line_label,debit,credit,counterparty,line_due_date"

const (
	numFields      = 27
	dateFormat     = "2006-01-02"
	colEntryID     = 0
	colNumber      = 1
	colSequence    = 2
	colDate        = 3
	colDueDate     = 4
	colValueDate   = 5
	colJournal     = 6
	colType        = 7
	colOrigin      = 8
	colLabel       = 9
	colRef         = 10
	colPiece       = 11
	colExercise    = 12
	colPeriod      = 13
	colStatus      = 14
	colConforms    = 15
	colOriginalID  = 16
	colCreatedBy   = 17
	colCreatedAt   = 18
	colUpdatedAt   = 19
	colLineOrder   = 20
	colAccount     = 21
	colLineLabel   = 22
	colDebit       = 23
	colCredit      = 24
	colCparty      = 25
	colLineDueDate = 26
)

// ReadEntries reads all entries from an entries.csv reader with calendar
// dates at local midnight. See ReadEntriesIn.
func ReadEntries(r io.Reader) ([]*model.Entry, error) {
	return ReadEntriesIn(r, time.Local)
}

// ReadEntriesIn reads all entries from an entries.csv reader. Rows of the
// same entry are grouped in file order; derived totals and category are
// recomputed from the lines. Dates are stored without a zone and come back
// at midnight in loc, which must be the zone the entries were created in.
func ReadEntriesIn(r io.Reader, loc *time.Location) ([]*model.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading entries CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var entries []*model.Entry
	byID := make(map[string]*model.Entry)
	for i, rec := range records[1:] {
		e, ok := byID[rec[colEntryID]]
		if !ok {
			e, err = unmarshalHeader(rec, loc)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
			byID[e.ID] = e
			entries = append(entries, e)
		}
		if rec[colLineOrder] == "" {
			continue
		}
		line, err := UnmarshalLine(rec, loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		e.Lines = append(e.Lines, line)
	}

	for _, e := range entries {
		e.TotalDebit, e.TotalCredit, e.Balanced = validation.Totals(e.Lines)
		e.Category = model.Categorize(e.Lines)
	}
	return entries, nil
}

// WriteEntries writes entries to an entries.csv writer (including header).
func WriteEntries(w io.Writer, entries []*model.Entry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 2
	for _, e := range entries {
		for _, rec := range MarshalEntry(e) {
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalEntry converts an Entry to its CSV rows, one per line.
func MarshalEntry(e *model.Entry) [][]string {
	if len(e.Lines) == 0 {
		return [][]string{marshalHeader(e)}
	}
	rows := make([][]string, len(e.Lines))
	for i, l := range e.Lines {
		row := marshalHeader(e)
		row[colLineOrder] = strconv.Itoa(l.Order)
		row[colAccount] = l.Account
		row[colLineLabel] = l.Label
		if !l.Debit.IsZero() {
			row[colDebit] = l.Debit.String()
		}
		if !l.Credit.IsZero() {
			row[colCredit] = l.Credit.String()
		}
		row[colCparty] = l.Counterparty
		row[colLineDueDate] = formatDate(l.DueDate)
		rows[i] = row
	}
	return rows
}

func marshalHeader(e *model.Entry) []string {
	row := make([]string, numFields)
	row[colEntryID] = e.ID
	row[colNumber] = e.Number
	row[colSequence] = strconv.Itoa(e.Sequence)
	row[colDate] = formatDate(e.Date)
	row[colDueDate] = formatDate(e.DueDate)
	row[colValueDate] = formatDate(e.ValueDate)
	row[colJournal] = e.Journal
	row[colType] = string(e.Type)
	row[colOrigin] = string(e.Origin)
	row[colLabel] = e.Label
	row[colRef] = e.Reference
	row[colPiece] = e.Piece
	row[colExercise] = e.Exercise
	row[colPeriod] = e.Period
	row[colStatus] = string(e.Status)
	row[colConforms] = strconv.FormatBool(e.Conforms)
	row[colOriginalID] = e.OriginalID
	row[colCreatedBy] = e.CreatedBy
	row[colCreatedAt] = formatTimestamp(e.CreatedAt)
	row[colUpdatedAt] = formatTimestamp(e.UpdatedAt)
	return row
}

func unmarshalHeader(record []string, loc *time.Location) (*model.Entry, error) {
	if len(record) != numFields {
		return nil, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colEntryID] == "" {
		return nil, fmt.Errorf("missing entry_id")
	}

	seq, err := strconv.Atoi(record[colSequence])
	if err != nil {
		return nil, fmt.Errorf("parsing sequence %q: %w", record[colSequence], err)
	}

	date, err := parseDate("date", loc, record[colDate])
	if err != nil {
		return nil, err
	}
	due, err := parseDate("due_date", loc, record[colDueDate])
	if err != nil {
		return nil, err
	}
	value, err := parseDate("value_date", loc, record[colValueDate])
	if err != nil {
		return nil, err
	}

	conforms, err := strconv.ParseBool(record[colConforms])
	if err != nil {
		return nil, fmt.Errorf("parsing conforms %q: %w", record[colConforms], err)
	}

	created, err := parseTimestamp("created_at", record[colCreatedAt])
	if err != nil {
		return nil, err
	}
	updated, err := parseTimestamp("updated_at", record[colUpdatedAt])
	if err != nil {
		return nil, err
	}

	return &model.Entry{
		ID:         record[colEntryID],
		Number:     record[colNumber],
		Sequence:   seq,
		Date:       date,
		DueDate:    due,
		ValueDate:  value,
		Journal:    record[colJournal],
		Type:       model.EntryType(record[colType]),
		Origin:     model.Origin(record[colOrigin]),
		Label:      record[colLabel],
		Reference:  record[colRef],
		Piece:      record[colPiece],
		Exercise:   record[colExercise],
		Period:     record[colPeriod],
		Lines:      []model.Line{},
		Status:     model.EntryStatus(record[colStatus]),
		Conforms:   conforms,
		OriginalID: record[colOriginalID],
		CreatedBy:  record[colCreatedBy],
		CreatedAt:  created,
		UpdatedAt:  updated,
	}, nil
}

// UnmarshalLine converts the line columns of a CSV row to a Line.
func UnmarshalLine(record []string, loc *time.Location) (model.Line, error) {
	if len(record) != numFields {
		return model.Line{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	order, err := strconv.Atoi(record[colLineOrder])
	if err != nil {
		return model.Line{}, fmt.Errorf("parsing line_order %q: %w", record[colLineOrder], err)
	}

	var debit, credit decimal.Decimal
	if record[colDebit] != "" {
		debit, err = decimal.NewFromString(record[colDebit])
		if err != nil {
			return model.Line{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
		}
	}
	if record[colCredit] != "" {
		credit, err = decimal.NewFromString(record[colCredit])
		if err != nil {
			return model.Line{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
		}
	}

	due, err := parseDate("line_due_date", loc, record[colLineDueDate])
	if err != nil {
		return model.Line{}, err
	}

	return model.Line{
		Order:        order,
		Account:      record[colAccount],
		Label:        record[colLineLabel],
		Debit:        debit,
		Credit:       credit,
		Counterparty: record[colCparty],
		DueDate:      due,
	}, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}

func parseDate(field string, loc *time.Location, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateFormat, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return t, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return t, nil
}
