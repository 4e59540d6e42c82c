// Package auditlog keeps the append-only history of workflow actions on
// journal entries in logs/audit-log.csv.
package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Actions recorded by the journal service.
const (
	ActionCreate       = "create"
	ActionModify       = "modify"
	ActionDelete       = "delete"
	ActionAddLine      = "add_line"
	ActionEditLine     = "edit_line"
	ActionDeleteLine   = "delete_line"
	ActionSubmit       = "submit"
	ActionReview       = "review"
	ActionValidate     = "validate"
	ActionGateRefused  = "gate_refused"
	ActionReject       = "reject"
	ActionReopen       = "reopen"
	ActionPost         = "post"
	ActionArchive      = "archive"
	ActionReverse      = "reverse"
	ActionDuplicate    = "duplicate"
	ActionFromTemplate = "from_template"
	ActionSaveTemplate = "save_template"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp time.Time
	User      string
	Action    string
	EntryID   string
	Number    string
	Details   string
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,user,action,entry_id,number,details"

const (
	numFields    = 6
	logDir       = "logs"
	logFile      = "logs/audit-log.csv"
	colTimestamp = 0
	colUser      = 1
	colAction    = 2
	colEntryID   = 3
	colNumber    = 4
	colDetails   = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colUser] = e.User
	row[colAction] = e.Action
	row[colEntryID] = e.EntryID
	row[colNumber] = e.Number
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp: ts,
		User:      record[colUser],
		Action:    record[colAction],
		EntryID:   record[colEntryID],
		Number:    record[colNumber],
		Details:   record[colDetails],
	}, nil
}

// Append writes entries to <root>/logs/audit-log.csv, creating the file and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <root>/logs/audit-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	path := filepath.Join(root, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

// History returns the entries recorded for one journal entry, oldest first.
func History(root, entryID string) ([]Entry, error) {
	all, err := Read(root)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if e.EntryID == entryID {
			out = append(out, e)
		}
	}
	return out, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Log appends to the audit log of one books directory.
type Log struct {
	mu   sync.Mutex
	root string
}

// New returns a Log rooted at root.
func New(root string) *Log {
	return &Log{root: root}
}

// Record appends a single entry.
func (l *Log) Record(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Append(l.root, []Entry{e})
}
