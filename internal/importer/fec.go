package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ecompta-dev/ecompta/internal/journal"
)

// FECParser reads a "fichier des écritures comptables": 18 columns separated
// by tabs or pipes, dates as YYYYMMDD, decimal commas.
type FECParser struct{}

const (
	fecNumFields   = 18
	fecDateFormat  = "20060102"
	fecColJournal  = 0
	fecColNum      = 2
	fecColDate     = 3
	fecColAccount  = 4
	fecColAuxNum   = 6
	fecColPieceRef = 8
	fecColLabel    = 10
	fecColDebit    = 11
	fecColCredit   = 12
)

// Format returns the parser name.
func (p *FECParser) Format() string { return "fec" }

// Parse reads a FEC file. Rows sharing a journal code and entry number form
// one entry; the piece reference becomes the entry reference.
func (p *FECParser) Parse(r io.Reader) ([]journal.CreateParams, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("reading FEC: %w", err)
	}
	if len(first) == 0 {
		return nil, nil
	}

	cr := csv.NewReader(br)
	cr.Comma = '\t'
	header, _, _ := bytes.Cut(first, []byte("\n"))
	if !bytes.ContainsRune(header, '\t') && bytes.ContainsRune(header, '|') {
		cr.Comma = '|'
	}
	cr.FieldsPerRecord = fecNumFields
	cr.LazyQuotes = true

	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("reading FEC header: %w", err)
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

		date, err := time.Parse(fecDateFormat, rec[fecColDate])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", row, rec[fecColDate], err)
		}
		debit, err := parseAmount(rec[fecColDebit])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		credit, err := parseAmount(rec[fecColCredit])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		g.add(journal.CreateParams{
			Date:      date,
			Journal:   rec[fecColJournal],
			Label:     rec[fecColLabel],
			Reference: rec[fecColPieceRef],
			Piece:     rec[fecColNum],
		}, journal.LineParams{
			Account:      rec[fecColAccount],
			Label:        rec[fecColLabel],
			Debit:        debit,
			Credit:       credit,
			Counterparty: rec[fecColAuxNum],
		})
	}
	return g.entries, nil
}
