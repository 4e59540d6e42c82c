package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecompta-dev/ecompta/internal/journal"
	"github.com/ecompta-dev/ecompta/internal/model"
	"github.com/ecompta-dev/ecompta/internal/validation"
)

var testNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func openTestdata(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestLinesParser_Parse(t *testing.T) {
	entries, err := (&LinesParser{}).Parse(openTestdata(t, "import-lines.csv"))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	purchase := entries[0]
	assert.Equal(t, "ACH", purchase.Journal)
	assert.Equal(t, "PJ-001", purchase.Piece)
	assert.Equal(t, "FAC-881", purchase.Reference)
	assert.Equal(t, "Achat fournitures", purchase.Label)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), purchase.Date)
	require.Len(t, purchase.Lines, 3)
	assert.Equal(t, "445", purchase.Lines[1].Account)
	assert.Equal(t, "45000", purchase.Lines[1].Debit.String())
	assert.True(t, purchase.Lines[1].Credit.IsZero())
	assert.Equal(t, "295000", purchase.Lines[2].Credit.String())

	sale := entries[1]
	assert.Equal(t, "118000", sale.Lines[0].Debit.String(), "spaces and decimal comma")
	assert.Len(t, sale.Lines, 3)
}

func TestLinesParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"bad header", "date,piece,journal,label,reference,account,line_label,debit,credit\n", "unexpected header"},
		{"bad date", strings.Join(LinesHeader, ",") + "\nP1,15/06/2025,ACH,x,,601,,10,\n", "row 2: parsing date"},
		{"bad amount", strings.Join(LinesHeader, ",") + "\nP1,2025-06-15,ACH,x,,601,,ten,\n", "parsing amount"},
		{"short row", strings.Join(LinesHeader, ",") + "\nP1,2025-06-15,ACH\n", "reading row 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&LinesParser{}).Parse(strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestLinesParser_Empty(t *testing.T) {
	entries, err := (&LinesParser{}).Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFECParser_Parse(t *testing.T) {
	entries, err := (&FECParser{}).Parse(openTestdata(t, "import-fec.txt"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "BQ", e.Journal)
	assert.Equal(t, "17", e.Piece)
	assert.Equal(t, "REL-06", e.Reference)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), e.Date)
	require.Len(t, e.Lines, 2)
	assert.Equal(t, "59000", e.Lines[0].Debit.String())
	assert.Equal(t, "C0042", e.Lines[1].Counterparty)
	assert.Equal(t, "59000", e.Lines[1].Credit.String())
}

func TestFECParser_PipeSeparated(t *testing.T) {
	header := "JournalCode|JournalLib|EcritureNum|EcritureDate|CompteNum|CompteLib|CompAuxNum|CompAuxLib|PieceRef|PieceDate|EcritureLib|Debit|Credit|EcritureLet|DateLet|ValidDate|Montantdevise|Idevise\n"
	rows := "OD|Divers|3|20250601|661|Salaires|||PAIE-06|20250601|Paie juin|500000,00|0,00|||||\n" +
		"OD|Divers|3|20250601|421|Personnel|||PAIE-06|20250601|Paie juin|0,00|500000,00|||||\n"

	entries, err := (&FECParser{}).Parse(strings.NewReader(header + rows))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "OD", entries[0].Journal)
	assert.Len(t, entries[0].Lines, 2)
}

func TestFECParser_BadDate(t *testing.T) {
	header := "JournalCode\tJournalLib\tEcritureNum\tEcritureDate\tCompteNum\tCompteLib\tCompAuxNum\tCompAuxLib\tPieceRef\tPieceDate\tEcritureLib\tDebit\tCredit\tEcritureLet\tDateLet\tValidDate\tMontantdevise\tIdevise\n"
	row := "OD\tDivers\t3\t2025-06-01\t661\tSalaires\t\t\tP\t\tPaie\t1,00\t0,00\t\t\t\t\t\n"
	_, err := (&FECParser{}).Parse(strings.NewReader(header + row))
	assert.ErrorContains(t, err, "row 2: parsing date")
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("LINES"))
	assert.NotNil(t, r.Get("fec"))
	assert.Nil(t, r.Get("ofx"))
	assert.Panics(t, func() { r.Register(&FECParser{}) })
}

func TestScanAndMarkProcessed(t *testing.T) {
	root := t.TempDir()
	files, err := Scan(root)
	require.NoError(t, err)
	assert.Empty(t, files, "missing import dir")

	dir := filepath.Join(root, "import")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "processed"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "june.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fec.TXT"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	files, err = Scan(root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "fec.TXT", files[0].Name)
	assert.Equal(t, "june.csv", files[1].Name)
	assert.Equal(t, int64(1), files[1].Size)

	require.NoError(t, MarkProcessed(root, "june.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "june.csv"))
	assert.FileExists(t, filepath.Join(dir, "processed", "june.csv"))
}

func TestImportFile(t *testing.T) {
	accounts := validation.NewAccountSet("401", "411", "443", "445", "521", "601", "701")
	svc := journal.NewService(journal.NewMemoryRepository(), accounts, journal.Options{
		Now: func() time.Time { return testNow },
	})

	res, err := ImportFile(svc, &LinesParser{}, filepath.Join("..", "..", "testdata", "import-lines.csv"))
	require.NoError(t, err)

	assert.Equal(t, "import-lines.csv", res.File)
	require.Len(t, res.Created, 2)
	for _, e := range res.Created {
		assert.Equal(t, model.OriginFileImport, e.Origin)
		assert.True(t, e.Balanced, e.Number)
		assert.Equal(t, 100, e.Validation.Score, e.Number)
	}
	assert.Equal(t, "ACH-2025-000001", res.Created[0].Number)
	assert.Equal(t, "VTE-2025-000001", res.Created[1].Number)

	require.Len(t, res.Failed, 1)
	assert.Equal(t, "PJ-003", res.Failed[0].Piece)
	assert.ErrorIs(t, res.Failed[0].Err, journal.ErrUnknownJournal)
}

func TestImportFile_ParseErrorCreatesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("nope\n"), 0o644))

	svc := journal.NewService(journal.NewMemoryRepository(), validation.NewAccountSet(), journal.Options{})
	_, err := ImportFile(svc, &LinesParser{}, path)
	assert.ErrorContains(t, err, "parsing bad.csv as lines")

	entries, err := svc.List(journal.Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
