// Package importer turns exported journal files into entries.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecompta-dev/ecompta/internal/journal"
	"github.com/ecompta-dev/ecompta/internal/model"
)

// Parser converts a journal export into entry parameters, one per entry.
type Parser interface {
	Parse(r io.Reader) ([]journal.CreateParams, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a file waiting in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&LinesParser{})
	r.Register(&FECParser{})
	return r
}

// importDir is the subdirectory for files to import.
const importDir = "import"

// processedDir is the subdirectory for imported files.
const processedDir = "import/processed"

// importable lists the extensions Scan picks up.
var importable = []string{".csv", ".txt"}

// Scan returns the importable files in <root>/import/.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !hasExt(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

func hasExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, x := range importable {
		if ext == x {
			return true
		}
	}
	return false
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}

// Creator stores new entries. *journal.Service satisfies it.
type Creator interface {
	Create(p journal.CreateParams) (*model.Entry, error)
}

// Failure is an entry of a file that could not be created.
type Failure struct {
	Piece string
	Err   error
}

// Result summarizes the import of one file.
type Result struct {
	File    string
	Created []*model.Entry
	Failed  []Failure
}

// ImportFile parses path with p and creates every entry through c with
// origin file-import. A file that does not parse creates nothing; entries
// refused by c are reported in Result.Failed and do not stop the import.
func ImportFile(c Creator, p Parser, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	params, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s as %s: %w", filepath.Base(path), p.Format(), err)
	}

	res := &Result{File: filepath.Base(path)}
	for _, cp := range params {
		cp.Origin = model.OriginFileImport
		e, err := c.Create(cp)
		if err != nil {
			res.Failed = append(res.Failed, Failure{Piece: cp.Piece, Err: err})
			continue
		}
		res.Created = append(res.Created, e)
	}
	return res, nil
}

// grouper collects lines into entries keyed by journal and piece, keeping
// the order in which entries first appear.
type grouper struct {
	index   map[string]int
	entries []journal.CreateParams
}

func newGrouper() *grouper {
	return &grouper{index: make(map[string]int)}
}

// add appends line to the entry for (head.Journal, head.Piece), creating it
// from head when it is new.
func (g *grouper) add(head journal.CreateParams, line journal.LineParams) {
	key := head.Journal + "\x00" + head.Piece
	i, ok := g.index[key]
	if !ok {
		i = len(g.entries)
		g.index[key] = i
		g.entries = append(g.entries, head)
	}
	g.entries[i].Lines = append(g.entries[i].Lines, line)
}
