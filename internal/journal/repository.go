package journal

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ecompta-dev/ecompta/internal/model"
)

// Filter narrows Repository.List. Zero fields match everything.
type Filter struct {
	Journal string
	Status  model.EntryStatus
	Period  string // "YYYY-MM"
}

func (f Filter) match(e *model.Entry) bool {
	if f.Journal != "" && e.Journal != f.Journal {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Period != "" && e.Period != f.Period {
		return false
	}
	return true
}

// Repository stores entries. Implementations hand out copies: mutating a
// returned entry never changes the stored one.
type Repository interface {
	// Get returns the entry or an error wrapping ErrNotFound.
	Get(id string) (*model.Entry, error)
	// List returns matching entries in insertion order.
	List(f Filter) ([]*model.Entry, error)
	// Upsert inserts or replaces the entry with e.ID.
	Upsert(e *model.Entry) error
	// Delete removes the entry or returns an error wrapping ErrNotFound.
	Delete(id string) error
}

// MemoryRepository is a Repository held in memory. It is safe for
// concurrent use.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*model.Entry
	index   map[string]int
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{index: make(map[string]int)}
}

func (r *MemoryRepository) Get(id string) (*model.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return r.entries[i].Clone(), nil
}

func (r *MemoryRepository) List(f Filter) ([]*model.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Entry
	for _, e := range r.entries {
		if f.match(e) {
			out = append(out, e.Clone())
		}
	}
	return out, nil
}

func (r *MemoryRepository) Upsert(e *model.Entry) error {
	if e.ID == "" {
		return fmt.Errorf("upserting entry: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[e.ID]; ok {
		r.entries[i] = e.Clone()
		return nil
	}
	r.index[e.ID] = len(r.entries)
	r.entries = append(r.entries, e.Clone())
	return nil
}

func (r *MemoryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		return fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.entries); j++ {
		r.index[r.entries[j].ID] = j
	}
	return nil
}

// EntriesPath is the entries file location relative to the books root.
const EntriesPath = "journal/entries.csv"

// FileRepository stores entries in <root>/journal/entries.csv. Every write
// rewrites the whole file through a temporary file and a rename.
type FileRepository struct {
	mu   sync.Mutex
	root string
	loc  *time.Location
}

// NewFileRepository returns a FileRepository for a books root whose entry
// dates are local calendar days.
func NewFileRepository(root string) *FileRepository {
	return NewFileRepositoryIn(root, time.Local)
}

// NewFileRepositoryIn returns a FileRepository reading entry dates as
// calendar days in loc. loc must match the clock of the service using it.
func NewFileRepositoryIn(root string, loc *time.Location) *FileRepository {
	return &FileRepository{root: root, loc: loc}
}

func (r *FileRepository) path() string {
	return filepath.Join(r.root, EntriesPath)
}

func (r *FileRepository) Get(id string) (*model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
}

func (r *FileRepository) List(f Filter) ([]*model.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.load()
	if err != nil {
		return nil, err
	}
	var out []*model.Entry
	for _, e := range entries {
		if f.match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *FileRepository) Upsert(e *model.Entry) error {
	if e.ID == "" {
		return fmt.Errorf("upserting entry: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range entries {
		if entries[i].ID == e.ID {
			entries[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, e)
	}
	return r.store(entries)
}

func (r *FileRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, err := r.load()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == id {
			return r.store(append(entries[:i], entries[i+1:]...))
		}
	}
	return fmt.Errorf("entry %s: %w", id, ErrNotFound)
}

func (r *FileRepository) load() ([]*model.Entry, error) {
	f, err := os.Open(r.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening entries %s: %w", r.path(), err)
	}
	defer f.Close()

	entries, err := ReadEntriesIn(f, r.loc)
	if err != nil {
		return nil, fmt.Errorf("reading entries %s: %w", r.path(), err)
	}
	return entries, nil
}

func (r *FileRepository) store(entries []*model.Entry) error {
	path := r.path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating journal dir: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteEntries(&buf, entries); err != nil {
		return fmt.Errorf("encoding entries: %w", err)
	}

	tmp := fmt.Sprintf("%s.%d.tmp", path, time.Now().UnixNano())
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing entries: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing entries: %w", err)
	}
	return nil
}
