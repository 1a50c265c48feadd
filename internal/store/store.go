package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dukerupert/choreboard/internal/model"
)

// Store holds the five-collection document persisted as a single JSON file.
//
// Every operation is a full read-modify-write cycle: the document is reloaded
// from disk, mutated in memory, and written back whole. View and Update
// serialize those cycles per store instance, so concurrent requests within
// one process never interleave. The file itself carries no lock: a second
// process writing the same path is last-write-wins on the whole document.
type Store struct {
	path string

	mu  sync.Mutex
	doc *model.Document
}

// Open loads the document at path, creating the parent directory and an
// empty document if none exists. A pre-existing document is repaired: missing
// or malformed collections are coerced to empty arrays, names are trimmed,
// and duplicate groups/chores/goals are collapsed to the first-encountered
// record. The repaired document is written back before Open returns.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{path: path}

	fresh, err := s.load()
	if err != nil {
		return nil, err
	}
	if !fresh {
		normalize(s.doc)
	}
	if err := s.write(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads the document from disk into memory. It reports whether the
// document was freshly initialized (no file on disk).
func (s *Store) load() (fresh bool, err error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.doc = model.NewDocument()
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read document: %w", err)
	}

	doc := &model.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return false, fmt.Errorf("decode document: %w", err)
	}
	healCollections(doc)
	s.doc = doc
	return false, nil
}

// healCollections coerces any absent collection to an empty array so the
// five fields are always present and iterable.
func healCollections(doc *model.Document) {
	if doc.Users == nil {
		doc.Users = []model.User{}
	}
	if doc.Chores == nil {
		doc.Chores = []model.Chore{}
	}
	if doc.Logs == nil {
		doc.Logs = []model.Log{}
	}
	if doc.Groups == nil {
		doc.Groups = []model.Group{}
	}
	if doc.WeeklyGoals == nil {
		doc.WeeklyGoals = []model.WeeklyGoal{}
	}
}

// write persists the full in-memory document. The write is atomic at the
// file level: a temp file in the same directory is renamed over the target,
// so a crash leaves either the old or the new document, never a partial one.
func (s *Store) write() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".db-*.json")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// View runs fn against a freshly loaded document without writing it back.
func (s *Store) View(fn func(doc *model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(); err != nil {
		return err
	}
	return fn(s.doc)
}

// Update runs fn against a freshly loaded document and persists the result.
// If fn returns an error the document is not written and the last
// successfully written state remains on disk.
func (s *Store) Update(fn func(doc *model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.load(); err != nil {
		return err
	}
	if err := fn(s.doc); err != nil {
		return err
	}
	return s.write()
}

// Path returns the on-disk location of the document.
func (s *Store) Path() string {
	return s.path
}
