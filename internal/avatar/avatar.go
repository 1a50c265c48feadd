// Package avatar stores uploaded avatar images in a content directory keyed
// by filename. Collision avoidance (random unique names) and extension
// allow-listing live here; the document store only holds the reference.
package avatar

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var allowedExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Store is a directory of avatar files.
type Store struct {
	dir string
}

// NewStore creates the directory if needed and returns the store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the content directory, for static serving.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the upload under a fresh random name. The extension is taken
// from the original filename when allow-listed, defaulting to .png.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExts[ext] {
		ext = ".png"
	}
	name := uuid.NewString() + ext

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write avatar file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close avatar file: %w", err)
	}
	return name, nil
}

// Exists reports whether the named file is present. Names carrying path
// separators never match.
func (s *Store) Exists(name string) bool {
	path, ok := s.safePath(name)
	if !ok {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// List returns all filenames in the store.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read avatar dir: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Delete removes the named file. A missing file is not an error.
func (s *Store) Delete(name string) error {
	path, ok := s.safePath(name)
	if !ok {
		return fmt.Errorf("invalid avatar name %q", name)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete avatar: %w", err)
	}
	return nil
}

// safePath resolves name inside the store directory, rejecting anything that
// would escape it.
func (s *Store) safePath(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}
