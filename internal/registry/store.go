package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is returned by a Store when a chapter id has no document.
var ErrNotFound = errors.New("chapter not found")

// Store is the raw document source behind the registry.
type Store interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, id string) ([]byte, error)
	Write(ctx context.Context, id string, data []byte) error
}

// Extensions recognized as chapter documents, in lookup order.
var Extensions = []string{".mdx", ".md"}

// FSStore keeps one file per chapter in a single directory of an afero.Fs.
type FSStore struct {
	fs  afero.Fs
	dir string
}

// NewFSStore returns a store rooted at dir inside fs.
func NewFSStore(fs afero.Fs, dir string) *FSStore {
	return &FSStore{fs: fs, dir: dir}
}

// NewDirStore returns a store over a directory of the local filesystem.
func NewDirStore(dir string) *FSStore {
	return NewFSStore(afero.NewBasePathFs(afero.NewOsFs(), dir), "/")
}

// Fs exposes the underlying filesystem for sibling content files.
func (s *FSStore) Fs() afero.Fs {
	return s.fs
}

// Dir is the chapter directory inside Fs.
func (s *FSStore) Dir() string {
	return s.dir
}

// List returns chapter ids sorted by name. A missing directory is an empty store.
func (s *FSStore) List(ctx context.Context) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list chapters: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		for _, ext := range Extensions {
			if strings.HasSuffix(name, ext) {
				id := strings.TrimSuffix(name, ext)
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Read returns the raw document for id, or ErrNotFound.
func (s *FSStore) Read(ctx context.Context, id string) ([]byte, error) {
	for _, ext := range Extensions {
		data, err := afero.ReadFile(s.fs, path.Join(s.dir, id+ext))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read chapter %s: %w", id, err)
		}
	}
	return nil, ErrNotFound
}

// Write stores data as <id>.md, replacing any existing document for id.
func (s *FSStore) Write(ctx context.Context, id string, data []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create content dir: %w", err)
	}
	for _, ext := range Extensions {
		p := path.Join(s.dir, id+ext)
		if ext != ".md" {
			if err := s.fs.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove %s: %w", p, err)
			}
		}
	}
	if err := afero.WriteFile(s.fs, path.Join(s.dir, id+".md"), data, 0o644); err != nil {
		return fmt.Errorf("write chapter %s: %w", id, err)
	}
	return nil
}
