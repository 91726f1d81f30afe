package fsstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// Index maps ids to names for one scope: all suites, or the runs of one suite.
type Index struct {
	store *Store
	scope string
	path  string
}

func (s *Store) suiteIndex() *Index {
	return &Index{store: s, scope: s.root, path: filepath.Join(s.root, suiteIndexFile)}
}

func (s *Store) runIndex(suiteName string) *Index {
	dir := s.suiteDir(suiteName)
	return &Index{store: s, scope: dir, path: filepath.Join(dir, runIndexFile)}
}

// Get resolves id to a name. An absent entry is ErrNotFound; an absent or
// unreadable index file is ErrInternal.
func (ix *Index) Get(id uuid.UUID) (string, error) {
	entries, err := ix.load()
	if err != nil {
		return "", err
	}
	name, ok := entries[id.String()]
	if !ok {
		return "", testsuite.NotFoundf("id %s", id)
	}
	return name, nil
}

// Put records id -> name, replacing any previous name for id.
func (ix *Index) Put(id uuid.UUID, name string) error {
	return ix.store.withScopeLock(ix.scope, func() error {
		entries, err := ix.load()
		if err != nil {
			return err
		}
		if entries[id.String()] == name {
			return nil
		}
		entries[id.String()] = name
		return writeJSONAtomic(ix.path, entries)
	})
}

// EnsureExists creates an empty index file if there is none.
func (ix *Index) EnsureExists() error {
	if _, err := os.Stat(ix.path); err == nil {
		return nil
	}
	return ix.store.withScopeLock(ix.scope, func() error {
		if _, err := os.Stat(ix.path); err == nil {
			return nil
		}
		return writeJSONAtomic(ix.path, map[string]string{})
	})
}

// Entries returns a copy of the whole index.
func (ix *Index) Entries() (map[string]string, error) {
	return ix.load()
}

func (ix *Index) load() (map[string]string, error) {
	data, err := os.ReadFile(ix.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, testsuite.Internalf("index %s is missing", ix.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", ix.path, err)
	}
	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, testsuite.Internalf("index %s is corrupt: %v", ix.path, err)
	}
	if entries == nil {
		entries = map[string]string{}
	}
	return entries, nil
}
