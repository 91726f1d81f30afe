// Package fsstore persists test suites and runs as JSON files under a root
// directory:
//
//	<root>/suite_id_to_name.json
//	<root>/<suite>/suite.json
//	<root>/<suite>/run_id_to_name.json
//	<root>/<suite>/<run>/run.json
//
// Every whole-file rewrite is atomic, and every read-modify-write section holds
// both an in-process mutex and a lock directory for its scope.
package fsstore

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLockTimeout bounds how long a writer waits for a scope lock.
const DefaultLockTimeout = 5 * time.Second

// Store is the file-backed suite and run repository.
type Store struct {
	root        string
	lockTimeout time.Duration
	newID       func() uuid.UUID
	now         func() time.Time

	mu     sync.Mutex
	scopes map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout sets how long writers wait for a scope lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.lockTimeout = d
	}
}

// WithIDGenerator overrides how new suite, case, and run ids are allocated.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithClock overrides the time source used for created and updated stamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		s.now = fn
	}
}

// New opens (creating if needed) a store rooted at root.
func New(root string, opts ...Option) (*Store, error) {
	s := &Store{
		root:        root,
		lockTimeout: DefaultLockTimeout,
		newID:       uuid.New,
		now:         time.Now,
		scopes:      make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bench directory %s: %w", root, err)
	}
	if err := s.suiteIndex().EnsureExists(); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the directory the store writes under.
func (s *Store) Root() string {
	return s.root
}

// NewID allocates an id from the store's generator.
func (s *Store) NewID() uuid.UUID {
	return s.newID()
}

// withScopeLock serialises fn against other writers of the scope directory,
// in this process and in others.
func (s *Store) withScopeLock(scopeDir string, fn func() error) error {
	s.mu.Lock()
	m, ok := s.scopes[scopeDir]
	if !ok {
		m = &sync.Mutex{}
		s.scopes[scopeDir] = m
	}
	s.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return withDirLock(lockPath(scopeDir), s.lockTimeout, fn)
}
