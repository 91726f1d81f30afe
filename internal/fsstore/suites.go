package fsstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// CreateSuite validates req and writes a new suite with fresh ids. A suite
// directory that already exists is ErrAlreadyExists.
func (s *Store) CreateSuite(req *testsuite.CreateSuiteRequest) (*testsuite.TestSuite, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateName(req.Name); err != nil {
		return nil, err
	}

	dir := s.suiteDir(req.Name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, testsuite.AlreadyExistsf("test suite %q", req.Name)
		}
		return nil, fmt.Errorf("failed to create suite directory: %w", err)
	}

	created := req.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	ts := testsuite.NewTimestamp(created)

	suite := &testsuite.TestSuite{
		ID:            s.newID(),
		Name:          req.Name,
		Description:   req.Description,
		ScoringMethod: req.ScoringMethod,
		TestCases:     make([]testsuite.TestCase, 0, len(req.TestCases)),
		CreatedAt:     ts,
		UpdatedAt:     ts,
		CreatedBy:     req.CreatedBy,
		BenchVersion:  req.BenchVersion,
	}
	for _, c := range req.TestCases {
		suite.TestCases = append(suite.TestCases, testsuite.TestCase{
			ID:              s.newID(),
			Input:           c.Input,
			ReferenceOutput: c.ReferenceOutput,
		})
	}

	if err := writeJSONAtomic(s.suitePath(req.Name), suite); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	if err := s.suiteIndex().Put(suite.ID, suite.Name); err != nil {
		return nil, fmt.Errorf("failed to register suite %q: %w", suite.Name, err)
	}
	if err := s.runIndex(suite.Name).EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to initialise run index for suite %q: %w", suite.Name, err)
	}

	slog.Debug("created test suite", "suite", suite.Name, "id", suite.ID, "cases", len(suite.TestCases))
	return suite, nil
}

// GetSuiteByID resolves id through the suite index and reads the suite.
func (s *Store) GetSuiteByID(id uuid.UUID) (*testsuite.TestSuite, error) {
	name, err := s.suiteIndex().Get(id)
	if err != nil {
		if errors.Is(err, testsuite.ErrNotFound) {
			return nil, testsuite.NotFoundf("test suite %s", id)
		}
		return nil, err
	}

	suite, err := s.GetSuiteByName(name)
	if errors.Is(err, testsuite.ErrNotFound) {
		return nil, testsuite.Internalf("suite index maps %s to %q but the suite is missing", id, name)
	}
	if err != nil {
		return nil, err
	}
	if suite.ID != id {
		return nil, testsuite.Internalf("suite index maps %s to %q but the suite has id %s", id, name, suite.ID)
	}
	return suite, nil
}

// GetSuiteByName reads a suite from its directory. A legacy record without an
// id is migrated once: it gets an id, the file is rewritten, and the suite and
// run indices are backfilled. Later reads return the same id.
func (s *Store) GetSuiteByName(name string) (*testsuite.TestSuite, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	rec, err := s.readSuiteRecord(name)
	if err != nil {
		return nil, err
	}
	if rec.Legacy != nil {
		return s.migrateSuite(name)
	}
	if err := s.ensureRegistered(rec.Identified); err != nil {
		return nil, err
	}
	return rec.Identified, nil
}

// SuiteExists reports whether a suite directory with a suite record exists.
func (s *Store) SuiteExists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	_, err := os.Stat(s.suitePath(name))
	return err == nil
}

// ListSuiteNames returns the names of all suites, sorted.
func (s *Store) ListSuiteNames() ([]string, error) {
	names, err := listRecordDirs(s.root, suiteFile)
	if err != nil {
		return nil, fmt.Errorf("failed to list suites: %w", err)
	}
	return names, nil
}

// ListSuites reads every suite, migrating legacy records on the way.
func (s *Store) ListSuites() ([]*testsuite.TestSuite, error) {
	names, err := s.ListSuiteNames()
	if err != nil {
		return nil, err
	}
	suites := make([]*testsuite.TestSuite, 0, len(names))
	for _, name := range names {
		suite, err := s.GetSuiteByName(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read suite %q: %w", name, err)
		}
		suites = append(suites, suite)
	}
	return suites, nil
}

// RecordRunCompletion bumps the run count of a suite and sets its last run time.
func (s *Store) RecordRunCompletion(name string, runTime time.Time) error {
	if _, err := s.GetSuiteByName(name); err != nil {
		return err
	}
	return s.withScopeLock(s.suiteDir(name), func() error {
		rec, err := s.readSuiteRecord(name)
		if err != nil {
			return err
		}
		if rec.Identified == nil {
			return testsuite.Internalf("suite %q lost its id during update", name)
		}
		suite := rec.Identified
		last := testsuite.NewTimestamp(runTime)
		suite.NumRuns++
		suite.LastRunTime = &last
		suite.UpdatedAt = testsuite.NewTimestamp(s.now())
		return writeJSONAtomic(s.suitePath(name), suite)
	})
}

func (s *Store) readSuiteRecord(name string) (SuiteRecord, error) {
	data, err := os.ReadFile(s.suitePath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return SuiteRecord{}, testsuite.NotFoundf("test suite %q", name)
	}
	if err != nil {
		return SuiteRecord{}, fmt.Errorf("failed to read suite %q: %w", name, err)
	}
	rec, err := DecodeSuiteRecord(data)
	if err != nil {
		return SuiteRecord{}, fmt.Errorf("suite %q: %w", name, err)
	}
	if rec.Legacy != nil && rec.Legacy.Name == "" {
		rec.Legacy.Name = name
	}
	return rec, nil
}

func (s *Store) migrateSuite(name string) (*testsuite.TestSuite, error) {
	var migrated testsuite.TestSuite
	err := s.withScopeLock(s.suiteDir(name), func() error {
		// Another writer may have migrated the record while we waited.
		rec, err := s.readSuiteRecord(name)
		if err != nil {
			return err
		}
		if rec.Identified != nil {
			migrated = *rec.Identified
			return nil
		}
		migrated = Migrate(*rec.Legacy, s.newID)
		if err := writeJSONAtomic(s.suitePath(name), &migrated); err != nil {
			return err
		}
		slog.Info("migrated legacy test suite", "suite", name, "id", migrated.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.ensureRegistered(&migrated); err != nil {
		return nil, err
	}
	return &migrated, nil
}

// ensureRegistered backfills the suite index entry and run index of a suite
// whose file exists. It is a no-op for suites already registered.
func (s *Store) ensureRegistered(suite *testsuite.TestSuite) error {
	ix := s.suiteIndex()
	name, err := ix.Get(suite.ID)
	switch {
	case err == nil && name == suite.Name:
	case err == nil || errors.Is(err, testsuite.ErrNotFound):
		if err := ix.Put(suite.ID, suite.Name); err != nil {
			return fmt.Errorf("failed to register suite %q: %w", suite.Name, err)
		}
	default:
		return err
	}
	return s.runIndex(suite.Name).EnsureExists()
}
