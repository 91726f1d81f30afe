package fsstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// CreateRun writes run under suiteName and registers it in the suite's run
// index. A run directory that already exists is ErrAlreadyExists.
func (s *Store) CreateRun(suiteName string, run *testsuite.TestRun) error {
	if err := ValidateName(suiteName); err != nil {
		return err
	}
	if err := ValidateName(run.Name); err != nil {
		return err
	}
	if !s.SuiteExists(suiteName) {
		return testsuite.NotFoundf("test suite %q", suiteName)
	}

	dir := s.runDir(suiteName, run.Name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return testsuite.AlreadyExistsf("test run %q for suite %q", run.Name, suiteName)
		}
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	if err := writeJSONAtomic(s.runPath(suiteName, run.Name), run); err != nil {
		_ = os.RemoveAll(dir)
		return err
	}

	ix := s.runIndex(suiteName)
	if err := ix.EnsureExists(); err != nil {
		return err
	}
	if err := ix.Put(run.ID, run.Name); err != nil {
		return fmt.Errorf("failed to register run %q: %w", run.Name, err)
	}
	return nil
}

// GetRunByID resolves id through the suite's run index and reads the run.
func (s *Store) GetRunByID(suiteName string, id uuid.UUID) (*testsuite.TestRun, error) {
	if err := ValidateName(suiteName); err != nil {
		return nil, err
	}
	name, err := s.runIndex(suiteName).Get(id)
	if err != nil {
		if errors.Is(err, testsuite.ErrNotFound) {
			return nil, testsuite.NotFoundf("test run %s in suite %q", id, suiteName)
		}
		return nil, err
	}

	run, err := s.GetRunByName(suiteName, name)
	if errors.Is(err, testsuite.ErrNotFound) {
		return nil, testsuite.Internalf("run index maps %s to %q but the run is missing", id, name)
	}
	if err != nil {
		return nil, err
	}
	if run.ID != id {
		return nil, testsuite.Internalf("run index maps %s to %q but the run has id %s", id, name, run.ID)
	}
	return run, nil
}

// GetRunByName reads a run directly from its directory.
func (s *Store) GetRunByName(suiteName, runName string) (*testsuite.TestRun, error) {
	if err := ValidateName(runName); err != nil {
		return nil, err
	}
	return s.readRun(suiteName, runName)
}

// ListRunNames returns the names of the runs of a suite, sorted.
func (s *Store) ListRunNames(suiteName string) ([]string, error) {
	if err := ValidateName(suiteName); err != nil {
		return nil, err
	}
	names, err := listRecordDirs(s.suiteDir(suiteName), runFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, testsuite.NotFoundf("test suite %q", suiteName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list runs of suite %q: %w", suiteName, err)
	}
	return names, nil
}

// ListRunFiles returns the run.json paths of a suite's runs.
func (s *Store) ListRunFiles(suiteName string) ([]string, error) {
	names, err := s.ListRunNames(suiteName)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, s.runPath(suiteName, name))
	}
	return paths, nil
}

// ListRuns reads every run of a suite, in name order.
func (s *Store) ListRuns(suiteName string) ([]*testsuite.TestRun, error) {
	names, err := s.ListRunNames(suiteName)
	if err != nil {
		return nil, err
	}
	runs := make([]*testsuite.TestRun, 0, len(names))
	for _, name := range names {
		run, err := s.readRun(suiteName, name)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (s *Store) readRun(suiteName, runName string) (*testsuite.TestRun, error) {
	data, err := os.ReadFile(s.runPath(suiteName, runName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, testsuite.NotFoundf("test run %q in suite %q", runName, suiteName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run %q of suite %q: %w", runName, suiteName, err)
	}
	var run testsuite.TestRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, testsuite.Internalf("run %q of suite %q is corrupt: %v", runName, suiteName, err)
	}
	return &run, nil
}
