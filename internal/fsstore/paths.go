package fsstore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

const (
	suiteIndexFile = "suite_id_to_name.json"
	runIndexFile   = "run_id_to_name.json"
	suiteFile      = "suite.json"
	runFile        = "run.json"
)

// ValidateName rejects suite and run names that cannot be used as a single
// directory name under the store root.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return testsuite.InvalidArgumentf("name is required")
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, filepath.Separator) {
		return testsuite.InvalidArgumentf("name %q contains a path separator", name)
	}
	if name == "." || name == ".." {
		return testsuite.InvalidArgumentf("name %q is not allowed", name)
	}
	if strings.HasPrefix(name, ".") {
		return testsuite.InvalidArgumentf("name %q must not start with a dot", name)
	}
	return nil
}

func (s *Store) suiteDir(name string) string {
	return filepath.Join(s.root, name)
}

func (s *Store) suitePath(name string) string {
	return filepath.Join(s.root, name, suiteFile)
}

func (s *Store) runDir(suiteName, runName string) string {
	return filepath.Join(s.root, suiteName, runName)
}

func (s *Store) runPath(suiteName, runName string) string {
	return filepath.Join(s.root, suiteName, runName, runFile)
}

func lockPath(scopeDir string) string {
	return filepath.Join(scopeDir, lockDirName)
}

// listRecordDirs returns, in name order, the subdirectories of dir holding file.
func listRecordDirs(dir, file string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), file)); err == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
