package mcp

import (
	"path/filepath"
	"strings"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// resolveSuiteDir maps a suite_dir argument to a directory under suitesDir.
// Relative paths are joined to suitesDir; absolute ones must already lie within
// it. An empty suitesDir disables directory imports.
func resolveSuiteDir(suitesDir, dir string) (string, error) {
	if strings.TrimSpace(suitesDir) == "" {
		return "", testsuite.InvalidArgumentf("suite directory imports are disabled")
	}
	if strings.TrimSpace(dir) == "" {
		return "", testsuite.InvalidArgumentf("suite_dir is required")
	}

	root, err := filepath.Abs(suitesDir)
	if err != nil {
		return "", testsuite.Internalf("failed to resolve suites directory: %v", err)
	}
	rel := dir
	if filepath.IsAbs(dir) {
		if rel, err = filepath.Rel(root, filepath.Clean(dir)); err != nil {
			return "", testsuite.InvalidArgumentf("path must be within the suites directory")
		}
	}
	if !filepath.IsLocal(rel) {
		return "", testsuite.InvalidArgumentf("path must be within the suites directory")
	}
	return filepath.Join(root, rel), nil
}
