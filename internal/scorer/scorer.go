// Package scorer holds the built-in scoring methods that turn model outputs
// into per-case score results.
package scorer

import (
	"context"
	"fmt"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// Batch is a slice of model outputs plus the aligned suite data a scorer may
// need. References and Contexts are nil when the suite or caller has none.
type Batch struct {
	Candidates []string
	References []string
	Inputs     []string
	Contexts   []string
}

// Len returns the number of outputs in the batch.
func (b Batch) Len() int {
	return len(b.Candidates)
}

// Scorer scores a batch of outputs.
type Scorer interface {
	// Name returns the identifier stored on suites, e.g. "exact_match".
	Name() string
	OutputType() testsuite.OutputType
	// Categories lists the labels a categorical scorer may assign.
	Categories() []testsuite.Category
	RequiresReference() bool
	RequiresContext() bool
	// RunBatch returns one result per candidate, in order.
	RunBatch(ctx context.Context, b Batch) ([]testsuite.ScoreResult, error)
}

// Meta returns the scoring method record describing s, as stored on a suite.
func Meta(s Scorer, config map[string]any) testsuite.ScoringMethod {
	return testsuite.ScoringMethod{
		Name:       s.Name(),
		Type:       testsuite.BuiltIn,
		OutputType: s.OutputType(),
		Categories: s.Categories(),
		Config:     config,
	}
}

// Check verifies that b carries everything s needs and that its slices line up.
func Check(s Scorer, b Batch) error {
	n := b.Len()
	if len(b.Inputs) != 0 && len(b.Inputs) != n {
		return testsuite.InvalidArgumentf("batch has %d inputs for %d outputs", len(b.Inputs), n)
	}
	if s.RequiresReference() {
		if b.References == nil {
			return testsuite.InvalidArgumentf("reference outputs must be provided for the %s scorer", s.Name())
		}
		if len(b.References) != n {
			return testsuite.InvalidArgumentf("batch has %d reference outputs for %d outputs", len(b.References), n)
		}
	}
	if s.RequiresContext() {
		if b.Contexts == nil {
			return testsuite.InvalidArgumentf("context must be provided for the %s scorer", s.Name())
		}
		if len(b.Contexts) != n {
			return testsuite.InvalidArgumentf("batch has %d contexts for %d outputs", len(b.Contexts), n)
		}
	}
	return nil
}

func continuous(v float64) testsuite.ScoreResult {
	return testsuite.ScoreResult{Score: &v}
}

func boolConfig(config map[string]any, key string, def bool) (bool, error) {
	raw, ok := config[key]
	if !ok || raw == nil {
		return def, nil
	}
	v, ok := raw.(bool)
	if !ok {
		return false, testsuite.InvalidArgumentf("scorer config %q must be a boolean, got %v", key, raw)
	}
	return v, nil
}

func stringConfig(config map[string]any, key string) (string, error) {
	raw, ok := config[key]
	if !ok || raw == nil {
		return "", nil
	}
	v, ok := raw.(string)
	if !ok {
		return "", testsuite.InvalidArgumentf("scorer config %q must be a string, got %s", key, fmt.Sprint(raw))
	}
	return v, nil
}
