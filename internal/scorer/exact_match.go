package scorer

import (
	"context"
	"strings"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

const ExactMatchName = "exact_match"

// ExactMatch scores 1 when the output equals the reference and 0 otherwise.
type ExactMatch struct {
	CaseSensitive bool
}

func newExactMatch(config map[string]any, _ Deps) (Scorer, error) {
	cs, err := boolConfig(config, "case_sensitive", true)
	if err != nil {
		return nil, err
	}
	return &ExactMatch{CaseSensitive: cs}, nil
}

func (s *ExactMatch) Name() string                     { return ExactMatchName }
func (s *ExactMatch) OutputType() testsuite.OutputType { return testsuite.Continuous }
func (s *ExactMatch) Categories() []testsuite.Category { return nil }
func (s *ExactMatch) RequiresReference() bool          { return true }
func (s *ExactMatch) RequiresContext() bool            { return false }

func (s *ExactMatch) RunBatch(_ context.Context, b Batch) ([]testsuite.ScoreResult, error) {
	if err := Check(s, b); err != nil {
		return nil, err
	}
	out := make([]testsuite.ScoreResult, b.Len())
	for i, cand := range b.Candidates {
		ref := b.References[i]
		match := cand == ref
		if !s.CaseSensitive {
			match = strings.EqualFold(cand, ref)
		}
		if match {
			out[i] = continuous(1)
		} else {
			out[i] = continuous(0)
		}
	}
	return out, nil
}
