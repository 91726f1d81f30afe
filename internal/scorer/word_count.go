package scorer

import (
	"context"
	"strings"
	"unicode"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

const WordCountMatchName = "word_count_match"

// WordCountMatch scores how close the output's word count is to the
// reference's: the shorter count divided by the longer one.
type WordCountMatch struct{}

func newWordCountMatch(map[string]any, Deps) (Scorer, error) {
	return &WordCountMatch{}, nil
}

func (s *WordCountMatch) Name() string                     { return WordCountMatchName }
func (s *WordCountMatch) OutputType() testsuite.OutputType { return testsuite.Continuous }
func (s *WordCountMatch) Categories() []testsuite.Category { return nil }
func (s *WordCountMatch) RequiresReference() bool          { return true }
func (s *WordCountMatch) RequiresContext() bool            { return false }

func (s *WordCountMatch) RunBatch(_ context.Context, b Batch) ([]testsuite.ScoreResult, error) {
	if err := Check(s, b); err != nil {
		return nil, err
	}
	out := make([]testsuite.ScoreResult, b.Len())
	for i, cand := range b.Candidates {
		out[i] = continuous(countRatio(WordCount(b.References[i]), WordCount(cand)))
	}
	return out, nil
}

func countRatio(ref, cand int) float64 {
	switch {
	case ref == cand:
		return 1
	case cand > ref:
		return float64(ref) / float64(cand)
	default:
		return float64(cand) / float64(ref)
	}
}

// WordCount counts whitespace-separated words, ignoring tokens made only of
// punctuation.
func WordCount(s string) int {
	n := 0
	for _, f := range strings.Fields(s) {
		if strings.IndexFunc(f, func(r rune) bool { return !unicode.IsPunct(r) && !unicode.IsSymbol(r) }) >= 0 {
			n++
		}
	}
	return n
}
