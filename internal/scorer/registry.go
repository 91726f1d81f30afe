package scorer

import (
	"maps"
	"slices"

	"github.com/giantswarm/llm-bench/internal/llm"
	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// Deps carries the collaborators scorers may need. LLM-judged scorers fail
// to run without a client.
type Deps struct {
	LLM   llm.Client
	Model string
}

type factory func(config map[string]any, deps Deps) (Scorer, error)

var builtins = map[string]factory{
	ExactMatchName:     newExactMatch,
	WordCountMatchName: newWordCountMatch,
	QACorrectnessName:  newQACorrectness,
}

// Get returns the built-in scorer called name, configured with config.
func Get(name string, config map[string]any, deps Deps) (Scorer, error) {
	f, ok := builtins[name]
	if !ok {
		return nil, &UnsupportedScorerError{Name: name}
	}
	return f(config, deps)
}

// ForMethod returns the scorer a suite's scoring method refers to.
func ForMethod(m testsuite.ScoringMethod, deps Deps) (Scorer, error) {
	if m.Type == testsuite.Custom {
		return nil, &UnsupportedScorerError{Name: m.Name, Custom: true}
	}
	return Get(m.Name, m.Config, deps)
}

// Resolve fills in the output type and categories of a built-in method from
// its scorer. Custom methods are returned unchanged.
func Resolve(m testsuite.ScoringMethod) (testsuite.ScoringMethod, error) {
	if m.Type == testsuite.Custom {
		return m, nil
	}
	s, err := Get(m.Name, m.Config, Deps{})
	if err != nil {
		return testsuite.ScoringMethod{}, err
	}
	return Meta(s, m.Config), nil
}

// Names lists the built-in scorers, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(builtins))
}

// UnsupportedScorerError is returned when an unknown scorer is requested.
type UnsupportedScorerError struct {
	Name   string
	Custom bool
}

func (e *UnsupportedScorerError) Error() string {
	if e.Custom {
		return "custom scoring method cannot be run locally: " + e.Name
	}
	return "unsupported scoring method: " + e.Name
}

// Unwrap lets callers treat the error as bad input.
func (e *UnsupportedScorerError) Unwrap() error {
	return testsuite.ErrInvalidArgument
}
