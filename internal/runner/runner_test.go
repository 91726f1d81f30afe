package runner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/llm-bench/internal/bench"
	"github.com/giantswarm/llm-bench/internal/fsstore"
	"github.com/giantswarm/llm-bench/internal/metrics"
	"github.com/giantswarm/llm-bench/internal/scorer"
	"github.com/giantswarm/llm-bench/internal/testsuite"
	"github.com/giantswarm/llm-bench/internal/testutil"
)

func strPtr(s string) *string { return &s }

func newBench(t *testing.T) *bench.Client {
	t.Helper()
	store, err := fsstore.New(filepath.Join(t.TempDir(), "bench_runs"), fsstore.WithLockTimeout(time.Second))
	require.NoError(t, err)
	return bench.New(store)
}

func createSuite(t *testing.T, b *bench.Client, name, method string, withRefs bool, inputs ...string) *testsuite.TestSuite {
	t.Helper()
	m, err := scorer.Resolve(testsuite.ScoringMethod{Name: method, Type: testsuite.BuiltIn})
	require.NoError(t, err)
	req := &testsuite.CreateSuiteRequest{Name: name, ScoringMethod: m}
	for i, in := range inputs {
		tc := testsuite.TestCaseRequest{Input: in}
		if withRefs {
			tc.ReferenceOutput = strPtr("A" + string(rune('1'+i)))
		}
		req.TestCases = append(req.TestCases, tc)
	}
	suite, err := b.CreateTestSuite(context.Background(), req)
	require.NoError(t, err)
	return suite
}

func TestRunExactMatch(t *testing.T) {
	b := newBench(t)
	suite := createSuite(t, b, "capitals", scorer.ExactMatchName, true, "Q1", "Q2", "Q3")

	r := NewRunner(b, scorer.Deps{})
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r.SetMetrics(m)

	var progress []int
	r.SetProgressFunc(func(done, total int) {
		assert.Equal(t, 3, total)
		progress = append(progress, done)
	})

	run, err := r.Run(context.Background(), RunRequest{
		SuiteName: "capitals",
		RunName:   "baseline",
		Outputs:   []string{"A1", "wrong", "A3"},
		BatchSize: 2,
		ModelName: "gpt-test",
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, progress)
	assert.Equal(t, suite.ID, run.TestSuiteID)
	assert.Equal(t, "gpt-test", run.ModelName)
	require.Len(t, run.TestCases, 3)
	assert.Equal(t, suite.TestCases[1].ID, run.TestCases[1].ID)
	assert.InDelta(t, 2.0/3.0, run.AverageScore(), 1e-9)
	require.NotNil(t, run.TestCases[1].Score)
	assert.Equal(t, 0.0, *run.TestCases[1].Score)
	assert.Equal(t, 3.0, promtestutil.ToFloat64(m.CasesScored.WithLabelValues(scorer.ExactMatchName)))

	full, err := b.GetFullSuite(context.Background(), "capitals")
	require.NoError(t, err)
	assert.Equal(t, 1, full.NumRuns)
}

func TestRunQACorrectness(t *testing.T) {
	b := newBench(t)
	createSuite(t, b, "rag", scorer.QACorrectnessName, false, "Q1", "Q2")

	client := &testutil.MockLLMClient{Sequence: []string{"1", "NA"}}
	r := NewRunner(b, scorer.Deps{LLM: client, Model: "judge"})

	run, err := r.Run(context.Background(), RunRequest{
		SuiteName: "rag",
		RunName:   "r1",
		Outputs:   []string{"a1", "a2"},
		Contexts:  []string{"c1", "c2"},
	})
	require.NoError(t, err)
	require.Len(t, run.TestCases, 2)
	assert.Equal(t, scorer.CategoryCorrect, run.TestCases[0].ScoreResult.Category.Name)
	assert.Equal(t, scorer.CategoryUnclear, run.TestCases[1].ScoreResult.Category.Name)
	assert.Equal(t, 2, client.Calls)
}

func TestRunRejects(t *testing.T) {
	b := newBench(t)
	createSuite(t, b, "capitals", scorer.ExactMatchName, true, "Q1", "Q2")
	r := NewRunner(b, scorer.Deps{})
	ctx := context.Background()

	_, err := r.Run(ctx, RunRequest{SuiteName: "missing", RunName: "r", Outputs: []string{"x"}})
	assert.ErrorIs(t, err, testsuite.ErrNotFound)

	_, err = r.Run(ctx, RunRequest{SuiteName: "capitals", RunName: "r", Outputs: []string{"x"}})
	assert.ErrorIs(t, err, testsuite.ErrInvalidArgument)
	assert.ErrorContains(t, err, "got 1 outputs for 2 test cases")

	_, err = r.Run(ctx, RunRequest{SuiteName: "capitals", RunName: "r", Outputs: []string{"x", "y"}, Contexts: []string{"c"}})
	assert.ErrorContains(t, err, "got 1 contexts")

	_, err = r.Run(ctx, RunRequest{SuiteName: "capitals", Outputs: []string{"x", "y"}})
	assert.ErrorIs(t, err, testsuite.ErrInvalidArgument)

	_, err = r.Run(ctx, RunRequest{SuiteName: "capitals", RunName: "r", Outputs: []string{"A1", "A2"}})
	require.NoError(t, err)

	_, err = r.Run(ctx, RunRequest{SuiteName: "capitals", RunName: "r", Outputs: []string{"A1", "A2"}})
	assert.ErrorIs(t, err, testsuite.ErrAlreadyExists)
}

func TestRunCustomMethodUnsupported(t *testing.T) {
	b := newBench(t)
	_, err := b.CreateTestSuite(context.Background(), &testsuite.CreateSuiteRequest{
		Name:          "custom",
		ScoringMethod: testsuite.ScoringMethod{Name: "mine", Type: testsuite.Custom, OutputType: testsuite.Continuous},
		TestCases:     []testsuite.TestCaseRequest{{Input: "Q"}},
	})
	require.NoError(t, err)

	_, err = NewRunner(b, scorer.Deps{}).Run(context.Background(), RunRequest{SuiteName: "custom", RunName: "r", Outputs: []string{"x"}})
	var unsupported *scorer.UnsupportedScorerError
	assert.True(t, errors.As(err, &unsupported))
}

func TestRunScorerFailureSavesNothing(t *testing.T) {
	b := newBench(t)
	suite := createSuite(t, b, "rag", scorer.QACorrectnessName, false, "Q1")
	client := &testutil.MockLLMClient{Err: errors.New("judge offline")}

	_, err := NewRunner(b, scorer.Deps{LLM: client, Model: "judge"}).Run(context.Background(), RunRequest{
		SuiteName: "rag",
		RunName:   "r1",
		Outputs:   []string{"a"},
		Contexts:  []string{"c"},
	})
	assert.ErrorContains(t, err, "judge offline")

	exists, err := b.RunExists(context.Background(), suite.ID, "r1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunCancelled(t *testing.T) {
	b := newBench(t)
	createSuite(t, b, "capitals", scorer.ExactMatchName, true, "Q1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(b, scorer.Deps{}).Run(ctx, RunRequest{SuiteName: "capitals", RunName: "r", Outputs: []string{"A1"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatResults(t *testing.T) {
	one := 1.0
	out := FormatResults([]bench.RunResult{
		{Input: "Q1", ReferenceOutput: strPtr("A1"), Output: "A1", ScoreResult: testsuite.ScoreResult{Score: &one}},
		{Input: "Q2", Output: "?", ScoreResult: testsuite.ScoreResult{Category: &testsuite.Category{Name: "unclear"}}},
	})
	assert.Contains(t, out, "NO. 1")
	assert.Contains(t, out, "REFERENCE OUTPUT: A1")
	assert.Contains(t, out, "SCORE: 1\n")
	assert.Contains(t, out, "SCORE: unclear\n")
}
