// Package runner scores model outputs against a stored test suite and
// records the result as a new test run.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/giantswarm/llm-bench/internal/bench"
	"github.com/giantswarm/llm-bench/internal/metrics"
	"github.com/giantswarm/llm-bench/internal/scorer"
	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// DefaultBatchSize is the number of outputs scored per scorer call.
const DefaultBatchSize = 1

// ProgressFunc is called after each scored batch.
type ProgressFunc func(done, total int)

// Runner orchestrates scoring a set of outputs and saving the run.
type Runner struct {
	bench    *bench.Client
	deps     scorer.Deps
	metrics  *metrics.Metrics
	progress ProgressFunc
}

// NewRunner creates a runner that saves runs through b. deps supplies the
// judge client for LLM-scored suites.
func NewRunner(b *bench.Client, deps scorer.Deps) *Runner {
	return &Runner{bench: b, deps: deps}
}

// SetProgressFunc sets the progress callback.
func (r *Runner) SetProgressFunc(fn ProgressFunc) {
	r.progress = fn
}

// SetMetrics records scored case counts on m.
func (r *Runner) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// RunRequest is one set of outputs for a suite, aligned with its cases.
type RunRequest struct {
	SuiteName string
	RunName   string
	Outputs   []string
	// Contexts is optional; when set it must align with Outputs.
	Contexts  []string
	BatchSize int

	Description     string
	ModelName       string
	ModelVersion    string
	FoundationModel string
	PromptTemplate  string
	CreatedBy       string
	BenchVersion    string
}

// Run scores req.Outputs with the suite's scoring method and saves the run.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*testsuite.TestRun, error) {
	if req.SuiteName == "" {
		return nil, testsuite.InvalidArgumentf("suite name is required")
	}
	if req.RunName == "" {
		return nil, testsuite.InvalidArgumentf("run name is required")
	}
	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	suite, err := r.bench.GetFullSuite(ctx, req.SuiteName)
	if err != nil {
		return nil, fmt.Errorf("failed to load test suite %q: %w", req.SuiteName, err)
	}
	if suite == nil {
		return nil, testsuite.NotFoundf("test suite %q", req.SuiteName)
	}

	exists, err := r.bench.RunExists(ctx, suite.ID, req.RunName)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing run: %w", err)
	}
	if exists {
		return nil, testsuite.AlreadyExistsf("test run %q for suite %q", req.RunName, req.SuiteName)
	}

	n := len(suite.TestCases)
	if len(req.Outputs) != n {
		return nil, testsuite.InvalidArgumentf("got %d outputs for %d test cases", len(req.Outputs), n)
	}
	if req.Contexts != nil && len(req.Contexts) != n {
		return nil, testsuite.InvalidArgumentf("got %d contexts for %d test cases", len(req.Contexts), n)
	}

	sc, err := scorer.ForMethod(suite.ScoringMethod, r.deps)
	if err != nil {
		return nil, err
	}

	slog.Info("scoring test run",
		"suite", suite.Name,
		"run", req.RunName,
		"scoring_method", sc.Name(),
		"cases", n,
		"batch_size", batchSize,
	)

	start := time.Now()
	results, err := r.score(ctx, sc, suite, req, batchSize)
	if err != nil {
		return nil, err
	}

	cases := make([]testsuite.ScoredCase, n)
	for i, tc := range suite.TestCases {
		cases[i] = testsuite.ScoredCase{ID: tc.ID, Output: req.Outputs[i], ScoreResult: results[i]}
	}

	run, err := r.bench.CreateTestRun(ctx, suite.ID, &testsuite.CreateRunRequest{
		Name:            req.RunName,
		TestCases:       cases,
		Description:     req.Description,
		ModelName:       req.ModelName,
		ModelVersion:    req.ModelVersion,
		FoundationModel: req.FoundationModel,
		PromptTemplate:  req.PromptTemplate,
		CreatedBy:       req.CreatedBy,
		BenchVersion:    req.BenchVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save test run: %w", err)
	}

	slog.Info("test run complete",
		"suite", suite.Name,
		"run", run.Name,
		"average_score", run.AverageScore(),
		"duration", time.Since(start),
	)
	return run, nil
}

func (r *Runner) score(ctx context.Context, sc scorer.Scorer, suite *testsuite.TestSuite, req RunRequest, batchSize int) ([]testsuite.ScoreResult, error) {
	n := len(suite.TestCases)
	inputs := make([]string, n)
	var refs []string
	if suite.HasReferenceOutputs() {
		refs = make([]string, n)
	}
	for i, tc := range suite.TestCases {
		inputs[i] = tc.Input
		if refs != nil {
			refs[i] = *tc.ReferenceOutput
		}
	}

	results := make([]testsuite.ScoreResult, 0, n)
	for lo := 0; lo < n; lo += batchSize {
		if err := ctx.Err(); err != nil {
			slog.Warn("test run cancelled", "run", req.RunName, "completed", lo, "total", n)
			return nil, err
		}
		hi := min(lo+batchSize, n)
		b := scorer.Batch{
			Candidates: req.Outputs[lo:hi],
			Inputs:     inputs[lo:hi],
		}
		if refs != nil {
			b.References = refs[lo:hi]
		}
		if req.Contexts != nil {
			b.Contexts = req.Contexts[lo:hi]
		}

		got, err := sc.RunBatch(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("failed to score cases %d-%d: %w", lo, hi-1, err)
		}
		if len(got) != hi-lo {
			return nil, testsuite.Internalf("scorer %s returned %d results for %d outputs", sc.Name(), len(got), hi-lo)
		}
		results = append(results, got...)
		r.metrics.AddScored(sc.Name(), len(got))

		if r.progress != nil {
			r.progress(hi, n)
		}
	}
	return results, nil
}

// FormatResults renders a run's joined results as a plain-text report.
func FormatResults(results []bench.RunResult) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "---\n")
		fmt.Fprintf(&b, "NO. %d - %s\n", i+1, r.ID)
		fmt.Fprintf(&b, "INPUT: %s\n", r.Input)
		if r.ReferenceOutput != nil {
			fmt.Fprintf(&b, "REFERENCE OUTPUT: %s\n", *r.ReferenceOutput)
		}
		fmt.Fprintf(&b, "OUTPUT: %s\n", r.Output)
		fmt.Fprintf(&b, "SCORE: %s\n", formatScore(r.ScoreResult))
	}
	return b.String()
}

func formatScore(res testsuite.ScoreResult) string {
	switch {
	case res.Category != nil && res.Score != nil:
		return fmt.Sprintf("%s (%g)", res.Category.Name, *res.Score)
	case res.Category != nil:
		return res.Category.Name
	case res.Score != nil:
		return fmt.Sprintf("%g", *res.Score)
	default:
		return "-"
	}
}
