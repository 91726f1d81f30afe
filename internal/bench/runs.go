package bench

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/giantswarm/llm-bench/internal/paginate"
	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// CreateTestRun stores a scored run for the suite and updates the suite's run
// bookkeeping. Cases without an id take the id of the suite case at the same
// position.
func (c *Client) CreateTestRun(ctx context.Context, suiteID uuid.UUID, req *testsuite.CreateRunRequest) (_ *testsuite.TestRun, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("create_test_run", start, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	suite, err := c.repo.GetSuiteByID(suiteID)
	if err != nil {
		return nil, err
	}
	cases, err := bindCases(suite, req.TestCases)
	if err != nil {
		return nil, err
	}

	created := req.CreatedAt
	if created.IsZero() {
		created = c.now()
	}
	ts := testsuite.NewTimestamp(created)
	run := &testsuite.TestRun{
		ID:              c.repo.NewID(),
		Name:            req.Name,
		TestSuiteID:     suite.ID,
		TestCases:       cases,
		Description:     req.Description,
		ModelName:       req.ModelName,
		ModelVersion:    req.ModelVersion,
		FoundationModel: req.FoundationModel,
		PromptTemplate:  req.PromptTemplate,
		CreatedBy:       req.CreatedBy,
		BenchVersion:    req.BenchVersion,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}

	if err := c.repo.CreateRun(suite.Name, run); err != nil {
		return nil, err
	}
	if err := c.repo.RecordRunCompletion(suite.Name, run.CreatedAt.Time); err != nil {
		return nil, err
	}

	slog.Info("created test run", "suite", suite.Name, "run", run.Name, "id", run.ID, "cases", len(run.TestCases))
	return run, nil
}

// bindCases checks scored cases against the suite and fills missing ids.
func bindCases(suite *testsuite.TestSuite, in []testsuite.ScoredCase) ([]testsuite.ScoredCase, error) {
	if len(in) != len(suite.TestCases) {
		return nil, testsuite.InvalidArgumentf("run has %d results but suite %q has %d test cases", len(in), suite.Name, len(suite.TestCases))
	}

	known := make(map[uuid.UUID]bool, len(suite.TestCases))
	for _, tc := range suite.TestCases {
		known[tc.ID] = true
	}
	declared := make(map[string]bool, len(suite.ScoringMethod.Categories))
	for _, cat := range suite.ScoringMethod.Categories {
		declared[cat.Name] = true
	}

	out := make([]testsuite.ScoredCase, len(in))
	for i, sc := range in {
		sc.Normalize()
		if sc.ID == uuid.Nil {
			sc.ID = suite.TestCases[i].ID
		} else if !known[sc.ID] {
			return nil, testsuite.InvalidArgumentf("result %d refers to unknown test case %s", i, sc.ID)
		}

		if suite.ScoringMethod.IsCategorical() {
			if sc.ScoreResult.Category == nil {
				return nil, testsuite.InvalidArgumentf("result %d has no category but suite %q is scored categorically", i, suite.Name)
			}
			if !declared[sc.ScoreResult.Category.Name] {
				return nil, testsuite.InvalidArgumentf("result %d has undeclared category %q", i, sc.ScoreResult.Category.Name)
			}
		} else if sc.ScoreResult.Score == nil {
			return nil, testsuite.InvalidArgumentf("result %d has no score but suite %q is scored continuously", i, suite.Name)
		}
		out[i] = sc
	}
	return out, nil
}

// ListRunsForSuite returns one page of a suite's runs with their average scores.
func (c *Client) ListRunsForSuite(ctx context.Context, suiteID uuid.UUID, sort string, page, pageSize int) (_ paginate.Page[TestRunMetadata], err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("list_runs_for_suite", start, err) }()

	if err := paginate.ValidatePage(page, pageSize); err != nil {
		return paginate.Page[TestRunMetadata]{}, err
	}
	key, err := paginate.ParseRunSortKey(sort)
	if err != nil {
		return paginate.Page[TestRunMetadata]{}, err
	}
	suite, err := c.repo.GetSuiteByID(suiteID)
	if err != nil {
		return paginate.Page[TestRunMetadata]{}, err
	}
	runs, err := c.repo.ListRuns(suite.Name)
	if err != nil {
		return paginate.Page[TestRunMetadata]{}, err
	}

	summaries := make([]paginate.RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, paginate.RunSummary{Run: r, AvgScore: r.AverageScore()})
	}
	sorted := paginate.Paginate(summaries, page, pageSize, key.Order())

	out := paginate.Page[TestRunMetadata]{
		Page:       sorted.Page,
		PageSize:   sorted.PageSize,
		TotalCount: sorted.TotalCount,
		TotalPages: sorted.TotalPages,
		Items:      make([]TestRunMetadata, 0, len(sorted.Items)),
	}
	for _, rs := range sorted.Items {
		out.Items = append(out.Items, runMetadata(rs.Run, rs.AvgScore))
	}
	return out, nil
}

// RunExists reports whether the suite already has a run named runName. It
// walks every page of ListRunsForSuite.
func (c *Client) RunExists(ctx context.Context, suiteID uuid.UUID, runName string) (bool, error) {
	runs, err := collectPages(ctx, func(page int) (paginate.Page[TestRunMetadata], error) {
		return c.ListRunsForSuite(ctx, suiteID, "", page, fullPageSize)
	})
	if err != nil {
		return false, err
	}
	for _, r := range runs {
		if r.Name == runName {
			return true, nil
		}
	}
	return false, nil
}

// GetTestRun returns a run with one page of its results joined to the suite's
// inputs and reference outputs. sort is a case sort key ("score", "-score")
// or empty for suite order.
func (c *Client) GetTestRun(ctx context.Context, suiteID, runID uuid.UUID, page, pageSize int, sort string) (_ *PaginatedRun, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("get_test_run", start, err) }()

	if err := paginate.ValidatePage(page, pageSize); err != nil {
		return nil, err
	}
	key, err := paginate.ParseCaseSortKey(sort)
	if err != nil {
		return nil, err
	}
	suite, err := c.repo.GetSuiteByID(suiteID)
	if err != nil {
		return nil, err
	}
	run, err := c.repo.GetRunByID(suite.Name, runID)
	if err != nil {
		return nil, err
	}

	results, err := joinResults(suite, run)
	if err != nil {
		return nil, err
	}
	order := paginate.CaseOrder(key, func(r RunResult) *float64 { return r.ScoreResult.Score })

	return &PaginatedRun{
		Run:          runMetadata(run, run.AverageScore()),
		TestCaseRuns: paginate.Paginate(results, page, pageSize, order),
	}, nil
}

// joinResults pairs each scored case with its suite case, by id where the id
// is known and by position otherwise.
func joinResults(suite *testsuite.TestSuite, run *testsuite.TestRun) ([]RunResult, error) {
	if len(run.TestCases) > len(suite.TestCases) {
		return nil, testsuite.Internalf("run %q has %d results but suite %q has only %d test cases",
			run.Name, len(run.TestCases), suite.Name, len(suite.TestCases))
	}

	byID := make(map[uuid.UUID]testsuite.TestCase, len(suite.TestCases))
	for _, tc := range suite.TestCases {
		byID[tc.ID] = tc
	}

	results := make([]RunResult, 0, len(run.TestCases))
	for i, sc := range run.TestCases {
		tc, ok := byID[sc.ID]
		if !ok {
			tc = suite.TestCases[i]
		}
		sc.Normalize()
		results = append(results, RunResult{
			ID:              tc.ID,
			Input:           tc.Input,
			ReferenceOutput: tc.ReferenceOutput,
			Output:          sc.Output,
			Score:           sc.Score,
			ScoreResult:     sc.ScoreResult,
		})
	}
	return results, nil
}
