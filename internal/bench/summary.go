package bench

import (
	"cmp"
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/giantswarm/llm-bench/internal/paginate"
	"github.com/giantswarm/llm-bench/internal/summary"
)

var byAvgScore = &paginate.Order[summary.Item]{
	Compare: func(a, b summary.Item) int { return cmp.Compare(a.AvgScore, b.AvgScore) },
}

// GetSummaryStatistics summarises the suite's runs, or only those in runIDs
// when it is non-empty, and returns one page ordered by ascending average
// score. Ids that name no run of the suite are skipped.
func (c *Client) GetSummaryStatistics(ctx context.Context, suiteID uuid.UUID, runIDs []uuid.UUID, page, pageSize int) (_ *TestSuiteSummary, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("get_summary_statistics", start, err) }()

	if err := paginate.ValidatePage(page, pageSize); err != nil {
		return nil, err
	}
	suite, err := c.repo.GetSuiteByID(suiteID)
	if err != nil {
		return nil, err
	}
	runs, err := c.repo.ListRuns(suite.Name)
	if err != nil {
		return nil, err
	}

	var wanted map[uuid.UUID]bool
	if len(runIDs) > 0 {
		wanted = make(map[uuid.UUID]bool, len(runIDs))
		for _, id := range runIDs {
			wanted[id] = true
		}
	}

	items := make([]summary.Item, 0, len(runs))
	for _, run := range runs {
		if wanted != nil && !wanted[run.ID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, err := summary.Summarize(run, suite.ScoringMethod, c.numBins)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return &TestSuiteSummary{
		TestSuiteID:  suite.ID,
		Categorical:  suite.ScoringMethod.IsCategorical(),
		NumTestCases: len(suite.TestCases),
		Summary:      paginate.Paginate(items, page, pageSize, byAvgScore),
	}, nil
}
