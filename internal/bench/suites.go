package bench

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/giantswarm/llm-bench/internal/paginate"
	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// CreateTestSuite validates and stores a new suite.
func (c *Client) CreateTestSuite(ctx context.Context, req *testsuite.CreateSuiteRequest) (_ *testsuite.TestSuite, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("create_test_suite", start, err) }()

	suite, err := c.repo.CreateSuite(req)
	if err != nil {
		return nil, err
	}
	slog.Info("created test suite", "suite", suite.Name, "id", suite.ID, "cases", len(suite.TestCases))
	return suite, nil
}

// ListTestSuites returns one page of suites. With opts.Name set it resolves
// exactly that suite (a one-element page, or an empty page when there is no
// such suite); otherwise it filters by scoring method and sorts.
func (c *Client) ListTestSuites(ctx context.Context, opts ListSuitesOptions) (_ paginate.Page[TestSuiteMetadata], err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("list_test_suites", start, err) }()

	if err := paginate.ValidatePage(opts.Page, opts.PageSize); err != nil {
		return paginate.Page[TestSuiteMetadata]{}, err
	}
	key, err := paginate.ParseSuiteSortKey(opts.Sort)
	if err != nil {
		return paginate.Page[TestSuiteMetadata]{}, err
	}

	if opts.Name != "" {
		page := paginate.Page[TestSuiteMetadata]{
			Page:       1,
			PageSize:   opts.PageSize,
			TotalPages: 1,
			Items:      []TestSuiteMetadata{},
		}
		if !c.repo.SuiteExists(opts.Name) {
			return page, nil
		}
		suite, err := c.repo.GetSuiteByName(opts.Name)
		if err != nil {
			return paginate.Page[TestSuiteMetadata]{}, err
		}
		page.TotalCount = 1
		page.Items = append(page.Items, suiteMetadata(suite))
		return page, nil
	}

	suites, err := c.repo.ListSuites()
	if err != nil {
		return paginate.Page[TestSuiteMetadata]{}, err
	}
	if len(opts.ScoringMethods) > 0 {
		suites = slices.DeleteFunc(suites, func(s *testsuite.TestSuite) bool {
			return !slices.Contains(opts.ScoringMethods, s.ScoringMethod.Name)
		})
	}

	sorted := paginate.Paginate(suites, opts.Page, opts.PageSize, key.Order())
	out := paginate.Page[TestSuiteMetadata]{
		Page:       sorted.Page,
		PageSize:   sorted.PageSize,
		TotalCount: sorted.TotalCount,
		TotalPages: sorted.TotalPages,
		Items:      make([]TestSuiteMetadata, 0, len(sorted.Items)),
	}
	for _, s := range sorted.Items {
		out.Items = append(out.Items, suiteMetadata(s))
	}
	return out, nil
}

// GetTestSuite returns a suite's metadata and one page of its test cases in
// their stored order.
func (c *Client) GetTestSuite(ctx context.Context, id uuid.UUID, page, pageSize int) (_ *PaginatedTestSuite, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("get_test_suite", start, err) }()

	if err := paginate.ValidatePage(page, pageSize); err != nil {
		return nil, err
	}
	suite, err := c.repo.GetSuiteByID(id)
	if err != nil {
		return nil, err
	}
	return &PaginatedTestSuite{
		TestSuite: suiteMetadata(suite),
		TestCases: paginate.Paginate(suite.TestCases, page, pageSize, nil),
	}, nil
}

// SuiteIDByName resolves a suite name to its id.
func (c *Client) SuiteIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	suite, err := c.repo.GetSuiteByName(name)
	if err != nil {
		return uuid.Nil, err
	}
	return suite.ID, nil
}

// GetFullSuite returns the named suite with every test case, or nil when no
// suite has that name. Cases are collected page by page through GetTestSuite.
func (c *Client) GetFullSuite(ctx context.Context, name string) (_ *testsuite.TestSuite, err error) {
	start := time.Now()
	defer func() { c.metrics.Observe("get_full_suite", start, err) }()

	if !c.repo.SuiteExists(name) {
		return nil, nil
	}
	suite, err := c.repo.GetSuiteByName(name)
	if err != nil {
		return nil, err
	}

	cases, err := collectPages(ctx, func(page int) (paginate.Page[testsuite.TestCase], error) {
		resp, err := c.GetTestSuite(ctx, suite.ID, page, fullPageSize)
		if err != nil {
			return paginate.Page[testsuite.TestCase]{}, err
		}
		return resp.TestCases, nil
	})
	if err != nil {
		return nil, err
	}

	full := *suite
	full.TestCases = cases
	slog.Debug("loaded full test suite", "suite", name, "cases", len(cases))
	return &full, nil
}

// collectPages walks fetch from page 1 until the reported last page. A
// response without page metadata breaks the walk with ErrInternal.
func collectPages[T any](ctx context.Context, fetch func(page int) (paginate.Page[T], error)) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := fetch(page)
		if err != nil {
			return nil, err
		}
		if resp.Page < 1 || resp.TotalPages < 1 {
			return nil, testsuite.Internalf("expected paginated response, got page=%d total_pages=%d", resp.Page, resp.TotalPages)
		}
		all = append(all, resp.Items...)
		if resp.Page >= resp.TotalPages {
			return all, nil
		}
	}
}
