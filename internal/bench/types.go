package bench

import (
	"github.com/google/uuid"

	"github.com/giantswarm/llm-bench/internal/paginate"
	"github.com/giantswarm/llm-bench/internal/summary"
	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// TestSuiteMetadata is a suite without its test cases.
type TestSuiteMetadata struct {
	ID            uuid.UUID               `json:"id"`
	Name          string                  `json:"name"`
	Description   *string                 `json:"description"`
	ScoringMethod testsuite.ScoringMethod `json:"scoring_method"`
	NumTestCases  int                     `json:"num_test_cases"`
	NumRuns       int                     `json:"num_runs"`
	LastRunTime   *testsuite.Timestamp    `json:"last_run_time"`
	CreatedAt     testsuite.Timestamp     `json:"created_at"`
	UpdatedAt     testsuite.Timestamp     `json:"updated_at"`
	CreatedBy     string                  `json:"created_by,omitempty"`
}

func suiteMetadata(s *testsuite.TestSuite) TestSuiteMetadata {
	return TestSuiteMetadata{
		ID:            s.ID,
		Name:          s.Name,
		Description:   s.Description,
		ScoringMethod: s.ScoringMethod,
		NumTestCases:  len(s.TestCases),
		NumRuns:       s.NumRuns,
		LastRunTime:   s.LastRunTime,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		CreatedBy:     s.CreatedBy,
	}
}

// PaginatedTestSuite is a suite with one page of its test cases.
type PaginatedTestSuite struct {
	TestSuite TestSuiteMetadata                 `json:"test_suite"`
	TestCases paginate.Page[testsuite.TestCase] `json:"test_cases"`
}

// TestRunMetadata is a run without its scored cases.
type TestRunMetadata struct {
	ID              uuid.UUID           `json:"id"`
	Name            string              `json:"name"`
	TestSuiteID     uuid.UUID           `json:"test_suite_id"`
	AvgScore        float64             `json:"avg_score"`
	Description     string              `json:"description,omitempty"`
	ModelName       string              `json:"model_name,omitempty"`
	ModelVersion    string              `json:"model_version,omitempty"`
	FoundationModel string              `json:"foundation_model,omitempty"`
	PromptTemplate  string              `json:"prompt_template,omitempty"`
	CreatedAt       testsuite.Timestamp `json:"created_at"`
	UpdatedAt       testsuite.Timestamp `json:"updated_at"`
}

func runMetadata(r *testsuite.TestRun, avg float64) TestRunMetadata {
	return TestRunMetadata{
		ID:              r.ID,
		Name:            r.Name,
		TestSuiteID:     r.TestSuiteID,
		AvgScore:        avg,
		Description:     r.Description,
		ModelName:       r.ModelName,
		ModelVersion:    r.ModelVersion,
		FoundationModel: r.FoundationModel,
		PromptTemplate:  r.PromptTemplate,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// RunResult joins one scored case back to the suite case it answers.
type RunResult struct {
	ID              uuid.UUID             `json:"id"`
	Input           string                `json:"input"`
	ReferenceOutput *string               `json:"reference_output"`
	Output          string                `json:"output"`
	Score           *float64              `json:"score"`
	ScoreResult     testsuite.ScoreResult `json:"score_result"`
}

// PaginatedRun is a run with one page of its joined results.
type PaginatedRun struct {
	Run          TestRunMetadata          `json:"test_run"`
	TestCaseRuns paginate.Page[RunResult] `json:"test_case_runs"`
}

// TestSuiteSummary is one page of per-run summaries, lowest average first.
type TestSuiteSummary struct {
	TestSuiteID  uuid.UUID                   `json:"test_suite_id"`
	Categorical  bool                        `json:"categorical"`
	NumTestCases int                         `json:"num_test_cases"`
	Summary      paginate.Page[summary.Item] `json:"summary"`
}

// ListSuitesOptions selects and orders suites for ListTestSuites.
type ListSuitesOptions struct {
	// Name, when set, selects that single suite and ignores the other filters.
	Name string
	// Sort is a suite sort key such as "name" or "-last_run_time".
	Sort string
	// ScoringMethods, when non-empty, keeps only suites scored by one of them.
	ScoringMethods []string
	Page           int
	PageSize       int
}
