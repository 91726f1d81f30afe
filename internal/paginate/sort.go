package paginate

import (
	"cmp"
	"strings"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

// SuiteSortKey orders suites in a listing.
type SuiteSortKey int

const (
	SuiteByLastRunTime SuiteSortKey = iota
	SuiteByLastRunTimeDesc
	SuiteByName
	SuiteByNameDesc
	SuiteByCreatedAt
	SuiteByCreatedAtDesc
)

// DefaultSuiteSort orders suites by last run, oldest first.
const DefaultSuiteSort = SuiteByLastRunTime

// ParseSuiteSortKey parses the wire form of a suite sort key. A leading "-"
// means descending. The empty string selects the default.
func ParseSuiteSortKey(s string) (SuiteSortKey, error) {
	switch strings.TrimSpace(s) {
	case "", "last_run_time":
		return SuiteByLastRunTime, nil
	case "-last_run_time":
		return SuiteByLastRunTimeDesc, nil
	case "name":
		return SuiteByName, nil
	case "-name":
		return SuiteByNameDesc, nil
	case "created_at":
		return SuiteByCreatedAt, nil
	case "-created_at":
		return SuiteByCreatedAtDesc, nil
	}
	return 0, testsuite.InvalidArgumentf("unknown test suite sort key %q", s)
}

func (k SuiteSortKey) String() string {
	switch k {
	case SuiteByLastRunTime:
		return "last_run_time"
	case SuiteByLastRunTimeDesc:
		return "-last_run_time"
	case SuiteByName:
		return "name"
	case SuiteByNameDesc:
		return "-name"
	case SuiteByCreatedAt:
		return "created_at"
	case SuiteByCreatedAtDesc:
		return "-created_at"
	}
	return "unknown"
}

// Order maps the key to a comparator over suites.
func (k SuiteSortKey) Order() *Order[*testsuite.TestSuite] {
	byName := func(a, b *testsuite.TestSuite) int { return cmp.Compare(a.Name, b.Name) }
	byCreated := func(a, b *testsuite.TestSuite) int { return a.CreatedAt.Compare(b.CreatedAt.Time) }
	byLastRun := func(a, b *testsuite.TestSuite) int { return a.LastActivity().Compare(b.LastActivity()) }

	switch k {
	case SuiteByLastRunTime:
		return &Order[*testsuite.TestSuite]{Compare: byLastRun}
	case SuiteByLastRunTimeDesc:
		return &Order[*testsuite.TestSuite]{Compare: byLastRun, Descending: true}
	case SuiteByName:
		return &Order[*testsuite.TestSuite]{Compare: byName}
	case SuiteByNameDesc:
		return &Order[*testsuite.TestSuite]{Compare: byName, Descending: true}
	case SuiteByCreatedAt:
		return &Order[*testsuite.TestSuite]{Compare: byCreated}
	case SuiteByCreatedAtDesc:
		return &Order[*testsuite.TestSuite]{Compare: byCreated, Descending: true}
	}
	return nil
}

// RunSortKey orders runs of a suite.
type RunSortKey int

const (
	RunByCreatedAt RunSortKey = iota
	RunByCreatedAtDesc
	RunByName
	RunByNameDesc
	RunByAvgScore
	RunByAvgScoreDesc
)

// DefaultRunSort orders runs oldest first.
const DefaultRunSort = RunByCreatedAt

// RunSummary is the sortable view of a run: the run plus its average score.
type RunSummary struct {
	Run      *testsuite.TestRun
	AvgScore float64
}

// ParseRunSortKey parses the wire form of a run sort key.
func ParseRunSortKey(s string) (RunSortKey, error) {
	switch strings.TrimSpace(s) {
	case "", "created_at":
		return RunByCreatedAt, nil
	case "-created_at":
		return RunByCreatedAtDesc, nil
	case "name":
		return RunByName, nil
	case "-name":
		return RunByNameDesc, nil
	case "avg_score":
		return RunByAvgScore, nil
	case "-avg_score":
		return RunByAvgScoreDesc, nil
	}
	return 0, testsuite.InvalidArgumentf("unknown test run sort key %q", s)
}

func (k RunSortKey) String() string {
	switch k {
	case RunByCreatedAt:
		return "created_at"
	case RunByCreatedAtDesc:
		return "-created_at"
	case RunByName:
		return "name"
	case RunByNameDesc:
		return "-name"
	case RunByAvgScore:
		return "avg_score"
	case RunByAvgScoreDesc:
		return "-avg_score"
	}
	return "unknown"
}

// Order maps the key to a comparator over run summaries.
func (k RunSortKey) Order() *Order[RunSummary] {
	byCreated := func(a, b RunSummary) int { return a.Run.CreatedAt.Compare(b.Run.CreatedAt.Time) }
	byName := func(a, b RunSummary) int { return cmp.Compare(a.Run.Name, b.Run.Name) }
	byScore := func(a, b RunSummary) int { return cmp.Compare(a.AvgScore, b.AvgScore) }

	switch k {
	case RunByCreatedAt:
		return &Order[RunSummary]{Compare: byCreated}
	case RunByCreatedAtDesc:
		return &Order[RunSummary]{Compare: byCreated, Descending: true}
	case RunByName:
		return &Order[RunSummary]{Compare: byName}
	case RunByNameDesc:
		return &Order[RunSummary]{Compare: byName, Descending: true}
	case RunByAvgScore:
		return &Order[RunSummary]{Compare: byScore}
	case RunByAvgScoreDesc:
		return &Order[RunSummary]{Compare: byScore, Descending: true}
	}
	return nil
}

// CaseSortKey orders the scored cases of a single run.
type CaseSortKey int

const (
	// CaseByPosition keeps the suite's case order.
	CaseByPosition CaseSortKey = iota
	CaseByScore
	CaseByScoreDesc
)

// ParseCaseSortKey parses the wire form of a case sort key.
func ParseCaseSortKey(s string) (CaseSortKey, error) {
	switch strings.TrimSpace(s) {
	case "", "position":
		return CaseByPosition, nil
	case "score":
		return CaseByScore, nil
	case "-score":
		return CaseByScoreDesc, nil
	}
	return 0, testsuite.InvalidArgumentf("unknown test case sort key %q", s)
}

func (k CaseSortKey) String() string {
	switch k {
	case CaseByPosition:
		return "position"
	case CaseByScore:
		return "score"
	case CaseByScoreDesc:
		return "-score"
	}
	return "unknown"
}

// CaseOrder returns a comparator over any case type given its score
// accessor. Cases without a score sort before scored ones.
func CaseOrder[T any](k CaseSortKey, score func(T) *float64) *Order[T] {
	byScore := func(a, b T) int {
		sa, sb := score(a), score(b)
		switch {
		case sa == nil && sb == nil:
			return 0
		case sa == nil:
			return -1
		case sb == nil:
			return 1
		}
		return cmp.Compare(*sa, *sb)
	}

	switch k {
	case CaseByPosition:
		return nil
	case CaseByScore:
		return &Order[T]{Compare: byScore}
	case CaseByScoreDesc:
		return &Order[T]{Compare: byScore, Descending: true}
	}
	return nil
}
