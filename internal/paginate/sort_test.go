package paginate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/llm-bench/internal/testsuite"
)

func suiteAt(name string, created time.Time, lastRun *time.Time) *testsuite.TestSuite {
	s := &testsuite.TestSuite{Name: name, CreatedAt: testsuite.NewTimestamp(created)}
	if lastRun != nil {
		ts := testsuite.NewTimestamp(*lastRun)
		s.LastRunTime = &ts
	}
	return s
}

func names(page Page[*testsuite.TestSuite]) []string {
	out := make([]string, 0, len(page.Items))
	for _, s := range page.Items {
		out = append(out, s.Name)
	}
	return out
}

func TestSuiteSortKeys(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ranLate := base.Add(10 * time.Hour)
	suites := []*testsuite.TestSuite{
		suiteAt("b", base.Add(time.Hour), &ranLate),
		suiteAt("a", base.Add(2*time.Hour), nil),
		suiteAt("c", base, nil),
	}

	tests := []struct {
		key  string
		want []string
	}{
		{key: "", want: []string{"c", "a", "b"}},
		{key: "last_run_time", want: []string{"c", "a", "b"}},
		{key: "-last_run_time", want: []string{"b", "a", "c"}},
		{key: "name", want: []string{"a", "b", "c"}},
		{key: "-name", want: []string{"c", "b", "a"}},
		{key: "created_at", want: []string{"c", "b", "a"}},
		{key: "-created_at", want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			key, err := ParseSuiteSortKey(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(Paginate(suites, 1, 10, key.Order())))
			if tt.key != "" {
				assert.Equal(t, tt.key, key.String())
			}
		})
	}

	_, err := ParseSuiteSortKey("avg_score")
	assert.ErrorIs(t, err, testsuite.ErrInvalidArgument)
}

func TestRunSortKeys(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	run := func(name string, offset time.Duration) *testsuite.TestRun {
		return &testsuite.TestRun{Name: name, CreatedAt: testsuite.NewTimestamp(base.Add(offset))}
	}
	runs := []RunSummary{
		{Run: run("r2", time.Hour), AvgScore: 0.2},
		{Run: run("r1", 2*time.Hour), AvgScore: 0.9},
		{Run: run("r3", 0), AvgScore: 0.5},
	}
	runNames := func(p Page[RunSummary]) []string {
		var out []string
		for _, r := range p.Items {
			out = append(out, r.Run.Name)
		}
		return out
	}

	tests := []struct {
		key  string
		want []string
	}{
		{key: "", want: []string{"r3", "r2", "r1"}},
		{key: "-created_at", want: []string{"r1", "r2", "r3"}},
		{key: "name", want: []string{"r1", "r2", "r3"}},
		{key: "-name", want: []string{"r3", "r2", "r1"}},
		{key: "avg_score", want: []string{"r2", "r3", "r1"}},
		{key: "-avg_score", want: []string{"r1", "r3", "r2"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			key, err := ParseRunSortKey(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, runNames(Paginate(runs, 1, 10, key.Order())))
		})
	}

	_, err := ParseRunSortKey("score")
	assert.ErrorIs(t, err, testsuite.ErrInvalidArgument)
}

func TestCaseOrder(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	scores := []*float64{f(0.5), nil, f(1), f(0)}
	id := func(s *float64) *float64 { return s }

	key, err := ParseCaseSortKey("score")
	require.NoError(t, err)
	asc := Paginate(scores, 1, 10, CaseOrder(key, id)).Items
	assert.Nil(t, asc[0])
	assert.Equal(t, []float64{0, 0.5, 1}, []float64{*asc[1], *asc[2], *asc[3]})

	key, err = ParseCaseSortKey("-score")
	require.NoError(t, err)
	desc := Paginate(scores, 1, 10, CaseOrder(key, id)).Items
	assert.Equal(t, 1.0, *desc[0])
	assert.Nil(t, desc[3])

	key, err = ParseCaseSortKey("")
	require.NoError(t, err)
	assert.Nil(t, CaseOrder(key, id))

	key, err = ParseCaseSortKey("position")
	require.NoError(t, err)
	assert.Equal(t, CaseByPosition, key)
	assert.Equal(t, "position", key.String())

	_, err = ParseCaseSortKey("name")
	assert.ErrorIs(t, err, testsuite.ErrInvalidArgument)
}
