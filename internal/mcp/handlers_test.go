package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/llm-bench/internal/bench"
	"github.com/giantswarm/llm-bench/internal/fsstore"
	"github.com/giantswarm/llm-bench/internal/runner"
	"github.com/giantswarm/llm-bench/internal/scorer"
	"github.com/giantswarm/llm-bench/internal/server"
	"github.com/giantswarm/llm-bench/internal/testsuite"
)

const capitalsRequest = `{
	"name": "capitals",
	"scoring_method": "exact_match",
	"test_cases": [
		{"input": "Capital of France?", "reference_output": "Paris"},
		{"input": "Capital of Italy?", "reference_output": "Rome"}
	]
}`

func newServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	store, err := fsstore.New(filepath.Join(t.TempDir(), "bench_runs"), fsstore.WithLockTimeout(time.Second))
	require.NoError(t, err)
	b := bench.New(store)
	return &server.ServerContext{
		Bench:  b,
		Runner: runner.NewRunner(b, scorer.Deps{}),
	}
}

func call(args map[string]any) mcp.CallToolRequest {
	request := mcp.CallToolRequest{}
	request.Params.Arguments = args
	return request
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	content, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func decode(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	return out
}

func createCapitals(t *testing.T, sc *server.ServerContext) map[string]any {
	t.Helper()
	result, err := handleCreateTestSuite(context.Background(), call(map[string]any{"request_json": capitalsRequest}), sc)
	require.NoError(t, err)
	return decode(t, result)
}

func TestRegisterTools(t *testing.T) {
	s := mcpserver.NewMCPServer("llm-bench", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterTools(s, newServerContext(t)))
}

func TestHandleListTestSuitesEmpty(t *testing.T) {
	sc := newServerContext(t)

	result, err := handleListTestSuites(context.Background(), call(map[string]any{}), sc)
	require.NoError(t, err)
	out := decode(t, result)
	assert.Equal(t, float64(1), out["page"])
	assert.Equal(t, float64(0), out["total_count"])
	assert.Empty(t, out["items"])
}

func TestHandleCreateAndGetTestSuite(t *testing.T) {
	sc := newServerContext(t)
	created := createCapitals(t, sc)
	assert.Equal(t, "capitals", created["name"])
	assert.Equal(t, float64(2), created["num_test_cases"])

	result, err := handleGetTestSuite(context.Background(), call(map[string]any{"test_suite": "capitals", "page_size": float64(1)}), sc)
	require.NoError(t, err)
	out := decode(t, result)
	cases := out["test_cases"].(map[string]any)
	assert.Equal(t, float64(2), cases["total_pages"])
	assert.Len(t, cases["items"], 1)

	result, err = handleGetTestSuite(context.Background(), call(map[string]any{"test_suite_id": created["id"]}), sc)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	result, err = handleListTestSuites(context.Background(), call(map[string]any{"scoring_methods": "word_count_match"}), sc)
	require.NoError(t, err)
	assert.Empty(t, decode(t, result)["items"])
}

func TestHandleCreateTestSuiteErrors(t *testing.T) {
	sc := newServerContext(t)
	createCapitals(t, sc)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "nothing", args: map[string]any{}, want: "suite_dir or request_json is required"},
		{name: "both", args: map[string]any{"suite_dir": "x", "request_json": "{}"}, want: "mutually exclusive"},
		{name: "dir imports disabled", args: map[string]any{"suite_dir": "x"}, want: "imports are disabled"},
		{name: "duplicate", args: map[string]any{"request_json": capitalsRequest}, want: "already exists"},
		{name: "unknown method", args: map[string]any{"request_json": `{"name": "n", "scoring_method": "bertscore", "test_cases": [{"input": "q"}]}`}, want: "unsupported scoring method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleCreateTestSuite(context.Background(), call(tt.args), sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

func TestHandleCreateTestSuiteFromDir(t *testing.T) {
	sc := newServerContext(t)
	sc.SuitesDir = t.TempDir()
	dir := filepath.Join(sc.SuitesDir, "capitals")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("name: capitals\nscoring_method: word_count_match\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cases.csv"), []byte("input,reference_output\nQ1,A1\n"), 0o644))

	result, err := handleCreateTestSuite(context.Background(), call(map[string]any{"suite_dir": "capitals"}), sc)
	require.NoError(t, err)
	out := decode(t, result)
	method := out["scoring_method"].(map[string]any)
	assert.Equal(t, "word_count_match", method["name"])
	assert.Equal(t, "continuous", method["output_type"])

	result, err = handleCreateTestSuite(context.Background(), call(map[string]any{"suite_dir": "../outside"}), sc)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "within the suites directory")
}

func TestHandleTestRunLifecycle(t *testing.T) {
	sc := newServerContext(t)
	created := createCapitals(t, sc)
	ctx := context.Background()

	result, err := handleCreateTestRun(ctx, call(map[string]any{
		"test_suite": "capitals",
		"run_name":   "baseline",
		"outputs":    []any{"Paris", "Milan"},
		"model_name": "gpt-test",
	}), sc)
	require.NoError(t, err)
	run := decode(t, result)
	assert.Equal(t, created["id"], run["test_suite_id"])
	assert.InDelta(t, 0.5, run["avg_score"], 1e-9)

	result, err = handleListTestRuns(ctx, call(map[string]any{"test_suite": "capitals"}), sc)
	require.NoError(t, err)
	runs := decode(t, result)
	require.Len(t, runs["items"], 1)
	assert.Equal(t, "gpt-test", runs["items"].([]any)[0].(map[string]any)["model_name"])

	result, err = handleGetTestRun(ctx, call(map[string]any{
		"test_suite_id": created["id"],
		"run_id":        run["id"],
		"sort":          "-score",
	}), sc)
	require.NoError(t, err)
	joined := decode(t, result)
	items := joined["test_case_runs"].(map[string]any)["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "Paris", first["output"])
	assert.Equal(t, "Capital of France?", first["input"])

	result, err = handleGetSummary(ctx, call(map[string]any{"test_suite": "capitals", "run_ids": run["id"]}), sc)
	require.NoError(t, err)
	summary := decode(t, result)
	assert.Equal(t, false, summary["categorical"])
	summaries := summary["summary"].(map[string]any)["items"].([]any)
	require.Len(t, summaries, 1)
	buckets := summaries[0].(map[string]any)["histogram"].([]any)
	require.Len(t, buckets, 20)
	assert.Contains(t, buckets[0], "low")
}

func TestHandleGetSummaryCategorical(t *testing.T) {
	ctx := context.Background()
	sc := newServerContext(t)

	method, err := scorer.Resolve(testsuite.ScoringMethod{Name: scorer.QACorrectnessName})
	require.NoError(t, err)
	suite, err := sc.Bench.CreateTestSuite(ctx, &testsuite.CreateSuiteRequest{
		Name:          "judged",
		ScoringMethod: method,
		TestCases:     []testsuite.TestCaseRequest{{Input: "Q1"}, {Input: "Q2"}},
	})
	require.NoError(t, err)
	_, err = sc.Bench.CreateTestRun(ctx, suite.ID, &testsuite.CreateRunRequest{
		Name: "r1",
		TestCases: []testsuite.ScoredCase{
			{Output: "a", ScoreResult: testsuite.ScoreResult{Category: &testsuite.Category{Name: scorer.CategoryCorrect}}},
			{Output: "b", ScoreResult: testsuite.ScoreResult{Category: &testsuite.Category{Name: scorer.CategoryUnclear}}},
		},
	})
	require.NoError(t, err)

	result, err := handleGetSummary(ctx, call(map[string]any{"test_suite": "judged"}), sc)
	require.NoError(t, err)
	out := decode(t, result)
	assert.Equal(t, true, out["categorical"])
	items := out["summary"].(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.NotContains(t, first, "categories")
	hist := first["histogram"].([]any)
	require.Len(t, hist, 3)
	counts := map[string]float64{}
	for _, e := range hist {
		entry := e.(map[string]any)
		counts[entry["category"].(map[string]any)["name"].(string)] = entry["count"].(float64)
	}
	assert.Equal(t, map[string]float64{"correct": 1, "incorrect": 0, "unclear": 1}, counts)
}

func TestHandleCreateTestRunErrors(t *testing.T) {
	sc := newServerContext(t)
	createCapitals(t, sc)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "no suite", args: map[string]any{"run_name": "r", "outputs": []any{"x"}}, want: "test_suite is required"},
		{name: "no run name", args: map[string]any{"test_suite": "capitals", "outputs": []any{"x"}}, want: "run_name is required"},
		{name: "no outputs", args: map[string]any{"test_suite": "capitals", "run_name": "r"}, want: "outputs is required"},
		{name: "bad outputs", args: map[string]any{"test_suite": "capitals", "run_name": "r", "outputs": []any{1.0}}, want: "outputs[0] must be a string"},
		{name: "wrong count", args: map[string]any{"test_suite": "capitals", "run_name": "r", "outputs": `["Paris"]`}, want: "got 1 outputs for 2 test cases"},
		{name: "unknown suite", args: map[string]any{"test_suite": "nope", "run_name": "r", "outputs": []any{"x"}}, want: "not found"},
		{name: "fractional batch", args: map[string]any{"test_suite": "capitals", "run_name": "r", "outputs": []any{"x", "y"}, "batch_size": 1.5}, want: "batch_size must be an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleCreateTestRun(context.Background(), call(tt.args), sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}

	result, err := handleCreateTestRun(context.Background(), call(map[string]any{}), &server.ServerContext{})
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "not configured")
}

func TestHandleSuiteReferenceErrors(t *testing.T) {
	sc := newServerContext(t)

	result, err := handleListTestRuns(context.Background(), call(map[string]any{}), sc)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "test_suite_id or test_suite is required")

	result, err = handleGetTestSuite(context.Background(), call(map[string]any{"test_suite_id": "not-a-uuid"}), sc)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "not a valid id")

	result, err = handleGetTestRun(context.Background(), call(map[string]any{"test_suite": "x"}), sc)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "run_id is required")

	result, err = handleGetSummary(context.Background(), call(map[string]any{"test_suite": "missing"}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = handleListTestSuites(context.Background(), call(map[string]any{"page": float64(0)}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestStringListArg(t *testing.T) {
	got, err := stringListArg(map[string]any{"k": "a, b"}, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = stringListArg(map[string]any{"k": `["a,b"]`}, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"a,b"}, got)

	got, err = stringListArg(map[string]any{}, "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = stringListArg(map[string]any{"k": 3.0}, "k")
	assert.Error(t, err)
}

func TestResolveSuiteDir(t *testing.T) {
	base := t.TempDir()

	path, err := resolveSuiteDir(base, "suite-a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "suite-a"), path)

	_, err = resolveSuiteDir(base, "../etc")
	assert.Error(t, err)
	_, err = resolveSuiteDir(base, "/etc")
	assert.Error(t, err)
	_, err = resolveSuiteDir("", "suite-a")
	assert.Error(t, err)
}
