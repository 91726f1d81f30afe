package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/llm-bench/internal/runner"
	"github.com/giantswarm/llm-bench/internal/server"
)

func registerRunTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// list_test_runs
	listTool := newTool("list_test_runs",
		[]mcp.ToolOption{
			mcp.WithDescription("List the runs of a test suite with their average scores"),
			mcp.WithString("sort", mcp.Description("Sort key: created_at, name or avg_score; prefix with - for descending (default: created_at)")),
		},
		suiteRefOptions(),
		pagingOptions(),
	)
	s.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListTestRuns(ctx, request, sc)
	})

	// get_test_run
	getTool := newTool("get_test_run",
		[]mcp.ToolOption{
			mcp.WithDescription("Get a test run with one page of its results joined to the suite's inputs and reference outputs"),
			mcp.WithString("run_id", mcp.Required(), mcp.Description("Test run id")),
			mcp.WithString("sort", mcp.Description("Result order: position (default), score or -score")),
		},
		suiteRefOptions(),
		pagingOptions(),
	)
	s.AddTool(getTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetTestRun(ctx, request, sc)
	})

	// get_summary
	summaryTool := newTool("get_summary",
		[]mcp.ToolOption{
			mcp.WithDescription("Summarise the runs of a test suite: average score plus a histogram or category counts per run"),
			mcp.WithString("run_ids", mcp.Description("Comma-separated run ids to include (default: all runs)")),
		},
		suiteRefOptions(),
		pagingOptions(),
	)
	s.AddTool(summaryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetSummary(ctx, request, sc)
	})

	// create_test_run
	createTool := newTool("create_test_run",
		[]mcp.ToolOption{
			mcp.WithDescription("Score model outputs against a test suite and save them as a new run"),
			mcp.WithString("test_suite", mcp.Required(), mcp.Description("Test suite name")),
			mcp.WithString("run_name", mcp.Required(), mcp.Description("Name of the new run, unique within the suite")),
			mcp.WithArray("outputs", mcp.Required(), mcp.Description("Model outputs, one per test case in suite order"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithArray("contexts", mcp.Description("Context per output, for scoring methods that need it"), mcp.Items(map[string]any{"type": "string"})),
			mcp.WithNumber("batch_size", mcp.Description("Outputs scored per scorer call (default: 1)")),
			mcp.WithString("model_name", mcp.Description("Name of the model that produced the outputs")),
			mcp.WithString("model_version", mcp.Description("Version of that model")),
			mcp.WithString("description", mcp.Description("Free-form run description")),
		},
	)
	s.AddTool(createTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCreateTestRun(ctx, request, sc)
	})

	return nil
}

func handleListTestRuns(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, err := resolveSuite(ctx, args, sc)
	if err != nil {
		return toolError("resolve test suite", err), nil
	}
	page, size, err := pageArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := sc.Bench.ListRunsForSuite(ctx, id, stringArg(args, "sort"), page, size)
	if err != nil {
		return toolError("list test runs", err), nil
	}
	return jsonResult(resp)
}

func handleGetTestRun(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	runID, err := uuidArg(args, "run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	suiteID, err := resolveSuite(ctx, args, sc)
	if err != nil {
		return toolError("resolve test suite", err), nil
	}
	page, size, err := pageArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := sc.Bench.GetTestRun(ctx, suiteID, runID, page, size, stringArg(args, "sort"))
	if err != nil {
		return toolError("get test run", err), nil
	}
	return jsonResult(resp)
}

func handleGetSummary(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	suiteID, err := resolveSuite(ctx, args, sc)
	if err != nil {
		return toolError("resolve test suite", err), nil
	}
	page, size, err := pageArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := stringListArg(args, "run_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var runIDs []uuid.UUID
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid run id %q: %v", s, err)), nil
		}
		runIDs = append(runIDs, id)
	}

	resp, err := sc.Bench.GetSummaryStatistics(ctx, suiteID, runIDs, page, size)
	if err != nil {
		return toolError("summarise test runs", err), nil
	}
	return jsonResult(resp)
}

func handleCreateTestRun(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if sc.Runner == nil {
		return mcp.NewToolResultError("test run scoring is not configured"), nil
	}
	args := request.GetArguments()

	suiteName := stringArg(args, "test_suite")
	if suiteName == "" {
		return mcp.NewToolResultError("test_suite is required"), nil
	}
	runName := stringArg(args, "run_name")
	if runName == "" {
		return mcp.NewToolResultError("run_name is required"), nil
	}
	outputs, err := stringListArg(args, "outputs")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if outputs == nil {
		return mcp.NewToolResultError("outputs is required"), nil
	}
	contexts, err := stringListArg(args, "contexts")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	batchSize, err := intArg(args, "batch_size", runner.DefaultBatchSize)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	run, err := sc.Runner.Run(ctx, runner.RunRequest{
		SuiteName:    suiteName,
		RunName:      runName,
		Outputs:      outputs,
		Contexts:     contexts,
		BatchSize:    batchSize,
		Description:  stringArg(args, "description"),
		ModelName:    stringArg(args, "model_name"),
		ModelVersion: stringArg(args, "model_version"),
	})
	if err != nil {
		return toolError("create test run", err), nil
	}

	return jsonResult(map[string]any{
		"id":             run.ID,
		"name":           run.Name,
		"test_suite_id":  run.TestSuiteID,
		"num_test_cases": len(run.TestCases),
		"avg_score":      run.AverageScore(),
	})
}
