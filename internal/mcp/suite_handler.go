package mcp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/llm-bench/internal/bench"
	"github.com/giantswarm/llm-bench/internal/scorer"
	"github.com/giantswarm/llm-bench/internal/server"
	"github.com/giantswarm/llm-bench/internal/testsuite"
)

func pagingOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("page", mcp.Description("Page number, starting at 1 (default: 1)")),
		mcp.WithNumber("page_size", mcp.Description(fmt.Sprintf("Items per page (default: %d)", bench.DefaultPageSize))),
	}
}

func suiteRefOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("test_suite_id", mcp.Description("Test suite id")),
		mcp.WithString("test_suite", mcp.Description("Test suite name, used when test_suite_id is not given")),
	}
}

func newTool(name string, opts ...[]mcp.ToolOption) mcp.Tool {
	var all []mcp.ToolOption
	for _, o := range opts {
		all = append(all, o...)
	}
	return mcp.NewTool(name, all...)
}

func registerSuiteTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// list_test_suites
	listTool := newTool("list_test_suites",
		[]mcp.ToolOption{
			mcp.WithDescription("List test suites with their metadata"),
			mcp.WithString("name", mcp.Description("Return only the suite with this name")),
			mcp.WithString("sort", mcp.Description("Sort key: last_run_time, name or created_at; prefix with - for descending (default: -last_run_time)")),
			mcp.WithString("scoring_methods", mcp.Description("Comma-separated scoring method names to keep")),
		},
		pagingOptions(),
	)
	s.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListTestSuites(ctx, request, sc)
	})

	// get_test_suite
	getTool := newTool("get_test_suite",
		[]mcp.ToolOption{mcp.WithDescription("Get a test suite with one page of its test cases")},
		suiteRefOptions(),
		pagingOptions(),
	)
	s.AddTool(getTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetTestSuite(ctx, request, sc)
	})

	// create_test_suite
	createTool := newTool("create_test_suite",
		[]mcp.ToolOption{
			mcp.WithDescription("Create a test suite from a suite directory (config.yaml plus a CSV of cases) or from a JSON request"),
			mcp.WithString("suite_dir", mcp.Description("Suite directory, relative to the server's suites directory")),
			mcp.WithString("request_json", mcp.Description("JSON suite request with name, scoring_method and test_cases")),
		},
	)
	s.AddTool(createTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCreateTestSuite(ctx, request, sc)
	})

	return nil
}

// resolveSuite returns the id named by test_suite_id or, failing that, test_suite.
func resolveSuite(ctx context.Context, args map[string]any, sc *server.ServerContext) (uuid.UUID, error) {
	if stringArg(args, "test_suite_id") != "" {
		return uuidArg(args, "test_suite_id")
	}
	name := stringArg(args, "test_suite")
	if name == "" {
		return uuid.Nil, fmt.Errorf("test_suite_id or test_suite is required")
	}
	return sc.Bench.SuiteIDByName(ctx, name)
}

func pageArgs(args map[string]any) (int, int, error) {
	page, err := intArg(args, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	size, err := intArg(args, "page_size", bench.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func handleListTestSuites(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	page, size, err := pageArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	methods, err := stringListArg(args, "scoring_methods")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := sc.Bench.ListTestSuites(ctx, bench.ListSuitesOptions{
		Name:           stringArg(args, "name"),
		Sort:           stringArg(args, "sort"),
		ScoringMethods: methods,
		Page:           page,
		PageSize:       size,
	})
	if err != nil {
		return toolError("list test suites", err), nil
	}
	return jsonResult(resp)
}

func handleGetTestSuite(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	id, err := resolveSuite(ctx, args, sc)
	if err != nil {
		return toolError("resolve test suite", err), nil
	}
	page, size, err := pageArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := sc.Bench.GetTestSuite(ctx, id, page, size)
	if err != nil {
		return toolError("get test suite", err), nil
	}
	return jsonResult(resp)
}

func handleCreateTestSuite(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var (
		req *testsuite.CreateSuiteRequest
		err error
	)
	switch dir, doc := stringArg(args, "suite_dir"), stringArg(args, "request_json"); {
	case dir != "" && doc != "":
		return mcp.NewToolResultError("suite_dir and request_json are mutually exclusive"), nil
	case dir != "":
		path, perr := resolveSuiteDir(sc.SuitesDir, dir)
		if perr != nil {
			return mcp.NewToolResultError(perr.Error()), nil
		}
		req, err = testsuite.LoadSuiteDir(path)
	case doc != "":
		req, err = testsuite.LoadSuiteRequestJSON([]byte(doc))
	default:
		return mcp.NewToolResultError("suite_dir or request_json is required"), nil
	}
	if err != nil {
		return toolError("load test suite", err), nil
	}

	req.ScoringMethod, err = scorer.Resolve(req.ScoringMethod)
	if err != nil {
		return toolError("resolve scoring method", err), nil
	}

	suite, err := sc.Bench.CreateTestSuite(ctx, req)
	if err != nil {
		return toolError("create test suite", err), nil
	}
	return jsonResult(map[string]any{
		"id":             suite.ID,
		"name":           suite.Name,
		"scoring_method": suite.ScoringMethod,
		"num_test_cases": len(suite.TestCases),
	})
}
