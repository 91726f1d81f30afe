package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-bench/internal/bench"
	"github.com/giantswarm/llm-bench/internal/scorer"
	"github.com/giantswarm/llm-bench/internal/testsuite"
)

func newSuitesCmd() *cobra.Command {
	var (
		name    string
		sort    string
		methods []string
		paging  pageFlags
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "suites",
		Short: "List test suites",
		Long: `List the test suites in the bench directory, one page at a time.

Sort keys: last_run_time (default), name, created_at; prefix with '-' to reverse.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBench(cmd, nil)
			if err != nil {
				return err
			}
			page, err := b.ListTestSuites(cmd.Context(), bench.ListSuitesOptions{
				Name:           name,
				Sort:           sort,
				ScoringMethods: methods,
				Page:           paging.page,
				PageSize:       paging.pageSize,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, page)
			}
			if page.TotalCount == 0 {
				_, _ = fmt.Fprintln(out, "No test suites found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tSCORING METHOD\tCASES\tRUNS\tLAST RUN\tID")
			for _, s := range page.Items {
				lastRun := "-"
				if s.LastRunTime != nil {
					lastRun = s.LastRunTime.Format("2006-01-02 15:04")
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
					s.Name, s.ScoringMethod.Name, s.NumTestCases, s.NumRuns, lastRun, s.ID)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			pageFooter(out, page.Page, page.TotalPages, page.TotalCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Only list the suite with this exact name")
	cmd.Flags().StringVar(&sort, "sort", "", "Sort key")
	cmd.Flags().StringSliceVar(&methods, "scoring-method", nil, "Only list suites scored by these methods (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the page as JSON")
	addPageFlags(cmd, &paging)

	return cmd
}

func newSuiteCmd() *cobra.Command {
	var (
		paging pageFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "suite <name|id>",
		Short: "Show a test suite and a page of its test cases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBench(cmd, nil)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			id, err := resolveSuiteID(ctx, b, args[0])
			if err != nil {
				return err
			}
			resp, err := b.GetTestSuite(ctx, id, paging.page, paging.pageSize)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, resp)
			}
			s := resp.TestSuite
			_, _ = fmt.Fprintf(out, "Test Suite: %s\n", s.Name)
			_, _ = fmt.Fprintf(out, "ID: %s\n", s.ID)
			if s.Description != nil {
				_, _ = fmt.Fprintf(out, "Description: %s\n", *s.Description)
			}
			_, _ = fmt.Fprintf(out, "Scoring method: %s (%s, %s)\n", s.ScoringMethod.Name, s.ScoringMethod.Type, s.ScoringMethod.OutputType)
			_, _ = fmt.Fprintf(out, "Test cases: %d\n", s.NumTestCases)
			_, _ = fmt.Fprintf(out, "Runs: %d\n", s.NumRuns)
			_, _ = fmt.Fprintf(out, "Created: %s\n\n", s.CreatedAt.Format("2006-01-02 15:04:05"))

			for i, tc := range resp.TestCases.Items {
				n := (resp.TestCases.Page-1)*resp.TestCases.PageSize + i + 1
				_, _ = fmt.Fprintf(out, "%d. %s\n", n, tc.Input)
				if tc.ReferenceOutput != nil {
					_, _ = fmt.Fprintf(out, "   Reference: %s\n", *tc.ReferenceOutput)
				}
			}
			pageFooter(out, resp.TestCases.Page, resp.TestCases.TotalPages, resp.TestCases.TotalCount)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the suite as JSON")
	addPageFlags(cmd, &paging)

	return cmd
}

func newCreateSuiteCmd() *cobra.Command {
	var createdBy string

	cmd := &cobra.Command{
		Use:   "create-suite <dir|file.json>",
		Short: "Create a test suite from a suite directory or a JSON request",
		Long: `Create a test suite.

The source is either a directory holding config.yaml and a cases CSV, or a JSON
file with the suite name, scoring method and test cases.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadSuiteRequest(args[0])
			if err != nil {
				return err
			}
			if req.CreatedBy == "" {
				req.CreatedBy = createdBy
			}
			if req.BenchVersion == "" {
				req.BenchVersion = cmd.Root().Version
			}

			suite, err := createSuite(cmd.Context(), cmd, req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Created test suite %s\n", suite.Name)
			_, _ = fmt.Fprintf(out, "  ID: %s\n", suite.ID)
			_, _ = fmt.Fprintf(out, "  Scoring method: %s\n", suite.ScoringMethod.Name)
			_, _ = fmt.Fprintf(out, "  Test cases: %d\n", len(suite.TestCases))
			return nil
		},
	}

	cmd.Flags().StringVar(&createdBy, "created-by", os.Getenv("USER"), "Creator recorded on the suite")

	return cmd
}

func loadSuiteRequest(path string) (*testsuite.CreateSuiteRequest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite source: %w", err)
	}
	if info.IsDir() {
		return testsuite.LoadSuiteDir(path)
	}
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return nil, testsuite.InvalidArgumentf("suite source must be a directory or a .json file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite request: %w", err)
	}
	return testsuite.LoadSuiteRequestJSON(data)
}

func createSuite(ctx context.Context, cmd *cobra.Command, req *testsuite.CreateSuiteRequest) (*testsuite.TestSuite, error) {
	method, err := scorer.Resolve(req.ScoringMethod)
	if err != nil {
		return nil, err
	}
	req.ScoringMethod = method

	b, err := openBench(cmd, nil)
	if err != nil {
		return nil, err
	}
	return b.CreateTestSuite(ctx, req)
}
