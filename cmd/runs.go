package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-bench/internal/runner"
	"github.com/giantswarm/llm-bench/internal/summary"
)

func newRunsCmd() *cobra.Command {
	var (
		sort   string
		paging pageFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "runs <suite>",
		Short: "List the test runs of a suite",
		Long: `List the test runs of a suite, by suite name or id.

Sort keys: created_at (default), name, avg_score; prefix with '-' to reverse.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBench(cmd, nil)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			suiteID, err := resolveSuiteID(ctx, b, args[0])
			if err != nil {
				return err
			}
			page, err := b.ListRunsForSuite(ctx, suiteID, sort, paging.page, paging.pageSize)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, page)
			}
			if page.TotalCount == 0 {
				_, _ = fmt.Fprintln(out, "No test runs found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tAVG SCORE\tMODEL\tCREATED\tID")
			for _, r := range page.Items {
				model := r.ModelName
				if model == "" {
					model = "-"
				}
				_, _ = fmt.Fprintf(w, "%s\t%.3f\t%s\t%s\t%s\n",
					r.Name, r.AvgScore, model, r.CreatedAt.Format("2006-01-02 15:04"), r.ID)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			pageFooter(out, page.Page, page.TotalPages, page.TotalCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&sort, "sort", "", "Sort key")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the page as JSON")
	addPageFlags(cmd, &paging)

	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		sort   string
		paging pageFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "run <suite> <run>",
		Short: "Show a page of a test run's results",
		Long: `Show a test run's results joined with the suite's inputs and reference outputs.

The suite and run may be given by name or id. Results are in suite order
unless --sort is score or -score.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBench(cmd, nil)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			suiteID, err := resolveSuiteID(ctx, b, args[0])
			if err != nil {
				return err
			}
			runID, err := resolveRunID(ctx, b, suiteID, args[1])
			if err != nil {
				return err
			}
			resp, err := b.GetTestRun(ctx, suiteID, runID, paging.page, paging.pageSize, sort)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, resp)
			}
			_, _ = fmt.Fprintf(out, "Test Run: %s\n", resp.Run.Name)
			_, _ = fmt.Fprintf(out, "ID: %s\n", resp.Run.ID)
			if resp.Run.ModelName != "" {
				_, _ = fmt.Fprintf(out, "Model: %s %s\n", resp.Run.ModelName, resp.Run.ModelVersion)
			}
			_, _ = fmt.Fprintf(out, "Average score: %.3f\n", resp.Run.AvgScore)
			_, _ = fmt.Fprint(out, runner.FormatResults(resp.TestCaseRuns.Items))
			pageFooter(out, resp.TestCaseRuns.Page, resp.TestCaseRuns.TotalPages, resp.TestCaseRuns.TotalCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&sort, "sort", "", "Result order: position (default), score or -score")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the page as JSON")
	addPageFlags(cmd, &paging)

	return cmd
}

func newSummaryCmd() *cobra.Command {
	var (
		runRefs []string
		paging  pageFlags
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "summary <suite>",
		Short: "Summarize the score distributions of a suite's runs",
		Long: `Summarize a suite's runs: average score plus a score histogram for
continuous scoring methods, or per-category counts for categorical ones.

Runs are ordered by ascending average score. --run restricts the summary to
the given runs, by name or id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBench(cmd, nil)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			suiteID, err := resolveSuiteID(ctx, b, args[0])
			if err != nil {
				return err
			}
			var runIDs []uuid.UUID
			for _, ref := range runRefs {
				id, err := resolveRunID(ctx, b, suiteID, ref)
				if err != nil {
					return err
				}
				runIDs = append(runIDs, id)
			}

			resp, err := b.GetSummaryStatistics(ctx, suiteID, runIDs, paging.page, paging.pageSize)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, resp)
			}
			_, _ = fmt.Fprintf(out, "Test suite %s: %d test cases\n", resp.TestSuiteID, resp.NumTestCases)
			for _, item := range resp.Summary.Items {
				printSummaryItem(cmd, item)
			}
			pageFooter(out, resp.Summary.Page, resp.Summary.TotalPages, resp.Summary.TotalCount)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&runRefs, "run", nil, "Run name or id to summarize (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	addPageFlags(cmd, &paging)

	return cmd
}

func printSummaryItem(cmd *cobra.Command, item summary.Item) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "\n%s (avg %.3f)\n", item.Name, item.AvgScore)
	for _, c := range item.Categories {
		_, _ = fmt.Fprintf(out, "  %-20s %d\n", c.Category.Name, c.Count)
	}
	for _, h := range item.Histogram {
		if h.Count == 0 {
			continue
		}
		_, _ = fmt.Fprintf(out, "  [%.2f, %.2f) %d\n", h.Low, h.High, h.Count)
	}
}
