package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-bench/internal/runner"
	"github.com/giantswarm/llm-bench/internal/testsuite"
)

func newScoreCmd() *cobra.Command {
	var (
		runName       string
		outputColumn  string
		contextColumn string
		batchSize     int
		timeout       time.Duration
		judge         judgeFlags
		meta          runner.RunRequest
	)

	cmd := &cobra.Command{
		Use:   "score <suite> <outputs.csv>",
		Short: "Score model outputs against a test suite and save the run",
		Long: `Score model outputs against a test suite and save them as a new test run.

The CSV must have one row per test case, in suite order, with the output in
--output-column. Judge-based scoring methods also read the retrieved context
from --context-column.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open outputs file: %w", err)
			}
			defer func() { _ = f.Close() }()
			outputs, contexts, err := testsuite.LoadOutputsCSV(f, outputColumn, contextColumn)
			if err != nil {
				return err
			}

			b, err := openBench(cmd, nil)
			if err != nil {
				return err
			}
			r := runner.NewRunner(b, judge.deps())
			out := cmd.OutOrStdout()
			r.SetProgressFunc(func(done, total int) {
				_, _ = fmt.Fprintf(out, "\r  Scored %d/%d...", done, total)
			})

			req := meta
			req.SuiteName = args[0]
			req.RunName = runName
			req.Outputs = outputs
			req.Contexts = contexts
			req.BatchSize = batchSize
			req.BenchVersion = cmd.Root().Version

			_, _ = fmt.Fprintf(out, "Scoring %d outputs against %s\n", len(outputs), req.SuiteName)
			run, err := r.Run(ctx, req)
			if err != nil {
				_, _ = fmt.Fprintln(out)
				return err
			}

			_, _ = fmt.Fprintf(out, "\n\nTest run saved.\n")
			_, _ = fmt.Fprintf(out, "Run: %s\n", run.Name)
			_, _ = fmt.Fprintf(out, "Run ID: %s\n", run.ID)
			_, _ = fmt.Fprintf(out, "Average score: %.3f\n", run.AverageScore())
			return nil
		},
	}

	cmd.Flags().StringVar(&runName, "run-name", "", "Name of the new test run (required)")
	cmd.Flags().StringVar(&outputColumn, "output-column", "output", "CSV column holding the model outputs")
	cmd.Flags().StringVar(&contextColumn, "context-column", "", "CSV column holding retrieved context (optional)")
	cmd.Flags().IntVar(&batchSize, "batch-size", runner.DefaultBatchSize, "Outputs scored per scorer call")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Overall timeout for scoring (e.g. 30m, 1h). 0 means no timeout")
	cmd.Flags().StringVar(&meta.Description, "description", "", "Run description")
	cmd.Flags().StringVar(&meta.ModelName, "model-name", "", "Name of the model that produced the outputs")
	cmd.Flags().StringVar(&meta.ModelVersion, "model-version", "", "Version of the model")
	cmd.Flags().StringVar(&meta.FoundationModel, "foundation-model", "", "Foundation model the model is built on")
	cmd.Flags().StringVar(&meta.PromptTemplate, "prompt-template", "", "Prompt template used to produce the outputs")
	cmd.Flags().StringVar(&meta.CreatedBy, "created-by", os.Getenv("USER"), "Creator recorded on the run")
	addJudgeFlags(cmd, &judge)
	_ = cmd.MarkFlagRequired("run-name")

	return cmd
}
