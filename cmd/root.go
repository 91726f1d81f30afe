package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const (
	benchDirEnv     = "BENCH_FILE_DIR"
	defaultBenchDir = "bench_runs"
)

var rootCmd = newRootCmd()

// serveCmd is stored so the root command can delegate to it by default.
var serveCmd *cobra.Command

var (
	buildCommit = "unknown"
	buildDate   = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "llm-bench",
		Short: "Local store and query tool for LLM benchmark suites and runs",
		Long: `llm-bench keeps LLM test suites and scored test runs on the local filesystem
and answers queries over them: paginated listings, run results joined to their
suite, and per-run score summaries. Outputs are scored with built-in scoring
methods, including an LLM-as-judge correctness check, and everything is also
exposed as MCP tools.

The store lives in --bench-dir (or $BENCH_FILE_DIR, default ./bench_runs).
When run without subcommands, it starts the MCP server (equivalent to 'llm-bench serve').`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
		},
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newSuitesCmd())
	root.AddCommand(newCreateSuiteCmd())
	root.AddCommand(newSuiteCmd())
	root.AddCommand(newRunsCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newScoreCmd())
	root.AddCommand(newSummaryCmd())

	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().String("bench-dir", benchDirDefault(), "Directory holding test suites and runs (or set "+benchDirEnv+")")
	return root
}

func benchDirDefault() string {
	if dir := os.Getenv(benchDirEnv); dir != "" {
		return dir
	}
	return defaultBenchDir
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// SetBuildInfo sets the commit and build date for the version command.
func SetBuildInfo(commit, date string) {
	buildCommit = commit
	buildDate = date
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "llm-bench version %s\n" .Version}}`)

	serveCmd, _, _ = rootCmd.Find([]string{"serve"})

	// Without a subcommand, fall back to serving MCP over stdio. serve-specific
	// flags are not parsed on this path.
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(os.Stderr, "No subcommand specified. Defaulting to 'serve' (stdio transport).")
		fmt.Fprintln(os.Stderr, "For HTTP transport, use: llm-bench serve --transport streamable-http")
		fmt.Fprintln(os.Stderr)
		if err := serveCmd.RunE(serveCmd, args); err != nil {
			slog.Error("serve failed", "error", err)
			os.Exit(1)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
