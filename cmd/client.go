package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/llm-bench/internal/bench"
	"github.com/giantswarm/llm-bench/internal/fsstore"
	"github.com/giantswarm/llm-bench/internal/llm"
	"github.com/giantswarm/llm-bench/internal/metrics"
	"github.com/giantswarm/llm-bench/internal/scorer"
)

// judgeFlags configure the LLM client used by judge-based scoring methods.
type judgeFlags struct {
	endpoint string
	apiKey   string
	model    string
}

func addJudgeFlags(cmd *cobra.Command, f *judgeFlags) {
	cmd.Flags().StringVar(&f.endpoint, "judge-endpoint", "", "OpenAI-compatible endpoint for judge-based scoring (default: "+llm.DefaultBaseURL+")")
	cmd.Flags().StringVar(&f.apiKey, "judge-api-key", "", "Judge API key (or set OPENAI_API_KEY)")
	cmd.Flags().StringVar(&f.model, "judge-model", "", "Judge model name")
}

// deps builds scorer dependencies from the flags. The API key falls back to
// the OPENAI_API_KEY environment variable.
func (f *judgeFlags) deps() scorer.Deps {
	opts := []llm.Option{llm.WithModel(f.model)}
	if f.endpoint != "" {
		opts = append(opts, llm.WithBaseURL(f.endpoint))
	}
	if f.apiKey != "" {
		opts = append(opts, llm.WithAPIKey(f.apiKey))
	} else if envKey := os.Getenv("OPENAI_API_KEY"); envKey != "" {
		opts = append(opts, llm.WithAPIKey(envKey))
	}
	return scorer.Deps{LLM: llm.NewOpenAIClient(opts...), Model: f.model}
}

// openBench opens the store named by --bench-dir.
func openBench(cmd *cobra.Command, m *metrics.Metrics) (*bench.Client, error) {
	dir, _ := cmd.Flags().GetString("bench-dir")
	store, err := fsstore.New(dir, fsstore.WithLockTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to open bench directory %q: %w", dir, err)
	}
	return bench.New(store, bench.WithMetrics(m)), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// pageFlags are the paging flags shared by listing commands.
type pageFlags struct {
	page     int
	pageSize int
}

func addPageFlags(cmd *cobra.Command, f *pageFlags) {
	cmd.Flags().IntVar(&f.page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&f.pageSize, "page-size", bench.DefaultPageSize, "Items per page")
}

func pageFooter(w io.Writer, page, totalPages, totalCount int) {
	_, _ = fmt.Fprintf(w, "\nPage %d of %d (%d total)\n", page, max(totalPages, 1), totalCount)
}
