package server

import (
	"github.com/giantswarm/llm-bench/internal/bench"
	"github.com/giantswarm/llm-bench/internal/metrics"
	"github.com/giantswarm/llm-bench/internal/runner"
)

// ServerContext holds shared dependencies for MCP tool handlers.
type ServerContext struct {
	Bench   *bench.Client
	Runner  *runner.Runner
	Metrics *metrics.Metrics
	// SuitesDir is the only directory suite imports may read from. Empty
	// disables directory imports.
	SuitesDir string
}
