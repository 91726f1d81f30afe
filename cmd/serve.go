package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	mcptools "github.com/giantswarm/llm-bench/internal/mcp"
	"github.com/giantswarm/llm-bench/internal/metrics"
	"github.com/giantswarm/llm-bench/internal/runner"
	"github.com/giantswarm/llm-bench/internal/server"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

func newServeCmd() *cobra.Command {
	var (
		transport    string
		httpAddr     string
		httpEndpoint string
		suitesDir    string
		judge        judgeFlags

		enableOAuth     bool
		oauthBaseURL    string
		oauthProvider   string
		dexIssuerURL    string
		dexClientID     string
		dexClientSecret string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server to expose the bench store via the Model Context Protocol.

Supports multiple transport types:
  - stdio: Standard input/output (default, for IDE integration)
  - streamable-http: HTTP with streaming support (for remote access)

The HTTP transport also serves /healthz and Prometheus metrics on /metrics.
OAuth 2.1 authentication can be enabled for it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			b, err := openBench(cmd, m)
			if err != nil {
				return err
			}
			r := runner.NewRunner(b, judge.deps())
			r.SetMetrics(m)

			sc := &server.ServerContext{
				Bench:     b,
				Runner:    r,
				Metrics:   m,
				SuitesDir: suitesDir,
			}

			mcpSrv := mcpserver.NewMCPServer("llm-bench", cmd.Root().Version,
				mcpserver.WithToolCapabilities(true),
			)
			if err := mcptools.RegisterTools(mcpSrv, sc); err != nil {
				return fmt.Errorf("failed to register MCP tools: %w", err)
			}

			shutdownCtx, cancel := signal.NotifyContext(context.Background(),
				os.Interrupt, syscall.SIGTERM)
			defer cancel()

			switch transport {
			case transportStdio:
				return runStdioServer(mcpSrv)
			case transportStreamableHTTP:
				cfg := server.HTTPConfig{
					Addr:     httpAddr,
					Endpoint: httpEndpoint,
					Gatherer: reg,
				}
				if enableOAuth {
					cfg.OAuth = &server.OAuthConfig{
						BaseURL:         oauthBaseURL,
						Provider:        oauthProvider,
						DexIssuerURL:    envFallback(dexIssuerURL, "DEX_ISSUER_URL"),
						DexClientID:     envFallback(dexClientID, "DEX_CLIENT_ID"),
						DexClientSecret: envFallback(dexClientSecret, "DEX_CLIENT_SECRET"),
					}
				}
				return runHTTPServer(shutdownCtx, cmd, mcpSrv, cfg)
			default:
				return fmt.Errorf("unsupported transport: %s (supported: stdio, streamable-http)", transport)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http)")
	cmd.Flags().StringVar(&httpEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for streamable-http)")
	cmd.Flags().StringVar(&suitesDir, "suites-dir", "", "Directory of suite definitions the create_test_suite tool may import from (optional)")
	addJudgeFlags(cmd, &judge)

	cmd.Flags().BoolVar(&enableOAuth, "enable-oauth", false, "Enable OAuth 2.1 authentication (for HTTP transport)")
	cmd.Flags().StringVar(&oauthBaseURL, "oauth-base-url", "", "OAuth base URL (e.g. https://llm-bench.example.com)")
	cmd.Flags().StringVar(&oauthProvider, "oauth-provider", server.OAuthProviderDex, "OAuth provider: dex")
	cmd.Flags().StringVar(&dexIssuerURL, "dex-issuer-url", "", "Dex OIDC issuer URL (or set DEX_ISSUER_URL)")
	cmd.Flags().StringVar(&dexClientID, "dex-client-id", "", "Dex OAuth client ID (or set DEX_CLIENT_ID)")
	cmd.Flags().StringVar(&dexClientSecret, "dex-client-secret", "", "Dex OAuth client secret (or set DEX_CLIENT_SECRET)")

	return cmd
}

func envFallback(value, env string) string {
	if value != "" {
		return value
	}
	return os.Getenv(env)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, cmd *cobra.Command, mcpSrv *mcpserver.MCPServer, cfg server.HTTPConfig) error {
	srv, err := server.NewHTTPServer(mcpSrv, cfg)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Starting llm-bench MCP server on %s\n", cfg.Addr)
	_, _ = fmt.Fprintf(out, "  MCP endpoint: %s\n", cfg.Endpoint)
	_, _ = fmt.Fprintf(out, "  Health: /healthz\n")
	_, _ = fmt.Fprintf(out, "  Metrics: /metrics\n")
	if cfg.OAuth != nil {
		_, _ = fmt.Fprintf(out, "  OAuth: %s via %s (MCP endpoint requires a Bearer token)\n", cfg.OAuth.BaseURL, cfg.OAuth.Provider)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(out, "Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	_, _ = fmt.Fprintln(out, "HTTP server stopped")
	return nil
}
