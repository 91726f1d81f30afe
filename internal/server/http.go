package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	oauth "github.com/giantswarm/mcp-oauth"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultWriteTimeout      = 120 * time.Second
	defaultIdleTimeout       = 120 * time.Second
)

// HTTPConfig configures the streamable HTTP transport.
type HTTPConfig struct {
	Addr     string
	Endpoint string
	// Gatherer, when set, is served on /metrics.
	Gatherer prometheus.Gatherer
	// OAuth, when set, guards the MCP endpoint.
	OAuth *OAuthConfig
}

// HTTPServer serves the MCP endpoint, /healthz and optionally /metrics and
// the OAuth routes.
type HTTPServer struct {
	httpServer  *http.Server
	oauthServer *oauth.Server
}

// NewHTTPServer builds the mux for mcpSrv. It does not start listening.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, cfg HTTPConfig) (*HTTPServer, error) {
	mux := http.NewServeMux()
	s := &HTTPServer{}

	var mcpHandler http.Handler = mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(cfg.Endpoint),
	)
	if cfg.OAuth != nil {
		srv, h, err := newOAuth(*cfg.OAuth)
		if err != nil {
			return nil, err
		}
		s.oauthServer = srv
		registerOAuthRoutes(mux, h, cfg.Endpoint)
		mcpHandler = h.ValidateToken(mcpHandler)
	}
	mux.Handle(cfg.Endpoint, mcpHandler)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
	return s, nil
}

// Handler returns the server's mux.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks until the server stops. It returns
// http.ErrServerClosed after Shutdown.
func (s *HTTPServer) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the OAuth server, if any, and drains HTTP connections.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.oauthServer != nil {
		if err := s.oauthServer.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OAuth server", "error", err)
		}
	}
	return s.httpServer.Shutdown(ctx)
}
