package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	oauth "github.com/giantswarm/mcp-oauth"
	"github.com/giantswarm/mcp-oauth/providers/dex"
	oauthserver "github.com/giantswarm/mcp-oauth/server"
	"github.com/giantswarm/mcp-oauth/storage/memory"
)

// OAuthProviderDex is the only supported identity provider.
const OAuthProviderDex = "dex"

// OAuthConfig enables OAuth 2.1 in front of the MCP endpoint.
type OAuthConfig struct {
	// BaseURL is the public URL of this server; it is also the token issuer.
	BaseURL         string
	Provider        string
	DexIssuerURL    string
	DexClientID     string
	DexClientSecret string
}

// Validate checks that every required field is set.
func (c OAuthConfig) Validate() error {
	if c.Provider != "" && c.Provider != OAuthProviderDex {
		return fmt.Errorf("unsupported OAuth provider %q (supported: %s)", c.Provider, OAuthProviderDex)
	}
	if err := validateHTTPSRequirement(c.BaseURL); err != nil {
		return fmt.Errorf("OAuth base URL validation failed: %w", err)
	}
	switch {
	case c.DexIssuerURL == "":
		return fmt.Errorf("dex issuer URL is required")
	case c.DexClientID == "":
		return fmt.Errorf("dex client ID is required")
	case c.DexClientSecret == "":
		return fmt.Errorf("dex client secret is required")
	}
	return nil
}

func newOAuth(cfg OAuthConfig) (*oauth.Server, *oauth.Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	provider, err := dex.NewProvider(&dex.Config{
		IssuerURL:    cfg.DexIssuerURL,
		ClientID:     cfg.DexClientID,
		ClientSecret: cfg.DexClientSecret,
		RedirectURL:  cfg.BaseURL + "/oauth/callback",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Dex provider: %w", err)
	}

	// Tokens and client registrations live in memory and do not survive a restart.
	store := memory.New()
	logger := slog.Default()

	srv, err := oauth.NewServer(provider, store, store, store, &oauthserver.Config{
		Issuer:                    cfg.BaseURL,
		AllowRefreshTokenRotation: true,
		MaxClientsPerIP:           10,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OAuth server: %w", err)
	}
	return srv, oauth.NewHandler(srv, logger), nil
}

func registerOAuthRoutes(mux *http.ServeMux, h *oauth.Handler, mcpEndpoint string) {
	h.RegisterAuthorizationServerMetadataRoutes(mux)
	h.RegisterProtectedResourceMetadataRoutes(mux, mcpEndpoint)
	mux.HandleFunc("/oauth/authorize", h.ServeAuthorization)
	mux.HandleFunc("/oauth/token", h.ServeToken)
	mux.HandleFunc("/oauth/callback", h.ServeCallback)
	mux.HandleFunc("/oauth/register", h.ServeClientRegistration)
	mux.HandleFunc("/oauth/revoke", h.ServeTokenRevocation)
	mux.HandleFunc("/oauth/introspect", h.ServeTokenIntrospection)
}

// validateHTTPSRequirement allows plain HTTP only for loopback hosts.
func validateHTTPSRequirement(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		switch u.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return nil
		}
		return fmt.Errorf("OAuth 2.1 requires HTTPS outside localhost (got: %s)", baseURL)
	default:
		return fmt.Errorf("invalid URL scheme: %s (must be http for localhost or https)", u.Scheme)
	}
}
