package central

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mdc004/sophosURLmanager/internal/config"
	"github.com/mdc004/sophosURLmanager/internal/errors"
	"github.com/mdc004/sophosURLmanager/internal/metrics"
)

const (
	// tokenScope is the only scope the Sophos IDP accepts for API clients.
	tokenScope = "token"

	// defaultTokenLifetime applies when the IDP omits expires_in.
	defaultTokenLifetime = time.Hour

	maxErrorBody = 4 << 10
)

// Client implements AuthClient against the live Sophos endpoints.
type Client struct {
	config     config.CentralConfig
	httpClient *http.Client
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

// ClientOption modifies a Client during construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client (primarily for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics attaches upstream-call instrumentation.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds an auth client using the endpoints and timeout from cfg.
func NewClient(cfg config.CentralConfig, logger zerolog.Logger, options ...ClientOption) *Client {
	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.GetAuthTimeout()},
		log:        logger.With().Str("component", "central.AuthClient").Logger(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ExchangeToken performs the OAuth2 client-credentials grant and returns the
// bearer token with its absolute expiry. Credentials are sent form-encoded in
// the request body and are never logged.
func (c *Client) ExchangeToken(ctx context.Context, clientID, clientSecret string) (Token, error) {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     c.config.GetTokenURL(),
		Scopes:       []string{tokenScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	started := time.Now()
	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err != nil {
		c.observe("token_exchange", "error", started)
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			c.log.Warn().Int("status", retrieveErr.Response.StatusCode).Msg("token exchange rejected")
			return Token{}, errors.Upstream(errors.ErrAuthentication, retrieveErr.Response.StatusCode,
				strings.TrimSpace(string(retrieveErr.Body)))
		}
		return Token{}, errors.Upstream(errors.ErrNetwork, 0, err.Error())
	}
	c.observe("token_exchange", "ok", started)

	expiresAt := tok.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(defaultTokenLifetime)
	}
	return Token{AccessToken: tok.AccessToken, ExpiresAt: expiresAt}, nil
}

// WhoAmI resolves the tenant id, data region, and regional API base for the
// given token.
func (c *Client) WhoAmI(ctx context.Context, accessToken string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.GetWhoAmIURL(), nil)
	if err != nil {
		return Identity{}, errors.Wrapf(err, "[WhoAmI] building request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("whoami", "error", started)
		return Identity{}, errors.Upstream(errors.ErrNetwork, 0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.observe("whoami", "error", started)
		// Only error bodies are capped; a success payload is read in full.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		kind := errors.ErrUpstream
		if resp.StatusCode == http.StatusUnauthorized {
			kind = errors.ErrAuthentication
		}
		return Identity{}, errors.Upstream(kind, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe("whoami", "error", started)
		return Identity{}, errors.Upstream(errors.ErrNetwork, 0, err.Error())
	}
	c.observe("whoami", "ok", started)

	var who whoAmIResponse
	if err := json.Unmarshal(body, &who); err != nil {
		return Identity{}, errors.Wrapf(err, "[WhoAmI] decoding response")
	}

	ident, err := who.identity(c.config.GetAPIBaseTemplate())
	if err != nil {
		return Identity{}, err
	}
	c.log.Info().
		Str("tenantId", ident.TenantID).
		Str("dataRegion", ident.DataRegion).
		Str("apiBase", ident.APIBase).
		Msg("whoami resolved")
	return ident, nil
}

func (c *Client) observe(operation, outcome string, started time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveUpstream(operation, outcome, time.Since(started))
}
