package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gamelib/internal/enrichment"
	"gamelib/internal/services"
)

// Client talks to the Steam Web API (owned games) and the storefront
// appdetails endpoint.
type Client struct {
	apiKey       string
	steamID      string
	apiBaseURL   string
	storeBaseURL string
	httpClient   *http.Client
}

var _ enrichment.Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithCredentials sets the API key and account id used by OwnedGames.
func WithCredentials(apiKey, steamID string) Option {
	return func(c *Client) {
		c.apiKey = strings.TrimSpace(apiKey)
		c.steamID = strings.TrimSpace(steamID)
	}
}

// New creates a Steam client. Credentials are only needed for OwnedGames;
// FetchMetadata works without them.
func New(apiBaseURL, storeBaseURL string, opts ...Option) (*Client, error) {
	apiBaseURL = strings.TrimSpace(apiBaseURL)
	storeBaseURL = strings.TrimSpace(storeBaseURL)
	if apiBaseURL == "" || storeBaseURL == "" {
		return nil, errors.New("steam base urls required")
	}
	client := &Client{
		apiBaseURL:   strings.TrimRight(apiBaseURL, "/"),
		storeBaseURL: strings.TrimRight(storeBaseURL, "/"),
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrTransient, "steam", "request", fmt.Sprintf("latency=%v", latency), services.RedactURL(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("steam returned 429: %w", enrichment.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "steam", "request",
			fmt.Sprintf("steam returned %d; check steam.api_key and profile visibility", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		return services.Wrap(services.ErrExternal, "steam", "request",
			fmt.Sprintf("steam returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return services.Wrap(services.ErrExternal, "steam", "decode", "malformed response", err)
	}
	return nil
}

func buildURL(base, path string, params url.Values) (string, error) {
	endpoint, err := url.Parse(base + path)
	if err != nil {
		return "", fmt.Errorf("parse steam url: %w", err)
	}
	endpoint.RawQuery = params.Encode()
	return endpoint.String(), nil
}
