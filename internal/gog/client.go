package gog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gamelib/internal/services"
)

const userAgent = "gamelib/1.0"

// maxPages guards against a server that never reports its last page.
const maxPages = 500

// Client fetches the account product list from embed.gog.com using an
// already-authenticated session token (the gog-al cookie).
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

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

// New creates a GOG client.
func New(token, baseURL string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "gog", "new client", "session token required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("gog base url required")
	}
	client := &Client{
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Products walks every page of the owned-products listing.
func (c *Client) Products(ctx context.Context) ([]Page, error) {
	var pages []Page
	for page := 1; page <= maxPages; page++ {
		doc, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		pages = append(pages, doc)
		if doc.TotalPages <= page || len(doc.Products) == 0 {
			break
		}
	}
	return pages, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (Page, error) {
	endpoint, err := url.Parse(c.baseURL + "/account/getFilteredProducts")
	if err != nil {
		return Page{}, fmt.Errorf("parse gog url: %w", err)
	}
	params := url.Values{}
	params.Set("mediaType", "1")
	params.Set("page", strconv.Itoa(page))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("build request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: "gog-al", Value: c.token})
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return Page{}, services.Wrap(services.ErrTransient, "gog", "products", fmt.Sprintf("page %d latency=%v", page, latency), services.RedactURL(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Page{}, services.Wrap(services.ErrConfiguration, "gog", "products",
			"session rejected; refresh gog.session_token", nil)
	case resp.StatusCode != http.StatusOK:
		return Page{}, services.Wrap(services.ErrExternal, "gog", "products",
			fmt.Sprintf("page %d returned %d (latency=%v)", page, resp.StatusCode, latency), nil)
	}

	var doc Page
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		// A logged-out session is answered with the HTML login page.
		return Page{}, services.Wrap(services.ErrConfiguration, "gog", "products",
			"response was not JSON; the session token is probably expired", err)
	}
	return doc, nil
}
