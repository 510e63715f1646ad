package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/florianilch/fintrack/internal/credstore"
)

// Option configures a Client.
type Option func(*clientConfig)

// clientConfig holds configuration for New.
type clientConfig struct {
	httpClient *http.Client
}

// WithHTTPClient sets the HTTP client used for API and refresh requests.
// Timeouts, if any, are taken from this client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = httpClient
	}
}

// WithTransport sets a custom transport on a default HTTP client.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		}
	}
}

// Client sends authenticated requests to the API and refreshes the access
// token when the API reports it as expired.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      credstore.Store
	refresher  *Refresher
}

// New creates a Client for the API at baseURL backed by the given credential store.
func New(baseURL string, store credstore.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", baseURL)
	}
	if store == nil {
		return nil, fmt.Errorf("missing credential store")
	}

	cfg := &clientConfig{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: cfg.httpClient,
		store:      store,
		refresher:  NewRefresher(baseURL, cfg.httpClient, store),
	}, nil
}

// Refresher returns the client's refresh coordinator.
func (c *Client) Refresher() *Refresher {
	return c.refresher
}

// Exchange performs the call and returns the final response, whatever its
// status. On a 401 it refreshes the access token and replays the request
// exactly once; the replay's response is returned even if it is another 401.
//
// Refresh failures are returned as errors and the request is not replayed.
// Transport failures are returned unchanged.
func (c *Client) Exchange(ctx context.Context, path string, opts Options) (*Response, error) {
	desc, err := newDescriptor(c.baseURL, path, opts)
	if err != nil {
		return nil, err
	}

	if opts.NoAuth {
		return c.attempt(ctx, desc, "")
	}

	// Read fresh on every call, the store is the only source of truth
	creds, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	resp, err := c.attempt(ctx, desc, creds.Access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	slog.DebugContext(ctx, "access token rejected, refreshing", "method", desc.method, "path", path)

	access, err := c.refresher.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	return c.attempt(ctx, desc, access)
}

// Send performs the call and returns the parsed JSON body of a 2xx response,
// or nil when the body is empty or not JSON. Any other status yields *Error.
func (c *Client) Send(ctx context.Context, path string, opts Options) (json.RawMessage, error) {
	resp, err := c.Exchange(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return normalize(resp)
}

// Do performs the call and decodes the JSON body of a 2xx response into out.
// out may be nil to discard the body.
func (c *Client) Do(ctx context.Context, path string, opts Options, out any) error {
	data, err := c.Send(ctx, path, opts)
	if err != nil {
		return err
	}
	if out == nil || data == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

// IsAuthenticated reports whether an access token is stored.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	creds, err := c.store.Load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to load credentials", "error", err)
		return false
	}
	return creds.Access != ""
}

// ClearCredentials removes both stored tokens.
func (c *Client) ClearCredentials(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// attempt issues one request and reads the whole response.
func (c *Client) attempt(ctx context.Context, desc *descriptor, access string) (*Response, error) {
	req, err := desc.newRequest(ctx, access)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	return readResponse(httpResp)
}
