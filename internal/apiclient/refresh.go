package apiclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/florianilch/fintrack/internal/credstore"
)

const refreshPath = "/auth/token/refresh/"

// refreshCall is one refresh cycle shared by every caller that joined it.
// access and err are written before done is closed and never after.
type refreshCall struct {
	done   chan struct{}
	access string
	err    error
	joined int
}

// Refresher mints new access tokens from the stored refresh token. At most
// one refresh request is in flight at any time; concurrent callers share its
// outcome.
type Refresher struct {
	baseURL    string
	httpClient *http.Client
	store      credstore.Store

	mu   sync.Mutex
	call *refreshCall
}

// NewRefresher creates a Refresher that posts to the refresh endpoint under baseURL.
func NewRefresher(baseURL string, httpClient *http.Client, store credstore.Store) *Refresher {
	return &Refresher{
		baseURL:    baseURL,
		httpClient: httpClient,
		store:      store,
	}
}

// Acquire returns a fresh access token. If a refresh is already in flight the
// caller waits for it instead of starting another one.
//
// The refresh runs detached from ctx so a caller giving up does not fail the
// other waiters; ctx only bounds this caller's wait.
func (r *Refresher) Acquire(ctx context.Context) (string, error) {
	r.mu.Lock()
	c := r.call
	if c == nil {
		c = &refreshCall{done: make(chan struct{})}
		r.call = c
		go r.run(context.WithoutCancel(ctx), c)
	}
	c.joined++
	r.mu.Unlock()

	select {
	case <-c.done:
		return c.access, c.err
	case <-ctx.Done():
		r.mu.Lock()
		c.joined--
		r.mu.Unlock()
		return "", ctx.Err()
	}
}

// InFlight reports whether a refresh is currently running.
func (r *Refresher) InFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.call != nil
}

// Waiters returns the number of callers still waiting on the in-flight
// refresh, including the one that started it. Callers that gave up are not
// counted.
func (r *Refresher) Waiters() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.call == nil {
		return 0
	}
	return r.call.joined
}

// Reset detaches any in-flight refresh so the next Acquire starts a new cycle.
// Callers already waiting still receive the detached refresh's outcome.
func (r *Refresher) Reset() {
	r.mu.Lock()
	r.call = nil
	r.mu.Unlock()
}

func (r *Refresher) run(ctx context.Context, c *refreshCall) {
	access, err := r.refresh(ctx)
	// A sign-out or new sign-in during the flight owns the store now
	if err != nil && !errors.Is(err, credstore.ErrCredentialsChanged) {
		// Waiters must observe a cleared store once they are released
		if clearErr := r.store.Clear(ctx); clearErr != nil {
			slog.ErrorContext(ctx, "failed to clear credentials after refresh failure", "error", clearErr)
		}
	}

	r.mu.Lock()
	c.access, c.err = access, err
	waiters := c.joined
	close(c.done)
	if r.call == c {
		r.call = nil
	}
	r.mu.Unlock()

	if err != nil {
		slog.WarnContext(ctx, "access token refresh failed", "error", err, "waiters", waiters)
		return
	}
	slog.DebugContext(ctx, "access token refreshed", "waiters", waiters)
}

// refresh performs the refresh request and persists the new access token.
func (r *Refresher) refresh(ctx context.Context) (string, error) {
	creds, err := r.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}
	if creds.Refresh == "" {
		return "", &Error{Message: noRefreshTokenMessage, Err: ErrNoRefreshToken}
	}

	desc, err := newDescriptor(r.baseURL, refreshPath, Options{
		Method: http.MethodPost,
		Body:   map[string]string{"refresh": creds.Refresh},
	})
	if err != nil {
		return "", err
	}
	req, err := desc.newRequest(ctx, "")
	if err != nil {
		return "", err
	}

	httpResp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	resp, err := readResponse(httpResp)
	if err != nil {
		return "", err
	}

	data := resp.Data()
	if !resp.OK() {
		return "", &Error{
			Message: messageFrom(data, defaultRefreshErrorMessage),
			Status:  resp.StatusCode,
			Data:    data,
			Err:     ErrRefreshRejected,
		}
	}

	access := gjson.GetBytes(data, "access")
	if data == nil || access.Type != gjson.String || access.Str == "" {
		return "", &Error{
			Message: malformedRefreshMessage,
			Status:  resp.StatusCode,
			Data:    data,
			Err:     ErrRefreshMalformed,
		}
	}

	if err := r.store.UpdateAccess(ctx, creds.Refresh, access.Str); err != nil {
		if errors.Is(err, credstore.ErrCredentialsChanged) {
			return "", &Error{Message: credentialsChangedMessage, Err: err}
		}
		return "", fmt.Errorf("persisting refreshed access token: %w", err)
	}
	return access.Str, nil
}
