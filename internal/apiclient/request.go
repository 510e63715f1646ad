package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/oauth2"
)

const requestIDHeader = "X-Request-Id"

// Options describes a single API call.
type Options struct {
	// Method defaults to GET.
	Method string
	// Header is merged into the outgoing request. Authorization is always
	// overwritten when an access token is available.
	Header http.Header
	// Body is sent as-is when it is []byte or io.Reader (binary payloads, no
	// Content-Type is added), as JSON text when it is string or
	// json.RawMessage, and JSON-encoded otherwise.
	Body any
	// NoAuth sends the request without credentials and never refreshes.
	NoAuth bool
}

// descriptor is a transport-ready request built once per call. Attempts only
// differ in the Authorization header.
type descriptor struct {
	method string
	url    string
	header http.Header
	body   []byte
}

// resolveURL joins path onto base, accepting both "/categories/" and "categories/".
func resolveURL(base, path string) (string, error) {
	raw := strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}
	return u.String(), nil
}

// newDescriptor resolves the path, merges headers and serializes the body.
func newDescriptor(base, path string, opts Options) (*descriptor, error) {
	target, err := resolveURL(base, path)
	if err != nil {
		return nil, err
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	header := opts.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if header.Get(requestIDHeader) == "" {
		header.Set(requestIDHeader, uuid.NewString())
	}

	body, binary, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}
	if body != nil && !binary && header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json")
	}

	return &descriptor{
		method: method,
		url:    target,
		header: header,
		body:   body,
	}, nil
}

// encodeBody returns the wire bytes and whether they are an opaque binary payload.
func encodeBody(body any) ([]byte, bool, error) {
	switch b := body.(type) {
	case nil:
		return nil, false, nil
	case json.RawMessage:
		return b, false, nil
	case []byte:
		return b, true, nil
	case io.Reader:
		// Drained once so the replay after a refresh can resend the same bytes
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, false, fmt.Errorf("reading request body: %w", err)
		}
		return data, true, nil
	case string:
		return []byte(b), false, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, false, fmt.Errorf("encoding request body: %w", err)
		}
		return data, false, nil
	}
}

// newRequest builds the *http.Request for one attempt.
func (d *descriptor) newRequest(ctx context.Context, access string) (*http.Request, error) {
	var body io.Reader
	if d.body != nil {
		body = bytes.NewReader(d.body)
	}

	req, err := http.NewRequestWithContext(ctx, d.method, d.url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = d.header.Clone()

	if access != "" {
		token := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
		token.SetAuthHeader(req)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return req, nil
}
