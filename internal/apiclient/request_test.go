package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"http://127.0.0.1:8000/api", "/categories/", "http://127.0.0.1:8000/api/categories/"},
		{"http://127.0.0.1:8000/api", "categories/", "http://127.0.0.1:8000/api/categories/"},
		{"http://127.0.0.1:8000/api/", "/transactions/?month=2024-05&type=expense", "http://127.0.0.1:8000/api/transactions/?month=2024-05&type=expense"},
		{"https://example.com", "transactions/4/", "https://example.com/transactions/4/"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := resolveURL(tt.base, tt.path)
			if err != nil {
				t.Fatalf("resolveURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNewDescriptorBody(t *testing.T) {
	tests := []struct {
		name            string
		opts            Options
		wantBody        string
		wantContentType string
	}{
		{
			name: "no body, no content type",
			opts: Options{},
		},
		{
			name:            "plain object is JSON encoded",
			opts:            Options{Method: http.MethodPost, Body: map[string]any{"name": "Food"}},
			wantBody:        `{"name":"Food"}`,
			wantContentType: "application/json",
		},
		{
			name:            "string is sent as JSON text",
			opts:            Options{Method: http.MethodPost, Body: `{"name":"Rent"}`},
			wantBody:        `{"name":"Rent"}`,
			wantContentType: "application/json",
		},
		{
			name:            "raw JSON passes through",
			opts:            Options{Method: http.MethodPost, Body: json.RawMessage(`[1,2]`)},
			wantBody:        `[1,2]`,
			wantContentType: "application/json",
		},
		{
			name:     "bytes are binary and get no content type",
			opts:     Options{Method: http.MethodPost, Body: []byte{0x89, 'P', 'N', 'G'}},
			wantBody: "\x89PNG",
		},
		{
			name:            "reader is binary and keeps caller content type",
			opts:            Options{Method: http.MethodPost, Body: strings.NewReader("a,b\n1,2\n"), Header: http.Header{"Content-Type": {"text/csv"}}},
			wantBody:        "a,b\n1,2\n",
			wantContentType: "text/csv",
		},
		{
			name:            "caller content type is not overwritten",
			opts:            Options{Method: http.MethodPatch, Body: map[string]string{"name": "x"}, Header: http.Header{"Content-Type": {"application/merge-patch+json"}}},
			wantBody:        `{"name":"x"}`,
			wantContentType: "application/merge-patch+json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := newDescriptor("http://127.0.0.1:8000/api", "/categories/", tt.opts)
			if err != nil {
				t.Fatalf("newDescriptor: %v", err)
			}
			if string(desc.body) != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, desc.body)
			}
			if got := desc.header.Get("Content-Type"); got != tt.wantContentType {
				t.Errorf("expected content type %q, got %q", tt.wantContentType, got)
			}
		})
	}
}

func TestNewDescriptorRejectsUnencodableBody(t *testing.T) {
	_, err := newDescriptor("http://127.0.0.1:8000/api", "/categories/", Options{Body: make(chan int)})
	if err == nil {
		t.Fatal("expected encoding error")
	}
}

func TestNewDescriptorDefaultsToGet(t *testing.T) {
	desc, err := newDescriptor("http://127.0.0.1:8000/api", "/categories/", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if desc.method != http.MethodGet {
		t.Errorf("expected GET, got %s", desc.method)
	}
}

func TestNewRequestAuthorization(t *testing.T) {
	opts := Options{
		Method: http.MethodPost,
		Body:   map[string]int{"amount": 1},
		Header: http.Header{"Authorization": {"Bearer caller"}, "Accept": {"application/json"}},
	}
	desc, err := newDescriptor("http://127.0.0.1:8000/api", "/transactions/", opts)
	if err != nil {
		t.Fatal(err)
	}

	first, err := desc.newRequest(context.Background(), "A1")
	if err != nil {
		t.Fatal(err)
	}
	if got := first.Header.Get("Authorization"); got != "Bearer A1" {
		t.Errorf("expected stored token to overwrite caller value, got %q", got)
	}
	if got := first.Header.Get("Accept"); got != "application/json" {
		t.Errorf("expected caller header to be kept, got %q", got)
	}

	replay, err := desc.newRequest(context.Background(), "A2")
	if err != nil {
		t.Fatal(err)
	}
	if got := replay.Header.Get("Authorization"); got != "Bearer A2" {
		t.Errorf("expected replay to carry the new token, got %q", got)
	}
	if first.Header.Get(requestIDHeader) == "" || first.Header.Get(requestIDHeader) != replay.Header.Get(requestIDHeader) {
		t.Errorf("expected both attempts to share one request id")
	}

	// Both attempts must carry the full body
	for _, req := range []*http.Request{first, replay} {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatal(err)
		}
		if string(body) != `{"amount":1}` {
			t.Errorf("unexpected body %q", body)
		}
	}

	// The caller's header map is never mutated
	if opts.Header.Get("Authorization") != "Bearer caller" || opts.Header.Get(requestIDHeader) != "" {
		t.Errorf("caller header was modified: %v", opts.Header)
	}
}

func TestNewRequestWithoutAccess(t *testing.T) {
	desc, err := newDescriptor("http://127.0.0.1:8000/api", "/categories/", Options{})
	if err != nil {
		t.Fatal(err)
	}
	req, err := desc.newRequest(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if got := req.Header.Get("Authorization"); got != "" {
		t.Errorf("expected no Authorization header, got %q", got)
	}
}
