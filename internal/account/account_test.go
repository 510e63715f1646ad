package account

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/florianilch/fintrack/internal/apiclient"
	"github.com/florianilch/fintrack/internal/credstore"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		Subject:   "1",
	})
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newTestService(t *testing.T, handler http.HandlerFunc, creds credstore.Credentials) (*Service, *credstore.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := credstore.NewMemoryStore(creds)
	client, err := apiclient.New(srv.URL+"/api", store)
	if err != nil {
		t.Fatal(err)
	}
	svc, err := New(client, store)
	if err != nil {
		t.Fatal(err)
	}
	return svc, store
}

func respond(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestLogin(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	access := signedToken(t, exp)

	svc, store := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/token/" {
			respond(w, http.StatusNotFound, `{"detail":"Not found."}`)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login must not send credentials, got %q", r.Header.Get("Authorization"))
		}
		var body credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username != "alice" || body.Password != "s3cret" {
			respond(w, http.StatusBadRequest, `{"detail":"bad body"}`)
			return
		}
		respond(w, http.StatusOK, `{"access":"`+access+`","refresh":"R1"}`)
	}, credstore.Credentials{Access: "stale", Refresh: "stale"})

	token, err := svc.Login(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token.AccessToken != access || token.RefreshToken != "R1" {
		t.Errorf("unexpected token %+v", token)
	}
	if !token.Expiry.Equal(exp) {
		t.Errorf("expected expiry %v, got %v", exp, token.Expiry)
	}
	if !token.Valid() {
		t.Error("expected a valid token")
	}

	creds, _ := store.Load(context.Background())
	if creds.Access != access || creds.Refresh != "R1" {
		t.Errorf("unexpected stored credentials %+v", creds)
	}
}

func TestLoginFailureMessages(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "server detail", status: http.StatusUnauthorized, body: `{"detail":"No active account found with the given credentials"}`, wantMessage: "No active account found with the given credentials"},
		{name: "no detail", status: http.StatusUnauthorized, body: `{}`, wantMessage: "Invalid credentials"},
		{name: "not JSON", status: http.StatusInternalServerError, body: `oops`, wantMessage: "Invalid credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			svc, store := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				respond(w, tt.status, tt.body)
			}, credstore.Credentials{})

			_, err := svc.Login(context.Background(), "alice", "wrong")
			var apiErr *apiclient.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *apiclient.Error, got %v", err)
			}
			if apiErr.Message != tt.wantMessage || apiErr.Status != tt.status {
				t.Errorf("unexpected error %+v", apiErr)
			}
			if got := calls.Load(); got != 1 {
				t.Errorf("a failed login must not refresh or retry, got %d calls", got)
			}
			creds, _ := store.Load(context.Background())
			if !creds.IsZero() {
				t.Errorf("expected nothing stored, got %+v", creds)
			}
		})
	}
}

func TestLoginMissingTokens(t *testing.T) {
	svc, store := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, `{"access":"A1"}`)
	}, credstore.Credentials{})

	if _, err := svc.Login(context.Background(), "alice", "s3cret"); !errors.Is(err, ErrMissingTokens) {
		t.Fatalf("expected ErrMissingTokens, got %v", err)
	}
	creds, _ := store.Load(context.Background())
	if !creds.IsZero() {
		t.Errorf("expected nothing stored, got %+v", creds)
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     bool
		wantMessage string
	}{
		{name: "created", status: http.StatusCreated, body: `{"id":1,"username":"alice"}`},
		{name: "detail", status: http.StatusBadRequest, body: `{"detail":"Registration closed."}`, wantErr: true, wantMessage: "Registration closed."},
		{name: "username field error", status: http.StatusBadRequest, body: `{"username":["A user with that username already exists."]}`, wantErr: true, wantMessage: "A user with that username already exists."},
		{name: "wrapped password error", status: http.StatusBadRequest, body: `{"errors":{"password":["This password is too short."]}}`, wantErr: true, wantMessage: "This password is too short."},
		{name: "unknown shape", status: http.StatusBadRequest, body: `{"errors":{"email":["Invalid."]}}`, wantErr: true, wantMessage: "Registration failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/auth/register/" {
					respond(w, http.StatusNotFound, `{}`)
					return
				}
				respond(w, tt.status, tt.body)
			}, credstore.Credentials{})

			err := svc.Register(context.Background(), "alice", "pw")
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Register: %v", err)
				}
				return
			}
			var apiErr *apiclient.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *apiclient.Error, got %v", err)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("expected %q, got %q", tt.wantMessage, apiErr.Message)
			}
		})
	}
}

func TestStatusAndLogout(t *testing.T) {
	accessExp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	refreshExp := time.Now().Add(24 * time.Hour).Truncate(time.Second)

	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusNotFound, `{}`)
	}, credstore.Credentials{Access: signedToken(t, accessExp), Refresh: signedToken(t, refreshExp)})
	ctx := context.Background()

	status, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Authenticated || !status.AccessExpiry.Equal(accessExp) || !status.RefreshExpiry.Equal(refreshExp) {
		t.Errorf("unexpected status %+v", status)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	status, err = svc.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Authenticated || !status.AccessExpiry.IsZero() || !status.RefreshExpiry.IsZero() {
		t.Errorf("expected signed-out status, got %+v", status)
	}
}

func TestExpiryOfOpaqueToken(t *testing.T) {
	if got := expiryOf("not-a-jwt"); !got.IsZero() {
		t.Errorf("expected zero expiry, got %v", got)
	}
}
