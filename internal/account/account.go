// Package account signs users in and out of the fintrack API and reports the
// state of the stored credentials.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"github.com/florianilch/fintrack/internal/apiclient"
	"github.com/florianilch/fintrack/internal/credstore"
)

const (
	loginPath    = "/auth/token/"
	registerPath = "/auth/register/"
)

// ErrMissingTokens is returned when the token endpoint answers 2xx without both tokens.
var ErrMissingTokens = errors.New("token response missing access or refresh token")

// Service signs users in and out.
type Service struct {
	client *apiclient.Client
	store  credstore.Store
}

// Status describes the stored credentials. Expiry times are zero when the
// token is absent or not a JWT with an exp claim.
type Status struct {
	Authenticated bool
	AccessExpiry  time.Time
	RefreshExpiry time.Time
}

// New creates a Service. The store must be the one the client reads from.
func New(client *apiclient.Client, store credstore.Store) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("missing API client")
	}
	if store == nil {
		return nil, fmt.Errorf("missing credential store")
	}
	return &Service{client: client, store: store}, nil
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges username and password for a token pair and stores it,
// replacing any previous credentials.
func (s *Service) Login(ctx context.Context, username, password string) (*oauth2.Token, error) {
	data, err := s.client.Send(ctx, loginPath, apiclient.Options{
		Method: http.MethodPost,
		Body:   credentialsRequest{Username: username, Password: password},
		NoAuth: true,
	})
	if err != nil {
		return nil, withFallbackMessage(err, "Invalid credentials", "detail")
	}

	access := gjson.GetBytes(data, "access").String()
	refresh := gjson.GetBytes(data, "refresh").String()
	if access == "" || refresh == "" {
		return nil, ErrMissingTokens
	}

	if err := s.store.Save(ctx, credstore.Credentials{Access: access, Refresh: refresh}); err != nil {
		return nil, fmt.Errorf("storing credentials: %w", err)
	}

	return &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		Expiry:       expiryOf(access),
	}, nil
}

// Register creates a user account. It does not sign in.
func (s *Service) Register(ctx context.Context, username, password string) error {
	_, err := s.client.Send(ctx, registerPath, apiclient.Options{
		Method: http.MethodPost,
		Body:   credentialsRequest{Username: username, Password: password},
		NoAuth: true,
	})
	if err != nil {
		return withFallbackMessage(err, "Registration failed",
			"detail", "username.0", "password.0",
			"errors.detail", "errors.username.0", "errors.password.0",
		)
	}
	return nil
}

// Logout removes the stored credentials.
func (s *Service) Logout(ctx context.Context) error {
	return s.client.ClearCredentials(ctx)
}

// Status reports whether the user is signed in and when the tokens expire.
func (s *Service) Status(ctx context.Context) (Status, error) {
	creds, err := s.store.Load(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("loading credentials: %w", err)
	}

	return Status{
		Authenticated: s.client.IsAuthenticated(ctx),
		AccessExpiry:  expiryOf(creds.Access),
		RefreshExpiry: expiryOf(creds.Refresh),
	}, nil
}

// withFallbackMessage rewrites the message of an *apiclient.Error using the
// first non-empty string found at paths in the error body, or fallback.
func withFallbackMessage(err error, fallback string, paths ...string) error {
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	msg := fallback
	for _, path := range paths {
		if v := gjson.GetBytes(apiErr.Data, path); v.Type == gjson.String && v.Str != "" {
			msg = v.Str
			break
		}
	}

	return &apiclient.Error{
		Message: msg,
		Status:  apiErr.Status,
		Data:    apiErr.Data,
		Err:     apiErr.Err,
	}
}

// expiryOf returns the exp claim of a JWT without verifying its signature.
// The server verifies tokens; this is only used for display.
func expiryOf(token string) time.Time {
	if token == "" {
		return time.Time{}
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
