package apiclient

import (
	"encoding/json"
	"errors"
)

// Messages shown to users, e.g. as the proxy's {"detail": ...} body. They
// read like the API's own detail strings; the sentinels below follow Go casing.
const (
	defaultRequestErrorMessage = "Request failed"
	defaultRefreshErrorMessage = "Refresh token invalid"
	noRefreshTokenMessage      = "No refresh token"
	malformedRefreshMessage    = "Refresh response missing access token"
	credentialsChangedMessage  = "Signed out during token refresh"
)

var (
	// ErrNoRefreshToken is returned when a refresh is needed but no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrRefreshRejected is wrapped by errors for non-2xx refresh responses.
	ErrRefreshRejected = errors.New("refresh rejected")

	// ErrRefreshMalformed is wrapped by errors for 2xx refresh responses without an access token.
	ErrRefreshMalformed = errors.New("refresh response missing access token")
)

// Error is the normalized error for every failed API call that is not a
// transport failure.
type Error struct {
	// Message is a human-readable description, preferring the server's "detail" field.
	Message string
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	// Data is the parsed response body, or nil when absent or not JSON.
	Data json.RawMessage
	// Err is the underlying cause, if any.
	Err error
}

// Compile-time check that *Error implements error.
var _ error = (*Error)(nil)

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is an *Error with status 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == 401
}
