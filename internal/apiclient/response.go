package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Data returns the body when it is valid JSON, nil otherwise. A parse
// failure is not an error: the body is treated as absent.
func (r *Response) Data() json.RawMessage {
	if len(r.Body) == 0 || !json.Valid(r.Body) {
		return nil
	}
	return json.RawMessage(r.Body)
}

// readResponse drains and closes the body so the connection can be reused.
func readResponse(resp *http.Response) (*Response, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// normalize returns the parsed body of a 2xx response or an *Error.
func normalize(resp *Response) (json.RawMessage, error) {
	data := resp.Data()
	if resp.OK() {
		return data, nil
	}

	return nil, &Error{
		Message: messageFrom(data, defaultRequestErrorMessage),
		Status:  resp.StatusCode,
		Data:    data,
	}
}

// messageFrom prefers a non-empty string "detail" field of data.
func messageFrom(data json.RawMessage, fallback string) string {
	if data == nil {
		return fallback
	}
	detail := gjson.GetBytes(data, "detail")
	if detail.Type == gjson.String && detail.Str != "" {
		return detail.Str
	}
	return fallback
}
