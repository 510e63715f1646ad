// Package apiclient dispatches authenticated requests to the fintrack REST API.
//
// A Client attaches the stored access token to every request as a bearer
// token. When the API answers 401 the client refreshes the access token once
// and replays the request exactly once with the new token:
//
//	store := credstore.NewMemoryStore(credstore.Credentials{Access: access, Refresh: refresh})
//	client, err := apiclient.New("http://127.0.0.1:8000/api", store)
//	var categories []finance.Category
//	err = client.Do(ctx, "/categories/", apiclient.Options{}, &categories)
//
// # Refresh coordination
//
// Concurrent requests that all observe an expired token share a single
// refresh call. The first caller starts it; later callers join and receive the
// same new token or the same error. A failed refresh clears the credential
// store before any waiter is released.
//
// # Errors
//
// Every non-2xx outcome is returned as *Error carrying the status, the parsed
// body and a message taken from the body's "detail" field when present.
// Transport failures (no response at all) are returned unchanged.
package apiclient
