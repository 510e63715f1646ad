// Package finance provides typed access to the categories and transactions
// resources of the fintrack API, and client-side aggregation of transactions
// for the dashboard summary.
//
// Services only describe paths, verbs and payloads; authentication, token
// refresh and error normalization are handled by the Sender they wrap
// (normally an *apiclient.Client).
package finance
