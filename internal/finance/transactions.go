package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/florianilch/fintrack/internal/apiclient"
)

// Transactions accesses the transactions resource.
type Transactions struct {
	api Sender
}

// NewTransactions creates a Transactions service.
func NewTransactions(api Sender) *Transactions {
	return &Transactions{api: api}
}

// List returns transactions matching the filter.
func (t *Transactions) List(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	if err := validate.Struct(filter); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}

	path := "/transactions/"
	if qs := filter.query().Encode(); qs != "" {
		path += "?" + qs
	}

	var raw json.RawMessage
	if err := t.api.Do(ctx, path, apiclient.Options{}, &raw); err != nil {
		return nil, err
	}
	return decodeList[Transaction](raw)
}

// Create adds a transaction.
func (t *Transactions) Create(ctx context.Context, in TransactionInput) (*Transaction, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}

	var out Transaction
	if err := t.api.Do(ctx, "/transactions/", apiclient.Options{Method: http.MethodPost, Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies a partial update to a transaction.
func (t *Transactions) Update(ctx context.Context, id int64, patch TransactionPatch) (*Transaction, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, fmt.Errorf("invalid transaction update: %w", err)
	}

	var out Transaction
	if err := t.api.Do(ctx, transactionPath(id), apiclient.Options{Method: http.MethodPatch, Body: patch}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a transaction.
func (t *Transactions) Delete(ctx context.Context, id int64) error {
	return t.api.Do(ctx, transactionPath(id), apiclient.Options{Method: http.MethodDelete}, nil)
}

func (f TransactionFilter) query() url.Values {
	qs := url.Values{}
	if f.Month != "" {
		qs.Set("month", f.Month)
	}
	if f.Type != "" {
		qs.Set("type", string(f.Type))
	}
	if f.Category != 0 {
		qs.Set("category", strconv.FormatInt(f.Category, 10))
	}
	if f.Query != "" {
		qs.Set("q", f.Query)
	}
	if f.Sort != "" {
		qs.Set("sort", f.Sort)
	}
	return qs
}

func transactionPath(id int64) string {
	return fmt.Sprintf("/transactions/%d/", id)
}
