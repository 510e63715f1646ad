package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/florianilch/fintrack/internal/apiclient"
)

// Categories accesses the categories resource.
type Categories struct {
	api Sender
}

// NewCategories creates a Categories service.
func NewCategories(api Sender) *Categories {
	return &Categories{api: api}
}

// List returns the user's categories ordered by name.
func (c *Categories) List(ctx context.Context) ([]Category, error) {
	var raw json.RawMessage
	if err := c.api.Do(ctx, "/categories/", apiclient.Options{}, &raw); err != nil {
		return nil, err
	}
	return decodeList[Category](raw)
}

// Create adds a category.
func (c *Categories) Create(ctx context.Context, name string) (*Category, error) {
	in := CategoryInput{Name: strings.TrimSpace(name)}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid category: %w", err)
	}

	var out Category
	if err := c.api.Do(ctx, "/categories/", apiclient.Options{Method: http.MethodPost, Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rename changes a category's name.
func (c *Categories) Rename(ctx context.Context, id int64, name string) (*Category, error) {
	in := CategoryInput{Name: strings.TrimSpace(name)}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid category: %w", err)
	}

	var out Category
	if err := c.api.Do(ctx, categoryPath(id), apiclient.Options{Method: http.MethodPatch, Body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a category. The API refuses while transactions still reference it.
func (c *Categories) Delete(ctx context.Context, id int64) error {
	return c.api.Do(ctx, categoryPath(id), apiclient.Options{Method: http.MethodDelete}, nil)
}

func categoryPath(id int64) string {
	return fmt.Sprintf("/categories/%d/", id)
}
