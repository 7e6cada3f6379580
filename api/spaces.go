package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListSpacesOptions contains options for listing spaces.
type ListSpacesOptions struct {
	Limit  int
	Cursor string
	Type   string   // global, personal
	Status string   // current, archived
	Keys   []string // Filter by space keys
}

// ListSpaces returns a list of spaces.
func (c *Client) ListSpaces(ctx context.Context, opts *ListSpacesOptions) (*PaginatedResponse[Space], error) {
	params := url.Values{}
	params.Set("limit", "25")

	if opts != nil {
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Cursor != "" {
			params.Set("cursor", opts.Cursor)
		}
		if opts.Type != "" {
			params.Set("type", opts.Type)
		}
		if opts.Status != "" {
			params.Set("status", opts.Status)
		}
		for _, key := range opts.Keys {
			params.Add("keys", key)
		}
	}

	var result PaginatedResponse[Space]
	if err := c.getJSON(ctx, "/api/v2/spaces?"+params.Encode(), "spaces", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSpaceByKey returns a space by its key.
func (c *Client) GetSpaceByKey(ctx context.Context, key string) (*Space, error) {
	result, err := c.ListSpaces(ctx, &ListSpacesOptions{Keys: []string{key}, Limit: 1})
	if err != nil {
		return nil, err
	}

	if len(result.Results) == 0 {
		return nil, &ErrorResponse{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("Space with key '%s' not found", key),
		}
	}

	return &result.Results[0], nil
}
