package api

import (
	"context"
	"fmt"
	"net/url"
)

// GetPageOptions contains options for getting a page.
type GetPageOptions struct {
	BodyFormat string // storage, atlas_doc_format, view
}

// GetPage returns a single page by ID.
func (c *Client) GetPage(ctx context.Context, pageID string, opts *GetPageOptions) (*Page, error) {
	path := "/api/v2/pages/" + url.PathEscape(pageID)
	if opts != nil && opts.BodyFormat != "" {
		params := url.Values{}
		params.Set("body-format", opts.BodyFormat)
		path += "?" + params.Encode()
	}

	var page Page
	if err := c.getJSON(ctx, path, "page", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PageURL returns the absolute web URL of page.
func (c *Client) PageURL(page *Page) string {
	if page.Links.WebUI == "" {
		return fmt.Sprintf("%s/pages/viewpage.action?pageId=%s", c.baseURL, url.QueryEscape(page.ID))
	}
	return c.baseURL + page.Links.WebUI
}
