// Package api provides a read-only Confluence Cloud REST API client.
package api

import (
	"errors"
	"net/http"
	"time"
)

// PaginatedResponse wraps paginated API responses.
type PaginatedResponse[T any] struct {
	Results []T   `json:"results"`
	Links   Links `json:"_links,omitempty"`
}

// Links contains pagination and navigation links.
type Links struct {
	Next  string `json:"next,omitempty"`
	Base  string `json:"base,omitempty"`
	WebUI string `json:"webui,omitempty"`
}

// HasMore returns true if there are more results available.
func (p *PaginatedResponse[T]) HasMore() bool {
	return p.Links.Next != ""
}

// Space represents a Confluence space.
type Space struct {
	ID          string            `json:"id"`
	Key         string            `json:"key"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Status      string            `json:"status"`
	Description *SpaceDescription `json:"description,omitempty"`
	Links       Links             `json:"_links,omitempty"`
}

// SpaceDescription contains space description in various formats.
type SpaceDescription struct {
	Plain *DescriptionValue `json:"plain,omitempty"`
	View  *DescriptionValue `json:"view,omitempty"`
}

// DescriptionValue holds the actual description text.
type DescriptionValue struct {
	Value string `json:"value"`
}

// Page represents a Confluence page.
type Page struct {
	ID        string   `json:"id"`
	Status    string   `json:"status"`
	Title     string   `json:"title"`
	SpaceID   string   `json:"spaceId"`
	ParentID  string   `json:"parentId,omitempty"`
	AuthorID  string   `json:"authorId,omitempty"`
	CreatedAt Time     `json:"createdAt,omitempty"`
	Version   *Version `json:"version,omitempty"`
	Body      *Body    `json:"body,omitempty"`
	Links     Links    `json:"_links,omitempty"`
}

// Version contains page version information.
type Version struct {
	Number    int    `json:"number"`
	Message   string `json:"message,omitempty"`
	CreatedAt Time   `json:"createdAt,omitempty"`
}

// Body contains page content in the requested representation.
type Body struct {
	Storage *BodyRepresentation `json:"storage,omitempty"`
	View    *BodyRepresentation `json:"view,omitempty"`
}

// BodyRepresentation holds content in a specific format.
type BodyRepresentation struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

// Time is a wrapper around time.Time for Confluence's date format.
type Time struct {
	time.Time
}

// UnmarshalJSON parses Confluence's ISO 8601 date format.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` || s == "" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		parsed, err = time.Parse("2006-01-02T15:04:05.000Z", s)
		if err != nil {
			return err
		}
	}

	t.Time = parsed
	return nil
}

// MarshalJSON formats time in ISO 8601 format.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
}

func (e *ErrorResponse) Error() string {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return e.Message
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var errResp *ErrorResponse
	return errors.As(err, &errResp) && errResp.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 or 403 from the API.
func IsUnauthorized(err error) bool {
	var errResp *ErrorResponse
	if !errors.As(err, &errResp) {
		return false
	}
	return errResp.StatusCode == http.StatusUnauthorized || errResp.StatusCode == http.StatusForbidden
}
