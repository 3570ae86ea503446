package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/linguara-ai/linguara-cli/internal/usage"
)

// ListUsage fetches usage records for the authenticated account. A non-zero
// since restricts the result to records created after that instant.
func (c *Client) ListUsage(ctx context.Context, since time.Time) ([]usage.Record, error) {
	path := "/api/v1/usage"
	if !since.IsZero() {
		query := url.Values{}
		query.Set("since", since.UTC().Format(time.RFC3339))
		path += "?" + query.Encode()
	}

	var records []usage.Record
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}
