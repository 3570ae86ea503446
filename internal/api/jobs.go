package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// GetJob fetches the current status of a generation job.
//
// Jobs expire after a retention window; a job that has aged out returns
// ErrNotFound even when its article still exists.
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	path := fmt.Sprintf("/api/v1/jobs/%s", url.PathEscape(jobID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
