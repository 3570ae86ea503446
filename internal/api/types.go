// Package api provides an HTTP client for the Linguara backend API.
//
// All generation, article and usage operations go through this client. The
// backend owns every record; the client only reads state and triggers work,
// so there is no local mutation to reconcile beyond refetching.
//
// All calls require an api_token obtained via `linguara login`.
package api

import "time"

// ArticleStatus is the lifecycle status of an article record.
type ArticleStatus string

const (
	ArticleRunning   ArticleStatus = "running"
	ArticleCompleted ArticleStatus = "completed"
	ArticleFailed    ArticleStatus = "failed"
	ArticleDeleted   ArticleStatus = "deleted"
)

// Article is the durable record for one generated reading text.
// Status transitions are backend-authoritative; callers refetch, never mutate.
type Article struct {
	ID        string        `json:"id"`
	Language  string        `json:"language"`
	Level     string        `json:"level"`
	Length    string        `json:"length"`
	Topic     string        `json:"topic"`
	Status    ArticleStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UserID    string        `json:"user_id"`

	// JobID links to the generation job while it exists. Jobs expire after a
	// retention window, so the link must be re-read from here rather than
	// cached alongside a job snapshot.
	JobID string `json:"job_id,omitempty"`
}

// Job is the ephemeral progress record for one generation attempt.
type Job struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenerateRequest is the request body for POST /api/v1/articles/generate.
type GenerateRequest struct {
	Language string `json:"language"`
	Level    string `json:"level"`
	Length   string `json:"length"`
	Topic    string `json:"topic"`
	Force    bool   `json:"force,omitempty"`
}

// GenerateResponse is the success response from the generate endpoint.
type GenerateResponse struct {
	JobID     string `json:"job_id"`
	ArticleID string `json:"article_id"`
}

// ExistingJob describes the conflicting job returned with an HTTP 409 when an
// equivalent generation is already queued or running.
type ExistingJob struct {
	ID        string `json:"id"`
	ArticleID string `json:"article_id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
}

// conflictResponse is the 409 response body for the generate endpoint.
type conflictResponse struct {
	Duplicate   bool        `json:"duplicate"`
	ExistingJob ExistingJob `json:"existing_job"`
}

// Account is the response from GET /api/v1/auth/me.
type Account struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Plan   string `json:"plan,omitempty"`
}

// Release is one entry from the release endpoint, used for version checks.
type Release struct {
	Version     string    `json:"version"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}
