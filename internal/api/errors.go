package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the backend rejected the token (HTTP 401).
// Never retried automatically; callers should direct the user to `linguara login`.
var ErrUnauthorized = errors.New("not authenticated")

// ErrNotFound indicates the requested record does not exist (HTTP 404).
// Expired jobs and deleted articles surface as this.
var ErrNotFound = errors.New("not found")

// ConflictError is returned by Generate when the backend already has a job
// for equivalent inputs and force was not set. It is a decision point, not a
// failure: the caller chooses between forcing a new generation and adopting
// the existing job.
type ConflictError struct {
	Existing ExistingJob
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("generation already exists (job %s, status %s)", e.Existing.ID, e.Existing.Status)
}

// BackendError is a structured error response from the backend (4xx/5xx with
// a JSON body). The message is surfaced verbatim.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}

// backendMessage extracts a human-readable message from an error response
// body. The backend is not consistent about the field name, so a small
// ordered set is tried before falling back to a generic default.
func backendMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"error", "message", "detail"} {
			var msg string
			if raw, ok := fields[key]; ok && json.Unmarshal(raw, &msg) == nil && msg != "" {
				return msg
			}
		}
	}
	return "request failed"
}
