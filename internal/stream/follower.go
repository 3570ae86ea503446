// Package stream follows generation jobs over a WebSocket instead of HTTP
// polling. The backend pushes a job event whenever progress changes, which
// gives `linguara generate --follow` lower latency than the poll interval.
//
// The follower is strictly optional: when the socket cannot be established
// the caller falls back to the poller.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/linguara-ai/linguara-cli/internal/api"
	"github.com/linguara-ai/linguara-cli/internal/poll"
)

// Follower streams job events from the backend.
type Follower struct {
	baseURL string
	token   string

	// Reconnection settings
	backoff    time.Duration
	maxBackoff time.Duration

	// Debug callback (optional)
	debugFunc func(format string, args ...any)
}

// FollowerConfig holds configuration for a Follower.
type FollowerConfig struct {
	// BaseURL is the Linguara API base URL (e.g., "https://linguara.ai")
	BaseURL string

	// Token is the api_token from `linguara login`
	Token string

	// DebugFunc is an optional callback for debug logging
	DebugFunc func(format string, args ...any)
}

// NewFollower creates a Follower.
func NewFollower(cfg FollowerConfig) *Follower {
	return &Follower{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		backoff:    time.Second,
		maxBackoff: 30 * time.Second,
		debugFunc:  cfg.DebugFunc,
	}
}

func (f *Follower) debug(format string, args ...any) {
	if f.debugFunc != nil {
		f.debugFunc(format, args...)
	}
}

// wsURL converts the HTTP base URL into the job stream WebSocket URL.
func (f *Follower) wsURL(jobID string) (string, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + fmt.Sprintf("/api/v1/jobs/%s/stream", url.PathEscape(jobID))
	return u.String(), nil
}

// Follow streams events for jobID into cb until the job goes terminal or the
// context is cancelled. The backend emits an event per meaningful change, so
// every non-terminal event is forwarded to OnChange as-is.
//
// The initial dial failing is returned immediately so the caller can fall
// back to polling. Read failures after a successful dial reconnect with
// backoff; the job state is re-sent by the backend on reconnect.
func (f *Follower) Follow(ctx context.Context, jobID string, cb poll.Callbacks) error {
	conn, err := f.dial(ctx, jobID)
	if err != nil {
		return err
	}

	backoff := f.backoff
	for {
		terminal, err := f.readEvents(ctx, conn, jobID, cb)
		conn.Close()
		if terminal {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.debug("stream: connection lost for job %s: %v", jobID, err)

		// Reconnect with backoff until the context gives up
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			conn, err = f.dial(ctx, jobID)
			if err == nil {
				backoff = f.backoff
				break
			}
			f.debug("stream: reconnect failed for job %s: %v", jobID, err)
			backoff *= 2
			if backoff > f.maxBackoff {
				backoff = f.maxBackoff
			}
		}
	}
}

func (f *Follower) dial(ctx context.Context, jobID string) (*websocket.Conn, error) {
	wsURL, err := f.wsURL(jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to build stream URL: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+f.token)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("stream connection failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("stream connection failed: %w", err)
	}

	f.debug("stream: connected for job %s", jobID)
	return conn, nil
}

// readEvents reads until the job goes terminal, the context is cancelled, or
// the connection drops. Returns terminal=true once OnComplete/OnError fired.
func (f *Follower) readEvents(ctx context.Context, conn *websocket.Conn, jobID string, cb poll.Callbacks) (bool, error) {
	// Unblock ReadMessage when the context is cancelled
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return false, err
		}

		var job api.Job
		if err := json.Unmarshal(message, &job); err != nil {
			f.debug("stream: failed to parse event: %v", err)
			continue
		}

		snap := poll.Normalize(jobID, &job)
		if snap.Status.Terminal() {
			if snap.Status == poll.StatusCompleted {
				if cb.OnComplete != nil {
					cb.OnComplete(snap)
				}
			} else if cb.OnError != nil {
				cb.OnError(snap)
			}
			return true, nil
		}

		if cb.OnChange != nil {
			cb.OnChange(snap)
		}
	}
}
