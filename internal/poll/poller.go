// Package poll tracks generation jobs by polling the backend job endpoint.
//
// A subscription fetches job status at a fixed cadence and notifies its
// callbacks only on meaningful change or on a terminal transition. Transient
// fetch failures never stop the loop; only a well-formed terminal status (or
// an unsubscribe) does.
//
// Architecture:
//
//	Subscription goroutine              Linguara API
//	┌──────────────┐   GET /jobs/:id   ┌─────────────┐
//	│ immediate    │ ────────────────▶ │  job status │
//	│ fetch, then  │ ◀──────────────── │  endpoint   │
//	│ ticker loop  │    snapshot       └─────────────┘
//	└──────┬───────┘
//	       │ diff + terminal detection
//	       ▼
//	 OnChange / OnComplete / OnError
package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linguara-ai/linguara-cli/internal/api"
)

// Status is the normalized job status seen by subscribers.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether no further transition can occur from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Snapshot is one normalized observation of a job.
type Snapshot struct {
	JobID       string
	Status      Status
	CurrentTask string
	Progress    int
	Message     string
	Error       string
	UpdatedAt   time.Time
}

// Normalize maps a raw backend job onto the subscriber-facing snapshot. A nil
// job (expired or never existed) maps to idle.
func Normalize(jobID string, job *api.Job) Snapshot {
	snap := Snapshot{JobID: jobID, Status: StatusIdle}
	if job == nil {
		return snap
	}

	switch job.Status {
	case "succeeded", "completed":
		snap.Status = StatusCompleted
	case "failed", "error":
		snap.Status = StatusError
	case "running":
		snap.Status = StatusRunning
		snap.CurrentTask = "processing"
	case "queued":
		snap.Status = StatusQueued
		snap.CurrentTask = "queued"
	default:
		snap.Status = StatusIdle
	}

	snap.Progress = job.Progress
	snap.Message = job.Message
	snap.Error = job.Error
	snap.UpdatedAt = job.UpdatedAt
	return snap
}

// changed reports whether a snapshot is worth propagating downstream. It is a
// re-render guard, not a correctness gate: only the fields subscribers render
// are compared.
func changed(prev, next Snapshot) bool {
	return prev.CurrentTask != next.CurrentTask ||
		prev.Progress != next.Progress ||
		prev.Message != next.Message ||
		prev.Error != next.Error
}

// Fetcher fetches raw job state. *api.Client satisfies this.
type Fetcher interface {
	GetJob(ctx context.Context, jobID string) (*api.Job, error)
}

// Callbacks receive subscription events. Nil callbacks are skipped. Exactly
// one of OnComplete/OnError fires, at most once, when the job goes terminal.
type Callbacks struct {
	OnChange   func(Snapshot)
	OnComplete func(Snapshot)
	OnError    func(Snapshot)
}

// Poller creates job status subscriptions against a single fetcher.
type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	logFn    func(level, msg string)
}

// PollerConfig holds configuration for a Poller.
type PollerConfig struct {
	// Fetcher retrieves job status (usually the API client)
	Fetcher Fetcher

	// Interval between fetches (default: 2s)
	Interval time.Duration

	// LogFn is an optional callback for logging transient fetch failures
	LogFn func(level, msg string)
}

// New creates a Poller.
func New(cfg PollerConfig) *Poller {
	interval := cfg.Interval
	if interval == 0 {
		interval = 2 * time.Second
	}
	return &Poller{
		fetcher:  cfg.Fetcher,
		interval: interval,
		logFn:    cfg.LogFn,
	}
}

// Subscription is one active polling loop for one job id.
type Subscription struct {
	jobID    string
	poller   *Poller
	cb       Callbacks
	interval time.Duration

	// active gates every callback: it is checked after each fetch resolves,
	// so a response that lands after Unsubscribe is discarded rather than
	// acted on.
	active   atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once

	// last propagated snapshot, touched only by the loop goroutine
	last    Snapshot
	hasLast bool
}

// Subscribe starts polling jobID immediately (the first fetch does not wait
// for the first interval). An empty jobID returns an inert subscription that
// never fetches; Unsubscribe on it is still safe.
func (p *Poller) Subscribe(ctx context.Context, jobID string, cb Callbacks) *Subscription {
	sub := &Subscription{
		jobID:    jobID,
		poller:   p,
		cb:       cb,
		interval: p.interval,
		stop:     make(chan struct{}),
	}
	if jobID == "" {
		return sub
	}

	sub.active.Store(true)
	go sub.run(ctx)
	return sub
}

// Unsubscribe cancels the subscription immediately. Idempotent. Any fetch
// already in flight is discarded when it resolves.
func (s *Subscription) Unsubscribe() {
	s.stopOnce.Do(func() {
		s.active.Store(false)
		close(s.stop)
	})
}

// Active reports whether the subscription is still polling.
func (s *Subscription) Active() bool {
	return s.active.Load()
}

// JobID returns the subscribed job id.
func (s *Subscription) JobID() string {
	return s.jobID
}

func (s *Subscription) run(ctx context.Context) {
	if done := s.tick(ctx); done {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			s.Unsubscribe()
			return
		case <-ticker.C:
			if done := s.tick(ctx); done {
				return
			}
		}
	}
}

// tick performs one fetch-and-diff pass. It returns true when the loop
// should stop (terminal status observed, or subscription cancelled).
func (s *Subscription) tick(ctx context.Context) bool {
	job, err := s.poller.fetcher.GetJob(ctx, s.jobID)

	// The subscription may have been cancelled while the request was in
	// flight; a stale response must not reach any callback.
	if !s.active.Load() {
		return true
	}

	if err != nil && !errors.Is(err, api.ErrNotFound) {
		s.poller.log("warning", fmt.Sprintf("poll %s: %v", s.jobID, err))
		return false
	}

	snap := Normalize(s.jobID, job)

	if snap.Status.Terminal() {
		s.Unsubscribe()
		if snap.Status == StatusCompleted {
			if s.cb.OnComplete != nil {
				s.cb.OnComplete(snap)
			}
		} else if s.cb.OnError != nil {
			s.cb.OnError(snap)
		}
		return true
	}

	if !s.hasLast || changed(s.last, snap) {
		s.last = snap
		s.hasLast = true
		if s.cb.OnChange != nil {
			s.cb.OnChange(snap)
		}
	}
	return false
}

func (p *Poller) log(level, msg string) {
	if p.logFn != nil {
		p.logFn(level, msg)
	}
}
