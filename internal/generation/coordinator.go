// Package generation drives the full article generation sequence:
// create+enqueue, poll the job, then reconcile the durable article record
// once the job goes terminal.
//
// The coordinator is a small state machine:
//
//	Idle → Submitting → (AwaitingDecision) → Polling → Reconciling → Idle
//	                                            │
//	                                            └────→ Failed → Idle
//
// AwaitingDecision is entered when the backend reports an equivalent
// generation already in flight (HTTP 409). The pending conflict is resolved
// by the caller with Force, Adopt, or Abort; the coordinator never decides
// on its own.
package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/linguara-ai/linguara-cli/internal/api"
	"github.com/linguara-ai/linguara-cli/internal/poll"
)

// State identifies the coordinator's position in the generation sequence.
type State string

const (
	StateIdle             State = "idle"
	StateSubmitting       State = "submitting"
	StateAwaitingDecision State = "awaiting_decision"
	StatePolling          State = "polling"
	StateReconciling      State = "reconciling"
	StateFailed           State = "failed"
)

// ErrBusy is returned by Start while a generation attempt is already in
// flight. Only the force resolution of a pending conflict may interrupt.
var ErrBusy = errors.New("a generation is already in progress")

// ErrNoConflict is returned by Force/Adopt/Abort when there is no pending
// conflict to resolve.
var ErrNoConflict = errors.New("no pending conflict to resolve")

// JobFailedError is a job that reached a failed status. The article is left
// exactly as the backend last wrote it.
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation job %s failed", e.JobID)
	}
	return fmt.Sprintf("generation job %s failed: %s", e.JobID, e.Message)
}

// Backend is the API surface the coordinator needs. *api.Client satisfies it.
type Backend interface {
	Generate(ctx context.Context, req api.GenerateRequest) (*api.GenerateResponse, error)
	GetArticle(ctx context.Context, articleID string) (*api.Article, error)
	GetArticleContent(ctx context.Context, articleID string) (string, error)
}

// Callbacks receive coordinator events. Nil callbacks are skipped. Errors are
// always delivered here rather than panicking across goroutines.
type Callbacks struct {
	// OnState fires on every state transition
	OnState func(State)

	// OnProgress relays poller snapshots while polling
	OnProgress func(poll.Snapshot)

	// OnConflict fires when entering AwaitingDecision
	OnConflict func(api.ExistingJob)

	// OnReconciled delivers the refetched article and its content after a
	// successful generation
	OnReconciled func(article *api.Article, content string)

	// OnFailed delivers job failures and reconciliation errors
	OnFailed func(error)
}

// Config holds configuration for a Coordinator.
type Config struct {
	Backend   Backend
	Poller    *poll.Poller
	Callbacks Callbacks
}

// Coordinator runs one generation attempt at a time.
type Coordinator struct {
	backend Backend
	poller  *poll.Poller
	cb      Callbacks

	mu        sync.Mutex
	state     State
	inputs    Inputs
	conflict  *api.ExistingJob
	jobID     string
	articleID string
	sub       *poll.Subscription

	// reconciled records job ids whose terminal transition has already been
	// handled, so duplicate notifications cannot trigger a second fetch pair.
	reconciled map[string]bool
}

// New creates a Coordinator in the Idle state.
func New(cfg Config) *Coordinator {
	return &Coordinator{
		backend:    cfg.Backend,
		poller:     cfg.Poller,
		cb:         cfg.Callbacks,
		state:      StateIdle,
		reconciled: make(map[string]bool),
	}
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Conflict returns the pending conflicting job, if any.
func (c *Coordinator) Conflict() *api.ExistingJob {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conflict == nil {
		return nil
	}
	snapshot := *c.conflict
	return &snapshot
}

// JobID returns the job id of the attempt in flight, if any.
func (c *Coordinator) JobID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobID
}

// Start begins a generation attempt. Inputs are validated before any network
// call. While an attempt is in flight Start returns ErrBusy, except when a
// conflict is pending and force is set, which is the force resolution path.
//
// A conflict with force=false moves the coordinator to AwaitingDecision and
// returns the *api.ConflictError so the caller can choose Force, Adopt, or
// Abort.
func (c *Coordinator) Start(ctx context.Context, inputs Inputs, force bool) error {
	if err := inputs.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	switch c.state {
	case StateIdle:
	case StateAwaitingDecision:
		if !force {
			c.mu.Unlock()
			return ErrBusy
		}
		c.conflict = nil
	default:
		c.mu.Unlock()
		return ErrBusy
	}
	c.inputs = inputs
	changed := c.setStateLocked(StateSubmitting)
	c.mu.Unlock()
	c.notifyState(changed, StateSubmitting)

	resp, err := c.backend.Generate(ctx, inputs.request(force))
	if err != nil {
		var conflict *api.ConflictError
		if !force && errors.As(err, &conflict) {
			c.mu.Lock()
			c.conflict = &conflict.Existing
			changed := c.setStateLocked(StateAwaitingDecision)
			c.mu.Unlock()
			c.notifyState(changed, StateAwaitingDecision)
			if c.cb.OnConflict != nil {
				c.cb.OnConflict(conflict.Existing)
			}
			return err
		}
		c.mu.Lock()
		changed = c.setStateLocked(StateIdle)
		c.mu.Unlock()
		c.notifyState(changed, StateIdle)
		return err
	}

	c.beginPolling(ctx, resp.JobID, resp.ArticleID)
	return nil
}

// Force resolves a pending conflict by submitting a fresh generation with
// the original inputs and the force flag set.
func (c *Coordinator) Force(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateAwaitingDecision {
		c.mu.Unlock()
		return ErrNoConflict
	}
	inputs := c.inputs
	c.mu.Unlock()

	return c.Start(ctx, inputs, true)
}

// Adopt resolves a pending conflict by taking over the existing job instead
// of creating a new article/job pair.
//
// A job already terminal-successful is reconciled immediately against its
// own article id. A job still in flight is handed to the poller. A job that
// already failed is surfaced as a *JobFailedError without being adopted.
func (c *Coordinator) Adopt(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateAwaitingDecision || c.conflict == nil {
		c.mu.Unlock()
		return ErrNoConflict
	}
	existing := *c.conflict
	c.conflict = nil
	c.mu.Unlock()

	switch existing.Status {
	case "succeeded", "completed":
		return c.reconcile(ctx, existing.ID, existing.ArticleID)
	case "failed", "error":
		c.mu.Lock()
		changed := c.setStateLocked(StateIdle)
		c.mu.Unlock()
		c.notifyState(changed, StateIdle)
		return &JobFailedError{JobID: existing.ID, Message: existing.Error}
	default:
		c.beginPolling(ctx, existing.ID, existing.ArticleID)
		return nil
	}
}

// Abort resolves a pending conflict by dropping back to Idle without any
// backend call.
func (c *Coordinator) Abort() error {
	c.mu.Lock()
	if c.state != StateAwaitingDecision {
		c.mu.Unlock()
		return ErrNoConflict
	}
	c.conflict = nil
	changed := c.setStateLocked(StateIdle)
	c.mu.Unlock()
	c.notifyState(changed, StateIdle)
	return nil
}

// Cancel stops any active polling and returns the coordinator to Idle. The
// backend job keeps running; only the local tracking stops.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
	c.conflict = nil
	changed := c.setStateLocked(StateIdle)
	c.mu.Unlock()
	c.notifyState(changed, StateIdle)
}

func (c *Coordinator) beginPolling(ctx context.Context, jobID, articleID string) {
	c.mu.Lock()
	c.jobID = jobID
	c.articleID = articleID
	changed := c.setStateLocked(StatePolling)
	c.mu.Unlock()
	c.notifyState(changed, StatePolling)

	sub := c.poller.Subscribe(ctx, jobID, poll.Callbacks{
		OnChange: func(snap poll.Snapshot) {
			if c.cb.OnProgress != nil {
				c.cb.OnProgress(snap)
			}
		},
		OnComplete: func(snap poll.Snapshot) {
			if err := c.reconcile(ctx, snap.JobID, articleID); err != nil && c.cb.OnFailed != nil {
				c.cb.OnFailed(err)
			}
		},
		OnError: func(snap poll.Snapshot) {
			c.jobFailed(snap.JobID, snap.Error)
		},
	})

	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()
}

// reconcile refetches the article record and its content after a successful
// job. Exactly one fetch pair runs per job id: duplicate terminal
// notifications and overlapping calls are no-ops.
func (c *Coordinator) reconcile(ctx context.Context, jobID, articleID string) error {
	c.mu.Lock()
	if c.reconciled[jobID] {
		c.mu.Unlock()
		return nil
	}
	c.reconciled[jobID] = true
	c.jobID = jobID
	c.articleID = articleID
	changed := c.setStateLocked(StateReconciling)
	c.mu.Unlock()
	c.notifyState(changed, StateReconciling)

	article, err := c.backend.GetArticle(ctx, articleID)
	if err != nil {
		c.finish(StateIdle)
		return fmt.Errorf("refetch article %s: %w", articleID, err)
	}

	content, err := c.backend.GetArticleContent(ctx, articleID)
	if err != nil {
		c.finish(StateIdle)
		return fmt.Errorf("fetch content for %s: %w", articleID, err)
	}

	if c.cb.OnReconciled != nil {
		c.cb.OnReconciled(article, content)
	}
	c.finish(StateIdle)
	return nil
}

// jobFailed handles a terminal job failure. Idempotent per job id.
func (c *Coordinator) jobFailed(jobID, message string) {
	c.mu.Lock()
	if c.reconciled[jobID] {
		c.mu.Unlock()
		return
	}
	c.reconciled[jobID] = true
	changed := c.setStateLocked(StateFailed)
	c.mu.Unlock()
	c.notifyState(changed, StateFailed)

	if c.cb.OnFailed != nil {
		c.cb.OnFailed(&JobFailedError{JobID: jobID, Message: message})
	}
	c.finish(StateIdle)
}

func (c *Coordinator) finish(next State) {
	c.mu.Lock()
	c.sub = nil
	changed := c.setStateLocked(next)
	c.mu.Unlock()
	c.notifyState(changed, next)
}

// setStateLocked records a transition. Caller holds c.mu and must call
// notifyState after releasing it when the return value is true.
func (c *Coordinator) setStateLocked(next State) bool {
	if c.state == next {
		return false
	}
	c.state = next
	return true
}

func (c *Coordinator) notifyState(changed bool, state State) {
	if changed && c.cb.OnState != nil {
		c.cb.OnState(state)
	}
}
