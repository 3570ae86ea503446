package usage

import (
	"context"
	"fmt"
	"time"
)

// FetchFunc retrieves usage records created after since from the backend.
type FetchFunc func(ctx context.Context, since time.Time) ([]Record, error)

// PullerConfig holds configuration for the background puller.
type PullerConfig struct {
	// Store is the local usage cache
	Store *Store

	// FetchFn retrieves records from the backend
	FetchFn FetchFunc

	// Interval between pull cycles (default: 60s)
	Interval time.Duration

	// LogFn is called for log messages (optional)
	LogFn func(level, msg string)
}

// Puller periodically pulls new usage records from the backend into the
// local cache, so records survive the backend's retention window.
type Puller struct {
	store    *Store
	fetchFn  FetchFunc
	interval time.Duration
	logFn    func(level, msg string)
}

// NewPuller creates a new usage puller.
func NewPuller(cfg PullerConfig) *Puller {
	interval := cfg.Interval
	if interval == 0 {
		interval = 60 * time.Second
	}
	return &Puller{
		store:    cfg.Store,
		fetchFn:  cfg.FetchFn,
		interval: interval,
		logFn:    cfg.LogFn,
	}
}

// Start runs the pull loop until the context is cancelled. The first pull
// fires immediately.
func (p *Puller) Start(ctx context.Context) error {
	p.pullOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.pullOnce(ctx)
		}
	}
}

// PullOnce performs a single pull cycle and returns how many records were
// fetched from the backend.
func (p *Puller) PullOnce(ctx context.Context) (int, error) {
	since, err := p.store.LatestCreatedAt()
	if err != nil {
		return 0, fmt.Errorf("usage pull: cursor: %w", err)
	}

	records, err := p.fetchFn(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("usage pull: fetch: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	if err := p.store.InsertAll(records); err != nil {
		return 0, fmt.Errorf("usage pull: cache: %w", err)
	}
	return len(records), nil
}

func (p *Puller) pullOnce(ctx context.Context) {
	n, err := p.PullOnce(ctx)
	if err != nil {
		p.log("warning", err.Error())
		return
	}
	if n > 0 {
		p.log("info", fmt.Sprintf("usage pull: cached %d records", n))
	}
}

func (p *Puller) log(level, msg string) {
	if p.logFn != nil {
		p.logFn(level, msg)
	}
}
