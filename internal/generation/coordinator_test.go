package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/linguara-ai/linguara-cli/internal/api"
	"github.com/linguara-ai/linguara-cli/internal/poll"
)

// fakeBackend scripts the generate endpoint and serves job/article state.
type fakeBackend struct {
	mu sync.Mutex

	generateResp *api.GenerateResponse
	generateErr  error

	// jobSteps is served in order per job id; the last step repeats
	jobSteps map[string][]*api.Job
	jobCalls map[string]int

	articles map[string]*api.Article
	contents map[string]string

	generateCalls int
	articleCalls  int
	contentCalls  int
	lastRequest   api.GenerateRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		jobSteps: make(map[string][]*api.Job),
		jobCalls: make(map[string]int),
		articles: make(map[string]*api.Article),
		contents: make(map[string]string),
	}
}

func (b *fakeBackend) Generate(ctx context.Context, req api.GenerateRequest) (*api.GenerateResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generateCalls++
	b.lastRequest = req
	if b.generateErr != nil {
		return nil, b.generateErr
	}
	return b.generateResp, nil
}

func (b *fakeBackend) GetJob(ctx context.Context, jobID string) (*api.Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	steps := b.jobSteps[jobID]
	if len(steps) == 0 {
		return nil, api.ErrNotFound
	}
	idx := b.jobCalls[jobID]
	if idx >= len(steps) {
		idx = len(steps) - 1
	}
	b.jobCalls[jobID]++
	return steps[idx], nil
}

func (b *fakeBackend) GetArticle(ctx context.Context, articleID string) (*api.Article, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.articleCalls++
	article, ok := b.articles[articleID]
	if !ok {
		return nil, api.ErrNotFound
	}
	return article, nil
}

func (b *fakeBackend) GetArticleContent(ctx context.Context, articleID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contentCalls++
	content, ok := b.contents[articleID]
	if !ok {
		return "", api.ErrNotFound
	}
	return content, nil
}

func (b *fakeBackend) counts() (generate, article, content int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generateCalls, b.articleCalls, b.contentCalls
}

func validInputs() Inputs {
	return Inputs{Language: "German", Level: "B2", Length: "500", Topic: "AI"}
}

type result struct {
	article *api.Article
	content string
	err     error
}

func newTestCoordinator(backend *fakeBackend) (*Coordinator, chan result) {
	done := make(chan result, 2)
	poller := poll.New(poll.PollerConfig{Fetcher: backend, Interval: 2 * time.Millisecond})
	coordinator := New(Config{
		Backend: backend,
		Poller:  poller,
		Callbacks: Callbacks{
			OnReconciled: func(article *api.Article, content string) {
				done <- result{article: article, content: content}
			},
			OnFailed: func(err error) {
				done <- result{err: err}
			},
		},
	})
	return coordinator, done
}

func waitFor(t *testing.T, done chan result) result {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not finish in time")
		return result{}
	}
}

func waitForState(t *testing.T, c *Coordinator, want State) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", c.State(), want)
}

func TestStartValidatesBeforeNetwork(t *testing.T) {
	backend := newFakeBackend()
	coordinator, _ := newTestCoordinator(backend)

	err := coordinator.Start(context.Background(), Inputs{Language: "German"}, false)

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	for _, field := range []string{"level", "length", "topic"} {
		found := false
		for _, m := range validation.Missing {
			if m == field {
				found = true
			}
		}
		if !found {
			t.Errorf("missing fields %v do not include %s", validation.Missing, field)
		}
	}

	if generate, _, _ := backend.counts(); generate != 0 {
		t.Errorf("backend called %d times despite invalid inputs", generate)
	}
	if coordinator.State() != StateIdle {
		t.Errorf("state = %s, want idle", coordinator.State())
	}
}

func TestHappyPath(t *testing.T) {
	backend := newFakeBackend()
	backend.generateResp = &api.GenerateResponse{JobID: "j1", ArticleID: "a1"}
	backend.jobSteps["j1"] = []*api.Job{
		{ID: "j1", Status: "queued"},
		{ID: "j1", Status: "running", Progress: 50},
		{ID: "j1", Status: "succeeded", Progress: 100},
	}
	backend.articles["a1"] = &api.Article{ID: "a1", Status: api.ArticleCompleted, Topic: "AI"}
	backend.contents["a1"] = "Die Zukunft der künstlichen Intelligenz..."

	coordinator, done := newTestCoordinator(backend)

	if err := coordinator.Start(context.Background(), validInputs(), false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	r := waitFor(t, done)
	if r.err != nil {
		t.Fatalf("generation failed: %v", r.err)
	}
	if r.article.ID != "a1" || r.article.Status != api.ArticleCompleted {
		t.Errorf("reconciled article = %+v", r.article)
	}
	if r.content == "" {
		t.Error("reconciled content is empty")
	}

	waitForState(t, coordinator, StateIdle)

	generate, article, content := backend.counts()
	if generate != 1 || article != 1 || content != 1 {
		t.Errorf("calls = generate:%d article:%d content:%d, want 1/1/1", generate, article, content)
	}
}

func TestStartWhileBusyRejected(t *testing.T) {
	backend := newFakeBackend()
	backend.generateResp = &api.GenerateResponse{JobID: "j1", ArticleID: "a1"}
	backend.jobSteps["j1"] = []*api.Job{{ID: "j1", Status: "running", Progress: 10}}

	coordinator, _ := newTestCoordinator(backend)
	defer coordinator.Cancel()

	if err := coordinator.Start(context.Background(), validInputs(), false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	err := coordinator.Start(context.Background(), validInputs(), false)
	if !errors.Is(err, ErrBusy) {
		t.Errorf("second Start error = %v, want ErrBusy", err)
	}

	if generate, _, _ := backend.counts(); generate != 1 {
		t.Errorf("generate called %d times, want 1", generate)
	}
}

func TestConflictEntersAwaitingDecision(t *testing.T) {
	backend := newFakeBackend()
	backend.generateErr = &api.ConflictError{
		Existing: api.ExistingJob{ID: "j0", ArticleID: "a0", Status: "running", Progress: 40},
	}

	coordinator, _ := newTestCoordinator(backend)

	err := coordinator.Start(context.Background(), validInputs(), false)
	var conflict *api.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want *api.ConflictError", err)
	}
	if conflict.Existing.ID != "j0" || conflict.Existing.Progress != 40 {
		t.Errorf("conflict snapshot = %+v", conflict.Existing)
	}

	if coordinator.State() != StateAwaitingDecision {
		t.Errorf("state = %s, want awaiting_decision", coordinator.State())
	}
	if coordinator.Conflict() == nil {
		t.Error("pending conflict not retained")
	}

	// Without a decision, new non-force attempts stay rejected
	if err := coordinator.Start(context.Background(), validInputs(), false); !errors.Is(err, ErrBusy) {
		t.Errorf("Start during conflict = %v, want ErrBusy", err)
	}
}

func TestForceResolution(t *testing.T) {
	backend := newFakeBackend()
	backend.generateErr = &api.ConflictError{
		Existing: api.ExistingJob{ID: "j0", ArticleID: "a0", Status: "running", Progress: 40},
	}

	coordinator, done := newTestCoordinator(backend)

	coordinator.Start(context.Background(), validInputs(), false)

	// The user decides to force; the backend now accepts
	backend.mu.Lock()
	backend.generateErr = nil
	backend.generateResp = &api.GenerateResponse{JobID: "j2", ArticleID: "a2"}
	backend.jobSteps["j2"] = []*api.Job{{ID: "j2", Status: "succeeded", Progress: 100}}
	backend.articles["a2"] = &api.Article{ID: "a2", Status: api.ArticleCompleted}
	backend.contents["a2"] = "text"
	backend.mu.Unlock()

	if err := coordinator.Force(context.Background()); err != nil {
		t.Fatalf("Force: %v", err)
	}

	backend.mu.Lock()
	forced := backend.lastRequest.Force
	backend.mu.Unlock()
	if !forced {
		t.Error("forced resubmission did not set the force flag")
	}

	r := waitFor(t, done)
	if r.err != nil || r.article.ID != "a2" {
		t.Errorf("result = %+v", r)
	}
}

func TestAdoptInFlightJob(t *testing.T) {
	backend := newFakeBackend()
	backend.generateErr = &api.ConflictError{
		Existing: api.ExistingJob{ID: "j0", ArticleID: "a0", Status: "running", Progress: 40},
	}
	backend.jobSteps["j0"] = []*api.Job{
		{ID: "j0", Status: "running", Progress: 80},
		{ID: "j0", Status: "succeeded", Progress: 100},
	}
	backend.articles["a0"] = &api.Article{ID: "a0", Status: api.ArticleCompleted}
	backend.contents["a0"] = "adopted text"

	coordinator, done := newTestCoordinator(backend)

	coordinator.Start(context.Background(), validInputs(), false)
	if err := coordinator.Adopt(context.Background()); err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	r := waitFor(t, done)
	if r.err != nil {
		t.Fatalf("adopted generation failed: %v", r.err)
	}
	if r.article.ID != "a0" {
		t.Errorf("reconciled against article %s, want the original a0", r.article.ID)
	}

	// Adoption must not have created a second article/job pair
	if generate, _, _ := backend.counts(); generate != 1 {
		t.Errorf("generate called %d times, want 1", generate)
	}
}

func TestAdoptCompletedJobReconcilesImmediately(t *testing.T) {
	backend := newFakeBackend()
	backend.generateErr = &api.ConflictError{
		Existing: api.ExistingJob{ID: "j0", ArticleID: "a0", Status: "succeeded", Progress: 100},
	}
	backend.articles["a0"] = &api.Article{ID: "a0", Status: api.ArticleCompleted}
	backend.contents["a0"] = "finished text"

	coordinator, done := newTestCoordinator(backend)

	coordinator.Start(context.Background(), validInputs(), false)
	if err := coordinator.Adopt(context.Background()); err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	r := waitFor(t, done)
	if r.article == nil || r.article.ID != "a0" || r.content != "finished text" {
		t.Errorf("result = %+v", r)
	}

	// No job polling needed for an already-finished job
	backend.mu.Lock()
	jobFetches := backend.jobCalls["j0"]
	backend.mu.Unlock()
	if jobFetches != 0 {
		t.Errorf("job polled %d times for an already-terminal job", jobFetches)
	}
}

func TestAdoptFailedJobSurfacesError(t *testing.T) {
	backend := newFakeBackend()
	backend.generateErr = &api.ConflictError{
		Existing: api.ExistingJob{ID: "j0", ArticleID: "a0", Status: "failed", Error: "model refused"},
	}

	coordinator, _ := newTestCoordinator(backend)

	coordinator.Start(context.Background(), validInputs(), false)
	err := coordinator.Adopt(context.Background())

	var jobErr *JobFailedError
	if !errors.As(err, &jobErr) {
		t.Fatalf("Adopt error = %v, want *JobFailedError", err)
	}
	if jobErr.Message != "model refused" {
		t.Errorf("error message = %q", jobErr.Message)
	}

	waitForState(t, coordinator, StateIdle)
	if _, article, _ := backend.counts(); article != 0 {
		t.Errorf("article fetched %d times for a failed job", article)
	}
}

func TestFailedJobLeavesArticleUntouched(t *testing.T) {
	backend := newFakeBackend()
	backend.generateResp = &api.GenerateResponse{JobID: "j1", ArticleID: "a1"}
	backend.jobSteps["j1"] = []*api.Job{
		{ID: "j1", Status: "running", Progress: 30},
		{ID: "j1", Status: "failed", Progress: 30, Error: "generation timed out"},
	}

	coordinator, done := newTestCoordinator(backend)

	if err := coordinator.Start(context.Background(), validInputs(), false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	r := waitFor(t, done)
	var jobErr *JobFailedError
	if !errors.As(r.err, &jobErr) {
		t.Fatalf("result error = %v, want *JobFailedError", r.err)
	}
	if jobErr.Message != "generation timed out" {
		t.Errorf("error message = %q", jobErr.Message)
	}

	waitForState(t, coordinator, StateIdle)
	if _, article, content := backend.counts(); article != 0 || content != 0 {
		t.Errorf("reconciliation fetches ran for a failed job: article:%d content:%d", article, content)
	}
}

func TestReconcileIdempotentPerJob(t *testing.T) {
	backend := newFakeBackend()
	backend.articles["a1"] = &api.Article{ID: "a1", Status: api.ArticleCompleted}
	backend.contents["a1"] = "text"

	coordinator, done := newTestCoordinator(backend)

	// Duplicate terminal notifications for the same job id must trigger
	// exactly one metadata+content fetch pair.
	if err := coordinator.reconcile(context.Background(), "j1", "a1"); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	if err := coordinator.reconcile(context.Background(), "j1", "a1"); err != nil {
		t.Fatalf("duplicate reconcile: %v", err)
	}

	if _, article, content := backend.counts(); article != 1 || content != 1 {
		t.Errorf("fetch pair ran article:%d content:%d times, want 1/1", article, content)
	}

	select {
	case <-done:
	default:
		t.Error("OnReconciled never fired")
	}
	select {
	case <-done:
		t.Error("OnReconciled fired twice")
	default:
	}
}

func TestAbortReturnsToIdle(t *testing.T) {
	backend := newFakeBackend()
	backend.generateErr = &api.ConflictError{
		Existing: api.ExistingJob{ID: "j0", ArticleID: "a0", Status: "running"},
	}

	coordinator, _ := newTestCoordinator(backend)

	coordinator.Start(context.Background(), validInputs(), false)
	if err := coordinator.Abort(); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if coordinator.State() != StateIdle {
		t.Errorf("state = %s, want idle", coordinator.State())
	}
	if err := coordinator.Adopt(context.Background()); !errors.Is(err, ErrNoConflict) {
		t.Errorf("Adopt after abort = %v, want ErrNoConflict", err)
	}
}
