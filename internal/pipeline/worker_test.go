package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/skelgen/internal/config"
	"github.com/dgallion1/skelgen/internal/logging"
	"github.com/dgallion1/skelgen/internal/parser"
	"github.com/dgallion1/skelgen/internal/skeleton"
	"github.com/dgallion1/skelgen/internal/store"
	"github.com/dgallion1/skelgen/internal/vnode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardHTML = `<div class="text-center"><img src="a.png"/><h2>Jane</h2><p>Bio</p></div>`

type statusLog struct {
	mu       sync.Mutex
	statuses []string
}

func (l *statusLog) JobFinished(status string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, status)
}

func (l *statusLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.statuses...)
}

// flakyStore fails the first failures puts with err.
type flakyStore struct {
	*store.MemoryStore
	mu       sync.Mutex
	failures int
	err      error
	puts     int
}

func (s *flakyStore) Put(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	s.mu.Lock()
	s.puts++
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()
	if fail {
		return s.err
	}
	return s.MemoryStore.Put(ctx, key, val, ttl)
}

func newTestWorker(st store.Store, obs JobObserver, settle time.Duration) *Worker {
	w := NewWorker(skeleton.New(), st, logging.NewNop(), obs, parser.Options{}, settle, time.Hour)
	w.backoff = func(int) time.Duration { return 0 }
	return w
}

func TestWorker_ProcessCompletes(t *testing.T) {
	st := store.NewMemoryStore()
	obs := &statusLog{}
	w := newTestWorker(st, obs, 0)

	job := NewJob("card.html", "", []byte(cardHTML))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusCompleted, snap.Status, "errors: %v", snap.Progress.Errors)
	assert.False(t, snap.Loading)
	assert.Equal(t, ContentHashHex([]byte(cardHTML)), snap.ContentHash)
	assert.Positive(t, snap.Progress.Placeholders)
	assert.Equal(t, []string{"completed"}, obs.all())
	assert.Nil(t, job.takeFileData(), "upload should be released after processing")

	skel, err := st.Get(context.Background(), store.ResultKey(job.ID, PartSkeleton))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(skel), `<div class="skeleton-container">`))
	assert.Contains(t, string(skel), "skeleton-img")
	assert.NotContains(t, string(skel), "Jane")

	content, err := st.Get(context.Background(), store.ResultKey(job.ID, PartContent))
	require.NoError(t, err)
	assert.Equal(t, cardHTML, string(content))
}

func TestWorker_FormatOverridesExtension(t *testing.T) {
	st := store.NewMemoryStore()
	w := newTestWorker(st, nil, 0)

	job := NewJob("upload.bin", "md", []byte("# Title\n\nText."))
	w.Process(context.Background(), job)

	require.Equal(t, StatusCompleted, job.Snapshot().Status)
	content, err := st.Get(context.Background(), store.ResultKey(job.ID, PartContent))
	require.NoError(t, err)
	assert.Contains(t, string(content), "<h1>Title</h1>")
}

func TestWorker_UnsupportedFormatFails(t *testing.T) {
	obs := &statusLog{}
	w := newTestWorker(store.NewMemoryStore(), obs, 0)

	job := NewJob("image.png", "", []byte{0x89})
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "parsing", snap.Phase)
	assert.Len(t, snap.Progress.Errors, 1)
	assert.True(t, snap.Loading, "a failed job never finishes loading")
	assert.Equal(t, []string{"failed"}, obs.all())
}

func TestWorker_ParseErrorFails(t *testing.T) {
	w := newTestWorker(store.NewMemoryStore(), nil, 0)

	job := NewJob("tree.json", "", []byte(`{"type": "widget"}`))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Contains(t, snap.Progress.Errors[0], "parse:")
}

func TestWorker_RetriesTransientStoreErrors(t *testing.T) {
	st := &flakyStore{
		MemoryStore: store.NewMemoryStore(),
		failures:    2,
		err:         &store.RetryableError{Op: "put", Err: errors.New("connection reset")},
	}
	w := newTestWorker(st, nil, 0)

	job := NewJob("card.html", "", []byte(cardHTML))
	w.Process(context.Background(), job)

	assert.Equal(t, StatusCompleted, job.Snapshot().Status)
	assert.Equal(t, 4, st.puts)
}

func TestWorker_PermanentStoreErrorFails(t *testing.T) {
	st := &flakyStore{
		MemoryStore: store.NewMemoryStore(),
		failures:    1,
		err:         errors.New("value too large"),
	}
	w := newTestWorker(st, nil, 0)

	job := NewJob("card.html", "", []byte(cardHTML))
	w.Process(context.Background(), job)

	snap := job.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "loading", snap.Phase)
	assert.Equal(t, 1, st.puts)
}

func TestWorker_SettleDelayCancelled(t *testing.T) {
	w := newTestWorker(store.NewMemoryStore(), nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	job := NewJob("card.html", "", []byte(cardHTML))

	done := make(chan struct{})
	go func() {
		w.Process(ctx, job)
		close(done)
	}()

	waitForPhase(t, job, "waiting for content")
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop on cancel")
	}
	assert.Equal(t, StatusFailed, job.Snapshot().Status)
}

func TestOrchestrator_ViewFollowsLoading(t *testing.T) {
	cfg := config.Config{
		WorkerCount:  1,
		MaxQueueSize: 4,
		JobTTL:       time.Hour,
		ResultTTL:    time.Hour,
		SettleDelay:  200 * time.Millisecond,
	}
	orch := NewOrchestrator(cfg, skeleton.New(), store.NewMemoryStore(), nil, logging.NewNop())
	orch.Start(context.Background())
	defer orch.Stop()

	job := NewJob("card.html", "", []byte(cardHTML))
	require.NoError(t, orch.Submit(job))
	require.Same(t, job, orch.GetJob(job.ID))

	waitForPhase(t, job, "waiting for content")
	loadingView := orch.View(job)
	assert.Equal(t, skeleton.ContainerClass, loadingView.Class())

	waitForStatus(t, job, StatusCompleted)
	assert.Same(t, job.Tree(), orch.View(job), "loaded view is the tree itself")

	got, err := orch.Result(context.Background(), job.ID, PartContent)
	require.NoError(t, err)
	assert.Equal(t, cardHTML, string(got))
}

func TestOrchestrator_SubmitQueueFull(t *testing.T) {
	cfg := config.Config{WorkerCount: 1, MaxQueueSize: 1, JobTTL: time.Hour}
	orch := NewOrchestrator(cfg, skeleton.New(), store.NewMemoryStore(), nil, logging.NewNop())

	// Workers are not started, so the queue fills up.
	require.NoError(t, orch.Submit(NewJob("a.html", "", nil)))
	second := NewJob("b.html", "", nil)
	assert.Error(t, orch.Submit(second))
	assert.Equal(t, StatusFailed, second.Snapshot().Status)
	assert.Equal(t, 1, orch.QueueDepth())
}

func TestOrchestrator_ViewBeforeParse(t *testing.T) {
	orch := NewOrchestrator(config.Config{MaxQueueSize: 1}, skeleton.New(), store.NewMemoryStore(), nil, logging.NewNop())
	view := orch.View(NewJob("a.html", "", nil))

	require.NotNil(t, view)
	assert.Equal(t, skeleton.ContainerClass, view.Class())
	assert.Nil(t, view.Children[1])
	assert.Equal(t, vnode.KindElement, view.Children[0].Kind)
}

type passCounter struct{ n atomic.Int64 }

func (c *passCounter) ObservePass(skeleton.Stats, time.Duration) { c.n.Add(1) }

func TestOrchestrator_ViewIsNotCountedAsPass(t *testing.T) {
	passes := &passCounter{}
	tr := skeleton.New(skeleton.WithObserver(passes))
	orch := NewOrchestrator(config.Config{MaxQueueSize: 1}, tr, store.NewMemoryStore(), nil, logging.NewNop())

	job := NewJob("card.html", "", nil)
	job.SetTree(vnode.Element("p", nil, vnode.Text("x")))
	for range 3 {
		view := orch.View(job)
		assert.Equal(t, skeleton.ContainerClass, view.Class())
	}
	assert.Zero(t, passes.n.Load())

	orch.Transformer().Transform(job.Tree())
	assert.Equal(t, int64(1), passes.n.Load())
}

func waitForPhase(t *testing.T, job *Job, phase string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if job.Snapshot().Phase == phase {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job never reached phase %q (at %q)", phase, job.Snapshot().Phase)
}

func waitForStatus(t *testing.T, job *Job, status JobStatus) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if job.Snapshot().Status == status {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job never reached status %q (at %q)", status, job.Snapshot().Status)
}
