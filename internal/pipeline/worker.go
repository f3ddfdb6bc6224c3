package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/skelgen/internal/parser"
	"github.com/dgallion1/skelgen/internal/render"
	"github.com/dgallion1/skelgen/internal/skeleton"
	"github.com/dgallion1/skelgen/internal/store"
)

// Result parts written to the store for every completed job.
const (
	PartSkeleton = "skeleton"
	PartContent  = "content"
)

// JobObserver is told when a job reaches a final status.
type JobObserver interface {
	JobFinished(status string)
}

// Worker processes a single render job.
type Worker struct {
	transformer *skeleton.Transformer
	store       store.Store
	log         *slog.Logger
	observer    JobObserver

	parserOpts  parser.Options
	settleDelay time.Duration
	resultTTL   time.Duration
	backoff     func(attempt int) time.Duration
}

func NewWorker(t *skeleton.Transformer, st store.Store, log *slog.Logger, observer JobObserver, parserOpts parser.Options, settleDelay, resultTTL time.Duration) *Worker {
	return &Worker{
		transformer: t,
		store:       st,
		log:         log,
		observer:    observer,
		parserOpts:  parserOpts,
		settleDelay: settleDelay,
		resultTTL:   resultTTL,
		backoff:     Backoff,
	}
}

// Process parses the job's document, publishes the skeleton while the job is
// loading, then renders and stores the real content.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := w.parserFor(job)
	if err != nil {
		log.Error("unsupported format", "error", err)
		w.fail(job, "parsing", err.Error())
		return
	}

	data := job.takeFileData()
	tree, err := p.Parse(bytes.NewReader(data), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		w.fail(job, "parsing", fmt.Sprintf("parse: %s", err))
		return
	}
	job.setContentHash(ContentHashHex(data))
	job.SetTree(tree)

	// Phase 2: Loading. The skeleton is served until the content is ready.
	job.SetStatus(StatusLoading, "rendering skeleton")
	content, stats := w.transformer.Transform(tree)
	job.SetSkeletonStats(stats)
	if stats.Fallbacks() > 0 {
		log.Warn("skeleton passed subtrees through", "fallbacks", stats.Fallbacks())
	}

	skel, err := render.HTMLString(skeleton.Wrap(content))
	if err != nil {
		log.Error("skeleton render failed", "error", err)
		w.fail(job, "loading", fmt.Sprintf("render skeleton: %s", err))
		return
	}
	if err := w.put(ctx, log, store.ResultKey(job.ID, PartSkeleton), skel); err != nil {
		w.fail(job, "loading", fmt.Sprintf("store skeleton: %s", err))
		return
	}

	if w.settleDelay > 0 {
		job.SetStatus(StatusLoading, "waiting for content")
		select {
		case <-time.After(w.settleDelay):
		case <-ctx.Done():
			w.fail(job, "loading", ctx.Err().Error())
			return
		}
	}

	// Phase 3: Render the real content.
	job.SetStatus(StatusRendering, "rendering content")
	html, err := render.HTMLString(tree)
	if err != nil {
		log.Error("content render failed", "error", err)
		w.fail(job, "rendering", fmt.Sprintf("render content: %s", err))
		return
	}
	if err := w.put(ctx, log, store.ResultKey(job.ID, PartContent), html); err != nil {
		w.fail(job, "rendering", fmt.Sprintf("store content: %s", err))
		return
	}

	job.finishLoading()
	job.SetStatus(StatusCompleted, "done")
	w.finished(StatusCompleted)
	log.Info("job complete", "nodes", job.Snapshot().Progress.Nodes)
}

func (w *Worker) parserFor(job *Job) (parser.Parser, error) {
	if job.Format != "" {
		return parser.ForFormat(job.Format, w.parserOpts)
	}
	return parser.ForFile(job.Filename, w.parserOpts)
}

// put writes a result, retrying transport failures with backoff.
func (w *Worker) put(ctx context.Context, log *slog.Logger, key, val string) error {
	var lastErr error
	for attempt := range MaxRetries {
		lastErr = w.store.Put(ctx, key, []byte(val), w.resultTTL)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable store error", "key", key, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if lastErr != nil {
		log.Error("store failed", "key", key, "error", lastErr)
	}
	return lastErr
}

func (w *Worker) fail(job *Job, phase, msg string) {
	job.AddError(msg)
	job.SetStatus(StatusFailed, phase)
	w.finished(StatusFailed)
}

func (w *Worker) finished(status JobStatus) {
	if w.observer != nil {
		w.observer.JobFinished(string(status))
	}
}
