package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/skelgen/internal/config"
	"github.com/dgallion1/skelgen/internal/parser"
	"github.com/dgallion1/skelgen/internal/skeleton"
	"github.com/dgallion1/skelgen/internal/store"
	"github.com/dgallion1/skelgen/internal/vnode"
)

// Orchestrator manages the render job pipeline.
type Orchestrator struct {
	jobs        *JobStore
	queue       chan *Job
	transformer *skeleton.Transformer
	viewer      *skeleton.Transformer
	store       store.Store
	observer    JobObserver
	log         *slog.Logger
	cfg         config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. observer may be nil.
func NewOrchestrator(cfg config.Config, t *skeleton.Transformer, st store.Store, observer JobObserver, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:        NewJobStore(cfg.JobTTL),
		queue:       make(chan *Job, cfg.MaxQueueSize),
		transformer: t,
		viewer:      t.Unobserved(),
		store:       st,
		observer:    observer,
		log:         log,
		cfg:         cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	parserOpts := parser.Options{PDFFallbackPdftotext: o.cfg.PDFFallbackPdftotext}
	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.transformer, o.store, o.log, o.observer, parserOpts, o.cfg.SettleDelay, o.cfg.ResultTTL)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
				if ms, ok := o.store.(*store.MemoryStore); ok {
					ms.Cleanup()
				}
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// View is what a client shows for the job right now: the skeleton while the
// job is loading, the parsed tree once it completed. Polling a view is not
// counted as a skeleton pass; the worker's pass already was.
func (o *Orchestrator) View(job *Job) *vnode.Node {
	return o.viewer.Render(job.Loading(), job.Tree())
}

// Result returns a stored output of a job (PartSkeleton, PartContent).
func (o *Orchestrator) Result(ctx context.Context, jobID, part string) ([]byte, error) {
	return o.store.Get(ctx, store.ResultKey(jobID, part))
}

// Transformer returns the shared transformer.
func (o *Orchestrator) Transformer() *skeleton.Transformer {
	return o.transformer
}

// Store returns the result store for direct use by API handlers.
func (o *Orchestrator) Store() store.Store {
	return o.store
}
