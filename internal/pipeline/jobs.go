package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/skelgen/internal/skeleton"
	"github.com/dgallion1/skelgen/internal/vnode"
)

// JobStatus represents the state of a render job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusLoading   JobStatus = "loading"
	StatusRendering JobStatus = "rendering"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks one document from upload to rendered output. While Loading is
// true its view is the skeleton of the parsed tree.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Filename string `json:"filename"`
	Format   string `json:"format,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	tree     *vnode.Node
	loading  bool
	errors   []string
}

// Progress describes the parsed tree and its skeleton.
type Progress struct {
	Nodes        int      `json:"nodes"`
	Depth        int      `json:"depth"`
	Placeholders int      `json:"placeholders"`
	Fallbacks    int      `json:"fallbacks"`
	Errors       []string `json:"errors"`
}

// NewJob creates a queued job for filename. format overrides the extension
// when set.
func NewJob(filename, format string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        generateULID(),
		Filename:  filename,
		Format:    format,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
		loading:   true,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTree publishes the parsed tree and its shape.
func (j *Job) SetTree(tree *vnode.Node) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tree = tree
	j.Progress.Nodes = vnode.Count(tree)
	j.Progress.Depth = vnode.Depth(tree)
	j.UpdatedAt = time.Now()
}

// Tree returns the parsed tree, or nil before parsing finished.
func (j *Job) Tree() *vnode.Node {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.tree
}

// SetSkeletonStats records how the skeleton pass went.
func (j *Job) SetSkeletonStats(stats skeleton.Stats) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Placeholders = stats.Placeholders + stats.Images + stats.Text
	j.Progress.Fallbacks = stats.Fallbacks()
	j.UpdatedAt = time.Now()
}

// Loading reports whether the job's content is still on its way.
func (j *Job) Loading() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.loading
}

// finishLoading flips Loading to false. Only the first call has an effect.
func (j *Job) finishLoading() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.loading {
		return false
	}
	j.loading = false
	j.UpdatedAt = time.Now()
	return true
}

// takeFileData hands the raw upload to the worker and releases it from the
// job, which outlives processing by JOB_TTL.
func (j *Job) takeFileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	data := j.fileData
	j.fileData = nil
	return data
}

func (j *Job) setContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Filename    string    `json:"filename"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Loading     bool      `json:"loading"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Filename:    j.Filename,
		Status:      j.Status,
		Phase:       j.Phase,
		Loading:     j.loading,
		ContentHash: j.ContentHash,
		Progress:    p,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
