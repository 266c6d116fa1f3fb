package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/figops/internal/screens"
)

// JobStatus represents the state of an import job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusFetching   JobStatus = "fetching"
	StatusExtracting JobStatus = "extracting"
	StatusRefining   JobStatus = "refining"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks the state of a single document import.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	// Source: either uploaded bytes (Filename set) or a Figma file key.
	Filename string   `json:"filename,omitempty"`
	FileKey  string   `json:"file_key,omitempty"`
	NodeIDs  []string `json:"node_ids,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   *Result
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	Screens  int      `json:"screens"`
	Pages    int      `json:"pages"`
	Prefixes int      `json:"prefixes"`
	Refined  int      `json:"refined"`
	Errors   []string `json:"errors"`
}

// Result is the output of a completed import.
type Result struct {
	Records    []screens.ScreenRecord
	Index      screens.Index
	FinishedAt time.Time
}

// NewJob creates a queued job. Exactly one of data or fileKey is expected.
func NewJob(id, filename string, data []byte, fileKey string, nodeIDs []string) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		Filename:  filename,
		FileKey:   fileKey,
		NodeIDs:   nodeIDs,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
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

// Cleanup removes finished jobs that have not changed within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
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

// SetScreens records the number of extracted screens.
func (j *Job) SetScreens(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Screens = n
	j.UpdatedAt = time.Now()
}

// IncrRefined atomically increments the refined description count.
func (j *Job) IncrRefined() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Refined++
	j.UpdatedAt = time.Now()
}

// SetContentHash records the hash of the imported document.
func (j *Job) SetContentHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

// FileData returns the uploaded bytes, nil for file-key jobs.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// SetResult stores the import output, updates the grouping counts and
// releases the uploaded bytes.
func (j *Job) SetResult(res *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = res
	j.fileData = nil
	j.Progress.Screens = len(res.Records)
	j.Progress.Pages = len(res.Index)
	prefixes := 0
	for _, page := range res.Index {
		prefixes += len(page)
	}
	j.Progress.Prefixes = prefixes
	j.UpdatedAt = time.Now()
}

// Result returns the import output, nil until the job completes.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Filename    string    `json:"filename,omitempty"`
	FileKey     string    `json:"file_key,omitempty"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Progress    Progress  `json:"progress"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	return JobSnapshot{
		ID:       j.ID,
		Filename: j.Filename,
		FileKey:  j.FileKey,
		Status:   j.Status,
		Phase:    j.Phase,
		Progress: Progress{
			Screens:  j.Progress.Screens,
			Pages:    j.Progress.Pages,
			Prefixes: j.Progress.Prefixes,
			Refined:  j.Progress.Refined,
			Errors:   errs,
		},
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
