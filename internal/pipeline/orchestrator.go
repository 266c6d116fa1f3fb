package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/dgallion1/figops/internal/metrics"
)

// Options configures an Orchestrator.
type Options struct {
	WorkerCount  int
	MaxQueueSize int
	JobTTL       time.Duration

	// SyncSchedule is a cron expression; when set together with SyncFileKey
	// the file is re-imported on that schedule.
	SyncSchedule string
	SyncFileKey  string
}

// Orchestrator manages the import pipeline.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	worker  *Worker
	metrics *metrics.Metrics
	log     *slog.Logger
	opts    Options
	cron    *cron.Cron

	latestMu sync.RWMutex
	latest   *Job

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(opts Options, worker *Worker, m *metrics.Metrics, log *slog.Logger) *Orchestrator {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	if opts.MaxQueueSize <= 0 {
		opts.MaxQueueSize = 1
	}
	if opts.JobTTL <= 0 {
		opts.JobTTL = time.Hour
	}
	return &Orchestrator{
		jobs:    NewJobStore(opts.JobTTL),
		queue:   make(chan *Job, opts.MaxQueueSize),
		worker:  worker,
		metrics: m,
		log:     log,
		opts:    opts,
	}
}

// Start launches worker goroutines, the job cleanup loop and the sync
// schedule, if any.
func (o *Orchestrator) Start(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.opts.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.metrics.SetQueueDepth(len(o.queue))
					o.worker.Process(workerCtx, job)
					o.finish(job)
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
			}
		}
	}()

	if o.opts.SyncSchedule != "" && o.opts.SyncFileKey != "" {
		o.cron = cron.New()
		_, err := o.cron.AddFunc(o.opts.SyncSchedule, func() {
			job := NewJob(uuid.NewString(), "", nil, o.opts.SyncFileKey, nil)
			if err := o.Submit(job); err != nil {
				o.log.Warn("scheduled import not queued", "error", err)
				return
			}
			o.log.Info("scheduled import queued", "job_id", job.ID, "file_key", job.FileKey)
		})
		if err != nil {
			cancel()
			return fmt.Errorf("parse sync schedule %q: %w", o.opts.SyncSchedule, err)
		}
		o.cron.Start()
		o.log.Info("sync schedule active", "schedule", o.opts.SyncSchedule, "file_key", o.opts.SyncFileKey)
	}
	return nil
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cron != nil {
		<-o.cron.Stop().Done()
	}
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
		o.metrics.SetQueueDepth(len(o.queue))
		return nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.opts.MaxQueueSize)
	}
}

// finish advances Latest when job completed and is newer than the current
// latest import.
func (o *Orchestrator) finish(job *Job) {
	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		return
	}
	o.latestMu.Lock()
	defer o.latestMu.Unlock()
	if o.latest == nil || !snap.CreatedAt.Before(o.latest.Snapshot().CreatedAt) {
		o.latest = job
	}
}

// Latest returns the newest completed import, or nil.
func (o *Orchestrator) Latest() *Job {
	o.latestMu.RLock()
	defer o.latestMu.RUnlock()
	return o.latest
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
