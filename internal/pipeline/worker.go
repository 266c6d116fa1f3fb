package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/figops/internal/figma"
	"github.com/dgallion1/figops/internal/metrics"
	"github.com/dgallion1/figops/internal/refine"
	"github.com/dgallion1/figops/internal/screens"
)

// Fetcher loads a document tree for a Figma file key.
type Fetcher interface {
	GetNodes(ctx context.Context, fileKey string, ids []string) (*figma.Node, error)
}

// Worker processes a single import job.
type Worker struct {
	fetcher   Fetcher
	extractor *screens.Extractor
	refiner   refine.Refiner
	metrics   *metrics.Metrics
	log       *slog.Logger

	maxConcurrentRefine int
	backoff             func(attempt int) time.Duration
}

func NewWorker(fetcher Fetcher, extractor *screens.Extractor, refiner refine.Refiner, m *metrics.Metrics, log *slog.Logger, maxRefine int) *Worker {
	if refiner == nil {
		refiner = refine.LineSplitter{}
	}
	if maxRefine <= 0 {
		maxRefine = 1
	}
	return &Worker{
		fetcher:             fetcher,
		extractor:           extractor,
		refiner:             refiner,
		metrics:             m,
		log:                 log,
		maxConcurrentRefine: maxRefine,
		backoff:             Backoff,
	}
}

// Process runs the full import pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	start := time.Now()
	log := w.log.With("job_id", job.ID, "file_key", job.FileKey, "filename", job.Filename)

	fail := func(phase string, err error) {
		log.Error("import failed", "phase", phase, "error", err)
		job.AddError(fmt.Sprintf("%s: %s", phase, err))
		job.SetStatus(StatusFailed, phase)
		w.metrics.RecordImport(string(StatusFailed), 0, time.Since(start))
	}

	// Phase 1: Fetch
	job.SetStatus(StatusFetching, "fetching")
	root, err := w.load(ctx, job, log)
	if err != nil {
		fail("fetching", err)
		return
	}

	// Phase 2: Extract
	job.SetStatus(StatusExtracting, "extracting")
	records, err := w.extractor.ExtractAll(root)
	if err != nil {
		fail("extracting", err)
		return
	}
	job.SetScreens(len(records))
	log.Info("extracted screens", "screens", len(records))

	// Phase 3: Refine descriptions with bounded concurrency.
	job.SetStatus(StatusRefining, "refining")
	records = w.refineAll(ctx, job, records, log)
	if ctx.Err() != nil {
		fail("refining", ctx.Err())
		return
	}

	idx := screens.Group(records)
	job.SetResult(&Result{Records: records, Index: idx, FinishedAt: time.Now()})
	job.SetStatus(StatusCompleted, "done")
	w.metrics.RecordImport(string(StatusCompleted), len(records), time.Since(start))
	log.Info("import complete", "screens", len(records), "pages", len(idx), "duration_ms", time.Since(start).Milliseconds())
}

// load decodes the uploaded bytes or fetches the file key, retrying
// transient API failures.
func (w *Worker) load(ctx context.Context, job *Job, log *slog.Logger) (*figma.Node, error) {
	if data := job.FileData(); data != nil {
		job.SetContentHash(ContentHashHex(data))
		return figma.DecodeBytes(data)
	}
	if job.FileKey == "" {
		return nil, errors.New("job has neither file data nor a file key")
	}
	if w.fetcher == nil {
		return nil, errors.New("figma client is not configured")
	}

	var root *figma.Node
	var lastErr error
	for attempt := range MaxRetries {
		root, lastErr = w.fetcher.GetNodes(ctx, job.FileKey, job.NodeIDs)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		log.Warn("retryable fetch error", "attempt", attempt, "error", lastErr)
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	if raw, err := json.Marshal(root); err == nil {
		job.SetContentHash(ContentHashHex(raw))
	}
	return root, nil
}

// refineAll splits every description into items. Records keep their
// order; each refined record is a copy.
func (w *Worker) refineAll(ctx context.Context, job *Job, records []screens.ScreenRecord, log *slog.Logger) []screens.ScreenRecord {
	type refineResult struct {
		idx   int
		items []string
		err   error
	}

	out := make([]screens.ScreenRecord, len(records))
	copy(out, records)

	pending := 0
	results := make(chan refineResult, len(records))
	sem := make(chan struct{}, w.maxConcurrentRefine)
	for i, rec := range records {
		if rec.Description == nil {
			continue
		}
		pending++
		sem <- struct{}{}
		go func(i int, text string) {
			defer func() { <-sem }()
			items, err := w.refiner.Refine(ctx, text)
			results <- refineResult{idx: i, items: items, err: err}
		}(i, *rec.Description)
	}

	for range pending {
		r := <-results
		if r.err != nil {
			log.Warn("refine failed", "figma_id", records[r.idx].FigmaID, "error", r.err)
			job.AddError(fmt.Sprintf("refine %s: %s", records[r.idx].Name, r.err))
			if len(r.items) == 0 {
				r.items = refine.SplitLines(*records[r.idx].Description)
			}
		}
		out[r.idx] = records[r.idx].WithDescriptionItems(r.items)
		job.IncrRefined()
	}
	return out
}
