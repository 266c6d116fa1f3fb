package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/figops/internal/figma"
	"github.com/dgallion1/figops/internal/refine"
	"github.com/dgallion1/figops/internal/screens"
)

const testDocument = `{"name":"Design","document":{"id":"0:0","name":"Document","type":"DOCUMENT","children":[
	{"id":"1:1","name":"Page1","type":"CANVAS","children":[
		{"id":"1:2","name":"AUTO_0001","type":"INSTANCE"},
		{"id":"1:3","name":"notes","type":"FRAME","children":[
			{"id":"1:4","name":"AUTO_0001","type":"FRAME","children":[
				{"id":"1:5","name":"label","type":"TEXT","characters":"Description"},
				{"id":"1:6","name":"body","type":"TEXT","characters":"첫째 줄\n둘째 줄"}
			]}
		]}
	]}
]}}`

type stubFetcher struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (f *stubFetcher) GetNodes(_ context.Context, _ string, _ []string) (*figma.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, &figma.RetryableError{StatusCode: 503, Message: "unavailable"}
	}
	if f.err != nil {
		return nil, f.err
	}
	return figma.DecodeBytes([]byte(testDocument))
}

type failingRefiner struct{}

func (failingRefiner) Refine(context.Context, string) ([]string, error) {
	return nil, errors.New("provider down")
}

func newTestWorker(f Fetcher) *Worker {
	w := NewWorker(f, screens.NewExtractor(screens.DefaultCatalog(), nil), nil, nil, slog.New(slog.DiscardHandler), 2)
	w.backoff = func(int) time.Duration { return time.Millisecond }
	return w
}

func TestWorker_ProcessUpload(t *testing.T) {
	w := newTestWorker(nil)
	job := NewJob("up-1", "design.json", []byte(testDocument), "", nil)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Screens != 1 || snap.Progress.Refined != 1 {
		t.Errorf("expected 1 screen and 1 refined, got %+v", snap.Progress)
	}
	if snap.ContentHash != ContentHashHex([]byte(testDocument)) {
		t.Errorf("expected content hash of upload, got %q", snap.ContentHash)
	}

	res := job.Result()
	if res == nil || len(res.Records) != 1 {
		t.Fatalf("expected one record, got %+v", res)
	}
	rec := res.Records[0]
	if rec.FigmaID != "1:2" {
		t.Errorf("expected figma id 1:2, got %q", rec.FigmaID)
	}
	if len(rec.DescriptionItems) != 2 || rec.DescriptionItems[0] != "첫째 줄" {
		t.Errorf("expected description split into two items, got %v", rec.DescriptionItems)
	}
	if _, ok := res.Index.Find("1:2"); !ok {
		t.Error("expected record to be indexed")
	}
}

func TestWorker_ProcessFileKeyRetries(t *testing.T) {
	f := &stubFetcher{failures: 2}
	w := newTestWorker(f)
	job := NewJob("key-1", "", nil, "FILEKEY", nil)

	w.Process(context.Background(), job)

	if job.Snapshot().Status != StatusCompleted {
		t.Fatalf("expected completed after retries, got %+v", job.Snapshot())
	}
	if f.calls != 3 {
		t.Errorf("expected 3 fetch calls, got %d", f.calls)
	}
	if job.Snapshot().ContentHash == "" {
		t.Error("expected content hash for fetched document")
	}
}

func TestWorker_ProcessRetriesExhausted(t *testing.T) {
	f := &stubFetcher{failures: MaxRetries + 1}
	w := newTestWorker(f)
	job := NewJob("key-2", "", nil, "FILEKEY", nil)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "fetching" {
		t.Fatalf("expected failed in fetching, got %q/%q", snap.Status, snap.Phase)
	}
	if f.calls != MaxRetries {
		t.Errorf("expected %d fetch calls, got %d", MaxRetries, f.calls)
	}
}

func TestWorker_ProcessNoBackoffAfterLastAttempt(t *testing.T) {
	f := &stubFetcher{failures: MaxRetries + 1}
	w := newTestWorker(f)
	var waits []int
	w.backoff = func(attempt int) time.Duration {
		waits = append(waits, attempt)
		return time.Millisecond
	}
	job := NewJob("key-4", "", nil, "FILEKEY", nil)

	w.Process(context.Background(), job)

	if len(waits) != MaxRetries-1 {
		t.Errorf("expected %d backoff waits, got %v", MaxRetries-1, waits)
	}
}

func TestWorker_ProcessPermanentErrorNoRetry(t *testing.T) {
	f := &stubFetcher{err: &figma.StatusError{StatusCode: 403, Body: "forbidden"}}
	w := newTestWorker(f)
	job := NewJob("key-3", "", nil, "FILEKEY", nil)

	w.Process(context.Background(), job)

	if job.Snapshot().Status != StatusFailed {
		t.Fatal("expected failed job")
	}
	if f.calls != 1 {
		t.Errorf("expected a single fetch call, got %d", f.calls)
	}
}

func TestWorker_ProcessNoFetcher(t *testing.T) {
	w := newTestWorker(nil)
	job := NewJob("key-4", "", nil, "FILEKEY", nil)
	w.Process(context.Background(), job)
	if job.Snapshot().Status != StatusFailed {
		t.Fatal("expected failure without a figma client")
	}
}

func TestWorker_ProcessNoScreens(t *testing.T) {
	w := newTestWorker(nil)
	doc := `{"document":{"id":"0:0","type":"DOCUMENT","children":[{"id":"1:1","name":"Page","type":"CANVAS"}]}}`
	job := NewJob("none-1", "empty.json", []byte(doc), "", nil)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "extracting" {
		t.Fatalf("expected failed in extracting, got %q/%q", snap.Status, snap.Phase)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected one error, got %v", snap.Progress.Errors)
	}
}

func TestWorker_ProcessInvalidJSON(t *testing.T) {
	w := newTestWorker(nil)
	job := NewJob("bad-1", "bad.json", []byte("{nope"), "", nil)
	w.Process(context.Background(), job)
	if snap := job.Snapshot(); snap.Status != StatusFailed || snap.Phase != "fetching" {
		t.Fatalf("expected failed in fetching, got %q/%q", snap.Status, snap.Phase)
	}
}

func TestWorker_RefineErrorFallsBackToLines(t *testing.T) {
	w := newTestWorker(nil)
	w.refiner = failingRefiner{}
	job := NewJob("ref-1", "design.json", []byte(testDocument), "", nil)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed despite refine failure, got %q", snap.Status)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected refine error to be recorded, got %v", snap.Progress.Errors)
	}
	if items := job.Result().Records[0].DescriptionItems; len(items) != 2 {
		t.Errorf("expected raw lines as items, got %v", items)
	}
}

func TestWorker_FallbackRefinerRecordsDegradation(t *testing.T) {
	w := newTestWorker(nil)
	w.refiner = refine.WithFallback(failingRefiner{}, nil, nil)
	job := NewJob("ref-2", "design.json", []byte(testDocument), "", nil)

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", snap.Status)
	}
	if len(snap.Progress.Errors) != 1 || !strings.Contains(snap.Progress.Errors[0], "provider down") {
		t.Errorf("expected the fallback to be recorded as a job error, got %v", snap.Progress.Errors)
	}
	if items := job.Result().Records[0].DescriptionItems; len(items) != 2 {
		t.Errorf("expected raw lines as items, got %v", items)
	}
}
