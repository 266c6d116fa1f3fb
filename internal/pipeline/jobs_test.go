package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/figops/internal/screens"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestNewJob_Queued(t *testing.T) {
	job := NewJob("j1", "design.json", []byte("{}"), "", nil)
	if job.Status != StatusQueued || job.Phase != "queued" {
		t.Errorf("expected queued job, got %q/%q", job.Status, job.Phase)
	}
	if string(job.FileData()) != "{}" {
		t.Errorf("expected file data to be kept, got %q", job.FileData())
	}
	if job.CreatedAt.IsZero() || !job.CreatedAt.Equal(job.UpdatedAt) {
		t.Error("expected CreatedAt == UpdatedAt on a new job")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("test-1", "", nil, "KEY", nil)

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusFetching, "fetching"},
		{StatusExtracting, "extracting"},
		{StatusRefining, "refining"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJobStatus_Done(t *testing.T) {
	for status, want := range map[JobStatus]bool{
		StatusQueued:     false,
		StatusFetching:   false,
		StatusExtracting: false,
		StatusRefining:   false,
		StatusCompleted:  true,
		StatusFailed:     true,
	} {
		if got := status.Done(); got != want {
			t.Errorf("%s.Done(): expected %v, got %v", status, want, got)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("fetching: status 404")
	job.AddError("refine AUTO_0001: timeout")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "fetching: status 404" {
		t.Errorf("expected first error %q, got %q", "fetching: status 404", snap.Progress.Errors[0])
	}
}

func TestJob_IncrRefined(t *testing.T) {
	job := &Job{ID: "incr-test", UpdatedAt: time.Now()}
	job.IncrRefined()
	job.IncrRefined()
	job.IncrRefined()

	snap := job.Snapshot()
	if snap.Progress.Refined != 3 {
		t.Errorf("expected 3 refined, got %d", snap.Progress.Refined)
	}
}

func TestJob_SetResultCounts(t *testing.T) {
	job := NewJob("res-test", "a.json", []byte("{}"), "", nil)
	records := []screens.ScreenRecord{
		{FigmaID: "1", Name: "AB_01", BaseID: "AB_01", PageName: "P1"},
		{FigmaID: "2", Name: "AB_02", BaseID: "AB_02", PageName: "P1"},
		{FigmaID: "3", Name: "CD_01", BaseID: "CD_01", PageName: "P2"},
	}
	job.SetResult(&Result{Records: records, Index: screens.Group(records), FinishedAt: time.Now()})

	snap := job.Snapshot()
	if snap.Progress.Screens != 3 || snap.Progress.Pages != 2 || snap.Progress.Prefixes != 2 {
		t.Errorf("expected 3 screens, 2 pages, 2 prefixes, got %+v", snap.Progress)
	}
	if job.FileData() != nil {
		t.Error("expected file data to be released once the result is set")
	}
	if job.Result() == nil || len(job.Result().Records) != 3 {
		t.Error("expected result to be retrievable")
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJob_SnapshotIsCopy(t *testing.T) {
	job := &Job{ID: "copy-test", UpdatedAt: time.Now()}
	job.AddError("first")
	snap := job.Snapshot()
	job.AddError("second")
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected snapshot to keep 1 error, got %d", len(snap.Progress.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", Status: StatusCompleted, UpdatedAt: time.Now()}
	running := &Job{ID: "running", Status: StatusRefining, UpdatedAt: time.Now()}
	store.Put(expired)
	store.Put(running)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", Status: StatusCompleted, UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("running") == nil {
		t.Error("expected unfinished job to survive cleanup")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 jobs left, got %d", store.Len())
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
