package pipeline

import (
	"testing"
	"time"
)

func TestNewJob(t *testing.T) {
	a := NewJob("skripsi.docx", []byte("x"))
	b := NewJob("skripsi.docx", []byte("x"))
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.Status != StatusQueued {
		t.Errorf("expected queued, got %q", a.Status)
	}
	if string(a.Template()) != "x" {
		t.Errorf("unexpected template bytes %q", a.Template())
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing template"},
		{StatusAnalyzing, "analyzing structure"},
		{StatusGenerating, "generating content"},
		{StatusInserting, "inserting content"},
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
	for s, want := range map[JobStatus]bool{
		StatusQueued:     false,
		StatusParsing:    false,
		StatusAnalyzing:  false,
		StatusGenerating: false,
		StatusInserting:  false,
		StatusCompleted:  true,
		StatusPartial:    true,
		StatusFailed:     true,
	} {
		if s.Done() != want {
			t.Errorf("%s.Done() = %v, want %v", s, s.Done(), want)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("zone z3 failed")
	job.AddError("zone z7 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "zone z3 failed" {
		t.Errorf("expected first error %q, got %q", "zone z3 failed", snap.Progress.Errors[0])
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.Warnings == nil {
		t.Error("expected non-nil slices in snapshot")
	}
	if snap.HasOutput {
		t.Error("new job should have no output")
	}
}

func TestJob_SnapshotIsACopy(t *testing.T) {
	job := &Job{ID: "copy-test", UpdatedAt: time.Now()}
	job.AddError("first")
	snap := job.Snapshot()
	snap.Progress.Errors[0] = "changed"
	if job.Snapshot().Progress.Errors[0] != "first" {
		t.Error("snapshot shares its errors slice with the job")
	}
}

func TestJob_SetContentFeedsRequest(t *testing.T) {
	job := NewJob("t.docx", []byte("tpl"))
	job.Topic = "topik"
	job.Strategy = "sequential"
	job.SetContent("isi.yaml", []byte("chapter1: teks"))

	req := job.request()
	if req.Filename != "t.docx" || string(req.Template) != "tpl" {
		t.Errorf("unexpected template in request: %+v", req)
	}
	if req.ContentName != "isi.yaml" || string(req.Content) != "chapter1: teks" {
		t.Errorf("unexpected content in request: %+v", req)
	}
	if req.Topic != "topik" || req.Strategy != "sequential" {
		t.Errorf("unexpected options in request: %+v", req)
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
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(time.Minute)

	store.Put(&Job{ID: "old", UpdatedAt: time.Now().Add(-2 * time.Minute)})
	store.Put(&Job{ID: "new", UpdatedAt: time.Now()})

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
