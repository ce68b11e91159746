package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rebuttal/api/internal/service"
)

func TestSweepRemovesStaleArtifacts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	tracker := service.NewMemoryTracker()

	leftover := filepath.Join(dir, "job1_audio.wav")
	if err := os.WriteFile(leftover, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	_ = tracker.Track(ctx, "job1", leftover)
	_ = tracker.Track(ctx, "job1", filepath.Join(dir, "job1_input.mp4")) // already gone

	// maxAge of 1ns makes every tracked job stale
	w := NewSweepWorker(tracker, time.Nanosecond)
	time.Sleep(time.Millisecond)

	res, err := w.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Jobs != 1 || res.Removed != 2 || res.Failed != 0 {
		t.Errorf("result = %+v", res)
	}
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Error("leftover file still exists")
	}
	if tracker.Paths("job1") != nil {
		t.Error("job1 still tracked")
	}
}

func TestSweepKeepsFreshJobs(t *testing.T) {
	ctx := context.Background()
	tracker := service.NewMemoryTracker()
	path := filepath.Join(t.TempDir(), "job2_input.mp4")
	_ = os.WriteFile(path, []byte("x"), 0644)
	_ = tracker.Track(ctx, "job2", path)

	res, err := NewSweepWorker(tracker, time.Hour).Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Jobs != 0 {
		t.Errorf("result = %+v", res)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("fresh file removed: %v", err)
	}
}

func TestProcessTask(t *testing.T) {
	task, err := NewSweepTask()
	if err != nil {
		t.Fatalf("NewSweepTask: %v", err)
	}
	if task.Type() != TaskTypeSweep {
		t.Errorf("type = %s", task.Type())
	}
	if err := NewSweepWorker(service.NewMemoryTracker(), 0).ProcessTask(context.Background(), task); err != nil {
		t.Errorf("ProcessTask: %v", err)
	}
}
