package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/rebuttal/api/internal/service"
)

// TaskTypeSweep is the asynq task that removes orphaned temp files
const TaskTypeSweep = "artifacts:sweep"

// SweepWorker deletes temp files left behind by failed or crashed jobs
type SweepWorker struct {
	tracker service.ArtifactTracker
	maxAge  time.Duration
}

// SweepResult summarizes one sweep
type SweepResult struct {
	Jobs    int `json:"jobs"`
	Removed int `json:"removed"`
	Failed  int `json:"failed"`
}

// NewSweepWorker creates a sweep worker
func NewSweepWorker(tracker service.ArtifactTracker, maxAge time.Duration) *SweepWorker {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &SweepWorker{tracker: tracker, maxAge: maxAge}
}

// NewSweepTask builds the periodic sweep task
func NewSweepTask() (*asynq.Task, error) {
	data, err := json.Marshal(map[string]string{"sweepId": uuid.NewString()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSweep, data), nil
}

// ProcessTask handles sweep task processing
func (w *SweepWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload struct {
		SweepID string `json:"sweepId"`
	}
	_ = json.Unmarshal(t.Payload(), &payload)

	res, err := w.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("sweep %s failed: %w", payload.SweepID, err)
	}
	if res.Jobs > 0 {
		log.Printf("[Sweep] %s: %d stale jobs, %d files removed, %d failed", payload.SweepID, res.Jobs, res.Removed, res.Failed)
	}
	return nil
}

// Sweep removes files owned by jobs older than maxAge and drops their
// records. Jobs with files that could not be removed stay tracked.
func (w *SweepWorker) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	stale, err := w.tracker.Stale(ctx, w.maxAge)
	if err != nil {
		return res, fmt.Errorf("failed to list stale jobs: %w", err)
	}

	for _, job := range stale {
		res.Jobs++
		failed := 0
		for _, p := range job.Paths {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				log.Printf("[Sweep] Failed to remove %s for job %s: %v", p, job.JobID, err)
				failed++
				continue
			}
			res.Removed++
			_ = w.tracker.Forget(ctx, job.JobID, p)
		}
		res.Failed += failed

		if failed == 0 {
			if err := w.tracker.Drop(ctx, job.JobID); err != nil {
				return res, fmt.Errorf("failed to drop job %s: %w", job.JobID, err)
			}
		}
	}

	return res, nil
}

// RunTicker sweeps on a fixed interval until ctx is done. Used when Redis is
// unavailable and the asynq scheduler cannot run.
func (w *SweepWorker) RunTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if res, err := w.Sweep(ctx); err != nil {
				log.Printf("[Sweep] %v", err)
			} else if res.Jobs > 0 {
				log.Printf("[Sweep] %d stale jobs, %d files removed, %d failed", res.Jobs, res.Removed, res.Failed)
			}
		}
	}
}
