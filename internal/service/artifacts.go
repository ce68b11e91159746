package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StaleJob is a job whose temp files outlived the sweep threshold
type StaleJob struct {
	JobID     string
	StartedAt time.Time
	Paths     []string
}

// ArtifactTracker records the temp files each job creates so files leaked by
// failed or crashed runs can be swept later.
type ArtifactTracker interface {
	// Begin stamps the job's start time. Paths left behind by an earlier run
	// with the same id are kept and adopted by the new run.
	Begin(ctx context.Context, jobID string) error
	Track(ctx context.Context, jobID, path string) error
	Forget(ctx context.Context, jobID, path string) error
	// Finish drops the job's record if no paths remain.
	Finish(ctx context.Context, jobID string) error
	Stale(ctx context.Context, olderThan time.Duration) ([]StaleJob, error)
	Drop(ctx context.Context, jobID string) error
}

// MemoryTracker is an in-process ArtifactTracker
type MemoryTracker struct {
	mu   sync.Mutex
	jobs map[string]*trackedJob
	now  func() time.Time
}

type trackedJob struct {
	started time.Time
	paths   map[string]struct{}
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{jobs: make(map[string]*trackedJob), now: time.Now}
}

func (t *MemoryTracker) Begin(ctx context.Context, jobID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[jobID]; ok {
		j.started = t.now()
		return nil
	}
	t.jobs[jobID] = &trackedJob{started: t.now(), paths: make(map[string]struct{})}
	return nil
}

func (t *MemoryTracker) Track(ctx context.Context, jobID, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[jobID]
	if !ok {
		j = &trackedJob{started: t.now(), paths: make(map[string]struct{})}
		t.jobs[jobID] = j
	}
	j.paths[path] = struct{}{}
	return nil
}

func (t *MemoryTracker) Forget(ctx context.Context, jobID, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[jobID]; ok {
		delete(j.paths, path)
	}
	return nil
}

func (t *MemoryTracker) Finish(ctx context.Context, jobID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[jobID]; ok && len(j.paths) == 0 {
		delete(t.jobs, jobID)
	}
	return nil
}

func (t *MemoryTracker) Stale(ctx context.Context, olderThan time.Duration) ([]StaleJob, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-olderThan)

	var stale []StaleJob
	for id, j := range t.jobs {
		if j.started.After(cutoff) {
			continue
		}
		paths := make([]string, 0, len(j.paths))
		for p := range j.paths {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		stale = append(stale, StaleJob{JobID: id, StartedAt: j.started, Paths: paths})
	}
	sort.Slice(stale, func(i, k int) bool { return stale[i].StartedAt.Before(stale[k].StartedAt) })
	return stale, nil
}

func (t *MemoryTracker) Drop(ctx context.Context, jobID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, jobID)
	return nil
}

// Paths returns the tracked paths for a job, sorted
func (t *MemoryTracker) Paths(jobID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[jobID]
	if !ok {
		return nil
	}
	paths := make([]string, 0, len(j.paths))
	for p := range j.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

const (
	artifactJobsKey   = "artifacts:jobs"
	artifactJobPrefix = "artifacts:job:"
)

// RedisTracker keeps the tracker state in Redis so the sweep can run in any
// process. Jobs live in a sorted set scored by start time; each job's paths
// live in their own set.
type RedisTracker struct {
	redis *redis.Client
	now   func() time.Time
}

func NewRedisTracker(redisClient *redis.Client) *RedisTracker {
	return &RedisTracker{redis: redisClient, now: time.Now}
}

func (t *RedisTracker) Begin(ctx context.Context, jobID string) error {
	z := redis.Z{Score: float64(t.now().Unix()), Member: jobID}
	if err := t.redis.ZAdd(ctx, artifactJobsKey, z).Err(); err != nil {
		return fmt.Errorf("failed to begin job %s: %w", jobID, err)
	}
	return nil
}

func (t *RedisTracker) Track(ctx context.Context, jobID, path string) error {
	pipe := t.redis.TxPipeline()
	pipe.ZAddNX(ctx, artifactJobsKey, redis.Z{Score: float64(t.now().Unix()), Member: jobID})
	pipe.SAdd(ctx, artifactJobPrefix+jobID, path)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to track artifact: %w", err)
	}
	return nil
}

func (t *RedisTracker) Forget(ctx context.Context, jobID, path string) error {
	if err := t.redis.SRem(ctx, artifactJobPrefix+jobID, path).Err(); err != nil {
		return fmt.Errorf("failed to forget artifact: %w", err)
	}
	return nil
}

func (t *RedisTracker) Finish(ctx context.Context, jobID string) error {
	n, err := t.redis.SCard(ctx, artifactJobPrefix+jobID).Result()
	if err != nil {
		return fmt.Errorf("failed to count artifacts: %w", err)
	}
	if n > 0 {
		return nil
	}
	return t.Drop(ctx, jobID)
}

func (t *RedisTracker) Stale(ctx context.Context, olderThan time.Duration) ([]StaleJob, error) {
	cutoff := t.now().Add(-olderThan).Unix()
	members, err := t.redis.ZRangeByScoreWithScores(ctx, artifactJobsKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list stale jobs: %w", err)
	}

	stale := make([]StaleJob, 0, len(members))
	for _, m := range members {
		jobID, ok := m.Member.(string)
		if !ok {
			continue
		}
		paths, err := t.redis.SMembers(ctx, artifactJobPrefix+jobID).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to list artifacts for %s: %w", jobID, err)
		}
		sort.Strings(paths)
		stale = append(stale, StaleJob{
			JobID:     jobID,
			StartedAt: time.Unix(int64(m.Score), 0),
			Paths:     paths,
		})
	}
	return stale, nil
}

func (t *RedisTracker) Drop(ctx context.Context, jobID string) error {
	pipe := t.redis.TxPipeline()
	pipe.Del(ctx, artifactJobPrefix+jobID)
	pipe.ZRem(ctx, artifactJobsKey, jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop job %s: %w", jobID, err)
	}
	return nil
}
