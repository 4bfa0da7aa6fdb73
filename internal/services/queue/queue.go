// Package queue implements the per-bead Command Queue: a FIFO serializer
// that guarantees at most one mutation runs at a time for any given bead,
// while mutations against different beads run fully in parallel.
package queue

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Effect is the unit of work a Job performs. It receives the context passed
// to Submit so cancellation propagates into in-flight external calls.
type Effect func(ctx context.Context) error

// Job is a single queued mutation.
type Job struct {
	ID     string
	Label  string
	Effect Effect
}

// Info is the running/queued snapshot returned to the action UI so it can
// disable actions that would conflict with an in-flight mutation.
type Info struct {
	Running string // empty if nothing is running
	Queued  int
}

type beadQueue struct {
	running *Job
	pending []Job
}

// Queue is a per-bead FIFO command serializer.
type Queue struct {
	mu     sync.Mutex
	byBead map[string]*beadQueue
	logger *slog.Logger
}

// New creates an empty Queue.
func New(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		byBead: make(map[string]*beadQueue),
		logger: logger,
	}
}

// Submit appends a job to beadID's pending list. If no job is currently
// running for that bead, it is dequeued and started immediately in its own
// goroutine. Submit never blocks waiting for the job to run.
func (q *Queue) Submit(ctx context.Context, beadID, label string, effect Effect) string {
	job := Job{ID: uuid.NewString(), Label: label, Effect: effect}

	q.mu.Lock()
	bq, ok := q.byBead[beadID]
	if !ok {
		bq = &beadQueue{}
		q.byBead[beadID] = bq
	}
	bq.pending = append(bq.pending, job)
	shouldStart := bq.running == nil
	q.mu.Unlock()

	if shouldStart {
		q.runNext(ctx, beadID)
	}

	return job.ID
}

// runNext dequeues the head of beadID's pending list into running and
// starts it, if nothing else is already running for that bead.
func (q *Queue) runNext(ctx context.Context, beadID string) {
	q.mu.Lock()
	bq := q.byBead[beadID]
	if bq == nil || bq.running != nil || len(bq.pending) == 0 {
		q.mu.Unlock()
		return
	}
	job := bq.pending[0]
	bq.pending = bq.pending[1:]
	bq.running = &job
	q.mu.Unlock()

	go func() {
		if err := job.Effect(ctx); err != nil {
			q.logger.Warn("queued job failed", "beadID", beadID, "job", job.Label, "error", err)
		}

		q.mu.Lock()
		bq.running = nil
		more := len(bq.pending) > 0
		q.mu.Unlock()

		if more {
			q.runNext(ctx, beadID)
		}
	}()
}

// GetInfo reports the running job's label (if any) and the number of
// queued jobs for beadID.
func (q *Queue) GetInfo(beadID string) Info {
	q.mu.Lock()
	defer q.mu.Unlock()

	bq, ok := q.byBead[beadID]
	if !ok {
		return Info{}
	}

	info := Info{Queued: len(bq.pending)}
	if bq.running != nil {
		info.Running = bq.running.Label
	}
	return info
}

// Cancel removes a not-yet-started job from beadID's pending list by id.
// Running jobs are never canceled; Cancel returns false if jobID isn't
// found in pending (including when it is already running or finished).
func (q *Queue) Cancel(beadID, jobID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	bq, ok := q.byBead[beadID]
	if !ok {
		return false
	}

	for i, j := range bq.pending {
		if j.ID == jobID {
			bq.pending = append(bq.pending[:i], bq.pending[i+1:]...)
			return true
		}
	}
	return false
}
