package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrQueueFull is returned when the dispatch buffer has no room left.
var ErrQueueFull = fmt.Errorf("job queue is full")

// QueueConfig holds configuration for a job queue and its worker pool.
type QueueConfig struct {
	// WorkerCount determines how many concurrent workers process jobs.
	WorkerCount int

	// QueueSize determines the buffer size of the dispatch channel.
	QueueSize int

	// MaxAttempts is the total number of attempts a job gets before it is
	// marked failed.
	MaxAttempts int

	// BackoffBase is the delay before the first retry; each subsequent
	// retry doubles the previous delay.
	BackoffBase time.Duration

	// Limiter, when non-nil, gates job starts: a worker must obtain a
	// token before picking up any job. Shared by all workers of the pool.
	Limiter *rate.Limiter

	// Retention bounds for finished jobs. Completed jobs are pruned past
	// either bound; failed jobs are kept up to a higher count to support
	// debugging. Zero values disable the respective bound.
	CompletedRetainCount int
	CompletedRetainAge   time.Duration
	FailedRetainCount    int
}

// DefaultQueueConfig returns a QueueConfig with the production defaults for
// the generation pool.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		WorkerCount:          2,
		QueueSize:            100,
		MaxAttempts:          3,
		BackoffBase:          2 * time.Second,
		Limiter:              NewAdmissionLimiter(10, time.Minute),
		CompletedRetainCount: 100,
		CompletedRetainAge:   7 * 24 * time.Hour,
		FailedRetainCount:    500,
	}
}

// NewAdmissionLimiter builds a rate limiter admitting at most max job
// starts per window, with bursts up to max.
func NewAdmissionLimiter(max int, window time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(max)/window.Seconds()), max)
}

type jobEntry struct {
	job  Job
	task Task
}

// Queue is an in-process job queue with a bounded worker pool. Job identity
// is the task's deterministic ID, so enqueueing the same logical work twice
// yields a reference to the existing job rather than a second one.
type Queue struct {
	name   string
	cfg    QueueConfig
	logger *slog.Logger

	mu           sync.Mutex
	jobs         map[string]*jobEntry
	completedIDs []string
	failedIDs    []string
	closed       bool

	dispatch chan string
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewQueue creates a job queue with the given name and configuration.
func NewQueue(name string, cfg QueueConfig, logger *slog.Logger) *Queue {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		name:     name,
		cfg:      cfg,
		logger:   logger.With("queue", name),
		jobs:     make(map[string]*jobEntry),
		dispatch: make(chan string, cfg.QueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Enqueue submits a task. When a job with the task's ID already exists
// (waiting, active, or retained in a terminal state) the existing job's
// ID is returned and no new work is created.
func (q *Queue) Enqueue(t Task) (string, error) {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		return "", ErrQueueClosed
	}

	id := t.ID()
	if _, ok := q.jobs[id]; ok {
		q.mu.Unlock()
		q.logger.Debug("job already enqueued, returning existing", "job_id", id)
		return id, nil
	}

	q.jobs[id] = &jobEntry{
		job: Job{
			ID:        id,
			Type:      t.Type(),
			State:     JobStateWaiting,
			CreatedAt: time.Now().UTC(),
		},
		task: t,
	}
	q.mu.Unlock()

	select {
	case q.dispatch <- id:
		q.logger.Debug("job enqueued", "job_id", id, "job_type", t.Type())
		return id, nil
	default:
		q.mu.Lock()
		delete(q.jobs, id)
		q.mu.Unlock()
		return "", fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(q.dispatch))
	}
}

// GetJob returns a snapshot of the job's observable state.
func (q *Queue) GetJob(id string) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return entry.job, nil
}

// Cancel removes a job that has not yet been picked up by a worker. It does
// not interrupt an in-flight attempt.
func (q *Queue) Cancel(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if entry.job.State != JobStateWaiting {
		return ErrJobNotWaiting
	}

	delete(q.jobs, id)
	q.logger.Info("job cancelled before dispatch", "job_id", id)
	return nil
}

// Start launches the worker pool and the retention janitor.
func (q *Queue) Start() {
	for i := 0; i < q.cfg.WorkerCount; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	q.wg.Add(1)
	go q.retentionJanitor()

	q.logger.Info("queue started", "workers", q.cfg.WorkerCount)
}

// Stop shuts the queue down, waiting for in-flight attempts to finish.
// Waiting jobs are not drained.
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()

	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.logger.Info("queue stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()

	q.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-q.ctx.Done():
			q.logger.Debug("stopping worker", "worker_id", id)
			return

		case jobID := <-q.dispatch:
			q.runAttempt(jobID, id)
		}
	}
}

// runAttempt executes one attempt of the given job, applying the admission
// limiter before pickup and the retry policy after a failure.
func (q *Queue) runAttempt(jobID string, workerID int) {
	if q.cfg.Limiter != nil {
		if err := q.cfg.Limiter.Wait(q.ctx); err != nil {
			return // shutting down
		}
	}

	q.mu.Lock()
	entry, ok := q.jobs[jobID]
	if !ok || entry.job.State != JobStateWaiting {
		// Cancelled or already handled.
		q.mu.Unlock()
		return
	}

	entry.job.State = JobStateActive
	entry.job.AttemptsMade++
	entry.job.Progress = 0
	attempt := entry.job.AttemptsMade
	if entry.job.ProcessedOn == nil {
		now := time.Now().UTC()
		entry.job.ProcessedOn = &now
	}
	q.mu.Unlock()

	logger := q.logger.With(
		"job_id", jobID,
		"job_type", entry.task.Type(),
		"worker_id", workerID,
		"attempt", attempt,
	)
	logger.Info("processing job")

	// In-attempt reports are clamped to 99 so progress reaches exactly 100
	// only when the job completes, and never decreases within the attempt.
	report := func(percent int, message string) {
		q.mu.Lock()
		if percent > 99 {
			percent = 99
		}
		if entry.job.State == JobStateActive && percent > entry.job.Progress {
			entry.job.Progress = percent
		}
		current := entry.job.Progress
		q.mu.Unlock()
		logger.Debug("job progress", "progress", current, "message", message)
	}

	err := entry.task.Execute(q.ctx, report)

	now := time.Now().UTC()
	if err == nil {
		q.mu.Lock()
		entry.job.State = JobStateCompleted
		entry.job.Progress = 100
		entry.job.FinishedOn = &now
		q.completedIDs = append(q.completedIDs, jobID)
		q.mu.Unlock()

		logger.Info("job completed")
		q.pruneByCount()
		return
	}

	logger.Error("job attempt failed", "error", err)

	q.mu.Lock()
	entry.job.FailedReason = err.Error()

	if attempt >= q.cfg.MaxAttempts {
		entry.job.State = JobStateFailed
		entry.job.FinishedOn = &now
		q.failedIDs = append(q.failedIDs, jobID)
		q.mu.Unlock()

		logger.Error("job failed permanently", "attempts_made", attempt)
		if handler, ok := entry.task.(ExhaustionHandler); ok {
			handler.OnExhausted(q.ctx, err)
		}
		q.pruneByCount()
		return
	}

	entry.job.State = JobStateWaiting
	q.mu.Unlock()

	delay := q.cfg.BackoffBase << (attempt - 1)
	logger.Info("scheduling retry", "delay", delay, "next_attempt", attempt+1)

	time.AfterFunc(delay, func() {
		select {
		case q.dispatch <- jobID:
		case <-q.ctx.Done():
		}
	})
}

// pruneByCount drops the oldest finished jobs beyond the configured counts.
func (q *Queue) pruneByCount() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n := q.cfg.CompletedRetainCount; n > 0 {
		for len(q.completedIDs) > n {
			delete(q.jobs, q.completedIDs[0])
			q.completedIDs = q.completedIDs[1:]
		}
	}

	if n := q.cfg.FailedRetainCount; n > 0 {
		for len(q.failedIDs) > n {
			delete(q.jobs, q.failedIDs[0])
			q.failedIDs = q.failedIDs[1:]
		}
	}
}

// retentionJanitor periodically drops completed jobs older than the
// configured age.
func (q *Queue) retentionJanitor() {
	defer q.wg.Done()

	if q.cfg.CompletedRetainAge <= 0 {
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return

		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-q.cfg.CompletedRetainAge)

			q.mu.Lock()
			kept := q.completedIDs[:0]
			for _, id := range q.completedIDs {
				entry, ok := q.jobs[id]
				if ok && entry.job.FinishedOn != nil && entry.job.FinishedOn.Before(cutoff) {
					delete(q.jobs, id)
					continue
				}
				kept = append(kept, id)
			}
			q.completedIDs = kept
			q.mu.Unlock()
		}
	}
}
