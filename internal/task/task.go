// Package task implements the durable, retryable job queue that drives
// meal-plan generation: idempotent enqueueing, bounded worker pools with an
// admission rate limiter, retry with exponential backoff, progress
// reporting, and bounded retention of finished jobs.
package task

import (
	"context"
	"errors"
	"time"
)

// JobState represents the current state of a queued job.
type JobState string

// Possible job states. Completed and failed are terminal.
const (
	JobStateWaiting   JobState = "waiting"
	JobStateActive    JobState = "active"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// Job type constants
const (
	// TypePlanGeneration is the job type for generating one weekly meal plan.
	TypePlanGeneration = "plan-generation"

	// TypeScheduledGeneration is the job type for one scheduling tick that
	// may enqueue a plan-generation job.
	TypeScheduledGeneration = "scheduled-generation"
)

// Common errors returned by the queue
var (
	ErrQueueClosed    = errors.New("job queue is closed")
	ErrJobNotFound    = errors.New("job not found")
	ErrJobNotWaiting  = errors.New("job has already been picked up by a worker")
	ErrRetryExhausted = errors.New("all retry attempts exhausted")
)

// ProgressFunc reports attempt progress as a percentage with a short
// human-readable message. Reported values are clamped so observed progress
// never decreases within one attempt.
type ProgressFunc func(percent int, message string)

// Task is one unit of background work submitted to a Queue. The ID is a
// pure function of the task's payload identity, which is what makes
// enqueueing idempotent.
type Task interface {
	// ID returns the deterministic job identifier.
	ID() string

	// Type returns the task type identifier.
	Type() string

	// Execute runs one attempt of the task. Errors propagate to the queue,
	// whose retry policy decides whether another attempt happens.
	Execute(ctx context.Context, report ProgressFunc) error
}

// ExhaustionHandler is implemented by tasks that need to react once every
// retry attempt has failed, e.g. to move an associated record to a
// terminal failed state.
type ExhaustionHandler interface {
	OnExhausted(ctx context.Context, lastErr error)
}

// Job is the observable state of one queued unit of work.
type Job struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	State        JobState   `json:"state"`
	AttemptsMade int        `json:"attempts_made"`
	Progress     int        `json:"progress"`
	FailedReason string     `json:"failed_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ProcessedOn  *time.Time `json:"processed_on,omitempty"`
	FinishedOn   *time.Time `json:"finished_on,omitempty"`
}

// IsTerminal reports whether the job has finished, successfully or not.
func (j *Job) IsTerminal() bool {
	return j.State == JobStateCompleted || j.State == JobStateFailed
}
