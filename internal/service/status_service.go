package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mealsmith/mealsmith-api/internal/task"
)

// JobInspector is the read-and-cancel surface of a job queue.
type JobInspector interface {
	GetJob(id string) (task.Job, error)
	Cancel(id string) error
}

// JobStatus is the client-facing projection of one job's observable state.
type JobStatus struct {
	JobID        string        `json:"job_id"`
	Type         string        `json:"type"`
	State        task.JobState `json:"state"`
	Progress     int           `json:"progress"`
	AttemptsMade int           `json:"attempts_made"`
	FailedReason string        `json:"failed_reason,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	ProcessedOn  *time.Time    `json:"processed_on,omitempty"`
	FinishedOn   *time.Time    `json:"finished_on,omitempty"`
}

// StatusService answers job status queries across the queues. A job lives
// in exactly one queue; lookups try each in order.
type StatusService struct {
	queues []JobInspector
	logger *slog.Logger
}

// NewStatusService creates a StatusService over the given queues.
func NewStatusService(logger *slog.Logger, queues ...JobInspector) (*StatusService, error) {
	if len(queues) == 0 {
		return nil, ErrNilQueue
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &StatusService{
		queues: queues,
		logger: logger.With("component", "status_service"),
	}, nil
}

// GetStatus returns the current state of a job, or task.ErrJobNotFound
// when no queue knows it (never created, cancelled, or pruned by
// retention).
func (s *StatusService) GetStatus(jobID string) (JobStatus, error) {
	for _, q := range s.queues {
		job, err := q.GetJob(jobID)
		if err == nil {
			return projectJob(job), nil
		}
		if !errors.Is(err, task.ErrJobNotFound) {
			return JobStatus{}, fmt.Errorf("failed to look up job %s: %w", jobID, err)
		}
	}
	return JobStatus{}, task.ErrJobNotFound
}

// CancelJob removes a job that has not started. Active and finished jobs
// cannot be cancelled.
func (s *StatusService) CancelJob(jobID string) error {
	for _, q := range s.queues {
		err := q.Cancel(jobID)
		if err == nil {
			s.logger.Info("job cancelled", "job_id", jobID)
			return nil
		}
		if !errors.Is(err, task.ErrJobNotFound) {
			return err
		}
	}
	return task.ErrJobNotFound
}

func projectJob(job task.Job) JobStatus {
	return JobStatus{
		JobID:        job.ID,
		Type:         job.Type,
		State:        job.State,
		Progress:     job.Progress,
		AttemptsMade: job.AttemptsMade,
		FailedReason: job.FailedReason,
		CreatedAt:    job.CreatedAt,
		ProcessedOn:  job.ProcessedOn,
		FinishedOn:   job.FinishedOn,
	}
}
