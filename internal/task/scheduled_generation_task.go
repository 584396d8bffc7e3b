package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrNilPlanService is returned when a scheduled task is built without its
// plan service.
var ErrNilPlanService = errors.New("plan service cannot be nil")

// EnsureOutcome is the result of one scheduling tick. A skip is a benign
// no-op, never an error: it means the target week is already covered.
type EnsureOutcome struct {
	Skipped bool
	Reason  string
	PlanID  uuid.UUID
	JobID   string
}

// WeeklyPlanService creates the week's plan record and enqueues its
// generation job, or reports a skip when one already exists.
type WeeklyPlanService interface {
	EnsureWeeklyPlan(ctx context.Context, userID uuid.UUID) (EnsureOutcome, error)
}

// ScheduledGenerationTask is one firing of a user's recurring trigger.
// Each firing gets its own job identity; only the plan-generation job it
// may spawn is deduplicated by plan ID.
type ScheduledGenerationTask struct {
	id      string
	userID  uuid.UUID
	service WeeklyPlanService
	logger  *slog.Logger
}

// NewScheduledGenerationTask creates a scheduling-tick task for one firing.
func NewScheduledGenerationTask(
	userID uuid.UUID,
	firedAt time.Time,
	service WeeklyPlanService,
	logger *slog.Logger,
) (*ScheduledGenerationTask, error) {
	if service == nil {
		return nil, ErrNilPlanService
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if userID == uuid.Nil {
		return nil, ErrEmptyJobUser
	}

	return &ScheduledGenerationTask{
		id:      fmt.Sprintf("scheduled-%s-%d", userID, firedAt.Unix()),
		userID:  userID,
		service: service,
		logger:  logger.With("task_type", TypeScheduledGeneration, "user_id", userID),
	}, nil
}

// ID returns the job identifier for this firing.
func (t *ScheduledGenerationTask) ID() string {
	return t.id
}

// Type returns the task type identifier.
func (t *ScheduledGenerationTask) Type() string {
	return TypeScheduledGeneration
}

// Execute runs the scheduling tick.
func (t *ScheduledGenerationTask) Execute(ctx context.Context, report ProgressFunc) error {
	report(10, "checking for existing plan")

	outcome, err := t.service.EnsureWeeklyPlan(ctx, t.userID)
	if err != nil {
		return fmt.Errorf("scheduled generation failed: %w", err)
	}

	if outcome.Skipped {
		t.logger.Info("scheduled generation skipped", "reason", outcome.Reason)
	} else {
		t.logger.Info("weekly plan enqueued",
			"plan_id", outcome.PlanID,
			"job_id", outcome.JobID)
	}

	report(100, "scheduling tick complete")
	return nil
}
