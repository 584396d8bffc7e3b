package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mealsmith/mealsmith-api/internal/domain"
	"github.com/mealsmith/mealsmith-api/internal/generation"
)

// PlanStore defines the persistence contract for meal plan records.
// The worker that owns a job is the only writer of its plan's state.
type PlanStore interface {
	// CreatePlan persists a new plan record.
	CreatePlan(ctx context.Context, plan *domain.MealPlan) error

	// GetPlan retrieves a plan by ID. Returns ErrPlanNotFound if absent.
	GetPlan(ctx context.Context, planID uuid.UUID) (*domain.MealPlan, error)

	// FindPlanForWeek returns the plan for (userID, weekStart) whose status
	// is one of the given states, or ErrPlanNotFound when there is none.
	FindPlanForWeek(
		ctx context.Context,
		userID uuid.UUID,
		weekStart time.Time,
		statuses []domain.PlanStatus,
	) (*domain.MealPlan, error)

	// ListUnfinishedPlans returns every plan still in pending or processing
	// state, oldest first. Used at startup to re-enqueue work interrupted
	// by a crash or restart.
	ListUnfinishedPlans(ctx context.Context) ([]*domain.MealPlan, error)

	// SetPlanJobID records the queue job ID on a freshly created plan.
	SetPlanJobID(ctx context.Context, planID uuid.UUID, jobID string) error

	// MarkProcessing transitions a plan to processing with a start timestamp.
	MarkProcessing(ctx context.Context, planID uuid.UUID, startedAt time.Time) error

	// MarkCompleted stores the generation result and transitions the plan
	// to completed with a finish timestamp.
	MarkCompleted(
		ctx context.Context,
		planID uuid.UUID,
		result *generation.Result,
		finishedAt time.Time,
	) error

	// MarkFailed transitions the plan to failed, recording the last
	// attempt's error message.
	MarkFailed(ctx context.Context, planID uuid.UUID, jobError string, finishedAt time.Time) error
}
