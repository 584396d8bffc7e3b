package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PlanStatus represents the lifecycle state of a meal plan record.
type PlanStatus string

// Possible plan status values
const (
	PlanStatusPending    PlanStatus = "pending"
	PlanStatusProcessing PlanStatus = "processing"
	PlanStatusCompleted  PlanStatus = "completed"
	PlanStatusFailed     PlanStatus = "failed"
)

// Common validation errors for MealPlan
var (
	ErrEmptyPlanID      = errors.New("plan ID cannot be empty")
	ErrEmptyPlanUserID  = errors.New("plan user ID cannot be empty")
	ErrZeroWeekStart    = errors.New("plan week start cannot be zero")
	ErrInvalidPlanState = errors.New("invalid plan status")
)

// MealPlan is the durable record for one week's generated plan.
// The record is created in pending state before the generation job is
// enqueued; only the worker that owns the job transitions it afterwards.
type MealPlan struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	WeekStart     time.Time  `json:"week_start"`
	Status        PlanStatus `json:"status"`
	JobID         string     `json:"job_id,omitempty"`
	ModelID       string     `json:"model_id,omitempty"`
	JobError      string     `json:"job_error,omitempty"`
	EmailSent     bool       `json:"email_sent"`
	JobStartedAt  *time.Time `json:"job_started_at,omitempty"`
	JobFinishedAt *time.Time `json:"job_finished_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewMealPlan creates a pending MealPlan for the given user and week.
// Returns an error if validation fails.
func NewMealPlan(userID uuid.UUID, weekStart time.Time, modelID string) (*MealPlan, error) {
	now := time.Now().UTC()
	plan := &MealPlan{
		ID:        uuid.New(),
		UserID:    userID,
		WeekStart: weekStart,
		Status:    PlanStatusPending,
		ModelID:   modelID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	return plan, nil
}

// Validate checks if the MealPlan has valid data.
func (p *MealPlan) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPlanID
	}

	if p.UserID == uuid.Nil {
		return ErrEmptyPlanUserID
	}

	if p.WeekStart.IsZero() {
		return ErrZeroWeekStart
	}

	if !isValidPlanStatus(p.Status) {
		return ErrInvalidPlanState
	}

	return nil
}

// IsTerminal reports whether the plan has reached a terminal state.
func (p *MealPlan) IsTerminal() bool {
	return p.Status == PlanStatusCompleted || p.Status == PlanStatusFailed
}

func isValidPlanStatus(status PlanStatus) bool {
	switch status {
	case PlanStatusPending, PlanStatusProcessing, PlanStatusCompleted, PlanStatusFailed:
		return true
	default:
		return false
	}
}

// WeekStart returns the start of the next calendar week (Sunday, midnight UTC)
// relative to t. If t already falls on a Sunday, t's own date is returned.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	days := (7 - int(t.Weekday())) % 7
	start := t.AddDate(0, 0, days)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
