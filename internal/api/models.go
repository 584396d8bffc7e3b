package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/mealsmith/mealsmith-api/internal/task"
)

// GenerateRequest is the payload of the on-demand generation endpoint.
// Zero numeric fields fall back to the user's stored preferences.
type GenerateRequest struct {
	UserID              uuid.UUID `json:"user_id" validate:"required"`
	NumberOfMeals       int       `json:"number_of_meals" validate:"omitempty,gt=0,lte=21"`
	ServingsPerMeal     int       `json:"servings_per_meal" validate:"omitempty,gt=0,lte=12"`
	MinProteinPerMeal   int       `json:"min_protein_per_meal" validate:"omitempty,gt=0"`
	MaxCaloriesPerMeal  int       `json:"max_calories_per_meal" validate:"omitempty,gt=0"`
	DietaryRestrictions []string  `json:"dietary_restrictions,omitempty"`
	ModelID             string    `json:"model_id,omitempty"`
	TestMode            bool      `json:"test_mode,omitempty"`
}

// GenerateResponse identifies the plan record and job created for an
// accepted generation request.
type GenerateResponse struct {
	PlanID    uuid.UUID `json:"plan_id"`
	JobID     string    `json:"job_id"`
	WeekStart time.Time `json:"week_start"`
}

// JobStatusResponse is the client-facing view of one job.
type JobStatusResponse struct {
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
