package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mealsmith/mealsmith-api/internal/domain"
	"github.com/mealsmith/mealsmith-api/internal/generation"
	"github.com/mealsmith/mealsmith-api/internal/platform/logger"
	"github.com/mealsmith/mealsmith-api/internal/store"
)

// PlanStore implements the store.PlanStore interface using PostgreSQL.
// Meals and the categorized shopping list are stored as JSONB on the plan
// row itself.
type PlanStore struct {
	db store.DBTX
}

// NewPlanStore creates a new PlanStore.
func NewPlanStore(db store.DBTX) *PlanStore {
	return &PlanStore{db: db}
}

// CreatePlan persists a new plan record.
func (s *PlanStore) CreatePlan(ctx context.Context, plan *domain.MealPlan) error {
	log := logger.FromContext(ctx)

	if err := plan.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO meal_plans (id, user_id, week_start, status, job_id, model_id, email_sent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		plan.ID,
		plan.UserID,
		plan.WeekStart,
		plan.Status,
		nullString(plan.JobID),
		nullString(plan.ModelID),
		plan.EmailSent,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrPlanExists
		}
		log.Error("failed to create meal plan",
			"plan_id", plan.ID,
			"user_id", plan.UserID,
			"error", err)
		return fmt.Errorf("failed to create meal plan: %w", MapError(err))
	}

	return nil
}

// GetPlan retrieves a plan by ID.
func (s *PlanStore) GetPlan(ctx context.Context, planID uuid.UUID) (*domain.MealPlan, error) {
	query := `
		SELECT id, user_id, week_start, status, job_id, model_id, job_error, email_sent,
		       job_started_at, job_finished_at, created_at, updated_at
		FROM meal_plans
		WHERE id = $1
	`

	row := s.db.QueryRowContext(ctx, query, planID)
	return scanPlan(row)
}

// FindPlanForWeek returns the plan for (userID, weekStart) whose status is
// one of the given states. There is at most one such plan because failed
// plans are the only ones a new attempt may coexist with, and callers never
// include failed in statuses.
func (s *PlanStore) FindPlanForWeek(
	ctx context.Context,
	userID uuid.UUID,
	weekStart time.Time,
	statuses []domain.PlanStatus,
) (*domain.MealPlan, error) {
	if len(statuses) == 0 {
		return nil, store.ErrPlanNotFound
	}

	states := make([]string, len(statuses))
	for i, status := range statuses {
		states[i] = string(status)
	}

	query := `
		SELECT id, user_id, week_start, status, job_id, model_id, job_error, email_sent,
		       job_started_at, job_finished_at, created_at, updated_at
		FROM meal_plans
		WHERE user_id = $1 AND week_start = $2 AND status = ANY($3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	row := s.db.QueryRowContext(ctx, query, userID, weekStart, states)
	return scanPlan(row)
}

// ListUnfinishedPlans returns every plan still in pending or processing
// state, oldest first.
func (s *PlanStore) ListUnfinishedPlans(ctx context.Context) ([]*domain.MealPlan, error) {
	query := `
		SELECT id, user_id, week_start, status, job_id, model_id, job_error, email_sent,
		       job_started_at, job_finished_at, created_at, updated_at
		FROM meal_plans
		WHERE status = ANY($1)
		ORDER BY created_at ASC
	`

	states := []string{
		string(domain.PlanStatusPending),
		string(domain.PlanStatusProcessing),
	}

	rows, err := s.db.QueryContext(ctx, query, states)
	if err != nil {
		return nil, fmt.Errorf("failed to list unfinished plans: %w", MapError(err))
	}
	defer rows.Close()

	var plans []*domain.MealPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate unfinished plans: %w", MapError(err))
	}

	return plans, nil
}

// SetPlanJobID records the queue job ID on a freshly created plan.
func (s *PlanStore) SetPlanJobID(ctx context.Context, planID uuid.UUID, jobID string) error {
	query := `
		UPDATE meal_plans
		SET job_id = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, jobID, time.Now().UTC(), planID)
	if err != nil {
		return fmt.Errorf("failed to set plan job ID: %w", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrPlanNotFound)
}

// MarkProcessing transitions a plan to processing with a start timestamp.
func (s *PlanStore) MarkProcessing(ctx context.Context, planID uuid.UUID, startedAt time.Time) error {
	query := `
		UPDATE meal_plans
		SET status = $1, job_started_at = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.PlanStatusProcessing, startedAt, time.Now().UTC(), planID)
	if err != nil {
		return fmt.Errorf("failed to mark plan processing: %w", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrPlanNotFound)
}

// MarkCompleted stores the generation result and transitions the plan to
// completed.
func (s *PlanStore) MarkCompleted(
	ctx context.Context,
	planID uuid.UUID,
	result *generation.Result,
	finishedAt time.Time,
) error {
	log := logger.FromContext(ctx)

	mealsJSON, err := json.Marshal(result.Meals)
	if err != nil {
		return fmt.Errorf("failed to marshal meals: %w", err)
	}

	shoppingJSON, err := json.Marshal(result.ShoppingList)
	if err != nil {
		return fmt.Errorf("failed to marshal shopping list: %w", err)
	}

	query := `
		UPDATE meal_plans
		SET status = $1, meals = $2, shopping_list = $3, email_sent = $4,
		    job_error = NULL, job_finished_at = $5, updated_at = $6
		WHERE id = $7
	`

	res, err := s.db.ExecContext(ctx, query,
		domain.PlanStatusCompleted,
		mealsJSON,
		shoppingJSON,
		result.EmailSent,
		finishedAt,
		time.Now().UTC(),
		planID,
	)
	if err != nil {
		log.Error("failed to mark plan completed", "plan_id", planID, "error", err)
		return fmt.Errorf("failed to mark plan completed: %w", MapError(err))
	}

	return CheckRowsAffected(res, store.ErrPlanNotFound)
}

// MarkFailed transitions the plan to failed, recording the last attempt's
// error message.
func (s *PlanStore) MarkFailed(ctx context.Context, planID uuid.UUID, jobError string, finishedAt time.Time) error {
	query := `
		UPDATE meal_plans
		SET status = $1, job_error = $2, job_finished_at = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.PlanStatusFailed, jobError, finishedAt, time.Now().UTC(), planID)
	if err != nil {
		return fmt.Errorf("failed to mark plan failed: %w", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrPlanNotFound)
}

// rowScanner abstracts *sql.Row so scanPlan also works from *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*domain.MealPlan, error) {
	var (
		plan     domain.MealPlan
		jobID    sql.NullString
		modelID  sql.NullString
		jobError sql.NullString
		started  sql.NullTime
		finished sql.NullTime
	)

	err := row.Scan(
		&plan.ID,
		&plan.UserID,
		&plan.WeekStart,
		&plan.Status,
		&jobID,
		&modelID,
		&jobError,
		&plan.EmailSent,
		&started,
		&finished,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to scan meal plan: %w", MapError(err))
	}

	plan.JobID = jobID.String
	plan.ModelID = modelID.String
	plan.JobError = jobError.String
	if started.Valid {
		plan.JobStartedAt = &started.Time
	}
	if finished.Valid {
		plan.JobFinishedAt = &finished.Time
	}

	return &plan, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
