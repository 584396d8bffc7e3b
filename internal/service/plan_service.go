package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mealsmith/mealsmith-api/internal/domain"
	"github.com/mealsmith/mealsmith-api/internal/generation"
	"github.com/mealsmith/mealsmith-api/internal/mailer"
	"github.com/mealsmith/mealsmith-api/internal/store"
	"github.com/mealsmith/mealsmith-api/internal/task"
)

// Common service errors
var (
	ErrNilPlanStore = errors.New("plan store cannot be nil")
	ErrNilPrefStore = errors.New("preference store cannot be nil")
	ErrNilMealStore = errors.New("meal record store cannot be nil")
	ErrNilPlanner   = errors.New("planner cannot be nil")
	ErrNilMailer    = errors.New("mailer cannot be nil")
	ErrNilQueue     = errors.New("queue cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
	ErrEmptyUserID  = errors.New("user ID cannot be empty")
	ErrPlanConflict = errors.New("a plan already exists for the target week")
)

// JobQueue is the enqueue-side surface of a job queue.
type JobQueue interface {
	Enqueue(t task.Task) (string, error)
}

// GenerationRequest is an explicit on-demand generation request. Zero
// numeric fields and nil slices fall back to the user's stored preferences.
type GenerationRequest struct {
	UserID              uuid.UUID
	NumberOfMeals       int
	ServingsPerMeal     int
	MinProteinPerMeal   int
	MaxCaloriesPerMeal  int
	DietaryRestrictions []string
	ModelID             string
	TestMode            bool
}

// GenerationReceipt identifies the plan record and job created for one
// accepted generation request.
type GenerationReceipt struct {
	PlanID    uuid.UUID `json:"plan_id"`
	JobID     string    `json:"job_id"`
	WeekStart time.Time `json:"week_start"`
}

// PlanServiceConfig bundles the tunables shared by every generation job the
// service creates.
type PlanServiceConfig struct {
	TaskConfig     task.PlanGenerationTaskConfig
	DefaultModelID string
	TestMode       bool
}

// PlanService owns the plan lifecycle up to the point a generation job is
// handed to the queue: dedup per (user, week), plan record creation, and
// request assembly from stored preferences.
type PlanService struct {
	planStore  store.PlanStore
	prefStore  store.PreferenceStore
	mealStore  store.MealRecordStore
	planner    generation.Planner
	mail       mailer.Mailer
	lookup     task.ProductLookup
	genQueue   JobQueue
	schedQueue JobQueue
	cfg        PlanServiceConfig
	logger     *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewPlanService creates a PlanService. The lookup may be nil when price
// lookups are disabled globally.
func NewPlanService(
	planStore store.PlanStore,
	prefStore store.PreferenceStore,
	mealStore store.MealRecordStore,
	planner generation.Planner,
	mail mailer.Mailer,
	lookup task.ProductLookup,
	genQueue JobQueue,
	schedQueue JobQueue,
	cfg PlanServiceConfig,
	logger *slog.Logger,
) (*PlanService, error) {
	if planStore == nil {
		return nil, ErrNilPlanStore
	}
	if prefStore == nil {
		return nil, ErrNilPrefStore
	}
	if mealStore == nil {
		return nil, ErrNilMealStore
	}
	if planner == nil {
		return nil, ErrNilPlanner
	}
	if mail == nil {
		return nil, ErrNilMailer
	}
	if genQueue == nil || schedQueue == nil {
		return nil, ErrNilQueue
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &PlanService{
		planStore:  planStore,
		prefStore:  prefStore,
		mealStore:  mealStore,
		planner:    planner,
		mail:       mail,
		lookup:     lookup,
		genQueue:   genQueue,
		schedQueue: schedQueue,
		cfg:        cfg,
		logger:     logger.With("component", "plan_service"),
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// activeOrDone are the plan states that make a week "covered": a plan in
// any of them means a new generation must not start for that week.
var activeOrDone = []domain.PlanStatus{
	domain.PlanStatusPending,
	domain.PlanStatusProcessing,
	domain.PlanStatusCompleted,
}

// EnsureWeeklyPlan implements one scheduling tick for a user: if the
// upcoming week already has a pending, processing, or completed plan the
// tick is a benign skip, otherwise a plan record is created and its
// generation job enqueued. A previously failed week is eligible again.
func (s *PlanService) EnsureWeeklyPlan(ctx context.Context, userID uuid.UUID) (task.EnsureOutcome, error) {
	if userID == uuid.Nil {
		return task.EnsureOutcome{}, ErrEmptyUserID
	}

	prefs, err := s.prefStore.GetPreferences(ctx, userID)
	if err != nil {
		return task.EnsureOutcome{}, fmt.Errorf("failed to load preferences: %w", err)
	}

	weekStart := domain.WeekStart(s.now())

	existing, err := s.planStore.FindPlanForWeek(ctx, userID, weekStart, activeOrDone)
	if err == nil {
		s.logger.Info("skipping generation, week already covered",
			"user_id", userID,
			"week_start", weekStart,
			"plan_id", existing.ID,
			"plan_status", existing.Status)
		return task.EnsureOutcome{
			Skipped: true,
			Reason:  fmt.Sprintf("plan already %s for week of %s", existing.Status, weekStart.Format("2006-01-02")),
			PlanID:  existing.ID,
			JobID:   existing.JobID,
		}, nil
	}
	if !errors.Is(err, store.ErrPlanNotFound) {
		return task.EnsureOutcome{}, fmt.Errorf("failed to check for existing plan: %w", err)
	}

	receipt, err := s.startGeneration(ctx, prefs, requestFromPreferences(prefs, s.cfg.DefaultModelID, s.cfg.TestMode), weekStart)
	if err != nil {
		return task.EnsureOutcome{}, err
	}

	return task.EnsureOutcome{PlanID: receipt.PlanID, JobID: receipt.JobID}, nil
}

// RequestGeneration starts an on-demand generation for the upcoming week.
// Unlike a scheduling tick, an already covered week is an error here so the
// caller can report the conflict.
func (s *PlanService) RequestGeneration(ctx context.Context, req GenerationRequest) (GenerationReceipt, error) {
	if req.UserID == uuid.Nil {
		return GenerationReceipt{}, ErrEmptyUserID
	}

	prefs, err := s.prefStore.GetPreferences(ctx, req.UserID)
	if err != nil {
		return GenerationReceipt{}, fmt.Errorf("failed to load preferences: %w", err)
	}

	weekStart := domain.WeekStart(s.now())

	if existing, err := s.planStore.FindPlanForWeek(ctx, req.UserID, weekStart, activeOrDone); err == nil {
		return GenerationReceipt{}, fmt.Errorf("%w: plan %s is %s", ErrPlanConflict, existing.ID, existing.Status)
	} else if !errors.Is(err, store.ErrPlanNotFound) {
		return GenerationReceipt{}, fmt.Errorf("failed to check for existing plan: %w", err)
	}

	merged := requestFromPreferences(prefs, s.cfg.DefaultModelID, s.cfg.TestMode)
	applyOverrides(&merged, req)

	return s.startGeneration(ctx, prefs, merged, weekStart)
}

// startGeneration creates the plan record, builds the generation task, and
// enqueues it. The plan ID is minted first so the job ID can be derived
// from it before the job exists.
func (s *PlanService) startGeneration(
	ctx context.Context,
	prefs *domain.UserPreferences,
	req task.PlanRequest,
	weekStart time.Time,
) (GenerationReceipt, error) {
	plan, err := domain.NewMealPlan(prefs.UserID, weekStart, req.ModelID)
	if err != nil {
		return GenerationReceipt{}, fmt.Errorf("failed to build plan record: %w", err)
	}

	if err := s.planStore.CreatePlan(ctx, plan); err != nil {
		return GenerationReceipt{}, fmt.Errorf("failed to persist plan record: %w", err)
	}

	req.PlanID = plan.ID
	req.WeekStart = weekStart
	req.Recipients = collectRecipients(prefs)

	jobID, err := s.enqueueGeneration(ctx, req)
	if err != nil {
		return GenerationReceipt{}, err
	}

	s.logger.Info("generation job enqueued",
		"user_id", prefs.UserID,
		"plan_id", plan.ID,
		"job_id", jobID,
		"week_start", weekStart)

	return GenerationReceipt{PlanID: plan.ID, JobID: jobID, WeekStart: weekStart}, nil
}

// enqueueGeneration builds the generation task for an existing plan record,
// submits it, and records the job ID on the plan.
func (s *PlanService) enqueueGeneration(ctx context.Context, req task.PlanRequest) (string, error) {
	genTask, err := task.NewPlanGenerationTask(
		req, s.cfg.TaskConfig,
		s.planStore, s.mealStore, s.planner, s.mail, s.lookup,
		s.logger,
	)
	if err != nil {
		return "", fmt.Errorf("failed to build generation task: %w", err)
	}

	jobID, err := s.genQueue.Enqueue(genTask)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue generation job: %w", err)
	}

	if err := s.planStore.SetPlanJobID(ctx, req.PlanID, jobID); err != nil {
		return "", fmt.Errorf("failed to record job ID on plan: %w", err)
	}

	return jobID, nil
}

// RecoverUnfinishedPlans re-enqueues every plan left in pending or
// processing state by a previous run. The in-memory queue loses its jobs on
// restart, so without this a crashed plan would sit non-terminal forever and
// block its week. Returns the number of plans re-enqueued.
func (s *PlanService) RecoverUnfinishedPlans(ctx context.Context) (int, error) {
	plans, err := s.planStore.ListUnfinishedPlans(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list unfinished plans: %w", err)
	}

	if len(plans) == 0 {
		return 0, nil
	}
	s.logger.Info("recovering unfinished plans", "count", len(plans))

	recovered := 0
	for _, plan := range plans {
		prefs, err := s.prefStore.GetPreferences(ctx, plan.UserID)
		if err != nil {
			if errors.Is(err, store.ErrPreferencesNotFound) {
				// The request cannot be rebuilt; fail the plan so the
				// week becomes eligible again.
				if markErr := s.planStore.MarkFailed(ctx, plan.ID,
					"preferences no longer exist", s.now()); markErr != nil {
					s.logger.Error("failed to mark orphaned plan failed",
						"plan_id", plan.ID, "error", markErr)
				}
				continue
			}
			return recovered, fmt.Errorf("failed to load preferences for plan %s: %w", plan.ID, err)
		}

		modelID := plan.ModelID
		if modelID == "" {
			modelID = s.cfg.DefaultModelID
		}

		req := requestFromPreferences(prefs, modelID, s.cfg.TestMode)
		req.PlanID = plan.ID
		req.WeekStart = plan.WeekStart
		req.Recipients = collectRecipients(prefs)

		jobID, err := s.enqueueGeneration(ctx, req)
		if err != nil {
			s.logger.Error("failed to re-enqueue unfinished plan",
				"plan_id", plan.ID, "user_id", plan.UserID, "error", err)
			continue
		}

		recovered++
		s.logger.Info("unfinished plan re-enqueued",
			"plan_id", plan.ID,
			"user_id", plan.UserID,
			"previous_status", plan.Status,
			"job_id", jobID)
	}

	return recovered, nil
}

// ListSchedulePolicies exposes the stored policy set for scheduler resync.
func (s *PlanService) ListSchedulePolicies(ctx context.Context) ([]domain.SchedulePolicy, error) {
	return s.prefStore.ListSchedulePolicies(ctx)
}

// EnqueueTick submits one scheduling tick on the scheduling queue. Each
// firing gets its own job, so trigger firings are never deduplicated
// against retained jobs from earlier weeks.
func (s *PlanService) EnqueueTick(userID uuid.UUID, firedAt time.Time) error {
	tick, err := task.NewScheduledGenerationTask(userID, firedAt, s, s.logger)
	if err != nil {
		return fmt.Errorf("failed to build scheduling tick: %w", err)
	}

	if _, err := s.schedQueue.Enqueue(tick); err != nil {
		return fmt.Errorf("failed to enqueue scheduling tick: %w", err)
	}
	return nil
}

// requestFromPreferences projects stored preferences into a job request.
func requestFromPreferences(prefs *domain.UserPreferences, modelID string, testMode bool) task.PlanRequest {
	return task.PlanRequest{
		UserID:              prefs.UserID,
		NumberOfMeals:       prefs.NumberOfMeals,
		ServingsPerMeal:     prefs.ServingsPerMeal,
		MinProteinPerMeal:   prefs.MinProteinPerMeal,
		MaxCaloriesPerMeal:  prefs.MaxCaloriesPerMeal,
		DietaryRestrictions: prefs.DietaryRestrictions,
		HouseholdMembers:    prefs.HouseholdMembers,
		PriceLookupEnabled:  prefs.PriceLookupEnabled,
		ModelID:             modelID,
		TestMode:            testMode,
	}
}

// applyOverrides layers explicit request fields over preference defaults.
func applyOverrides(base *task.PlanRequest, req GenerationRequest) {
	if req.NumberOfMeals > 0 {
		base.NumberOfMeals = req.NumberOfMeals
	}
	if req.ServingsPerMeal > 0 {
		base.ServingsPerMeal = req.ServingsPerMeal
	}
	if req.MinProteinPerMeal > 0 {
		base.MinProteinPerMeal = req.MinProteinPerMeal
	}
	if req.MaxCaloriesPerMeal > 0 {
		base.MaxCaloriesPerMeal = req.MaxCaloriesPerMeal
	}
	if req.DietaryRestrictions != nil {
		base.DietaryRestrictions = req.DietaryRestrictions
	}
	if req.ModelID != "" {
		base.ModelID = req.ModelID
	}
	if req.TestMode {
		base.TestMode = true
	}
}

// collectRecipients gathers the primary user's email plus every household
// member email, skipping blanks.
func collectRecipients(prefs *domain.UserPreferences) []string {
	recipients := make([]string, 0, 1+len(prefs.HouseholdMembers))
	if prefs.Email != "" {
		recipients = append(recipients, prefs.Email)
	}
	for _, member := range prefs.HouseholdMembers {
		if member.Email != "" {
			recipients = append(recipients, member.Email)
		}
	}
	return recipients
}
