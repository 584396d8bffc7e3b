package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mealsmith/mealsmith-api/internal/domain"
	"github.com/mealsmith/mealsmith-api/internal/domain/household"
	"github.com/mealsmith/mealsmith-api/internal/generation"
	"github.com/mealsmith/mealsmith-api/internal/mailer"
	"github.com/mealsmith/mealsmith-api/internal/platform/heb"
	"github.com/mealsmith/mealsmith-api/internal/shopping"
	"github.com/mealsmith/mealsmith-api/internal/store"
)

// Common errors
var (
	ErrNilPlanStore = errors.New("plan store cannot be nil")
	ErrNilMealStore = errors.New("meal record store cannot be nil")
	ErrNilPlanner   = errors.New("planner cannot be nil")
	ErrNilMailer    = errors.New("mailer cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
	ErrEmptyPlanID  = errors.New("plan ID cannot be empty")
	ErrEmptyJobUser = errors.New("user ID cannot be empty")
)

// ProductLookup is the optional price/link capability consulted per
// shopping-list line when the request enables it.
type ProductLookup interface {
	Lookup(ctx context.Context, item string) (*heb.Product, error)
}

// PlanRequest is the immutable payload of one plan-generation job. PlanID
// is the durable key shared by the persisted plan record and the job.
type PlanRequest struct {
	UserID              uuid.UUID                `json:"user_id"`
	PlanID              uuid.UUID                `json:"plan_id"`
	NumberOfMeals       int                      `json:"number_of_meals"`
	ServingsPerMeal     int                      `json:"servings_per_meal"`
	MinProteinPerMeal   int                      `json:"min_protein_per_meal"`
	MaxCaloriesPerMeal  int                      `json:"max_calories_per_meal"`
	DietaryRestrictions []string                 `json:"dietary_restrictions"`
	HouseholdMembers    []domain.HouseholdMember `json:"household_members,omitempty"`
	WeekStart           time.Time                `json:"week_start"`
	PriceLookupEnabled  bool                     `json:"price_lookup_enabled"`
	ModelID             string                   `json:"model_id"`
	Recipients          []string                 `json:"recipients"`
	TestMode            bool                     `json:"test_mode,omitempty"`
}

// JobIDForPlan derives the deterministic job identifier from a plan ID.
// Re-enqueueing the same plan can therefore never create a second job.
func JobIDForPlan(planID uuid.UUID) string {
	return "plan-" + planID.String()
}

// PlanGenerationTaskConfig bundles the tunables of a generation attempt.
type PlanGenerationTaskConfig struct {
	// AttemptTimeout bounds one attempt end to end so a hung model call
	// cannot hold a worker slot forever.
	AttemptTimeout time.Duration

	// RecentMealNames is how many history names feed the variety hint.
	RecentMealNames int
}

// PlanGenerationTask runs one weekly meal-plan generation: merge household
// preferences, issue the single model call, aggregate and categorize the
// shopping list, deliver the email, and persist the result.
type PlanGenerationTask struct {
	req       PlanRequest
	cfg       PlanGenerationTaskConfig
	planStore store.PlanStore
	mealStore store.MealRecordStore
	planner   generation.Planner
	mail      mailer.Mailer
	lookup    ProductLookup
	logger    *slog.Logger
}

// NewPlanGenerationTask creates a plan generation task.
func NewPlanGenerationTask(
	req PlanRequest,
	cfg PlanGenerationTaskConfig,
	planStore store.PlanStore,
	mealStore store.MealRecordStore,
	planner generation.Planner,
	mail mailer.Mailer,
	lookup ProductLookup,
	logger *slog.Logger,
) (*PlanGenerationTask, error) {
	if planStore == nil {
		return nil, ErrNilPlanStore
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
	if logger == nil {
		return nil, ErrNilLogger
	}
	if req.PlanID == uuid.Nil {
		return nil, ErrEmptyPlanID
	}
	if req.UserID == uuid.Nil {
		return nil, ErrEmptyJobUser
	}

	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 5 * time.Minute
	}
	if cfg.RecentMealNames <= 0 {
		cfg.RecentMealNames = 4
	}
	if req.WeekStart.IsZero() {
		req.WeekStart = domain.WeekStart(time.Now().UTC())
	}

	// A test-mode request must never reach the real transport, even on a
	// server whose global mailer delivers for real.
	if req.TestMode {
		mail = mailer.NewLogMailer(logger)
	}

	return &PlanGenerationTask{
		req:       req,
		cfg:       cfg,
		planStore: planStore,
		mealStore: mealStore,
		planner:   planner,
		mail:      mail,
		lookup:    lookup,
		logger:    logger.With("task_type", TypePlanGeneration, "plan_id", req.PlanID),
	}, nil
}

// ID returns the deterministic job identifier.
func (t *PlanGenerationTask) ID() string {
	return JobIDForPlan(t.req.PlanID)
}

// Type returns the task type identifier.
func (t *PlanGenerationTask) Type() string {
	return TypePlanGeneration
}

// Execute runs one generation attempt. Progress is reported as: [0,20)
// setup, [20,90) the generation step's own milestones scaled in, [90,100)
// persistence. Any error propagates so the queue's retry policy governs
// the next attempt.
func (t *PlanGenerationTask) Execute(ctx context.Context, report ProgressFunc) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.AttemptTimeout)
	defer cancel()

	t.logger.Info("starting meal plan generation")

	if err := t.planStore.MarkProcessing(ctx, t.req.PlanID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark plan processing: %w", err)
	}

	report(5, "building generation request")

	merged := household.Merge(domain.UserPreferences{
		MinProteinPerMeal:   t.req.MinProteinPerMeal,
		MaxCaloriesPerMeal:  t.req.MaxCaloriesPerMeal,
		DietaryRestrictions: t.req.DietaryRestrictions,
	}, t.req.HouseholdMembers)

	recentMeals, err := t.mealStore.GetRecentMealNames(ctx, t.req.UserID, t.cfg.RecentMealNames)
	if err != nil {
		return fmt.Errorf("failed to load recent meal history: %w", err)
	}

	// The week is fixed at request time so a retry that crosses a week
	// boundary still prompts and emails for the persisted plan's week.
	weekLabel := weekLabel(t.req.WeekStart)
	prompt := generation.PlanPrompt{
		NumberOfMeals:       t.req.NumberOfMeals,
		ServingsPerMeal:     t.req.ServingsPerMeal,
		MinProteinPerMeal:   merged.MinProteinPerMeal,
		MaxCaloriesPerMeal:  merged.MaxCaloriesPerMeal,
		DietaryRestrictions: merged.DietaryRestrictions,
		RecentMealNames:     recentMeals,
		WeekLabel:           weekLabel,
		ModelID:             t.req.ModelID,
	}

	report(15, "request ready")

	// The generation step's own 0-100 milestones occupy [20,90).
	report(scaleGeneration(10), "calling generative model")

	meals, err := t.planner.PlanMeals(ctx, prompt)
	if err != nil {
		return fmt.Errorf("generation attempt failed: %w", err)
	}

	report(scaleGeneration(50), "received meals from model")
	t.logger.Info("meals generated", "count", len(meals))

	aggregated := shopping.Aggregate(meals)
	if t.req.PriceLookupEnabled && t.lookup != nil {
		t.attachSearchLinks(ctx, aggregated)
	}
	shoppingList := shopping.Categorize(aggregated)

	report(scaleGeneration(70), "shopping list aggregated")

	emailSent := t.sendEmail(ctx, weekLabel, meals, shoppingList)

	report(scaleGeneration(100), "generation step complete")

	result := &generation.Result{
		Meals:          meals,
		ShoppingList:   shoppingList,
		EmailSent:      emailSent,
		IterationCount: 1,
	}

	report(90, "persisting meal plan")

	if err := t.planStore.MarkCompleted(ctx, t.req.PlanID, result, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to persist meal plan result: %w", err)
	}

	records := make([]*domain.MealRecord, 0, len(meals))
	for _, meal := range meals {
		records = append(records, domain.NewMealRecord(t.req.UserID, t.req.PlanID, meal))
	}
	if err := t.mealStore.CreateMealRecords(ctx, records); err != nil {
		return fmt.Errorf("failed to save meal history: %w", err)
	}

	report(100, "meal plan saved")
	t.logger.Info("meal plan generation completed", "meals", len(meals), "email_sent", emailSent)
	return nil
}

// OnExhausted moves the plan record to its terminal failed state once the
// queue has burned every attempt.
func (t *PlanGenerationTask) OnExhausted(ctx context.Context, lastErr error) {
	t.logger.Error("plan generation retries exhausted",
		"error", fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr))

	// The queue context may already be shutting down; give the final write
	// its own deadline.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := t.planStore.MarkFailed(ctx, t.req.PlanID, lastErr.Error(), time.Now().UTC()); err != nil {
		t.logger.Error("failed to mark plan failed", "error", err)
	}
}

// attachSearchLinks decorates each aggregated line with a product search
// link. Lookup failures only cost the link, never the job.
func (t *PlanGenerationTask) attachSearchLinks(ctx context.Context, aggregated []shopping.AggregatedIngredient) {
	for i := range aggregated {
		product, err := t.lookup.Lookup(ctx, aggregated[i].Item)
		if err != nil {
			t.logger.Warn("product lookup failed", "item", aggregated[i].Item, "error", err)
			continue
		}
		if product != nil {
			aggregated[i].SearchLink = product.Link
		}
	}
}

// sendEmail delivers the plan summary. Email failure is reported in the
// result but does not fail the job.
func (t *PlanGenerationTask) sendEmail(
	ctx context.Context,
	weekLabel string,
	meals []domain.Meal,
	shoppingList shopping.CategorizedList,
) bool {
	if len(t.req.Recipients) == 0 {
		t.logger.Warn("no email recipients configured, skipping send")
		return false
	}

	subject := fmt.Sprintf("Your High-Protein Dinner Meal Plan - %s", weekLabel)
	body := renderSummaryBody(weekLabel, meals, shoppingList)

	if err := t.mail.Send(ctx, subject, body, t.req.Recipients); err != nil {
		t.logger.Error("failed to send meal plan email", "error", err)
		return false
	}
	return true
}

// renderSummaryBody builds a minimal HTML summary of the plan. Full email
// templating lives with the web application, not this pipeline.
func renderSummaryBody(weekLabel string, meals []domain.Meal, list shopping.CategorizedList) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h1>%s</h1>\n<h2>Meals</h2>\n<ul>\n", weekLabel)
	for _, meal := range meals {
		fmt.Fprintf(&b, "<li>%s: %s (%.0f cal, %.0fg protein)</li>\n",
			meal.Day, meal.Name, meal.Nutrition.Calories, meal.Nutrition.Protein)
	}
	b.WriteString("</ul>\n<h2>Shopping List</h2>\n")

	for _, category := range shopping.CategoryOrder {
		lines, ok := list[category]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "<h3>%s</h3>\n<ul>\n", category)
		for _, line := range lines {
			fmt.Fprintf(&b, "<li>%s - %s</li>\n", line.Item, line.Amount)
		}
		b.WriteString("</ul>\n")
	}

	return b.String()
}

// scaleGeneration maps the generation step's internal progress [0,100]
// into the worker's [20,90) band.
func scaleGeneration(percent int) int {
	return 20 + percent*70/100
}

// weekLabel renders the target week's start date the way plan emails and
// prompts refer to it.
func weekLabel(weekStart time.Time) string {
	return "Week of " + weekStart.Format("January 2, 2006")
}
