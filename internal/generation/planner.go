// Package generation defines the boundary between the application core and
// the external generative model used to produce weekly meal plans.
package generation

import (
	"context"

	"github.com/mealsmith/mealsmith-api/internal/domain"
	"github.com/mealsmith/mealsmith-api/internal/shopping"
)

// PlanPrompt carries everything the model needs for one generation call:
// the merged household constraints, the requested plan shape, and recent
// meal names used purely as an "avoid repeating these" hint.
type PlanPrompt struct {
	NumberOfMeals       int
	ServingsPerMeal     int
	MinProteinPerMeal   int
	MaxCaloriesPerMeal  int
	DietaryRestrictions []string
	RecentMealNames     []string
	WeekLabel           string
	ModelID             string
}

// Planner issues exactly one call to the external generative model per
// invocation and returns the parsed, validated meals. Implementations must
// not retry internally; the job queue's retry policy governs reattempts.
type Planner interface {
	// PlanMeals generates the week's meals from the prompt. Every returned
	// meal has all required fields populated; a malformed model response
	// fails the whole call with ErrInvalidResponse.
	PlanMeals(ctx context.Context, prompt PlanPrompt) ([]domain.Meal, error)
}

// Result is the outcome of one successful generation job: the meals, the
// aggregated shopping list keyed by category, and delivery metadata.
type Result struct {
	Meals          []domain.Meal
	ShoppingList   shopping.CategorizedList
	EmailSent      bool
	IterationCount int
}
