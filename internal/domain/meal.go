package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for generated meals
var (
	ErrMissingMealField = errors.New("meal is missing a required field")
)

// Ingredient is one line of a meal's shopping requirements. Amount is free
// text as produced by the model ("2 cups", "1 lb").
type Ingredient struct {
	Item   string `json:"item"`
	Amount string `json:"amount"`
}

// Nutrition holds per-serving nutritional values for one meal.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Meal is one generated dinner. Produced once per job by the generation
// step and immutable thereafter.
type Meal struct {
	Day          string       `json:"day"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	PrepTime     string       `json:"prep_time"`
	CookTime     string       `json:"cook_time"`
	Nutrition    Nutrition    `json:"nutrition"`
}

// Validate checks that every field the generation contract requires is
// present. A meal failing validation fails the whole generation attempt.
func (m *Meal) Validate() error {
	switch {
	case m.Day == "":
		return fmt.Errorf("%w: day", ErrMissingMealField)
	case m.Name == "":
		return fmt.Errorf("%w: name", ErrMissingMealField)
	case len(m.Ingredients) == 0:
		return fmt.Errorf("%w: ingredients", ErrMissingMealField)
	case len(m.Instructions) == 0:
		return fmt.Errorf("%w: instructions", ErrMissingMealField)
	case m.PrepTime == "":
		return fmt.Errorf("%w: prepTime", ErrMissingMealField)
	case m.CookTime == "":
		return fmt.Errorf("%w: cookTime", ErrMissingMealField)
	}

	for _, ing := range m.Ingredients {
		if ing.Item == "" || ing.Amount == "" {
			return fmt.Errorf("%w: ingredient item/amount", ErrMissingMealField)
		}
	}

	return nil
}

// MealRecord is the per-meal history row persisted after a successful
// generation, used later as an "avoid repeating these" prompt hint.
type MealRecord struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	PlanID    uuid.UUID `json:"plan_id"`
	Meal      Meal      `json:"meal"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMealRecord creates a history record for one generated meal.
func NewMealRecord(userID, planID uuid.UUID, meal Meal) *MealRecord {
	return &MealRecord{
		ID:        uuid.New(),
		UserID:    userID,
		PlanID:    planID,
		Meal:      meal,
		CreatedAt: time.Now().UTC(),
	}
}
