package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Common validation errors for preferences and schedule policies
var (
	ErrEmptyPrefsUserID = errors.New("preferences user ID cannot be empty")
	ErrInvalidMealCount = errors.New("number of meals must be positive")
	ErrInvalidServings  = errors.New("servings per meal must be positive")
	ErrInvalidDayOfWeek = errors.New("day of week must be between 0 and 6")
	ErrInvalidHour      = errors.New("hour must be between 0 and 23")
	ErrInvalidMinute    = errors.New("minute must be between 0 and 59")
)

// UserPreferences holds a user's standing meal-planning preferences,
// read by the scheduler and the on-demand generation path.
type UserPreferences struct {
	UserID              uuid.UUID         `json:"user_id"`
	Email               string            `json:"email"`
	NumberOfMeals       int               `json:"number_of_meals"`
	ServingsPerMeal     int               `json:"servings_per_meal"`
	MinProteinPerMeal   int               `json:"min_protein_per_meal"`
	MaxCaloriesPerMeal  int               `json:"max_calories_per_meal"`
	DietaryRestrictions []string          `json:"dietary_restrictions"`
	PriceLookupEnabled  bool              `json:"price_lookup_enabled"`
	HouseholdMembers    []HouseholdMember `json:"household_members,omitempty"`
}

// Validate checks if the UserPreferences have valid data.
func (p *UserPreferences) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyPrefsUserID
	}

	if p.NumberOfMeals <= 0 {
		return ErrInvalidMealCount
	}

	if p.ServingsPerMeal <= 0 {
		return ErrInvalidServings
	}

	return nil
}

// HouseholdMember describes one additional person whose dietary constraints
// participate in the household merge. Nil numeric fields mean the member
// expresses no constraint for that value.
type HouseholdMember struct {
	Name                string   `json:"name,omitempty"`
	Email               string   `json:"email,omitempty"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	MinProteinPerMeal   *int     `json:"min_protein_per_meal"`
	MaxCaloriesPerMeal  *int     `json:"max_calories_per_meal"`
}

// SchedulePolicy is one user's recurring generation trigger: fire at
// Hour:Minute on DayOfWeek every week. Disabled policies register no trigger.
type SchedulePolicy struct {
	UserID    uuid.UUID `json:"user_id"`
	DayOfWeek int       `json:"day_of_week"`
	Hour      int       `json:"hour"`
	Minute    int       `json:"minute"`
	Enabled   bool      `json:"enabled"`
}

// Validate checks if the SchedulePolicy has valid data.
func (s *SchedulePolicy) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptyPrefsUserID
	}

	if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
		return ErrInvalidDayOfWeek
	}

	if s.Hour < 0 || s.Hour > 23 {
		return ErrInvalidHour
	}

	if s.Minute < 0 || s.Minute > 59 {
		return ErrInvalidMinute
	}

	return nil
}
