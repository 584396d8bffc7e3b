package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/mealsmith/mealsmith-api/internal/domain"
)

// MealRecordStore defines the persistence contract for per-meal history,
// consumed by the prompt builder's variety hint.
type MealRecordStore interface {
	// CreateMealRecords persists one history row per generated meal.
	CreateMealRecords(ctx context.Context, records []*domain.MealRecord) error

	// GetRecentMealNames returns up to limit most-recent distinct meal
	// names for the user, newest first.
	GetRecentMealNames(ctx context.Context, userID uuid.UUID, limit int) ([]string, error)
}
