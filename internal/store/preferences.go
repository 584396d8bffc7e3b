package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/mealsmith/mealsmith-api/internal/domain"
)

// PreferenceStore defines the read contract for user meal-planning
// preferences and schedule policies. The web application owns writes.
type PreferenceStore interface {
	// GetPreferences returns the user's standing preferences, household
	// members included. Returns ErrPreferencesNotFound when the user has
	// none configured.
	GetPreferences(ctx context.Context, userID uuid.UUID) (*domain.UserPreferences, error)

	// ListSchedulePolicies returns every user's schedule policy, enabled
	// or not, for scheduler resync.
	ListSchedulePolicies(ctx context.Context) ([]domain.SchedulePolicy, error)
}
