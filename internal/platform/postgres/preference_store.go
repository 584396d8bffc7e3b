package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mealsmith/mealsmith-api/internal/domain"
	"github.com/mealsmith/mealsmith-api/internal/platform/logger"
	"github.com/mealsmith/mealsmith-api/internal/store"
)

// PreferenceStore implements the store.PreferenceStore interface using
// PostgreSQL. Preferences are written by the web application; this side
// only reads them.
type PreferenceStore struct {
	db store.DBTX
}

// NewPreferenceStore creates a new PreferenceStore.
func NewPreferenceStore(db store.DBTX) *PreferenceStore {
	return &PreferenceStore{db: db}
}

// GetPreferences returns the user's standing preferences, household members
// included.
func (s *PreferenceStore) GetPreferences(ctx context.Context, userID uuid.UUID) (*domain.UserPreferences, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT user_id, email, number_of_meals, servings_per_meal,
		       min_protein_per_meal, max_calories_per_meal,
		       dietary_restrictions, price_lookup_enabled
		FROM user_preferences
		WHERE user_id = $1
	`

	var (
		prefs        domain.UserPreferences
		restrictions []byte
	)

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&prefs.UserID,
		&prefs.Email,
		&prefs.NumberOfMeals,
		&prefs.ServingsPerMeal,
		&prefs.MinProteinPerMeal,
		&prefs.MaxCaloriesPerMeal,
		&restrictions,
		&prefs.PriceLookupEnabled,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrPreferencesNotFound
		}
		log.Error("failed to get user preferences", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user preferences: %w", MapError(err))
	}

	if len(restrictions) > 0 {
		if err := json.Unmarshal(restrictions, &prefs.DietaryRestrictions); err != nil {
			return nil, fmt.Errorf("failed to parse dietary restrictions: %w", err)
		}
	}

	members, err := s.getHouseholdMembers(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs.HouseholdMembers = members

	return &prefs, nil
}

// ListSchedulePolicies returns every user's schedule policy for scheduler
// resync.
func (s *PreferenceStore) ListSchedulePolicies(ctx context.Context) ([]domain.SchedulePolicy, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT user_id, schedule_day_of_week, schedule_hour, schedule_minute, schedule_enabled
		FROM user_preferences
		ORDER BY user_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list schedule policies", "error", err)
		return nil, fmt.Errorf("failed to list schedule policies: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var policies []domain.SchedulePolicy
	for rows.Next() {
		var policy domain.SchedulePolicy
		if err := rows.Scan(
			&policy.UserID,
			&policy.DayOfWeek,
			&policy.Hour,
			&policy.Minute,
			&policy.Enabled,
		); err != nil {
			return nil, fmt.Errorf("failed to scan schedule policy: %w", MapError(err))
		}
		policies = append(policies, policy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule policies: %w", MapError(err))
	}

	return policies, nil
}

func (s *PreferenceStore) getHouseholdMembers(ctx context.Context, userID uuid.UUID) ([]domain.HouseholdMember, error) {
	query := `
		SELECT name, email, dietary_restrictions, min_protein_per_meal, max_calories_per_meal
		FROM household_members
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get household members: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var members []domain.HouseholdMember
	for rows.Next() {
		var (
			member       domain.HouseholdMember
			name         sql.NullString
			email        sql.NullString
			restrictions []byte
			minProtein   sql.NullInt64
			maxCalories  sql.NullInt64
		)

		if err := rows.Scan(&name, &email, &restrictions, &minProtein, &maxCalories); err != nil {
			return nil, fmt.Errorf("failed to scan household member: %w", MapError(err))
		}

		member.Name = name.String
		member.Email = email.String
		if len(restrictions) > 0 {
			if err := json.Unmarshal(restrictions, &member.DietaryRestrictions); err != nil {
				return nil, fmt.Errorf("failed to parse member dietary restrictions: %w", err)
			}
		}
		if minProtein.Valid {
			v := int(minProtein.Int64)
			member.MinProteinPerMeal = &v
		}
		if maxCalories.Valid {
			v := int(maxCalories.Int64)
			member.MaxCaloriesPerMeal = &v
		}

		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate household members: %w", MapError(err))
	}

	return members, nil
}
