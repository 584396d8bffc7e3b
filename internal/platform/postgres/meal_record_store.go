package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mealsmith/mealsmith-api/internal/domain"
	"github.com/mealsmith/mealsmith-api/internal/platform/logger"
	"github.com/mealsmith/mealsmith-api/internal/store"
)

// MealRecordStore implements the store.MealRecordStore interface using
// PostgreSQL.
type MealRecordStore struct {
	db store.DBTX
}

// NewMealRecordStore creates a new MealRecordStore.
func NewMealRecordStore(db store.DBTX) *MealRecordStore {
	return &MealRecordStore{db: db}
}

// CreateMealRecords persists one history row per generated meal.
func (s *MealRecordStore) CreateMealRecords(ctx context.Context, records []*domain.MealRecord) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO meal_records (id, user_id, plan_id, meal_name, meal, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, record := range records {
		mealJSON, err := json.Marshal(record.Meal)
		if err != nil {
			return fmt.Errorf("failed to marshal meal: %w", err)
		}

		_, err = s.db.ExecContext(ctx, query,
			record.ID,
			record.UserID,
			record.PlanID,
			record.Meal.Name,
			mealJSON,
			record.CreatedAt,
		)
		if err != nil {
			log.Error("failed to create meal record",
				"record_id", record.ID,
				"user_id", record.UserID,
				"error", err)
			return fmt.Errorf("failed to create meal record: %w", MapError(err))
		}
	}

	return nil
}

// GetRecentMealNames returns up to limit most-recent distinct meal names
// for the user, newest first.
func (s *MealRecordStore) GetRecentMealNames(ctx context.Context, userID uuid.UUID, limit int) ([]string, error) {
	log := logger.FromContext(ctx)

	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT meal_name
		FROM meal_records
		WHERE user_id = $1
		GROUP BY meal_name
		ORDER BY MAX(created_at) DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		log.Error("failed to get recent meal names", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get recent meal names: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan meal name: %w", MapError(err))
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meal names: %w", MapError(err))
	}

	return names, nil
}
