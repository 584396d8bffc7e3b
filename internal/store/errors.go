package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// Entity-specific "not found" errors

	// ErrPlanNotFound indicates that the requested meal plan does not exist.
	ErrPlanNotFound = fmt.Errorf("%w: meal plan", ErrNotFound)

	// ErrPreferencesNotFound indicates the user has no preferences configured.
	ErrPreferencesNotFound = fmt.Errorf("%w: user preferences", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrPlanExists indicates a plan already exists for the (user, week) pair.
	ErrPlanExists = fmt.Errorf("%w: meal plan for week", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
