package domain

import (
	"context"
	"time"
)

// DataGateway defines the read-only data-access contract the recommendation
// engine consumes. Implementations live in infrastructure; the engine never
// mutates external state through this interface.
type DataGateway interface {
	// ListFoods returns the full food catalog ordered by name ascending.
	ListFoods(ctx context.Context) ([]FoodItem, error)

	// UserFoodHistory returns the distinct food names a user has eaten,
	// most recently eaten first.
	UserFoodHistory(ctx context.Context, userID int64) ([]string, error)

	// RemainingCalories returns the remaining calorie budget for the user on
	// the given date. ok is false when no budget record exists.
	RemainingCalories(ctx context.Context, userID int64, date time.Time) (value float64, ok bool, err error)

	// UserActivityHistory returns the distinct activity names a user has
	// performed, most frequent first.
	UserActivityHistory(ctx context.Context, userID int64) ([]string, error)

	// AllUserActivityProfiles returns the activity names performed by every
	// user with at least one recorded activity. Duplicates reflect repeat
	// occurrences.
	AllUserActivityProfiles(ctx context.Context) (map[int64][]string, error)
}
