package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calorio/recommender/internal/domain"
)

func TestMemoryGatewayFoods(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()

	t.Run("empty catalog lists no foods", func(t *testing.T) {
		foods, err := gw.ListFoods(ctx)
		require.NoError(t, err)
		assert.Empty(t, foods)
	})

	t.Run("catalog is returned in name-ascending order", func(t *testing.T) {
		gw.SetFoods([]domain.FoodItem{
			{ID: 1, Name: "grilled chicken", Calories: 200},
			{ID: 3, Name: "green salad", Calories: 80},
			{ID: 2, Name: "fried rice", Calories: 450},
		})

		foods, err := gw.ListFoods(ctx)
		require.NoError(t, err)
		require.Len(t, foods, 3)
		assert.Equal(t, "fried rice", foods[0].Name)
		assert.Equal(t, "green salad", foods[1].Name)
		assert.Equal(t, "grilled chicken", foods[2].Name)
	})

	t.Run("returned catalog is a copy", func(t *testing.T) {
		foods, err := gw.ListFoods(ctx)
		require.NoError(t, err)
		foods[0].Name = "mutated"

		again, err := gw.ListFoods(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fried rice", again[0].Name)
	})
}

func TestMemoryGatewayFoodHistory(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()

	t.Run("unknown user has no history", func(t *testing.T) {
		history, err := gw.UserFoodHistory(ctx, 42)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("history is deduplicated keeping the most recent occurrence", func(t *testing.T) {
		gw.SetFoodHistory(7, []string{"tom yum", "fried rice", "tom yum", "green salad"})

		history, err := gw.UserFoodHistory(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, []string{"tom yum", "fried rice", "green salad"}, history)
	})
}

func TestMemoryGatewayRemainingCalories(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()
	date := time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)

	t.Run("absent budget reports ok=false", func(t *testing.T) {
		_, ok, err := gw.RemainingCalories(ctx, 7, date)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("budget is scoped to user and calendar date", func(t *testing.T) {
		gw.SetRemainingCalories(7, date, 850)

		value, ok, err := gw.RemainingCalories(ctx, 7, date.Add(3*time.Hour))
		require.NoError(t, err)
		assert.True(t, ok, "same calendar date should match regardless of time of day")
		assert.Equal(t, 850.0, value)

		_, ok, err = gw.RemainingCalories(ctx, 7, date.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.False(t, ok, "next day has no budget record")

		_, ok, err = gw.RemainingCalories(ctx, 8, date)
		require.NoError(t, err)
		assert.False(t, ok, "another user has no budget record")
	})
}

func TestMemoryGatewayActivities(t *testing.T) {
	ctx := context.Background()
	gw := NewMemoryGateway()

	t.Run("unknown user has no activity history", func(t *testing.T) {
		history, err := gw.UserActivityHistory(ctx, 42)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("history is ranked by frequency descending", func(t *testing.T) {
		gw.AddActivities(7, "yoga", "running", "running", "swimming", "running", "yoga")

		history, err := gw.UserActivityHistory(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, []string{"running", "yoga", "swimming"}, history)
	})

	t.Run("frequency ties keep first-recorded order", func(t *testing.T) {
		gw.AddActivities(8, "boxing", "cycling")

		history, err := gw.UserActivityHistory(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, []string{"boxing", "cycling"}, history)
	})

	t.Run("profiles include every user with activity, duplicates preserved", func(t *testing.T) {
		profiles, err := gw.AllUserActivityProfiles(ctx)
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, []string{"yoga", "running", "running", "swimming", "running", "yoga"}, profiles[7])
		assert.Equal(t, []string{"boxing", "cycling"}, profiles[8])
	})

	t.Run("returned profiles are copies", func(t *testing.T) {
		profiles, err := gw.AllUserActivityProfiles(ctx)
		require.NoError(t, err)
		profiles[8][0] = "mutated"

		again, err := gw.AllUserActivityProfiles(ctx)
		require.NoError(t, err)
		assert.Equal(t, "boxing", again[8][0])
	})
}

func TestMemoryGatewayContext(t *testing.T) {
	gw := NewMemoryGateway()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.ListFoods(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, _, err = gw.RemainingCalories(ctx, 1, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
