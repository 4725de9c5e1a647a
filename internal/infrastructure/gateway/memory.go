package gateway

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/calorio/recommender/internal/domain"
)

const dateLayout = "2006-01-02"

// MemoryGateway is a thread-safe in-memory DataGateway. It backs tests and
// embedded deployments, and maintains the ordering guarantees of the
// gateway contract itself: foods name-ascending, food histories
// most-recent-first and deduplicated, activity histories frequency-ranked.
type MemoryGateway struct {
	mu            sync.RWMutex
	foods         []domain.FoodItem
	foodHistories map[int64][]string
	budgets       map[int64]map[string]float64
	activities    map[int64][]string
}

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		foodHistories: make(map[int64][]string),
		budgets:       make(map[int64]map[string]float64),
		activities:    make(map[int64][]string),
	}
}

// SetFoods replaces the food catalog. Items are stored sorted by name.
func (g *MemoryGateway) SetFoods(foods []domain.FoodItem) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.foods = make([]domain.FoodItem, len(foods))
	copy(g.foods, foods)
	sort.Slice(g.foods, func(a, b int) bool { return g.foods[a].Name < g.foods[b].Name })
}

// SetFoodHistory replaces a user's eaten-food history. Names are expected
// most-recent-first; duplicates are dropped keeping the first occurrence.
func (g *MemoryGateway) SetFoodHistory(userID int64, names []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	seen := make(map[string]bool, len(names))
	history := make([]string, 0, len(names))
	for _, name := range names {
		if !seen[name] {
			history = append(history, name)
			seen[name] = true
		}
	}
	g.foodHistories[userID] = history
}

// SetRemainingCalories records the remaining budget for (user, date).
func (g *MemoryGateway) SetRemainingCalories(userID int64, date time.Time, value float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.budgets[userID] == nil {
		g.budgets[userID] = make(map[string]float64)
	}
	g.budgets[userID][date.Format(dateLayout)] = value
}

// AddActivities appends activity occurrences to a user's record. Repeats of
// the same name count as repeat occurrences.
func (g *MemoryGateway) AddActivities(userID int64, names ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.activities[userID] = append(g.activities[userID], names...)
}

// ListFoods returns the catalog ordered by name ascending.
func (g *MemoryGateway) ListFoods(ctx context.Context) ([]domain.FoodItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	foods := make([]domain.FoodItem, len(g.foods))
	copy(foods, g.foods)
	return foods, nil
}

// UserFoodHistory returns the user's deduplicated history, most recent first.
func (g *MemoryGateway) UserFoodHistory(ctx context.Context, userID int64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	history := make([]string, len(g.foodHistories[userID]))
	copy(history, g.foodHistories[userID])
	return history, nil
}

// RemainingCalories returns the budget for (user, date); ok is false when no
// record exists.
func (g *MemoryGateway) RemainingCalories(ctx context.Context, userID int64, date time.Time) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	value, ok := g.budgets[userID][date.Format(dateLayout)]
	return value, ok, nil
}

// UserActivityHistory returns the user's distinct activity names ranked by
// frequency descending. Frequency ties keep first-recorded order.
func (g *MemoryGateway) UserActivityHistory(ctx context.Context, userID int64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var names []string
	for _, name := range g.activities[userID] {
		if _, ok := counts[name]; !ok {
			firstSeen[name] = len(names)
			names = append(names, name)
		}
		counts[name]++
	}
	sort.Slice(names, func(a, b int) bool {
		if counts[names[a]] != counts[names[b]] {
			return counts[names[a]] > counts[names[b]]
		}
		return firstSeen[names[a]] < firstSeen[names[b]]
	})
	return names, nil
}

// AllUserActivityProfiles returns every user with at least one recorded
// activity mapped to their occurrence list.
func (g *MemoryGateway) AllUserActivityProfiles(ctx context.Context) (map[int64][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	profiles := make(map[int64][]string, len(g.activities))
	for userID, names := range g.activities {
		if len(names) == 0 {
			continue
		}
		record := make([]string, len(names))
		copy(record, names)
		profiles[userID] = record
	}
	return profiles, nil
}
