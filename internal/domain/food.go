package domain

// FoodItem represents a single entry of the food catalog.
// Items are immutable once loaded into a catalog snapshot.
type FoodItem struct {
	ID       int64   `json:"foodId"`
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
}

// FoodRecommendationItem is one ranked food suggestion.
type FoodRecommendationItem struct {
	FoodID   int64   `json:"foodId"`
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Score    float64 `json:"similarityScore"` // rounded to 4 decimal places
}

// FoodRecommendation is the tagged outcome of a food recommendation request.
// Failure is a normal business outcome, not an error: History and
// RemainingCalories stay populated so callers can render them either way.
type FoodRecommendation struct {
	Success           bool                     `json:"success"`
	Reason            Reason                   `json:"reason,omitempty"`
	History           []string                 `json:"userHistory"`
	RemainingCalories float64                  `json:"remainingCalories"`
	Items             []FoodRecommendationItem `json:"recommendations"`
}
