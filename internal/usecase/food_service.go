package usecase

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/calorio/recommender/internal/domain"
)

// Default recommendation parameters.
const (
	defaultFoodTopN       = 3
	defaultGatewayTimeout = 5 * time.Second
)

// FoodServiceConfig holds configuration for the food recommender.
type FoodServiceConfig struct {
	DefaultTopN    int
	GatewayTimeout time.Duration
	Vectorizer     VectorizerConfig
}

// FoodService recommends food items by scoring a user's taste profile
// against the food catalog. It is read-only: nothing it does mutates
// external state.
type FoodService struct {
	gateway        domain.DataGateway
	catalog        *catalogCache
	defaultTopN    int
	gatewayTimeout time.Duration
	vectorizer     VectorizerConfig
	logger         zerolog.Logger
}

// NewFoodService creates a food recommender backed by the given gateway.
func NewFoodService(gw domain.DataGateway, config FoodServiceConfig, logger zerolog.Logger) *FoodService {
	topN := config.DefaultTopN
	if topN <= 0 {
		topN = defaultFoodTopN
	}

	timeout := config.GatewayTimeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}

	vectorizer := config.Vectorizer
	if vectorizer.Analyzer == analyzerUnset {
		vectorizer = FoodNameVectorizerConfig()
	}

	return &FoodService{
		gateway:        gw,
		catalog:        &catalogCache{},
		defaultTopN:    topN,
		gatewayTimeout: timeout,
		vectorizer:     vectorizer,
		logger:         logger.With().Str("component", "food_recommender").Logger(),
	}
}

// InvalidateCatalog drops the cached catalog snapshot so the next request
// refetches and refits it. Call after foods are added to or removed from the
// catalog.
func (s *FoodService) InvalidateCatalog() {
	s.catalog.invalidate()
}

// Recommend produces up to topN food suggestions for the user that fit the
// remaining calorie budget on asOf and that the user has not already eaten.
// Every outcome, including failure, is a structured result; Recommend never
// returns an error.
func (s *FoodService) Recommend(ctx context.Context, userID int64, asOf time.Time, topN int) domain.FoodRecommendation {
	start := time.Now()
	rec := s.recommend(ctx, userID, asOf, topN)

	outcome := "ok"
	if !rec.Success {
		outcome = string(rec.Reason)
	}
	observeRequest(engineFood, outcome, start)
	return rec
}

func (s *FoodService) recommend(ctx context.Context, userID int64, asOf time.Time, topN int) domain.FoodRecommendation {
	if topN <= 0 {
		topN = s.defaultTopN
	}

	history, err := s.fetchHistory(ctx, userID)
	if err != nil {
		return s.gatewayFailure(err, nil, 0)
	}
	if len(history) == 0 {
		return domain.FoodRecommendation{Reason: domain.ReasonNoHistory, History: []string{}}
	}

	remaining, ok, err := s.fetchRemainingCalories(ctx, userID, asOf)
	if err != nil {
		return s.gatewayFailure(err, history, 0)
	}
	if !ok {
		return domain.FoodRecommendation{Reason: domain.ReasonNoCalorieData, History: history}
	}
	if remaining <= 0 {
		return domain.FoodRecommendation{
			Reason:            domain.ReasonInsufficientCalories,
			History:           history,
			RemainingCalories: remaining,
		}
	}

	snapshot, err := s.fetchSnapshot(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCorpus) {
			// Empty catalog: nothing can be recommended.
			return domain.FoodRecommendation{
				Reason:            domain.ReasonNoSuitableFood,
				History:           history,
				RemainingCalories: remaining,
			}
		}
		return s.gatewayFailure(err, history, remaining)
	}

	items := s.rankCandidates(snapshot, history, remaining, topN)
	if len(items) == 0 {
		return domain.FoodRecommendation{
			Reason:            domain.ReasonNoSuitableFood,
			History:           history,
			RemainingCalories: remaining,
		}
	}

	s.logger.Debug().
		Int64("user_id", userID).
		Int("history_size", len(history)).
		Float64("remaining_calories", remaining).
		Int("recommended", len(items)).
		Msg("food recommendation computed")

	return domain.FoodRecommendation{
		Success:           true,
		History:           history,
		RemainingCalories: remaining,
		Items:             items,
	}
}

// rankCandidates scores the user's taste profile against the catalog and
// walks the ranking, skipping foods already eaten or over budget.
func (s *FoodService) rankCandidates(snapshot *catalogSnapshot, history []string, remaining float64, topN int) []domain.FoodRecommendationItem {
	// Transform cannot fail on a fitted vectorizer; names outside the
	// catalog simply yield zero vectors.
	historyVectors, err := snapshot.vectorizer.Transform(history)
	if err != nil {
		s.logger.Error().Err(err).Msg("transforming user history")
		return nil
	}

	profile := MeanVector(historyVectors)
	scores := CosineScores(profile, snapshot.matrix)

	// Rank by similarity descending. Ties keep catalog order, which the
	// gateway guarantees is name ascending.
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return order[a] < order[b]
	})

	eaten := make(map[string]bool, len(history))
	for _, name := range history {
		eaten[name] = true
	}

	var items []domain.FoodRecommendationItem
	for _, idx := range order {
		food := snapshot.foods[idx]
		if eaten[food.Name] || food.Calories > remaining {
			continue
		}
		items = append(items, domain.FoodRecommendationItem{
			FoodID:   food.ID,
			Name:     food.Name,
			Calories: food.Calories,
			Score:    roundScore(scores[idx]),
		})
		if len(items) >= topN {
			break
		}
	}
	return items
}

func (s *FoodService) fetchHistory(ctx context.Context, userID int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	return s.gateway.UserFoodHistory(ctx, userID)
}

func (s *FoodService) fetchRemainingCalories(ctx context.Context, userID int64, asOf time.Time) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	return s.gateway.RemainingCalories(ctx, userID, asOf)
}

func (s *FoodService) fetchSnapshot(ctx context.Context) (*catalogSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	return s.catalog.get(ctx, s.gateway, s.vectorizer)
}

// gatewayFailure converts a data-source error into a structured failure.
// This is the one failure category logged as an operational fault; retrying
// is left to the caller.
func (s *FoodService) gatewayFailure(err error, history []string, remaining float64) domain.FoodRecommendation {
	reason := domain.ReasonGatewayError
	kind := "error"
	if errors.Is(err, context.DeadlineExceeded) {
		reason = domain.ReasonGatewayTimeout
		kind = "timeout"
	}
	gatewayFaults.WithLabelValues(engineFood, kind).Inc()
	s.logger.Error().Err(err).Str("reason", string(reason)).Msg("data gateway failure")

	if history == nil {
		history = []string{}
	}
	return domain.FoodRecommendation{
		Reason:            reason,
		History:           history,
		RemainingCalories: remaining,
	}
}

// roundScore rounds a similarity score to 4 decimal places for display.
func roundScore(score float64) float64 {
	return math.Round(score*10000) / 10000
}
