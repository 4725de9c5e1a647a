package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/calorio/recommender/internal/domain"
)

// Default sport recommendation parameters.
const (
	defaultSportTopN  = 3
	defaultKNeighbors = 5
)

// SportServiceConfig holds configuration for the sport recommender.
type SportServiceConfig struct {
	DefaultTopN       int
	DefaultKNeighbors int
	GatewayTimeout    time.Duration
	Vectorizer        VectorizerConfig
}

// SportService recommends activities a user has never done, aggregated from
// the users with the most similar activity profiles. The whole corpus is
// refit on every request: correctness over performance, so freshness never
// depends on cache invalidation. Rebuild cost grows with total history
// across all users.
type SportService struct {
	gateway           domain.DataGateway
	defaultTopN       int
	defaultKNeighbors int
	gatewayTimeout    time.Duration
	vectorizer        VectorizerConfig
	logger            zerolog.Logger
}

// NewSportService creates a sport recommender backed by the given gateway.
func NewSportService(gw domain.DataGateway, config SportServiceConfig, logger zerolog.Logger) *SportService {
	topN := config.DefaultTopN
	if topN <= 0 {
		topN = defaultSportTopN
	}

	k := config.DefaultKNeighbors
	if k <= 0 {
		k = defaultKNeighbors
	}

	timeout := config.GatewayTimeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}

	vectorizer := config.Vectorizer
	if vectorizer.Analyzer == analyzerUnset {
		vectorizer = ActivityNameVectorizerConfig()
	}

	return &SportService{
		gateway:           gw,
		defaultTopN:       topN,
		defaultKNeighbors: k,
		gatewayTimeout:    timeout,
		vectorizer:        vectorizer,
		logger:            logger.With().Str("component", "sport_recommender").Logger(),
	}
}

// Recommend produces up to topN activity names the user has never performed,
// ranked by how often the kNeighbors most similar users performed them.
// Every outcome is a structured result; Recommend never returns an error.
func (s *SportService) Recommend(ctx context.Context, userID int64, topN, kNeighbors int) domain.SportRecommendation {
	start := time.Now()
	rec := s.recommend(ctx, userID, topN, kNeighbors)

	outcome := "ok"
	if !rec.Success {
		outcome = string(rec.Reason)
	}
	observeRequest(engineSport, outcome, start)
	return rec
}

func (s *SportService) recommend(ctx context.Context, userID int64, topN, kNeighbors int) domain.SportRecommendation {
	if topN <= 0 {
		topN = s.defaultTopN
	}
	if kNeighbors <= 0 {
		kNeighbors = s.defaultKNeighbors
	}

	history, err := s.fetchHistory(ctx, userID)
	if err != nil {
		return s.gatewayFailure(err, userID)
	}
	if len(history) == 0 {
		return domain.SportRecommendation{Reason: domain.ReasonNoHistory, UserID: userID}
	}

	profiles, err := s.fetchProfiles(ctx)
	if err != nil {
		return s.gatewayFailure(err, userID)
	}
	if len(profiles) == 0 {
		return domain.SportRecommendation{Reason: domain.ReasonNoTargetProfile, UserID: userID}
	}
	if _, ok := profiles[userID]; !ok {
		return domain.SportRecommendation{Reason: domain.ReasonNoTargetProfile, UserID: userID}
	}

	neighbors := s.rankNeighbors(profiles, userID, kNeighbors)
	if len(neighbors) == 0 {
		return domain.SportRecommendation{Reason: domain.ReasonNoNewActivities, UserID: userID}
	}

	activities := aggregateNewActivities(profiles, neighbors, history, topN)
	if len(activities) == 0 {
		return domain.SportRecommendation{Reason: domain.ReasonNoNewActivities, UserID: userID}
	}

	s.logger.Debug().
		Int64("user_id", userID).
		Int("pool_size", len(profiles)).
		Int("neighbors", len(neighbors)).
		Int("recommended", len(activities)).
		Msg("sport recommendation computed")

	return domain.SportRecommendation{
		Success:     true,
		UserID:      userID,
		Activities:  activities,
		GeneratedAt: time.Now(),
	}
}

// rankNeighbors fits a fresh vectorizer over every user's activity document
// and returns the ids of the kNeighbors users most similar to the target,
// most similar first. The target itself is excluded; k is clamped to the
// pool size minus one.
func (s *SportService) rankNeighbors(profiles map[int64][]string, targetID int64, kNeighbors int) []int64 {
	// Deterministic corpus order: user id ascending. This order also breaks
	// similarity ties below.
	userIDs := make([]int64, 0, len(profiles))
	for id := range profiles {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(a, b int) bool { return userIDs[a] < userIDs[b] })

	// One document per user; duplicate activity names are kept so repeat
	// occurrences weigh into the term frequencies.
	docs := make([]string, len(userIDs))
	targetIdx := -1
	for i, id := range userIDs {
		docs[i] = strings.Join(profiles[id], " ")
		if id == targetID {
			targetIdx = i
		}
	}

	vectorizer := NewTextVectorizer(s.vectorizer)
	matrix, err := vectorizer.FitTransform(docs)
	if err != nil {
		// Only possible with an empty pool, which the caller already ruled
		// out.
		s.logger.Error().Err(err).Msg("fitting activity corpus")
		return nil
	}

	scores := CosineScores(matrix[targetIdx], matrix)

	candidates := make([]int, 0, len(userIDs)-1)
	for i := range userIDs {
		if i != targetIdx {
			candidates = append(candidates, i)
		}
	}
	sort.Slice(candidates, func(a, b int) bool {
		if scores[candidates[a]] != scores[candidates[b]] {
			return scores[candidates[a]] > scores[candidates[b]]
		}
		return userIDs[candidates[a]] < userIDs[candidates[b]]
	})

	if kNeighbors > len(candidates) {
		kNeighbors = len(candidates)
	}
	neighbors := make([]int64, kNeighbors)
	for i := 0; i < kNeighbors; i++ {
		neighbors[i] = userIDs[candidates[i]]
	}
	return neighbors
}

// aggregateNewActivities counts, per activity the target has never done, how
// many times the selected neighbors performed it, then ranks by count
// descending. Count ties keep the order activities were first encountered
// while scanning neighbors.
func aggregateNewActivities(profiles map[int64][]string, neighbors []int64, targetHistory []string, topN int) []string {
	done := make(map[string]bool, len(targetHistory))
	for _, name := range targetHistory {
		done[name] = true
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string
	for _, id := range neighbors {
		for _, activity := range profiles[id] {
			if done[activity] {
				continue
			}
			if _, ok := counts[activity]; !ok {
				firstSeen[activity] = len(order)
				order = append(order, activity)
			}
			counts[activity]++
		}
	}
	if len(order) == 0 {
		return nil
	}

	sort.Slice(order, func(a, b int) bool {
		if counts[order[a]] != counts[order[b]] {
			return counts[order[a]] > counts[order[b]]
		}
		return firstSeen[order[a]] < firstSeen[order[b]]
	})

	if topN < len(order) {
		order = order[:topN]
	}
	return order
}

func (s *SportService) fetchHistory(ctx context.Context, userID int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	return s.gateway.UserActivityHistory(ctx, userID)
}

func (s *SportService) fetchProfiles(ctx context.Context) (map[int64][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	return s.gateway.AllUserActivityProfiles(ctx)
}

func (s *SportService) gatewayFailure(err error, userID int64) domain.SportRecommendation {
	reason := domain.ReasonGatewayError
	kind := "error"
	if errors.Is(err, context.DeadlineExceeded) {
		reason = domain.ReasonGatewayTimeout
		kind = "timeout"
	}
	gatewayFaults.WithLabelValues(engineSport, kind).Inc()
	s.logger.Error().Err(err).Str("reason", string(reason)).Msg("data gateway failure")

	return domain.SportRecommendation{Reason: reason, UserID: userID}
}
