package usecase

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/calorio/recommender/internal/domain"
)

func newSportService(gw domain.DataGateway, config SportServiceConfig) *SportService {
	return NewSportService(gw, config, zerolog.Nop())
}

func TestSportRecommend(t *testing.T) {
	ctx := context.Background()

	t.Run("returns NoHistory for user without activities", func(t *testing.T) {
		svc := newSportService(&stubGateway{}, SportServiceConfig{})
		rec := svc.Recommend(ctx, 1, 3, 5)
		if rec.Success {
			t.Fatal("Success = true, want false")
		}
		if rec.Reason != domain.ReasonNoHistory {
			t.Errorf("Reason = %v, want %v", rec.Reason, domain.ReasonNoHistory)
		}
	})

	t.Run("returns NoTargetProfile for empty neighbor pool", func(t *testing.T) {
		gw := &stubGateway{activityHistory: []string{"running"}}
		svc := newSportService(gw, SportServiceConfig{})
		rec := svc.Recommend(ctx, 1, 3, 5)
		if rec.Reason != domain.ReasonNoTargetProfile {
			t.Errorf("Reason = %v, want %v", rec.Reason, domain.ReasonNoTargetProfile)
		}
	})

	t.Run("returns NoTargetProfile when target is absent from the pool", func(t *testing.T) {
		gw := &stubGateway{
			activityHistory: []string{"running"},
			profiles:        map[int64][]string{2: {"cycling"}},
		}
		svc := newSportService(gw, SportServiceConfig{})
		rec := svc.Recommend(ctx, 1, 3, 5)
		if rec.Reason != domain.ReasonNoTargetProfile {
			t.Errorf("Reason = %v, want %v", rec.Reason, domain.ReasonNoTargetProfile)
		}
	})

	t.Run("returns NoNewActivities when the target is the whole pool", func(t *testing.T) {
		gw := &stubGateway{
			activityHistory: []string{"running"},
			profiles:        map[int64][]string{1: {"running"}},
		}
		svc := newSportService(gw, SportServiceConfig{})
		rec := svc.Recommend(ctx, 1, 3, 5)
		if rec.Reason != domain.ReasonNoNewActivities {
			t.Errorf("Reason = %v, want %v", rec.Reason, domain.ReasonNoNewActivities)
		}
	})

	t.Run("returns NoNewActivities when neighbors add nothing new", func(t *testing.T) {
		gw := &stubGateway{
			activityHistory: []string{"running", "yoga"},
			profiles: map[int64][]string{
				1: {"running", "yoga"},
				2: {"running"},
				3: {"yoga"},
			},
		}
		svc := newSportService(gw, SportServiceConfig{})
		rec := svc.Recommend(ctx, 1, 3, 5)
		if rec.Reason != domain.ReasonNoNewActivities {
			t.Errorf("Reason = %v, want %v", rec.Reason, domain.ReasonNoNewActivities)
		}
	})

	t.Run("aggregates unseen activities from the nearest neighbors", func(t *testing.T) {
		// Target shares "running" with user 2, nothing with user 3, so user
		// 2 ranks closer and its candidate is encountered first. Both
		// candidates have count 1; first-encountered order breaks the tie.
		gw := &stubGateway{
			activityHistory: []string{"running", "yoga"},
			profiles: map[int64][]string{
				1: {"running", "yoga"},
				2: {"running", "cycling"},
				3: {"swimming"},
			},
		}
		svc := newSportService(gw, SportServiceConfig{})
		rec := svc.Recommend(ctx, 1, 3, 2)
		if !rec.Success {
			t.Fatalf("Success = false (reason %v), want true", rec.Reason)
		}
		want := []string{"cycling", "swimming"}
		if !reflect.DeepEqual(rec.Activities, want) {
			t.Errorf("Activities = %v, want %v", rec.Activities, want)
		}
		if rec.GeneratedAt.IsZero() {
			t.Error("GeneratedAt is zero, want a generation timestamp")
		}
	})

	t.Run("ranks candidates by aggregated frequency", func(t *testing.T) {
		gw := &stubGateway{
			activityHistory: []string{"running"},
			profiles: map[int64][]string{
				1: {"running"},
				2: {"running", "swimming"},
				3: {"running", "cycling", "swimming"},
				4: {"running", "cycling", "swimming"},
			},
		}
		svc := newSportService(gw, SportServiceConfig{})
		rec := svc.Recommend(ctx, 1, 3, 3)
		if !rec.Success {
			t.Fatalf("Success = false (reason %v), want true", rec.Reason)
		}
		// swimming appears in three neighbor profiles, cycling in two.
		want := []string{"swimming", "cycling"}
		if !reflect.DeepEqual(rec.Activities, want) {
			t.Errorf("Activities = %v, want %v", rec.Activities, want)
		}
	})

	t.Run("never recommends an activity the target already does", func(t *testing.T) {
		gw := &stubGateway{
			activityHistory: []string{"running", "yoga"},
			profiles: map[int64][]string{
				1: {"running", "yoga"},
				2: {"running", "yoga", "cycling"},
				3: {"yoga", "swimming"},
			},
		}
		svc := newSportService(gw, SportServiceConfig{})
		rec := svc.Recommend(ctx, 1, 5, 5)
		if !rec.Success {
			t.Fatalf("Success = false (reason %v), want true", rec.Reason)
		}
		for _, activity := range rec.Activities {
			if activity == "running" || activity == "yoga" {
				t.Errorf("recommended %q, which the target already does", activity)
			}
		}
	})

	t.Run("clamps kNeighbors to the pool size", func(t *testing.T) {
		gw := &stubGateway{
			activityHistory: []string{"running"},
			profiles: map[int64][]string{
				1: {"running"},
				2: {"cycling"},
			},
		}
		svc := newSportService(gw, SportServiceConfig{})
		rec := svc.Recommend(ctx, 1, 3, 100)
		if !rec.Success {
			t.Fatalf("Success = false (reason %v), want true", rec.Reason)
		}
		if !reflect.DeepEqual(rec.Activities, []string{"cycling"}) {
			t.Errorf("Activities = %v, want [cycling]", rec.Activities)
		}
	})

	t.Run("limits results to topN", func(t *testing.T) {
		gw := &stubGateway{
			activityHistory: []string{"running"},
			profiles: map[int64][]string{
				1: {"running"},
				2: {"cycling", "swimming", "yoga", "boxing"},
			},
		}
		svc := newSportService(gw, SportServiceConfig{})
		rec := svc.Recommend(ctx, 1, 2, 5)
		if len(rec.Activities) != 2 {
			t.Errorf("len(Activities) = %d, want 2", len(rec.Activities))
		}
	})

	t.Run("repeated calls produce identical rankings", func(t *testing.T) {
		gw := &stubGateway{
			activityHistory: []string{"วิ่ง"},
			profiles: map[int64][]string{
				1: {"วิ่ง"},
				2: {"วิ่ง", "ว่ายน้ำ"},
				3: {"โยคะ", "ว่ายน้ำ"},
				4: {"แบดมินตัน"},
			},
		}
		svc := newSportService(gw, SportServiceConfig{})
		first := svc.Recommend(ctx, 1, 3, 3)
		second := svc.Recommend(ctx, 1, 3, 3)
		if !reflect.DeepEqual(first.Activities, second.Activities) {
			t.Errorf("rankings differ between calls: %v vs %v", first.Activities, second.Activities)
		}
	})

	t.Run("maps gateway errors to GatewayError", func(t *testing.T) {
		gw := &stubGateway{activityHistoryErr: domain.ErrGatewayUnavailable}
		svc := newSportService(gw, SportServiceConfig{})
		rec := svc.Recommend(ctx, 1, 3, 5)
		if rec.Reason != domain.ReasonGatewayError {
			t.Errorf("Reason = %v, want %v", rec.Reason, domain.ReasonGatewayError)
		}
	})

	t.Run("maps profile fetch failures to GatewayError", func(t *testing.T) {
		gw := &stubGateway{
			activityHistory: []string{"running"},
			profilesErr:     domain.ErrGatewayUnavailable,
		}
		svc := newSportService(gw, SportServiceConfig{})
		rec := svc.Recommend(ctx, 1, 3, 5)
		if rec.Reason != domain.ReasonGatewayError {
			t.Errorf("Reason = %v, want %v", rec.Reason, domain.ReasonGatewayError)
		}
	})

	t.Run("uses configured defaults when parameters are zero", func(t *testing.T) {
		gw := &stubGateway{
			activityHistory: []string{"running"},
			profiles: map[int64][]string{
				1: {"running"},
				2: {"cycling", "swimming", "yoga", "boxing"},
			},
		}
		svc := newSportService(gw, SportServiceConfig{DefaultTopN: 1, DefaultKNeighbors: 1})
		rec := svc.Recommend(ctx, 1, 0, 0)
		if len(rec.Activities) != 1 {
			t.Errorf("len(Activities) = %d, want the configured default of 1", len(rec.Activities))
		}
	})
}

func TestAggregateNewActivities(t *testing.T) {
	profiles := map[int64][]string{
		2: {"cycling", "swimming"},
		3: {"swimming", "boxing"},
	}

	t.Run("counts across neighbors and ranks by frequency", func(t *testing.T) {
		got := aggregateNewActivities(profiles, []int64{2, 3}, []string{"running"}, 10)
		want := []string{"swimming", "cycling", "boxing"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("aggregateNewActivities = %v, want %v", got, want)
		}
	})

	t.Run("tie-break keeps first-encountered order", func(t *testing.T) {
		got := aggregateNewActivities(profiles, []int64{3, 2}, []string{"swimming"}, 10)
		// Neighbor 3 is scanned first, so boxing precedes cycling.
		want := []string{"boxing", "cycling"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("aggregateNewActivities = %v, want %v", got, want)
		}
	})

	t.Run("filters everything in the target history", func(t *testing.T) {
		got := aggregateNewActivities(profiles, []int64{2, 3}, []string{"cycling", "swimming", "boxing"}, 10)
		if got != nil {
			t.Errorf("aggregateNewActivities = %v, want nil", got)
		}
	})
}

// The sport recommender rebuilds its corpus on every request, so a stale
// pool can never leak across calls.
func TestSportRecommendFreshPool(t *testing.T) {
	ctx := context.Background()
	gw := &stubGateway{
		activityHistory: []string{"running"},
		profiles: map[int64][]string{
			1: {"running"},
			2: {"cycling"},
		},
	}
	svc := newSportService(gw, SportServiceConfig{})

	rec := svc.Recommend(ctx, 1, 3, 5)
	if !reflect.DeepEqual(rec.Activities, []string{"cycling"}) {
		t.Fatalf("Activities = %v, want [cycling]", rec.Activities)
	}

	gw.profiles[3] = []string{"cycling", "swimming"}
	rec = svc.Recommend(ctx, 1, 3, 5)
	want := []string{"cycling", "swimming"}
	if !reflect.DeepEqual(rec.Activities, want) {
		t.Errorf("Activities after pool change = %v, want %v", rec.Activities, want)
	}
}

// Guard against regressions in the failure paths: a Recommend call must
// return within the gateway timeout plus scoring time, never hang.
func TestSportRecommendTimeout(t *testing.T) {
	gw := &blockingActivityGateway{}
	svc := newSportService(gw, SportServiceConfig{GatewayTimeout: 20 * time.Millisecond})
	rec := svc.Recommend(context.Background(), 1, 3, 5)
	if rec.Reason != domain.ReasonGatewayTimeout {
		t.Errorf("Reason = %v, want %v", rec.Reason, domain.ReasonGatewayTimeout)
	}
}

// blockingActivityGateway blocks every call until its context expires.
type blockingActivityGateway struct{ stubGateway }

func (g *blockingActivityGateway) UserActivityHistory(ctx context.Context, userID int64) ([]string, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
