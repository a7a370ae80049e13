package winner

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
	redrepo "github.com/probab1ly/project-tgbotcontest/internal/repo/redis"
)

func TestWinnerDecisiveMarginBeatsCorroboration(t *testing.T) {
	store := &fakeSummaryStore{summaries: []model.RatingSummary{
		{ProfileID: 1, Count: 40, Average: 4.0},
		{ProfileID: 2, Count: 6, Average: 4.4},
	}}

	result := mustWinner(t, store)

	if !result.Found || result.Fallback {
		t.Fatalf("expected primary-pass winner, got %+v", result)
	}
	if result.ProfileID != 2 {
		t.Fatalf("expected decisive average to win, got profile %d", result.ProfileID)
	}
}

func TestWinnerNearTieBrokenByCount(t *testing.T) {
	store := &fakeSummaryStore{summaries: []model.RatingSummary{
		{ProfileID: 1, Count: 6, Average: 4.5},
		{ProfileID: 2, Count: 40, Average: 4.3},
	}}

	result := mustWinner(t, store)

	if result.ProfileID != 2 {
		t.Fatalf("expected corroboration to break the near-tie, got profile %d", result.ProfileID)
	}
}

func TestWinnerLowerAverageNeverLeads(t *testing.T) {
	store := &fakeSummaryStore{summaries: []model.RatingSummary{
		{ProfileID: 1, Count: 6, Average: 4.8},
		{ProfileID: 2, Count: 100, Average: 4.0},
	}}

	result := mustWinner(t, store)

	if result.ProfileID != 1 {
		t.Fatalf("expected the clearly better average to hold, got profile %d", result.ProfileID)
	}
}

func TestWinnerThinAggregatesIgnoredWhenPrimaryExists(t *testing.T) {
	store := &fakeSummaryStore{summaries: []model.RatingSummary{
		{ProfileID: 1, Count: 2, Average: 5.0},
		{ProfileID: 2, Count: 5, Average: 3.9},
	}}

	result := mustWinner(t, store)

	if result.ProfileID != 2 || result.Fallback {
		t.Fatalf("expected the corroborated profile over the thin perfect score, got %+v", result)
	}
}

func TestWinnerFallbackHighestAverage(t *testing.T) {
	store := &fakeSummaryStore{summaries: []model.RatingSummary{
		{ProfileID: 1, Count: 2, Average: 3.5},
		{ProfileID: 2, Count: 1, Average: 5.0},
		{ProfileID: 3, Count: 4, Average: 4.75},
	}}

	result := mustWinner(t, store)

	if !result.Found || !result.Fallback {
		t.Fatalf("expected fallback winner, got %+v", result)
	}
	if result.ProfileID != 2 {
		t.Fatalf("expected highest average in fallback, got profile %d", result.ProfileID)
	}
}

func TestWinnerFallbackExactTieBrokenByCount(t *testing.T) {
	store := &fakeSummaryStore{summaries: []model.RatingSummary{
		{ProfileID: 1, Count: 2, Average: 4.5},
		{ProfileID: 2, Count: 4, Average: 4.5},
	}}

	result := mustWinner(t, store)

	if result.ProfileID != 2 {
		t.Fatalf("expected count to break the exact tie, got profile %d", result.ProfileID)
	}
}

func TestWinnerColdStart(t *testing.T) {
	store := &fakeSummaryStore{}

	result := mustWinner(t, store)

	if result.Found {
		t.Fatalf("expected no winner without rated profiles, got %+v", result)
	}
}

func TestWinnerUsesCacheUntilTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	store := &fakeSummaryStore{summaries: []model.RatingSummary{
		{ProfileID: 1, Count: 6, Average: 4.5},
	}}
	svc := NewService(store, redrepo.NewWinnerCacheRepo(client), 5*time.Minute, nil)

	first, err := svc.Winner(context.Background())
	if err != nil {
		t.Fatalf("first winner call: %v", err)
	}
	if first.ProfileID != 1 {
		t.Fatalf("unexpected winner %+v", first)
	}

	// Aggregates change, but the cached decision is still served.
	store.summaries = []model.RatingSummary{
		{ProfileID: 2, Count: 50, Average: 5.0},
	}

	second, err := svc.Winner(context.Background())
	if err != nil {
		t.Fatalf("second winner call: %v", err)
	}
	if second.ProfileID != 1 {
		t.Fatalf("expected cached winner, got %+v", second)
	}
	if store.calls != 1 {
		t.Fatalf("expected a single aggregate scan, got %d", store.calls)
	}

	mr.FastForward(6 * time.Minute)

	third, err := svc.Winner(context.Background())
	if err != nil {
		t.Fatalf("third winner call: %v", err)
	}
	if third.ProfileID != 2 {
		t.Fatalf("expected recomputed winner after TTL, got %+v", third)
	}
}

func TestWinnerCachesEmptyDecision(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	store := &fakeSummaryStore{}
	svc := NewService(store, redrepo.NewWinnerCacheRepo(client), 5*time.Minute, nil)

	for i := 0; i < 3; i++ {
		result, err := svc.Winner(context.Background())
		if err != nil {
			t.Fatalf("winner call #%d: %v", i+1, err)
		}
		if result.Found {
			t.Fatalf("expected empty decision, got %+v", result)
		}
	}
	if store.calls != 1 {
		t.Fatalf("expected the empty decision to be cached, got %d scans", store.calls)
	}
}

func mustWinner(t *testing.T, store *fakeSummaryStore) Result {
	t.Helper()

	svc := NewService(store, nil, 0, nil)
	result, err := svc.Winner(context.Background())
	if err != nil {
		t.Fatalf("winner: %v", err)
	}
	return result
}

type fakeSummaryStore struct {
	summaries []model.RatingSummary
	calls     int
}

func (f *fakeSummaryStore) ApprovedSummaries(context.Context) ([]model.RatingSummary, error) {
	f.calls++
	return f.summaries, nil
}
