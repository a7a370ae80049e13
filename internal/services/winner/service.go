package winner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
	redrepo "github.com/probab1ly/project-tgbotcontest/internal/repo/redis"
)

const (
	// primaryMinRatings separates trusted aggregates from thin ones.
	primaryMinRatings = 5
	// decisiveMargin is the average gap that beats corroboration.
	decisiveMargin = 0.3
	// averageEpsilon is the float tolerance for exact-tie detection in
	// the fallback pass.
	averageEpsilon = 1e-9
)

type SummaryStore interface {
	ApprovedSummaries(ctx context.Context) ([]model.RatingSummary, error)
}

type Cache interface {
	Get(ctx context.Context) (redrepo.CachedWinner, error)
	Set(ctx context.Context, winner redrepo.CachedWinner, ttl time.Duration) error
}

type Result struct {
	ProfileID int64
	Average   float64
	Count     int
	Fallback  bool
	Decided   time.Time
	Found     bool
}

// Service picks the contest winner from approved profiles' rating
// aggregates. The decision is recomputed from scratch each time; the
// redis cache only bounds how often.
type Service struct {
	summaries SummaryStore
	cache     Cache
	cacheTTL  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(summaries SummaryStore, cache Cache, cacheTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		summaries: summaries,
		cache:     cache,
		cacheTTL:  cacheTTL,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *Service) Winner(ctx context.Context) (Result, error) {
	if s.summaries == nil {
		return Result{}, fmt.Errorf("summary store is nil")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		switch {
		case err == nil:
			return resultFromCached(cached), nil
		case !errors.Is(err, redrepo.ErrWinnerCacheMiss):
			s.logger.Warn("winner cache read failed", zap.Error(err))
		}
	}

	summaries, err := s.summaries.ApprovedSummaries(ctx)
	if err != nil {
		return Result{}, err
	}

	result := decide(summaries)
	result.Decided = s.now().UTC()

	if s.cache != nil {
		if err := s.cache.Set(ctx, cachedFromResult(result), s.cacheTTL); err != nil {
			s.logger.Warn("winner cache write failed", zap.Error(err))
		}
	}

	return result, nil
}

// decide runs the two-phase selection over aggregates sorted by
// ascending profile id.
//
// Primary pass considers only well-corroborated profiles (count >= 5).
// A challenger takes the lead either by beating the average decisively
// (more than the margin) or, inside the margin, by carrying strictly
// more ratings. A lower average never takes the lead.
//
// When nobody is well corroborated, the fallback pass takes the highest
// average among all rated profiles, breaking exact ties by count.
func decide(summaries []model.RatingSummary) Result {
	if best, ok := primaryPass(summaries); ok {
		return Result{
			ProfileID: best.ProfileID,
			Average:   best.Average,
			Count:     best.Count,
			Found:     true,
		}
	}

	if best, ok := fallbackPass(summaries); ok {
		return Result{
			ProfileID: best.ProfileID,
			Average:   best.Average,
			Count:     best.Count,
			Fallback:  true,
			Found:     true,
		}
	}

	return Result{}
}

func primaryPass(summaries []model.RatingSummary) (model.RatingSummary, bool) {
	var (
		best  model.RatingSummary
		found bool
	)
	for _, candidate := range summaries {
		if candidate.Count < primaryMinRatings {
			continue
		}
		if !found {
			best = candidate
			found = true
			continue
		}

		diff := candidate.Average - best.Average
		switch {
		case diff > decisiveMargin:
			best = candidate
		case math.Abs(diff) <= decisiveMargin && candidate.Count > best.Count:
			best = candidate
		}
	}

	return best, found
}

func fallbackPass(summaries []model.RatingSummary) (model.RatingSummary, bool) {
	var (
		best  model.RatingSummary
		found bool
	)
	for _, candidate := range summaries {
		if candidate.Count < 1 {
			continue
		}
		if !found {
			best = candidate
			found = true
			continue
		}

		diff := candidate.Average - best.Average
		switch {
		case diff > averageEpsilon:
			best = candidate
		case math.Abs(diff) <= averageEpsilon && candidate.Count > best.Count:
			best = candidate
		}
	}

	return best, found
}

func resultFromCached(cached redrepo.CachedWinner) Result {
	if cached.Empty {
		return Result{Decided: cached.Decided}
	}
	return Result{
		ProfileID: cached.ProfileID,
		Average:   cached.Average,
		Count:     cached.Count,
		Fallback:  cached.Fallback,
		Decided:   cached.Decided,
		Found:     true,
	}
}

func cachedFromResult(result Result) redrepo.CachedWinner {
	return redrepo.CachedWinner{
		ProfileID: result.ProfileID,
		Average:   result.Average,
		Count:     result.Count,
		Fallback:  result.Fallback,
		Decided:   result.Decided,
		Empty:     !result.Found,
	}
}
