package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
	pgrepo "github.com/probab1ly/project-tgbotcontest/internal/repo/postgres"
)

type UserStore interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (model.User, error)
}

type ViewStore interface {
	PickRandom(ctx context.Context, viewerID int64, category string) (model.Profile, error)
	MarkViewed(ctx context.Context, viewerID, profileID int64, at time.Time) error
	UnviewedCount(ctx context.Context, viewerID int64) (int, error)
}

// Service serves the blind-rating feed: one random approved profile at
// a time, never the viewer's own, never one they have already seen.
type Service struct {
	users UserStore
	views ViewStore
	now   func() time.Time
}

func NewService(users UserStore, views ViewStore) *Service {
	return &Service{
		users: users,
		views: views,
		now:   time.Now,
	}
}

type Candidate struct {
	Profile model.Profile
	Found   bool
}

// Pick draws a candidate for the viewer. An exhausted pool is a normal
// outcome, not an error. The read has no side effects; the caller
// records the exposure with MarkViewed once the card is actually sent.
func (s *Service) Pick(ctx context.Context, viewerTelegramID int64, category string) (Candidate, error) {
	if s.users == nil || s.views == nil {
		return Candidate{}, fmt.Errorf("discovery stores are nil")
	}
	if viewerTelegramID <= 0 {
		return Candidate{}, fmt.Errorf("invalid viewer telegram_id")
	}

	viewerID, err := s.resolveViewer(ctx, viewerTelegramID)
	if err != nil {
		return Candidate{}, err
	}

	profile, err := s.views.PickRandom(ctx, viewerID, category)
	if err != nil {
		if errors.Is(err, pgrepo.ErrNoEligibleProfiles) {
			return Candidate{}, nil
		}
		return Candidate{}, err
	}

	return Candidate{Profile: profile, Found: true}, nil
}

// MarkViewed records that the profile was shown to the viewer. Repeat
// calls bump the exposure timestamp.
func (s *Service) MarkViewed(ctx context.Context, viewerTelegramID, profileID int64) error {
	if s.users == nil || s.views == nil {
		return fmt.Errorf("discovery stores are nil")
	}
	if viewerTelegramID <= 0 || profileID <= 0 {
		return fmt.Errorf("invalid view payload")
	}

	viewer, err := s.users.FindByTelegramID(ctx, viewerTelegramID)
	if err != nil {
		return err
	}

	return s.views.MarkViewed(ctx, viewer.ID, profileID, s.now().UTC())
}

// UnviewedCount reports how many approved profiles the viewer has not
// seen yet, across all categories.
func (s *Service) UnviewedCount(ctx context.Context, viewerTelegramID int64) (int, error) {
	if s.users == nil || s.views == nil {
		return 0, fmt.Errorf("discovery stores are nil")
	}
	if viewerTelegramID <= 0 {
		return 0, fmt.Errorf("invalid viewer telegram_id")
	}

	viewerID, err := s.resolveViewer(ctx, viewerTelegramID)
	if err != nil {
		return 0, err
	}

	return s.views.UnviewedCount(ctx, viewerID)
}

// resolveViewer maps the sender to an account row. A sender who never
// registered gets viewer id 0: no history to exclude and no own profile
// to hide, so reads still work.
func (s *Service) resolveViewer(ctx context.Context, viewerTelegramID int64) (int64, error) {
	viewer, err := s.users.FindByTelegramID(ctx, viewerTelegramID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return viewer.ID, nil
}
