package ratings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
)

const (
	MinScore = 1
	MaxScore = 5

	maxCommentLen = 500
)

var (
	ErrInvalidScore = errors.New("score out of bounds")
	ErrSelfRating   = errors.New("cannot rate own profile")
	ErrNotViewed    = errors.New("profile was not shown to this rater")
)

// RateLimitedError carries the wait hint for a throttled rater.
type RateLimitedError struct {
	RetryAfterSec int64
}

func (e *RateLimitedError) Error() string {
	return "rating rate limit exceeded, retry after " + strconv.FormatInt(e.RetryAfterSec, 10) + "s"
}

func IsRateLimited(err error) (*RateLimitedError, bool) {
	var limited *RateLimitedError
	if errors.As(err, &limited) {
		return limited, true
	}
	return nil, false
}

type UserStore interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (model.User, error)
}

type ProfileStore interface {
	GetByID(ctx context.Context, profileID int64) (model.Profile, error)
}

type RatingStore interface {
	Create(ctx context.Context, raterID, profileID int64, score int, comment *string, now time.Time) (model.Rating, error)
}

type ViewStore interface {
	HasViewed(ctx context.Context, viewerID, profileID int64) (bool, error)
}

type RateLimiter interface {
	AllowRating(ctx context.Context, userID int64) (int64, bool, error)
}

// Service records blind ratings. One rating per (rater, profile) pair,
// append-only, and only for profiles the rater was actually shown.
type Service struct {
	users    UserStore
	profiles ProfileStore
	ratings  RatingStore
	views    ViewStore
	limiter  RateLimiter
	now      func() time.Time
}

type Dependencies struct {
	Users    UserStore
	Profiles ProfileStore
	Ratings  RatingStore
	Views    ViewStore
	Limiter  RateLimiter
}

func NewService(deps Dependencies) *Service {
	return &Service{
		users:    deps.Users,
		profiles: deps.Profiles,
		ratings:  deps.Ratings,
		views:    deps.Views,
		limiter:  deps.Limiter,
		now:      time.Now,
	}
}

func (s *Service) Submit(ctx context.Context, raterTelegramID, profileID int64, score int, comment string) (model.Rating, error) {
	if s.users == nil || s.profiles == nil || s.ratings == nil || s.views == nil {
		return model.Rating{}, fmt.Errorf("rating service stores are nil")
	}
	if raterTelegramID <= 0 || profileID <= 0 {
		return model.Rating{}, fmt.Errorf("invalid rating payload")
	}
	if score < MinScore || score > MaxScore {
		return model.Rating{}, ErrInvalidScore
	}

	comment = strings.TrimSpace(comment)
	if len([]rune(comment)) > maxCommentLen {
		comment = string([]rune(comment)[:maxCommentLen])
	}

	rater, err := s.users.FindByTelegramID(ctx, raterTelegramID)
	if err != nil {
		return model.Rating{}, err
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return model.Rating{}, err
	}
	if profile.OwnerID == rater.ID {
		return model.Rating{}, ErrSelfRating
	}

	viewed, err := s.views.HasViewed(ctx, rater.ID, profileID)
	if err != nil {
		return model.Rating{}, err
	}
	if !viewed {
		return model.Rating{}, ErrNotViewed
	}

	if s.limiter != nil {
		retryAfter, allowed, err := s.limiter.AllowRating(ctx, rater.ID)
		if err != nil {
			return model.Rating{}, err
		}
		if !allowed {
			return model.Rating{}, &RateLimitedError{RetryAfterSec: retryAfter}
		}
	}

	var commentPtr *string
	if comment != "" {
		commentPtr = &comment
	}

	return s.ratings.Create(ctx, rater.ID, profileID, score, commentPtr, s.now().UTC())
}
