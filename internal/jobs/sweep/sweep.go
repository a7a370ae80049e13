package sweep

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	pgrepo "github.com/probab1ly/project-tgbotcontest/internal/repo/postgres"
)

type ProfileSweeper interface {
	SweepExpired(ctx context.Context, now time.Time) ([]pgrepo.ProfileWithOwner, error)
}

// Job removes profiles whose retention window has passed. One run is
// one transaction; overlapping runs are serialized by row locks.
type Job struct {
	profiles ProfileSweeper
	now      func() time.Time
	logger   *zap.Logger
}

func New(profiles ProfileSweeper, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		profiles: profiles,
		now:      time.Now,
		logger:   logger,
	}
}

// Run deletes expired profiles and returns them so the caller can
// notify the owners.
func (j *Job) Run(ctx context.Context) ([]pgrepo.ProfileWithOwner, error) {
	if j.profiles == nil {
		return nil, fmt.Errorf("profile sweeper is nil")
	}

	removed, err := j.profiles.SweepExpired(ctx, j.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("sweep expired profiles: %w", err)
	}

	if len(removed) > 0 {
		j.logger.Info("expired profiles swept", zap.Int("removed", len(removed)))
	}

	return removed, nil
}
