package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/enums"
	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
)

// ErrNoEligibleProfiles marks the legitimate "nothing left to show"
// terminal state, not a storage fault.
var ErrNoEligibleProfiles = errors.New("no eligible profiles for viewer")

// CategoryAll disables category filtering in candidate queries.
const CategoryAll = "all"

type ViewRepo struct {
	pool *pgxpool.Pool
}

func NewViewRepo(pool *pgxpool.Pool) *ViewRepo {
	return &ViewRepo{pool: pool}
}

// MarkViewed upserts the exposure record for the pair: a repeat view
// bumps last_shown_at instead of inserting a duplicate row.
func (r *ViewRepo) MarkViewed(ctx context.Context, viewerID, profileID int64, at time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if viewerID <= 0 || profileID <= 0 {
		return fmt.Errorf("invalid view payload")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO profile_views (viewer_id, profile_id, last_shown_at)
VALUES ($1, $2, $3)
ON CONFLICT (viewer_id, profile_id) DO UPDATE SET
	last_shown_at = EXCLUDED.last_shown_at
`, viewerID, profileID, at.UTC()); err != nil {
		return fmt.Errorf("mark profile viewed: %w", err)
	}

	return nil
}

// PickRandom draws one profile uniformly at random from the eligible
// set: approved, not owned by the viewer, not yet shown to the viewer,
// optionally restricted to a category. viewerID 0 means an unresolved
// viewer with no history and nothing to self-exclude.
func (r *ViewRepo) PickRandom(ctx context.Context, viewerID int64, category string) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}
	if viewerID < 0 {
		return model.Profile{}, fmt.Errorf("invalid viewer id")
	}

	filter := strings.ToLower(strings.TrimSpace(category))
	applyCategory := filter != "" && filter != CategoryAll

	var (
		profile   model.Profile
		mediaKind string
	)
	err := r.pool.QueryRow(ctx, `
SELECT `+profileColumns+`
FROM profiles
WHERE
	approved = TRUE
	AND user_id <> $1
	AND ($2::boolean = FALSE OR category = $3)
	AND NOT EXISTS (
		SELECT 1
		FROM profile_views v
		WHERE v.viewer_id = $1
			AND v.profile_id = profiles.id
	)
ORDER BY RANDOM()
LIMIT 1
`, viewerID, applyCategory, filter).Scan(
		&profile.ID,
		&profile.OwnerID,
		&profile.Description,
		&profile.Category,
		&mediaKind,
		&profile.MediaFileID,
		&profile.Approved,
		&profile.CreatedAt,
		&profile.DeleteAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrNoEligibleProfiles
		}
		return model.Profile{}, fmt.Errorf("pick random profile: %w", err)
	}
	profile.MediaKind = enums.MediaKind(mediaKind)

	return profile, nil
}

// UnviewedCount reports the eligible-set cardinality for the viewer
// without any category filter.
func (r *ViewRepo) UnviewedCount(ctx context.Context, viewerID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if viewerID < 0 {
		return 0, fmt.Errorf("invalid viewer id")
	}

	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM profiles
WHERE
	approved = TRUE
	AND user_id <> $1
	AND NOT EXISTS (
		SELECT 1
		FROM profile_views v
		WHERE v.viewer_id = $1
			AND v.profile_id = profiles.id
	)
`, viewerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unviewed profiles: %w", err)
	}

	return count, nil
}

func (r *ViewRepo) HasViewed(ctx context.Context, viewerID, profileID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if viewerID <= 0 || profileID <= 0 {
		return false, fmt.Errorf("invalid view payload")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM profile_views
	WHERE viewer_id = $1 AND profile_id = $2
)
`, viewerID, profileID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check profile viewed: %w", err)
	}

	return exists, nil
}
