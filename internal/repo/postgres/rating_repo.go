package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
)

var ErrAlreadyRated = errors.New("rater already rated this profile")

type RatingRepo struct {
	pool *pgxpool.Pool
}

func NewRatingRepo(pool *pgxpool.Pool) *RatingRepo {
	return &RatingRepo{pool: pool}
}

// Create appends a rating. Ratings are never updated in place; a second
// submission for the same (rater, profile) pair is rejected.
func (r *RatingRepo) Create(ctx context.Context, raterID, profileID int64, score int, comment *string, now time.Time) (model.Rating, error) {
	if r.pool == nil {
		return model.Rating{}, fmt.Errorf("postgres pool is nil")
	}
	if raterID <= 0 || profileID <= 0 {
		return model.Rating{}, fmt.Errorf("invalid rating payload")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rating model.Rating
	err := r.pool.QueryRow(ctx, `
INSERT INTO ratings (rater_id, profile_id, score, comment, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, rater_id, profile_id, score, comment, created_at
`, raterID, profileID, score, comment, now.UTC()).Scan(
		&rating.ID,
		&rating.RaterID,
		&rating.ProfileID,
		&rating.Score,
		&rating.Comment,
		&rating.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return model.Rating{}, ErrAlreadyRated
		}
		return model.Rating{}, fmt.Errorf("create rating: %w", err)
	}

	return rating, nil
}

func (r *RatingRepo) SummaryByProfile(ctx context.Context, profileID int64) (model.RatingSummary, error) {
	if r.pool == nil {
		return model.RatingSummary{}, fmt.Errorf("postgres pool is nil")
	}
	if profileID <= 0 {
		return model.RatingSummary{}, fmt.Errorf("invalid profile id")
	}

	summary := model.RatingSummary{ProfileID: profileID}
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*), COALESCE(AVG(score), 0)
FROM ratings
WHERE profile_id = $1
`, profileID).Scan(&summary.Count, &summary.Average)
	if err != nil {
		return model.RatingSummary{}, fmt.Errorf("rating summary by profile: %w", err)
	}

	return summary, nil
}

// ApprovedSummaries returns the rating aggregate of every approved
// profile that has at least one rating, in ascending profile id order.
// The stable order pins down the winner engine's near-tie behavior.
func (r *RatingRepo) ApprovedSummaries(ctx context.Context) ([]model.RatingSummary, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT p.id, COUNT(r.id), AVG(r.score)
FROM profiles p
JOIN ratings r ON r.profile_id = p.id
WHERE p.approved = TRUE
GROUP BY p.id
ORDER BY p.id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list approved rating summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]model.RatingSummary, 0)
	for rows.Next() {
		var summary model.RatingSummary
		if err := rows.Scan(&summary.ProfileID, &summary.Count, &summary.Average); err != nil {
			return nil, fmt.Errorf("scan rating summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate rating summaries: %w", rows.Err())
	}

	return summaries, nil
}

// ListByProfile returns the received ratings in submission order; the
// owner's card shows their comments.
func (r *RatingRepo) ListByProfile(ctx context.Context, profileID int64) ([]model.Rating, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if profileID <= 0 {
		return nil, fmt.Errorf("invalid profile id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, rater_id, profile_id, score, comment, created_at
FROM ratings
WHERE profile_id = $1
ORDER BY created_at ASC, id ASC
`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list ratings by profile: %w", err)
	}
	defer rows.Close()

	ratings := make([]model.Rating, 0)
	for rows.Next() {
		var rating model.Rating
		if err := rows.Scan(
			&rating.ID,
			&rating.RaterID,
			&rating.ProfileID,
			&rating.Score,
			&rating.Comment,
			&rating.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate ratings: %w", rows.Err())
	}

	return ratings, nil
}
