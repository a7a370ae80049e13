package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/enums"
	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists for owner")
)

const uniqueViolationCode = "23505"

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

type CreateProfileParams struct {
	OwnerID     int64
	Description string
	Category    string
	MediaKind   enums.MediaKind
	MediaFileID string
	CreatedAt   time.Time
	DeleteAt    time.Time
}

type ProfileWithOwner struct {
	Profile model.Profile
	Owner   model.User
}

// OwnerNotify is the payload handed to the messaging layer after a
// moderation decision.
type OwnerNotify struct {
	TelegramID int64
	Username   string
}

const profileColumns = `id, user_id, description, category, media_kind, media_file_id, approved, created_at, delete_at`

func (r *ProfileRepo) Create(ctx context.Context, p CreateProfileParams) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}
	if p.OwnerID <= 0 || strings.TrimSpace(p.Description) == "" {
		return model.Profile{}, fmt.Errorf("invalid profile payload")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	var profile model.Profile
	err := r.pool.QueryRow(ctx, `
INSERT INTO profiles (user_id, description, category, media_kind, media_file_id, approved, created_at, delete_at)
VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)
RETURNING `+profileColumns+`
`, p.OwnerID, p.Description, p.Category, string(p.MediaKind), p.MediaFileID, p.CreatedAt.UTC(), p.DeleteAt.UTC()).
		Scan(scanProfileDest(&profile)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return model.Profile{}, ErrProfileExists
		}
		return model.Profile{}, fmt.Errorf("create profile: %w", err)
	}

	return profile, nil
}

func (r *ProfileRepo) GetByID(ctx context.Context, profileID int64) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}
	if profileID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid profile id")
	}

	var profile model.Profile
	err := r.pool.QueryRow(ctx, `
SELECT `+profileColumns+`
FROM profiles
WHERE id = $1
`, profileID).Scan(scanProfileDest(&profile)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile by id: %w", err)
	}

	return profile, nil
}

func (r *ProfileRepo) GetByOwnerID(ctx context.Context, ownerID int64) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}
	if ownerID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid owner id")
	}

	var profile model.Profile
	err := r.pool.QueryRow(ctx, `
SELECT `+profileColumns+`
FROM profiles
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1
`, ownerID).Scan(scanProfileDest(&profile)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile by owner: %w", err)
	}

	return profile, nil
}

// UpdateContent replaces the submitted fields and drops the profile back
// to the unapproved state. Media is replaced wholesale, never merged.
func (r *ProfileRepo) UpdateContent(ctx context.Context, tx pgx.Tx, profileID int64, description, category string, mediaKind enums.MediaKind, mediaFileID string) (model.Profile, error) {
	if tx == nil {
		return model.Profile{}, fmt.Errorf("transaction is required")
	}
	if profileID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid profile id")
	}

	var profile model.Profile
	err := tx.QueryRow(ctx, `
UPDATE profiles
SET
	description = $2,
	category = $3,
	media_kind = $4,
	media_file_id = $5,
	approved = FALSE
WHERE id = $1
RETURNING `+profileColumns+`
`, profileID, description, category, string(mediaKind), mediaFileID).Scan(scanProfileDest(&profile)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("update profile content: %w", err)
	}

	return profile, nil
}

// ResetSocialSignal wipes every rating and exposure record for the
// profile. Called inside the edit transaction so a half-reset state is
// never observable.
func (r *ProfileRepo) ResetSocialSignal(ctx context.Context, tx pgx.Tx, profileID int64) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	if profileID <= 0 {
		return fmt.Errorf("invalid profile id")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM ratings WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("delete ratings for profile: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM profile_views WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("delete views for profile: %w", err)
	}

	return nil
}

// DeleteCascade removes the profile together with its ratings, its
// exposure records, and the owner's own viewing history. Returns false
// when the profile does not exist.
func (r *ProfileRepo) DeleteCascade(ctx context.Context, tx pgx.Tx, profileID int64) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}
	if profileID <= 0 {
		return false, fmt.Errorf("invalid profile id")
	}

	var ownerID int64
	err := tx.QueryRow(ctx, `
SELECT user_id
FROM profiles
WHERE id = $1
FOR UPDATE
`, profileID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lock profile for delete: %w", err)
	}

	if err := cascadeDelete(ctx, tx, profileID, ownerID); err != nil {
		return false, err
	}

	return true, nil
}

// DeleteUnapprovedCascade is the moderation reject path: it only removes
// the profile while it is still unapproved.
func (r *ProfileRepo) DeleteUnapprovedCascade(ctx context.Context, tx pgx.Tx, profileID int64) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}
	if profileID <= 0 {
		return false, fmt.Errorf("invalid profile id")
	}

	var (
		ownerID  int64
		approved bool
	)
	err := tx.QueryRow(ctx, `
SELECT user_id, approved
FROM profiles
WHERE id = $1
FOR UPDATE
`, profileID).Scan(&ownerID, &approved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lock profile for reject: %w", err)
	}
	if approved {
		return false, nil
	}

	if err := cascadeDelete(ctx, tx, profileID, ownerID); err != nil {
		return false, err
	}

	return true, nil
}

func cascadeDelete(ctx context.Context, tx pgx.Tx, profileID, ownerID int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM ratings WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("delete ratings for profile: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM profile_views WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("delete views for profile: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM profile_views WHERE viewer_id = $1`, ownerID); err != nil {
		return fmt.Errorf("delete views by owner: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, profileID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// SetApproved flips the approval gate and returns the owner contact for
// the notification fan-out. Re-approving an approved profile is a no-op
// that still returns the owner.
func (r *ProfileRepo) SetApproved(ctx context.Context, profileID int64) (OwnerNotify, error) {
	if r.pool == nil {
		return OwnerNotify{}, fmt.Errorf("postgres pool is nil")
	}
	if profileID <= 0 {
		return OwnerNotify{}, fmt.Errorf("invalid profile id")
	}

	var notify OwnerNotify
	err := r.pool.QueryRow(ctx, `
UPDATE profiles p
SET approved = TRUE
FROM users u
WHERE p.id = $1 AND u.id = p.user_id
RETURNING u.telegram_id, u.username
`, profileID).Scan(&notify.TelegramID, &notify.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OwnerNotify{}, ErrProfileNotFound
		}
		return OwnerNotify{}, fmt.Errorf("approve profile: %w", err)
	}

	return notify, nil
}

func (r *ProfileRepo) ListPending(ctx context.Context) ([]ProfileWithOwner, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT p.id, p.user_id, p.description, p.category, p.media_kind, p.media_file_id, p.approved, p.created_at, p.delete_at,
	u.id, u.telegram_id, u.username, u.created_at
FROM profiles p
JOIN users u ON u.id = p.user_id
WHERE p.approved = FALSE
ORDER BY p.created_at ASC, p.id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list pending profiles: %w", err)
	}
	defer rows.Close()

	return scanProfilesWithOwner(rows)
}

// ListExpiredForUpdate locks the expired rows inside the sweep
// transaction so two overlapping sweeps never double-delete.
func (r *ProfileRepo) ListExpiredForUpdate(ctx context.Context, tx pgx.Tx, now time.Time) ([]ProfileWithOwner, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	rows, err := tx.Query(ctx, `
SELECT p.id, p.user_id, p.description, p.category, p.media_kind, p.media_file_id, p.approved, p.created_at, p.delete_at,
	u.id, u.telegram_id, u.username, u.created_at
FROM profiles p
JOIN users u ON u.id = p.user_id
WHERE p.delete_at <= $1
ORDER BY p.delete_at ASC, p.id ASC
FOR UPDATE OF p
`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("list expired profiles: %w", err)
	}
	defer rows.Close()

	return scanProfilesWithOwner(rows)
}

// SweepExpired deletes every profile past its delete_at in one
// transaction and returns what was removed, with owner contacts for the
// notification fan-out.
func (r *ProfileRepo) SweepExpired(ctx context.Context, now time.Time) ([]ProfileWithOwner, error) {
	var removed []ProfileWithOwner
	err := WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		expired, err := r.ListExpiredForUpdate(txCtx, tx, now)
		if err != nil {
			return err
		}
		for _, item := range expired {
			if err := cascadeDelete(txCtx, tx, item.Profile.ID, item.Profile.OwnerID); err != nil {
				return err
			}
		}
		removed = expired
		return nil
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

func scanProfilesWithOwner(rows pgx.Rows) ([]ProfileWithOwner, error) {
	items := make([]ProfileWithOwner, 0)
	for rows.Next() {
		var (
			item      ProfileWithOwner
			mediaKind string
		)
		if err := rows.Scan(
			&item.Profile.ID,
			&item.Profile.OwnerID,
			&item.Profile.Description,
			&item.Profile.Category,
			&mediaKind,
			&item.Profile.MediaFileID,
			&item.Profile.Approved,
			&item.Profile.CreatedAt,
			&item.Profile.DeleteAt,
			&item.Owner.ID,
			&item.Owner.TelegramID,
			&item.Owner.Username,
			&item.Owner.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan profile with owner: %w", err)
		}
		item.Profile.MediaKind = enums.MediaKind(mediaKind)
		items = append(items, item)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate profiles: %w", rows.Err())
	}

	return items, nil
}

func scanProfileDest(p *model.Profile) []any {
	return []any{
		&p.ID,
		&p.OwnerID,
		&p.Description,
		&p.Category,
		(*string)(&p.MediaKind),
		&p.MediaFileID,
		&p.Approved,
		&p.CreatedAt,
		&p.DeleteAt,
	}
}
