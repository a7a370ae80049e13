package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) FindByTelegramID(ctx context.Context, telegramID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if telegramID <= 0 {
		return model.User{}, fmt.Errorf("invalid telegram_id")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
SELECT id, telegram_id, username, created_at
FROM users
WHERE telegram_id = $1
`, telegramID).Scan(&user.ID, &user.TelegramID, &user.Username, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by telegram_id: %w", err)
	}

	return user, nil
}

// GetOrCreateByTelegramID is idempotent: a concurrent double-submission
// resolves to the already-inserted row instead of a uniqueness failure.
func (r *UserRepo) GetOrCreateByTelegramID(ctx context.Context, telegramID int64, username string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if telegramID <= 0 {
		return model.User{}, fmt.Errorf("invalid telegram_id")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
INSERT INTO users (telegram_id, username, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (telegram_id) DO UPDATE SET
	username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username)
RETURNING id, telegram_id, username, created_at
`, telegramID, strings.TrimSpace(username)).Scan(&user.ID, &user.TelegramID, &user.Username, &user.CreatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("get or create user by telegram_id: %w", err)
	}

	return user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, userID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	var user model.User
	err := r.pool.QueryRow(ctx, `
SELECT id, telegram_id, username, created_at
FROM users
WHERE id = $1
`, userID).Scan(&user.ID, &user.TelegramID, &user.Username, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}

	return user, nil
}
