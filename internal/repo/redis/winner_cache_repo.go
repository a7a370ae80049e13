package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const winnerKey = "contest:winner"

var ErrWinnerCacheMiss = errors.New("winner cache miss")

// WinnerCacheRepo holds the last computed winner result so repeated
// /winner requests do not rescan the rating aggregates. TTL-bounded
// staleness is accepted.
type WinnerCacheRepo struct {
	client *goredis.Client
}

func NewWinnerCacheRepo(client *goredis.Client) *WinnerCacheRepo {
	return &WinnerCacheRepo{client: client}
}

type CachedWinner struct {
	ProfileID int64     `json:"profile_id"`
	Average   float64   `json:"average"`
	Count     int       `json:"count"`
	Fallback  bool      `json:"fallback"`
	Decided   time.Time `json:"decided_at"`
	Empty     bool      `json:"empty"`
}

func (r *WinnerCacheRepo) Get(ctx context.Context) (CachedWinner, error) {
	if r.client == nil {
		return CachedWinner{}, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, winnerKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return CachedWinner{}, ErrWinnerCacheMiss
		}
		return CachedWinner{}, fmt.Errorf("get cached winner: %w", err)
	}

	var cached CachedWinner
	if err := json.Unmarshal(raw, &cached); err != nil {
		return CachedWinner{}, fmt.Errorf("unmarshal cached winner: %w", err)
	}

	return cached, nil
}

func (r *WinnerCacheRepo) Set(ctx context.Context, winner CachedWinner, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(winner)
	if err != nil {
		return fmt.Errorf("marshal cached winner: %w", err)
	}

	if err := r.client.Set(ctx, winnerKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("set cached winner: %w", err)
	}

	return nil
}
