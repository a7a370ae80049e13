package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	pgrepo "github.com/probab1ly/project-tgbotcontest/internal/repo/postgres"
)

var ErrNotModerator = errors.New("sender is not a moderator")

type ProfileStore interface {
	SetApproved(ctx context.Context, profileID int64) (pgrepo.OwnerNotify, error)
	DeleteUnapprovedCascade(ctx context.Context, tx pgx.Tx, profileID int64) (bool, error)
	ListPending(ctx context.Context) ([]pgrepo.ProfileWithOwner, error)
}

// Service gates profile visibility. Access control is a static
// privileged chat id from config, there is no moderator account system.
type Service struct {
	pool            *pgxpool.Pool
	profiles        ProfileStore
	moderatorChatID int64
	withTx          func(context.Context, *pgxpool.Pool, func(context.Context, pgx.Tx) error) error
}

func NewService(pool *pgxpool.Pool, profiles ProfileStore, moderatorChatID int64) *Service {
	return &Service{
		pool:            pool,
		profiles:        profiles,
		moderatorChatID: moderatorChatID,
		withTx:          pgrepo.WithTx,
	}
}

func (s *Service) IsModerator(chatID int64) bool {
	return s.moderatorChatID != 0 && chatID == s.moderatorChatID
}

// Approve opens the profile to discovery and returns the owner contact
// for notification. Re-approving is a no-op that still notifies.
func (s *Service) Approve(ctx context.Context, moderatorChatID, profileID int64) (pgrepo.OwnerNotify, error) {
	if s.profiles == nil {
		return pgrepo.OwnerNotify{}, fmt.Errorf("profile store is nil")
	}
	if !s.IsModerator(moderatorChatID) {
		return pgrepo.OwnerNotify{}, ErrNotModerator
	}
	if profileID <= 0 {
		return pgrepo.OwnerNotify{}, fmt.Errorf("invalid profile id")
	}

	return s.profiles.SetApproved(ctx, profileID)
}

// Reject removes a profile that is still awaiting review. An approved
// profile is left untouched and Reject reports false.
func (s *Service) Reject(ctx context.Context, moderatorChatID, profileID int64) (bool, error) {
	if s.profiles == nil {
		return false, fmt.Errorf("profile store is nil")
	}
	if !s.IsModerator(moderatorChatID) {
		return false, ErrNotModerator
	}
	if profileID <= 0 {
		return false, fmt.Errorf("invalid profile id")
	}

	rejected := false
	err := s.withTx(ctx, s.pool, func(txCtx context.Context, tx pgx.Tx) error {
		var txErr error
		rejected, txErr = s.profiles.DeleteUnapprovedCascade(txCtx, tx, profileID)
		return txErr
	})
	if err != nil {
		return false, err
	}

	return rejected, nil
}

// Pending lists the review queue in submission order.
func (s *Service) Pending(ctx context.Context, moderatorChatID int64) ([]pgrepo.ProfileWithOwner, error) {
	if s.profiles == nil {
		return nil, fmt.Errorf("profile store is nil")
	}
	if !s.IsModerator(moderatorChatID) {
		return nil, ErrNotModerator
	}

	return s.profiles.ListPending(ctx)
}

// QueueSize reports how many profiles await review.
func (s *Service) QueueSize(ctx context.Context) (int, error) {
	if s.profiles == nil {
		return 0, fmt.Errorf("profile store is nil")
	}

	pending, err := s.profiles.ListPending(ctx)
	if err != nil {
		return 0, err
	}

	return len(pending), nil
}
