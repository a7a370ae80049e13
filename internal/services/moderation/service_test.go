package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
	pgrepo "github.com/probab1ly/project-tgbotcontest/internal/repo/postgres"
)

const moderatorChat = int64(-100500)

func TestApproveReturnsOwnerNotify(t *testing.T) {
	store := &fakeModerationStore{
		owners: map[int64]pgrepo.OwnerNotify{
			42: {TelegramID: 1001, Username: "alice"},
		},
	}
	svc := NewService(nil, store, moderatorChat)

	notify, err := svc.Approve(context.Background(), moderatorChat, 42)
	if err != nil {
		t.Fatalf("approve profile: %v", err)
	}
	if notify.TelegramID != 1001 || notify.Username != "alice" {
		t.Fatalf("unexpected owner notify %+v", notify)
	}
	if store.approved[42] != 1 {
		t.Fatalf("expected one approve call, got %d", store.approved[42])
	}

	// Re-approve stays a no-op that still resolves the owner.
	if _, err := svc.Approve(context.Background(), moderatorChat, 42); err != nil {
		t.Fatalf("re-approve profile: %v", err)
	}
}

func TestApproveUnknownProfile(t *testing.T) {
	svc := NewService(nil, &fakeModerationStore{}, moderatorChat)

	_, err := svc.Approve(context.Background(), moderatorChat, 42)
	if !errors.Is(err, pgrepo.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestModeratorGateRejectsOutsiders(t *testing.T) {
	svc := NewService(nil, &fakeModerationStore{}, moderatorChat)

	if _, err := svc.Approve(context.Background(), 555, 42); !errors.Is(err, ErrNotModerator) {
		t.Fatalf("expected ErrNotModerator on approve, got %v", err)
	}
	if _, err := svc.Reject(context.Background(), 555, 42); !errors.Is(err, ErrNotModerator) {
		t.Fatalf("expected ErrNotModerator on reject, got %v", err)
	}
	if _, err := svc.Pending(context.Background(), 555); !errors.Is(err, ErrNotModerator) {
		t.Fatalf("expected ErrNotModerator on pending, got %v", err)
	}
}

func TestModeratorGateDisabledChatID(t *testing.T) {
	svc := NewService(nil, &fakeModerationStore{}, 0)

	if svc.IsModerator(0) {
		t.Fatalf("zero chat id must never grant moderator access")
	}
}

func TestRejectOnlyRemovesUnapprovedProfile(t *testing.T) {
	store := &fakeModerationStore{
		owners: map[int64]pgrepo.OwnerNotify{
			42: {TelegramID: 1001, Username: "alice"},
		},
		pending: []pgrepo.ProfileWithOwner{
			{Profile: model.Profile{ID: 7}, Owner: model.User{ID: 3}},
		},
	}
	svc := newTestService(store)

	rejected, err := svc.Reject(context.Background(), moderatorChat, 7)
	if err != nil {
		t.Fatalf("reject pending profile: %v", err)
	}
	if !rejected {
		t.Fatalf("expected pending profile to be rejected")
	}
	if len(store.pending) != 0 {
		t.Fatalf("expected review queue emptied, got %v", store.pending)
	}

	// Profile 42 went through Approve and no longer sits in the queue.
	if _, err := svc.Approve(context.Background(), moderatorChat, 42); err != nil {
		t.Fatalf("approve profile: %v", err)
	}
	rejected, err = svc.Reject(context.Background(), moderatorChat, 42)
	if err != nil {
		t.Fatalf("reject approved profile: %v", err)
	}
	if rejected {
		t.Fatalf("approved profile must be left untouched by reject")
	}
}

func TestPendingAndQueueSize(t *testing.T) {
	store := &fakeModerationStore{
		pending: []pgrepo.ProfileWithOwner{
			{Profile: model.Profile{ID: 1}, Owner: model.User{ID: 7}},
			{Profile: model.Profile{ID: 2}, Owner: model.User{ID: 8}},
		},
	}
	svc := NewService(nil, store, moderatorChat)

	pending, err := svc.Pending(context.Background(), moderatorChat)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending profiles, got %d", len(pending))
	}

	size, err := svc.QueueSize(context.Background())
	if err != nil {
		t.Fatalf("queue size: %v", err)
	}
	if size != 2 {
		t.Fatalf("expected queue size 2, got %d", size)
	}
}

func newTestService(store ProfileStore) *Service {
	svc := NewService(nil, store, moderatorChat)
	svc.withTx = func(ctx context.Context, _ *pgxpool.Pool, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}
	return svc
}

type fakeModerationStore struct {
	owners   map[int64]pgrepo.OwnerNotify
	pending  []pgrepo.ProfileWithOwner
	approved map[int64]int
}

func (f *fakeModerationStore) SetApproved(_ context.Context, profileID int64) (pgrepo.OwnerNotify, error) {
	notify, ok := f.owners[profileID]
	if !ok {
		return pgrepo.OwnerNotify{}, pgrepo.ErrProfileNotFound
	}
	if f.approved == nil {
		f.approved = map[int64]int{}
	}
	f.approved[profileID]++
	return notify, nil
}

func (f *fakeModerationStore) DeleteUnapprovedCascade(_ context.Context, _ pgx.Tx, profileID int64) (bool, error) {
	for i, item := range f.pending {
		if item.Profile.ID == profileID {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeModerationStore) ListPending(context.Context) ([]pgrepo.ProfileWithOwner, error) {
	return f.pending, nil
}
