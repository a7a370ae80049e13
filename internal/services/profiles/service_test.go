package profiles

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/enums"
	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
	pgrepo "github.com/probab1ly/project-tgbotcontest/internal/repo/postgres"
)

func TestSubmitStampsRetentionAndStartsUnapproved(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	users := &fakeUserStore{users: map[int64]model.User{}}
	profiles := &fakeProfileStore{}
	svc := newTestService(users, profiles, &fakeRatingStore{})
	svc.now = func() time.Time { return now }

	profile, err := svc.Submit(context.Background(), SubmitInput{
		TelegramID:  1001,
		Username:    "alice",
		Description: "singing contest entry",
		Category:    "Music",
		Media:       model.Media{Kind: enums.MediaKindVideo, FileID: "file-abc"},
	})
	if err != nil {
		t.Fatalf("submit profile: %v", err)
	}

	if profile.Approved {
		t.Fatalf("expected new profile to start unapproved")
	}
	if profile.Category != "music" {
		t.Fatalf("expected normalized category, got %q", profile.Category)
	}
	if got, want := profile.DeleteAt, now.Add(30*24*time.Hour); !got.Equal(want) {
		t.Fatalf("unexpected delete_at: got %v want %v", got, want)
	}
	if len(users.created) != 1 || users.created[0] != 1001 {
		t.Fatalf("expected idempotent user create for sender, got %v", users.created)
	}
}

func TestSubmitRejectsUnknownCategory(t *testing.T) {
	svc := newTestService(&fakeUserStore{users: map[int64]model.User{}}, &fakeProfileStore{}, &fakeRatingStore{})

	_, err := svc.Submit(context.Background(), SubmitInput{
		TelegramID:  1001,
		Description: "entry",
		Category:    "cooking",
		Media:       model.Media{Kind: enums.MediaKindPhoto, FileID: "file-abc"},
	})
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}

	_, err = svc.Submit(context.Background(), SubmitInput{
		TelegramID:  1001,
		Description: "entry",
		Category:    pgrepo.CategoryAll,
		Media:       model.Media{Kind: enums.MediaKindPhoto, FileID: "file-abc"},
	})
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory for the browse-all sentinel, got %v", err)
	}
}

func TestSubmitRequiresMedia(t *testing.T) {
	svc := newTestService(&fakeUserStore{users: map[int64]model.User{}}, &fakeProfileStore{}, &fakeRatingStore{})

	_, err := svc.Submit(context.Background(), SubmitInput{
		TelegramID:  1001,
		Description: "entry",
		Category:    "music",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing media, got %v", err)
	}

	_, err = svc.Submit(context.Background(), SubmitInput{
		TelegramID:  1001,
		Description: "entry",
		Category:    "music",
		Media:       model.Media{Kind: enums.MediaKindPhoto},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing file id, got %v", err)
	}
}

func TestSubmitSecondProfilePropagatesExists(t *testing.T) {
	users := &fakeUserStore{users: map[int64]model.User{}}
	profiles := &fakeProfileStore{createErr: pgrepo.ErrProfileExists}
	svc := newTestService(users, profiles, &fakeRatingStore{})

	_, err := svc.Submit(context.Background(), SubmitInput{
		TelegramID:  1001,
		Description: "entry",
		Category:    "music",
		Media:       model.Media{Kind: enums.MediaKindPhoto, FileID: "file-abc"},
	})
	if !errors.Is(err, pgrepo.ErrProfileExists) {
		t.Fatalf("expected ErrProfileExists, got %v", err)
	}
}

func TestEditResetsApprovalAndSocialSignal(t *testing.T) {
	users := &fakeUserStore{users: map[int64]model.User{
		1001: {ID: 7, TelegramID: 1001, Username: "alice"},
	}}
	profiles := &fakeProfileStore{byOwner: map[int64]model.Profile{
		7: {
			ID:          33,
			OwnerID:     7,
			Description: "old entry",
			Category:    "music",
			MediaKind:   enums.MediaKindPhoto,
			MediaFileID: "file-old",
			Approved:    true,
		},
	}}
	svc := newTestService(users, profiles, &fakeRatingStore{})

	updated, err := svc.Edit(context.Background(), EditInput{
		TelegramID:  1001,
		Description: "new entry",
		Media:       model.Media{Kind: enums.MediaKindVideo, FileID: "file-new"},
	})
	if err != nil {
		t.Fatalf("edit profile: %v", err)
	}

	if updated.Approved {
		t.Fatalf("edited profile must return to the moderation queue")
	}
	if updated.Description != "new entry" || updated.MediaFileID != "file-new" {
		t.Fatalf("unexpected edited content %+v", updated)
	}
	if updated.Category != "music" {
		t.Fatalf("omitted category must keep the prior value, got %q", updated.Category)
	}
	if len(profiles.signalResets) != 1 || profiles.signalResets[0] != 33 {
		t.Fatalf("expected ratings and exposures dropped for profile 33, got %v", profiles.signalResets)
	}
}

func TestDeleteRemovesOwnedProfile(t *testing.T) {
	users := &fakeUserStore{users: map[int64]model.User{
		1001: {ID: 7, TelegramID: 1001},
	}}
	profiles := &fakeProfileStore{byOwner: map[int64]model.Profile{
		7: {ID: 33, OwnerID: 7},
	}}
	svc := newTestService(users, profiles, &fakeRatingStore{})

	deleted, err := svc.Delete(context.Background(), 1001)
	if err != nil {
		t.Fatalf("delete profile: %v", err)
	}
	if !deleted {
		t.Fatalf("expected delete to report true")
	}
	if len(profiles.byOwner) != 0 {
		t.Fatalf("expected profile removed, store still holds %v", profiles.byOwner)
	}
}

func TestMyProfileReturnsAggregateAndDaysLeft(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	users := &fakeUserStore{users: map[int64]model.User{
		1001: {ID: 7, TelegramID: 1001, Username: "alice"},
	}}
	profiles := &fakeProfileStore{byOwner: map[int64]model.Profile{
		7: {
			ID:       33,
			OwnerID:  7,
			Approved: true,
			DeleteAt: now.Add(49 * time.Hour),
		},
	}}
	comment := "great voice"
	ratings := &fakeRatingStore{
		summaries: map[int64]model.RatingSummary{
			33: {ProfileID: 33, Count: 4, Average: 4.25},
		},
		ratings: map[int64][]model.Rating{
			33: {{ID: 1, ProfileID: 33, Score: 5, Comment: &comment}},
		},
	}

	svc := newTestService(users, profiles, ratings)
	svc.now = func() time.Time { return now }

	card, err := svc.MyProfile(context.Background(), 1001)
	if err != nil {
		t.Fatalf("my profile: %v", err)
	}

	if card.Profile.ID != 33 {
		t.Fatalf("unexpected profile id %d", card.Profile.ID)
	}
	if card.Summary.Count != 4 || card.Summary.Average != 4.25 {
		t.Fatalf("unexpected summary %+v", card.Summary)
	}
	if card.DaysLeft != 3 {
		t.Fatalf("expected partial day to round up to 3, got %d", card.DaysLeft)
	}
	if len(card.Ratings) != 1 || card.Ratings[0].Comment == nil || *card.Ratings[0].Comment != "great voice" {
		t.Fatalf("expected received ratings on the card, got %+v", card.Ratings)
	}
}

func TestMyProfileUnknownUser(t *testing.T) {
	svc := newTestService(&fakeUserStore{users: map[int64]model.User{}}, &fakeProfileStore{}, &fakeRatingStore{})

	_, err := svc.MyProfile(context.Background(), 9999)
	if !errors.Is(err, pgrepo.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestDeleteWithoutProfileIsNoop(t *testing.T) {
	users := &fakeUserStore{users: map[int64]model.User{
		1001: {ID: 7, TelegramID: 1001},
	}}
	svc := newTestService(users, &fakeProfileStore{byOwner: map[int64]model.Profile{}}, &fakeRatingStore{})

	deleted, err := svc.Delete(context.Background(), 1001)
	if err != nil {
		t.Fatalf("delete without profile: %v", err)
	}
	if deleted {
		t.Fatalf("expected no-op delete to report false")
	}
}

func newTestService(users UserStore, profiles ProfileStore, ratings RatingStore) *Service {
	svc := NewService(Dependencies{
		Users:    users,
		Profiles: profiles,
		Ratings:  ratings,
	}, Config{
		Retention:  30 * 24 * time.Hour,
		Categories: []string{"music", "dance", "sport", "art", "humor", "other"},
	})
	svc.withTx = func(ctx context.Context, _ *pgxpool.Pool, fn func(context.Context, pgx.Tx) error) error {
		return fn(ctx, nil)
	}
	return svc
}

type fakeUserStore struct {
	users   map[int64]model.User
	created []int64
	nextID  int64
}

func (f *fakeUserStore) FindByTelegramID(_ context.Context, telegramID int64) (model.User, error) {
	user, ok := f.users[telegramID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetOrCreateByTelegramID(_ context.Context, telegramID int64, username string) (model.User, error) {
	if user, ok := f.users[telegramID]; ok {
		return user, nil
	}
	f.nextID++
	user := model.User{ID: f.nextID, TelegramID: telegramID, Username: username}
	f.users[telegramID] = user
	f.created = append(f.created, telegramID)
	return user, nil
}

type fakeProfileStore struct {
	byOwner      map[int64]model.Profile
	createErr    error
	nextID       int64
	signalResets []int64
}

func (f *fakeProfileStore) Create(_ context.Context, p pgrepo.CreateProfileParams) (model.Profile, error) {
	if f.createErr != nil {
		return model.Profile{}, f.createErr
	}
	f.nextID++
	profile := model.Profile{
		ID:          f.nextID,
		OwnerID:     p.OwnerID,
		Description: p.Description,
		Category:    p.Category,
		MediaKind:   p.MediaKind,
		MediaFileID: p.MediaFileID,
		Approved:    false,
		CreatedAt:   p.CreatedAt,
		DeleteAt:    p.DeleteAt,
	}
	if f.byOwner == nil {
		f.byOwner = map[int64]model.Profile{}
	}
	f.byOwner[p.OwnerID] = profile
	return profile, nil
}

func (f *fakeProfileStore) GetByID(_ context.Context, profileID int64) (model.Profile, error) {
	for _, profile := range f.byOwner {
		if profile.ID == profileID {
			return profile, nil
		}
	}
	return model.Profile{}, pgrepo.ErrProfileNotFound
}

func (f *fakeProfileStore) GetByOwnerID(_ context.Context, ownerID int64) (model.Profile, error) {
	profile, ok := f.byOwner[ownerID]
	if !ok {
		return model.Profile{}, pgrepo.ErrProfileNotFound
	}
	return profile, nil
}

func (f *fakeProfileStore) UpdateContent(_ context.Context, _ pgx.Tx, profileID int64, description, category string, mediaKind enums.MediaKind, mediaFileID string) (model.Profile, error) {
	for ownerID, profile := range f.byOwner {
		if profile.ID == profileID {
			profile.Description = description
			profile.Category = category
			profile.MediaKind = mediaKind
			profile.MediaFileID = mediaFileID
			profile.Approved = false
			f.byOwner[ownerID] = profile
			return profile, nil
		}
	}
	return model.Profile{}, pgrepo.ErrProfileNotFound
}

func (f *fakeProfileStore) ResetSocialSignal(_ context.Context, _ pgx.Tx, profileID int64) error {
	f.signalResets = append(f.signalResets, profileID)
	return nil
}

func (f *fakeProfileStore) DeleteCascade(_ context.Context, _ pgx.Tx, profileID int64) (bool, error) {
	for ownerID, profile := range f.byOwner {
		if profile.ID == profileID {
			delete(f.byOwner, ownerID)
			return true, nil
		}
	}
	return false, nil
}

type fakeRatingStore struct {
	summaries map[int64]model.RatingSummary
	ratings   map[int64][]model.Rating
}

func (f *fakeRatingStore) SummaryByProfile(_ context.Context, profileID int64) (model.RatingSummary, error) {
	if summary, ok := f.summaries[profileID]; ok {
		return summary, nil
	}
	return model.RatingSummary{ProfileID: profileID}, nil
}

func (f *fakeRatingStore) ListByProfile(_ context.Context, profileID int64) ([]model.Rating, error) {
	return f.ratings[profileID], nil
}
