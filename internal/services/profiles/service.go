package profiles

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
	pgrepo "github.com/probab1ly/project-tgbotcontest/internal/repo/postgres"
)

const maxDescriptionLen = 2000

var (
	ErrValidation      = errors.New("validation error")
	ErrInvalidCategory = errors.New("unknown category")
)

type UserStore interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (model.User, error)
	GetOrCreateByTelegramID(ctx context.Context, telegramID int64, username string) (model.User, error)
}

type ProfileStore interface {
	Create(ctx context.Context, p pgrepo.CreateProfileParams) (model.Profile, error)
	GetByID(ctx context.Context, profileID int64) (model.Profile, error)
	GetByOwnerID(ctx context.Context, ownerID int64) (model.Profile, error)
	UpdateContent(ctx context.Context, tx pgx.Tx, profileID int64, description, category string, mediaKind enums.MediaKind, mediaFileID string) (model.Profile, error)
	ResetSocialSignal(ctx context.Context, tx pgx.Tx, profileID int64) error
	DeleteCascade(ctx context.Context, tx pgx.Tx, profileID int64) (bool, error)
}

type RatingStore interface {
	SummaryByProfile(ctx context.Context, profileID int64) (model.RatingSummary, error)
	ListByProfile(ctx context.Context, profileID int64) ([]model.Rating, error)
}

type Config struct {
	Retention  time.Duration
	Categories []string
}

type Service struct {
	pool     *pgxpool.Pool
	users    UserStore
	profiles ProfileStore
	ratings  RatingStore
	cfg      Config
	now      func() time.Time
	withTx   func(context.Context, *pgxpool.Pool, func(context.Context, pgx.Tx) error) error
}

type Dependencies struct {
	Pool     *pgxpool.Pool
	Users    UserStore
	Profiles ProfileStore
	Ratings  RatingStore
}

func NewService(deps Dependencies, cfg Config) *Service {
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}

	return &Service{
		pool:     deps.Pool,
		users:    deps.Users,
		profiles: deps.Profiles,
		ratings:  deps.Ratings,
		cfg:      cfg,
		now:      time.Now,
		withTx:   pgrepo.WithTx,
	}
}

// Register resolves the sender to an account row, creating one on first
// contact.
func (s *Service) Register(ctx context.Context, telegramID int64, username string) (model.User, error) {
	if s.users == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}
	if telegramID <= 0 {
		return model.User{}, fmt.Errorf("invalid telegram_id: %w", ErrValidation)
	}

	return s.users.GetOrCreateByTelegramID(ctx, telegramID, username)
}

type SubmitInput struct {
	TelegramID  int64
	Username    string
	Description string
	Category    string
	Media       model.Media
}

// Submit creates the owner's profile in the unapproved state. An owner
// holds at most one profile at a time.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (model.Profile, error) {
	if s.users == nil || s.profiles == nil {
		return model.Profile{}, fmt.Errorf("profile service stores are nil")
	}
	if in.TelegramID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid telegram_id: %w", ErrValidation)
	}

	description, category, media, err := s.normalizeContent(in.Description, in.Category, in.Media)
	if err != nil {
		return model.Profile{}, err
	}

	owner, err := s.users.GetOrCreateByTelegramID(ctx, in.TelegramID, in.Username)
	if err != nil {
		return model.Profile{}, err
	}

	now := s.now().UTC()
	profile, err := s.profiles.Create(ctx, pgrepo.CreateProfileParams{
		OwnerID:     owner.ID,
		Description: description,
		Category:    category,
		MediaKind:   media.Kind,
		MediaFileID: media.FileID,
		CreatedAt:   now,
		DeleteAt:    now.Add(s.cfg.Retention),
	})
	if err != nil {
		return model.Profile{}, err
	}

	return profile, nil
}

type EditInput struct {
	TelegramID  int64
	Description string
	Category    string
	Media       model.Media
}

// Edit replaces the owner's profile content and drops every rating and
// exposure record it has accumulated, in one transaction. The profile
// returns to the moderation queue.
func (s *Service) Edit(ctx context.Context, in EditInput) (model.Profile, error) {
	if s.users == nil || s.profiles == nil {
		return model.Profile{}, fmt.Errorf("profile service stores are nil")
	}
	if in.TelegramID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid telegram_id: %w", ErrValidation)
	}

	current, err := s.ownedProfile(ctx, in.TelegramID)
	if err != nil {
		return model.Profile{}, err
	}

	if strings.TrimSpace(in.Description) == "" {
		in.Description = current.Description
	}
	if strings.TrimSpace(in.Category) == "" {
		in.Category = current.Category
	}
	if in.Media.Kind == enums.MediaKindNone && in.Media.FileID == "" {
		in.Media = model.Media{Kind: current.MediaKind, FileID: current.MediaFileID}
	}

	description, category, media, err := s.normalizeContent(in.Description, in.Category, in.Media)
	if err != nil {
		return model.Profile{}, err
	}

	var updated model.Profile
	err = s.withTx(ctx, s.pool, func(txCtx context.Context, tx pgx.Tx) error {
		updated, err = s.profiles.UpdateContent(txCtx, tx, current.ID, description, category, media.Kind, media.FileID)
		if err != nil {
			return err
		}
		if err := s.profiles.ResetSocialSignal(txCtx, tx, current.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return model.Profile{}, err
	}

	return updated, nil
}

// Delete removes the owner's profile with its ratings and exposure
// history. Returns false when the owner has no profile.
func (s *Service) Delete(ctx context.Context, telegramID int64) (bool, error) {
	if s.users == nil || s.profiles == nil {
		return false, fmt.Errorf("profile service stores are nil")
	}
	if telegramID <= 0 {
		return false, fmt.Errorf("invalid telegram_id: %w", ErrValidation)
	}

	current, err := s.ownedProfile(ctx, telegramID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			return false, nil
		}
		return false, err
	}

	deleted := false
	err = s.withTx(ctx, s.pool, func(txCtx context.Context, tx pgx.Tx) error {
		deleted, err = s.profiles.DeleteCascade(txCtx, tx, current.ID)
		return err
	})
	if err != nil {
		return false, err
	}

	return deleted, nil
}

type Card struct {
	Profile  model.Profile
	Summary  model.RatingSummary
	Ratings  []model.Rating
	DaysLeft int
}

// MyProfile returns the owner's profile together with its rating
// aggregate and the received ratings, fetched eagerly. Raters stay
// anonymous on the card; only scores and comments surface.
func (s *Service) MyProfile(ctx context.Context, telegramID int64) (Card, error) {
	if s.users == nil || s.profiles == nil || s.ratings == nil {
		return Card{}, fmt.Errorf("profile service stores are nil")
	}
	if telegramID <= 0 {
		return Card{}, fmt.Errorf("invalid telegram_id: %w", ErrValidation)
	}

	profile, err := s.ownedProfile(ctx, telegramID)
	if err != nil {
		return Card{}, err
	}

	summary, err := s.ratings.SummaryByProfile(ctx, profile.ID)
	if err != nil {
		return Card{}, err
	}

	ratings, err := s.ratings.ListByProfile(ctx, profile.ID)
	if err != nil {
		return Card{}, err
	}

	return Card{
		Profile:  profile,
		Summary:  summary,
		Ratings:  ratings,
		DaysLeft: daysLeft(profile.DeleteAt, s.now()),
	}, nil
}

// Info reports when the profile leaves the pool.
func (s *Service) Info(ctx context.Context, profileID int64) (time.Time, int, error) {
	if s.profiles == nil {
		return time.Time{}, 0, fmt.Errorf("profile store is nil")
	}
	if profileID <= 0 {
		return time.Time{}, 0, fmt.Errorf("invalid profile id: %w", ErrValidation)
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return time.Time{}, 0, err
	}

	return profile.DeleteAt, daysLeft(profile.DeleteAt, s.now()), nil
}

func (s *Service) ownedProfile(ctx context.Context, telegramID int64) (model.Profile, error) {
	owner, err := s.users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return model.Profile{}, err
	}

	profile, err := s.profiles.GetByOwnerID(ctx, owner.ID)
	if err != nil {
		return model.Profile{}, err
	}

	return profile, nil
}

func (s *Service) normalizeContent(description, category string, media model.Media) (string, string, model.Media, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", "", model.Media{}, fmt.Errorf("description is required: %w", ErrValidation)
	}
	if len([]rune(description)) > maxDescriptionLen {
		return "", "", model.Media{}, fmt.Errorf("description is too long: %w", ErrValidation)
	}

	category = strings.ToLower(strings.TrimSpace(category))
	if !s.categoryAllowed(category) {
		return "", "", model.Media{}, ErrInvalidCategory
	}

	kind, ok := enums.ParseMediaKind(string(media.Kind))
	if !ok {
		return "", "", model.Media{}, fmt.Errorf("unsupported media kind: %w", ErrValidation)
	}
	if kind == enums.MediaKindNone {
		return "", "", model.Media{}, fmt.Errorf("media is required: %w", ErrValidation)
	}
	if strings.TrimSpace(media.FileID) == "" {
		return "", "", model.Media{}, fmt.Errorf("media file id is required: %w", ErrValidation)
	}

	return description, category, model.Media{Kind: kind, FileID: strings.TrimSpace(media.FileID)}, nil
}

func (s *Service) categoryAllowed(category string) bool {
	if category == "" || category == pgrepo.CategoryAll {
		return false
	}
	for _, allowed := range s.cfg.Categories {
		if category == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

func daysLeft(deleteAt, now time.Time) int {
	remaining := deleteAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}
