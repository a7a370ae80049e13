package botapp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/probab1ly/project-tgbotcontest/internal/config"
	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
	tginfra "github.com/probab1ly/project-tgbotcontest/internal/infra/telegram"
	"github.com/probab1ly/project-tgbotcontest/internal/jobs/sweep"
	pgrepo "github.com/probab1ly/project-tgbotcontest/internal/repo/postgres"
	redrepo "github.com/probab1ly/project-tgbotcontest/internal/repo/redis"
	discoverysvc "github.com/probab1ly/project-tgbotcontest/internal/services/discovery"
	modsvc "github.com/probab1ly/project-tgbotcontest/internal/services/moderation"
	profilesvc "github.com/probab1ly/project-tgbotcontest/internal/services/profiles"
	ratesvc "github.com/probab1ly/project-tgbotcontest/internal/services/rate"
	ratingsvc "github.com/probab1ly/project-tgbotcontest/internal/services/ratings"
	winnersvc "github.com/probab1ly/project-tgbotcontest/internal/services/winner"
)

const (
	welcomeText        = "Привет! Это конкурс анкет. /submit — подать анкету, /browse — смотреть и оценивать, /help — все команды."
	helpText           = "/submit — подать анкету\n/my — моя анкета\n/info — срок участия анкеты\n/edit — изменить анкету\n/delete — удалить анкету\n/browse [категория] — смотреть анкеты\n/winner — текущий лидер\n/cancel — отменить ввод"
	askDescriptionText = "Отправьте текст анкеты."
	askMediaText       = "Теперь отправьте фото или видео."
	submittedText      = "Анкета отправлена на модерацию."
	editedText         = "Анкета обновлена и отправлена на модерацию. Прежние оценки сброшены."
	approvedOwnerText  = "Ваша анкета одобрена и участвует в конкурсе!"
	rejectedOwnerText  = "Ваша анкета отклонена модератором."
	expiredOwnerText   = "Срок участия вашей анкеты истёк, она снята с конкурса."
	noProfileText      = "У вас нет анкеты. Отправьте /submit, чтобы подать."
	hasProfileText     = "У вас уже есть анкета. /edit — изменить, /delete — удалить."
	deletedText        = "Анкета удалена."
	nothingToShowText  = "Анкеты закончились. Загляните позже."
	queueEmptyText     = "Очередь модерации пуста."
	noWinnerText       = "Победитель ещё не определён: нет оценённых анкет."
	cancelledText      = "Ввод отменён."
	nothingToCancel    = "Нечего отменять."
	internalErrorText  = "Произошла внутренняя ошибка. Попробуйте позже."
)

type submitStep int

const (
	stepDescription submitStep = iota
	stepCategory
	stepMedia
)

type submitState struct {
	Step        submitStep
	Editing     bool
	Description string
	Category    string
}

type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	bot      *tginfra.Bot

	userRepo    *pgrepo.UserRepo
	profileRepo *pgrepo.ProfileRepo

	profileService   *profilesvc.Service
	moderationSvc    *modsvc.Service
	discoveryService *discoverysvc.Service
	ratingService    *ratingsvc.Service
	winnerService    *winnersvc.Service
	sweepJob         *sweep.Job

	submitMu     sync.Mutex
	submitByChat map[int64]submitState
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN, int32(cfg.Postgres.MaxConns))
	if err != nil {
		return nil, fmt.Errorf("init postgres for bot app: %w", err)
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	userRepo := pgrepo.NewUserRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)
	ratingRepo := pgrepo.NewRatingRepo(pool)
	viewRepo := pgrepo.NewViewRepo(pool)
	rateRepo := redrepo.NewRateRepo(redisClient)
	winnerCache := redrepo.NewWinnerCacheRepo(redisClient)

	profileService := profilesvc.NewService(profilesvc.Dependencies{
		Pool:     pool,
		Users:    userRepo,
		Profiles: profileRepo,
		Ratings:  ratingRepo,
	}, profilesvc.Config{
		Retention:  cfg.Contest.ProfileRetention,
		Categories: cfg.Contest.Categories,
	})
	moderationSvc := modsvc.NewService(pool, profileRepo, cfg.Bot.ModeratorChatID)
	discoveryService := discoverysvc.NewService(userRepo, viewRepo)
	ratingService := ratingsvc.NewService(ratingsvc.Dependencies{
		Users:    userRepo,
		Profiles: profileRepo,
		Ratings:  ratingRepo,
		Views:    viewRepo,
		Limiter:  ratesvc.NewLimiter(rateRepo, cfg.Contest.RatingsPerMinute, cfg.Contest.RatingsPer10Sec),
	})
	winnerService := winnersvc.NewService(ratingRepo, winnerCache, cfg.Contest.WinnerCacheTTL, logger)
	sweepJob := sweep.New(profileRepo, logger)

	var bot *tginfra.Bot
	if strings.TrimSpace(cfg.Bot.Token) != "" {
		bot, err = tginfra.NewBot(cfg.Bot.Token)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init telegram bot: %w", err)
		}
	} else {
		logger.Warn("BOT_TOKEN is empty, conversational listener disabled")
	}

	return &App{
		cfg:              cfg,
		logger:           logger,
		postgres:         pool,
		bot:              bot,
		userRepo:         userRepo,
		profileRepo:      profileRepo,
		profileService:   profileService,
		moderationSvc:    moderationSvc,
		discoveryService: discoveryService,
		ratingService:    ratingService,
		winnerService:    winnerService,
		sweepJob:         sweepJob,
		submitByChat:     make(map[int64]submitState),
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot app started")

	errCh := make(chan error, 2)
	go func() {
		errCh <- a.runSweepLoop(ctx)
	}()

	if a.bot != nil {
		go func() {
			errCh <- a.bot.Listen(ctx, tginfra.Handlers{
				OnMedia:    a.handleMedia,
				OnCommand:  a.handleCommand,
				OnText:     a.handleText,
				OnCallback: a.handleCallback,
				OnError:    a.handleUpdateError,
			})
		}()
	}

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("bot app stopped")
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		}
	}
}

// runSweepLoop runs the expiry sweep on a fixed interval. A failed
// cycle is logged and the next tick proceeds.
func (a *App) runSweepLoop(ctx context.Context) error {
	if a.sweepJob == nil {
		return nil
	}

	interval := a.cfg.Contest.SweepInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	a.runSweepCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.runSweepCycle(ctx)
		}
	}
}

func (a *App) runSweepCycle(ctx context.Context) {
	removed, err := a.sweepJob.Run(ctx)
	if err != nil {
		a.logger.Error("sweep cycle failed", zap.Error(err))
		return
	}

	if a.bot == nil {
		return
	}
	for _, item := range removed {
		if item.Owner.TelegramID == 0 {
			continue
		}
		if err := a.bot.SendText(ctx, item.Owner.TelegramID, expiredOwnerText); err != nil {
			a.logger.Warn("failed to notify owner about expiry",
				zap.Error(err), zap.Int64("telegram_id", item.Owner.TelegramID))
		}
	}
}

// handleUpdateError logs a failed update handler and tells the chat an
// internal error occurred. The listener itself keeps running.
func (a *App) handleUpdateError(ctx context.Context, chatID int64, err error) {
	a.logger.Error("update handler failed", zap.Error(err), zap.Int64("chat_id", chatID))

	if chatID == 0 || a.bot == nil {
		return
	}
	if sendErr := a.bot.SendText(ctx, chatID, internalErrorText); sendErr != nil {
		a.logger.Warn("failed to report internal error to chat",
			zap.Error(sendErr), zap.Int64("chat_id", chatID))
	}
}

func (a *App) handleCommand(ctx context.Context, update tginfra.CommandUpdate) error {
	if a.bot == nil {
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(update.Command)) {
	case "start":
		if _, err := a.profileService.Register(ctx, update.UserID, update.Username); err != nil {
			return err
		}
		return a.bot.SendText(ctx, update.ChatID, welcomeText)
	case "help":
		return a.bot.SendText(ctx, update.ChatID, helpText)
	case "submit":
		return a.startSubmission(ctx, update, false)
	case "edit":
		return a.startSubmission(ctx, update, true)
	case "cancel":
		return a.cancelSubmission(ctx, update.ChatID)
	case "my":
		return a.sendMyProfile(ctx, update)
	case "info":
		return a.sendProfileInfo(ctx, update)
	case "delete":
		return a.deleteProfile(ctx, update)
	case "browse":
		return a.sendNextCandidate(ctx, update.ChatID, update.UserID, update.Args)
	case "winner":
		return a.sendWinner(ctx, update.ChatID)
	case "queue":
		return a.sendModerationQueue(ctx, update.ChatID)
	default:
		return nil
	}
}

func (a *App) startSubmission(ctx context.Context, update tginfra.CommandUpdate, editing bool) error {
	_, err := a.profileService.MyProfile(ctx, update.UserID)
	hasProfile := err == nil
	if err != nil && !errors.Is(err, pgrepo.ErrProfileNotFound) && !errors.Is(err, pgrepo.ErrUserNotFound) {
		return err
	}

	if editing && !hasProfile {
		return a.bot.SendText(ctx, update.ChatID, noProfileText)
	}
	if !editing && hasProfile {
		return a.bot.SendText(ctx, update.ChatID, hasProfileText)
	}

	a.submitMu.Lock()
	a.submitByChat[update.ChatID] = submitState{Step: stepDescription, Editing: editing}
	a.submitMu.Unlock()

	return a.bot.SendText(ctx, update.ChatID, askDescriptionText)
}

func (a *App) cancelSubmission(ctx context.Context, chatID int64) error {
	a.submitMu.Lock()
	_, ok := a.submitByChat[chatID]
	delete(a.submitByChat, chatID)
	a.submitMu.Unlock()

	if !ok {
		return a.bot.SendText(ctx, chatID, nothingToCancel)
	}
	return a.bot.SendText(ctx, chatID, cancelledText)
}

func (a *App) handleText(ctx context.Context, update tginfra.TextUpdate) error {
	if a.bot == nil {
		return nil
	}

	a.submitMu.Lock()
	state, ok := a.submitByChat[update.ChatID]
	a.submitMu.Unlock()
	if !ok {
		return nil
	}

	switch state.Step {
	case stepDescription:
		state.Description = strings.TrimSpace(update.Text)
		if state.Description == "" {
			return a.bot.SendText(ctx, update.ChatID, askDescriptionText)
		}
		state.Step = stepCategory
		a.submitMu.Lock()
		a.submitByChat[update.ChatID] = state
		a.submitMu.Unlock()
		return a.bot.SendText(ctx, update.ChatID, "Выберите категорию: "+strings.Join(a.cfg.Contest.Categories, ", "))
	case stepCategory:
		category := strings.ToLower(strings.TrimSpace(update.Text))
		if !a.categoryKnown(category) {
			return a.bot.SendText(ctx, update.ChatID, "Неизвестная категория. Доступны: "+strings.Join(a.cfg.Contest.Categories, ", "))
		}
		state.Category = category
		state.Step = stepMedia
		a.submitMu.Lock()
		a.submitByChat[update.ChatID] = state
		a.submitMu.Unlock()
		return a.bot.SendText(ctx, update.ChatID, askMediaText)
	default:
		return a.bot.SendText(ctx, update.ChatID, askMediaText)
	}
}

func (a *App) handleMedia(ctx context.Context, update tginfra.MediaUpdate) error {
	if a.bot == nil {
		return nil
	}

	a.submitMu.Lock()
	state, ok := a.submitByChat[update.ChatID]
	a.submitMu.Unlock()
	if !ok || state.Step != stepMedia {
		return nil
	}

	var (
		profile model.Profile
		err     error
	)
	if state.Editing {
		profile, err = a.profileService.Edit(ctx, profilesvc.EditInput{
			TelegramID:  update.UserID,
			Description: state.Description,
			Category:    state.Category,
			Media:       update.Media,
		})
	} else {
		profile, err = a.profileService.Submit(ctx, profilesvc.SubmitInput{
			TelegramID:  update.UserID,
			Username:    update.Username,
			Description: state.Description,
			Category:    state.Category,
			Media:       update.Media,
		})
	}
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileExists) {
			return a.bot.SendText(ctx, update.ChatID, hasProfileText)
		}
		if errors.Is(err, profilesvc.ErrValidation) || errors.Is(err, profilesvc.ErrInvalidCategory) {
			return a.bot.SendText(ctx, update.ChatID, "Анкета не принята: проверьте текст, категорию и вложение.")
		}
		return err
	}

	a.submitMu.Lock()
	delete(a.submitByChat, update.ChatID)
	a.submitMu.Unlock()

	doneText := submittedText
	if state.Editing {
		doneText = editedText
	}
	if err := a.bot.SendText(ctx, update.ChatID, doneText); err != nil {
		return err
	}

	return a.notifyModerators(ctx, profile, update.Username)
}

// notifyModerators drops the fresh submission into the moderator chat
// with approve/reject controls.
func (a *App) notifyModerators(ctx context.Context, profile model.Profile, username string) error {
	chatID := a.cfg.Bot.ModeratorChatID
	if chatID == 0 {
		return nil
	}

	keyboard := tginfra.ModerationKeyboard(profile.ID)
	caption := formatModerationCaption(profile, username)
	if err := a.bot.SendProfileCard(ctx, chatID, profile.Media(), caption, &keyboard); err != nil {
		a.logger.Warn("failed to notify moderator chat", zap.Error(err), zap.Int64("profile_id", profile.ID))
	}
	return nil
}

func (a *App) sendMyProfile(ctx context.Context, update tginfra.CommandUpdate) error {
	card, err := a.profileService.MyProfile(ctx, update.UserID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) || errors.Is(err, pgrepo.ErrUserNotFound) {
			return a.bot.SendText(ctx, update.ChatID, noProfileText)
		}
		return err
	}

	return a.bot.SendProfileCard(ctx, update.ChatID, card.Profile.Media(), formatMyProfileCaption(card), nil)
}

func (a *App) sendProfileInfo(ctx context.Context, update tginfra.CommandUpdate) error {
	card, err := a.profileService.MyProfile(ctx, update.UserID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) || errors.Is(err, pgrepo.ErrUserNotFound) {
			return a.bot.SendText(ctx, update.ChatID, noProfileText)
		}
		return err
	}

	deleteAt, days, err := a.profileService.Info(ctx, card.Profile.ID)
	if err != nil {
		return err
	}

	return a.bot.SendText(ctx, update.ChatID,
		fmt.Sprintf("Анкета участвует до %s (осталось %d дн.).", deleteAt.Format("02.01.2006"), days))
}

func (a *App) deleteProfile(ctx context.Context, update tginfra.CommandUpdate) error {
	deleted, err := a.profileService.Delete(ctx, update.UserID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return a.bot.SendText(ctx, update.ChatID, noProfileText)
		}
		return err
	}
	if !deleted {
		return a.bot.SendText(ctx, update.ChatID, noProfileText)
	}
	return a.bot.SendText(ctx, update.ChatID, deletedText)
}

// sendNextCandidate shows one random unseen profile and records the
// exposure before the card reaches the chat, so a crash between the two
// never shows the same profile twice.
func (a *App) sendNextCandidate(ctx context.Context, chatID, viewerTelegramID int64, categoryArg string) error {
	category := strings.ToLower(strings.TrimSpace(categoryArg))
	if category == "" {
		category = pgrepo.CategoryAll
	}
	if category != pgrepo.CategoryAll && !a.categoryKnown(category) {
		return a.bot.SendText(ctx, chatID, "Неизвестная категория. Доступны: "+strings.Join(a.cfg.Contest.Categories, ", ")+", all")
	}

	count, err := a.discoveryService.UnviewedCount(ctx, viewerTelegramID)
	if err != nil {
		return err
	}
	if count == 0 {
		return a.bot.SendText(ctx, chatID, nothingToShowText)
	}

	candidate, err := a.discoveryService.Pick(ctx, viewerTelegramID, category)
	if err != nil {
		return err
	}
	if !candidate.Found {
		return a.bot.SendText(ctx, chatID, nothingToShowText)
	}

	if err := a.discoveryService.MarkViewed(ctx, viewerTelegramID, candidate.Profile.ID); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return a.bot.SendText(ctx, chatID, welcomeText)
		}
		return err
	}

	keyboard := tginfra.RatingKeyboard(candidate.Profile.ID)
	return a.bot.SendProfileCard(ctx, chatID, candidate.Profile.Media(), formatCandidateCaption(candidate.Profile), &keyboard)
}

func (a *App) sendWinner(ctx context.Context, chatID int64) error {
	result, err := a.winnerService.Winner(ctx)
	if err != nil {
		return err
	}
	if !result.Found {
		return a.bot.SendText(ctx, chatID, noWinnerText)
	}

	profile, err := a.profileRepo.GetByID(ctx, result.ProfileID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrProfileNotFound) {
			// Winner profile deleted after the decision was cached.
			return a.bot.SendText(ctx, chatID, noWinnerText)
		}
		return err
	}

	return a.bot.SendProfileCard(ctx, chatID, profile.Media(), formatWinnerCaption(profile, result), nil)
}

func (a *App) sendModerationQueue(ctx context.Context, chatID int64) error {
	pending, err := a.moderationSvc.Pending(ctx, chatID)
	if err != nil {
		if errors.Is(err, modsvc.ErrNotModerator) {
			return nil
		}
		return err
	}
	if len(pending) == 0 {
		return a.bot.SendText(ctx, chatID, queueEmptyText)
	}

	item := pending[0]
	keyboard := tginfra.ModerationKeyboard(item.Profile.ID)
	caption := formatModerationCaption(item.Profile, item.Owner.Username)
	caption += fmt.Sprintf("\n\nВ очереди: %d", len(pending))
	return a.bot.SendProfileCard(ctx, chatID, item.Profile.Media(), caption, &keyboard)
}

func (a *App) handleCallback(ctx context.Context, update tginfra.CallbackUpdate) error {
	if a.bot == nil {
		return nil
	}

	parts := strings.Split(strings.TrimSpace(update.Data), ":")
	switch {
	case len(parts) == 3 && parts[0] == "rate":
		return a.handleRateCallback(ctx, update, parts[1], parts[2])
	case len(parts) == 3 && parts[0] == "mod":
		return a.handleModerationCallback(ctx, update, parts[1], parts[2])
	default:
		return a.bot.AnswerCallback(ctx, update.CallbackID, "Unknown action")
	}
}

func (a *App) handleRateCallback(ctx context.Context, update tginfra.CallbackUpdate, profileArg, scoreArg string) error {
	profileID, err := strconv.ParseInt(profileArg, 10, 64)
	if err != nil || profileID <= 0 {
		return a.bot.AnswerCallback(ctx, update.CallbackID, "Invalid profile id")
	}
	score, err := strconv.Atoi(scoreArg)
	if err != nil {
		return a.bot.AnswerCallback(ctx, update.CallbackID, "Invalid score")
	}

	_, err = a.ratingService.Submit(ctx, update.UserID, profileID, score, "")
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrAlreadyRated):
			return a.bot.AnswerCallback(ctx, update.CallbackID, "Вы уже оценили эту анкету")
		case errors.Is(err, ratingsvc.ErrInvalidScore):
			return a.bot.AnswerCallback(ctx, update.CallbackID, "Invalid score")
		case errors.Is(err, ratingsvc.ErrSelfRating):
			return a.bot.AnswerCallback(ctx, update.CallbackID, "Свою анкету оценить нельзя")
		case errors.Is(err, ratingsvc.ErrNotViewed):
			return a.bot.AnswerCallback(ctx, update.CallbackID, "Эта анкета вам не показывалась")
		case errors.Is(err, pgrepo.ErrProfileNotFound):
			return a.bot.AnswerCallback(ctx, update.CallbackID, "Анкета уже удалена")
		case errors.Is(err, pgrepo.ErrUserNotFound):
			return a.bot.AnswerCallback(ctx, update.CallbackID, "Сначала отправьте /start")
		}
		if limited, ok := ratingsvc.IsRateLimited(err); ok {
			return a.bot.AnswerCallback(ctx, update.CallbackID,
				fmt.Sprintf("Слишком часто. Подождите %d сек.", limited.RetryAfterSec))
		}
		return err
	}

	if err := a.bot.AnswerCallback(ctx, update.CallbackID, "Оценка принята"); err != nil {
		return err
	}

	// Keep the feed rolling after a successful rating.
	return a.sendNextCandidate(ctx, update.ChatID, update.UserID, "")
}

func (a *App) handleModerationCallback(ctx context.Context, update tginfra.CallbackUpdate, action, idArg string) error {
	profileID, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil || profileID <= 0 {
		return a.bot.AnswerCallback(ctx, update.CallbackID, "Invalid profile id")
	}

	switch action {
	case "approve":
		notify, err := a.moderationSvc.Approve(ctx, update.ChatID, profileID)
		if err != nil {
			switch {
			case errors.Is(err, modsvc.ErrNotModerator):
				return a.bot.AnswerCallback(ctx, update.CallbackID, "Недостаточно прав")
			case errors.Is(err, pgrepo.ErrProfileNotFound):
				return a.bot.AnswerCallback(ctx, update.CallbackID, "Анкета уже удалена")
			}
			return err
		}
		if err := a.bot.AnswerCallback(ctx, update.CallbackID, "Одобрено"); err != nil {
			return err
		}
		if notify.TelegramID != 0 {
			if err := a.bot.SendText(ctx, notify.TelegramID, approvedOwnerText); err != nil {
				a.logger.Warn("failed to notify owner about approval",
					zap.Error(err), zap.Int64("telegram_id", notify.TelegramID))
			}
		}
		return nil
	case "reject":
		owner, err := a.ownerContact(ctx, profileID)
		if err != nil && !errors.Is(err, pgrepo.ErrProfileNotFound) {
			return err
		}

		rejected, err := a.moderationSvc.Reject(ctx, update.ChatID, profileID)
		if err != nil {
			if errors.Is(err, modsvc.ErrNotModerator) {
				return a.bot.AnswerCallback(ctx, update.CallbackID, "Недостаточно прав")
			}
			return err
		}
		if !rejected {
			return a.bot.AnswerCallback(ctx, update.CallbackID, "Анкета уже обработана")
		}
		if err := a.bot.AnswerCallback(ctx, update.CallbackID, "Отклонено"); err != nil {
			return err
		}
		if owner.TelegramID != 0 {
			if err := a.bot.SendText(ctx, owner.TelegramID, rejectedOwnerText); err != nil {
				a.logger.Warn("failed to notify owner about rejection",
					zap.Error(err), zap.Int64("telegram_id", owner.TelegramID))
			}
		}
		return nil
	default:
		return a.bot.AnswerCallback(ctx, update.CallbackID, "Unknown action")
	}
}

// ownerContact resolves the owner before a reject removes the row.
func (a *App) ownerContact(ctx context.Context, profileID int64) (pgrepo.OwnerNotify, error) {
	profile, err := a.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		return pgrepo.OwnerNotify{}, err
	}
	owner, err := a.userRepo.FindByID(ctx, profile.OwnerID)
	if err != nil {
		return pgrepo.OwnerNotify{}, err
	}
	return pgrepo.OwnerNotify{TelegramID: owner.TelegramID, Username: owner.Username}, nil
}

func (a *App) categoryKnown(category string) bool {
	for _, allowed := range a.cfg.Contest.Categories {
		if category == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
}
