package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/enums"
	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
)

type Bot struct {
	api *tgbotapi.BotAPI
}

type MediaUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Media    model.Media
	Caption  string
}

type CommandUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Command  string
	Args     string
}

type TextUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Text     string
}

type CallbackUpdate struct {
	CallbackID string
	ChatID     int64
	UserID     int64
	Username   string
	Data       string
}

type Handlers struct {
	OnMedia    func(context.Context, MediaUpdate) error
	OnCommand  func(context.Context, CommandUpdate) error
	OnText     func(context.Context, TextUpdate) error
	OnCallback func(context.Context, CallbackUpdate) error

	// OnError receives a failed handler's error together with the chat
	// the update came from. The listener keeps running either way.
	OnError func(context.Context, int64, error)
}

func (h Handlers) report(ctx context.Context, chatID int64, err error) {
	if err == nil || h.OnError == nil {
		return
	}
	h.OnError(ctx, chatID, err)
}

func NewBot(token string) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{api: api}, nil
}

func (b *Bot) Listen(ctx context.Context, handlers Handlers) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			dispatch(ctx, handlers, update)
		}
	}
}

// dispatch routes one update to its handler. A handler error only
// reaches OnError: a bad update from one chat must not stop the
// listener for every other chat.
func dispatch(ctx context.Context, handlers Handlers, update tgbotapi.Update) {
	if update.Message != nil && update.Message.From != nil {
		chatID := update.Message.Chat.ID

		if media, ok := extractMedia(update.Message); ok && handlers.OnMedia != nil {
			handlers.report(ctx, chatID, handlers.OnMedia(ctx, MediaUpdate{
				ChatID:   chatID,
				UserID:   update.Message.From.ID,
				Username: update.Message.From.UserName,
				Media:    media,
				Caption:  strings.TrimSpace(update.Message.Caption),
			}))
			return
		}

		if update.Message.IsCommand() && handlers.OnCommand != nil {
			handlers.report(ctx, chatID, handlers.OnCommand(ctx, CommandUpdate{
				ChatID:   chatID,
				UserID:   update.Message.From.ID,
				Username: update.Message.From.UserName,
				Command:  update.Message.Command(),
				Args:     update.Message.CommandArguments(),
			}))
			return
		}

		text := strings.TrimSpace(update.Message.Text)
		if text != "" && handlers.OnText != nil {
			handlers.report(ctx, chatID, handlers.OnText(ctx, TextUpdate{
				ChatID:   chatID,
				UserID:   update.Message.From.ID,
				Username: update.Message.From.UserName,
				Text:     text,
			}))
		}
		return
	}

	if update.CallbackQuery != nil && update.CallbackQuery.From != nil && handlers.OnCallback != nil {
		chatID := int64(0)
		if update.CallbackQuery.Message != nil {
			chatID = update.CallbackQuery.Message.Chat.ID
		}
		handlers.report(ctx, chatID, handlers.OnCallback(ctx, CallbackUpdate{
			CallbackID: update.CallbackQuery.ID,
			ChatID:     chatID,
			UserID:     update.CallbackQuery.From.ID,
			Username:   update.CallbackQuery.From.UserName,
			Data:       update.CallbackQuery.Data,
		}))
	}
}

// extractMedia picks the submission media from a message: a video, or
// the largest photo size. The file id is kept as-is and resent later,
// the bytes are never downloaded.
func extractMedia(message *tgbotapi.Message) (model.Media, bool) {
	if message.Video != nil {
		return model.Media{Kind: enums.MediaKindVideo, FileID: message.Video.FileID}, true
	}
	if len(message.Photo) > 0 {
		return model.Media{Kind: enums.MediaKindPhoto, FileID: message.Photo[len(message.Photo)-1].FileID}, true
	}
	return model.Media{}, false
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	return nil
}

// SendProfileCard resends the stored media with the caption and an
// optional inline keyboard.
func (b *Bot) SendProfileCard(ctx context.Context, chatID int64, media model.Media, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	var msg tgbotapi.Chattable
	switch media.Kind {
	case enums.MediaKindVideo:
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileID(media.FileID))
		video.Caption = caption
		if keyboard != nil {
			video.ReplyMarkup = *keyboard
		}
		msg = video
	case enums.MediaKindPhoto:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(media.FileID))
		photo.Caption = caption
		if keyboard != nil {
			photo.ReplyMarkup = *keyboard
		}
		msg = photo
	default:
		text := tgbotapi.NewMessage(chatID, caption)
		if keyboard != nil {
			text.ReplyMarkup = *keyboard
		}
		msg = text
	}

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send profile card: %w", err)
	}

	_ = ctx
	return nil
}

// RatingKeyboard is the 1..5 score row attached to a shown profile.
func RatingKeyboard(profileID int64) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, 5)
	for score := 1; score <= 5; score++ {
		data := "rate:" + strconv.FormatInt(profileID, 10) + ":" + strconv.Itoa(score)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(score), data))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(row...))
}

// ModerationKeyboard is the approve/reject row on a review card.
func ModerationKeyboard(profileID int64) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(profileID, 10)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Approve", "mod:approve:"+id),
			tgbotapi.NewInlineKeyboardButtonData("Reject", "mod:reject:"+id),
		),
	)
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(callbackID) == "" {
		return nil
	}

	cfg := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	_ = ctx
	return nil
}
