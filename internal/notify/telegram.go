package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// AckFunc records an acknowledged reminder.
type AckFunc func(alarmID string, scheduledAt, ackedAt time.Time) error

// TelegramSender delivers reminders to a Telegram chat, with a done
// button that feeds back into compliance records.
type TelegramSender struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

func NewTelegramSender(token string, chatID int64, logger *zap.Logger) (*TelegramSender, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	logger.Info("telegram sender authorized", zap.String("username", api.Self.UserName))
	return &TelegramSender{api: api, chatID: chatID, logger: logger}, nil
}

func (s *TelegramSender) Send(ctx context.Context, req PendingRequest) error {
	text := fmt.Sprintf("🔔 <b>%s</b>\n\n%s", req.Title, req.Body)
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ParseMode = "HTML"
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Done", "ack:"+req.Identifier),
		),
	)
	_, err := s.api.Send(msg)
	return err
}

// Listen polls for callback queries and reports acknowledgements.
// Blocks until the context is cancelled.
func (s *TelegramSender) Listen(ctx context.Context, ack AckFunc) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := s.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery == nil {
				continue
			}
			s.handleCallback(update.CallbackQuery, ack)
		}
	}
}

func (s *TelegramSender) handleCallback(cb *tgbotapi.CallbackQuery, ack AckFunc) {
	data := cb.Data
	if !strings.HasPrefix(data, "ack:") {
		return
	}

	alarmID, scheduledAt, err := ParseIdentifier(strings.TrimPrefix(data, "ack:"))
	if err != nil {
		s.logger.Warn("bad ack callback", zap.String("data", data), zap.Error(err))
		return
	}

	if err := ack(alarmID, scheduledAt, time.Now()); err != nil {
		s.logger.Error("record acknowledgement",
			zap.String("alarm_id", alarmID),
			zap.Error(err),
		)
		return
	}

	if _, err := s.api.Request(tgbotapi.NewCallback(cb.ID, "Nice, recorded ✅")); err != nil {
		s.logger.Warn("answer callback", zap.Error(err))
	}
}

// LogSender writes reminders to the log. Used when no Telegram token
// is configured.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(ctx context.Context, req PendingRequest) error {
	s.Logger.Info("reminder",
		zap.String("title", req.Title),
		zap.String("body", req.Body),
		zap.Time("scheduled", req.TriggerAt),
	)
	return nil
}
