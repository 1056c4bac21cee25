package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/adapter"
	"telegram-horoscope-bot/internal/infra/logging"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter logs outbound messages instead of sending them (dry-run mode).
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	return &NoopBotAdapter{log: logging.Component(logger, "noop-telegram")}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	return b.SendReply(ctx, model.Reply{ChatID: chatID, Text: text})
}

func (b *NoopBotAdapter) SendReply(ctx context.Context, r model.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logging.With(ctx, b.log).Info().
		Int64("chat_id", r.ChatID).
		Str("text", r.Text).
		Strs("payloads", r.Payloads()).
		Msg("message")
	return nil
}
