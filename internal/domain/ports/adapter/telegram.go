// File: internal/domain/ports/adapter/telegram.go
package adapter

import (
	"context"

	"telegram-horoscope-bot/internal/domain/model"
)

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendReply(ctx context.Context, reply model.Reply) error
}
