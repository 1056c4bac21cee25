package adapter

import (
	"context"

	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/zodiac"
)

// ContentProvider returns horoscope text. It never fails: unknown combinations
// and backend errors yield a fallback text.
type ContentProvider interface {
	GetHoroscope(ctx context.Context, sign zodiac.Sign, period model.Period, category model.Category) string
}
