package repository

import (
	"context"

	"telegram-horoscope-bot/internal/domain/model"
)

// SessionRepository holds the volatile conversation state per user.
// Get returns model.Idle{} when nothing is stored or the stored value cannot be decoded.
type SessionRepository interface {
	Get(ctx context.Context, userID int64) (model.State, error)
	Set(ctx context.Context, userID int64, state model.State) error
	Clear(ctx context.Context, userID int64) error
}
