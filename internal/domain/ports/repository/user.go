package repository

import (
	"context"

	"telegram-horoscope-bot/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

// UserRepository must support concurrent calls for different users.
type UserRepository interface {
	// Get returns domain.ErrNotFound if missing.
	Get(ctx context.Context, userID int64) (*model.UserRecord, error)
	// Upsert creates the record with defaults if absent, then merges the non-nil
	// patch fields. It is a single atomic write.
	Upsert(ctx context.Context, userID int64, patch model.UserPatch) error
	// ListWithSign pages through users that have a stored sign, ordered by user id.
	ListWithSign(ctx context.Context, offset, limit int) ([]*model.UserRecord, error)
	Count(ctx context.Context) (int, error)
}
