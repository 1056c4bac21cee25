package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo is a process-local store used in development and tests.
type UserRepo struct {
	mu    sync.RWMutex
	users map[int64]model.UserRecord
	now   func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[int64]model.UserRecord), now: time.Now}
}

func (r *UserRepo) Get(ctx context.Context, userID int64) (*model.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) Upsert(ctx context.Context, userID int64, patch model.UserPatch) error {
	if userID <= 0 {
		return domain.ErrInvalidArgument
	}
	if err := patch.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	u, ok := r.users[userID]
	if !ok {
		u = model.UserRecord{UserID: userID, CreatedAt: now}
	}
	patch.Apply(&u)
	u.UpdatedAt = now
	r.users[userID] = u
	return nil
}

func (r *UserRepo) ListWithSign(ctx context.Context, offset, limit int) ([]*model.UserRecord, error) {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.users))
	for id, u := range r.users {
		if u.ChosenSign != "" {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*model.UserRecord, 0)
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		u := r.users[id]
		out = append(out, &u)
	}
	r.mu.RUnlock()
	return out, nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}
