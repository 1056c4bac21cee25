package memory

import (
	"context"
	"sync"

	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo is the default session table. Sessions are lost on restart and
// rebuild as Idle.
type SessionRepo struct {
	mu       sync.RWMutex
	sessions map[int64]model.State
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{sessions: make(map[int64]model.State)}
}

func (r *SessionRepo) Get(ctx context.Context, userID int64) (model.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if st, ok := r.sessions[userID]; ok {
		return st, nil
	}
	return model.Idle{}, nil
}

func (r *SessionRepo) Set(ctx context.Context, userID int64, state model.State) error {
	if state == nil {
		state = model.Idle{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, idle := state.(model.Idle); idle {
		delete(r.sessions, userID)
		return nil
	}
	r.sessions[userID] = state
	return nil
}

func (r *SessionRepo) Clear(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}

func (r *SessionRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
