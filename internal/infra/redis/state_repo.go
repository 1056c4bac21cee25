package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo keeps conversation state in Redis so it survives restarts and is
// shared between replicas. Sessions expire after ttl of inactivity.
type SessionRepo struct {
	client RedisClient
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewSessionRepo(client RedisClient, ttl time.Duration, logger *zerolog.Logger) *SessionRepo {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	l := logger.With().Str("component", "redis_sessions").Logger()
	return &SessionRepo{client: client, ttl: ttl, log: &l}
}

func (s *SessionRepo) stateKey(userID int64) string {
	return fmt.Sprintf("conv_state:%d", userID)
}

func (s *SessionRepo) Set(ctx context.Context, userID int64, state model.State) error {
	data, err := model.EncodeState(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.stateKey(userID), data, s.ttl)
}

func (s *SessionRepo) Get(ctx context.Context, userID int64) (model.State, error) {
	data, err := s.client.Get(ctx, s.stateKey(userID))
	if errors.Is(err, ErrNil) {
		return model.Idle{}, nil
	}
	if err != nil {
		return nil, err
	}
	state, err := model.DecodeState([]byte(data))
	if err != nil {
		s.log.Warn().Err(err).Int64("tg_id", userID).Msg("dropping undecodable session")
		return model.Idle{}, nil
	}
	return state, nil
}

func (s *SessionRepo) Clear(ctx context.Context, userID int64) error {
	return s.client.Del(ctx, s.stateKey(userID))
}
