package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Totals(ctx context.Context) (Totals, error)
	// User returns the record with the counter as seen today; domain.ErrNotFound if missing.
	User(ctx context.Context, userID int64) (UserView, error)
}

type Totals struct {
	Users int `json:"users"`
}

type UserView struct {
	Record         *model.UserRecord `json:"record"`
	EffectiveCount int               `json:"effective_count"`
	Remaining      int               `json:"remaining_free"`
}

type statsUC struct {
	users     repository.UserRepository
	freeLimit int
	loc       *time.Location
	now       func() time.Time
	log       *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, freeLimit int, loc *time.Location, logger *zerolog.Logger) *statsUC {
	if loc == nil {
		loc = time.UTC
	}
	return &statsUC{users: users, freeLimit: freeLimit, loc: loc, now: time.Now, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (Totals, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return Totals{}, err
	}
	return Totals{Users: n}, nil
}

func (s *statsUC) User(ctx context.Context, userID int64) (UserView, error) {
	if userID <= 0 {
		return UserView{}, domain.ErrInvalidArgument
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error().Err(err).Int64("tg_id", userID).Msg("stats: user lookup failed")
		}
		return UserView{}, err
	}
	eff := u.EffectiveCount(model.DateIn(s.now(), s.loc))
	return UserView{Record: u, EffectiveCount: eff, Remaining: max(s.freeLimit-eff, 0)}, nil
}
