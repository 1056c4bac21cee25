package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/usecase"
)

// DayClaimer arbitrates the daily run between replicas.
type DayClaimer interface {
	Claim(ctx context.Context, day model.Date) (bool, error)
}

// DispatchWorker triggers the daily horoscope dispatch once per local day,
// at or after the configured hour.
type DispatchWorker struct {
	interval time.Duration
	hour     int
	loc      *time.Location
	uc       usecase.DispatchUseCase
	claim    DayClaimer
	now      func() time.Time
	log      *zerolog.Logger

	mu      sync.Mutex
	lastRun model.Date
}

func NewDispatchWorker(interval time.Duration, hour int, loc *time.Location, uc usecase.DispatchUseCase, claim DayClaimer, logger *zerolog.Logger) *DispatchWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	compLog := logger.With().Str("component", "DispatchWorker").Logger()
	return &DispatchWorker{
		interval: interval,
		hour:     hour,
		loc:      loc,
		uc:       uc,
		claim:    claim,
		now:      time.Now,
		log:      &compLog,
	}
}

func (w *DispatchWorker) Run(ctx context.Context) error {
	w.log.Info().Int("hour", w.hour).Str("tz", w.loc.String()).Msg("Starting dispatch worker")
	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping dispatch worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick runs the dispatch when today's slot has come and was not taken yet.
func (w *DispatchWorker) tick(ctx context.Context) bool {
	local := w.now().In(w.loc)
	today := model.DateOf(local)
	if local.Hour() < w.hour {
		return false
	}

	w.mu.Lock()
	done := w.lastRun == today
	if !done {
		w.lastRun = today
	}
	w.mu.Unlock()
	if done {
		return false
	}

	if w.claim != nil {
		won, err := w.claim.Claim(ctx, today)
		if err != nil {
			// retry on the next tick
			w.mu.Lock()
			w.lastRun = model.Date{}
			w.mu.Unlock()
			w.log.Error().Err(err).Msg("dispatch claim failed")
			return false
		}
		if !won {
			w.log.Debug().Str("day", today.String()).Msg("dispatch already claimed by another replica")
			return false
		}
	}

	n, err := w.uc.Dispatch(ctx, "schedule")
	if err != nil {
		w.log.Error().Err(err).Int("queued", n).Msg("daily dispatch failed")
		return true
	}
	w.log.Info().Int("count", n).Msg("daily dispatch queued")
	return true
}
