package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/adapter"
	"telegram-horoscope-bot/internal/domain/ports/repository"
	"telegram-horoscope-bot/internal/infra/logging"
	"telegram-horoscope-bot/internal/infra/metrics"
	"telegram-horoscope-bot/internal/infra/worker"
)

// DispatchUseCase sends today's general horoscope to every user with a stored sign.
// It never touches the daily counter.
type DispatchUseCase interface {
	// Dispatch queues one message per user and returns how many were queued.
	Dispatch(ctx context.Context, trigger string) (int, error)
}

type DispatchConfig struct {
	PerSecond int
	BatchSize int
}

type dispatchUC struct {
	users   repository.UserRepository
	content adapter.ContentProvider
	bot     adapter.TelegramBotAdapter
	pool    *worker.Pool
	tr      Translator
	cfg     DispatchConfig
	log     *zerolog.Logger
}

func NewDispatchUseCase(
	users repository.UserRepository,
	content adapter.ContentProvider,
	bot adapter.TelegramBotAdapter,
	pool *worker.Pool,
	tr Translator,
	cfg DispatchConfig,
	logger *zerolog.Logger,
) DispatchUseCase {
	if cfg.PerSecond <= 0 {
		cfg.PerSecond = 25
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	return &dispatchUC{
		users:   users,
		content: content,
		bot:     bot,
		pool:    pool,
		tr:      tr,
		cfg:     cfg,
		log:     logging.Component(logger, "dispatch"),
	}
}

func (uc *dispatchUC) Dispatch(ctx context.Context, trigger string) (int, error) {
	defer logging.TraceDuration(uc.log, "DispatchUC.Dispatch")()
	metrics.IncDispatchRun(trigger)

	// Throttle to respect Telegram's API limits (approx. 30 messages/sec)
	throttle := time.NewTicker(time.Second / time.Duration(uc.cfg.PerSecond))
	defer throttle.Stop()

	// One text per sign per run.
	texts := map[string]string{}
	queued := 0
	for offset := 0; ; offset += uc.cfg.BatchSize {
		batch, err := uc.users.ListWithSign(ctx, offset, uc.cfg.BatchSize)
		if err != nil {
			uc.log.Error().Err(err).Int("offset", offset).Msg("failed to list users for dispatch")
			return queued, err
		}
		for _, u := range batch {
			select {
			case <-ctx.Done():
				return queued, ctx.Err()
			case <-throttle.C:
			}

			key := string(u.ChosenSign)
			text, ok := texts[key]
			if !ok {
				text = uc.tr.T("daily_dispatch", uc.content.GetHoroscope(ctx, u.ChosenSign, model.PeriodToday, model.CategoryGeneral))
				texts[key] = text
			}
			if err := uc.pool.Submit(uc.sendTask(u.UserID, text)); err != nil {
				metrics.IncDispatchMessage("dropped")
				uc.log.Warn().Err(err).Int64("tg_id", u.UserID).Msg("failed to queue dispatch message")
				continue
			}
			queued++
		}
		if len(batch) < uc.cfg.BatchSize {
			break
		}
	}
	uc.log.Info().Int("queued", queued).Str("trigger", trigger).Msg("daily dispatch queued")
	return queued, nil
}

func (uc *dispatchUC) sendTask(chatID int64, text string) worker.Task {
	return func(ctx context.Context) error {
		if err := uc.bot.SendMessage(ctx, chatID, text); err != nil {
			// e.g. the user blocked the bot
			metrics.IncDispatchMessage("error")
			uc.log.Warn().Err(err).Int64("tg_id", chatID).Msg("failed to send dispatch message")
			return nil
		}
		metrics.IncDispatchMessage("sent")
		return nil
	}
}
