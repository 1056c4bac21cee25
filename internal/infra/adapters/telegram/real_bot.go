package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/config"
	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/adapter"
	"telegram-horoscope-bot/internal/infra/logging"
	"telegram-horoscope-bot/internal/infra/metrics"
	red "telegram-horoscope-bot/internal/infra/redis"
	"telegram-horoscope-bot/internal/infra/worker"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// botAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// EventHandler consumes inbound events; implemented by the conversation use case.
type EventHandler interface {
	Handle(ctx context.Context, ev model.Event) (model.Reply, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Translator interface {
	T(key string, args ...interface{}) string
}

// RealTelegramBotAdapter turns Telegram updates into events and replies into messages.
// Updates of one user are queued on the keyed dispatcher so they run in arrival order.
type RealTelegramBotAdapter struct {
	api        botAPI
	cfg        *config.BotConfig
	handler    EventHandler
	dispatcher *worker.KeyedDispatcher
	limiter    RateLimiter
	tr         Translator
	log        *zerolog.Logger
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, handler EventHandler, dispatcher *worker.KeyedDispatcher, limiter RateLimiter, tr Translator, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return newAdapter(api, cfg, handler, dispatcher, limiter, tr, logger)
}

func newAdapter(api botAPI, cfg *config.BotConfig, handler EventHandler, dispatcher *worker.KeyedDispatcher, limiter RateLimiter, tr Translator, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if handler == nil {
		return nil, errors.New("event handler is nil")
	}
	if tr == nil {
		return nil, errors.New("translator is nil")
	}
	return &RealTelegramBotAdapter{
		api:        api,
		cfg:        cfg,
		handler:    handler,
		dispatcher: dispatcher,
		limiter:    limiter,
		tr:         tr,
		log:        logging.Component(logger, "telegram"),
	}, nil
}

// SetWebhook registers url with Telegram, dropping updates queued while the bot was down.
func (r *RealTelegramBotAdapter) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	_, err = r.api.Request(wh)
	return err
}

// StartPolling blocks until ctx is done.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	// polling and a registered webhook are mutually exclusive
	if _, err := r.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		r.log.Warn().Err(err).Msg("delete webhook failed")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.api.GetUpdatesChan(u)
	defer r.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			r.Dispatch(ctx, up)
		}
	}
}

// Dispatch routes one update to its user's queue, or handles it inline without a dispatcher.
func (r *RealTelegramBotAdapter) Dispatch(ctx context.Context, up tgbotapi.Update) {
	in, ok := toInbound(up)
	if !ok {
		metrics.IncTelegramUpdate("ignored")
		return
	}
	metrics.IncTelegramUpdate(in.ev.Kind.String())

	task := func(ctx context.Context) error {
		r.handleInbound(ctx, up.UpdateID, in)
		return nil
	}
	if r.dispatcher == nil {
		_ = task(ctx)
		return
	}
	if err := r.dispatcher.Dispatch(in.ev.UserID, task); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", in.ev.UserID).Int("update_id", up.UpdateID).Msg("update dropped")
	}
}

func (r *RealTelegramBotAdapter) handleInbound(ctx context.Context, updateID int, in inbound) {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithUpdateID(logging.WithTgID(ctx, in.ev.UserID), updateID)
	log := logging.With(ctx, r.log)

	if !r.allow(ctx, in.ev.UserID) {
		r.answer(in.callbackID, "")
		metrics.IncRateLimitTriggered()
		if err := r.SendMessage(ctx, in.ev.ChatID, r.tr.T("rate_limited")); err != nil {
			log.Warn().Err(err).Msg("send rate limit notice failed")
		}
		return
	}

	// The payment check may take a while: show the toast first.
	toast := ""
	if in.ev.Input() == model.PayloadCheckPayment {
		toast = r.tr.T("payment_checking")
	}
	r.answer(in.callbackID, toast)

	reply, err := r.handler.Handle(ctx, in.ev)
	if err != nil {
		log.Error().Err(err).Msg("handle event failed")
	}
	if strings.TrimSpace(reply.Text) == "" {
		return
	}
	if reply.ChatID == 0 {
		reply.ChatID = in.ev.ChatID
	}
	if err := r.SendReply(ctx, reply); err != nil {
		log.Warn().Err(err).Msg("send reply failed")
	}
}

func (r *RealTelegramBotAdapter) allow(ctx context.Context, userID int64) bool {
	if r.limiter == nil || r.cfg == nil || r.cfg.RateLimit <= 0 {
		return true
	}
	ok, err := r.limiter.Allow(ctx, red.UserUpdateKey(userID), r.cfg.RateLimit, r.cfg.RateWindow)
	if err != nil {
		// fail open: a Redis outage must not silence the bot
		r.log.Warn().Err(err).Msg("rate limit check failed")
		return true
	}
	return ok
}

// answer stops the client's spinner; text, when set, is shown as a toast.
func (r *RealTelegramBotAdapter) answer(callbackID, text string) {
	if callbackID == "" {
		return
	}
	if _, err := r.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		r.log.Debug().Err(err).Msg("answer callback failed")
	}
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	return r.SendReply(ctx, model.Reply{ChatID: chatID, Text: text})
}

// SendReply renders buttons as an inline keyboard: URL buttons open a link,
// the rest send their payload as callback data.
func (r *RealTelegramBotAdapter) SendReply(ctx context.Context, reply model.Reply) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(reply.ChatID, reply.Text)
	if kb, ok := inlineKeyboard(reply.Buttons); ok {
		msg.ReplyMarkup = kb
	}
	if _, err := r.api.Send(msg); err != nil {
		metrics.IncSendError()
		return err
	}
	return nil
}
