package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/adapter"
	"telegram-horoscope-bot/internal/domain/ports/repository"
	"telegram-horoscope-bot/internal/domain/zodiac"
	"telegram-horoscope-bot/internal/infra/logging"
	"telegram-horoscope-bot/internal/infra/metrics"
	"telegram-horoscope-bot/internal/infra/worker"
)

// Compile-time check
var _ ConversationUseCase = (*conversationUC)(nil)

// ConversationUseCase drives the per-user horoscope dialogue.
type ConversationUseCase interface {
	// Handle processes one inbound event and returns the reply to send.
	// Rejected input is not an error: it yields a re-prompt and leaves state untouched.
	// A non-nil error wraps domain.ErrStoreUnavailable; the reply is still sendable.
	Handle(ctx context.Context, ev model.Event) (model.Reply, error)
}

// Translator resolves message catalog keys.
type Translator interface {
	T(key string, args ...interface{}) string
}

type ConversationConfig struct {
	FreeLimit      int
	Location       *time.Location
	PaymentTimeout time.Duration
	TonAmount      string // display amount for the TON button, e.g. "0.05"
	Now            func() time.Time
}

type ConversationDeps struct {
	Users    repository.UserRepository
	Sessions repository.SessionRepository
	Content  adapter.ContentProvider
	Gateway  adapter.PaymentGateway
	Links    adapter.PaymentLinks
	Ads      adapter.AdNotifier
	Pool     *worker.Pool // runs ad notifications; nil runs them inline
	Locker   adapter.UserLocker
	Tr       Translator
}

type conversationUC struct {
	ConversationDeps
	cfg ConversationConfig
	log *zerolog.Logger
}

func NewConversationUseCase(deps ConversationDeps, cfg ConversationConfig, logger *zerolog.Logger) *conversationUC {
	if cfg.FreeLimit <= 0 {
		cfg.FreeLimit = 2
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &conversationUC{
		ConversationDeps: deps,
		cfg:              cfg,
		log:              logging.Component(logger, "conversation"),
	}
}

// outcome is the result of one transition. A nil next keeps the current state.
// Transitions only read; their user-store writes go in commit, which runs
// after the session is saved.
type outcome struct {
	reply  model.Reply
	next   model.State
	commit func(ctx context.Context) error
	result string
	cause  error // why the input was not accepted; logged only
	after  func()
}

const (
	resultAccepted    = "accepted"
	resultRejected    = "rejected"
	resultInvalidDate = "invalid_date"
	resultError       = "error"
)

func (uc *conversationUC) Handle(ctx context.Context, ev model.Event) (model.Reply, error) {
	defer logging.TraceDuration(uc.log, "ConversationUC.Handle")()

	if ev.UserID <= 0 {
		return model.Reply{}, domain.ErrInvalidArgument
	}
	if ev.ChatID == 0 {
		ev.ChatID = ev.UserID
	}
	ctx = logging.WithTgID(ctx, ev.UserID)
	log := logging.With(ctx, uc.log)

	unlock, err := uc.Locker.Lock(ctx, ev.UserID)
	if err != nil {
		return uc.fail(ctx, ev, "lock", "unknown", err)
	}
	defer unlock()

	state, err := uc.Sessions.Get(ctx, ev.UserID)
	if err != nil {
		return uc.fail(ctx, ev, "session_get", "unknown", err)
	}
	if state == nil {
		state = model.Idle{}
	}

	out, err := uc.transition(ctx, ev, state)
	if err != nil {
		return uc.fail(ctx, ev, "transition", string(state.Step()), err)
	}

	if out.next != nil {
		if err := uc.saveState(ctx, ev.UserID, out.next); err != nil {
			return uc.fail(ctx, ev, "session_set", string(state.Step()), err)
		}
	}
	if out.commit != nil {
		if err := out.commit(ctx); err != nil {
			if out.next != nil {
				uc.restoreState(ctx, ev.UserID, state)
			}
			return uc.fail(ctx, ev, "commit", string(state.Step()), err)
		}
	}
	if out.after != nil {
		out.after()
	}

	metrics.IncConversationEvent(string(state.Step()), out.result)
	next := state
	if out.next != nil {
		next = out.next
	}
	log.Debug().
		Str("kind", ev.Kind.String()).
		Str("from", string(state.Step())).
		Str("to", string(next.Step())).
		Str("result", out.result).
		AnErr("cause", out.cause).
		Msg("event handled")

	out.reply.ChatID = ev.ChatID
	return out.reply, nil
}

// saveState stores the next state. Idle carries no scratch data, so it clears the session.
func (uc *conversationUC) saveState(ctx context.Context, userID int64, s model.State) error {
	if _, ok := s.(model.Idle); ok {
		return uc.Sessions.Clear(ctx, userID)
	}
	return uc.Sessions.Set(ctx, userID, s)
}

// restoreState puts back the state an event started from after its commit failed.
func (uc *conversationUC) restoreState(ctx context.Context, userID int64, prev model.State) {
	if err := uc.saveState(context.WithoutCancel(ctx), userID, prev); err != nil {
		metrics.IncStoreError("session_restore")
		logging.With(ctx, uc.log).Error().Err(err).Str("step", string(prev.Step())).Msg("session restore failed")
	}
}

// fail maps a persistence failure to the retry-later reply. The session is not advanced.
func (uc *conversationUC) fail(ctx context.Context, ev model.Event, op, step string, err error) (model.Reply, error) {
	metrics.IncStoreError(op)
	metrics.IncConversationEvent(step, resultError)
	logging.With(ctx, uc.log).Error().Err(err).Str("op", op).Msg("conversation store failure")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		err = fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
	}
	return model.Reply{ChatID: ev.ChatID, Text: uc.Tr.T("store_unavailable")}, err
}

func (uc *conversationUC) transition(ctx context.Context, ev model.Event, state model.State) (outcome, error) {
	if ev.IsStart() {
		return uc.start(ctx, ev)
	}
	input := ev.Input()
	if ev.Kind == model.EventCallback && input == model.PayloadStartOver {
		return outcome{
			reply:  uc.signPrompt(uc.Tr.T("start_over")),
			next:   model.ChoosingSign{},
			result: resultAccepted,
		}, nil
	}

	switch s := state.(type) {
	case model.ChoosingSign:
		return uc.chooseSign(ev, input), nil
	case model.WaitingForBirthDate:
		return uc.birthDate(ev, input), nil
	case model.ChoosingDate:
		return uc.chooseDate(s, input), nil
	case model.ChoosingType:
		return uc.chooseType(ctx, ev, s, input)
	case model.WaitingForPayment:
		return uc.checkPayment(ctx, ev, input)
	default:
		return rejected(model.Reply{Text: uc.Tr.T("idle_hint")}), nil
	}
}

func rejected(r model.Reply) outcome {
	return outcome{reply: r, result: resultRejected, cause: domain.ErrInputRejected}
}

func (uc *conversationUC) start(ctx context.Context, ev model.Event) (outcome, error) {
	u, err := uc.Users.Get(ctx, ev.UserID)
	created := errors.Is(err, domain.ErrNotFound)
	if err != nil && !created {
		return outcome{}, err
	}
	out := outcome{
		reply:  uc.signPrompt(uc.Tr.T("welcome")),
		next:   model.ChoosingSign{},
		result: resultAccepted,
	}
	if created || (ev.Username != "" && u.Username != ev.Username) {
		name := ev.Username
		out.commit = func(ctx context.Context) error {
			if err := uc.Users.Upsert(ctx, ev.UserID, model.UserPatch{Username: &name}); err != nil {
				return err
			}
			if created {
				metrics.IncUsersCreated()
			}
			return nil
		}
	}
	return out, nil
}

func (uc *conversationUC) chooseSign(ev model.Event, input string) outcome {
	if input == model.PayloadSignByDate || (ev.Kind == model.EventText && input == uc.Tr.T("sign_by_date_button")) {
		return outcome{
			reply:  model.Reply{Text: uc.Tr.T("ask_birth_date")},
			next:   model.WaitingForBirthDate{},
			result: resultAccepted,
		}
	}

	sign, ok := parseSignInput(ev, input)
	if !ok {
		return rejected(uc.signPrompt(uc.Tr.T("choose_sign_from_keyboard")))
	}
	return outcome{
		reply:  uc.periodPrompt(uc.Tr.T("sign_chosen", sign.Label())),
		next:   model.ChoosingDate{Sign: sign},
		commit: uc.storeSign(ev.UserID, sign),
		result: resultAccepted,
	}
}

// parseSignInput accepts "sign_<key>" callbacks and the sign's label as text.
func parseSignInput(ev model.Event, input string) (zodiac.Sign, bool) {
	if ev.Kind == model.EventCallback {
		rest, ok := strings.CutPrefix(input, model.SignPrefix)
		if !ok {
			return "", false
		}
		s := zodiac.Sign(rest)
		return s, s.Valid()
	}
	return zodiac.ParseSign(input)
}

func (uc *conversationUC) birthDate(ev model.Event, input string) outcome {
	if ev.Kind != model.EventText {
		return rejected(model.Reply{Text: uc.Tr.T("birth_date_format")})
	}
	day, month, _, err := zodiac.ParseBirthDate(input)
	switch {
	case errors.Is(err, zodiac.ErrInvalidCalendarDate):
		return outcome{reply: model.Reply{Text: uc.Tr.T("birth_date_invalid")}, result: resultInvalidDate, cause: err}
	case err != nil:
		return outcome{reply: model.Reply{Text: uc.Tr.T("birth_date_format")}, result: resultInvalidDate, cause: err}
	}

	sign := zodiac.ResolveSign(day, month)
	return outcome{
		reply:  uc.periodPrompt(uc.Tr.T("sign_resolved", sign.Label())),
		next:   model.ChoosingDate{Sign: sign},
		commit: uc.storeSign(ev.UserID, sign),
		result: resultAccepted,
	}
}

func (uc *conversationUC) storeSign(userID int64, sign zodiac.Sign) func(context.Context) error {
	return func(ctx context.Context) error {
		return uc.Users.Upsert(ctx, userID, model.SignPatch(sign))
	}
}

func (uc *conversationUC) chooseDate(s model.ChoosingDate, input string) outcome {
	period, ok := model.ParsePeriodPayload(input)
	if !ok {
		return rejected(uc.periodPrompt(uc.Tr.T("choose_period_from_keyboard")))
	}
	return outcome{
		reply:  uc.categoryPrompt(uc.Tr.T("period_chosen", uc.Tr.T("period_"+string(period)))),
		next:   model.ChoosingType{Sign: s.Sign, Period: period},
		result: resultAccepted,
	}
}

func (uc *conversationUC) chooseType(ctx context.Context, ev model.Event, s model.ChoosingType, input string) (outcome, error) {
	category, ok := model.ParseCategoryPayload(input)
	if !ok {
		return rejected(uc.categoryPrompt(uc.Tr.T("choose_category_from_keyboard"))), nil
	}
	return uc.deliver(ctx, ev, s.Sign, s.Period, category)
}

// deliver runs the quota check and, within the free limit, hands out one horoscope.
// The counter is written with today's date, which also resets a stale day.
func (uc *conversationUC) deliver(ctx context.Context, ev model.Event, sign zodiac.Sign, period model.Period, category model.Category) (outcome, error) {
	today := model.DateIn(uc.cfg.Now(), uc.cfg.Location)

	u, err := uc.Users.Get(ctx, ev.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return outcome{}, err
	}
	count := u.EffectiveCount(today)

	if count >= uc.cfg.FreeLimit {
		metrics.IncQuotaExhausted()
		return outcome{
			reply:  uc.paymentPrompt(ev.UserID, uc.Tr.T("quota_exhausted")),
			next:   model.WaitingForPayment{},
			result: resultAccepted,
		}, nil
	}

	text := uc.Content.GetHoroscope(ctx, sign, period, category)
	return outcome{
		reply: model.Reply{
			Text:    uc.Tr.T("horoscope", text),
			Buttons: [][]model.Button{{{Label: uc.Tr.T("main_menu"), Payload: model.PayloadStartOver}}},
		},
		next: model.Idle{},
		commit: func(ctx context.Context) error {
			if err := uc.Users.Upsert(ctx, ev.UserID, model.CounterPatch(count+1, today)); err != nil {
				return err
			}
			metrics.IncHoroscopeDelivered(string(period), string(category))
			return nil
		},
		result: resultAccepted,
		after:  func() { uc.showAd(ctx, ev.UserID) },
	}, nil
}

func (uc *conversationUC) checkPayment(ctx context.Context, ev model.Event, input string) (outcome, error) {
	if input != model.PayloadCheckPayment {
		return rejected(uc.paymentPrompt(ev.UserID, uc.Tr.T("payment_waiting"))), nil
	}

	paid, err := uc.isPaid(ctx, ev.UserID)
	if err != nil || !paid {
		if err != nil {
			logging.With(ctx, uc.log).Warn().Err(err).Msg("payment check unresolved")
		}
		return outcome{
			reply:  uc.paymentPrompt(ev.UserID, uc.Tr.T("payment_not_found")),
			result: resultRejected,
			cause:  err,
		}, nil
	}

	return outcome{
		reply:  uc.signPrompt(uc.Tr.T("payment_confirmed")),
		next:   model.ChoosingSign{},
		commit: uc.resetAfterPayment(ev.UserID),
		result: resultAccepted,
	}, nil
}

// resetAfterPayment zeroes the counter, then settles single-use confirmations.
// A settle failure leaves the confirmation in place and is only logged.
func (uc *conversationUC) resetAfterPayment(userID int64) func(context.Context) error {
	return func(ctx context.Context) error {
		zero := 0
		if err := uc.Users.Upsert(ctx, userID, model.UserPatch{DailyHoroscopesGiven: &zero}); err != nil {
			return err
		}
		s, ok := uc.Gateway.(adapter.PaymentSettler)
		if !ok {
			return nil
		}
		if err := s.Settle(ctx, userID); err != nil {
			metrics.IncStoreError("payment_settle")
			logging.With(ctx, uc.log).Warn().Err(err).Msg("payment confirmation not settled")
		}
		return nil
	}
}

// isPaid bounds the gateway call; a timeout or gateway error is ErrGatewayTimeout.
func (uc *conversationUC) isPaid(ctx context.Context, userID int64) (bool, error) {
	cctx, cancel := context.WithTimeout(ctx, uc.cfg.PaymentTimeout)
	defer cancel()

	start := time.Now()
	paid, err := uc.Gateway.IsPaid(cctx, userID)
	result := "unpaid"
	switch {
	case err != nil:
		result = "timeout"
		err = fmt.Errorf("%w: %s: %v", domain.ErrGatewayTimeout, uc.Gateway.Name(), err)
	case paid:
		result = "paid"
	}
	metrics.ObservePaymentCheck(uc.Gateway.Name(), result, time.Since(start))
	return paid && err == nil, err
}

// showAd is fire-and-forget: failures are logged and counted, never surfaced.
func (uc *conversationUC) showAd(ctx context.Context, userID int64) {
	if uc.Ads == nil {
		return
	}
	traceID := logging.TraceID(ctx)
	task := func(ctx context.Context) error {
		ctx = logging.WithTgID(logging.WithTraceID(ctx, traceID), userID)
		if err := uc.Ads.ShowAd(ctx, userID); err != nil {
			metrics.IncAdShown("error")
			logging.With(ctx, uc.log).Warn().Err(err).Msg("ad notification failed")
			return nil
		}
		metrics.IncAdShown("ok")
		return nil
	}
	if uc.Pool == nil {
		_ = task(context.WithoutCancel(ctx))
		return
	}
	if err := uc.Pool.Submit(task); err != nil {
		metrics.IncAdShown("dropped")
		logging.With(ctx, uc.log).Warn().Err(err).Msg("ad notification not queued")
	}
}
