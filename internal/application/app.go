package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"telegram-horoscope-bot/internal/config"
	"telegram-horoscope-bot/internal/domain/ports/adapter"
	"telegram-horoscope-bot/internal/domain/ports/repository"
	"telegram-horoscope-bot/internal/infra/adapters/content"
	"telegram-horoscope-bot/internal/infra/adapters/payment"
	"telegram-horoscope-bot/internal/infra/adapters/telegram"
	"telegram-horoscope-bot/internal/infra/db/boltdb"
	"telegram-horoscope-bot/internal/infra/db/memory"
	pg "telegram-horoscope-bot/internal/infra/db/postgres"
	"telegram-horoscope-bot/internal/infra/i18n"
	"telegram-horoscope-bot/internal/infra/lock"
	"telegram-horoscope-bot/internal/infra/logging"
	"telegram-horoscope-bot/internal/infra/metrics"
	red "telegram-horoscope-bot/internal/infra/redis"
	"telegram-horoscope-bot/internal/infra/sched"
	"telegram-horoscope-bot/internal/infra/web"
	"telegram-horoscope-bot/internal/infra/worker"
	"telegram-horoscope-bot/internal/usecase"
)

const (
	sessionTTL     = 7 * 24 * time.Hour
	paymentMarkTTL = 24 * time.Hour
	userLockTTL    = 30 * time.Second
)

// lockLease covers the slowest event: a content call plus a payment check and store I/O.
// The lease is also renewed while held.
func lockLease(cfg *config.Config) time.Duration {
	lease := cfg.Payment.Timeout + cfg.Content.Timeout + 10*time.Second
	if lease < userLockTTL {
		return userLockTTL
	}
	return lease
}

// Options overrides parts of the wiring. A non-nil Sender replaces the
// Telegram client: no connection is made and Run neither polls nor registers
// a webhook.
type Options struct {
	Sender adapter.TelegramBotAdapter
}

// App owns every long-lived component of the bot.
type App struct {
	Config       *config.Config
	Conversation usecase.ConversationUseCase
	Stats        usecase.StatsUseCase
	Dispatch     usecase.DispatchUseCase
	Sender       adapter.TelegramBotAdapter
	Auth         *web.AuthManager

	log         *zerolog.Logger
	bot         *telegram.RealTelegramBotAdapter // nil when Options.Sender is set
	server      *web.Server
	webhookPath string
	dispatcher  *worker.KeyedDispatcher
	adPool      *worker.Pool
	sendPool    *worker.Pool
	dispatchJob *sched.DispatchWorker
	closers     []func() error
	closeOnce   sync.Once
}

// Build wires the application from cfg. Startup order: store (and schema),
// Redis, content, payment, use cases, Telegram. On error everything opened
// so far is closed again.
func Build(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, opts Options) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	a := &App{Config: cfg, log: logging.Component(logger, "app")}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()
	loc := cfg.Location()

	var redisClient *red.Client
	if needsRedis(cfg) {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, redisClient.Close)
	}

	users, err := a.openUserStore(ctx, cfg, redisClient, logger)
	if err != nil {
		return nil, err
	}

	var (
		sessions repository.SessionRepository
		locker   adapter.UserLocker
	)
	if cfg.Store.Sessions == "redis" {
		sessions = red.NewSessionRepo(redisClient, sessionTTL, logger)
		locker = red.NewLocker(redisClient, lockLease(cfg))
	} else {
		sessions = memory.NewSessionRepo()
		locker = lock.NewKeyedMutex()
	}

	tr := i18n.MustDefault()

	provider, err := newContentProvider(ctx, cfg.Content, logger)
	if err != nil {
		return nil, err
	}

	var (
		gateway adapter.PaymentGateway
		marks   repository.PaymentMarkRepository
	)
	switch cfg.Payment.Gateway {
	case "callback":
		marks = red.NewPaymentMarkRepo(redisClient, paymentMarkTTL)
		gateway = payment.NewCallbackGateway(marks)
	default:
		gateway = payment.NewSimulatedGateway(cfg.Payment.SimulatedDelay)
	}
	links := payment.NewLinks(cfg.Payment.AdsgramPayURL, cfg.Ads.AdsgramKey, cfg.Payment.TonWallet, cfg.Payment.TonAmountNano)

	var ads adapter.AdNotifier
	if cfg.Ads.AdsgramKey != "" {
		ads, err = payment.NewAdsgramNotifier(cfg.Ads.BaseURL, cfg.Ads.AdsgramKey, cfg.Ads.Timeout)
		if err != nil {
			return nil, fmt.Errorf("adsgram: %w", err)
		}
	} else {
		ads = payment.NewLogNotifier(logger)
	}

	a.adPool = worker.NewPool("ads", cfg.Ads.Workers, cfg.Ads.QueueSize, logger)
	a.sendPool = worker.NewPool("dispatch", cfg.Bot.Workers, cfg.Dispatch.BatchSize, logger)
	a.dispatcher = worker.NewKeyedDispatcher(cfg.Bot.MaxPending, logger)

	conv := usecase.NewConversationUseCase(usecase.ConversationDeps{
		Users:    red.FreshReads(users),
		Sessions: sessions,
		Content:  provider,
		Gateway:  gateway,
		Links:    links,
		Ads:      ads,
		Pool:     a.adPool,
		Locker:   locker,
		Tr:       tr,
	}, usecase.ConversationConfig{
		FreeLimit:      cfg.Quota.FreeLimit,
		Location:       loc,
		PaymentTimeout: cfg.Payment.Timeout,
		TonAmount:      links.TonAmount(),
	}, logger)
	a.Conversation = conv

	if opts.Sender != nil {
		a.Sender = opts.Sender
	} else {
		var limiter telegram.RateLimiter
		if cfg.Bot.RateLimit > 0 {
			limiter = red.NewRateLimiter(redisClient)
		}
		a.bot, err = telegram.NewRealTelegramBotAdapter(&cfg.Bot, conv, a.dispatcher, limiter, tr, logger)
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		a.Sender = a.bot
	}

	a.Stats = usecase.NewStatsUseCase(users, cfg.Quota.FreeLimit, loc, logger)
	a.Dispatch = usecase.NewDispatchUseCase(users, provider, a.Sender, a.sendPool, tr, usecase.DispatchConfig{
		PerSecond: cfg.Dispatch.PerSecond,
		BatchSize: cfg.Dispatch.BatchSize,
	}, logger)

	if cfg.Dispatch.Enabled {
		var claim sched.DayClaimer
		if redisClient != nil {
			claim = red.NewDayClaim(redisClient, "daily_dispatch")
		}
		a.dispatchJob = sched.NewDispatchWorker(cfg.Dispatch.Interval, cfg.Dispatch.Hour, loc, a.Dispatch, claim, logger)
	}

	a.Auth = web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	a.server = web.NewServer(a.Stats, a.Dispatch, marks, a.Auth, cfg.Payment.CallbackSecret, logger)
	if a.bot != nil && cfg.Bot.WebhookURL != "" {
		a.webhookPath, err = webhookPath(cfg.Bot.WebhookURL)
		if err != nil {
			return nil, err
		}
	}

	a.log.Info().
		Str("store", cfg.Store.Driver).
		Bool("cache", cfg.Store.Cache).
		Str("sessions", cfg.Store.Sessions).
		Str("content", cfg.Content.Provider).
		Str("gateway", gateway.Name()).
		Bool("webhook", a.webhookPath != "").
		Msg("application wired")
	return a, nil
}

func needsRedis(cfg *config.Config) bool {
	return cfg.Store.Cache || cfg.Store.Sessions == "redis" || cfg.Payment.Gateway == "callback" ||
		cfg.Bot.RateLimit > 0 || (cfg.Dispatch.Enabled && cfg.Redis.URL != "")
}

func (a *App) openUserStore(ctx context.Context, cfg *config.Config, redisClient *red.Client, logger *zerolog.Logger) (repository.UserRepository, error) {
	var users repository.UserRepository
	switch strings.ToLower(cfg.Store.Driver) {
	case "postgres":
		pool, err := pg.Connect(ctx, cfg.Store.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		if err := pg.EnsureSchema(ctx, pool); err != nil {
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		users = pg.NewUserRepo(pool)
	case "bolt":
		repo, err := boltdb.Open(cfg.Store.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("bolt: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		users = repo
	default:
		users = memory.NewUserRepo()
	}
	if cfg.Store.Cache {
		users = red.NewUserRepoCacheDecorator(users, redisClient, cfg.Redis.TTL, logger)
	}
	return users, nil
}

func newContentProvider(ctx context.Context, cfg config.ContentConfig, logger *zerolog.Logger) (adapter.ContentProvider, error) {
	static, err := content.NewStaticProvider()
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	var gen content.Generator
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		gen, err = content.NewOpenAIGenerator(cfg.OpenAIKey, cfg.OpenAIURL, cfg.Model)
	case "gemini":
		gen, err = content.NewGeminiGenerator(ctx, cfg.GeminiKey, cfg.Model)
	case "auto":
		gen, err = autoGenerator(ctx, cfg)
	default:
		return static, nil
	}
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", cfg.Provider, err)
	}
	budget := content.NewBudget(cfg.MaxTokens)
	return content.NewAIProvider(gen, static, budget, cfg.MaxTokens, cfg.Timeout, cfg.ConcurrentLimit, logger), nil
}

// autoGenerator chains every backend that has a key, OpenAI first.
func autoGenerator(ctx context.Context, cfg config.ContentConfig) (content.Generator, error) {
	var gens []content.Generator
	if cfg.OpenAIKey != "" {
		g, err := content.NewOpenAIGenerator(cfg.OpenAIKey, cfg.OpenAIURL, cfg.Model)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	if cfg.GeminiKey != "" {
		g, err := content.NewGeminiGenerator(ctx, cfg.GeminiKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	return content.NewChainGenerator(gens...)
}

// webhookPath returns the path component of the public webhook URL.
func webhookPath(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("bot.webhook_url: %w", err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return "", fmt.Errorf("bot.webhook_url must be an absolute https URL, got %q", raw)
	}
	if u.Path == "" || u.Path == "/" {
		return "", errors.New("bot.webhook_url needs a non-root path")
	}
	return u.Path, nil
}

// Handler returns the HTTP routes; Telegram updates posted to the webhook path run on ctx.
func (a *App) Handler(ctx context.Context) http.Handler {
	var webhook http.Handler
	if a.bot != nil && a.webhookPath != "" {
		webhook = a.bot.WebhookHandler(ctx)
	}
	return a.server.Router(ctx, a.webhookPath, webhook)
}

// Run starts the workers, the HTTP server and Telegram intake, and blocks until
// ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	a.adPool.Start(ctx)
	a.sendPool.Start(ctx)
	a.dispatcher.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return web.Serve(gctx, a.Config.HTTP.Addr, a.Handler(gctx), a.log) })

	if a.dispatchJob != nil {
		g.Go(func() error { return ignoreCanceled(a.dispatchJob.Run(gctx)) })
	}

	g.Go(func() error {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-t.C:
				metrics.SetActiveUsers(a.dispatcher.Active())
			}
		}
	})

	if a.bot != nil {
		if a.webhookPath != "" {
			if err := a.bot.SetWebhook(a.Config.Bot.WebhookURL); err != nil {
				return fmt.Errorf("set webhook: %w", err)
			}
			a.log.Info().Str("path", a.webhookPath).Msg("telegram webhook registered")
		} else {
			g.Go(func() error {
				a.log.Info().Msg("telegram long polling started")
				return ignoreCanceled(a.bot.StartPolling(gctx))
			})
		}
	}

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close drains the update queues, stops the pools and releases stores.
func (a *App) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		if a.dispatcher != nil {
			a.dispatcher.Stop()
		}
		if a.adPool != nil {
			a.adPool.Stop()
		}
		if a.sendPool != nil {
			a.sendPool.Stop()
		}
		for i := len(a.closers) - 1; i >= 0; i-- {
			if err := a.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
