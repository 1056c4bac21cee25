// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token      string        `yaml:"token"`
	Username   string        `yaml:"username"`
	WebhookURL string        `yaml:"webhook_url"` // empty = long polling
	Workers    int           `yaml:"workers"`     // update fan-out goroutines
	MaxPending int           `yaml:"max_pending"` // queued updates per user before dropping
	RateLimit  int           `yaml:"rate_limit"`  // updates per user per RateWindow, 0 = off
	RateWindow time.Duration `yaml:"rate_window"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver"` // postgres|bolt|memory
	DatabaseURL string `yaml:"database_url"`
	BoltPath    string `yaml:"bolt_path"`
	Cache       bool   `yaml:"cache"`    // wrap the store with the Redis read-through cache
	Sessions    string `yaml:"sessions"` // memory|redis
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type QuotaConfig struct {
	FreeLimit int    `yaml:"free_limit"`
	Timezone  string `yaml:"timezone"` // reference zone for the day boundary
}

type PaymentConfig struct {
	Gateway        string        `yaml:"gateway"` // simulated|callback
	SimulatedDelay time.Duration `yaml:"simulated_delay"`
	Timeout        time.Duration `yaml:"timeout"`
	CallbackSecret string        `yaml:"callback_secret"`
	TonWallet      string        `yaml:"ton_wallet"`
	TonAmountNano  int64         `yaml:"ton_amount_nano"`
	AdsgramPayURL  string        `yaml:"adsgram_pay_url"`
}

type AdsConfig struct {
	AdsgramKey string        `yaml:"adsgram_key"`
	BaseURL    string        `yaml:"base_url"`
	Timeout    time.Duration `yaml:"timeout"`
	Workers    int           `yaml:"workers"`
	QueueSize  int           `yaml:"queue_size"`
}

type ContentConfig struct {
	Provider        string        `yaml:"provider"` // static|openai|gemini|auto
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIURL       string        `yaml:"openai_url"`
	GeminiKey       string        `yaml:"gemini_key"`
	Model           string        `yaml:"model"`
	MaxTokens       int           `yaml:"max_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
}

type DispatchConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Hour      int           `yaml:"hour"`     // local hour in quota.timezone
	Interval  time.Duration `yaml:"interval"` // how often the worker checks the clock
	PerSecond int           `yaml:"per_second"`
	BatchSize int           `yaml:"batch_size"`
}

type AdminConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Quota    QuotaConfig    `yaml:"quota"`
	Payment  PaymentConfig  `yaml:"payment"`
	Ads      AdsConfig      `yaml:"ads"`
	Content  ContentConfig  `yaml:"content"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Admin    AdminConfig    `yaml:"admin"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads .env (if any), the YAML file at path, applies environment
// overrides for secrets, then defaults and minimal validation.
// A missing YAML file is allowed when the environment supplies the token.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	envStr(&cfg.Bot.Token, "BOT_TOKEN")
	envStr(&cfg.Bot.WebhookURL, "WEBHOOK_URL")
	envStr(&cfg.Store.DatabaseURL, "DATABASE_URL")
	envStr(&cfg.Redis.URL, "REDIS_URL")
	envStr(&cfg.Ads.AdsgramKey, "ADSGRAM_API_KEY")
	envStr(&cfg.Payment.TonWallet, "TON_WALLET_ADDRESS")
	envStr(&cfg.Payment.CallbackSecret, "PAYMENT_CALLBACK_SECRET")
	envStr(&cfg.Content.OpenAIKey, "OPENAI_API_KEY")
	envStr(&cfg.Content.GeminiKey, "GEMINI_API_KEY")
	envStr(&cfg.Admin.JWTSecret, "ADMIN_JWT_SECRET")
}

func envStr(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.MaxPending <= 0 {
		cfg.Bot.MaxPending = 32
	}
	if cfg.Bot.RateWindow <= 0 {
		cfg.Bot.RateWindow = time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}
	if cfg.Store.BoltPath == "" {
		cfg.Store.BoltPath = "horoscope.db"
	}
	if cfg.Store.Sessions == "" {
		cfg.Store.Sessions = "memory"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Quota.FreeLimit <= 0 {
		cfg.Quota.FreeLimit = 2
	}
	if cfg.Quota.Timezone == "" {
		cfg.Quota.Timezone = "UTC"
	}
	if cfg.Payment.Gateway == "" {
		cfg.Payment.Gateway = "simulated"
	}
	if cfg.Payment.SimulatedDelay <= 0 {
		cfg.Payment.SimulatedDelay = 5 * time.Second
	}
	if cfg.Payment.Timeout <= 0 {
		cfg.Payment.Timeout = 10 * time.Second
	}
	if cfg.Payment.TonAmountNano <= 0 {
		cfg.Payment.TonAmountNano = 50_000_000 // 0.05 TON
	}
	if cfg.Payment.AdsgramPayURL == "" {
		cfg.Payment.AdsgramPayURL = "https://adsgram.ai/pay"
	}
	if cfg.Ads.BaseURL == "" {
		cfg.Ads.BaseURL = "https://api.adsgram.ai"
	}
	if cfg.Ads.Timeout <= 0 {
		cfg.Ads.Timeout = 5 * time.Second
	}
	if cfg.Ads.Workers <= 0 {
		cfg.Ads.Workers = 4
	}
	if cfg.Ads.QueueSize <= 0 {
		cfg.Ads.QueueSize = 256
	}
	if cfg.Content.Provider == "" {
		cfg.Content.Provider = "static"
	}
	if cfg.Content.Model == "" {
		cfg.Content.Model = "gpt-4o-mini"
	}
	if cfg.Content.MaxTokens <= 0 {
		cfg.Content.MaxTokens = 300
	}
	if cfg.Content.Timeout <= 0 {
		cfg.Content.Timeout = 15 * time.Second
	}
	if cfg.Content.ConcurrentLimit <= 0 {
		cfg.Content.ConcurrentLimit = 16
	}
	if cfg.Dispatch.Hour < 0 || cfg.Dispatch.Hour > 23 {
		cfg.Dispatch.Hour = 9
	}
	if cfg.Dispatch.Interval <= 0 {
		cfg.Dispatch.Interval = time.Minute
	}
	if cfg.Dispatch.PerSecond <= 0 {
		cfg.Dispatch.PerSecond = 25 // Telegram allows ~30 msg/s per bot
	}
	if cfg.Dispatch.BatchSize <= 0 {
		cfg.Dispatch.BatchSize = 200
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 24 * time.Hour
	}
}

// Validate is the minimal validation done at startup.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	switch strings.ToLower(c.Store.Driver) {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return errors.New("store.database_url is required for the postgres driver")
		}
	case "bolt", "memory":
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	needRedis := c.Store.Cache || c.Store.Sessions == "redis" || c.Payment.Gateway == "callback" || c.Bot.RateLimit > 0
	if needRedis && c.Redis.URL == "" {
		return errors.New("redis.url is required by the selected store/session/payment options")
	}
	if c.Payment.Gateway == "callback" && c.Payment.CallbackSecret == "" {
		return errors.New("payment.callback_secret is required for the callback gateway")
	}
	if _, err := time.LoadLocation(c.Quota.Timezone); err != nil {
		return fmt.Errorf("quota.timezone: %w", err)
	}
	return nil
}

// Location returns the reference timezone for the daily counter.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Quota.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
