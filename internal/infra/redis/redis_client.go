package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"telegram-horoscope-bot/internal/config"

	"github.com/go-redis/redis/v8"
)

// ErrNil is returned by Get/GetDel when the key does not exist.
var ErrNil = redis.Nil

type RedisClient interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	GetDel(ctx context.Context, key string) (string, error)
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// CompareAndDelete removes key only while it still holds value.
	CompareAndDelete(ctx context.Context, key, value string) error
	// CompareAndExpire resets the key's TTL only while it still holds value.
	CompareAndExpire(ctx context.Context, key, value string, expiration time.Duration) (bool, error)
	Close() error
}

var _ RedisClient = (*Client)(nil)

type Client struct {
	cli *redis.Client
}

// NewClient accepts either a redis:// URL or a bare host:port address and
// pings the server before returning.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Client{cli: c}, nil
}

func options(cfg *config.RedisConfig) (*redis.Options, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("redis url is empty")
	}
	if strings.HasPrefix(cfg.URL, "redis://") || strings.HasPrefix(cfg.URL, "rediss://") {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		if cfg.Password != "" {
			opts.Password = cfg.Password
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

func (c *Client) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.cli.Set(ctx, key, value, expiration).Err()
}

func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return c.cli.SetNX(ctx, key, value, expiration).Result()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.cli.Get(ctx, key).Result()
}

func (c *Client) GetDel(ctx context.Context, key string) (string, error) {
	return c.cli.GetDel(ctx, key).Result()
}

func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.cli.Incr(ctx, key).Result()
}

func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return c.cli.Expire(ctx, key, expiration).Err()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.cli.Del(ctx, keys...).Err()
}

var luaCompareAndDelete = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (c *Client) CompareAndDelete(ctx context.Context, key, value string) error {
	_, err := luaCompareAndDelete.Run(ctx, c.cli, []string{key}, value).Result()
	return err
}

var luaCompareAndExpire = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end`)

func (c *Client) CompareAndExpire(ctx context.Context, key, value string, expiration time.Duration) (bool, error) {
	n, err := luaCompareAndExpire.Run(ctx, c.cli, []string{key}, value, expiration.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *Client) Close() error { return c.cli.Close() }
