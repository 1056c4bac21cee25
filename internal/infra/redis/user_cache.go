package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/model"
	"telegram-horoscope-bot/internal/domain/ports/repository"
	"telegram-horoscope-bot/internal/infra/metrics"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// userRepoCacheDecorator is a read-through cache over any UserRepository.
// Writes go to the inner store first and then drop the cached entry.
type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.UserRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	l := logger.With().Str("component", "user_cache").Logger()
	return &userRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: &l}
}

func userKey(userID int64) string {
	return fmt.Sprintf("user:tgid:%d", userID)
}

func (d *userRepoCacheDecorator) Get(ctx context.Context, userID int64) (*model.UserRecord, error) {
	key := userKey(userID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var u model.UserRecord
		if json.Unmarshal([]byte(val), &u) == nil {
			metrics.IncCacheRequest("user", "hit")
			return &u, nil
		}
	} else if !errors.Is(err, ErrNil) {
		d.log.Warn().Err(err).Msg("cache read failed; falling back to store")
	}

	metrics.IncCacheRequest("user", "miss")
	u, err := d.inner.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(u); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return u, nil
}

// Upsert drops the cached entry before and after the write, so a read that
// raced the write cannot leave a pre-write record behind for long.
func (d *userRepoCacheDecorator) Upsert(ctx context.Context, userID int64, patch model.UserPatch) error {
	key := userKey(userID)
	if err := d.cache.Del(ctx, key); err != nil {
		return fmt.Errorf("%w: cache invalidation: %v", domain.ErrStoreUnavailable, err)
	}
	if err := d.inner.Upsert(ctx, userID, patch); err != nil {
		return err
	}
	if err := d.cache.Del(ctx, key); err != nil {
		d.log.Warn().Err(err).Int64("tg_id", userID).Msg("cache invalidation failed")
	}
	return nil
}

// FreshReads returns a view of repo whose Get always goes to the store while
// writes still invalidate the cache. Use it where a stale counter would be
// acted on. Uncached repositories are returned as is.
func FreshReads(repo repository.UserRepository) repository.UserRepository {
	if d, ok := repo.(*userRepoCacheDecorator); ok {
		return freshReadRepo{d}
	}
	return repo
}

type freshReadRepo struct {
	*userRepoCacheDecorator
}

func (f freshReadRepo) Get(ctx context.Context, userID int64) (*model.UserRecord, error) {
	metrics.IncCacheRequest("user", "bypass")
	return f.inner.Get(ctx, userID)
}

// Pass-through methods that don't need caching
func (d *userRepoCacheDecorator) ListWithSign(ctx context.Context, offset, limit int) ([]*model.UserRecord, error) {
	metrics.IncCacheRequest("user_list", "bypass")
	return d.inner.ListWithSign(ctx, offset, limit)
}

func (d *userRepoCacheDecorator) Count(ctx context.Context) (int, error) {
	return d.inner.Count(ctx)
}
