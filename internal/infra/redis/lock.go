// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/ports/adapter"
)

var _ adapter.UserLocker = (*RedisLocker)(nil)

// RedisLocker is a SET NX lease lock, used to serialize a user's events across replicas.
// A held lease is extended every ttl/3 until it is released.
type RedisLocker struct {
	cli   RedisClient
	ttl   time.Duration
	retry time.Duration
}

func NewLocker(c RedisClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{cli: c, ttl: ttl, retry: 50 * time.Millisecond}
}

func userLockKey(userID int64) string {
	return fmt.Sprintf("lock:user:%d", userID)
}

// Lock keeps retrying until the lease is taken or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	key := userLockKey(userID)
	token := uuid.NewString()
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrLockNotAcquired, err)
		}
		ok, err := l.cli.SetNX(ctx, key, token, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrLockNotAcquired, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.renew(key, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// released with a fresh context so a cancelled request still frees the lease
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = l.cli.CompareAndDelete(ctx, key, token)
		})
	}, nil
}

// renew extends the lease while it is still ours. It stops on release or
// once the lease turns out to belong to someone else.
func (l *RedisLocker) renew(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(l.ttl / 3)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
			ok, err := l.cli.CompareAndExpire(ctx, key, token, l.ttl)
			cancel()
			if err == nil && !ok {
				return
			}
		}
	}
}
