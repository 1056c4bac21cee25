//go:build !integration

package redis

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/model"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

var errRedisDown = errors.New("redis down")

// memRedis is an in-memory RedisClient. Setting down makes every call fail.
type memRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	down bool

	expires int
}

var _ RedisClient = (*memRedis)(nil)

func newMemRedis() *memRedis {
	return &memRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}

func (m *memRedis) Ping(ctx context.Context) error {
	if m.down {
		return errRedisDown
	}
	return nil
}

func (m *memRedis) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errRedisDown
	}
	m.data[key] = toString(value)
	m.ttls[key] = exp
	return nil
}

func (m *memRedis) SetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return false, errRedisDown
	}
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = toString(value)
	m.ttls[key] = exp
	return true, nil
}

func (m *memRedis) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return "", errRedisDown
	}
	v, ok := m.data[key]
	if !ok {
		return "", ErrNil
	}
	return v, nil
}

func (m *memRedis) GetDel(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return "", errRedisDown
	}
	v, ok := m.data[key]
	if !ok {
		return "", ErrNil
	}
	delete(m.data, key)
	return v, nil
}

func (m *memRedis) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return 0, errRedisDown
	}
	var n int64
	for _, c := range m.data[key] {
		n = n*10 + int64(c-'0')
	}
	n++
	m.data[key] = itoa(n)
	return n, nil
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	var b []byte
	for n > 0 {
		b = append([]byte{byte('0' + n%10)}, b...)
		n /= 10
	}
	return string(b)
}

func (m *memRedis) Expire(ctx context.Context, key string, exp time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errRedisDown
	}
	m.ttls[key] = exp
	return nil
}

func (m *memRedis) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errRedisDown
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memRedis) CompareAndDelete(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errRedisDown
	}
	if m.data[key] == value {
		delete(m.data, key)
	}
	return nil
}

func (m *memRedis) CompareAndExpire(ctx context.Context, key, value string, exp time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires++
	if m.down {
		return false, errRedisDown
	}
	if v, ok := m.data[key]; !ok || v != value {
		return false, nil
	}
	m.ttls[key] = exp
	return true, nil
}

// value reads a key under the mutex, for assertions racing with a renewal goroutine.
func (m *memRedis) value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memRedis) expireCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expires
}

func (m *memRedis) Close() error { return nil }

// mockInnerUserRepo mocks the store that the cache decorator wraps.
type mockInnerUserRepo struct {
	GetFunc          func(ctx context.Context, userID int64) (*model.UserRecord, error)
	UpsertFunc       func(ctx context.Context, userID int64, patch model.UserPatch) error
	ListWithSignFunc func(ctx context.Context, offset, limit int) ([]*model.UserRecord, error)
	CountFunc        func(ctx context.Context) (int, error)

	getCalls int
}

func (m *mockInnerUserRepo) Get(ctx context.Context, userID int64) (*model.UserRecord, error) {
	m.getCalls++
	if m.GetFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.GetFunc(ctx, userID)
}

func (m *mockInnerUserRepo) Upsert(ctx context.Context, userID int64, patch model.UserPatch) error {
	if m.UpsertFunc == nil {
		return nil
	}
	return m.UpsertFunc(ctx, userID, patch)
}

func (m *mockInnerUserRepo) ListWithSign(ctx context.Context, offset, limit int) ([]*model.UserRecord, error) {
	return m.ListWithSignFunc(ctx, offset, limit)
}

func (m *mockInnerUserRepo) Count(ctx context.Context) (int, error) {
	return m.CountFunc(ctx)
}
