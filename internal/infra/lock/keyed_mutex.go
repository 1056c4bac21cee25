package lock

import (
	"context"
	"fmt"
	"sync"

	"telegram-horoscope-bot/internal/domain"
	"telegram-horoscope-bot/internal/domain/ports/adapter"
)

var _ adapter.UserLocker = (*KeyedMutex)(nil)

// KeyedMutex is an in-process per-user lock. Entries are reference counted and
// removed when nobody holds or waits on them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[int64]*entry)}
}

func (k *KeyedMutex) Lock(ctx context.Context, userID int64) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLockNotAcquired, err)
	}
	k.mu.Lock()
	e, ok := k.entries[userID]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.entries[userID] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(userID, e)
		return nil, fmt.Errorf("%w: %v", domain.ErrLockNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(userID, e)
		})
	}, nil
}

func (k *KeyedMutex) release(userID int64, e *entry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, userID)
	}
	k.mu.Unlock()
}

// Len returns the number of users currently holding or waiting on a lock.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
