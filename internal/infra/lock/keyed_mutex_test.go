//go:build !integration

package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"telegram-horoscope-bot/internal/domain"
)

func TestKeyedMutex_ExcludesSameUser(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	var mu sync.Mutex
	inside := 0
	maxInside := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(ctx, 42)
			if err != nil {
				t.Errorf("Lock() error = %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside)
	}
	if n := m.Len(); n != 0 {
		t.Errorf("Len() = %d after all unlocks, want 0", n)
	}
}

func TestKeyedMutex_DifferentUsersDoNotBlock(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := m.Lock(ctx, 1)
	if err != nil {
		t.Fatalf("Lock(1) error = %v", err)
	}
	defer unlockA()

	ctxB, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := m.Lock(ctxB, 2)
	if err != nil {
		t.Fatalf("Lock(2) blocked by user 1: %v", err)
	}
	unlockB()
}

func TestKeyedMutex_ContextCancel(t *testing.T) {
	m := NewKeyedMutex()
	unlock, _ := m.Lock(context.Background(), 5)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx, 5); !errors.Is(err, domain.ErrLockNotAcquired) {
		t.Errorf("Lock() error = %v, want ErrLockNotAcquired", err)
	}

	unlock()
	unlock() // second call is a no-op
	if n := m.Len(); n != 0 {
		t.Errorf("Len() = %d, want 0", n)
	}
}

func TestKeyedMutex_CancelledContextOnFreeSlot(t *testing.T) {
	m := NewKeyedMutex()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 100; i++ {
		unlock, err := m.Lock(ctx, 6)
		if !errors.Is(err, domain.ErrLockNotAcquired) {
			if unlock != nil {
				unlock()
			}
			t.Fatalf("attempt %d: Lock() error = %v, want ErrLockNotAcquired", i, err)
		}
	}
	if n := m.Len(); n != 0 {
		t.Errorf("Len() = %d, want 0", n)
	}
}
