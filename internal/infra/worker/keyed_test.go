//go:build !integration

package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestKeyedDispatcher_PreservesOrderPerKey(t *testing.T) {
	d := NewKeyedDispatcher(100, newTestLogger())
	d.Start(context.Background())

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 50; i++ {
		for _, key := range []int64{1, 2, 3} {
			i, key := i, key
			err := d.Dispatch(key, func(context.Context) error {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
		}
	}
	d.Stop()

	for _, key := range []int64{1, 2, 3} {
		seq := got[key]
		if len(seq) != 50 {
			t.Fatalf("key %d ran %d tasks, want 50", key, len(seq))
		}
		for i, v := range seq {
			if v != i {
				t.Fatalf("key %d out of order at %d: got %d", key, i, v)
			}
		}
	}
	if n := d.Active(); n != 0 {
		t.Errorf("Active() = %d after Stop, want 0", n)
	}
}

func TestKeyedDispatcher_NoInterleavingWithinKey(t *testing.T) {
	d := NewKeyedDispatcher(100, newTestLogger())
	d.Start(context.Background())

	var mu sync.Mutex
	running := 0
	overlap := false
	for i := 0; i < 20; i++ {
		_ = d.Dispatch(7, func(context.Context) error {
			mu.Lock()
			running++
			if running > 1 {
				overlap = true
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			running--
			mu.Unlock()
			return nil
		})
	}
	d.Stop()
	if overlap {
		t.Error("tasks for the same key overlapped")
	}
}

func TestKeyedDispatcher_SlowKeyDoesNotBlockOthers(t *testing.T) {
	d := NewKeyedDispatcher(10, newTestLogger())
	d.Start(context.Background())
	defer d.Stop()

	release := make(chan struct{})
	_ = d.Dispatch(1, func(context.Context) error {
		<-release
		return nil
	})

	done := make(chan struct{})
	_ = d.Dispatch(2, func(context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("key 2 was blocked by a slow task on key 1")
	}
	close(release)
}

func TestKeyedDispatcher_Rejections(t *testing.T) {
	t.Run("not started", func(t *testing.T) {
		d := NewKeyedDispatcher(1, newTestLogger())
		if err := d.Dispatch(1, func(context.Context) error { return nil }); !errors.Is(err, ErrStopped) {
			t.Errorf("Dispatch() error = %v, want ErrStopped", err)
		}
	})

	t.Run("per-key backlog full", func(t *testing.T) {
		d := NewKeyedDispatcher(1, newTestLogger())
		d.Start(context.Background())
		release := make(chan struct{})
		started := make(chan struct{})
		_ = d.Dispatch(1, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
		<-started
		if err := d.Dispatch(1, func(context.Context) error { return nil }); err != nil {
			t.Fatalf("Dispatch() into empty backlog error = %v", err)
		}
		if err := d.Dispatch(1, func(context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
			t.Errorf("Dispatch() error = %v, want ErrQueueFull", err)
		}
		close(release)
		d.Stop()
	})
}
