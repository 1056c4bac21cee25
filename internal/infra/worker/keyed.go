package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/infra/metrics"
)

// KeyedDispatcher runs tasks for the same key strictly in submission order,
// and tasks for different keys concurrently. Each active key owns one goroutine
// that exits as soon as its queue is empty.
type KeyedDispatcher struct {
	mu         sync.Mutex
	queues     map[int64][]Task
	maxPending int
	ctx        context.Context
	closed     bool
	wg         sync.WaitGroup
	log        *zerolog.Logger
}

func NewKeyedDispatcher(maxPending int, logger *zerolog.Logger) *KeyedDispatcher {
	if maxPending <= 0 {
		maxPending = 32
	}
	l := logger.With().Str("component", "keyed_dispatcher").Logger()
	return &KeyedDispatcher{
		queues:     make(map[int64][]Task),
		maxPending: maxPending,
		log:        &l,
	}
}

// Start sets the context handed to every task.
func (d *KeyedDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()
}

// Dispatch enqueues task behind the pending tasks of key.
func (d *KeyedDispatcher) Dispatch(key int64, task Task) error {
	if task == nil {
		return ErrNilTask
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.ctx == nil {
		return ErrStopped
	}
	q, running := d.queues[key]
	if len(q) >= d.maxPending {
		metrics.IncQueueRejected("keyed")
		return ErrQueueFull
	}
	d.queues[key] = append(q, task)
	if !running {
		d.wg.Add(1)
		go d.drain(key)
		metrics.SetActiveUsers(len(d.queues))
	}
	return nil
}

func (d *KeyedDispatcher) drain(key int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[key]
		if len(q) == 0 {
			delete(d.queues, key)
			active := len(d.queues)
			d.mu.Unlock()
			metrics.SetActiveUsers(active)
			return
		}
		task := q[0]
		q[0] = nil
		d.queues[key] = q[1:]
		ctx := d.ctx
		d.mu.Unlock()

		d.run(ctx, key, task)
	}
}

func (d *KeyedDispatcher) run(ctx context.Context, key int64, task Task) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Int64("key", key).Interface("panic", r).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		d.log.Warn().Err(err).Int64("key", key).Msg("task error")
	}
}

// Active returns the number of keys with queued or running tasks.
func (d *KeyedDispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Stop rejects new tasks and waits until every queued task has run.
func (d *KeyedDispatcher) Stop() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
