// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"telegram-horoscope-bot/internal/infra/metrics"
)

var (
	ErrNilTask   = errors.New("nil task")
	ErrQueueFull = errors.New("worker queue full")
	ErrStopped   = errors.New("worker stopped")
)

type Task func(ctx context.Context) error

// Pool runs fire-and-forget tasks on a fixed number of goroutines.
type Pool struct {
	name string
	wg   sync.WaitGroup
	jobs chan Task
	quit chan struct{}
	n    int
	log  *zerolog.Logger

	stopOnce sync.Once
}

func NewPool(name string, workers, queueSize int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	l := logger.With().Str("component", "worker_pool").Str("pool", name).Logger()
	return &Pool{name: name, jobs: make(chan Task, queueSize), quit: make(chan struct{}), n: workers, log: &l}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					p.run(ctx, id, task)
				}
			}
		}(i)
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker", id).Interface("panic", r).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Warn().Err(err).Int("worker", id).Msg("task error")
	}
}

// Stop signals the workers and waits for in-flight tasks. Queued tasks are dropped.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit never blocks: it drops the task when the queue is saturated.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}
	select {
	case <-p.quit:
		return ErrStopped
	default:
	}
	select {
	case p.jobs <- task:
		return nil
	default:
		metrics.IncQueueRejected(p.name)
		return ErrQueueFull
	}
}
