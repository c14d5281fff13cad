package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Task is a named periodic job. Run is retried within a cycle; a
// cycle that exhausts its retries is logged and skipped, the next
// tick starts fresh.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner drives a set of periodic tasks. Each task runs once at
// startup and then on its own ticker until the context is cancelled.
type Runner struct {
	tasks      []Task
	retryDelay time.Duration
	maxRetries uint64
	wg         sync.WaitGroup
}

// New builds a runner. Every cycle gets three attempts, with a
// linearly increasing delay between them.
func New(tasks []Task, retryDelay time.Duration) *Runner {
	if retryDelay <= 0 {
		retryDelay = 10 * time.Second
	}
	return &Runner{
		tasks:      tasks,
		retryDelay: retryDelay,
		maxRetries: 2,
	}
}

// Start launches one goroutine per task and returns immediately.
// Cancel the context to stop; Wait blocks until all tasks exit.
func (r *Runner) Start(ctx context.Context) {
	for _, task := range r.tasks {
		r.wg.Add(1)
		go func(t Task) {
			defer r.wg.Done()
			r.loop(ctx, t)
		}(task)
	}
}

// Wait blocks until every task goroutine has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, t Task) {
	r.cycle(ctx, t)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[scheduler] %s stopped", t.Name)
			return
		case <-ticker.C:
			r.cycle(ctx, t)
		}
	}
}

// linearBackOff waits step, 2*step, 3*step, ... between attempts, so
// a flapping upstream gets progressively more room without the long
// tail an exponential policy would add to a short cycle.
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

func (r *Runner) cycle(ctx context.Context, t Task) {
	started := time.Now()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{step: r.retryDelay}, r.maxRetries), ctx)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		if err := t.Run(ctx); err != nil {
			log.Printf("[scheduler] %s attempt %d failed: %v", t.Name, attempt, err)
			return err
		}
		return nil
	}, policy)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("[scheduler] %s cycle failed after %d attempts, skipping until next tick", t.Name, attempt)
		return
	}
	log.Printf("[scheduler] %s completed in %s", t.Name, time.Since(started).Round(time.Millisecond))
}
