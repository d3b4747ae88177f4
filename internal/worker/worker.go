package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is a long-running unit of work. It must return once ctx is done.
type Task func(ctx context.Context) error

// ErrShutdownTimeout is reported when tasks outlive the shutdown budget.
var ErrShutdownTimeout = errors.New("worker: shutdown timeout exceeded")

// Pool runs named background tasks under one cancellable context. The first
// task to fail cancels the pool so its siblings wind down too.
type Pool struct {
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu   sync.Mutex
	errs []error
}

// NewPool creates a new worker pool derived from parent
func NewPool(parent context.Context, logger *slog.Logger) *Pool {
	ctx, cancel := context.WithCancel(parent)
	return &Pool{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Go starts task in its own goroutine and tracks it
func (p *Pool) Go(name string, task Task) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.logger.Debug("▶️ [Worker] Task started", "task", name)
		if err := p.run(task); err != nil {
			p.logger.Error("❌ [Worker] Task failed", "task", name, "error", err)
			p.record(fmt.Errorf("%s: %w", name, err))
			p.cancel()
			return
		}
		p.logger.Debug("⏹️ [Worker] Task finished", "task", name)
	}()
}

func (p *Pool) run(task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return task(p.ctx)
}

func (p *Pool) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}

// Done is closed when the pool is cancelled, by Shutdown, by the parent
// context or by a failing task.
func (p *Pool) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Shutdown signals all tasks to stop and waits up to timeout for them.
// It returns the joined task errors, plus ErrShutdownTimeout if the wait
// ran out.
func (p *Pool) Shutdown(timeout time.Duration) error {
	p.logger.Info("🛑 [Worker] Initiating graceful shutdown...")

	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	var timedOut bool
	select {
	case <-done:
		p.logger.Info("✅ [Worker] All background tasks completed")
	case <-time.After(timeout):
		timedOut = true
		p.logger.Warn("⚠️ [Worker] Shutdown timeout exceeded, some tasks may not have completed",
			"timeout", timeout,
		)
	}

	p.mu.Lock()
	errs := append([]error(nil), p.errs...)
	p.mu.Unlock()

	if timedOut {
		errs = append(errs, ErrShutdownTimeout)
	}
	return errors.Join(errs...)
}
