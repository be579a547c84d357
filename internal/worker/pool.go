// Package worker runs background tasks on a fixed-size in-process pool,
// decoupled from the HTTP request/response lifetime.
package worker

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

type Task func(ctx context.Context)

type Pool struct {
	logger *slog.Logger
	tasks  chan Task
	group  *errgroup.Group
}

// NewPool starts workers goroutines draining the task queue. Tasks receive
// a background context: once scheduled, a task runs to completion and is
// never cancelled externally.
func NewPool(workers int, logger *slog.Logger) *Pool {
	p := &Pool{
		logger: logger,
		tasks:  make(chan Task, 64),
		group:  &errgroup.Group{},
	}
	for i := 0; i < workers; i++ {
		p.group.Go(func() error {
			for task := range p.tasks {
				p.run(task)
			}
			return nil
		})
	}
	return p
}

func (p *Pool) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("background task panicked", "panic", r)
		}
	}()
	task(context.Background())
}

// Submit queues a task. It blocks only if the queue is full.
func (p *Pool) Submit(task Task) {
	p.tasks <- task
}

// Shutdown stops accepting tasks and waits for in-flight and queued tasks
// to finish.
func (p *Pool) Shutdown() {
	close(p.tasks)
	_ = p.group.Wait()
}
