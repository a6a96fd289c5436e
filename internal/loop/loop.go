package loop

import (
	"context"
	"log/slog"
	"sync"
)

// Loop is a single-goroutine task executor.
//
// Thread-safety model:
//   - Post(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Drain(): must not run concurrently with Run
//   - Stop(): safe from any goroutine, including from inside a task
type Loop struct {
	name   string
	queue  *taskQueue
	logger *slog.Logger

	doneOnce sync.Once
	done     chan struct{}
}

// Option configures a Loop.
type Option func(*Loop)

// WithName labels the loop in log output.
func WithName(name string) Option {
	return func(l *Loop) {
		l.name = name
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates an idle loop. Call Run (or Start) to begin executing tasks.
func New(opts ...Option) *Loop {
	l := &Loop{
		name:   "owner",
		queue:  newTaskQueue(),
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post schedules t to run on the loop.
// Returns false if the loop has been stopped; t is then never run.
func (l *Loop) Post(t Task) bool {
	if t == nil {
		return false
	}
	return l.queue.enqueue(t)
}

// Run executes tasks until ctx is cancelled or Stop is called.
//
// After Stop, tasks that were already queued are still executed before Run
// returns. After ctx cancellation, queued tasks are abandoned.
func (l *Loop) Run(ctx context.Context) error {
	defer l.markDone()
	l.logger.Debug("loop starting", "loop", l.name)

	for {
		if t, ok := l.queue.tryDequeue(); ok {
			t()
			continue
		}

		select {
		case <-ctx.Done():
			l.logger.Debug("loop stopping: context cancelled", "loop", l.name)
			l.queue.close()
			return ctx.Err()

		case <-l.queue.wait():
			// The signal channel is closed once the queue is closed, so this
			// case fires immediately from then on.
			if l.queue.isClosed() && l.queue.len() == 0 {
				l.logger.Debug("loop stopping: closed", "loop", l.name)
				return nil
			}
		}
	}
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start(ctx context.Context) {
	go func() {
		_ = l.Run(ctx)
	}()
}

// Drain runs every currently queued task on the calling goroutine, including
// tasks posted by those tasks, and returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		t, ok := l.queue.tryDequeue()
		if !ok {
			return n
		}
		t()
		n++
	}
}

// Stop closes the loop to new tasks. Run returns once the queue is empty.
func (l *Loop) Stop() {
	l.queue.close()
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	return l.queue.len()
}

// Stopped reports whether Stop has been called or Run's context ended.
func (l *Loop) Stopped() bool {
	return l.queue.isClosed()
}

func (l *Loop) markDone() {
	l.doneOnce.Do(func() { close(l.done) })
}
