package contacts

import (
	"log/slog"

	"github.com/roach88/contactsync/internal/loop"
)

type config struct {
	owner   *loop.Loop
	logger  *slog.Logger
	onError func(error)
}

// Option configures a Store, Dispatcher or Session.
type Option func(*config)

// WithLoop makes l the owner loop. The host runs l; the store only posts to
// it. Without this option a Store runs a private loop between Activate and
// Dispose.
func WithLoop(l *loop.Loop) Option {
	return func(c *config) {
		c.owner = l
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithErrorHandler receives subscription errors on the owner loop, in
// addition to the warning logged for each.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) {
		c.onError = fn
	}
}

func newConfig(opts []Option) config {
	c := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
