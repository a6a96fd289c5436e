package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/contactsync/internal/adapter"
	"github.com/roach88/contactsync/internal/contacts"
	"github.com/roach88/contactsync/internal/loop"
	"github.com/roach88/contactsync/internal/record"
)

// DefaultTimeout bounds every wait: a write completion, an expect step and
// the final settle.
const DefaultTimeout = 2 * time.Second

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a run.
type Option func(*config)

// WithLogger sets the logger passed to the backend and the sync core.
// Runs are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Harness executes one scenario against one backend.
//
// Steps run on the caller's goroutine. The live list is read from the
// session; its observer only wakes up waiters.
type Harness struct {
	scenario *Scenario
	target   *target
	session  *contacts.Session
	clock    *loop.Clock
	refs     map[string]string
	timeout  time.Duration
	logger   *slog.Logger

	changed chan struct{}

	mu        sync.Mutex
	subErrors int
}

// Run executes scenario on backend and returns the result. Failed steps and
// assertions are reported in the result; the error is for runs that could
// not start at all.
//
// Each run gets a fresh in-memory backend with deterministic ids.
func Run(ctx context.Context, scenario *Scenario, backend string, opts ...Option) (*Result, error) {
	cfg := config{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	tgt, err := openTarget(ctx, backend, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", backend, err)
	}
	defer tgt.close()

	h := &Harness{
		scenario: scenario,
		target:   tgt,
		clock:    loop.NewClock(),
		refs:     make(map[string]string),
		timeout:  cfg.timeout,
		logger:   cfg.logger,
		changed:  make(chan struct{}, 1),
	}

	sess, err := contacts.Open(tgt.adapter, scenario.Path,
		contacts.WithLogger(cfg.logger),
		contacts.WithErrorHandler(h.onSubscriptionError))
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer sess.Close()
	h.session = sess

	cancel := sess.Observe(h.onList)
	defer cancel()

	result := NewResult(backend)
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	final, ok := h.settle(ctx)
	if !ok {
		result.AddError(fmt.Sprintf("final list did not settle: got %s", formatContacts(final)))
	}
	result.Final = final

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h.refs) {
		result.AddError(msg)
	}

	h.mu.Lock()
	result.SubscriptionErrors = h.subErrors
	h.mu.Unlock()

	h.logger.Debug("scenario finished", "scenario", scenario.Name, "backend", backend, "pass", result.Pass)
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	ev := TraceEvent{Seq: h.clock.Next(), Op: step.Kind()}

	switch ev.Op {
	case OpCreate:
		o := h.session.AddContact(step.Add.Name, step.Add.Phone)
		ev.Ref, ev.ID = step.Add.Ref, o.ID()
		if ev.Ref != "" {
			h.refs[ev.Ref] = o.ID()
		}
		h.checkCode(i, step, h.wait(ctx, o), &ev, result)

	case OpUpdate:
		ev.Ref, ev.ID = step.Edit.Ref, h.resolve(step.Edit)
		o := h.session.EditContact(ev.ID, step.Edit.Name, step.Edit.Phone)
		h.checkCode(i, step, h.wait(ctx, o), &ev, result)

	case OpDelete:
		ev.Ref, ev.ID = step.Remove.Ref, h.resolve(step.Remove)
		o := h.session.RemoveContact(ev.ID)
		h.checkCode(i, step, h.wait(ctx, o), &ev, result)

	case OpPut:
		ev.ID = step.Put.Key
		o := adapter.NewOutcomeFor(step.Put.Key)
		h.target.put(h.scenario.Path, step.Put.Key, step.Put.Value, o.Resolve)
		if err := h.wait(ctx, o); err != nil {
			result.AddError(fmt.Sprintf("steps[%d]: put %s: %v", i, step.Put.Key, err))
		}

	case OpOffline:
		h.target.offline()

	case OpOnline:
		h.target.online()

	case OpExpect:
		want := *step.Expect
		list, ok := h.waitUntil(ctx, func(l []record.Contact) bool {
			return matchContacts(l, want, h.refs)
		})
		ev.Contacts = list
		if !ok {
			result.AddError(fmt.Sprintf("steps[%d]: expect: want %s, got %s",
				i, formatExpected(want, h.refs), formatContacts(list)))
		}
	}

	result.AddTrace(ev)
}

// checkCode compares the write error against the step's expected code.
func (h *Harness) checkCode(i int, step Step, err error, ev *TraceEvent, result *Result) {
	ev.Code = string(adapter.CodeOf(err))
	if ev.Code != step.Error {
		result.AddError(fmt.Sprintf("steps[%d]: %s %s: want error %q, got %q (%v)",
			i, ev.Op, ev.ID, step.Error, ev.Code, err))
	}
}

func (h *Harness) resolve(w *WriteStep) string {
	if w.Ref != "" {
		return h.refs[w.Ref]
	}
	return w.ID
}

func (h *Harness) wait(ctx context.Context, o *adapter.Outcome) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return o.Wait(ctx)
}

// waitUntil polls the live list on every change until match holds or the
// timeout passes. It returns the last list seen.
func (h *Harness) waitUntil(ctx context.Context, match func([]record.Contact) bool) ([]record.Contact, bool) {
	timer := time.NewTimer(h.timeout)
	defer timer.Stop()

	for {
		list := h.session.Records()
		if match(list) {
			return list, true
		}
		select {
		case <-h.changed:
		case <-timer.C:
			return h.session.Records(), false
		case <-ctx.Done():
			return h.session.Records(), false
		}
	}
}

// settle waits until the live list equals what the backend holds right now.
func (h *Harness) settle(ctx context.Context) ([]record.Contact, bool) {
	snap, err := h.target.current(h.scenario.Path)
	if err != nil {
		h.logger.Warn("cannot read backend state", "error", err)
		return h.session.Records(), false
	}
	want := h.target.adapter.Map(snap)
	return h.waitUntil(ctx, func(l []record.Contact) bool {
		return slices.Equal(l, want)
	})
}

func (h *Harness) onList([]record.Contact) {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

func (h *Harness) onSubscriptionError(err error) {
	h.mu.Lock()
	h.subErrors++
	h.mu.Unlock()
	h.logger.Debug("subscription error", "error", err)
}
