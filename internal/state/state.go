// Package state holds the domain stores. Each store owns a read model and a
// set of operations; every operation moves through pending and then exactly
// one of fulfilled or rejected.
//
// Operations are not ordered against each other. When two fetches that
// replace the same collection overlap, whichever completes last wins, even
// if it was issued first.
package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"clinic-console/internal/notify"
	"clinic-console/internal/transport"
)

type OpStatus int

const (
	Idle OpStatus = iota
	Pending
	Fulfilled
	Rejected
)

func (s OpStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	}
	return "idle"
}

// OpError is what a rejected operation returns. Message is the text that was
// recorded and shown to the user.
type OpError struct {
	Op      string
	Message string
	Err     error
}

func (e *OpError) Error() string { return e.Message }
func (e *OpError) Unwrap() error { return e.Err }

type base struct {
	mu       sync.RWMutex
	ops      map[string]OpStatus
	inflight map[string]int
	pending  int
	err      string

	notifier notify.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func newBase(name string, n notify.Notifier, log zerolog.Logger) *base {
	if n == nil {
		n = notify.Discard
	}
	return &base{
		ops:      map[string]OpStatus{},
		inflight: map[string]int{},
		notifier: n,
		log:      log.With().Str("store", name).Logger(),
		now:      time.Now,
	}
}

// Loading is true while any operation of the store is pending.
func (b *base) Loading() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pending > 0
}

func (b *base) Op(name string) OpStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ops[name]
}

// Err is the message of the last rejected operation, empty when none.
func (b *base) Err() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

func (b *base) ClearError() {
	b.mu.Lock()
	b.err = ""
	b.mu.Unlock()
}

func (b *base) begin(name string) {
	b.mu.Lock()
	b.pending++
	b.inflight[name]++
	b.ops[name] = Pending
	b.err = ""
	b.mu.Unlock()
}

// settle must be called with mu held.
func (b *base) settle(name string, s OpStatus) {
	b.pending--
	b.inflight[name]--
	if b.inflight[name] > 0 {
		return
	}
	delete(b.inflight, name)
	b.ops[name] = s
}

func (b *base) notify(level notify.Level, msg string) {
	b.notifier.Notify(notify.Notice{Level: level, Message: msg, At: b.now()})
}

type op struct {
	name     string
	fallback string
	success  string
	quiet    bool
}

// run drives one operation. apply runs under the store lock in the same
// critical section that ends the pending state. A response that outlived its
// session is dropped without touching the read model or the error slot.
func run[T any](ctx context.Context, b *base, o op, call func(context.Context) (T, error), apply func(T)) (T, error) {
	b.begin(o.name)
	v, err := call(ctx)
	if err != nil {
		if errors.Is(err, transport.ErrStaleSession) {
			b.mu.Lock()
			b.settle(o.name, Idle)
			b.mu.Unlock()
			b.log.Debug().Str("op", o.name).Msg("stale response dropped")
			return v, err
		}
		msg := transport.Message(err, o.fallback)
		b.mu.Lock()
		b.err = msg
		b.settle(o.name, Rejected)
		b.mu.Unlock()
		b.log.Warn().Err(err).Str("op", o.name).Msg("operation rejected")
		if !o.quiet {
			b.notify(notify.Failure, msg)
		}
		return v, &OpError{Op: o.name, Message: msg, Err: err}
	}

	b.mu.Lock()
	if apply != nil {
		apply(v)
	}
	b.settle(o.name, Fulfilled)
	b.mu.Unlock()
	if o.success != "" {
		b.notify(notify.Success, o.success)
	}
	return v, nil
}

// exec is run for calls that return no value.
func exec(ctx context.Context, b *base, o op, call func(context.Context) error, apply func()) error {
	_, err := run(ctx, b, o, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, call(ctx)
	}, func(struct{}) {
		if apply != nil {
			apply()
		}
	})
	return err
}
