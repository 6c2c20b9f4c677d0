package refs

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/odvcencio/objgraph/pkg/object"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	// ErrNegativeLimit is returned by Recent for a negative limit.
	ErrNegativeLimit = errors.New("negative limit")
	// ErrListenerDropped is reported when a ChannelListener's channel is full.
	ErrListenerDropped = errors.New("ref change dropped: listener channel full")
)

// Operation names the kind of ref mutation recorded in a Change.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Change is one immutable history record. Seq increases strictly across
// every change recorded by the same History.
type Change struct {
	Seq       uint64
	Ref       string
	Old       object.Hash
	New       object.Hash
	Timestamp time.Time
	Operation Operation
}

// Listener is notified after each recorded change. Errors and panics are
// logged and never affect the ref mutation that produced the change.
// Listeners run synchronously and must not block.
type Listener func(Change) error

// ChannelListener publishes changes to ch without blocking. A change that
// does not fit is dropped and reported as ErrListenerDropped.
func ChannelListener(ch chan<- Change) Listener {
	return func(c Change) error {
		select {
		case ch <- c:
			return nil
		default:
			return fmt.Errorf("%w (ref %s seq %d)", ErrListenerDropped, c.Ref, c.Seq)
		}
	}
}

// Recorder receives ref mutations. *History implements it. Append is
// called while the mutating ref is locked; Notify is called after the
// lock is released, so listeners may read the manager.
type Recorder interface {
	Append(ref string, oldTarget, newTarget object.Hash, op Operation) Change
	Notify(c Change)
}

// History is an append-only per-ref change log. It is the only writer of
// Change records.
type History struct {
	logger *zap.Logger
	now    func() time.Time
	seq    *atomic.Uint64

	mu   sync.RWMutex
	logs map[string][]Change

	listenersMu sync.RWMutex
	listeners   []Listener
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithClock overrides the time source used to stamp changes.
func WithClock(now func() time.Time) HistoryOption {
	return func(h *History) {
		h.now = now
	}
}

// WithHistoryLogger sets the logger used to report listener failures.
func WithHistoryLogger(logger *zap.Logger) HistoryOption {
	return func(h *History) {
		h.logger = logger
	}
}

// NewHistory creates an empty History.
func NewHistory(opts ...HistoryOption) *History {
	h := &History{
		logger: zap.NewNop(),
		now:    time.Now,
		seq:    atomic.NewUint64(0),
		logs:   make(map[string][]Change),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers l for every change recorded from now on.
func (h *History) Subscribe(l Listener) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	h.listeners = append(h.listeners, l)
}

// RecordChange appends a change to ref's log and notifies listeners.
func (h *History) RecordChange(ref string, oldTarget, newTarget object.Hash, op Operation) Change {
	c := h.Append(ref, oldTarget, newTarget, op)
	h.Notify(c)
	return c
}

// Append adds a change to ref's log without notifying listeners.
func (h *History) Append(ref string, oldTarget, newTarget object.Hash, op Operation) Change {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := Change{
		Seq:       h.seq.Inc(),
		Ref:       ref,
		Old:       oldTarget,
		New:       newTarget,
		Timestamp: h.now(),
		Operation: op,
	}
	h.logs[ref] = append(h.logs[ref], c)
	return c
}

// Notify runs every listener on c. Failures are logged, never returned.
func (h *History) Notify(c Change) {
	h.listenersMu.RLock()
	listeners := append([]Listener(nil), h.listeners...)
	h.listenersMu.RUnlock()

	var errs error
	for _, l := range listeners {
		errs = multierr.Append(errs, callListener(l, c))
	}
	if errs != nil {
		h.logger.Warn(
			"ref change listener failed",
			zap.String("ref", c.Ref),
			zap.Uint64("seq", c.Seq),
			zap.Error(errs),
		)
	}
}

func callListener(l Listener, c Change) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return l(c)
}

// For returns ref's changes in the order they were recorded.
func (h *History) For(ref string) []Change {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Change(nil), h.logs[ref]...)
}

// All returns a copy of every ref's log.
func (h *History) All() map[string][]Change {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string][]Change, len(h.logs))
	for ref, log := range h.logs {
		out[ref] = append([]Change(nil), log...)
	}
	return out
}

// Len returns the total number of recorded changes.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, log := range h.logs {
		n += len(log)
	}
	return n
}

// Recent merges all logs and returns at most limit changes, newest
// first. Equal timestamps are ordered by Seq, newest first.
func (h *History) Recent(limit int) ([]Change, error) {
	if limit < 0 {
		return nil, fmt.Errorf("recent changes: %w: %d", ErrNegativeLimit, limit)
	}
	h.mu.RLock()
	var all []Change
	for _, log := range h.logs {
		all = append(all, log...)
	}
	h.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].Timestamp.After(all[j].Timestamp)
		}
		return all[i].Seq > all[j].Seq
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
