// Package interceptor attaches to named event queues and turns valid pushes
// into CapturedEvent records. It owns all monitoring state explicitly, so
// independent interceptor instances never interfere with each other.
package interceptor

import (
	"fmt"
	"sync"

	"github.com/sizzlebits/layerlens/capture/pkg/queue"
	"github.com/sizzlebits/layerlens/capture/pkg/safeclone"
	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/models"
)

// EmitFunc receives each captured event, in push order per queue.
type EmitFunc func(models.CapturedEvent)

// Interceptor wraps the push operation of monitored queues. Each queue moves
// between two states, unmonitored and monitoring; StopMonitoring restores
// the original push operation and clears bookkeeping.
type Interceptor struct {
	registry *queue.Registry
	emit     EmitFunc
	log      *logging.Logger

	mu        sync.Mutex
	monitored map[string]*monitor
}

// monitor is the per-queue bookkeeping while monitoring is active.
type monitor struct {
	q        *queue.Queue
	original queue.PushFunc
	// nextIndex is the queue position assigned to the next observed push.
	nextIndex int
}

// New returns an interceptor emitting captured events through emit.
func New(registry *queue.Registry, emit EmitFunc, log *logging.Logger) *Interceptor {
	if log == nil {
		log = logging.Default()
	}
	return &Interceptor{
		registry:  registry,
		emit:      emit,
		log:       log,
		monitored: make(map[string]*monitor),
	}
}

// StartMonitoring begins observing pushes into the named queue, creating an
// empty queue if the name is unknown. Entries already present are emitted
// retroactively with their original indices, so pushes that happened before
// attachment are not lost. Calling it again for a monitored name is a no-op.
func (ic *Interceptor) StartMonitoring(name string) error {
	ic.mu.Lock()
	if _, ok := ic.monitored[name]; ok {
		ic.mu.Unlock()
		return nil
	}
	q := ic.registry.Ensure(name)
	m := &monitor{q: q}
	ic.monitored[name] = m
	ic.mu.Unlock()

	existing := q.Snapshot()
	for i, raw := range existing {
		ic.capture(name, raw, i)
	}

	ic.mu.Lock()
	m.nextIndex = q.Len()
	ic.mu.Unlock()

	original, err := q.Wrap(ic.makeHook(name, m, q))
	if err != nil {
		ic.mu.Lock()
		delete(ic.monitored, name)
		ic.mu.Unlock()
		return fmt.Errorf("wrapping push for queue %q: %w", name, err)
	}

	ic.mu.Lock()
	m.original = original
	ic.mu.Unlock()

	ic.log.Debug("queue monitoring started", logging.Queue(name), "baseline", len(existing))
	return nil
}

// StopMonitoring restores the queue's original push operation and discards
// bookkeeping. Safe to call for a name that is not being monitored.
func (ic *Interceptor) StopMonitoring(name string) {
	ic.mu.Lock()
	m, ok := ic.monitored[name]
	if !ok {
		ic.mu.Unlock()
		return
	}
	delete(ic.monitored, name)
	original := m.original
	q := m.q
	ic.mu.Unlock()

	if original != nil {
		if _, err := q.SwapPush(original); err != nil {
			ic.log.Warn("restoring push operation failed", logging.Queue(name), logging.Error(err))
		}
	}
	ic.log.Debug("queue monitoring stopped", logging.Queue(name))
}

// UpdateMonitoring reconciles the monitored set against names: queues no
// longer listed are released, newly listed ones are attached, and names in
// both sets are left untouched. A queue that cannot be wrapped is logged
// and skipped without affecting the rest.
func (ic *Interceptor) UpdateMonitoring(names []string) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	for _, n := range ic.Monitored() {
		if !want[n] {
			ic.StopMonitoring(n)
		}
	}
	for _, n := range names {
		if err := ic.StartMonitoring(n); err != nil {
			ic.log.Warn("queue monitoring failed", logging.Queue(n), logging.Error(err))
		}
	}
}

// Monitored returns the names currently being monitored, in no particular
// order.
func (ic *Interceptor) Monitored() []string {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	out := make([]string, 0, len(ic.monitored))
	for n := range ic.monitored {
		out = append(out, n)
	}
	return out
}

// makeHook builds the replacement push operation. The original operation
// runs first so host behavior is never altered or delayed, then each pushed
// item is examined in argument order starting at the queue's baseline index.
func (ic *Interceptor) makeHook(name string, m *monitor, q *queue.Queue) func(queue.PushFunc) queue.PushFunc {
	return func(original queue.PushFunc) queue.PushFunc {
		return func(items ...interface{}) int {
			ret := original(items...)

			ic.mu.Lock()
			base := m.nextIndex
			ic.mu.Unlock()

			for offset, raw := range items {
				ic.capture(name, raw, base+offset)
			}

			ic.mu.Lock()
			m.nextIndex = q.Len()
			ic.mu.Unlock()

			return ret
		}
	}
}

// capture normalizes one pushed item and emits it if it is event-shaped.
// Invalid payloads are an expected outcome and are dropped without error.
func (ic *Interceptor) capture(source string, raw interface{}, index int) {
	cloned := safeclone.Clone(raw)
	valid, ok := models.ValidateEventPayload(cloned)
	if !ok {
		ic.log.Debug("queue payload rejected", logging.Queue(source), "index", index)
		return
	}
	evt := models.NewCapturedEvent(valid.Name, valid.Payload, source, index)
	if ic.emit != nil {
		ic.emit(evt)
	}
}
