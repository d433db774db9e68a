// Package queue models the host application's named event queues. A Queue
// is an append-only list whose push operation can be swapped out, which is
// the attachment point the interceptor uses to observe pushes without
// changing what the host sees: length, return value, and stored items are
// identical whether or not a hook is installed.
package queue

import (
	"errors"
	"sync"
)

// ErrSealed is returned when a queue's push operation cannot be replaced.
var ErrSealed = errors.New("queue: push operation is sealed")

// PushFunc is the push operation of a queue. It appends the given items and
// returns the queue's new length.
type PushFunc func(items ...interface{}) int

// Queue is a named append-only list with a replaceable push operation.
type Queue struct {
	name string

	mu     sync.Mutex
	items  []interface{}
	push   PushFunc
	sealed bool
}

// New returns an empty queue whose push operation is the plain append.
func New(name string) *Queue {
	q := &Queue{name: name}
	q.push = q.appendItems
	return q
}

// Name returns the queue's identifier.
func (q *Queue) Name() string {
	return q.name
}

// Push invokes the queue's current push operation.
func (q *Queue) Push(items ...interface{}) int {
	q.mu.Lock()
	push := q.push
	q.mu.Unlock()
	return push(items...)
}

// Len returns the number of stored items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns a copy of the stored items in push order.
func (q *Queue) Snapshot() []interface{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]interface{}, len(q.items))
	copy(out, q.items)
	return out
}

// Wrap atomically replaces the push operation with the one produced by
// factory, which receives the operation being replaced. The previous
// operation is also returned so the caller can restore it later.
func (q *Queue) Wrap(factory func(original PushFunc) PushFunc) (PushFunc, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.sealed {
		return nil, ErrSealed
	}
	prev := q.push
	q.push = factory(prev)
	return prev, nil
}

// SwapPush replaces the push operation and returns the previous one.
func (q *Queue) SwapPush(hook PushFunc) (PushFunc, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.sealed {
		return nil, ErrSealed
	}
	prev := q.push
	q.push = hook
	return prev, nil
}

// Seal makes the push operation permanent. Further Wrap or SwapPush calls
// fail with ErrSealed. Mirrors a host making the property non-writable.
func (q *Queue) Seal() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sealed = true
}

func (q *Queue) appendItems(items ...interface{}) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
	return len(q.items)
}
