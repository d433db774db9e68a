// Package memory provides an in-process implementation of the messaging
// interfaces. It backs single-process deployments and tests, where the
// capture, collector, and coordinator contexts share a process but still
// communicate only by message passing.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sizzlebits/layerlens/common/messaging"
)

// Bus is an in-process messaging.Client. Messages are dispatched to
// subscribers synchronously in publish order, which preserves the
// same-sender ordering guarantee of the real bus.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]*memSub            // fan-out subscriptions
	queues map[string]map[string]*queueSet // subject -> queue group -> members
	closed bool
}

// NewBus creates an empty in-process bus.
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[string][]*memSub),
		queues: make(map[string]map[string]*queueSet),
	}
}

type queueSet struct {
	members []*memSub
	next    int
}

type memSub struct {
	bus     *Bus
	subject string
	queue   string
	handler messaging.MessageHandler
	valid   bool
}

func (s *memSub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	s.valid = false
	return nil
}

func (s *memSub) Subject() string { return s.subject }

func (s *memSub) IsValid() bool {
	s.bus.mu.RLock()
	defer s.bus.mu.RUnlock()
	return s.valid
}

// Publish delivers the message to every fan-out subscriber and to one
// member of each queue group on the subject. Publishing to a subject with
// no listeners is not an error; the message is simply dropped, mirroring
// how extension contexts come and go.
func (b *Bus) Publish(ctx context.Context, subject string, data []byte) error {
	return b.publish(ctx, &messaging.Message{
		Subject:   subject,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func (b *Bus) publish(ctx context.Context, msg *messaging.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("bus is closed")
	}
	var targets []*memSub
	for _, s := range b.subs[msg.Subject] {
		if s.valid {
			targets = append(targets, s)
		}
	}
	for _, qs := range b.queues[msg.Subject] {
		if m := qs.pick(); m != nil {
			targets = append(targets, m)
		}
	}
	b.mu.Unlock()

	for _, s := range targets {
		// Handler errors stay local to the subscriber, as on the real bus.
		_ = s.handler(ctx, msg)
	}
	return nil
}

// pick returns the next valid queue group member round-robin.
// Caller must hold the bus lock.
func (qs *queueSet) pick() *memSub {
	for i := 0; i < len(qs.members); i++ {
		m := qs.members[qs.next%len(qs.members)]
		qs.next++
		if m.valid {
			return m
		}
	}
	return nil
}

// Request publishes the message with a unique reply inbox and waits for the
// first response or the timeout, whichever comes first.
func (b *Bus) Request(ctx context.Context, subject string, data []byte, timeout time.Duration) (*messaging.Message, error) {
	inbox := "_INBOX." + uuid.NewString()
	replyCh := make(chan *messaging.Message, 1)

	sub, err := b.Subscribe(inbox, func(_ context.Context, msg *messaging.Message) error {
		select {
		case replyCh <- msg:
		default:
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = sub.Unsubscribe() }()

	if !b.hasListeners(subject) {
		return nil, messaging.ErrNoResponders
	}

	if err := b.publish(ctx, &messaging.Message{
		Subject:   subject,
		Data:      data,
		Reply:     inbox,
		Timestamp: time.Now(),
	}); err != nil {
		return nil, err
	}

	select {
	case msg := <-replyCh:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, fmt.Errorf("request to %s timed out after %s", subject, timeout)
	}
}

// hasListeners reports whether any valid subscription exists on subject.
func (b *Bus) hasListeners(subject string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs[subject] {
		if s.valid {
			return true
		}
	}
	for _, qs := range b.queues[subject] {
		for _, m := range qs.members {
			if m.valid {
				return true
			}
		}
	}
	return false
}

// Subscribe creates a fan-out subscription.
func (b *Bus) Subscribe(subject string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("bus is closed")
	}

	s := &memSub{bus: b, subject: subject, handler: handler, valid: true}
	b.subs[subject] = append(b.subs[subject], s)
	return s, nil
}

// QueueSubscribe creates a load-balanced queue group subscription.
func (b *Bus) QueueSubscribe(subject, queue string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("bus is closed")
	}

	s := &memSub{bus: b, subject: subject, queue: queue, handler: handler, valid: true}
	groups, ok := b.queues[subject]
	if !ok {
		groups = make(map[string]*queueSet)
		b.queues[subject] = groups
	}
	qs, ok := groups[queue]
	if !ok {
		qs = &queueSet{}
		groups[queue] = qs
	}
	qs.members = append(qs.members, s)
	return s, nil
}

// Close invalidates all subscriptions and rejects further use.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for _, subs := range b.subs {
		for _, s := range subs {
			s.valid = false
		}
	}
	for _, groups := range b.queues {
		for _, qs := range groups {
			for _, m := range qs.members {
				m.valid = false
			}
		}
	}
	return nil
}

// IsConnected reports whether the bus is still open.
func (b *Bus) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.closed
}
