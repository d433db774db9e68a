// Package messaging provides abstractions for the LayerLens message bus.
// Execution contexts (capture, collector, coordinator, surfaces) share no
// memory; all cross-context communication is asynchronous message passing
// through a Client. Services depend only on these interfaces so the same
// code runs over NATS between processes and over the in-memory bus inside a
// single process or a test.
package messaging

import (
	"context"
	"errors"
	"time"
)

// ErrNoResponders is returned by Request when nothing is subscribed to the
// subject. Callers treat it like a timeout: the counterpart is gone.
var ErrNoResponders = errors.New("messaging: no responders on subject")

// Message represents a message received from or sent to the bus.
type Message struct {
	// Subject is the topic the message was published to.
	Subject string

	// Data is the raw message payload.
	Data []byte

	// Reply is an optional subject for request/reply patterns.
	// When set, the receiver can publish a response to this subject.
	Reply string

	// Timestamp is when the message was published.
	Timestamp time.Time
}

// MessageHandler processes a received message.
// Return an error to indicate processing failure.
type MessageHandler func(ctx context.Context, msg *Message) error

// Subscription represents an active subscription to a subject.
type Subscription interface {
	// Unsubscribe stops receiving messages on this subscription.
	Unsubscribe() error

	// Subject returns the subject this subscription is listening to.
	Subject() string

	// IsValid returns true if the subscription is still active.
	IsValid() bool
}

// Publisher publishes messages to subjects.
type Publisher interface {
	// Publish sends a fire-and-forget message. Delivery failures when no
	// counterpart is listening are a normal outcome, not an error the
	// caller should surface to a user.
	Publish(ctx context.Context, subject string, data []byte) error

	// Request sends a message and waits for a response (request/reply).
	// The timeout bounds how long to wait; a counterpart that has been
	// torn down manifests as a timeout error.
	Request(ctx context.Context, subject string, data []byte, timeout time.Duration) (*Message, error)

	// Close releases any resources held by the publisher.
	Close() error
}

// Subscriber subscribes to messages on subjects.
type Subscriber interface {
	// Subscribe creates a subscription to the specified subject.
	// Each subscriber receives all messages (fan-out).
	Subscribe(subject string, handler MessageHandler) (Subscription, error)

	// QueueSubscribe creates a queue subscription: messages are
	// load-balanced across subscribers in the same queue group.
	QueueSubscribe(subject, queue string, handler MessageHandler) (Subscription, error)

	// Close releases any resources and unsubscribes all active subscriptions.
	Close() error
}

// Client combines Publisher and Subscriber. Most contexts use Client.
type Client interface {
	Publisher
	Subscriber

	// IsConnected returns true if the client can reach the bus.
	IsConnected() bool
}
