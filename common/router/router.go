// Package router implements the per-context message dispatcher. Each
// execution context owns one Router: inbound bus messages are decoded into
// an Envelope and dispatched on the Type string to a registered handler.
// Unknown types get an explicit failure response; structurally invalid
// messages are dropped without any response, so the two cases stay
// distinguishable to the sender.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/messaging"
)

// Envelope is the wire format shared by every message on the bus.
type Envelope struct {
	Type    string          `json:"type"`
	TabID   *int            `json:"tab_id,omitempty"`
	Domain  string          `json:"domain,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Ack is the canonical acknowledgment/failure response body.
type Ack struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// HandlerFunc processes one decoded envelope and returns the response body.
// A nil body with a nil error replies with a plain success Ack. A returned
// error replies with a failure Ack; it never tears down the router.
type HandlerFunc func(ctx context.Context, env *Envelope) (interface{}, error)

// Router dispatches envelopes by type. Handlers are registered once at
// startup; registration after Bind is safe but unusual.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	client   messaging.Client
	logger   *logging.Logger
}

// New creates a Router that replies through the given bus client.
func New(client messaging.Client, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Default()
	}
	return &Router{
		handlers: make(map[string]HandlerFunc),
		client:   client,
		logger:   logger,
	}
}

// Handle registers a handler for a message type, replacing any previous one.
func (r *Router) Handle(msgType string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[msgType] = h
}

// Bind subscribes the router to a subject. When queue is non-empty a queue
// group subscription is used so multiple instances share the load.
func (r *Router) Bind(subject, queue string) (messaging.Subscription, error) {
	if queue != "" {
		return r.client.QueueSubscribe(subject, queue, r.Dispatch)
	}
	return r.client.Subscribe(subject, r.Dispatch)
}

// Dispatch decodes and routes one bus message. It is the messaging handler
// Bind installs, exported so bridges and tests can feed messages directly.
//
// Contract: handler errors and panics become failure responses; the reply
// path is kept open for however long the handler runs, which is how
// long-running (asynchronous) handlers signal "response pending".
func (r *Router) Dispatch(ctx context.Context, msg *messaging.Message) error {
	env, err := decodeEnvelope(msg.Data)
	if err != nil {
		// Structurally invalid: no response at all.
		r.logger.DebugContext(ctx, "dropping invalid message",
			logging.Subject(msg.Subject), logging.Error(err))
		return nil
	}

	r.mu.RLock()
	handler, ok := r.handlers[env.Type]
	r.mu.RUnlock()

	if !ok {
		r.logger.DebugContext(ctx, "unknown message type", logging.MsgType(env.Type))
		r.reply(ctx, msg.Reply, Ack{Success: false, Error: fmt.Sprintf("unknown message type %q", env.Type)})
		return nil
	}

	body, err := r.invoke(ctx, handler, env)
	if err != nil {
		r.logger.DebugContext(ctx, "handler failed",
			logging.MsgType(env.Type), logging.Error(err))
		r.reply(ctx, msg.Reply, Ack{Success: false, Error: err.Error()})
		return nil
	}
	if body == nil {
		body = Ack{Success: true}
	}
	r.reply(ctx, msg.Reply, body)
	return nil
}

// invoke runs the handler with panic containment.
func (r *Router) invoke(ctx context.Context, handler HandlerFunc, env *Envelope) (body interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			body = nil
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return handler(ctx, env)
}

// reply publishes the response body when the message expects one.
// Fire-and-forget messages have no reply subject and get nothing back.
func (r *Router) reply(ctx context.Context, replyTo string, body interface{}) {
	if replyTo == "" {
		return
	}
	data, err := json.Marshal(body)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to marshal response", logging.Error(err))
		data, _ = json.Marshal(Ack{Success: false, Error: "internal encoding error"})
	}
	if err := r.client.Publish(ctx, replyTo, data); err != nil {
		// Counterpart may be gone already; routine, not user-visible.
		r.logger.DebugContext(ctx, "failed to publish reply",
			logging.Subject(replyTo), logging.Error(err))
	}
}

func decodeEnvelope(data []byte) (*Envelope, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty message")
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("envelope missing type")
	}
	return &env, nil
}

// NewEnvelope builds an envelope with a marshaled payload.
func NewEnvelope(msgType string, payload interface{}) (*Envelope, error) {
	env := &Envelope{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		env.Payload = data
	}
	return env, nil
}

// Encode marshals the envelope for the wire.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodePayload unmarshals the payload into out. An absent payload leaves
// out at its zero value.
func (e *Envelope) DecodePayload(out interface{}) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, out)
}
