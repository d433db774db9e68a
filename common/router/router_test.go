package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebits/layerlens/common/messaging"
	"github.com/sizzlebits/layerlens/common/messaging/memory"
)

func request(t *testing.T, bus *memory.Bus, subject string, env *Envelope) map[string]interface{} {
	t.Helper()
	data, err := env.Encode()
	require.NoError(t, err)

	resp, err := bus.Request(context.Background(), subject, data, time.Second)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	return body
}

func TestRouter_DispatchToHandler(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()

	r := New(bus, nil)
	r.Handle("ping", func(_ context.Context, _ *Envelope) (interface{}, error) {
		return map[string]string{"pong": "ok"}, nil
	})
	_, err := r.Bind("lens.ping", "")
	require.NoError(t, err)

	body := request(t, bus, "lens.ping", &Envelope{Type: "ping"})
	assert.Equal(t, "ok", body["pong"])
}

func TestRouter_NilBodyBecomesSuccessAck(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()

	r := New(bus, nil)
	r.Handle("clear-events", func(_ context.Context, _ *Envelope) (interface{}, error) {
		return nil, nil
	})
	_, err := r.Bind("lens.events.clear", "")
	require.NoError(t, err)

	body := request(t, bus, "lens.events.clear", &Envelope{Type: "clear-events"})
	assert.Equal(t, true, body["success"])
}

func TestRouter_UnknownTypeGetsExplicitFailure(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()

	r := New(bus, nil)
	_, err := r.Bind("lens.ping", "")
	require.NoError(t, err)

	body := request(t, bus, "lens.ping", &Envelope{Type: "no-such-type"})
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "unknown message type")
}

func TestRouter_InvalidMessageIsDroppedWithoutReply(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()

	r := New(bus, nil)
	r.Handle("ping", func(_ context.Context, _ *Envelope) (interface{}, error) {
		return nil, nil
	})
	_, err := r.Bind("lens.ping", "")
	require.NoError(t, err)

	// No reply at all: the request times out rather than failing fast.
	_, err = bus.Request(context.Background(), "lens.ping", []byte("{malformed"), 50*time.Millisecond)
	require.Error(t, err)

	_, err = bus.Request(context.Background(), "lens.ping", []byte(`{"payload":{}}`), 50*time.Millisecond)
	require.Error(t, err, "missing type must be dropped, not answered")
}

func TestRouter_HandlerErrorBecomesFailureResponse(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()

	r := New(bus, nil)
	r.Handle("boom", func(_ context.Context, _ *Envelope) (interface{}, error) {
		return nil, errors.New("storage unavailable")
	})
	_, err := r.Bind("lens.ping", "")
	require.NoError(t, err)

	body := request(t, bus, "lens.ping", &Envelope{Type: "boom"})
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "storage unavailable", body["error"])
}

func TestRouter_HandlerPanicIsContained(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()

	r := New(bus, nil)
	r.Handle("panic", func(_ context.Context, _ *Envelope) (interface{}, error) {
		panic("unexpected payload shape")
	})
	r.Handle("ping", func(_ context.Context, _ *Envelope) (interface{}, error) {
		return nil, nil
	})
	_, err := r.Bind("lens.ping", "")
	require.NoError(t, err)

	body := request(t, bus, "lens.ping", &Envelope{Type: "panic"})
	assert.Equal(t, false, body["success"])

	// The router survives and keeps serving.
	body = request(t, bus, "lens.ping", &Envelope{Type: "ping"})
	assert.Equal(t, true, body["success"])
}

func TestRouter_FireAndForgetWithoutReplySubject(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()

	handled := false
	r := New(bus, nil)
	r.Handle("capture-event", func(_ context.Context, _ *Envelope) (interface{}, error) {
		handled = true
		return nil, nil
	})
	_, err := r.Bind("lens.events.capture", "")
	require.NoError(t, err)

	env := &Envelope{Type: "capture-event"}
	data, err := env.Encode()
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), "lens.events.capture", data))
	assert.True(t, handled)
}

func TestEnvelope_PayloadRoundTrip(t *testing.T) {
	env, err := NewEnvelope("get-settings", map[string]string{"domain": "shop.example.com"})
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, env.DecodePayload(&out))
	assert.Equal(t, "shop.example.com", out["domain"])

	// Absent payload leaves the target at its zero value.
	empty := &Envelope{Type: "get-settings"}
	var zero map[string]string
	require.NoError(t, empty.DecodePayload(&zero))
	assert.Nil(t, zero)
}

func TestRouter_DispatchDirect(t *testing.T) {
	r := New(memory.NewBus(), nil)
	called := false
	r.Handle("ping", func(_ context.Context, env *Envelope) (interface{}, error) {
		called = true
		require.NotNil(t, env.TabID)
		assert.Equal(t, 7, *env.TabID)
		return nil, nil
	})

	tab := 7
	env := &Envelope{Type: "ping", TabID: &tab}
	data, err := env.Encode()
	require.NoError(t, err)
	require.NoError(t, r.Dispatch(context.Background(), &messaging.Message{Subject: "x", Data: data}))
	assert.True(t, called)
}
