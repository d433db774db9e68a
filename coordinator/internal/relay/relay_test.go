package relay

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebits/layerlens/common/messaging"
	"github.com/sizzlebits/layerlens/common/messaging/memory"
	"github.com/sizzlebits/layerlens/common/models"
	"github.com/sizzlebits/layerlens/common/router"
)

func TestRelay_ForwardsToTabSubject(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()

	// Fake collector serving tab 42.
	collectorRouter := router.New(bus, nil)
	collectorRouter.Handle(router.TypeGetEvents, func(ctx context.Context, env *router.Envelope) (interface{}, error) {
		require.NotNil(t, env.TabID)
		return models.EventsResponse{Events: []models.CapturedEvent{
			models.NewCapturedEvent("page_view", nil, "dataLayer", 0),
		}}, nil
	})
	_, err := collectorRouter.Bind(messaging.TabEventsSubject(42), "")
	require.NoError(t, err)

	rl := New(bus, nil)

	tabID := 42
	inner := &router.Envelope{Type: router.TypeGetEvents, TabID: &tabID}
	innerData, err := inner.Encode()
	require.NoError(t, err)

	body, err := rl.Handle(t.Context(), &router.Envelope{
		Type:    router.TypeRelay,
		TabID:   &tabID,
		Payload: innerData,
	})
	require.NoError(t, err)

	raw, ok := body.(json.RawMessage)
	require.True(t, ok, "reply must pass through undecoded")

	var resp models.EventsResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "page_view", resp.Events[0].EventName)
}

func TestRelay_NoCollectorForTab(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()

	rl := New(bus, nil)

	tabID := 404
	_, err := rl.Handle(t.Context(), &router.Envelope{
		Type:    router.TypeRelay,
		TabID:   &tabID,
		Payload: []byte(`{"type":"get-events"}`),
	})
	assert.ErrorIs(t, err, messaging.ErrNoResponders)
}

func TestRelay_RequiresTabAndPayload(t *testing.T) {
	bus := memory.NewBus()
	defer bus.Close()

	rl := New(bus, nil)

	_, err := rl.Handle(t.Context(), &router.Envelope{Type: router.TypeRelay, Payload: []byte(`{}`)})
	assert.Error(t, err)

	tabID := 1
	_, err = rl.Handle(t.Context(), &router.Envelope{Type: router.TypeRelay, TabID: &tabID})
	assert.Error(t, err)
}
