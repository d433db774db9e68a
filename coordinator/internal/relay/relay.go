// Package relay forwards tab-scoped requests to the collector instance
// hosting the tab. Surfaces that only know the coordinator send an envelope
// whose payload is the inner message; the collector's reply is passed back
// verbatim.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/messaging"
	"github.com/sizzlebits/layerlens/common/router"
)

const forwardTimeout = 5 * time.Second

type Relay struct {
	bus messaging.Publisher
	log *logging.Logger
}

func New(bus messaging.Publisher, log *logging.Logger) *Relay {
	if log == nil {
		log = logging.Default()
	}
	return &Relay{bus: bus, log: log}
}

// Handle is the router handler for relay envelopes. The inner message is
// not inspected beyond being non-empty; the collector decides what it means.
func (r *Relay) Handle(ctx context.Context, env *router.Envelope) (interface{}, error) {
	if env.TabID == nil {
		return nil, fmt.Errorf("tab_id required")
	}
	if len(env.Payload) == 0 {
		return nil, fmt.Errorf("relay payload required")
	}

	subject := messaging.TabEventsSubject(*env.TabID)
	resp, err := r.bus.Request(ctx, subject, env.Payload, forwardTimeout)
	if err != nil {
		r.log.DebugContext(ctx, "relay forward failed",
			logging.TabID(*env.TabID), logging.Error(err))
		return nil, fmt.Errorf("no collector serving tab %d: %w", *env.TabID, err)
	}

	return json.RawMessage(resp.Data), nil
}
