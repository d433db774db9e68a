// Package bridge is the capture side of the page/collector channel. It
// speaks a narrow envelope protocol over a websocket: every message carries
// a source tag, and anything not tagged with the collector's tag is ignored.
// Capture traffic is fire-and-forget; only the initial configuration is held
// back until the collector signals readiness.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/models"
)

// PayloadHandler receives the raw payload of an inbound bridge message.
type PayloadHandler func(payload json.RawMessage)

// Client connects the capture agent to the collector's bridge endpoint.
type Client struct {
	url    string
	log    *logging.Logger
	dialer *websocket.Dialer

	mu              sync.Mutex
	conn            *websocket.Conn
	attached        bool
	ready           bool
	pendingInit     *models.BridgeMessage
	lastInteraction time.Time
	handlers        map[string]PayloadHandler

	writeMu sync.Mutex
}

// NewClient returns an unattached client for the given bridge URL
// (e.g. "ws://localhost:8091/bridge?tab=3&host=shop.example").
func NewClient(url string, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Default()
	}
	return &Client{
		url:      url,
		log:      log,
		dialer:   websocket.DefaultDialer,
		handlers: make(map[string]PayloadHandler),
	}
}

// Handle registers a handler for an inbound message type. Ready and
// interaction messages are consumed internally and need no handler.
func (c *Client) Handle(msgType string, fn PayloadHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = fn
}

// Attach dials the collector and starts reading. It is attempted at most
// once per client lifetime; a second call while attached is a no-op. On
// dial failure the attached flag is reset so a later call can retry.
func (c *Client) Attach(ctx context.Context) error {
	c.mu.Lock()
	if c.attached {
		c.mu.Unlock()
		return nil
	}
	c.attached = true
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.mu.Lock()
		c.attached = false
		c.mu.Unlock()
		return fmt.Errorf("dialing bridge %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

// SendInit sends the initial capture configuration. If the collector has
// not signaled readiness yet the payload is buffered, replacing any earlier
// buffered init, and flushed when the ready signal arrives.
func (c *Client) SendInit(cfg models.CaptureConfig) {
	msg, err := models.NewBridgeMessage(models.BridgeTypeInit, models.BridgeSourcePage, cfg)
	if err != nil {
		c.log.Warn("encoding init payload failed", logging.Error(err))
		return
	}

	c.mu.Lock()
	if !c.ready {
		c.pendingInit = &msg
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.send(msg)
}

// Send delivers a fire-and-forget message immediately, without buffering or
// awaiting acknowledgment. Delivery failures are logged at debug level
// only; bridge counterparts routinely come and go.
func (c *Client) Send(msgType string, payload interface{}) {
	msg, err := models.NewBridgeMessage(msgType, models.BridgeSourcePage, payload)
	if err != nil {
		c.log.Warn("encoding bridge payload failed", logging.MsgType(msgType), logging.Error(err))
		return
	}
	c.send(msg)
}

// SendEvent forwards one captured event to the collector.
func (c *Client) SendEvent(evt models.CapturedEvent) {
	c.Send(models.BridgeTypeCaptureEvent, evt)
}

// WasRecentInteraction reports whether the collector side saw user
// interaction within the given window. The answer always comes from the
// last cached report; a refresh request is issued asynchronously, so the
// read is deliberately stale-tolerant.
func (c *Client) WasRecentInteraction(window time.Duration) bool {
	c.mu.Lock()
	last := c.lastInteraction
	c.mu.Unlock()

	c.Send(models.BridgeTypeInteractionQuery, nil)

	return !last.IsZero() && time.Since(last) <= window
}

// Close tears down the connection. The client stays attached; a closed
// bridge is not re-dialed.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (c *Client) send(msg models.BridgeMessage) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		c.log.Debug("bridge send skipped, not connected", logging.MsgType(msg.Type))
		return
	}

	c.writeMu.Lock()
	err := conn.WriteJSON(msg)
	c.writeMu.Unlock()
	if err != nil {
		c.log.Debug("bridge send failed", logging.MsgType(msg.Type), logging.Error(err))
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var msg models.BridgeMessage
		if err := conn.ReadJSON(&msg); err != nil {
			c.log.Debug("bridge read loop ended", logging.Error(err))
			return
		}
		if msg.Source != models.BridgeSourceContent {
			continue
		}

		switch msg.Type {
		case models.BridgeTypeReady:
			c.onReady()
		case models.BridgeTypeInteraction:
			c.onInteraction(msg.Payload)
		default:
			c.mu.Lock()
			fn := c.handlers[msg.Type]
			c.mu.Unlock()
			if fn != nil {
				fn(msg.Payload)
			} else {
				c.log.Debug("unhandled bridge message", logging.MsgType(msg.Type))
			}
		}
	}
}

func (c *Client) onReady() {
	c.mu.Lock()
	c.ready = true
	pending := c.pendingInit
	c.pendingInit = nil
	c.mu.Unlock()

	if pending != nil {
		c.send(*pending)
	}
}

func (c *Client) onInteraction(payload json.RawMessage) {
	var report models.BridgeInteraction
	if err := json.Unmarshal(payload, &report); err != nil {
		c.log.Debug("bad interaction report", logging.Error(err))
		return
	}
	c.mu.Lock()
	c.lastInteraction = time.UnixMilli(report.Timestamp)
	c.mu.Unlock()
}
