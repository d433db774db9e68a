package models

import "encoding/json"

// Source tags identifying each end of the capture bridge. A bridge message
// whose Source is not the expected counterpart tag is ignored; this is the
// bridge's sole trust boundary check.
const (
	BridgeSourcePage    = "lens-page"
	BridgeSourceContent = "lens-content"
)

// Bridge message types.
const (
	// BridgeTypeReady is sent once by the collector side when it is able to
	// receive; the capture side flushes its buffered init payload on it.
	BridgeTypeReady = "bridge-ready"
	// BridgeTypeInit carries the initial capture configuration. At most one
	// init payload is buffered while the counterpart is not yet ready.
	BridgeTypeInit = "init"
	// BridgeTypeCaptureEvent carries one CapturedEvent, fire-and-forget.
	BridgeTypeCaptureEvent = "capture-event"
	// BridgeTypeUpdateConfig reconfigures capture after the handshake.
	BridgeTypeUpdateConfig = "update-config"
	// BridgeTypeInteraction reports the counterpart's most recent user
	// interaction timestamp (epoch milliseconds).
	BridgeTypeInteraction = "interaction"
	// BridgeTypeInteractionQuery asks the counterpart to report its most
	// recent interaction. The reply arrives as a BridgeTypeInteraction.
	BridgeTypeInteractionQuery = "interaction-query"
)

// BridgeMessage is the envelope exchanged over the capture bridge.
type BridgeMessage struct {
	Type    string          `json:"type"`
	Source  string          `json:"source"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewBridgeMessage builds an envelope with the given payload marshaled in.
// A nil payload produces an envelope without one.
func NewBridgeMessage(msgType, source string, payload interface{}) (BridgeMessage, error) {
	msg := BridgeMessage{Type: msgType, Source: source}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return BridgeMessage{}, err
		}
		msg.Payload = data
	}
	return msg, nil
}

// BridgeInteraction is the payload of BridgeTypeInteraction.
type BridgeInteraction struct {
	Timestamp int64 `json:"timestamp"` // epoch milliseconds
}

// CaptureConfig is the payload of BridgeTypeInit and BridgeTypeUpdateConfig:
// the subset of effective settings the capture side acts on.
type CaptureConfig struct {
	QueueNames     []string `json:"queue_names"`
	ConsoleLogging bool     `json:"console_logging"`
	DebugLogging   bool     `json:"debug_logging"`
}
