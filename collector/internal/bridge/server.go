// Package bridge is the collector side of the capture channel. It accepts
// websocket attachments from capture agents, signals readiness, admits
// capture traffic after a shape probe, and pushes configuration updates
// back down to the interceptor.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/sizzlebits/layerlens/collector/internal/metrics"
	"github.com/sizzlebits/layerlens/collector/internal/service"
	"github.com/sizzlebits/layerlens/common/httputil"
	"github.com/sizzlebits/layerlens/common/logging"
	"github.com/sizzlebits/layerlens/common/models"
)

// Server terminates capture bridges, one per attached tab.
type Server struct {
	svc      *service.Service
	log      *logging.Logger
	upgrader websocket.Upgrader

	// onAttach and onDetach let the process wire tab-scoped bus
	// subscriptions to bridge lifetime.
	onAttach func(tabID int)
	onDetach func(tabID int)

	mu    sync.Mutex
	conns map[int]*tabConn
}

type tabConn struct {
	conn    *websocket.Conn
	host    string
	writeMu sync.Mutex
}

func NewServer(svc *service.Service, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Default()
	}
	return &Server{
		svc:   svc,
		log:   log,
		conns: make(map[int]*tabConn),
	}
}

// OnAttach registers a callback invoked after a tab's bridge attaches.
func (s *Server) OnAttach(fn func(tabID int)) { s.onAttach = fn }

// OnDetach registers a callback invoked after a tab's bridge goes away.
func (s *Server) OnDetach(fn func(tabID int)) { s.onDetach = fn }

// HandleBridge handles GET /bridge?tab=&host=. A second attachment for the
// same tab replaces the first; the stale page's bridge is closed.
func (s *Server) HandleBridge(w http.ResponseWriter, r *http.Request) {
	tabID := httputil.ParseIntParam(r.URL.Query().Get("tab"), -1)
	host := r.URL.Query().Get("host")
	if tabID < 0 || host == "" {
		httputil.WriteError(w, http.StatusBadRequest, "tab and host query parameters required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("bridge upgrade failed", logging.TabID(tabID), logging.Error(err))
		return
	}

	tc := &tabConn{conn: conn, host: host}
	s.mu.Lock()
	if prev, ok := s.conns[tabID]; ok {
		prev.conn.Close()
	}
	s.conns[tabID] = tc
	s.mu.Unlock()

	s.svc.RegisterTab(tabID, host)
	metrics.BridgeConnections.Inc()
	s.log.Info("capture bridge attached", logging.TabID(tabID), logging.Domain(host))

	// Readiness signal: the capture side flushes its buffered init on it.
	s.sendTo(tc, models.BridgeTypeReady, nil)

	go s.readLoop(r.Context(), tabID, tc)
}

// PushConfig sends a configuration update down a tab's bridge.
func (s *Server) PushConfig(tabID int, cfg models.CaptureConfig) error {
	s.mu.Lock()
	tc, ok := s.conns[tabID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no bridge attached for tab %d", tabID)
	}
	s.sendTo(tc, models.BridgeTypeUpdateConfig, cfg)
	return nil
}

// BroadcastConfig pushes per-host configuration to every attached bridge.
// resolve is called once per tab with its host.
func (s *Server) BroadcastConfig(resolve func(tabID int, host string) models.CaptureConfig) {
	s.mu.Lock()
	targets := make(map[int]*tabConn, len(s.conns))
	for id, tc := range s.conns {
		targets[id] = tc
	}
	s.mu.Unlock()

	for id, tc := range targets {
		s.sendTo(tc, models.BridgeTypeUpdateConfig, resolve(id, tc.host))
	}
}

// Tabs returns the tab IDs with an attached bridge.
func (s *Server) Tabs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.conns))
	for id := range s.conns {
		out = append(out, id)
	}
	return out
}

func (s *Server) readLoop(ctx context.Context, tabID int, tc *tabConn) {
	defer func() {
		tc.conn.Close()
		s.mu.Lock()
		if s.conns[tabID] == tc {
			delete(s.conns, tabID)
		}
		s.mu.Unlock()

		s.svc.UnregisterTab(tabID)
		metrics.BridgeConnections.Dec()
		s.log.Info("capture bridge detached", logging.TabID(tabID))
		if s.onDetach != nil {
			s.onDetach(tabID)
		}
	}()

	if s.onAttach != nil {
		s.onAttach(tabID)
	}

	for {
		_, data, err := tc.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg models.BridgeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			metrics.EventsDropped.WithLabelValues("malformed").Inc()
			continue
		}
		if msg.Source != models.BridgeSourcePage {
			continue
		}

		switch msg.Type {
		case models.BridgeTypeInit:
			s.handleInit(ctx, tabID, tc, msg.Payload)
		case models.BridgeTypeCaptureEvent:
			s.handleCaptureEvent(ctx, tabID, tc.host, msg.Payload)
		case models.BridgeTypeInteractionQuery:
			s.sendTo(tc, models.BridgeTypeInteraction, models.BridgeInteraction{
				Timestamp: s.svc.LastInteraction(tabID).UnixMilli(),
			})
		default:
			s.log.Debug("unhandled bridge message", logging.TabID(tabID), logging.MsgType(msg.Type))
		}
	}
}

// handleInit answers the capture side's initial configuration with the
// effective settings for its host, overriding whatever it booted with.
func (s *Server) handleInit(ctx context.Context, tabID int, tc *tabConn, payload json.RawMessage) {
	var boot models.CaptureConfig
	if err := json.Unmarshal(payload, &boot); err != nil {
		s.log.Debug("bad init payload", logging.TabID(tabID), logging.Error(err))
	}
	s.log.Info("capture init received",
		logging.TabID(tabID), logging.Domain(tc.host), "boot_queues", boot.QueueNames)

	s.sendTo(tc, models.BridgeTypeUpdateConfig, s.svc.CaptureConfigFor(ctx, tc.host))
}

// handleCaptureEvent probes the untrusted payload shape before decoding:
// a capture event without a non-empty event_name never reaches the store.
func (s *Server) handleCaptureEvent(ctx context.Context, tabID int, host string, payload json.RawMessage) {
	if !gjson.ValidBytes(payload) {
		metrics.EventsDropped.WithLabelValues("malformed").Inc()
		return
	}
	if gjson.GetBytes(payload, "event_name").String() == "" {
		metrics.EventsDropped.WithLabelValues("invalid").Inc()
		return
	}

	var evt models.CapturedEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		metrics.EventsDropped.WithLabelValues("malformed").Inc()
		return
	}

	s.svc.Ingest(ctx, tabID, host, evt)
}

func (s *Server) sendTo(tc *tabConn, msgType string, payload interface{}) {
	msg, err := models.NewBridgeMessage(msgType, models.BridgeSourceContent, payload)
	if err != nil {
		s.log.Warn("encoding bridge payload failed", logging.MsgType(msgType), logging.Error(err))
		return
	}

	tc.writeMu.Lock()
	err = tc.conn.WriteJSON(msg)
	tc.writeMu.Unlock()
	if err != nil {
		s.log.Debug("bridge send failed", logging.MsgType(msgType), logging.Error(err))
	}
}
