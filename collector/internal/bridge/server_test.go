package bridge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sizzlebits/layerlens/collector/internal/service"
	"github.com/sizzlebits/layerlens/collector/internal/store"
	"github.com/sizzlebits/layerlens/common/models"
)

// fakeCapture dials the bridge endpoint the way a capture agent would.
type fakeCapture struct {
	t    *testing.T
	conn *websocket.Conn
}

func attachCapture(t *testing.T, srv *Server, tabID int, host string) *fakeCapture {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", srv.HandleBridge)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/bridge?tab=" +
		strconv.Itoa(tabID) + "&host=" + host
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &fakeCapture{t: t, conn: conn}
}

func (c *fakeCapture) send(msgType string, payload interface{}) {
	c.t.Helper()
	msg, err := models.NewBridgeMessage(msgType, models.BridgeSourcePage, payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

func (c *fakeCapture) sendAs(source, msgType string, payload interface{}) {
	c.t.Helper()
	msg, err := models.NewBridgeMessage(msgType, source, payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

func (c *fakeCapture) next() models.BridgeMessage {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg models.BridgeMessage
	require.NoError(c.t, c.conn.ReadJSON(&msg))
	return msg
}

func newTestServer(t *testing.T) (*Server, *service.Service) {
	t.Helper()
	svc := service.New(store.New(100), nil, nil, nil, nil)
	return NewServer(svc, nil), svc
}

func TestServer_ReadySentOnAttach(t *testing.T) {
	srv, _ := newTestServer(t)
	cap := attachCapture(t, srv, 7, "shop.example.com")

	msg := cap.next()
	assert.Equal(t, models.BridgeTypeReady, msg.Type)
	assert.Equal(t, models.BridgeSourceContent, msg.Source)
}

func TestServer_RegistersTabOnAttach(t *testing.T) {
	srv, svc := newTestServer(t)
	cap := attachCapture(t, srv, 7, "shop.example.com")
	cap.next() // ready

	require.Eventually(t, func() bool {
		host, ok := svc.TabHost(7)
		return ok && host == "shop.example.com"
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []int{7}, srv.Tabs())
}

func TestServer_InitAnsweredWithEffectiveConfig(t *testing.T) {
	srv, _ := newTestServer(t)
	cap := attachCapture(t, srv, 1, "shop.example.com")
	cap.next() // ready

	cap.send(models.BridgeTypeInit, models.CaptureConfig{QueueNames: []string{"bootQueue"}})

	msg := cap.next()
	require.Equal(t, models.BridgeTypeUpdateConfig, msg.Type)

	var cfg models.CaptureConfig
	require.NoError(t, json.Unmarshal(msg.Payload, &cfg))
	// No coordinator behind the service, so defaults apply.
	assert.Equal(t, []string{"dataLayer"}, cfg.QueueNames)
}

func TestServer_CaptureEventIngested(t *testing.T) {
	srv, svc := newTestServer(t)
	cap := attachCapture(t, srv, 3, "shop.example.com")
	cap.next() // ready

	evt := models.NewCapturedEvent("purchase", map[string]interface{}{"value": 99.5}, "dataLayer", 0)
	cap.send(models.BridgeTypeCaptureEvent, evt)

	require.Eventually(t, func() bool {
		return len(svc.Events(3)) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "purchase", svc.Events(3)[0].EventName)
}

func TestServer_MalformedAndNamelessEventsDropped(t *testing.T) {
	srv, svc := newTestServer(t)
	cap := attachCapture(t, srv, 3, "shop.example.com")
	cap.next() // ready

	// Missing event_name.
	cap.send(models.BridgeTypeCaptureEvent, map[string]interface{}{"source": "dataLayer"})
	// Valid event afterwards proves the loop survived.
	cap.send(models.BridgeTypeCaptureEvent, models.NewCapturedEvent("ok", nil, "dataLayer", 0))

	require.Eventually(t, func() bool {
		return len(svc.Events(3)) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "ok", svc.Events(3)[0].EventName)
}

func TestServer_WrongSourceIgnored(t *testing.T) {
	srv, svc := newTestServer(t)
	cap := attachCapture(t, srv, 3, "shop.example.com")
	cap.next() // ready

	// A message claiming to come from the collector side must not be admitted.
	cap.sendAs(models.BridgeSourceContent, models.BridgeTypeCaptureEvent,
		models.NewCapturedEvent("spoofed", nil, "dataLayer", 0))
	cap.send(models.BridgeTypeCaptureEvent, models.NewCapturedEvent("real", nil, "dataLayer", 0))

	require.Eventually(t, func() bool {
		return len(svc.Events(3)) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "real", svc.Events(3)[0].EventName)
}

func TestServer_InteractionQueryAnswered(t *testing.T) {
	srv, svc := newTestServer(t)
	cap := attachCapture(t, srv, 5, "shop.example.com")
	cap.next() // ready

	svc.TouchInteraction(5)
	cap.send(models.BridgeTypeInteractionQuery, nil)

	msg := cap.next()
	require.Equal(t, models.BridgeTypeInteraction, msg.Type)

	var report models.BridgeInteraction
	require.NoError(t, json.Unmarshal(msg.Payload, &report))
	assert.InDelta(t, time.Now().UnixMilli(), report.Timestamp, 2000)
}

func TestServer_PushConfig(t *testing.T) {
	srv, _ := newTestServer(t)
	cap := attachCapture(t, srv, 9, "shop.example.com")
	cap.next() // ready

	want := models.CaptureConfig{QueueNames: []string{"dataLayer", "digitalData"}}
	require.NoError(t, srv.PushConfig(9, want))

	msg := cap.next()
	require.Equal(t, models.BridgeTypeUpdateConfig, msg.Type)
	var got models.CaptureConfig
	require.NoError(t, json.Unmarshal(msg.Payload, &got))
	assert.Equal(t, want.QueueNames, got.QueueNames)

	assert.Error(t, srv.PushConfig(404, want))
}

func TestServer_DetachRemovesTab(t *testing.T) {
	srv, _ := newTestServer(t)

	detached := make(chan int, 1)
	srv.OnDetach(func(tabID int) { detached <- tabID })

	cap := attachCapture(t, srv, 11, "shop.example.com")
	cap.next() // ready
	cap.conn.Close()

	select {
	case id := <-detached:
		assert.Equal(t, 11, id)
	case <-time.After(2 * time.Second):
		t.Fatal("detach callback never fired")
	}
	assert.Empty(t, srv.Tabs())
}
