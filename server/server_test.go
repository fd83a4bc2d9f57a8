package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/monitor"
	"github.com/wfunc/monopoly/network"
)

func newTestServer(t *testing.T) (*SpectatorServer, *httptest.Server, *monitor.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := monitor.NewMetrics("test", reg)
	s, err := NewSpectatorServer(Options{Metrics: metrics, Gatherer: reg})
	if err != nil {
		t.Fatalf("NewSpectatorServer failed: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Shutdown(context.Background())
		ts.Close()
	})
	return s, ts, metrics
}

func dial(t *testing.T, ts *httptest.Server) *network.WSConnection {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	conn := network.NewWSConnection(ws)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *network.WSConnection, want uint16, v interface{}) {
	t.Helper()
	p, err := conn.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if p.MsgID != want {
		t.Fatalf("Expected message %d, got %d: %s", want, p.MsgID, p.Data)
	}
	if v != nil {
		if err := json.Unmarshal(p.Data, v); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
	}
}

func TestSpectator_JoinAndFollow(t *testing.T) {
	s, ts, metrics := newTestServer(t)
	feed := s.Feed(DefaultRoom)
	r, _ := s.roomManager.GetRoom(DefaultRoom)
	r.Observe(event.Event{Tag: event.TagStart, Game: "g1", Players: []string{"Q", "A"}})

	conn := dial(t, ts)
	if err := conn.Send(network.MsgTypeJoinRoom, nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	var state network.RoomState
	read(t, conn, network.MsgTypeRoomState, &state)
	if state.Room != DefaultRoom || state.Status != "gaming" || state.Spectators != 1 {
		t.Errorf("Unexpected room state %+v", state)
	}
	if len(state.Backlog) != 1 || state.Backlog[0].Tag != event.TagStart {
		t.Errorf("Expected the START in the backlog, got %v", state.Backlog)
	}

	feed.Emit(event.Event{Tag: event.TagRoll, Game: "g1", Player: "Q", Amount: 5})
	var e event.Event
	read(t, conn, network.MsgTypeGameEvent, &e)
	if e.Tag != event.TagRoll || e.Amount != 5 {
		t.Errorf("Unexpected event %+v", e)
	}

	feed.Emit(event.Event{Tag: event.TagWin, Game: "g1", Player: "A"})
	read(t, conn, network.MsgTypeGameEnd, &e)

	if got := testutil.ToFloat64(metrics.Spectators); got != 1 {
		t.Errorf("Expected 1 spectator, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.ActiveRooms); got != 1 {
		t.Errorf("Expected 1 room, got %v", got)
	}
}

func TestSpectator_Errors(t *testing.T) {
	s, ts, _ := newTestServer(t)
	s.Feed(DefaultRoom)
	conn := dial(t, ts)

	var msg network.ErrorMessage
	conn.Send(network.MsgTypeJoinRoom, []byte(`{"room":"nope"}`))
	read(t, conn, network.MsgTypeError, &msg)
	if msg.Reason != "room not found" {
		t.Errorf("Unexpected reason %q", msg.Reason)
	}

	conn.Send(network.MsgTypeJoinRoom, []byte(`{`))
	read(t, conn, network.MsgTypeError, &msg)

	conn.Send(999, nil)
	read(t, conn, network.MsgTypeError, &msg)

	conn.Send(network.MsgTypeHeartbeat, nil)
	read(t, conn, network.MsgTypeHeartbeat, nil)
}

func TestSpectator_Leave(t *testing.T) {
	s, ts, _ := newTestServer(t)
	s.Feed(DefaultRoom)
	conn := dial(t, ts)

	conn.Send(network.MsgTypeJoinRoom, []byte(`{"room":"main"}`))
	read(t, conn, network.MsgTypeRoomState, nil)
	conn.Send(network.MsgTypeLeaveRoom, nil)
	// the heartbeat reply proves the leave was handled
	conn.Send(network.MsgTypeHeartbeat, nil)
	read(t, conn, network.MsgTypeHeartbeat, nil)

	r, _ := s.roomManager.GetRoom(DefaultRoom)
	if r.Count() != 0 {
		t.Errorf("Expected an empty room, got %d", r.Count())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts, metrics := newTestServer(t)
	metrics.Emit(event.Event{Tag: event.TagStart, Game: "g1"})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `test_events_total{tag="START"} 1`) {
		t.Errorf("Unexpected metrics response %d:\n%s", resp.StatusCode, body)
	}
}

func TestReapIdle(t *testing.T) {
	s, ts, _ := newTestServer(t)
	s.idleTimeout = time.Millisecond
	conn := dial(t, ts)

	deadline := time.Now().Add(5 * time.Second)
	for s.sessionManager.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Session never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(5 * time.Millisecond)
	s.reapIdle()

	if _, err := conn.ReadPacket(); err == nil {
		t.Error("Expected the idle connection to be closed")
	}
}
