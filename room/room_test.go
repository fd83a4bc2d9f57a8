package room

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/network"
	"github.com/wfunc/monopoly/session"
)

// MockBroadcaster is a test double for the Broadcaster interface.
type MockBroadcaster struct {
	sent []uint16
}

func (m *MockBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	m.sent = append(m.sent, msgID)
	return nil
}

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

// newTestSession creates a dummy session for testing purposes.
func newTestSession(id string) *session.Session {
	return session.NewSession(id, &MockConnection{})
}

func TestRoomManager_CreateAndGetRoom(t *testing.T) {
	manager := NewRoomManager()
	mockBroadcaster := &MockBroadcaster{}

	roomID := "test_room_1"
	room := manager.CreateRoom(roomID, "Test Room", 4, mockBroadcaster)

	if room == nil {
		t.Fatal("CreateRoom should not return nil")
	}

	if room.ID != roomID {
		t.Errorf("Expected room ID %s, got %s", roomID, room.ID)
	}

	retrievedRoom, exists := manager.GetRoom(roomID)
	if !exists {
		t.Fatal("GetRoom should find the created room")
	}

	if retrievedRoom != room {
		t.Error("GetRoom should return the same room instance")
	}

	if again := manager.CreateRoom(roomID, "Other", 1, mockBroadcaster); again != room {
		t.Error("CreateRoom should reuse an existing room")
	}

	manager.CreateRoom("test_room_2", "Second", 0, mockBroadcaster)
	if manager.Count() != 2 || len(manager.Rooms()) != 2 {
		t.Errorf("Expected 2 rooms, got %d", manager.Count())
	}
	manager.RemoveRoom(roomID)
	if _, exists := manager.GetRoom(roomID); exists {
		t.Error("RemoveRoom should drop the room")
	}
}

func TestRoom_AddSpectator(t *testing.T) {
	mockBroadcaster := &MockBroadcaster{}
	room := NewRoom("test_room_2", "Add Spectator Test", 2, mockBroadcaster)

	spectator := newTestSession("spectator1")

	if !room.AddSpectator(spectator) {
		t.Fatal("Failed to add first spectator")
	}

	if room.Count() != 1 {
		t.Errorf("Expected spectator count to be 1, got %d", room.Count())
	}

	if _, exists := room.GetSpectator(spectator.GetID()); !exists {
		t.Error("Spectator was not correctly added to the room")
	}
	if spectator.RoomID != room.ID {
		t.Errorf("Expected the session to point at %s, got %q", room.ID, spectator.RoomID)
	}
}

func TestRoom_AddSpectator_Full(t *testing.T) {
	mockBroadcaster := &MockBroadcaster{}
	room := NewRoom("test_room_3", "Full Room Test", 1, mockBroadcaster)

	// Add first spectator, should succeed
	if !room.AddSpectator(newTestSession("s1")) {
		t.Fatal("Failed to add the first spectator")
	}

	// Add second spectator, should fail
	if room.AddSpectator(newTestSession("s2")) {
		t.Fatal("Should not be able to add a spectator to a full room")
	}

	if room.Count() != 1 {
		t.Errorf("Expected spectator count to be 1 after trying to add to a full room, got %d", room.Count())
	}

	unlimited := NewRoom("test_room_4", "Unlimited", 0, mockBroadcaster)
	for i := 0; i < 10; i++ {
		if !unlimited.AddSpectator(newTestSession(fmt.Sprintf("s%d", i))) {
			t.Fatalf("Spectator %d refused by an unlimited room", i)
		}
	}
}

func TestRoom_RemoveSpectator(t *testing.T) {
	mockBroadcaster := &MockBroadcaster{}
	room := NewRoom("test_room_4", "Remove Spectator Test", 2, mockBroadcaster)

	spectator := newTestSession("spectator1")
	room.AddSpectator(spectator)

	room.RemoveSpectator(spectator.GetID())

	if room.Count() != 0 {
		t.Errorf("Expected spectator count to be 0 after removing, got %d", room.Count())
	}
	if spectator.RoomID != "" {
		t.Error("Removed spectator should no longer point at the room")
	}
	if len(room.GetSessions()) != 0 {
		t.Error("GetSessions should be empty")
	}
}

func TestRoom_ObserveStatus(t *testing.T) {
	room := NewRoom("table", "Table", 0, &MockBroadcaster{})
	if room.GetStatus() != StatusWaiting {
		t.Fatalf("Expected a new room to be waiting, got %s", room.GetStatus())
	}

	steps := []struct {
		tag  event.Tag
		want RoomStatus
	}{
		{event.TagStart, StatusGaming},
		{event.TagRoll, StatusGaming},
		{event.TagWin, StatusSettlement},
		{event.TagStart, StatusGaming},
		{event.TagStop, StatusIdle},
	}
	for _, s := range steps {
		room.Observe(event.Event{Tag: s.tag, Game: "g1"})
		if got := room.GetStatus(); got != s.want {
			t.Errorf("After %s expected %s, got %s", s.tag, s.want, got)
		}
	}
	if room.GameID() != "g1" {
		t.Errorf("Expected game g1, got %q", room.GameID())
	}
}

func TestRoom_Backlog(t *testing.T) {
	room := NewRoom("table", "Table", 0, &MockBroadcaster{})
	room.BacklogSize = 3

	room.Observe(event.Event{Tag: event.TagRoll, Text: "old game"})
	room.Observe(event.Event{Tag: event.TagStart, Game: "g2"})
	if b := room.Backlog(); len(b) != 1 || b[0].Tag != event.TagStart {
		t.Fatalf("START should reset the backlog, got %v", b)
	}

	for i := 0; i < 4; i++ {
		room.Observe(event.Event{Tag: event.TagRoll, Amount: i})
	}
	b := room.Backlog()
	if len(b) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(b))
	}
	if b[0].Amount != 1 || b[2].Amount != 3 {
		t.Errorf("Expected the newest events oldest first, got %v", b)
	}
}

func TestRoom_Broadcast(t *testing.T) {
	b := &MockBroadcaster{}
	room := NewRoom("table", "Table", 0, b)
	if err := room.Broadcast(network.MsgTypeGameEvent, nil); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}
	if len(b.sent) != 1 || b.sent[0] != network.MsgTypeGameEvent {
		t.Errorf("Unexpected broadcasts %v", b.sent)
	}
}
