// room/room.go
package room

import (
	"sync"
	"time"

	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/session"
)

// RoomStatus 表示房间的业务状态，例如等待、游戏中等
type RoomStatus int

const (
	StatusIdle RoomStatus = iota
	StatusWaiting
	StatusGaming
	StatusSettlement
)

func (s RoomStatus) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusGaming:
		return "gaming"
	case StatusSettlement:
		return "settlement"
	}
	return "idle"
}

// DefaultBacklog is how many recent events a late spectator receives.
const DefaultBacklog = 50

// Room 是一张牌桌的观战房间
type Room struct {
	ID            string
	Name          string
	MaxSpectators int
	Status        RoomStatus
	Spectators    map[string]*session.Session // sessionID -> session
	CreatedAt     time.Time
	BacklogSize   int
	backlog       []event.Event
	game          string
	broadcaster   Broadcaster // Use the interface, not the concrete type
	statusMutex   sync.RWMutex
	playerMutex   sync.RWMutex
}

// NewRoom 创建一个新房间. maxSpectators <= 0 means unlimited.
func NewRoom(id, name string, maxSpectators int, broadcaster Broadcaster) *Room {
	return &Room{
		ID:            id,
		Name:          name,
		MaxSpectators: maxSpectators,
		Status:        StatusWaiting,
		Spectators:    make(map[string]*session.Session),
		CreatedAt:     time.Now(),
		BacklogSize:   DefaultBacklog,
		broadcaster:   broadcaster,
	}
}

func (r *Room) GetID() string {
	return r.ID
}

// Broadcast sends a message to all spectators in the room.
func (r *Room) Broadcast(msgID uint16, data []byte) error {
	return r.broadcaster.BroadcastToRoom(r.ID, msgID, data)
}

// --- 房间核心逻辑 ---

// Observe records a game event: it moves the room status and keeps the
// event in the backlog. A START clears the previous game's backlog.
func (r *Room) Observe(e event.Event) {
	r.statusMutex.Lock()
	defer r.statusMutex.Unlock()

	switch e.Tag {
	case event.TagStart:
		r.Status = StatusGaming
		r.game = e.Game
		r.backlog = r.backlog[:0]
	case event.TagWin, event.TagGameOver:
		r.Status = StatusSettlement
	case event.TagStop:
		r.Status = StatusIdle
	}

	r.backlog = append(r.backlog, e)
	if n := len(r.backlog) - r.BacklogSize; r.BacklogSize > 0 && n > 0 {
		r.backlog = append(r.backlog[:0], r.backlog[n:]...)
	}
}

// Backlog returns a copy of the recent events, oldest first.
func (r *Room) Backlog() []event.Event {
	r.statusMutex.RLock()
	defer r.statusMutex.RUnlock()
	return append([]event.Event(nil), r.backlog...)
}

// GameID is the id of the last game that started in this room.
func (r *Room) GameID() string {
	r.statusMutex.RLock()
	defer r.statusMutex.RUnlock()
	return r.game
}

// AddSpectator 添加一个观众到房间
func (r *Room) AddSpectator(s *session.Session) bool {
	r.playerMutex.Lock()
	defer r.playerMutex.Unlock()

	if r.MaxSpectators > 0 && len(r.Spectators) >= r.MaxSpectators {
		return false
	}

	r.Spectators[s.ID] = s
	s.RoomID = r.ID
	return true
}

// RemoveSpectator 从房间移除一个观众
func (r *Room) RemoveSpectator(sessionID string) {
	r.playerMutex.Lock()
	defer r.playerMutex.Unlock()

	if s, exists := r.Spectators[sessionID]; exists {
		s.RoomID = ""
		delete(r.Spectators, sessionID)
	}
}

func (r *Room) GetSpectator(sessionID string) (*session.Session, bool) {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	s, exists := r.Spectators[sessionID]
	return s, exists
}

func (r *Room) Count() int {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()
	return len(r.Spectators)
}

// GetSessions returns a slice of all sessions in the room (thread-safe).
func (r *Room) GetSessions() []*session.Session {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	sessions := make([]*session.Session, 0, len(r.Spectators))
	for _, s := range r.Spectators {
		sessions = append(sessions, s)
	}
	return sessions
}

// SetStatus 设置房间的业务状态
func (r *Room) SetStatus(status RoomStatus) {
	r.statusMutex.Lock()
	defer r.statusMutex.Unlock()
	r.Status = status
}

// GetStatus 获取房间的业务状态
func (r *Room) GetStatus() RoomStatus {
	r.statusMutex.RLock()
	defer r.statusMutex.RUnlock()
	return r.Status
}

// --- 房间管理器 ---

// Manager 管理所有房间
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom 创建一个新房间并添加到管理器. An existing room with the
// same id is returned unchanged.
func (m *Manager) CreateRoom(id, name string, maxSpectators int, broadcaster Broadcaster) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[id]; exists {
		return room
	}
	room := NewRoom(id, name, maxSpectators, broadcaster)
	m.rooms[id] = room
	return room
}

// RemoveRoom 从管理器中移除一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, id)
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// Rooms returns every room.
func (m *Manager) Rooms() []*Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}
