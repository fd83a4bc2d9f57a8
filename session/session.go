// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/monopoly/network"
)

// Session is one connected spectator.
type Session struct {
	ID         string
	Conn       network.Connection
	RoomID     string
	Data       map[string]interface{} // 自定义数据
	CreatedAt  time.Time
	lastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
		Data:       make(map[string]interface{}),
	}
}

func (s *Session) Set(key string, value interface{}) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Data[key] = value
}

func (s *Session) Get(key string) interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Data[key]
}

// Touch marks the session as active, e.g. on a heartbeat.
func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

// Send does not count as activity: only the spectator's own packets do.
func (s *Session) Send(msgID uint16, data []byte) error {
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// Sessions returns every session.
func (m *Manager) Sessions() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

// Idle returns the sessions silent for longer than d.
func (m *Manager) Idle(d time.Duration) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	cutoff := time.Now().Add(-d)
	var result []*Session
	for _, session := range m.sessions {
		if session.LastActive().Before(cutoff) {
			result = append(result, session)
		}
	}
	return result
}
