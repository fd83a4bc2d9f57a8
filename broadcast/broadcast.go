// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/room"
	"github.com/wfunc/monopoly/session"
)

var (
	ErrRoomNotFound = errors.New("room not found")
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
	BroadcastToAll(msgID uint16, data []byte) error
	BroadcastToSessions(sessionIDs []string, msgID uint16, data []byte) error
}

// Counter is told about every delivered message.
type Counter interface {
	IncMessagesSent()
}

// 基于房间的广播器
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
	counter        Counter
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

// WithCounter sets the delivery counter and returns b.
func (b *RoomBroadcaster) WithCounter(c Counter) *RoomBroadcaster {
	b.counter = c
	return b
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	room, exists := b.roomManager.GetRoom(roomID)
	if !exists {
		return ErrRoomNotFound
	}

	// Get a thread-safe copy of the sessions
	b.send(room.GetSessions(), msgID, data)
	return nil
}

func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	for _, room := range b.roomManager.Rooms() {
		b.send(room.GetSessions(), msgID, data)
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToSessions(sessionIDs []string, msgID uint16, data []byte) error {
	var sessions []*session.Session
	for _, id := range sessionIDs {
		if s, ok := b.sessionManager.Get(id); ok {
			sessions = append(sessions, s)
		}
	}
	b.send(sessions, msgID, data)
	return nil
}

func (b *RoomBroadcaster) send(sessions []*session.Session, msgID uint16, data []byte) {
	for _, s := range sessions {
		if err := s.Send(msgID, data); err != nil {
			// 发送失败的连接由读循环或空闲回收清理
			logger.Log.Debugf("send to session %s: %v", s.ID, err)
			continue
		}
		if b.counter != nil {
			b.counter.IncMessagesSent()
		}
	}
}
