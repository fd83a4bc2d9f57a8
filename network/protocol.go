package network

import (
	"github.com/wfunc/monopoly/event"
)

const (
	MsgTypeHeartbeat = 1
	MsgTypeJoinRoom  = 101
	MsgTypeLeaveRoom = 102
	MsgTypeRoomState = 301
	MsgTypeGameStart = 303
	MsgTypeGameEvent = 304
	MsgTypeGameEnd   = 305
	MsgTypeError     = 400
)

// JoinRoom asks to watch a table. An empty Room selects the default one.
type JoinRoom struct {
	Room string `json:"room"`
}

// RoomState answers a join with the room status and the recent events.
type RoomState struct {
	Room       string        `json:"room"`
	Status     string        `json:"status"`
	Spectators int           `json:"spectators"`
	Backlog    []event.Event `json:"backlog,omitempty"`
}

type ErrorMessage struct {
	Reason string `json:"reason"`
}

// EventMsgType picks the message type an event is delivered as.
func EventMsgType(tag event.Tag) uint16 {
	switch tag {
	case event.TagStart:
		return MsgTypeGameStart
	case event.TagWin, event.TagGameOver:
		return MsgTypeGameEnd
	}
	return MsgTypeGameEvent
}
