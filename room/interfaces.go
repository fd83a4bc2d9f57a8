package room

// Broadcaster pushes one packet to every spectator session of a room.
// broadcast.RoomBroadcaster implements it; room must not import broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
}
