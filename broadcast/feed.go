package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/network"
	"github.com/wfunc/monopoly/room"
)

// FeedBuffer is how many events may wait for delivery before new ones are dropped.
const FeedBuffer = 256

// Feed is an event.Sink publishing the game's events to one room. The room
// backlog is updated on the engine's goroutine; network delivery happens on
// the feed's own goroutine so a slow spectator never stalls a turn.
type Feed struct {
	room        *room.Room
	broadcaster Broadcaster
	ch          chan event.Event
	wg          sync.WaitGroup
	once        sync.Once
}

func NewFeed(r *room.Room, b Broadcaster) *Feed {
	f := &Feed{room: r, broadcaster: b, ch: make(chan event.Event, FeedBuffer)}
	f.wg.Add(1)
	go f.loop()
	return f
}

func (f *Feed) Emit(e event.Event) {
	f.room.Observe(e)
	select {
	case f.ch <- e:
	default:
		logger.Log.Warnf("spectator feed full, dropped [%s]", e.Tag)
	}
}

func (f *Feed) loop() {
	defer f.wg.Done()
	for e := range f.ch {
		data, err := json.Marshal(e)
		if err != nil {
			logger.Log.Errorf("encode event: %v", err)
			continue
		}
		if err := f.broadcaster.BroadcastToRoom(f.room.ID, network.EventMsgType(e.Tag), data); err != nil {
			logger.Log.Debugf("broadcast [%s]: %v", e.Tag, err)
		}
	}
}

// Close delivers the queued events and stops the feed. Emit must not be
// called afterwards.
func (f *Feed) Close() {
	f.once.Do(func() { close(f.ch) })
	f.wg.Wait()
}
