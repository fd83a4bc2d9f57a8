// Package event carries the semantic `[TAG] text` lines the engine emits for
// every state change.
package event

import (
	"sync"
	"time"
)

type Tag string

const (
	TagStart      Tag = "START"
	TagRoll       Tag = "ROLL"
	TagStep       Tag = "STEP"
	TagBlock      Tag = "BLOCK"
	TagBomb       Tag = "BOMB"
	TagBuy        Tag = "BUY"
	TagUpgrade    Tag = "UPGRADE"
	TagToll       Tag = "TOLL"
	TagGod        Tag = "GOD"
	TagBankrupt   Tag = "BANKRUPT"
	TagItemHouse  Tag = "ITEM HOUSE"
	TagItem       Tag = "ITEM"
	TagGiftHouse  Tag = "GIFT HOUSE"
	TagGift       Tag = "GIFT"
	TagMagicHouse Tag = "MAGIC HOUSE"
	TagMagic      Tag = "MAGIC"
	TagPrison     Tag = "PRISON"
	TagMine       Tag = "MINE"
	TagHospital   Tag = "HOSPITAL"
	TagSell       Tag = "SELL"
	TagPlace      Tag = "PLACE"
	TagRobot      Tag = "ROBOT"
	TagSkip       Tag = "SKIP"
	TagTurn       Tag = "TURN"
	TagWin        Tag = "WIN"
	TagGameOver   Tag = "GAME OVER"
	TagQuery      Tag = "QUERY"
	TagHelp       Tag = "HELP"
	TagPreset     Tag = "PRESET"
	TagErr        Tag = "ERR"
	TagInfo       Tag = "INFO"
	TagStop       Tag = "STOP"
)

// Event is one state change. Player is the acting player's id when there is one.
type Event struct {
	Tag    Tag       `json:"tag"`
	Game   string    `json:"game"`
	Player string    `json:"player,omitempty"`
	Amount int       `json:"amount,omitempty"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
	// Players lists the seated ids in rotation order on START and WIN.
	Players []string `json:"players,omitempty"`
}

func (e Event) String() string {
	if e.Text == "" {
		return "[" + string(e.Tag) + "]"
	}
	return "[" + string(e.Tag) + "] " + e.Text
}

// Sink receives events in emission order. Emit must not call back into the game.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(e Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// MultiSink fans an event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// Recorder keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Tags returns the recorded tags in order.
func (r *Recorder) Tags() []Tag {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tag, len(r.events))
	for i, e := range r.events {
		out[i] = e.Tag
	}
	return out
}

// Has reports whether tag was recorded.
func (r *Recorder) Has(tag Tag) bool {
	return r.Count(tag) > 0
}

func (r *Recorder) Count(tag Tag) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Tag == tag {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
