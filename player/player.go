// Package player holds per-player funds, points, inventory, buffs and the
// seat roster. Mutators here are plain data operations: bankruptcy and every
// other policy is decided by the turn engine.
package player

import (
	"errors"
	"sort"
)

type Color int

const (
	ColorNone Color = iota
	ColorRed
	ColorGreen
	ColorBlue
	ColorYellow
)

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	case ColorYellow:
		return "yellow"
	}
	return "none"
}

type Item int

const (
	ItemBlock Item = iota
	ItemBomb
	ItemRobot
	ItemCount
)

func (i Item) String() string {
	switch i {
	case ItemBlock:
		return "barrier"
	case ItemBomb:
		return "bomb"
	case ItemRobot:
		return "robot"
	}
	return "unknown"
}

// ParseItem accepts the dump vocabulary ("barrier", "bomb", "robot") plus "block".
func ParseItem(s string) (Item, bool) {
	switch s {
	case "barrier", "block":
		return ItemBlock, true
	case "bomb":
		return ItemBomb, true
	case "robot":
		return ItemRobot, true
	}
	return ItemCount, false
}

type Asset struct {
	// Funds may go negative; the engine turns that into bankruptcy.
	Funds   int
	Points  int
	Items   [ItemCount]int
	estates map[int]struct{}
}

// InventoryTotal is the number of items held across all kinds.
func (a *Asset) InventoryTotal() int {
	n := 0
	for _, c := range a.Items {
		n += c
	}
	return n
}

func (a *Asset) AddEstate(pos int) {
	if a.estates == nil {
		a.estates = make(map[int]struct{})
	}
	a.estates[pos] = struct{}{}
}

func (a *Asset) RemoveEstate(pos int) bool {
	if _, ok := a.estates[pos]; !ok {
		return false
	}
	delete(a.estates, pos)
	return true
}

func (a *Asset) OwnsEstate(pos int) bool {
	_, ok := a.estates[pos]
	return ok
}

// Estates returns owned node indices in ascending order.
func (a *Asset) Estates() []int {
	out := make([]int, 0, len(a.estates))
	for pos := range a.estates {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

type Buff struct {
	SkipRounds int
	GodRounds  int
}

type Stat struct {
	Sells int
	// Empty and God are the per-turn flags set at decay and cleared at wear-off.
	Empty    bool
	God      bool
	Bankrupt bool
}

type Player struct {
	Valid bool

	Index int
	Seq   int
	ID    string
	Name  string
	Color Color

	Position int
	Attached bool

	Asset Asset
	Buff  Buff
	Stat  Stat
}

var (
	ErrSlotRange    = errors.New("player slot out of range")
	ErrSlotInUse    = errors.New("player slot already in use")
	ErrSlotFree     = errors.New("player slot not in use")
	ErrStillOnBoard = errors.New("player still attached to the board")
)

// Create assigns identity and zeroes asset, buff and stat. It does not
// place the player on the board.
func (p *Player) Create(slot, seq int) error {
	if slot < 0 || slot >= MaxSlots {
		return ErrSlotRange
	}
	if p.Valid {
		return ErrSlotInUse
	}
	ident := identities[slot]
	*p = Player{
		Valid: true,
		Index: slot,
		Seq:   seq,
		ID:    ident.id,
		Name:  ident.name,
		Color: ident.color,
	}
	return nil
}

// Destroy clears the slot. Attached players must be detached first.
func (p *Player) Destroy() error {
	if !p.Valid {
		return ErrSlotFree
	}
	if p.Attached {
		return ErrStillOnBoard
	}
	*p = Player{Index: p.Index}
	return nil
}

// Decay counts buffs down by one at the start of the player's turn. A god
// round is consumed by the turn; the turn is empty while skip rounds remain.
func (p *Player) Decay() {
	if p.Buff.GodRounds > 0 {
		p.Buff.GodRounds--
		p.Stat.God = true
	}
	if p.Buff.SkipRounds > 0 {
		p.Buff.SkipRounds--
	}
	p.Stat.Empty = p.Buff.SkipRounds > 0
}

// WearOff clears the per-turn flags and counters after settlement.
func (p *Player) WearOff() {
	p.Stat.God = false
	p.Stat.Empty = false
	p.Stat.Sells = 0
}

// Eligible reports whether rotation may hand the turn to p.
func (p *Player) Eligible() bool {
	return p.Valid && p.Attached && !p.Stat.Bankrupt
}
