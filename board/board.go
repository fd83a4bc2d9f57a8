// Package board models the circular map: node kinds and payloads, estate
// ownership, resting hazards and the per-node occupancy sets.
package board

import (
	"errors"
	"fmt"

	"github.com/wfunc/monopoly/player"
)

var (
	ErrLayout          = errors.New("invalid board layout")
	ErrPosition        = errors.New("position out of range")
	ErrNotEstate       = errors.New("node is not an estate")
	ErrOwned           = errors.New("estate already owned")
	ErrNotOwner        = errors.New("estate not owned by player")
	ErrHazardPresent   = errors.New("node already holds an item")
	ErrAlreadyAttached = errors.New("player already attached")
	ErrNotAttached     = errors.New("player not attached")
)

// Stock is what every shop node is stocked with at build time.
type Stock struct {
	Offers []Offer
	Gifts  []Gift
}

type Board struct {
	nodes  []Node
	width  int
	height int
	start  int
}

func layoutErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLayout, fmt.Sprintf(format, args...))
}

// Build validates the layout, stamps the special nodes and fills the areas
// with estates. A board that fails to build must not be used.
func Build(layout Layout, stock Stock) (*Board, error) {
	n := layout.Size
	if n <= 0 || n > MaxNodes {
		return nil, layoutErr("size %d out of range", n)
	}
	if n&1 != 0 {
		return nil, layoutErr("size %d must be even", n)
	}
	if layout.Width < MinWidth {
		return nil, layoutErr("width %d too small", layout.Width)
	}
	if layout.Width*2 > n {
		return nil, layoutErr("width %d too big for size %d", layout.Width, n)
	}
	if len(layout.Start) == 0 {
		return nil, layoutErr("no start node")
	}

	b := &Board{
		nodes:  make([]Node, n),
		width:  layout.Width,
		height: 2 + (n-layout.Width*2)/2,
		start:  layout.Start[0],
	}
	for i := range b.nodes {
		b.nodes[i] = Node{Index: i, placer: NoOwner}
	}

	stamp := func(positions []int, mk func(i int) Payload) error {
		for i, pos := range positions {
			if pos < 0 || pos >= n {
				return layoutErr("special position %d out of range", pos)
			}
			if b.nodes[pos].payload != nil {
				return layoutErr("position %d declared twice", pos)
			}
			b.nodes[pos].payload = mk(i)
		}
		return nil
	}
	fixed := func(k Kind) func(int) Payload {
		return func(int) Payload { return plain(k) }
	}

	steps := []struct {
		positions []int
		mk        func(int) Payload
	}{
		{layout.Start, fixed(KindStart)},
		{layout.Hospital, fixed(KindHospital)},
		{layout.ItemShop, func(int) Payload { return newItemShop(stock.Offers) }},
		{layout.GiftShop, func(int) Payload { return &GiftShop{Gifts: append([]Gift(nil), stock.Gifts...)} }},
		{layout.Prison, fixed(KindPrison)},
		{layout.Park, fixed(KindPark)},
		{layout.MagicShop, fixed(KindMagicShop)},
	}
	for _, s := range steps {
		if err := stamp(s.positions, s.mk); err != nil {
			return nil, err
		}
	}
	mines := make([]int, len(layout.Mines))
	for i, m := range layout.Mines {
		mines[i] = m.Pos
	}
	if err := stamp(mines, func(i int) Payload { return &Mine{Points: layout.Mines[i].Points} }); err != nil {
		return nil, err
	}

	for _, a := range layout.Areas {
		if a.Start < 0 || a.End > n || a.Start >= a.End {
			return nil, layoutErr("area [%d,%d) out of range", a.Start, a.End)
		}
		for pos := a.Start; pos < a.End; pos++ {
			if b.nodes[pos].payload != nil {
				continue
			}
			b.nodes[pos].payload = &Estate{Price: a.Price, Owner: NoOwner}
		}
	}

	for i := range b.nodes {
		if b.nodes[i].Index != i {
			return nil, layoutErr("node index %d != position %d", b.nodes[i].Index, i)
		}
		if b.nodes[i].Kind() == KindInvalid {
			return nil, layoutErr("position %d is not covered", i)
		}
	}
	return b, nil
}

func (b *Board) Size() int   { return len(b.nodes) }
func (b *Board) Width() int  { return b.width }
func (b *Board) Height() int { return b.height }

// StartPos is where players are seated.
func (b *Board) StartPos() int { return b.start }

// Node returns the node at pos, or nil when pos is off the board.
func (b *Board) Node(pos int) *Node {
	if pos < 0 || pos >= len(b.nodes) {
		return nil
	}
	return &b.nodes[pos]
}

// Wrap maps any signed position onto the ring.
func (b *Board) Wrap(pos int) int {
	n := len(b.nodes)
	return ((pos % n) + n) % n
}

// FindNearest scans ±1, ±2, ... from `from` up to half the ring and returns
// the first node of kind. Forward wins a tie.
func (b *Board) FindNearest(from int, kind Kind) (int, bool) {
	half := len(b.nodes) / 2
	for d := 1; d <= half; d++ {
		if pos := b.Wrap(from + d); b.nodes[pos].Kind() == kind {
			return pos, true
		}
		if pos := b.Wrap(from - d); b.nodes[pos].Kind() == kind {
			return pos, true
		}
	}
	return -1, false
}

// Price is the current value of an estate and zero for every other kind.
func (b *Board) Price(pos int) int {
	n := b.Node(pos)
	if n == nil {
		return 0
	}
	if e := n.Estate(); e != nil {
		return e.Value()
	}
	return 0
}

func (b *Board) estate(pos int) (*Estate, error) {
	n := b.Node(pos)
	if n == nil {
		return nil, ErrPosition
	}
	e := n.Estate()
	if e == nil {
		return nil, ErrNotEstate
	}
	return e, nil
}

// Claim makes p the owner of an unowned estate and records it in p's estate set.
func (b *Board) Claim(pos int, p *player.Player) error {
	e, err := b.estate(pos)
	if err != nil {
		return err
	}
	if e.Owner != NoOwner {
		return ErrOwned
	}
	e.Owner = p.Index
	p.Asset.AddEstate(pos)
	return nil
}

// Release returns p's estate to the bank at base level.
func (b *Board) Release(pos int, p *player.Player) error {
	e, err := b.estate(pos)
	if err != nil {
		return err
	}
	if e.Owner != p.Index || !p.Asset.OwnsEstate(pos) {
		return ErrNotOwner
	}
	e.Owner = NoOwner
	e.Level = LevelWasteland
	p.Asset.RemoveEstate(pos)
	return nil
}

// SetLevel forces an estate's level.
func (b *Board) SetLevel(pos int, lv Level) error {
	e, err := b.estate(pos)
	if err != nil {
		return err
	}
	if lv < LevelWasteland || lv > MaxLevel {
		return fmt.Errorf("level %d out of range", lv)
	}
	e.Level = lv
	return nil
}

// PlaceHazard rests an item on pos. Only position and the item slot are
// checked here; placement rules belong to the caller.
func (b *Board) PlaceHazard(pos int, h Hazard, placer int) error {
	n := b.Node(pos)
	if n == nil {
		return ErrPosition
	}
	if n.hazard != HazardNone {
		return ErrHazardPresent
	}
	n.hazard = h
	n.placer = placer
	return nil
}

// ClearHazard removes and returns whatever rested on pos.
func (b *Board) ClearHazard(pos int) Hazard {
	n := b.Node(pos)
	if n == nil {
		return HazardNone
	}
	h := n.hazard
	n.hazard = HazardNone
	n.placer = NoOwner
	return h
}

// HazardSpot is a resting item and its position.
type HazardSpot struct {
	Pos    int
	Hazard Hazard
}

// Hazards lists resting items in position order.
func (b *Board) Hazards() []HazardSpot {
	var out []HazardSpot
	for i := range b.nodes {
		if h := b.nodes[i].hazard; h != HazardNone {
			out = append(out, HazardSpot{Pos: i, Hazard: h})
		}
	}
	return out
}
