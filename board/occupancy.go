package board

import (
	"github.com/wfunc/monopoly/player"
)

// Attach registers p on node pos. The player's Attached flag always mirrors
// membership in exactly one occupancy set.
func (b *Board) Attach(p *player.Player, pos int) error {
	if p.Attached {
		return ErrAlreadyAttached
	}
	n := b.Node(pos)
	if n == nil {
		return ErrPosition
	}
	n.occupants = append(n.occupants, p.Index)
	p.Position = pos
	p.Attached = true
	return nil
}

// Detach removes p from its current node.
func (b *Board) Detach(p *player.Player) error {
	if !p.Attached {
		return ErrNotAttached
	}
	n := b.Node(p.Position)
	if n == nil {
		return ErrPosition
	}
	for i, slot := range n.occupants {
		if slot == p.Index {
			n.occupants = append(n.occupants[:i], n.occupants[i+1:]...)
			break
		}
	}
	p.Attached = false
	return nil
}

// Move detaches then re-attaches p at pos. On failure p is left detached;
// callers must treat that as an invariant violation.
func (b *Board) Move(p *player.Player, pos int) error {
	if err := b.Detach(p); err != nil {
		return err
	}
	return b.Attach(p, pos)
}
