package game

import (
	"context"

	"github.com/wfunc/monopoly/board"
	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/player"
)

// Roll throws the die, moves the active player and ends the turn.
func (g *Game) Roll(ctx context.Context) error {
	if err := g.enter(); err != nil {
		return err
	}
	defer g.leave()

	p, err := g.mover()
	if err != nil {
		return err
	}
	n := g.dice.Roll(g.rules.DiceFaces)
	g.emit(event.TagRoll, p, n, "%s rolled %d", p.Name, n)
	return g.advance(ctx, p, n)
}

// Step moves the active player n nodes (negative goes backwards, zero
// re-enters the current node) and ends the turn.
func (g *Game) Step(ctx context.Context, n int) error {
	if err := g.enter(); err != nil {
		return err
	}
	defer g.leave()

	p, err := g.mover()
	if err != nil {
		return err
	}
	if n > g.board.Size() || -n > g.board.Size() {
		return reject("step %d exceeds the board", n)
	}
	g.emit(event.TagStep, p, n, "%s steps %d", p.Name, n)
	return g.advance(ctx, p, n)
}

func (g *Game) advance(ctx context.Context, p *player.Player, n int) error {
	landed, err := g.walk(p, n)
	if err != nil {
		return err
	}
	if landed {
		if err := g.land(ctx, p); err != nil {
			return err
		}
	}
	return g.finishTurn(p)
}

// walk moves p one node at a time. A barrier ends the walk where it lies; a
// bomb sends p to the nearest hospital and no landing takes place.
func (g *Game) walk(p *player.Player, n int) (bool, error) {
	dir := 1
	if n < 0 {
		dir, n = -1, -n
	}
	pos := p.Position
	for i := 0; i < n; i++ {
		pos = g.board.Wrap(pos + dir)
		switch h, _ := g.board.Node(pos).Hazard(); h {
		case board.HazardBlock:
			g.board.ClearHazard(pos)
			if err := g.relocate(p, pos); err != nil {
				return false, err
			}
			g.emit(event.TagBlock, p, pos, "%s is stopped by a barrier at %d", p.Name, pos)
			return true, nil

		case board.HazardBomb:
			g.board.ClearHazard(pos)
			dest, ok := g.board.FindNearest(pos, board.KindHospital)
			if !ok {
				dest = pos
			}
			if err := g.relocate(p, dest); err != nil {
				return false, err
			}
			p.Buff.SkipRounds = g.rules.HospitalRounds
			g.emit(event.TagBomb, p, pos, "%s steps on a bomb at %d", p.Name, pos)
			g.emit(event.TagHospital, p, g.rules.HospitalRounds, "%s is taken to the hospital at %d for %d rounds", p.Name, dest, g.rules.HospitalRounds)
			return false, nil
		}
	}
	if err := g.relocate(p, pos); err != nil {
		return false, err
	}
	return true, nil
}

func (g *Game) relocate(p *player.Player, pos int) error {
	if pos == p.Position && p.Attached {
		return nil
	}
	if err := g.board.Move(p, pos); err != nil {
		return invariant("move %s to %d: %v", p.ID, pos, err)
	}
	return nil
}
