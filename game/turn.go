package game

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/player"
	"github.com/wfunc/monopoly/prompt"
	"github.com/wfunc/monopoly/state"
)

// Commander applies one command line to the game. Rejections are reported
// and the same player is asked again; ErrInvariant stops the engine.
type Commander interface {
	Execute(ctx context.Context, g *Game, line string) error
}

// CommanderFunc adapts a function to Commander.
type CommanderFunc func(ctx context.Context, g *Game, line string) error

func (f CommanderFunc) Execute(ctx context.Context, g *Game, line string) error {
	return f(ctx, g, line)
}

// Run drives the game until it stops. Input is only read between turns'
// resolution steps; end of input or ctx cancellation stops the game there.
func (g *Game) Run(ctx context.Context, cmd Commander) error {
	for g.Phase() != state.Stopped {
		if _, err := g.prepare(); err != nil {
			return g.fail(err)
		}

		g.term.Prompt(g.PromptText())
		line, err := g.term.ReadLine(ctx)
		if errors.Is(err, prompt.ErrLineTooLong) {
			g.report(reject("%v, line ignored", err))
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				logger.Log.Infof("input closed: %v", err)
				g.Stop(false)
				return nil
			}
			return g.fail(err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := cmd.Execute(ctx, g, line); err != nil {
			if errors.Is(err, ErrInvariant) {
				return g.fail(err)
			}
			g.report(err)
		}
	}
	return nil
}

// report turns a recoverable error into an ERR or INFO event.
func (g *Game) report(err error) {
	var r *Rejection
	if errors.As(err, &r) {
		logger.Log.Debugf("rejected: %s", r.Reason)
		g.emit(r.Tag, g.Current(), 0, "%s", r.Reason)
		return
	}
	g.emit(event.TagErr, g.Current(), 0, "%v", err)
}

// prepare promotes Starting, detects a winner and runs pre-turn bookkeeping
// until some player's turn has begun. It reports whether one has.
func (g *Game) prepare() (bool, error) {
	if g.Phase() == state.Starting {
		if err := g.life.To(state.Running); err != nil {
			return false, invariant("promote: %v", err)
		}
	}
	for g.Phase() == state.Running && !g.turn.begun {
		if won, err := g.checkWinner(); err != nil || won {
			return false, err
		}
		p := g.Current()
		if p == nil {
			return false, invariant("no active player with %d survivors", len(g.survivors()))
		}
		if !p.Eligible() {
			if err := g.rotate(); err != nil {
				return false, err
			}
			continue
		}

		g.turn = turnState{begun: true, buff: p.Buff}
		p.Decay()
		if p.Stat.God {
			g.emit(event.TagGod, p, p.Buff.GodRounds, "%s is under the god of wealth, %d rounds left", p.Name, p.Buff.GodRounds)
		}
		if p.Stat.Empty && !g.rules.ManualSkip {
			g.emit(event.TagSkip, p, p.Buff.SkipRounds, "%s sits this turn out, %d rounds left", p.Name, p.Buff.SkipRounds)
			if err := g.finishTurn(p); err != nil {
				return false, err
			}
		}
	}
	return g.turn.begun, nil
}

// actor begins the turn if needed and returns the player allowed to act.
func (g *Game) actor() (*player.Player, error) {
	ok, err := g.prepare()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, reject("no game in progress")
	}
	return g.Current(), nil
}

// mover is actor for actions that need a non-empty turn.
func (g *Game) mover() (*player.Player, error) {
	p, err := g.actor()
	if err != nil {
		return nil, err
	}
	if p.Stat.Empty {
		return nil, refuse("%s must skip this turn", p.Name)
	}
	return p, nil
}

func (g *Game) survivors() []*player.Player {
	var out []*player.Player
	for _, p := range g.roster.Players() {
		if p.Eligible() {
			out = append(out, p)
		}
	}
	return out
}

// checkWinner announces the last player standing and reinitializes the game.
func (g *Game) checkWinner() (bool, error) {
	alive := g.survivors()
	if len(alive) > 1 {
		return false, nil
	}
	if len(alive) == 1 {
		w := alive[0]
		g.emitSeats(event.TagWin, w, g.turns, "%s wins after %d turns", w.Name, g.turns)
	} else {
		g.emitSeats(event.TagGameOver, nil, g.turns, "nobody is left standing")
	}
	return true, g.reinit()
}

// finishTurn settles the active player and hands the turn on.
func (g *Game) finishTurn(p *player.Player) error {
	if g.broke(p) {
		if err := g.bankrupt(p); err != nil {
			return err
		}
	} else {
		p.WearOff()
	}
	g.turn = turnState{}
	g.turns++
	return g.rotate()
}

// bankrupt removes p from play for good and returns its estates to the bank.
func (g *Game) bankrupt(p *player.Player) error {
	if p.Stat.Bankrupt {
		return nil
	}
	p.Stat.Bankrupt = true
	for _, pos := range p.Asset.Estates() {
		if err := g.board.Release(pos, p); err != nil {
			return invariant("release %d from %s: %v", pos, p.ID, err)
		}
	}
	if p.Attached {
		if err := g.board.Detach(p); err != nil {
			return invariant("detach %s: %v", p.ID, err)
		}
	}
	g.bankrupts++
	g.emit(event.TagBankrupt, p, p.Asset.Funds, "%s is bankrupt", p.Name)
	return nil
}

// rotate advances to the next eligible player. A full loop without one
// clears the active player; a hole in the rotation list is fatal.
func (g *Game) rotate() error {
	count := g.roster.Count()
	next := g.active
	for dead := 0; dead < count; dead++ {
		next = (next + 1) % count
		p := g.roster.At(next)
		if p == nil || !p.Valid {
			return invariant("rotation list corrupted at %d", next)
		}
		if p.Eligible() {
			g.active = next
			return nil
		}
	}
	g.active = NoActive
	return nil
}
