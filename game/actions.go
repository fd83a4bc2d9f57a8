package game

import (
	"fmt"
	"strings"

	"github.com/wfunc/monopoly/board"
	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/player"
)

// Sell returns one of the active player's estates to the bank for twice its
// current value. It does not end the turn.
func (g *Game) Sell(pos int) error {
	if err := g.enter(); err != nil {
		return err
	}
	defer g.leave()

	p, err := g.mover()
	if err != nil {
		return err
	}
	n := g.board.Node(pos)
	if n == nil {
		return reject("position %d is off the board", pos)
	}
	e := n.Estate()
	if e == nil {
		return reject("%d is not an estate", pos)
	}
	if e.Owner != p.Index {
		return reject("%d does not belong to %s", pos, p.Name)
	}
	if p.Stat.Sells >= g.rules.SellLimit {
		return refuse("%s may only sell %d estate(s) per turn", p.Name, g.rules.SellLimit)
	}

	refund := 2 * e.Value()
	if err := g.board.Release(pos, p); err != nil {
		return invariant("sell %d: %v", pos, err)
	}
	p.Asset.Funds += refund
	p.Stat.Sells++
	g.emit(event.TagSell, p, refund, "%s sells %d for %d", p.Name, pos, refund)
	return nil
}

// Place rests a barrier or bomb offset nodes away from the active player.
// It does not end the turn.
func (g *Game) Place(item player.Item, offset int) error {
	if err := g.enter(); err != nil {
		return err
	}
	defer g.leave()

	p, err := g.mover()
	if err != nil {
		return err
	}

	var (
		hazard board.Hazard
		reach  int
	)
	switch item {
	case player.ItemBlock:
		hazard, reach = board.HazardBlock, g.rules.Items.Block.Range
	case player.ItemBomb:
		hazard, reach = board.HazardBomb, g.rules.Items.Bomb.Range
	default:
		return reject("%s cannot be placed", item)
	}
	if p.Asset.Items[item] == 0 {
		return refuse("%s has no %s", p.Name, item)
	}
	if offset > reach || -offset > reach {
		return reject("offset %d is out of reach (%d)", offset, reach)
	}

	pos := g.board.Wrap(p.Position + offset)
	n := g.board.Node(pos)
	if n.Kind() != board.KindVacancy {
		return reject("%s can only be placed on an estate, %d is a %s", item, pos, n.Kind())
	}
	if n.Occupied() {
		return reject("%d is occupied", pos)
	}
	if h, _ := n.Hazard(); h != board.HazardNone {
		return reject("%d already holds a %s", pos, h)
	}
	if err := g.board.PlaceHazard(pos, hazard, p.Index); err != nil {
		return invariant("place %s at %d: %v", item, pos, err)
	}
	p.Asset.Items[item]--
	g.emit(event.TagPlace, p, pos, "%s places a %s at %d", p.Name, item, pos)
	return nil
}

// Robot clears every hazard ahead of the active player within the robot
// range. One robot is used up even when nothing was cleared.
func (g *Game) Robot() error {
	if err := g.enter(); err != nil {
		return err
	}
	defer g.leave()

	p, err := g.mover()
	if err != nil {
		return err
	}
	if p.Asset.Items[player.ItemRobot] == 0 {
		return refuse("%s has no robot", p.Name)
	}
	reach := g.rules.RobotRange
	if reach >= g.board.Size() {
		reach = g.board.Size() - 1
	}
	cleared := 0
	for d := 1; d <= reach; d++ {
		if g.board.ClearHazard(g.board.Wrap(p.Position+d)) != board.HazardNone {
			cleared++
		}
	}
	p.Asset.Items[player.ItemRobot]--
	g.emit(event.TagRobot, p, cleared, "%s's robot clears %d item(s)", p.Name, cleared)
	return nil
}

// Skip ends the active player's turn without moving.
func (g *Game) Skip() error {
	if err := g.enter(); err != nil {
		return err
	}
	defer g.leave()

	p, err := g.actor()
	if err != nil {
		return err
	}
	g.emit(event.TagSkip, p, p.Buff.SkipRounds, "%s skips", p.Name)
	return g.finishTurn(p)
}

// Query reports the active player's assets.
func (g *Game) Query() error {
	p, err := g.actor()
	if err != nil {
		return err
	}
	g.emit(event.TagQuery, p, p.Asset.Funds, "%s", describe(p))
	return nil
}

func describe(p *player.Player) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s): funds %d, points %d, at %d", p.Name, p.ID, p.Color, p.Asset.Funds, p.Asset.Points, p.Position)
	for i := player.Item(0); i < player.ItemCount; i++ {
		fmt.Fprintf(&b, ", %s %d", i, p.Asset.Items[i])
	}
	fmt.Fprintf(&b, ", god %d, skip %d, estates %v", p.Buff.GodRounds, p.Buff.SkipRounds, p.Asset.Estates())
	return b.String()
}
