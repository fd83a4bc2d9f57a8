package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/monopoly/board"
	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/player"
	"github.com/wfunc/monopoly/prompt"
)

// answered filters a prompt error: anything short of an invariant violation
// counts as the player declining.
func answered(err error) error {
	if err == nil || errors.Is(err, ErrInvariant) {
		return err
	}
	if !errors.Is(err, prompt.ErrAborted) {
		logger.Log.Debugf("prompt ended: %v", err)
	}
	return nil
}

// land applies the effect of the node p stands on.
func (g *Game) land(ctx context.Context, p *player.Player) error {
	n := g.board.Node(p.Position)
	if n == nil {
		return invariant("%s stands off the board at %d", p.ID, p.Position)
	}
	switch pl := n.Payload().(type) {
	case *board.Estate:
		return g.landEstate(ctx, p, pl)
	case *board.ItemShop:
		return g.landItemShop(ctx, p, pl)
	case *board.GiftShop:
		return g.landGiftShop(ctx, p, pl)
	case *board.Mine:
		p.Asset.Points += pl.Points
		g.emit(event.TagMine, p, pl.Points, "%s mines %d points", p.Name, pl.Points)
		return nil
	}

	switch n.Kind() {
	case board.KindMagicShop:
		return g.landMagicShop(ctx, p)
	case board.KindPrison:
		p.Buff.SkipRounds = g.rules.PrisonRounds
		g.emit(event.TagPrison, p, g.rules.PrisonRounds, "%s is jailed for %d rounds", p.Name, g.rules.PrisonRounds)
	}
	return nil
}

func (g *Game) landEstate(ctx context.Context, p *player.Player, e *board.Estate) error {
	pos := p.Position
	switch e.Owner {
	case board.NoOwner:
		price := e.Value()
		if p.Asset.Funds < price {
			g.emit(event.TagInfo, p, price, "%s cannot afford %d for %d", p.Name, price, pos)
			return nil
		}
		ok, err := prompt.Confirm(ctx, g.term, fmt.Sprintf("Buy %d for %d?", pos, price))
		if err != nil || !ok {
			return answered(err)
		}
		p.Asset.Funds -= price
		if err := g.board.Claim(pos, p); err != nil {
			return invariant("claim %d: %v", pos, err)
		}
		g.emit(event.TagBuy, p, price, "%s buys %d for %d", p.Name, pos, price)

	case p.Index:
		if e.Level >= board.MaxLevel {
			g.emit(event.TagInfo, p, 0, "%d is already a %s", pos, e.Level)
			return nil
		}
		price := e.Price
		if p.Asset.Funds < price {
			g.emit(event.TagInfo, p, price, "%s cannot afford %d to upgrade %d", p.Name, price, pos)
			return nil
		}
		ok, err := prompt.Confirm(ctx, g.term, fmt.Sprintf("Upgrade %d to %s for %d?", pos, e.Level+1, price))
		if err != nil || !ok {
			return answered(err)
		}
		p.Asset.Funds -= price
		if err := g.board.SetLevel(pos, e.Level+1); err != nil {
			return invariant("upgrade %d: %v", pos, err)
		}
		g.emit(event.TagUpgrade, p, price, "%s upgrades %d to %s for %d", p.Name, pos, e.Level, price)

	default:
		owner := g.roster.Get(e.Owner)
		if owner == nil {
			return invariant("estate %d owned by empty slot %d", pos, e.Owner)
		}
		toll := e.Value() / g.rules.TollDivisor
		if p.Stat.God {
			g.emit(event.TagGod, p, toll, "the god of wealth waives %s's toll of %d", p.Name, toll)
			return nil
		}
		p.Asset.Funds -= toll
		if g.broke(p) {
			g.emit(event.TagToll, p, toll, "%s cannot pay %d to %s", p.Name, toll, owner.Name)
			return nil
		}
		owner.Asset.Funds += toll
		g.emit(event.TagToll, p, toll, "%s pays %d to %s", p.Name, toll, owner.Name)
	}
	return nil
}

func (g *Game) landItemShop(ctx context.Context, p *player.Player, shop *board.ItemShop) error {
	g.emit(event.TagItemHouse, p, p.Asset.Points, "%s enters the item house with %d points", p.Name, p.Asset.Points)
	for {
		if p.Asset.InventoryTotal() >= g.rules.InventoryCap {
			g.emit(event.TagInfo, p, 0, "%s's inventory is full", p.Name)
			return nil
		}
		cheapest := shop.MinPrice()
		if cheapest == 0 || p.Asset.Points < cheapest {
			g.emit(event.TagInfo, p, p.Asset.Points, "%s has too few points to buy anything", p.Name)
			return nil
		}

		offers := shop.OnSale()
		names := make([]string, len(offers))
		for i, o := range offers {
			names[i] = o.Item.String()
		}
		question := fmt.Sprintf("%d points left, inventory %d/%d. Buy:", p.Asset.Points, p.Asset.InventoryTotal(), g.rules.InventoryCap)
		for _, o := range offers {
			question += fmt.Sprintf(" %s=%d", o.Item, o.Price)
		}
		idx, err := prompt.Choose(ctx, g.term, question, names)
		if err != nil {
			return answered(err)
		}

		o := offers[idx]
		if p.Asset.Points < o.Price {
			g.emit(event.TagInfo, p, o.Price, "%s needs %d points", o.Item, o.Price)
			continue
		}
		p.Asset.Points -= o.Price
		p.Asset.Items[o.Item]++
		g.emit(event.TagItem, p, o.Price, "%s buys a %s for %d points", p.Name, o.Item, o.Price)
	}
}

func (g *Game) landGiftShop(ctx context.Context, p *player.Player, shop *board.GiftShop) error {
	g.emit(event.TagGiftHouse, p, 0, "%s enters the gift house", p.Name)
	names := make([]string, len(shop.Gifts))
	for i, gift := range shop.Gifts {
		names[i] = gift.Name
	}
	idx, err := prompt.Choose(ctx, g.term, "Pick one gift:", names)
	if err != nil {
		return answered(err)
	}

	gift := shop.Gifts[idx]
	switch gift.Kind {
	case board.GiftMoney:
		p.Asset.Funds += gift.Amount
	case board.GiftPoints:
		p.Asset.Points += gift.Amount
	case board.GiftGod:
		p.Buff.GodRounds = gift.Amount
	}
	g.emit(event.TagGift, p, gift.Amount, "%s receives %s", p.Name, gift.Name)
	return nil
}

func (g *Game) landMagicShop(ctx context.Context, p *player.Player) error {
	g.emit(event.TagMagicHouse, p, 0, "%s enters the magic house", p.Name)
	targets := g.survivors()
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = t.ID
	}
	idx, err := prompt.Choose(ctx, g.term, "Curse whom?", names)
	if err != nil {
		return answered(err)
	}

	t := targets[idx]
	t.Buff.SkipRounds += g.rules.MagicRounds
	g.emit(event.TagMagic, p, g.rules.MagicRounds, "%s curses %s for %d rounds", p.Name, t.Name, g.rules.MagicRounds)
	return nil
}
