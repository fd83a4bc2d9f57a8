// Package game is the turn engine: lifecycle, rotation, landing resolution,
// command effects and the dump/preset save format.
package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/monopoly/board"
	"github.com/wfunc/monopoly/config"
	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/player"
	"github.com/wfunc/monopoly/prompt"
	"github.com/wfunc/monopoly/state"
)

const (
	MinPlayers = 2
	MaxPlayers = player.MaxSlots
)

// NoActive is the rotation index when nobody can act.
const NoActive = -1

type Options struct {
	Rules    config.Rules
	Layout   board.Layout
	Dice     Dice
	Terminal prompt.Terminal
	Sink     event.Sink
	// ForceDump makes every stop produce a dump.
	ForceDump bool
}

type turnState struct {
	// begun is set once pre-turn decay has run for the active player.
	begun bool
	// buff is the active player's buff before decay, which is what a dump records.
	buff player.Buff
}

// Game is the single owner of the board and the roster. It is not safe for
// concurrent use: one goroutine drives it.
type Game struct {
	id     string
	rules  config.Rules
	layout board.Layout

	board     *board.Board
	roster    *player.Roster
	active    int
	bankrupts int
	turns     int
	turn      turnState

	life *state.Lifecycle
	dice Dice
	term prompt.Terminal
	sink event.Sink

	forceDump bool
	needDump  bool
	busy      bool
}

// New builds the board and leaves the game Initialized.
func New(opts Options) (*Game, error) {
	if opts.Rules.DiceFaces < 1 {
		return nil, fmt.Errorf("dice faces must be positive, got %d", opts.Rules.DiceFaces)
	}
	if opts.Rules.TollDivisor < 1 {
		return nil, fmt.Errorf("toll divisor must be positive, got %d", opts.Rules.TollDivisor)
	}
	g := &Game{
		rules:     opts.Rules,
		layout:    opts.Layout,
		dice:      opts.Dice,
		term:      opts.Terminal,
		sink:      opts.Sink,
		forceDump: opts.ForceDump,
	}
	if g.dice == nil {
		g.dice = NewDice(0)
	}
	if g.term == nil {
		g.term = prompt.NewScript()
	}
	if g.sink == nil {
		g.sink = event.Discard
	}
	g.life = state.NewLifecycle(func() bool { return g.roster.Count() >= MinPlayers })
	// runs under the lifecycle lock; must not change phase
	g.life.OnEnter(state.Running, func() {
		logger.Log.Infof("game %s running with %d players", g.id, g.roster.Count())
	})

	if err := g.init(); err != nil {
		return nil, err
	}
	if err := g.life.To(state.Initialized); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) stock() board.Stock {
	r := g.rules
	return board.Stock{
		Offers: []board.Offer{
			{Item: player.ItemBlock, Price: r.Items.Block.Price, OnSale: r.Items.Block.OnSale},
			{Item: player.ItemBomb, Price: r.Items.Bomb.Price, OnSale: r.Items.Bomb.OnSale},
			{Item: player.ItemRobot, Price: r.Items.Robot.Price, OnSale: r.Items.Robot.OnSale},
		},
		Gifts: []board.Gift{
			{Name: fmt.Sprintf("%d funds", r.Gifts.Money), Kind: board.GiftMoney, Amount: r.Gifts.Money},
			{Name: fmt.Sprintf("%d points", r.Gifts.Points), Kind: board.GiftPoints, Amount: r.Gifts.Points},
			{Name: fmt.Sprintf("god of wealth (%d rounds)", r.Gifts.GodRounds), Kind: board.GiftGod, Amount: r.Gifts.GodRounds},
		},
	}
}

// init allocates a fresh board and an empty roster under a new game id.
func (g *Game) init() error {
	b, err := board.Build(g.layout, g.stock())
	if err != nil {
		return err
	}
	g.id = uuid.NewString()
	g.board = b
	g.roster = player.NewRoster()
	g.active = NoActive
	g.bankrupts = 0
	g.turns = 0
	g.turn = turnState{}
	return nil
}

// reinit throws the current game away and returns to Initialized.
func (g *Game) reinit() error {
	switch g.life.Phase() {
	case state.Running:
		if err := g.life.To(state.Initialized); err != nil {
			return invariant("reinitialize: %v", err)
		}
	case state.Initialized:
	default:
		return invariant("reinitialize from %s", g.life.Phase())
	}
	if err := g.unseat(); err != nil {
		return err
	}
	if err := g.init(); err != nil {
		return invariant("rebuild board: %v", err)
	}
	logger.Log.Infof("game reinitialized as %s", g.id)
	return nil
}

// unseat takes every player off the board and frees their slots.
func (g *Game) unseat() error {
	for _, p := range g.roster.Players() {
		if p.Attached {
			if err := g.board.Detach(p); err != nil {
				return invariant("detach %s: %v", p.ID, err)
			}
		}
		id := p.ID
		if err := g.roster.Remove(p.Index); err != nil {
			return invariant("remove %s: %v", id, err)
		}
	}
	return nil
}

func (g *Game) ID() string                { return g.id }
func (g *Game) Phase() state.Phase        { return g.life.Phase() }
func (g *Game) Board() *board.Board       { return g.board }
func (g *Game) Roster() *player.Roster    { return g.roster }
func (g *Game) Rules() config.Rules       { return g.rules }
func (g *Game) Bankrupts() int            { return g.bankrupts }
func (g *Game) Turns() int                { return g.turns }
func (g *Game) NeedDump() bool            { return g.needDump }
func (g *Game) Terminal() prompt.Terminal { return g.term }

// Current is the active player, or nil when nobody can act.
func (g *Game) Current() *player.Player {
	if g.active == NoActive {
		return nil
	}
	return g.roster.At(g.active)
}

// PromptText is shown before every command line.
func (g *Game) PromptText() string {
	if g.Phase() == state.Running {
		if p := g.Current(); p != nil {
			return p.Name + "> "
		}
	}
	return "monopoly> "
}

func (g *Game) newEvent(tag event.Tag, p *player.Player, amount int, format string, args ...any) event.Event {
	e := event.Event{
		Tag:    tag,
		Game:   g.id,
		Amount: amount,
		Text:   fmt.Sprintf(format, args...),
		Time:   time.Now(),
	}
	if p != nil {
		e.Player = p.ID
	}
	return e
}

func (g *Game) emit(tag event.Tag, p *player.Player, amount int, format string, args ...any) {
	g.sink.Emit(g.newEvent(tag, p, amount, format, args...))
}

// emitSeats is emit with the seated ids attached.
func (g *Game) emitSeats(tag event.Tag, p *player.Player, amount int, format string, args ...any) {
	e := g.newEvent(tag, p, amount, format, args...)
	e.Players = g.seatedIDs()
	g.sink.Emit(e)
}

// Emit lets the presentation layer put informational lines on the same stream.
func (g *Game) Emit(tag event.Tag, format string, args ...any) {
	g.emit(tag, nil, 0, format, args...)
}

// enter guards against a resolver calling back into turn resolution.
func (g *Game) enter() error {
	if g.busy {
		return invariant("reentrant call into turn resolution")
	}
	g.busy = true
	return nil
}

func (g *Game) leave() { g.busy = false }

// broke applies the bankruptcy threshold policy.
func (g *Game) broke(p *player.Player) bool {
	if g.rules.BankruptAtZero {
		return p.Asset.Funds <= 0
	}
	return p.Asset.Funds < 0
}

func (g *Game) seatedIDs() []string {
	var ids []string
	for _, p := range g.roster.Players() {
		ids = append(ids, p.ID)
	}
	return ids
}

// Start seats the chosen players on the start node with funds each. Zero
// funds selects the configured default.
func (g *Game) Start(funds int, ids []string) error {
	if err := g.enter(); err != nil {
		return err
	}
	defer g.leave()

	if g.Phase() != state.Initialized {
		return reject("cannot start while %s", g.Phase())
	}
	if funds == 0 {
		funds = g.rules.StartingFunds
	}
	if funds < g.rules.MinFunds || funds > g.rules.MaxFunds {
		return reject("starting funds must be within [%d, %d]", g.rules.MinFunds, g.rules.MaxFunds)
	}
	slots, err := parseSeats(ids)
	if err != nil {
		return err
	}

	if err := g.init(); err != nil {
		return invariant("rebuild board: %v", err)
	}
	if err := g.seat(slots, funds); err != nil {
		return err
	}
	if err := g.life.To(state.Starting); err != nil {
		return invariant("start: %v", err)
	}
	g.emitSeats(event.TagStart, nil, funds, "game %s: %s with %d funds each", g.id, strings.Join(g.seatedIDs(), " "), funds)
	return nil
}

func parseSeats(ids []string) ([]int, error) {
	if len(ids) < MinPlayers || len(ids) > MaxPlayers {
		return nil, reject("need %d to %d players, got %d", MinPlayers, MaxPlayers, len(ids))
	}
	seen := make(map[int]bool)
	slots := make([]int, 0, len(ids))
	for _, id := range ids {
		slot, ok := player.SlotByID(id)
		if !ok {
			return nil, reject("unknown player %q", id)
		}
		if seen[slot] {
			return nil, reject("player %s chosen twice", id)
		}
		seen[slot] = true
		slots = append(slots, slot)
	}
	return slots, nil
}

func (g *Game) seat(slots []int, funds int) error {
	for _, slot := range slots {
		p, err := g.roster.Add(slot)
		if err != nil {
			return invariant("seat slot %d: %v", slot, err)
		}
		p.Asset.Funds = funds
		if err := g.board.Attach(p, g.board.StartPos()); err != nil {
			return invariant("attach %s: %v", p.ID, err)
		}
	}
	g.active = 0
	return nil
}

// Stop moves the game to Stopped. dump requests a state dump on exit.
func (g *Game) Stop(dump bool) {
	if g.Phase() == state.Stopped {
		return
	}
	g.needDump = dump || g.forceDump
	if err := g.life.To(state.Stopped); err != nil {
		logger.Log.Errorf("stop: %v", err)
		return
	}
	g.emit(event.TagStop, nil, 0, "game %s stopped", g.id)
}

// fail stops the engine after an invariant violation.
func (g *Game) fail(err error) error {
	logger.Log.Errorf("game %s: %v", g.id, err)
	g.Stop(false)
	return err
}
