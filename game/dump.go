package game

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wfunc/monopoly/board"
	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/player"
	"github.com/wfunc/monopoly/state"
)

// Dump writes the game as preset directives, one per line. Negative funds
// are written as -1. The active player's buffs are recorded as they were
// before this turn's decay, so a restored game decays them again.
func (g *Game) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	players := g.roster.Players()
	if len(players) == 0 {
		return bw.Flush()
	}

	current := g.Current()
	fmt.Fprintf(bw, "user %s\n", strings.Join(g.seatedIDs(), ""))
	for _, p := range players {
		buff := p.Buff
		if p == current && g.turn.begun {
			buff = g.turn.buff
		}
		for _, pos := range p.Asset.Estates() {
			fmt.Fprintf(bw, "map %d %s %d\n", pos, p.ID, g.board.Node(pos).Estate().Level)
		}
		funds := p.Asset.Funds
		if funds < 0 || p.Stat.Bankrupt {
			funds = -1
		}
		fmt.Fprintf(bw, "fund %s %d\n", p.ID, funds)
		fmt.Fprintf(bw, "credit %s %d\n", p.ID, p.Asset.Points)
		if p.Attached {
			fmt.Fprintf(bw, "userloc %s %d %d\n", p.ID, p.Position, buff.SkipRounds)
		}
		for i := player.Item(0); i < player.ItemCount; i++ {
			if n := p.Asset.Items[i]; n > 0 {
				fmt.Fprintf(bw, "gift %s %s %d\n", p.ID, i, n)
			}
		}
		if buff.GodRounds > 0 {
			fmt.Fprintf(bw, "gift %s god %d\n", p.ID, buff.GodRounds)
		}
	}
	for _, h := range g.board.Hazards() {
		fmt.Fprintf(bw, "%s %d\n", h.Hazard, h.Pos)
	}
	if current != nil {
		fmt.Fprintf(bw, "nextuser %s\n", current.ID)
	}
	return bw.Flush()
}

// Preset applies one dump directive (without the "preset" keyword).
func (g *Game) Preset(args []string) error {
	if err := g.enter(); err != nil {
		return err
	}
	defer g.leave()

	if len(args) == 0 {
		return reject("preset needs a directive")
	}
	switch g.Phase() {
	case state.Stopped:
		return reject("game is stopped")
	case state.Starting:
		if err := g.life.To(state.Running); err != nil {
			return invariant("promote: %v", err)
		}
	}
	if args[0] == "user" {
		return g.presetUser(args[1:])
	}
	if g.Phase() != state.Running {
		return reject("preset %s needs seated players", args[0])
	}
	g.rewind()

	var err error
	switch args[0] {
	case "map":
		err = g.presetMap(args[1:])
	case "fund", "credit":
		err = g.presetAsset(args[0], args[1:])
	case "gift":
		err = g.presetGift(args[1:])
	case "userloc":
		err = g.presetUserloc(args[1:])
	case "nextuser":
		err = g.presetNextUser(args[1:])
	case "barrier", "block", "bomb":
		err = g.presetHazard(args[0], args[1:])
	default:
		return reject("unknown preset %q", args[0])
	}
	if err == nil {
		g.emit(event.TagPreset, nil, 0, "%s", strings.Join(args, " "))
	}
	return err
}

// Restore replays a dump through Preset. Blank lines and '#' comments are skipped.
func (g *Game) Restore(r io.Reader) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "preset" {
			fields = fields[1:]
		}
		if err := g.Preset(fields); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

// rewind undoes the active player's pre-turn decay so presets edit the
// state a dump would record. The turn begins again afterwards.
func (g *Game) rewind() {
	if !g.turn.begun {
		return
	}
	if p := g.Current(); p != nil {
		p.Buff = g.turn.buff
		p.Stat.God = false
		p.Stat.Empty = false
	}
	g.turn = turnState{}
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, reject("not a number: %q", s)
	}
	return n, nil
}

func (g *Game) presetPlayer(id string) (*player.Player, error) {
	p := g.roster.ByID(id)
	if p == nil {
		return nil, reject("no seated player %q", id)
	}
	return p, nil
}

// presetUser accepts ids concatenated ("QAS") or as separate tokens.
func (g *Game) presetUser(args []string) error {
	var ids []string
	for _, a := range args {
		for _, r := range a {
			ids = append(ids, string(r))
		}
	}
	slots, err := parseSeats(ids)
	if err != nil {
		return err
	}
	if err := g.reinit(); err != nil {
		return err
	}
	if err := g.seat(slots, g.rules.StartingFunds); err != nil {
		return err
	}
	if err := g.life.To(state.Running); err != nil {
		return invariant("preset user: %v", err)
	}
	g.emitSeats(event.TagStart, nil, g.rules.StartingFunds, "game %s: %s preset", g.id, strings.Join(g.seatedIDs(), " "))
	return nil
}

func (g *Game) presetMap(args []string) error {
	if len(args) != 3 {
		return reject("usage: map <pos> <id> <level>")
	}
	pos, err := atoi(args[0])
	if err != nil {
		return err
	}
	p, err := g.presetPlayer(args[1])
	if err != nil {
		return err
	}
	lv, err := atoi(args[2])
	if err != nil {
		return err
	}
	n := g.board.Node(pos)
	if n == nil || n.Estate() == nil {
		return reject("%d is not an estate", pos)
	}
	if lv < int(board.LevelWasteland) || lv > int(board.MaxLevel) {
		return reject("level %d out of range", lv)
	}

	e := n.Estate()
	if e.Owner != p.Index {
		if e.Owner != board.NoOwner {
			prev := g.roster.Get(e.Owner)
			if prev == nil {
				return invariant("estate %d owned by empty slot %d", pos, e.Owner)
			}
			if err := g.board.Release(pos, prev); err != nil {
				return invariant("release %d: %v", pos, err)
			}
		}
		if err := g.board.Claim(pos, p); err != nil {
			return invariant("claim %d: %v", pos, err)
		}
	}
	if err := g.board.SetLevel(pos, board.Level(lv)); err != nil {
		return invariant("level %d: %v", pos, err)
	}
	return nil
}

// presetAsset sets funds or points. Negative funds mark the player bankrupt.
func (g *Game) presetAsset(kind string, args []string) error {
	if len(args) != 2 {
		return reject("usage: %s <id> <amount>", kind)
	}
	p, err := g.presetPlayer(args[0])
	if err != nil {
		return err
	}
	n, err := atoi(args[1])
	if err != nil {
		return err
	}
	if kind == "credit" {
		if n < 0 {
			return reject("points cannot be negative")
		}
		p.Asset.Points = n
		return nil
	}
	p.Asset.Funds = n
	if n < 0 {
		return g.bankrupt(p)
	}
	return nil
}

func (g *Game) presetGift(args []string) error {
	if len(args) != 3 {
		return reject("usage: gift <id> barrier|bomb|robot|god <n>")
	}
	p, err := g.presetPlayer(args[0])
	if err != nil {
		return err
	}
	n, err := atoi(args[2])
	if err != nil {
		return err
	}
	if n < 0 {
		return reject("count cannot be negative")
	}
	if args[1] == "god" {
		p.Buff.GodRounds = n
		return nil
	}
	item, ok := player.ParseItem(args[1])
	if !ok {
		return reject("unknown gift %q", args[1])
	}
	if p.Asset.InventoryTotal()-p.Asset.Items[item]+n > g.rules.InventoryCap {
		return reject("inventory cap %d exceeded", g.rules.InventoryCap)
	}
	p.Asset.Items[item] = n
	return nil
}

func (g *Game) presetUserloc(args []string) error {
	if len(args) != 3 {
		return reject("usage: userloc <id> <pos> <rounds>")
	}
	p, err := g.presetPlayer(args[0])
	if err != nil {
		return err
	}
	pos, err := atoi(args[1])
	if err != nil {
		return err
	}
	rounds, err := atoi(args[2])
	if err != nil {
		return err
	}
	if pos < 0 || pos >= g.board.Size() || rounds < 0 {
		return reject("bad location %d or rounds %d", pos, rounds)
	}
	if p.Stat.Bankrupt {
		return reject("%s is bankrupt", p.ID)
	}
	if err := g.relocate(p, pos); err != nil {
		return err
	}
	p.Buff.SkipRounds = rounds
	return nil
}

func (g *Game) presetNextUser(args []string) error {
	if len(args) != 1 {
		return reject("usage: nextuser <id>")
	}
	p, err := g.presetPlayer(args[0])
	if err != nil {
		return err
	}
	if !p.Eligible() {
		return reject("%s cannot take a turn", p.ID)
	}
	g.active = p.Seq
	g.turn = turnState{}
	return nil
}

func (g *Game) presetHazard(kind string, args []string) error {
	if len(args) != 1 {
		return reject("usage: %s <pos>", kind)
	}
	pos, err := atoi(args[0])
	if err != nil {
		return err
	}
	h := board.HazardBlock
	if kind == "bomb" {
		h = board.HazardBomb
	}
	if err := g.board.PlaceHazard(pos, h, board.NoOwner); err != nil {
		return reject("%s at %d: %v", kind, pos, err)
	}
	return nil
}
