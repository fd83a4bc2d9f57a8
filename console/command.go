package console

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/player"
	"github.com/wfunc/monopoly/prompt"
)

// Tokenize splits a command line on whitespace. '#' starts a comment.
func Tokenize(line string) []string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.Fields(line)
}

type handler func(ctx context.Context, g *game.Game, args []string) error

type command struct {
	usage string
	help  string
	run   handler
}

// Dispatcher maps command words onto game operations. It implements
// game.Commander.
type Dispatcher struct {
	// Board, when set, receives a rendering of the ring after every
	// accepted command.
	Board io.Writer

	commands map[string]command
	order    []string
}

func NewDispatcher() *Dispatcher {
	d := &Dispatcher{commands: make(map[string]command)}
	d.add("start", "start [funds] [ids]", "seat players and begin a game", d.start)
	d.add("roll", "roll", "throw the die and move", func(ctx context.Context, g *game.Game, _ []string) error {
		return g.Roll(ctx)
	})
	d.add("step", "step <n>", "move n nodes, negative goes back", func(ctx context.Context, g *game.Game, args []string) error {
		n, err := intArg(args, 0)
		if err != nil {
			return err
		}
		return g.Step(ctx, n)
	})
	d.add("sell", "sell <pos>", "sell one of your estates for twice its value", func(_ context.Context, g *game.Game, args []string) error {
		n, err := intArg(args, 0)
		if err != nil {
			return err
		}
		return g.Sell(n)
	})
	d.add("block", "block <offset>", "place a barrier", placer(player.ItemBlock))
	d.add("barrier", "barrier <offset>", "place a barrier", placer(player.ItemBlock))
	d.add("bomb", "bomb <offset>", "place a bomb", placer(player.ItemBomb))
	d.add("robot", "robot", "clear items ahead of you", func(_ context.Context, g *game.Game, _ []string) error {
		return g.Robot()
	})
	d.add("query", "query", "show your assets", func(_ context.Context, g *game.Game, _ []string) error {
		return g.Query()
	})
	d.add("skip", "skip", "end your turn", func(_ context.Context, g *game.Game, _ []string) error {
		return g.Skip()
	})
	d.add("quit", "quit", "leave without a dump", func(_ context.Context, g *game.Game, _ []string) error {
		g.Stop(false)
		return nil
	})
	d.add("dump", "dump", "leave and dump the game", func(_ context.Context, g *game.Game, _ []string) error {
		g.Stop(true)
		return nil
	})
	d.add("preset", "preset <directive> ...", "edit the game state", func(_ context.Context, g *game.Game, args []string) error {
		return g.Preset(args)
	})
	d.add("help", "help", "list commands", d.help)
	return d
}

func (d *Dispatcher) add(name, usage, help string, run handler) {
	d.commands[name] = command{usage: usage, help: help, run: run}
	d.order = append(d.order, name)
}

// Execute runs one command line against g.
func (d *Dispatcher) Execute(ctx context.Context, g *game.Game, line string) error {
	args := Tokenize(line)
	if len(args) == 0 {
		return nil
	}
	name := strings.ToLower(args[0])
	cmd, ok := d.commands[name]
	if !ok {
		return &game.Rejection{Tag: event.TagErr, Reason: fmt.Sprintf("cmd '%s' unknown, try help", args[0])}
	}
	logger.Log.Debugf("cmd %s %v", name, args[1:])
	if err := cmd.run(ctx, g, args[1:]); err != nil {
		return err
	}
	if d.Board != nil && g.Roster().Count() > 0 {
		if err := Render(d.Board, g.Board()); err != nil {
			logger.Log.Warnf("render: %v", err)
		}
	}
	return nil
}

func (d *Dispatcher) help(_ context.Context, g *game.Game, _ []string) error {
	var b strings.Builder
	for _, name := range d.order {
		c := d.commands[name]
		fmt.Fprintf(&b, "\n  %-24s %s", c.usage, c.help)
	}
	g.Emit(event.TagHelp, "commands:%s", b.String())
	return nil
}

// start asks for whatever the command line left out.
func (d *Dispatcher) start(ctx context.Context, g *game.Game, args []string) error {
	rules := g.Rules()
	funds := 0
	var ids []string
	for _, a := range args {
		if n, err := strconv.Atoi(a); err == nil && funds == 0 {
			funds = n
			continue
		}
		for _, r := range a {
			ids = append(ids, string(r))
		}
	}

	term := g.Terminal()
	if len(args) == 0 {
		n, err := prompt.Int(ctx, term,
			fmt.Sprintf("starting funds [%d-%d, enter for %d]: ", rules.MinFunds, rules.MaxFunds, rules.StartingFunds),
			rules.MinFunds, rules.MaxFunds, rules.StartingFunds)
		if err != nil {
			return startAborted(err)
		}
		funds = n
	}
	if len(ids) == 0 {
		picked, err := prompt.Ask(ctx, term, "players, 2 to 4 of Q A S J (e.g. QAS): ", parseIDs)
		if err != nil {
			return startAborted(err)
		}
		ids = picked
	}
	return g.Start(funds, ids)
}

func parseIDs(line string) ([]string, error) {
	var ids []string
	for _, r := range strings.ReplaceAll(line, " ", "") {
		id := string(r)
		if _, ok := player.SlotByID(id); !ok {
			return nil, fmt.Errorf("unknown player %q", id)
		}
		ids = append(ids, id)
	}
	if len(ids) < game.MinPlayers || len(ids) > game.MaxPlayers {
		return nil, fmt.Errorf("pick %d to %d players", game.MinPlayers, game.MaxPlayers)
	}
	return ids, nil
}

func startAborted(err error) error {
	return &game.Rejection{Tag: event.TagInfo, Reason: fmt.Sprintf("start abandoned: %v", err)}
}

func placer(item player.Item) handler {
	return func(_ context.Context, g *game.Game, args []string) error {
		n, err := intArg(args, 0)
		if err != nil {
			return err
		}
		return g.Place(item, n)
	}
}

func intArg(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, &game.Rejection{Tag: event.TagErr, Reason: "missing argument"}
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, &game.Rejection{Tag: event.TagErr, Reason: fmt.Sprintf("not a number: %q", args[i])}
	}
	return n, nil
}
