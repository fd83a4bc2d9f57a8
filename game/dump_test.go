package game

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/wfunc/monopoly/board"
	"github.com/wfunc/monopoly/player"
	"github.com/wfunc/monopoly/state"
)

const sampleDump = `user QA
map 3 Q 1
fund Q 9000
credit Q 50
userloc Q 3 0
gift Q bomb 2
gift Q god 2
fund A 10000
credit A 0
userloc A 0 1
barrier 10
nextuser A
`

func TestDump_RestoreIsVerbatim(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	if err := g.Restore(strings.NewReader(sampleDump)); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	var buf bytes.Buffer
	if err := g.Dump(&buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if buf.String() != sampleDump {
		t.Errorf("Dump mismatch.\nwant:\n%s\ngot:\n%s", sampleDump, buf.String())
	}
}

func TestRestore_CommentsAndPresetPrefix(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	in := "# saved game\n\npreset user QA\npreset fund Q 1234 # trailing\n"
	if err := g.Restore(strings.NewReader(in)); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if f := g.Roster().ByID("Q").Asset.Funds; f != 1234 {
		t.Errorf("Expected funds 1234, got %d", f)
	}
}

func TestRestore_ReportsLine(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	err := g.Restore(strings.NewReader("user QA\nfund X 5\n"))
	if err == nil || !strings.HasPrefix(err.Error(), "line 2:") {
		t.Fatalf("Expected an error on line 2, got %v", err)
	}
	if !IsRejection(err) {
		t.Error("A bad directive is a rejection, not a fatal error")
	}
}

// snapshot is the comparable part of a game.
type snapshot struct {
	Active  string
	Players map[string]playerState
	Estates map[int][2]int
	Hazards []board.HazardSpot
}

type playerState struct {
	Funds, Points int
	Items         [player.ItemCount]int
	Position      int
	Attached      bool
	Bankrupt      bool
	Buff          player.Buff
}

func snap(g *Game) snapshot {
	s := snapshot{
		Players: make(map[string]playerState),
		Estates: make(map[int][2]int),
		Hazards: g.Board().Hazards(),
	}
	if p := g.Current(); p != nil {
		s.Active = p.ID
	}
	for _, p := range g.Roster().Players() {
		funds := p.Asset.Funds
		if funds < 0 {
			funds = -1
		}
		pos := -1
		if p.Attached {
			pos = p.Position
		}
		s.Players[p.ID] = playerState{
			Funds: funds, Points: p.Asset.Points, Items: p.Asset.Items,
			Position: pos, Attached: p.Attached, Bankrupt: p.Stat.Bankrupt,
			Buff: p.Buff,
		}
	}
	b := g.Board()
	for pos := 0; pos < b.Size(); pos++ {
		if e := b.Node(pos).Estate(); e != nil && e.Owner != board.NoOwner {
			s.Estates[pos] = [2]int{e.Owner, int(e.Level)}
		}
	}
	return s
}

func roundTrip(t *testing.T, g *Game) *Game {
	t.Helper()
	var buf bytes.Buffer
	if err := g.Dump(&buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	g2, _, _ := newTestGame(t, nil)
	if err := g2.Restore(&buf); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	return g2
}

func TestDump_RoundTripAfterPlay(t *testing.T) {
	g, _, _ := newTestGame(t, []int{3, 4, 2}, "y", "y")
	if err := g.Start(8000, []string{"J", "Q", "A"}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := g.Roll(ctx); err != nil {
			t.Fatalf("Roll %d failed: %v", i, err)
		}
	}
	preset(t, g, "gift Q bomb 1", "credit A 70", "bomb 9")

	g2 := roundTrip(t, g)
	if !reflect.DeepEqual(snap(g), snap(g2)) {
		t.Errorf("Round trip mismatch.\nbefore: %+v\nafter:  %+v", snap(g), snap(g2))
	}
	if !reflect.DeepEqual(g.seatedIDs(), g2.seatedIDs()) {
		t.Errorf("Rotation order changed: %v -> %v", g.seatedIDs(), g2.seatedIDs())
	}
}

func TestDump_RoundTripMidTurnDecaysOnce(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	preset(t, g, "user QAS", "userloc Q 3 1", "gift Q god 3", "nextuser Q")
	if err := g.Query(); err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	// Q's turn has begun, so its buffs have already decayed once.
	g2 := roundTrip(t, g)
	if err := g2.Query(); err != nil {
		t.Fatalf("Query after restore failed: %v", err)
	}
	if !reflect.DeepEqual(snap(g), snap(g2)) {
		t.Errorf("Round trip mismatch.\nbefore: %+v\nafter:  %+v", snap(g), snap(g2))
	}
}

func TestDump_BankruptPlayer(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	preset(t, g, "user QAS", "map 3 A 0", "fund Q 10")
	if err := g.Step(context.Background(), 3); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	var buf bytes.Buffer
	if err := g.Dump(&buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "fund Q -1\n") {
		t.Errorf("Expected the -1 sentinel for Q, got:\n%s", out)
	}
	if strings.Contains(out, "userloc Q") {
		t.Errorf("A bankrupt player has no location, got:\n%s", out)
	}

	g2 := roundTrip(t, g)
	q := g2.Roster().ByID("Q")
	if !q.Stat.Bankrupt || q.Attached {
		t.Error("Expected Q restored as bankrupt")
	}
	if !reflect.DeepEqual(snap(g), snap(g2)) {
		t.Errorf("Round trip mismatch.\nbefore: %+v\nafter:  %+v", snap(g), snap(g2))
	}
}

func TestDump_EmptyGame(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	var buf bytes.Buffer
	if err := g.Dump(&buf); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected an empty dump, got %q", buf.String())
	}
}

func TestPreset_Rejections(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	if err := g.Preset([]string{"fund", "Q", "5"}); !IsRejection(err) {
		t.Errorf("Expected a rejection before any user preset, got %v", err)
	}
	preset(t, g, "user QA")

	bad := []string{
		"",
		"teleport Q 5",
		"user Q",
		"user QQ",
		"map 0 Q 1",
		"map 3 Q 4",
		"map 3 X 1",
		"fund Q lots",
		"credit Q -1",
		"gift Q god -1",
		"gift Q laser 1",
		"gift Q bomb 11",
		"userloc Q 70 0",
		"userloc Q 3 -1",
		"barrier 70",
		"nextuser S",
	}
	for _, line := range bad {
		if err := g.Preset(strings.Fields(line)); !IsRejection(err) {
			t.Errorf("%q: expected a rejection, got %v", line, err)
		}
	}
	if g.Phase() != state.Running || g.Roster().Count() != 2 {
		t.Errorf("Rejected presets changed the game: %s with %d players", g.Phase(), g.Roster().Count())
	}

	preset(t, g, "bomb 8")
	if err := g.Preset([]string{"barrier", "8"}); !IsRejection(err) {
		t.Errorf("Expected a second hazard on 8 to be rejected, got %v", err)
	}
}

func TestPreset_MapTransfersOwnership(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	preset(t, g, "user QA", "map 3 Q 2", "map 3 A 1")
	q, a := g.Roster().ByID("Q"), g.Roster().ByID("A")
	if q.Asset.OwnsEstate(3) || !a.Asset.OwnsEstate(3) {
		t.Error("Expected node 3 to move from Q to A")
	}
	if lv := g.Board().Node(3).Estate().Level; lv != board.LevelHut {
		t.Errorf("Expected a hut, got %s", lv)
	}
	checkOwnership(t, g)
}

func TestPreset_UserDuringStartingGame(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	if err := g.Start(10000, []string{"Q", "A"}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	preset(t, g, "user SJ")
	if g.Phase() != state.Running {
		t.Fatalf("Expected %s, got %s", state.Running, g.Phase())
	}
	if !reflect.DeepEqual(g.seatedIDs(), []string{"S", "J"}) {
		t.Errorf("Expected S and J seated, got %v", g.seatedIDs())
	}
}

func TestPreset_SeparateUserTokens(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	preset(t, g, "user a s q")
	if !reflect.DeepEqual(g.seatedIDs(), []string{"A", "S", "Q"}) {
		t.Errorf("Expected A S Q, got %v", g.seatedIDs())
	}
}

func TestPreset_NegativeFundsBankrupt(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	preset(t, g, "user QAS", "map 4 A 1", "fund A -1")
	a := g.Roster().ByID("A")
	if !a.Stat.Bankrupt || a.Attached || len(a.Asset.Estates()) != 0 {
		t.Errorf("Expected A bankrupt without estates: %+v", a.Stat)
	}
	if g.Bankrupts() != 1 {
		t.Errorf("Expected 1 bankrupt, got %d", g.Bankrupts())
	}
	checkOwnership(t, g)
}

func TestPreset_NeverReachesInvariant(t *testing.T) {
	g, _, _ := newTestGame(t, nil)
	preset(t, g, "user QA")
	err := g.Preset([]string{"userloc", "Q", "x", "0"})
	if errors.Is(err, ErrInvariant) {
		t.Fatalf("Bad input must not look fatal: %v", err)
	}
}
