package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wfunc/monopoly/board"
	"github.com/wfunc/monopoly/config"
	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/models"
	"github.com/wfunc/monopoly/persistence"
	"github.com/wfunc/monopoly/prompt"
	"github.com/wfunc/monopoly/state"
)

// MockDatabase 用于测试的内存数据库
type MockDatabase struct {
	records  []models.GameRecord
	failNext error
}

func (m *MockDatabase) SaveGameRecord(r *models.GameRecord) error {
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.records = append(m.records, *r)
	return nil
}

func (m *MockDatabase) LoadGameRecords(limit int) ([]models.GameRecord, error) {
	return m.records, nil
}

func (m *MockDatabase) GetPlayerStats(id string) (*models.PlayerStats, error) {
	stats := models.PlayerStats{PlayerID: id}
	for _, r := range m.records {
		for _, p := range r.Players {
			if p.PlayerID == id {
				stats.Apply(p)
			}
		}
	}
	if stats.TotalGames == 0 {
		return nil, persistence.ErrRecordNotFound
	}
	return &stats, nil
}

func (m *MockDatabase) SaveSnapshot(*models.Snapshot) error { return nil }

func (m *MockDatabase) LoadSnapshot(string) (*models.Snapshot, error) {
	return nil, persistence.ErrRecordNotFound
}

func (m *MockDatabase) Close() error { return nil }

func TestRecordService_Win(t *testing.T) {
	db := &MockDatabase{}
	s := NewRecordService(db)
	start := time.Now()

	s.Emit(event.Event{Tag: event.TagStart, Game: "g1", Time: start, Players: []string{"Q", "A", "S"}})
	s.Emit(event.Event{Tag: event.TagBankrupt, Game: "g1", Player: "S"})
	s.Emit(event.Event{Tag: event.TagRoll, Game: "g1", Player: "Q"})
	s.Emit(event.Event{Tag: event.TagBankrupt, Game: "g1", Player: "Q"})
	s.Emit(event.Event{Tag: event.TagWin, Game: "g1", Player: "A", Amount: 42, Time: start.Add(time.Minute), Players: []string{"Q", "A", "S"}})

	if len(db.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(db.records))
	}
	r := db.records[0]
	if r.GameID != "g1" || r.Winner != "A" || r.Turns != 42 || !r.StartedAt.Equal(start) {
		t.Errorf("Unexpected record %+v", r)
	}
	want := map[string]models.PlayerResult{
		"Q": {PlayerID: "Q", Name: "Madame Qian", Outcome: models.OutcomeLose, BankruptOrder: 2},
		"A": {PlayerID: "A", Name: "Uncle Tu", Outcome: models.OutcomeWin},
		"S": {PlayerID: "S", Name: "Sun Xiaomei", Outcome: models.OutcomeLose, BankruptOrder: 1},
	}
	for _, p := range r.Players {
		if p != want[p.PlayerID] {
			t.Errorf("Expected %+v, got %+v", want[p.PlayerID], p)
		}
	}
	if s.Pending() != 0 {
		t.Error("A finished game should no longer be tallied")
	}
}

func TestRecordService_GameOverAndStop(t *testing.T) {
	db := &MockDatabase{}
	s := NewRecordService(db)

	s.Emit(event.Event{Tag: event.TagStart, Game: "g1", Players: []string{"Q", "J"}})
	s.Emit(event.Event{Tag: event.TagStop, Game: "g1"})
	if s.Pending() != 0 || len(db.records) != 0 {
		t.Fatal("A stopped game should be dropped without a record")
	}

	// no START seen: seats come from the closing event
	s.Emit(event.Event{Tag: event.TagGameOver, Game: "g2", Players: []string{"Q", "J"}})
	if len(db.records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(db.records))
	}
	r := db.records[0]
	if r.Winner != "" || len(r.Players) != 2 {
		t.Errorf("Unexpected record %+v", r)
	}
	for _, p := range r.Players {
		if p.Outcome != models.OutcomeLose {
			t.Errorf("Nobody wins a game over, got %+v", p)
		}
	}
}

func TestRecordService_SaveErrorIsLogged(t *testing.T) {
	db := &MockDatabase{failNext: errors.New("disk full")}
	s := NewRecordService(db)
	s.Emit(event.Event{Tag: event.TagWin, Game: "g1", Player: "Q", Players: []string{"Q", "A"}})
	if len(db.records) != 0 {
		t.Fatal("Expected the failed save to be dropped")
	}
	if _, err := s.PlayerStats("Q"); !errors.Is(err, persistence.ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordService_WithGameAndSQLite(t *testing.T) {
	db, err := persistence.NewSQLite(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer db.Close()
	s := NewRecordService(db)

	g, err := game.New(game.Options{
		Rules:    config.DefaultRules(),
		Layout:   board.DefaultLayout(),
		Dice:     &game.FixedDice{},
		Terminal: prompt.NewScript(),
		Sink:     s,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, line := range []string{"user QA", "map 3 A 0", "fund Q 50"} {
		if err := g.Preset(strings.Fields(line)); err != nil {
			t.Fatalf("preset %q failed: %v", line, err)
		}
	}
	id := g.ID()
	if err := g.Step(context.Background(), 3); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	// the win is detected at the next pre-turn check
	if err := g.Query(); !game.IsRejection(err) {
		t.Fatalf("Expected Query to find no game after the win, got %v", err)
	}
	if g.Phase() != state.Initialized {
		t.Errorf("Expected the game to reinitialize after the win, got %s", g.Phase())
	}

	records, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 1 || records[0].GameID != id || records[0].Winner != "A" {
		t.Fatalf("Unexpected records %+v", records)
	}
	stats, err := s.PlayerStats("Q")
	if err != nil {
		t.Fatalf("PlayerStats failed: %v", err)
	}
	if stats.Losses != 1 || stats.Bankruptcies != 1 {
		t.Errorf("Unexpected stats for Q %+v", stats)
	}
}
