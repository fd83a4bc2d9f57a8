package persistence

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/wfunc/monopoly/config"
	"github.com/wfunc/monopoly/models"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(id, winner string, ended time.Time, players ...models.PlayerResult) *models.GameRecord {
	return &models.GameRecord{
		GameID:    id,
		Winner:    winner,
		Turns:     12,
		Players:   players,
		StartedAt: ended.Add(-time.Minute),
		EndedAt:   ended,
	}
}

func TestSQLStore_GameRecords(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first := record("g1", "Q", base,
		models.PlayerResult{PlayerID: "Q", Name: "Madame Qian", Outcome: models.OutcomeWin},
		models.PlayerResult{PlayerID: "A", Name: "Uncle Tu", Outcome: models.OutcomeLose, BankruptOrder: 1},
	)
	second := record("g2", "A", base.Add(time.Hour),
		models.PlayerResult{PlayerID: "A", Name: "Uncle Tu", Outcome: models.OutcomeWin},
		models.PlayerResult{PlayerID: "Q", Name: "Madame Qian", Outcome: models.OutcomeLose, BankruptOrder: 1},
	)
	for _, r := range []*models.GameRecord{first, second} {
		if err := s.SaveGameRecord(r); err != nil {
			t.Fatalf("SaveGameRecord(%s) failed: %v", r.GameID, err)
		}
	}

	records, err := s.LoadGameRecords(0)
	if err != nil {
		t.Fatalf("LoadGameRecords failed: %v", err)
	}
	if len(records) != 2 || records[0].GameID != "g2" || records[1].GameID != "g1" {
		t.Fatalf("Expected newest first, got %+v", records)
	}
	got := records[1]
	if got.Winner != "Q" || got.Turns != 12 || len(got.Players) != 2 {
		t.Errorf("Unexpected record %+v", got)
	}
	if got.Players[1].BankruptOrder != 1 || got.Players[1].Name != "Uncle Tu" {
		t.Errorf("Players not preserved: %+v", got.Players)
	}
	if !got.EndedAt.Equal(base) {
		t.Errorf("Expected end time %v, got %v", base, got.EndedAt)
	}

	limited, err := s.LoadGameRecords(1)
	if err != nil || len(limited) != 1 {
		t.Errorf("Expected one record, got %d (%v)", len(limited), err)
	}

	stats, err := s.GetPlayerStats("Q")
	if err != nil {
		t.Fatalf("GetPlayerStats failed: %v", err)
	}
	want := models.PlayerStats{PlayerID: "Q", TotalGames: 2, Wins: 1, Losses: 1, Bankruptcies: 1}
	if *stats != want {
		t.Errorf("Expected %+v, got %+v", want, *stats)
	}
}

func TestSQLStore_DuplicateRecordRollsBack(t *testing.T) {
	s := openTestStore(t)
	r := record("g1", "Q", time.Now(), models.PlayerResult{PlayerID: "Q", Outcome: models.OutcomeWin})
	if err := s.SaveGameRecord(r); err != nil {
		t.Fatalf("SaveGameRecord failed: %v", err)
	}
	if err := s.SaveGameRecord(r); err == nil {
		t.Fatal("Expected a duplicate game id to fail")
	}
	stats, err := s.GetPlayerStats("Q")
	if err != nil {
		t.Fatalf("GetPlayerStats failed: %v", err)
	}
	if stats.TotalGames != 1 {
		t.Errorf("Failed save should not count, got %d games", stats.TotalGames)
	}
}

func TestSQLStore_UnknownPlayer(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetPlayerStats("J"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestSQLStore_Snapshots(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LoadSnapshot(Latest); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("Expected ErrRecordNotFound on an empty store, got %v", err)
	}

	for _, snap := range []models.Snapshot{
		{GameID: "g1", Dump: "user QA\n"},
		{GameID: "g2", Dump: "user QAS\n"},
		{GameID: "g1", Dump: "user QAJ\n"},
	} {
		if err := s.SaveSnapshot(&snap); err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}
	}

	latest, err := s.LoadSnapshot("")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if latest.GameID != "g1" || latest.Dump != "user QAJ\n" {
		t.Errorf("Unexpected latest snapshot %+v", latest)
	}
	g2, err := s.LoadSnapshot("g2")
	if err != nil || g2.Dump != "user QAS\n" {
		t.Errorf("Unexpected g2 snapshot %+v (%v)", g2, err)
	}
	if g2.CreatedAt.IsZero() {
		t.Error("CreatedAt should be filled in")
	}
	if _, err := s.LoadSnapshot("nope"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestSQLStore_Rebind(t *testing.T) {
	pg := &SQLStore{driver: "postgres"}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("Unexpected postgres query %q", got)
	}
	lite := &SQLStore{driver: "sqlite"}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite query should be unchanged, got %q", got)
	}
}

func TestOpen(t *testing.T) {
	db, err := Open(config.StorageConfig{})
	if err != nil || db != nil {
		t.Errorf("An empty driver should disable records, got %v %v", db, err)
	}
	if _, err := Open(config.StorageConfig{Driver: "mysql"}); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Expected ErrUnknownDriver, got %v", err)
	}

	db, err = Open(config.StorageConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatalf("Open sqlite failed: %v", err)
	}
	defer db.Close()

	snaps, err := OpenSnapshots(config.SnapshotConfig{Backend: "db"}, db)
	if err != nil || snaps == nil {
		t.Fatalf("OpenSnapshots(db) failed: %v", err)
	}
	if _, err := OpenSnapshots(config.SnapshotConfig{Backend: "db"}, nil); err == nil {
		t.Error("The db backend needs a database")
	}
	if _, err := OpenSnapshots(config.SnapshotConfig{Backend: "tape"}, nil); err == nil {
		t.Error("Expected an unknown backend to fail")
	}
}
