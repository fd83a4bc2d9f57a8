// services/record_service.go
package services

import (
	"sync"
	"time"

	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/models"
	"github.com/wfunc/monopoly/persistence"
	"github.com/wfunc/monopoly/player"
)

// RecordService watches the event stream and stores a GameRecord whenever a
// game ends. It is an event.Sink.
type RecordService struct {
	db persistence.Database

	mu    sync.Mutex
	games map[string]*tally
}

// tally 一局进行中的统计
type tally struct {
	started  time.Time
	seated   []string
	bankrupt []string
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db, games: make(map[string]*tally)}
}

func (s *RecordService) Emit(e event.Event) {
	switch e.Tag {
	case event.TagStart:
		s.mu.Lock()
		s.games[e.Game] = &tally{started: e.Time, seated: append([]string(nil), e.Players...)}
		s.mu.Unlock()
	case event.TagBankrupt:
		s.mu.Lock()
		if t := s.games[e.Game]; t != nil {
			t.bankrupt = append(t.bankrupt, e.Player)
		}
		s.mu.Unlock()
	case event.TagStop:
		s.mu.Lock()
		delete(s.games, e.Game)
		s.mu.Unlock()
	case event.TagWin, event.TagGameOver:
		s.mu.Lock()
		t := s.games[e.Game]
		delete(s.games, e.Game)
		s.mu.Unlock()

		record := buildRecord(e, t)
		if err := s.db.SaveGameRecord(record); err != nil {
			logger.Log.Errorf("save record of game %s: %v", e.Game, err)
			return
		}
		logger.Log.Infof("game %s recorded, winner %q", e.Game, record.Winner)
	}
}

// buildRecord turns the closing event into a record. t may be nil when the
// service joined after the game started.
func buildRecord(e event.Event, t *tally) *models.GameRecord {
	if t == nil {
		t = &tally{started: e.Time}
	}
	seated := t.seated
	if len(seated) == 0 {
		seated = e.Players
	}
	order := make(map[string]int, len(t.bankrupt))
	for i, id := range t.bankrupt {
		order[id] = i + 1
	}

	record := &models.GameRecord{
		GameID:    e.Game,
		Turns:     e.Amount,
		StartedAt: t.started,
		EndedAt:   e.Time,
	}
	if e.Tag == event.TagWin {
		record.Winner = e.Player
	}
	for _, id := range seated {
		r := models.PlayerResult{PlayerID: id, Outcome: models.OutcomeLose, BankruptOrder: order[id]}
		if slot, ok := player.SlotByID(id); ok {
			r.Name = player.IdentityName(slot)
		}
		if id == record.Winner {
			r.Outcome = models.OutcomeWin
		}
		record.Players = append(record.Players, r)
	}
	return record
}

// Recent returns the newest finished games.
func (s *RecordService) Recent(limit int) ([]models.GameRecord, error) {
	return s.db.LoadGameRecords(limit)
}

func (s *RecordService) PlayerStats(playerID string) (*models.PlayerStats, error) {
	return s.db.GetPlayerStats(playerID)
}

// Pending is the number of games being tallied.
func (s *RecordService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}
