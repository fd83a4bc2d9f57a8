// persistence/interface.go
package persistence

import (
	"errors"

	"github.com/wfunc/monopoly/models"
)

// Latest selects the newest snapshot in LoadSnapshot.
const Latest = "latest"

// Database 数据库接口
type Database interface {
	// SaveGameRecord stores a finished game and folds every player's result
	// into their stats in one transaction.
	SaveGameRecord(record *models.GameRecord) error
	// LoadGameRecords returns the newest records first.
	LoadGameRecords(limit int) ([]models.GameRecord, error)
	GetPlayerStats(playerID string) (*models.PlayerStats, error)
	SnapshotStore
	Close() error
}

// SnapshotStore keeps dump texts of stopped games.
type SnapshotStore interface {
	SaveSnapshot(snap *models.Snapshot) error
	// LoadSnapshot returns the newest snapshot of gameID, or the newest of
	// all when gameID is "" or Latest.
	LoadSnapshot(gameID string) (*models.Snapshot, error)
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownDriver  = errors.New("unknown storage driver")
)

// DefaultLimit applies when LoadGameRecords gets a non-positive limit.
const DefaultLimit = 20

func isLatest(gameID string) bool {
	return gameID == "" || gameID == Latest
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
