// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormGameRecord 游戏记录模型
type GormGameRecord struct {
	gorm.Model
	GameID    string         `gorm:"uniqueIndex;not null"`
	Winner    string         `gorm:"index"`
	Turns     int            `gorm:"default:0"`
	Players   []PlayerResult `gorm:"serializer:json;type:jsonb;not null"`
	StartedAt time.Time
	EndedAt   time.Time `gorm:"index"`
}

func (GormGameRecord) TableName() string { return "game_records" }

// GormPlayerStats 玩家统计模型
type GormPlayerStats struct {
	PlayerID     string `gorm:"primaryKey"`
	TotalGames   int    `gorm:"default:0"`
	Wins         int    `gorm:"default:0"`
	Losses       int    `gorm:"default:0"`
	Bankruptcies int    `gorm:"default:0"`
	UpdatedAt    time.Time
}

func (GormPlayerStats) TableName() string { return "player_stats" }

// GormSnapshot 存档模型
type GormSnapshot struct {
	gorm.Model
	GameID string `gorm:"index;not null"`
	Dump   string `gorm:"type:text;not null"`
}

func (GormSnapshot) TableName() string { return "snapshots" }

func NewGormGameRecord(r *GameRecord) *GormGameRecord {
	return &GormGameRecord{
		GameID:    r.GameID,
		Winner:    r.Winner,
		Turns:     r.Turns,
		Players:   r.Players,
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
	}
}

func (m *GormGameRecord) Record() GameRecord {
	return GameRecord{
		GameID:    m.GameID,
		Winner:    m.Winner,
		Turns:     m.Turns,
		Players:   m.Players,
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
	}
}

func (m *GormPlayerStats) Stats() PlayerStats {
	return PlayerStats{
		PlayerID:     m.PlayerID,
		TotalGames:   m.TotalGames,
		Wins:         m.Wins,
		Losses:       m.Losses,
		Bankruptcies: m.Bankruptcies,
	}
}
