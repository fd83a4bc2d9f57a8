// models/models.go
package models

import (
	"time"
)

// Outcome 玩家在一局中的结果
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
)

// GameRecord 一局结束后的记录
type GameRecord struct {
	GameID string `json:"game_id"`
	// Winner is empty when the game ended without a survivor.
	Winner    string         `json:"winner"`
	Turns     int            `json:"turns"`
	Players   []PlayerResult `json:"players"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
}

// PlayerResult 玩家信息（用于游戏记录）
type PlayerResult struct {
	PlayerID string  `json:"player_id"`
	Name     string  `json:"name"`
	Outcome  Outcome `json:"outcome"`
	// BankruptOrder is 1 for the first player to go bankrupt, 0 for survivors.
	BankruptOrder int `json:"bankrupt_order"`
}

// PlayerStats 玩家统计信息
type PlayerStats struct {
	PlayerID     string `json:"player_id"`
	TotalGames   int    `json:"total_games"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Bankruptcies int    `json:"bankruptcies"`
}

// Snapshot is the dump text of a stopped game.
type Snapshot struct {
	GameID    string    `json:"game_id"`
	Dump      string    `json:"dump"`
	CreatedAt time.Time `json:"created_at"`
}

// Apply folds one game result into the stats.
func (s *PlayerStats) Apply(r PlayerResult) {
	s.TotalGames++
	if r.Outcome == OutcomeWin {
		s.Wins++
	} else {
		s.Losses++
	}
	if r.BankruptOrder > 0 {
		s.Bankruptcies++
	}
}
