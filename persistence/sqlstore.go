// persistence/sqlstore.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动
	_ "modernc.org/sqlite"

	"github.com/wfunc/monopoly/models"
)

const queryTimeout = 5 * time.Second

// SQLStore 基于 database/sql 的实现, 支持 PostgreSQL 和 SQLite
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*SQLStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newSQLStore(db, "postgres")
}

// NewSQLite opens (creating if needed) an embedded database file.
func NewSQLite(path string) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite 只允许一个写连接
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return newSQLStore(db, "sqlite")
}

func newSQLStore(db *sql.DB, driver string) (*SQLStore, error) {
	s := &SQLStore{db: db, driver: driver}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// initTables 初始化数据库表结构
func (s *SQLStore) initTables() error {
	serial := "id BIGSERIAL PRIMARY KEY"
	if s.driver == "sqlite" {
		serial = "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS game_records (
            game_id TEXT PRIMARY KEY,
            winner TEXT NOT NULL,
            turns INTEGER NOT NULL,
            players TEXT NOT NULL,
            started_at BIGINT NOT NULL,
            ended_at BIGINT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS player_stats (
            player_id TEXT PRIMARY KEY,
            total_games INTEGER NOT NULL DEFAULT 0,
            wins INTEGER NOT NULL DEFAULT 0,
            losses INTEGER NOT NULL DEFAULT 0,
            bankruptcies INTEGER NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS snapshots (
            ` + serial + `,
            game_id TEXT NOT NULL,
            dump TEXT NOT NULL,
            created_at BIGINT NOT NULL
        )`,
		// 创建索引以提高查询性能
		`CREATE INDEX IF NOT EXISTS idx_game_records_ended_at ON game_records(ended_at)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_game_id ON snapshots(game_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveGameRecord 保存游戏记录
func (s *SQLStore) SaveGameRecord(record *models.GameRecord) error {
	players, err := json.Marshal(record.Players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
        INSERT INTO game_records (game_id, winner, turns, players, started_at, ended_at)
        VALUES (?, ?, ?, ?, ?, ?)`),
		record.GameID, record.Winner, record.Turns, string(players),
		record.StartedAt.UnixNano(), record.EndedAt.UnixNano())
	if err != nil {
		return err
	}

	// UPSERT: 已有记录时在原值上累加
	upsert := s.rebind(`
        INSERT INTO player_stats (player_id, total_games, wins, losses, bankruptcies)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (player_id) DO UPDATE SET
            total_games = player_stats.total_games + excluded.total_games,
            wins = player_stats.wins + excluded.wins,
            losses = player_stats.losses + excluded.losses,
            bankruptcies = player_stats.bankruptcies + excluded.bankruptcies`)
	for _, r := range record.Players {
		var d models.PlayerStats
		d.Apply(r)
		if _, err := tx.ExecContext(ctx, upsert, r.PlayerID, d.TotalGames, d.Wins, d.Losses, d.Bankruptcies); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadGameRecords 加载最近的游戏记录
func (s *SQLStore) LoadGameRecords(limit int) ([]models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.rebind(`
        SELECT game_id, winner, turns, players, started_at, ended_at
        FROM game_records ORDER BY ended_at DESC LIMIT ?`), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		var (
			rec            models.GameRecord
			players        string
			started, ended int64
		)
		if err := rows.Scan(&rec.GameID, &rec.Winner, &rec.Turns, &players, &started, &ended); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(players), &rec.Players); err != nil {
			return nil, fmt.Errorf("game %s players: %w", rec.GameID, err)
		}
		rec.StartedAt = time.Unix(0, started)
		rec.EndedAt = time.Unix(0, ended)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLStore) GetPlayerStats(playerID string) (*models.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	stats := models.PlayerStats{PlayerID: playerID}
	err := s.db.QueryRowContext(ctx, s.rebind(`
        SELECT total_games, wins, losses, bankruptcies FROM player_stats WHERE player_id = ?`), playerID).
		Scan(&stats.TotalGames, &stats.Wins, &stats.Losses, &stats.Bankruptcies)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &stats, nil
}

func (s *SQLStore) SaveSnapshot(snap *models.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	created := snap.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
        INSERT INTO snapshots (game_id, dump, created_at) VALUES (?, ?, ?)`),
		snap.GameID, snap.Dump, created.UnixNano())
	return err
}

func (s *SQLStore) LoadSnapshot(gameID string) (*models.Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	query := `SELECT game_id, dump, created_at FROM snapshots ORDER BY id DESC LIMIT 1`
	var args []any
	if !isLatest(gameID) {
		query = `SELECT game_id, dump, created_at FROM snapshots WHERE game_id = ? ORDER BY id DESC LIMIT 1`
		args = append(args, gameID)
	}

	var (
		snap    models.Snapshot
		created int64
	)
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&snap.GameID, &snap.Dump, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	snap.CreatedAt = time.Unix(0, created)
	return &snap, nil
}

// Close 关闭数据库连接
func (s *SQLStore) Close() error {
	return s.db.Close()
}
