// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志, 写到 zap
	gormLogger := gormlogger.New(
		zap.NewStdLog(logger.Log.Desugar()),
		gormlogger.Config{
			SlowThreshold: time.Second,     // 慢SQL阈值
			LogLevel:      gormlogger.Warn, // 日志级别
			Colorful:      false,           // 禁用彩色打印
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	// 获取通用数据库对象 sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := autoMigrate(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GormGameRecord{},
		&models.GormPlayerStats{},
		&models.GormSnapshot{},
	)
}

// SaveGameRecord 保存游戏记录并累加玩家统计
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.NewGormGameRecord(record)).Error; err != nil {
			return err
		}
		for _, r := range record.Players {
			var d models.PlayerStats
			d.Apply(r)
			row := &models.GormPlayerStats{
				PlayerID:     r.PlayerID,
				TotalGames:   d.TotalGames,
				Wins:         d.Wins,
				Losses:       d.Losses,
				Bankruptcies: d.Bankruptcies,
			}
			// UPSERT: 已有记录时在原值上累加
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "player_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"total_games":  gorm.Expr("player_stats.total_games + ?", d.TotalGames),
					"wins":         gorm.Expr("player_stats.wins + ?", d.Wins),
					"losses":       gorm.Expr("player_stats.losses + ?", d.Losses),
					"bankruptcies": gorm.Expr("player_stats.bankruptcies + ?", d.Bankruptcies),
					"updated_at":   time.Now(),
				}),
			}).Create(row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadGameRecords 加载最近的游戏记录
func (p *GormPostgreSQL) LoadGameRecords(limit int) ([]models.GameRecord, error) {
	var rows []models.GormGameRecord
	err := p.db.Order("ended_at DESC").Limit(clampLimit(limit)).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	records := make([]models.GameRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].Record()
	}
	return records, nil
}

func (p *GormPostgreSQL) GetPlayerStats(playerID string) (*models.PlayerStats, error) {
	var row models.GormPlayerStats
	if err := p.db.Where("player_id = ?", playerID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	stats := row.Stats()
	return &stats, nil
}

func (p *GormPostgreSQL) SaveSnapshot(snap *models.Snapshot) error {
	return p.db.Create(&models.GormSnapshot{GameID: snap.GameID, Dump: snap.Dump}).Error
}

func (p *GormPostgreSQL) LoadSnapshot(gameID string) (*models.Snapshot, error) {
	q := p.db.Order("id DESC")
	if !isLatest(gameID) {
		q = q.Where("game_id = ?", gameID)
	}
	var row models.GormSnapshot
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &models.Snapshot{GameID: row.GameID, Dump: row.Dump, CreatedAt: row.CreatedAt}, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
