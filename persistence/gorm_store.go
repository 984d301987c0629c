package persistence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/wfunc/dhumbal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore 使用GORM的存储实现, backed by PostgreSQL or SQLite.
type GormStore struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(dsn string) (*GormStore, error) {
	return openGorm(postgres.Open(dsn))
}

// NewGormSQLite opens a SQLite file, or memory with a "file::memory:" dsn.
func NewGormSQLite(dsn string) (*GormStore, error) {
	return openGorm(sqlite.Open(dsn))
}

func openGorm(dialector gorm.Dialector) (*GormStore, error) {
	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,   // 慢SQL阈值
			LogLevel:      logger.Silent, // 日志级别
			Colorful:      false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialector.Name(), err)
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

	return NewGormStore(db)
}

// NewGormStore wraps an open connection and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// autoMigrate 自动迁移表结构
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.GameRecord{},
		&models.PlayerStats{},
	)
}

// SaveGameRecord 保存游戏记录并更新玩家统计
func (s *GormStore) SaveGameRecord(ctx context.Context, record *models.GameRecord, deltas []models.StatsDelta) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		for _, d := range deltas {
			stats := models.PlayerStats{Name: d.Name}
			if err := tx.Where(models.PlayerStats{Name: d.Name}).FirstOrCreate(&stats).Error; err != nil {
				return err
			}

			updates := map[string]interface{}{"games": gorm.Expr("games + ?", 1)}
			if d.Win {
				updates["wins"] = gorm.Expr("wins + ?", 1)
			} else {
				updates["losses"] = gorm.Expr("losses + ?", 1)
			}
			if err := tx.Model(&models.PlayerStats{}).Where("name = ?", d.Name).Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) GetPlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	var stats models.PlayerStats
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&stats).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &stats, nil
}

// RecentGames returns up to limit records, newest first.
func (s *GormStore) RecentGames(ctx context.Context, limit int) ([]models.GameRecord, error) {
	var records []models.GameRecord
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// Close 关闭数据库连接
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
