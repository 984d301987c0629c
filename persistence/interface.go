package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/dhumbal/config"
	"github.com/wfunc/dhumbal/models"
)

// Database 数据库接口
type Database interface {
	// SaveGameRecord stores the record and applies every delta in one transaction.
	SaveGameRecord(ctx context.Context, record *models.GameRecord, deltas []models.StatsDelta) error
	GetPlayerStats(ctx context.Context, name string) (*models.PlayerStats, error)
	RecentGames(ctx context.Context, limit int) ([]models.GameRecord, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = errors.New("record not found")
)

// Open connects to the store named by cfg.Driver. An empty driver means no
// store, and Open returns nil.
func Open(cfg config.DatabaseConfig) (Database, error) {
	dsn := cfg.DSN
	var (
		db  Database
		err error
	)
	switch cfg.Driver {
	case "":
		return nil, nil
	case "postgres":
		if dsn == "" {
			dsn = cfg.Postgres.ConnString()
		}
		db, err = NewGormPostgreSQL(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "dhumbal.db"
		}
		db, err = NewGormSQLite(dsn)
	case "pq":
		if dsn == "" {
			dsn = cfg.Postgres.ConnString()
		}
		db, err = NewPostgreSQL(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}
