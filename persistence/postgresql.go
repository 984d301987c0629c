package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wfunc/dhumbal/models"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"
)

// PostgreSQL 数据库实现, plain database/sql without an ORM.
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(connStr string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构. Column names match the gorm models so both
// stores can share a database.
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_records (
            id BIGSERIAL PRIMARY KEY,
            room_code TEXT NOT NULL,
            shower TEXT NOT NULL,
            outcome TEXT NOT NULL,
            winner TEXT NOT NULL,
            shower_total BIGINT NOT NULL DEFAULT 0,
            players JSONB,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS player_stats (
            name TEXT PRIMARY KEY,
            games BIGINT NOT NULL DEFAULT 0,
            wins BIGINT NOT NULL DEFAULT 0,
            losses BIGINT NOT NULL DEFAULT 0,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_game_records_room_code ON game_records(room_code);
        CREATE INDEX IF NOT EXISTS idx_game_records_created_at ON game_records(created_at);
    `)
	return err
}

// SaveGameRecord 保存游戏记录
func (p *PostgreSQL) SaveGameRecord(ctx context.Context, record *models.GameRecord, deltas []models.StatsDelta) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var players interface{}
	if len(record.Players) > 0 {
		players = []byte(record.Players)
	}
	err = tx.QueryRowContext(ctx, `
        INSERT INTO game_records (room_code, shower, outcome, winner, shower_total, players)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `, record.RoomCode, record.Shower, record.Outcome, record.Winner, record.ShowerTotal, players).
		Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return err
	}

	// 使用 UPSERT 操作 (PostgreSQL 9.5+)
	for _, d := range deltas {
		win, loss := 0, 1
		if d.Win {
			win, loss = 1, 0
		}
		_, err = tx.ExecContext(ctx, `
            INSERT INTO player_stats (name, games, wins, losses)
            VALUES ($1, 1, $2, $3)
            ON CONFLICT (name)
            DO UPDATE SET games = player_stats.games + 1,
                          wins = player_stats.wins + $2,
                          losses = player_stats.losses + $3,
                          updated_at = CURRENT_TIMESTAMP
        `, d.Name, win, loss)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *PostgreSQL) GetPlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	var stats models.PlayerStats
	err := p.db.QueryRowContext(ctx,
		`SELECT name, games, wins, losses, updated_at FROM player_stats WHERE name = $1`, name).
		Scan(&stats.Name, &stats.Games, &stats.Wins, &stats.Losses, &stats.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &stats, nil
}

func (p *PostgreSQL) RecentGames(ctx context.Context, limit int) ([]models.GameRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
        SELECT id, room_code, shower, outcome, winner, shower_total, players, created_at
        FROM game_records
        ORDER BY created_at DESC, id DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		var r models.GameRecord
		var players []byte
		if err := rows.Scan(&r.ID, &r.RoomCode, &r.Shower, &r.Outcome, &r.Winner, &r.ShowerTotal, &players, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Players = players
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
