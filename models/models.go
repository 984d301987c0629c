package models

import (
	"time"

	"gorm.io/datatypes"
)

// GameRecord 游戏记录, one row per finished game.
type GameRecord struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	RoomCode    string         `gorm:"index;not null" json:"roomCode"`
	Shower      string         `gorm:"not null" json:"shower"`
	Outcome     string         `gorm:"not null" json:"outcome"` // win/lose, from the shower's side
	Winner      string         `gorm:"not null" json:"winner"`
	ShowerTotal int            `json:"showerTotal"`
	Players     datatypes.JSON `gorm:"type:jsonb" json:"players"` // []PlayerResult
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
}

// PlayerResult 玩家结算信息（用于游戏记录）
type PlayerResult struct {
	Name    string `json:"name"`
	Total   int    `json:"total"`
	Cards   int    `json:"cards"`
	Outcome string `json:"outcome"`
}

// PlayerStats 玩家统计信息, keyed by display name.
type PlayerStats struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	Games     int       `gorm:"not null;default:0" json:"games"`
	Wins      int       `gorm:"not null;default:0" json:"wins"`
	Losses    int       `gorm:"not null;default:0" json:"losses"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatsDelta is one player's contribution from a finished game.
type StatsDelta struct {
	Name string
	Win  bool
}
