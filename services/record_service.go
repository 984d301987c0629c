package services

import (
	"context"
	"encoding/json"

	"github.com/wfunc/dhumbal/game"
	"github.com/wfunc/dhumbal/models"
	"github.com/wfunc/dhumbal/persistence"
	"gorm.io/datatypes"
)

// RecordService 对局记录服务. With a nil database every call is a no-op.
type RecordService struct {
	db persistence.Database
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

// Enabled reports whether records are stored.
func (s *RecordService) Enabled() bool {
	return s != nil && s.db != nil
}

// RecordShow stores the result of a show from the ended snapshot.
func (s *RecordService) RecordShow(ctx context.Context, ended *game.Room, outcome game.ShowOutcome) (*models.GameRecord, error) {
	if !s.Enabled() {
		return nil, nil
	}

	record, deltas, err := BuildRecord(ended, outcome)
	if err != nil {
		return nil, err
	}
	if err := s.db.SaveGameRecord(ctx, record, deltas); err != nil {
		return nil, err
	}
	return record, nil
}

// BuildRecord turns a finished game into a record and per-player stat
// changes. Only the winning seat is credited a win, even when names repeat.
func BuildRecord(ended *game.Room, outcome game.ShowOutcome) (*models.GameRecord, []models.StatsDelta, error) {
	winner := outcome.Player
	if outcome.Result == game.OutcomeLose {
		winner = outcome.Opponent
	}

	results := make([]models.PlayerResult, 0, len(ended.Players))
	deltas := make([]models.StatsDelta, 0, len(ended.Players))
	for i, p := range ended.Players {
		won := i == outcome.WinnerSeat
		result := models.PlayerResult{Name: p.Name, Total: game.Total(p.Hand), Cards: len(p.Hand), Outcome: string(game.OutcomeLose)}
		if won {
			result.Outcome = string(game.OutcomeWin)
		}
		results = append(results, result)
		deltas = append(deltas, models.StatsDelta{Name: p.Name, Win: won})
	}

	players, err := json.Marshal(results)
	if err != nil {
		return nil, nil, err
	}

	return &models.GameRecord{
		RoomCode:    ended.Code,
		Shower:      outcome.Player,
		Outcome:     string(outcome.Result),
		Winner:      winner,
		ShowerTotal: outcome.MyTotal,
		Players:     datatypes.JSON(players),
	}, deltas, nil
}

// PlayerStats 获取玩家统计
func (s *RecordService) PlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	if !s.Enabled() {
		return nil, persistence.ErrRecordNotFound
	}
	return s.db.GetPlayerStats(ctx, name)
}

func (s *RecordService) RecentGames(ctx context.Context, limit int) ([]models.GameRecord, error) {
	if !s.Enabled() {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.db.RecentGames(ctx, limit)
}
