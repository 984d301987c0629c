package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/wfunc/dhumbal/config"
	"github.com/wfunc/dhumbal/models"
	"gorm.io/datatypes"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	store, err := NewGormSQLite(dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func record(code, shower, outcome, winner string) *models.GameRecord {
	return &models.GameRecord{
		RoomCode: code,
		Shower:   shower,
		Outcome:  outcome,
		Winner:   winner,
		Players:  datatypes.JSON(`[{"name":"` + shower + `","total":4}]`),
	}
}

func TestGormStore_SaveGameRecord(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rec := record("ABCDE", "Alice", "win", "Alice")
	deltas := []models.StatsDelta{{Name: "Alice", Win: true}, {Name: "Bob"}}
	if err := store.SaveGameRecord(ctx, rec, deltas); err != nil {
		t.Fatalf("SaveGameRecord failed: %v", err)
	}
	if rec.ID == 0 {
		t.Errorf("Expected the record to get an id")
	}

	rec2 := record("FGHIJ", "Alice", "lose", "Bob")
	deltas2 := []models.StatsDelta{{Name: "Alice"}, {Name: "Bob", Win: true}}
	if err := store.SaveGameRecord(ctx, rec2, deltas2); err != nil {
		t.Fatalf("SaveGameRecord failed: %v", err)
	}

	alice, err := store.GetPlayerStats(ctx, "Alice")
	if err != nil {
		t.Fatalf("GetPlayerStats failed: %v", err)
	}
	if alice.Games != 2 || alice.Wins != 1 || alice.Losses != 1 {
		t.Errorf("Expected Alice 2/1/1, got %+v", alice)
	}
	bob, _ := store.GetPlayerStats(ctx, "Bob")
	if bob.Games != 2 || bob.Wins != 1 || bob.Losses != 1 {
		t.Errorf("Expected Bob 2/1/1, got %+v", bob)
	}
}

func TestGormStore_GetPlayerStats_NotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetPlayerStats(context.Background(), "nobody"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestGormStore_RecentGames(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if err := store.SaveGameRecord(ctx, record(fmt.Sprintf("ROOM%d", i), "Alice", "win", "Alice"), nil); err != nil {
			t.Fatalf("SaveGameRecord failed: %v", err)
		}
	}

	games, err := store.RecentGames(ctx, 2)
	if err != nil {
		t.Fatalf("RecentGames failed: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("Expected 2 games, got %d", len(games))
	}
	if games[0].RoomCode != "ROOM2" {
		t.Errorf("Expected newest first, got %s", games[0].RoomCode)
	}
	if !strings.Contains(string(games[0].Players), `"total":4`) {
		t.Errorf("Expected players JSON to round-trip, got %s", games[0].Players)
	}
}

func TestOpen(t *testing.T) {
	db, err := Open(config.DatabaseConfig{})
	if err != nil || db != nil {
		t.Errorf("Expected no store for an empty driver, got %v %v", db, err)
	}

	if _, err := Open(config.DatabaseConfig{Driver: "mongo"}); err == nil {
		t.Errorf("Expected an error for an unknown driver")
	}

	db, err = Open(config.DatabaseConfig{Driver: "sqlite", DSN: "file:open_test?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("Open sqlite failed: %v", err)
	}
	defer db.Close()
	if _, ok := db.(*GormStore); !ok {
		t.Errorf("Expected a GormStore, got %T", db)
	}
}

// Needs a running server: DHUMBAL_TEST_PQ_DSN="host=localhost user=postgres dbname=dhumbal_test sslmode=disable"
func TestPostgreSQL(t *testing.T) {
	dsn := os.Getenv("DHUMBAL_TEST_PQ_DSN")
	if dsn == "" {
		t.Skip("DHUMBAL_TEST_PQ_DSN not set")
	}
	ctx := context.Background()
	db, err := NewPostgreSQL(dsn)
	if err != nil {
		t.Fatalf("NewPostgreSQL failed: %v", err)
	}
	defer db.Close()

	name := fmt.Sprintf("pq-%s", t.Name())
	before, err := db.GetPlayerStats(ctx, name)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("GetPlayerStats failed: %v", err)
	}
	games := 0
	if before != nil {
		games = before.Games
	}

	rec := record("PQTST", name, "win", name)
	if err := db.SaveGameRecord(ctx, rec, []models.StatsDelta{{Name: name, Win: true}}); err != nil {
		t.Fatalf("SaveGameRecord failed: %v", err)
	}
	if rec.ID == 0 || rec.CreatedAt.IsZero() {
		t.Errorf("Expected id and created_at to be filled in, got %+v", rec)
	}

	after, err := db.GetPlayerStats(ctx, name)
	if err != nil {
		t.Fatalf("GetPlayerStats failed: %v", err)
	}
	if after.Games != games+1 {
		t.Errorf("Expected %d games, got %d", games+1, after.Games)
	}

	recent, err := db.RecentGames(ctx, 1)
	if err != nil || len(recent) != 1 {
		t.Fatalf("RecentGames failed: %v (%d)", err, len(recent))
	}
}
