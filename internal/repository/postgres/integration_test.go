//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/unfought/api/internal/testutil"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	m.Run()
}

func setup(t *testing.T) {
	t.Helper()
	if testDB == nil {
		testDB = testutil.SetupDB(t)
	}
	testutil.CleanupDB(t, testDB)
}

// --- GameRepo Tests ---

func TestGameCreate(t *testing.T) {
	setup(t)
	repo := NewGameRepo(testDB)

	g, err := repo.Create(context.Background(), "Test Game", 42)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if g.ID == "" {
		t.Fatal("expected non-empty game ID")
	}
	if g.Name != "Test Game" {
		t.Fatalf("expected game name 'Test Game', got '%s'", g.Name)
	}
	if g.Status != "waiting" {
		t.Fatalf("expected waiting status, got %s", g.Status)
	}
	if g.Seed != 42 {
		t.Fatalf("expected seed 42, got %d", g.Seed)
	}
}

func TestGameFindByIDWithPlayers(t *testing.T) {
	setup(t)
	repo := NewGameRepo(testDB)

	g, _ := repo.Create(context.Background(), "With Players", 1)
	if err := repo.SeatPlayer(context.Background(), g.ID, "p1", "alice", false, ""); err != nil {
		t.Fatalf("seat p1: %v", err)
	}
	if err := repo.SeatPlayer(context.Background(), g.ID, "p2", "bot", true, "hard"); err != nil {
		t.Fatalf("seat p2: %v", err)
	}

	found, err := repo.FindByID(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if found == nil {
		t.Fatal("expected to find game")
	}
	if len(found.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(found.Players))
	}
	// Seats come back ordered p1, p2
	if found.Players[0].Seat != "p1" || found.Players[1].Seat != "p2" {
		t.Fatalf("unexpected seat order: %s, %s", found.Players[0].Seat, found.Players[1].Seat)
	}
	if !found.Players[1].IsBot || found.Players[1].BotDifficulty != "hard" {
		t.Fatalf("bot seat not persisted: %+v", found.Players[1])
	}
}

func TestGameDuplicateSeatRejected(t *testing.T) {
	setup(t)
	repo := NewGameRepo(testDB)

	g, _ := repo.Create(context.Background(), "Dup Seat", 1)
	if err := repo.SeatPlayer(context.Background(), g.ID, "p1", "alice", false, ""); err != nil {
		t.Fatalf("first seat: %v", err)
	}
	if err := repo.SeatPlayer(context.Background(), g.ID, "p1", "bob", false, ""); err == nil {
		t.Fatal("expected error seating p1 twice")
	}
}

func TestGameListOpen(t *testing.T) {
	setup(t)
	repo := NewGameRepo(testDB)

	repo.Create(context.Background(), "Open1", 1)
	repo.Create(context.Background(), "Open2", 2)
	started, _ := repo.Create(context.Background(), "Started", 3)
	repo.SetActive(context.Background(), started.ID)

	games, err := repo.ListOpen(context.Background())
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 open games, got %d", len(games))
	}

	active, _ := repo.ListActive(context.Background())
	if len(active) != 1 || active[0].ID != started.ID {
		t.Fatalf("expected 1 active game, got %d", len(active))
	}
}

func TestGameSetActive(t *testing.T) {
	setup(t)
	repo := NewGameRepo(testDB)

	g, _ := repo.Create(context.Background(), "Activate", 1)
	if err := repo.SetActive(context.Background(), g.ID); err != nil {
		t.Fatalf("set active: %v", err)
	}

	found, _ := repo.FindByID(context.Background(), g.ID)
	if found.Status != "active" {
		t.Fatalf("expected active, got %s", found.Status)
	}
	if found.StartedAt == nil {
		t.Fatal("expected started_at to be set")
	}
}

func TestGameSetFinished(t *testing.T) {
	setup(t)
	repo := NewGameRepo(testDB)

	g, _ := repo.Create(context.Background(), "Finish Test", 1)
	if err := repo.SetFinished(context.Background(), g.ID, "p1", "sovereign_capture"); err != nil {
		t.Fatalf("set finished: %v", err)
	}

	found, _ := repo.FindByID(context.Background(), g.ID)
	if found.Status != "finished" {
		t.Fatalf("expected finished, got %s", found.Status)
	}
	if found.Winner != "p1" || found.Victory != "sovereign_capture" {
		t.Fatalf("expected p1/sovereign_capture, got %s/%s", found.Winner, found.Victory)
	}
	if found.FinishedAt == nil {
		t.Fatal("expected finished_at to be set")
	}
}

func TestGameSetFinishedNoWinner(t *testing.T) {
	setup(t)
	repo := NewGameRepo(testDB)

	g, _ := repo.Create(context.Background(), "Mutual", 1)
	if err := repo.SetFinished(context.Background(), g.ID, "", "mutual_destruction"); err != nil {
		t.Fatalf("set finished without winner: %v", err)
	}

	found, _ := repo.FindByID(context.Background(), g.ID)
	if found.Winner != "" || found.Victory != "mutual_destruction" {
		t.Fatalf("expected empty winner, got %s/%s", found.Winner, found.Victory)
	}
}

func TestGameDelete(t *testing.T) {
	setup(t)
	repo := NewGameRepo(testDB)

	g, _ := repo.Create(context.Background(), "Delete Me", 1)
	if err := repo.Delete(context.Background(), g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	found, _ := repo.FindByID(context.Background(), g.ID)
	if found != nil {
		t.Fatal("expected game to be gone")
	}
}

// --- TurnRepo Tests ---

func TestTurnCreateAndCurrent(t *testing.T) {
	setup(t)
	gameRepo := NewGameRepo(testDB)
	turnRepo := NewTurnRepo(testDB)

	g, _ := gameRepo.Create(context.Background(), "Turn Test", 1)

	stateBefore := json.RawMessage(`{"turn":1,"phase":"deploy"}`)
	deadline := time.Now().Add(2 * time.Minute)

	record, err := turnRepo.CreateTurn(context.Background(), g.ID, 1, stateBefore, deadline)
	if err != nil {
		t.Fatalf("create turn: %v", err)
	}
	if record.ID == "" {
		t.Fatal("expected non-empty turn ID")
	}
	if record.Turn != 1 {
		t.Fatalf("expected turn 1, got %d", record.Turn)
	}

	// Verify JSONB round-trip
	var stateData map[string]any
	if err := json.Unmarshal(record.StateBefore, &stateData); err != nil {
		t.Fatalf("unmarshal state_before: %v", err)
	}
	if stateData["phase"] != "deploy" {
		t.Fatalf("JSONB round-trip failed: %v", stateData)
	}

	current, err := turnRepo.CurrentTurn(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("current turn: %v", err)
	}
	if current == nil || current.ID != record.ID {
		t.Fatal("current turn should return the unresolved record")
	}
}

func TestTurnCurrentReturnsOnlyUnresolved(t *testing.T) {
	setup(t)
	gameRepo := NewGameRepo(testDB)
	turnRepo := NewTurnRepo(testDB)

	g, _ := gameRepo.Create(context.Background(), "Unresolved Test", 1)

	state := json.RawMessage(`{"turn":1}`)
	deadline := time.Now().Add(2 * time.Minute)

	t1, _ := turnRepo.CreateTurn(context.Background(), g.ID, 1, state, deadline)
	turnRepo.ResolveTurn(context.Background(), t1.ID, json.RawMessage(`{"turn":2}`), json.RawMessage(`[]`))

	t2, _ := turnRepo.CreateTurn(context.Background(), g.ID, 2, json.RawMessage(`{"turn":2}`), deadline)

	current, _ := turnRepo.CurrentTurn(context.Background(), g.ID)
	if current == nil || current.ID != t2.ID {
		t.Fatalf("expected current turn to be t2, got %v", current)
	}
}

func TestTurnListOrdered(t *testing.T) {
	setup(t)
	gameRepo := NewGameRepo(testDB)
	turnRepo := NewTurnRepo(testDB)

	g, _ := gameRepo.Create(context.Background(), "List Turns", 1)

	state := json.RawMessage(`{}`)
	deadline := time.Now().Add(2 * time.Minute)

	turnRepo.CreateTurn(context.Background(), g.ID, 1, state, deadline)
	turnRepo.CreateTurn(context.Background(), g.ID, 2, state, deadline)
	turnRepo.CreateTurn(context.Background(), g.ID, 3, state, deadline)

	turns, err := turnRepo.ListTurns(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	for i, record := range turns {
		if record.Turn != i+1 {
			t.Fatalf("expected turn %d at index %d, got %d", i+1, i, record.Turn)
		}
	}
}

func TestTurnResolve(t *testing.T) {
	setup(t)
	gameRepo := NewGameRepo(testDB)
	turnRepo := NewTurnRepo(testDB)

	g, _ := gameRepo.Create(context.Background(), "Resolve Test", 1)

	state := json.RawMessage(`{"turn":1}`)
	deadline := time.Now().Add(2 * time.Minute)
	record, _ := turnRepo.CreateTurn(context.Background(), g.ID, 1, state, deadline)

	stateAfter := json.RawMessage(`{"turn":2,"phase":"plan"}`)
	events := json.RawMessage(`[{"type":"combat","attacker":1,"defender":6}]`)
	if err := turnRepo.ResolveTurn(context.Background(), record.ID, stateAfter, events); err != nil {
		t.Fatalf("resolve turn: %v", err)
	}

	turns, _ := turnRepo.ListTurns(context.Background(), g.ID)
	if len(turns) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(turns))
	}
	if turns[0].ResolvedAt == nil {
		t.Fatal("expected resolved_at to be set")
	}
	if turns[0].StateAfter == nil || turns[0].Events == nil {
		t.Fatal("expected state_after and events to be set")
	}

	var eventData []map[string]any
	json.Unmarshal(turns[0].Events, &eventData)
	if len(eventData) != 1 || eventData[0]["type"] != "combat" {
		t.Fatal("events JSONB round-trip failed")
	}
}

func TestTurnListExpired(t *testing.T) {
	setup(t)
	gameRepo := NewGameRepo(testDB)
	turnRepo := NewTurnRepo(testDB)

	// Expired turn in an active game
	active, _ := gameRepo.Create(context.Background(), "Expired Active", 1)
	gameRepo.SetActive(context.Background(), active.ID)
	turnRepo.CreateTurn(context.Background(), active.ID, 1, json.RawMessage(`{}`), time.Now().Add(-time.Minute))

	// Expired turn in a waiting game should not show up
	waiting, _ := gameRepo.Create(context.Background(), "Expired Waiting", 2)
	turnRepo.CreateTurn(context.Background(), waiting.ID, 1, json.RawMessage(`{}`), time.Now().Add(-time.Minute))

	// Future deadline should not show up
	future, _ := gameRepo.Create(context.Background(), "Future", 3)
	gameRepo.SetActive(context.Background(), future.ID)
	turnRepo.CreateTurn(context.Background(), future.ID, 1, json.RawMessage(`{}`), time.Now().Add(time.Hour))

	expired, err := turnRepo.ListExpired(context.Background())
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(expired) != 1 {
		t.Fatalf("expected 1 expired turn, got %d", len(expired))
	}
	if expired[0].GameID != active.ID {
		t.Fatalf("expected expired turn for active game, got %s", expired[0].GameID)
	}
}
