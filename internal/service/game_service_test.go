package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/unfought/api/internal/repository/memory"
	"github.com/unfought/api/pkg/battle"
)

func newTestServices(t *testing.T, turnDuration time.Duration) (*memory.Store, *memory.Cache, *GameService, *OrderService, *TurnService) {
	t.Helper()
	store := memory.NewStore()
	cache := memory.NewCache()
	gameSvc := NewGameService(store, store, cache, nil, turnDuration)
	orderSvc := NewOrderService(store, store, cache)
	turnSvc := NewTurnService(store, store, cache, nil, turnDuration)
	return store, cache, gameSvc, orderSvc, turnSvc
}

// startedPvP creates a two-human game and joins the second seat.
func startedPvP(t *testing.T, gameSvc *GameService) string {
	t.Helper()
	ctx := context.Background()
	game, err := gameSvc.CreateGame(ctx, "test", "alice", 42, false, "", false)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	seat, err := gameSvc.JoinGame(ctx, game.ID, "bob")
	if err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	if seat != string(battle.P2) {
		t.Fatalf("joined seat = %s, want %s", seat, battle.P2)
	}
	return game.ID
}

func deployBoth(t *testing.T, gameSvc *GameService, gameID string) {
	t.Helper()
	ctx := context.Background()
	for _, seat := range allSeats() {
		if _, err := gameSvc.Deploy(ctx, gameID, seat, []int{1, 2, 3, 4, 5}); err != nil {
			t.Fatalf("Deploy %s: %v", seat, err)
		}
	}
}

func TestCreateGame_WaitsForOpponent(t *testing.T) {
	_, cache, gameSvc, _, _ := newTestServices(t, time.Minute)
	ctx := context.Background()

	game, err := gameSvc.CreateGame(ctx, "open game", "alice", 1, false, "", false)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if game.Status != "waiting" {
		t.Errorf("status = %s, want waiting", game.Status)
	}
	if len(game.Players) != 1 || game.Players[0].Seat != string(battle.P1) {
		t.Errorf("players = %+v, want alice in p1", game.Players)
	}

	state, err := cache.GetGameState(ctx, game.ID)
	if err != nil {
		t.Fatalf("GetGameState: %v", err)
	}
	if state != nil {
		t.Error("waiting game should have no live state yet")
	}
}

func TestCreateGame_VsBotStartsImmediately(t *testing.T) {
	store, cache, gameSvc, _, _ := newTestServices(t, time.Minute)
	ctx := context.Background()

	game, err := gameSvc.CreateGame(ctx, "vs bot", "alice", 7, true, "medium", false)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if game.Status != "active" {
		t.Errorf("status = %s, want active", game.Status)
	}
	if len(game.Players) != 2 {
		t.Fatalf("players = %d, want 2", len(game.Players))
	}
	var botSeen bool
	for _, p := range game.Players {
		if p.IsBot {
			botSeen = true
			if p.BotDifficulty != "medium" {
				t.Errorf("bot difficulty = %s, want medium", p.BotDifficulty)
			}
		}
	}
	if !botSeen {
		t.Error("no bot seat in vs-bot game")
	}

	record, err := store.CurrentTurn(ctx, game.ID)
	if err != nil || record == nil {
		t.Fatalf("CurrentTurn: %v, %v", record, err)
	}
	if record.Turn != 1 {
		t.Errorf("first record turn = %d, want 1", record.Turn)
	}
	state, _ := cache.GetGameState(ctx, game.ID)
	if state == nil {
		t.Error("active game should have cached live state")
	}
}

func TestCreateGame_UnknownBotTier(t *testing.T) {
	_, _, gameSvc, _, _ := newTestServices(t, time.Minute)
	_, err := gameSvc.CreateGame(context.Background(), "bad", "alice", 1, true, "unbeatable", false)
	if !errors.Is(err, ErrBadBotTier) {
		t.Fatalf("err = %v, want ErrBadBotTier", err)
	}
}

func TestJoinGame_Errors(t *testing.T) {
	_, _, gameSvc, _, _ := newTestServices(t, time.Minute)
	ctx := context.Background()

	if _, err := gameSvc.JoinGame(ctx, "nonexistent", "bob"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("join missing game: err = %v, want ErrGameNotFound", err)
	}

	gameID := startedPvP(t, gameSvc)
	if _, err := gameSvc.JoinGame(ctx, gameID, "carol"); !errors.Is(err, ErrGameNotWaiting) {
		t.Errorf("join started game: err = %v, want ErrGameNotWaiting", err)
	}
}

func TestDeploy_AdvancesToPlan(t *testing.T) {
	_, _, gameSvc, _, _ := newTestServices(t, time.Minute)
	ctx := context.Background()
	gameID := startedPvP(t, gameSvc)

	view, err := gameSvc.Deploy(ctx, gameID, string(battle.P1), []int{5, 4, 3, 2, 1})
	if err != nil {
		t.Fatalf("Deploy p1: %v", err)
	}
	if view.Phase != battle.PhaseDeploy.String() {
		t.Errorf("phase after one deploy = %s, want deploy", view.Phase)
	}

	view, err = gameSvc.Deploy(ctx, gameID, string(battle.P2), []int{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("Deploy p2: %v", err)
	}
	if view.Phase != battle.PhasePlan.String() {
		t.Errorf("phase after both deploy = %s, want plan", view.Phase)
	}
}

func TestDeploy_Invalid(t *testing.T) {
	_, _, gameSvc, _, _ := newTestServices(t, time.Minute)
	ctx := context.Background()
	gameID := startedPvP(t, gameSvc)

	if _, err := gameSvc.Deploy(ctx, gameID, string(battle.P1), []int{1, 1, 3, 4, 5}); !errors.Is(err, ErrInvalidDeploy) {
		t.Errorf("duplicate powers: err = %v, want ErrInvalidDeploy", err)
	}
	if _, err := gameSvc.Deploy(ctx, gameID, "p9", []int{1, 2, 3, 4, 5}); !errors.Is(err, ErrNotInGame) {
		t.Errorf("unknown seat: err = %v, want ErrNotInGame", err)
	}
}

func TestConcede_FinishesGame(t *testing.T) {
	store, cache, gameSvc, _, _ := newTestServices(t, time.Minute)
	ctx := context.Background()
	gameID := startedPvP(t, gameSvc)
	deployBoth(t, gameSvc, gameID)

	if err := gameSvc.Concede(ctx, gameID, string(battle.P1)); err != nil {
		t.Fatalf("Concede: %v", err)
	}

	game, _ := store.FindByID(ctx, gameID)
	if game.Status != "finished" {
		t.Errorf("status = %s, want finished", game.Status)
	}
	if game.Winner != string(battle.P2) {
		t.Errorf("winner = %s, want %s", game.Winner, battle.P2)
	}
	if game.Victory != string(battle.VictoryConcession) {
		t.Errorf("victory = %s, want %s", game.Victory, battle.VictoryConcession)
	}

	state, _ := cache.GetGameState(ctx, gameID)
	if state != nil {
		t.Error("finished game should have no cached state")
	}

	if _, err := gameSvc.View(ctx, gameID, string(battle.P1)); !errors.Is(err, ErrGameNotActive) {
		t.Errorf("View after finish: err = %v, want ErrGameNotActive", err)
	}
	final, err := gameSvc.FinalView(ctx, gameID, string(battle.P1))
	if err != nil {
		t.Fatalf("FinalView: %v", err)
	}
	if !final.Over {
		t.Error("final view should report game over")
	}
}

func TestView_FogHidesEnemyPowers(t *testing.T) {
	_, _, gameSvc, _, _ := newTestServices(t, time.Minute)
	ctx := context.Background()
	gameID := startedPvP(t, gameSvc)
	deployBoth(t, gameSvc, gameID)

	view, err := gameSvc.View(ctx, gameID, string(battle.P1))
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if len(view.Forces) != 5 {
		t.Errorf("own forces = %d, want 5", len(view.Forces))
	}
	for _, ef := range view.EnemyForces {
		if ef.Power != 0 {
			t.Errorf("enemy force %d exposes power %d", ef.ID, ef.Power)
		}
	}
}

func TestListGames_Filters(t *testing.T) {
	_, _, gameSvc, _, _ := newTestServices(t, time.Minute)
	ctx := context.Background()

	if _, err := gameSvc.CreateGame(ctx, "open", "alice", 1, false, "", false); err != nil {
		t.Fatal(err)
	}
	started := startedPvP(t, gameSvc)

	open, err := gameSvc.ListGames(ctx, "")
	if err != nil || len(open) != 1 {
		t.Errorf("open list = %d (%v), want 1", len(open), err)
	}
	active, err := gameSvc.ListGames(ctx, "active")
	if err != nil || len(active) != 1 || active[0].ID != started {
		t.Errorf("active list = %v (%v), want [%s]", active, err, started)
	}
	finished, err := gameSvc.ListGames(ctx, "finished")
	if err != nil || len(finished) != 0 {
		t.Errorf("finished list = %d (%v), want 0", len(finished), err)
	}
}
