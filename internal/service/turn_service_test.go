package service

import (
	"context"
	"testing"
	"time"

	"github.com/unfought/api/internal/bot"
	"github.com/unfought/api/pkg/battle"
)

func TestResolveTurnEarly_AdvancesTurn(t *testing.T) {
	store, cache, gameSvc, orderSvc, turnSvc := newTestServices(t, time.Minute)
	ctx := context.Background()
	gameID := startedPvP(t, gameSvc)
	deployBoth(t, gameSvc, gameID)

	for _, seat := range allSeats() {
		if _, err := orderSvc.SubmitOrders(ctx, gameID, seat, nil); err != nil {
			t.Fatalf("SubmitOrders %s: %v", seat, err)
		}
	}
	if err := turnSvc.ResolveTurnEarly(ctx, gameID); err != nil {
		t.Fatalf("ResolveTurnEarly: %v", err)
	}

	record, err := store.CurrentTurn(ctx, gameID)
	if err != nil || record == nil {
		t.Fatalf("CurrentTurn: %v, %v", record, err)
	}
	if record.Turn != 2 {
		t.Errorf("current turn = %d, want 2", record.Turn)
	}

	turns, _ := store.ListTurns(ctx, gameID)
	if len(turns) != 2 {
		t.Fatalf("turn records = %d, want 2", len(turns))
	}
	if turns[0].ResolvedAt == nil || turns[0].StateAfter == nil || turns[0].Events == nil {
		t.Error("first turn record not fully resolved")
	}

	count, _ := cache.ReadyCount(ctx, gameID)
	if count != 0 {
		t.Errorf("ready count after resolution = %d, want 0", count)
	}
	for _, seat := range allSeats() {
		if buffered, _ := cache.GetOrders(ctx, gameID, seat); buffered != nil {
			t.Errorf("orders for %s not cleared after resolution", seat)
		}
	}
}

func TestResolveTurn_RespectsDeadline(t *testing.T) {
	store, _, gameSvc, _, turnSvc := newTestServices(t, time.Hour)
	ctx := context.Background()
	gameID := startedPvP(t, gameSvc)
	deployBoth(t, gameSvc, gameID)

	if err := turnSvc.ResolveTurn(ctx, gameID); err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}

	record, _ := store.CurrentTurn(ctx, gameID)
	if record == nil || record.Turn != 1 || record.ResolvedAt != nil {
		t.Errorf("turn resolved before its deadline: %+v", record)
	}
}

func TestResolveTurn_DefaultDeployOnExpiry(t *testing.T) {
	store, _, gameSvc, _, turnSvc := newTestServices(t, 10*time.Millisecond)
	ctx := context.Background()
	gameID := startedPvP(t, gameSvc)

	// Neither seat deploys before the deadline.
	time.Sleep(20 * time.Millisecond)
	if err := turnSvc.ResolveTurn(ctx, gameID); err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}

	record, _ := store.CurrentTurn(ctx, gameID)
	if record == nil || record.Turn != 2 {
		t.Fatalf("current turn = %+v, want turn 2", record)
	}

	gs, err := loadLiveState(ctx, turnSvc.cache, store, gameID)
	if err != nil {
		t.Fatalf("loadLiveState: %v", err)
	}
	for _, seat := range allSeats() {
		if !gs.Players[battle.PlayerID(seat)].Deployed {
			t.Errorf("seat %s not default-deployed after expiry", seat)
		}
	}
	if gs.Phase != battle.PhasePlan {
		t.Errorf("phase = %s, want plan", gs.Phase)
	}
}

func TestResolveTurn_SameSeedSameOutcome(t *testing.T) {
	run := func() *battle.GameState {
		_, _, gameSvc, orderSvc, turnSvc := newTestServices(t, time.Minute)
		ctx := context.Background()
		game, err := gameSvc.CreateGame(ctx, "replay", "alice", 1234, false, "", false)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := gameSvc.JoinGame(ctx, game.ID, "bob"); err != nil {
			t.Fatal(err)
		}
		deployBoth(t, gameSvc, game.ID)
		for _, seat := range allSeats() {
			if _, err := orderSvc.SubmitOrders(ctx, game.ID, seat, []OrderInput{{Force: 1, Type: "fortify"}}); err != nil {
				t.Fatalf("SubmitOrders %s: %v", seat, err)
			}
		}
		if err := turnSvc.ResolveTurnEarly(ctx, game.ID); err != nil {
			t.Fatal(err)
		}
		gs, err := loadLiveState(ctx, turnSvc.cache, turnSvc.turnRepo, game.ID)
		if err != nil {
			t.Fatal(err)
		}
		return gs
	}

	a, b := run(), run()
	if a.Rand.State != b.Rand.State {
		t.Errorf("stream diverged: %d vs %d", a.Rand.State, b.Rand.State)
	}
	if len(a.Events) != len(b.Events) {
		t.Errorf("event counts diverged: %d vs %d", len(a.Events), len(b.Events))
	}
}

func TestSubmitBotOrders_DeploysAndResolves(t *testing.T) {
	bot.SeedBotRng(99)
	defer bot.ResetBotRng()

	store, _, gameSvc, _, turnSvc := newTestServices(t, time.Minute)
	ctx := context.Background()

	game, err := gameSvc.CreateGame(ctx, "bots", "", 55, false, "random", true)
	if err != nil {
		t.Fatalf("CreateGame botOnly: %v", err)
	}

	if err := turnSvc.SubmitBotOrders(ctx, game.ID); err != nil {
		t.Fatalf("SubmitBotOrders: %v", err)
	}

	// Both bots deployed, planned, and the turn auto-resolved; resolution
	// kicks the next round of bot orders on a goroutine, so only the
	// synchronous first advance is asserted here.
	record, _ := store.CurrentTurn(ctx, game.ID)
	updated, _ := store.FindByID(ctx, game.ID)
	if updated.Status == "active" && (record == nil || record.Turn < 2) {
		t.Errorf("bot game did not advance past turn 1: %+v", record)
	}
}

func TestBotGame_RunsToCompletion(t *testing.T) {
	bot.SeedBotRng(7)
	defer bot.ResetBotRng()

	store, _, gameSvc, _, turnSvc := newTestServices(t, time.Hour)
	ctx := context.Background()

	game, err := gameSvc.CreateGame(ctx, "ladder", "", 77, false, "random", true)
	if err != nil {
		t.Fatalf("CreateGame botOnly: %v", err)
	}

	// The shrinking board guarantees termination well inside this bound.
	for i := 0; i < 200; i++ {
		updated, err := store.FindByID(ctx, game.ID)
		if err != nil {
			t.Fatal(err)
		}
		if updated.Status == "finished" {
			if updated.Victory == "" {
				t.Error("finished game has no victory kind")
			}
			return
		}
		if err := turnSvc.SubmitBotOrders(ctx, game.ID); err != nil {
			t.Fatalf("SubmitBotOrders turn %d: %v", i, err)
		}
	}
	t.Fatal("bot game did not finish within 200 rounds")
}

func TestRecoverActiveGames_RestoresState(t *testing.T) {
	store, cache, gameSvc, _, turnSvc := newTestServices(t, time.Minute)
	ctx := context.Background()
	gameID := startedPvP(t, gameSvc)
	deployBoth(t, gameSvc, gameID)

	// Simulate a cache wipe across a restart. Deployments live only in
	// the cache until the turn resolves, so recovery falls back to the
	// turn record snapshot.
	if err := cache.DeleteGameData(ctx, gameID, allSeats()); err != nil {
		t.Fatal(err)
	}
	if err := turnSvc.RecoverActiveGames(ctx); err != nil {
		t.Fatalf("RecoverActiveGames: %v", err)
	}

	state, err := cache.GetGameState(ctx, gameID)
	if err != nil {
		t.Fatal(err)
	}
	if state == nil {
		t.Fatal("state not restored to cache")
	}
	gs, err := loadLiveState(ctx, cache, store, gameID)
	if err != nil {
		t.Fatalf("loadLiveState after recovery: %v", err)
	}
	if gs.Turn != 1 {
		t.Errorf("recovered turn = %d, want 1", gs.Turn)
	}
}
