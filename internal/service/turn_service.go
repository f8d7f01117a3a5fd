package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unfought/api/internal/bot"
	"github.com/unfought/api/internal/model"
	"github.com/unfought/api/internal/repository"
	"github.com/unfought/api/pkg/battle"
)

// TurnService orchestrates turn transitions: collecting buffered orders,
// running the engine, persisting the turn record, and arming the next
// deadline. It also drives bot seats.
type TurnService struct {
	gameRepo     repository.GameRepository
	turnRepo     repository.TurnRepository
	cache        repository.GameCache
	broadcaster  Broadcaster
	turnDuration time.Duration

	// gameLocks prevents concurrent resolution for the same game.
	// Both the keyspace listener and poller can fire simultaneously;
	// without locking, both resolve the same turn creating duplicate records.
	gameLocks sync.Map

	// strategies keeps per-game bot instances alive across turns so the
	// stateful tiers accumulate observations.
	strategies sync.Map // gameID -> map[seat]bot.Strategy
}

// NewTurnService creates a TurnService.
func NewTurnService(
	gameRepo repository.GameRepository,
	turnRepo repository.TurnRepository,
	cache repository.GameCache,
	broadcaster Broadcaster,
	turnDuration time.Duration,
) *TurnService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if turnDuration <= 0 {
		turnDuration = 2 * time.Minute
	}
	return &TurnService{
		gameRepo:     gameRepo,
		turnRepo:     turnRepo,
		cache:        cache,
		broadcaster:  broadcaster,
		turnDuration: turnDuration,
	}
}

// gameLock returns the mutex for a given game ID.
func (s *TurnService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// ReadyCount returns the number of seats that have marked ready this turn.
func (s *TurnService) ReadyCount(ctx context.Context, gameID string) (int, error) {
	count, err := s.cache.ReadyCount(ctx, gameID)
	return int(count), err
}

// RecoverActiveGames rehydrates cache state for all active games from the
// turn records. Called on server startup to restore timers and state lost
// during a restart.
func (s *TurnService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}

	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")

	for _, game := range games {
		record, err := s.turnRepo.CurrentTurn(ctx, game.ID)
		if err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to get current turn during recovery")
			continue
		}
		if record == nil {
			log.Warn().Str("gameId", game.ID).Msg("Active game has no current turn, skipping")
			continue
		}

		if err := s.cache.SetGameState(ctx, game.ID, record.StateBefore); err != nil {
			log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore game state")
			continue
		}
		if time.Now().Before(record.Deadline) {
			if err := s.cache.SetTimer(ctx, game.ID, record.Deadline); err != nil {
				log.Error().Err(err).Str("gameId", game.ID).Msg("Failed to restore timer")
			}
		}

		gameID := game.ID
		go func() {
			botCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.SubmitBotOrders(botCtx, gameID); err != nil {
				log.Error().Err(err).Str("gameId", gameID).Msg("Failed to submit bot orders during recovery")
			}
		}()

		log.Info().Str("gameId", game.ID).Int("turn", record.Turn).
			Time("deadline", record.Deadline).Msg("Recovered game state")
	}

	return nil
}

// SubmitBotOrders deploys and plans for all bot seats in a game, marks
// them ready, and triggers resolution if both seats are ready. Order
// generation runs concurrently per seat; cache writes are sequential.
func (s *TurnService) SubmitBotOrders(ctx context.Context, gameID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game for bot orders: %w", err)
	}
	if game.Status != "active" {
		return nil
	}

	botSeats := s.botStrategies(game)
	if len(botSeats) == 0 {
		return nil
	}

	gs, err := loadLiveState(ctx, s.cache, s.turnRepo, gameID)
	if err != nil {
		return fmt.Errorf("load state for bot orders: %w", err)
	}

	if gs.Phase == battle.PhaseDeploy {
		if err := s.deployBots(ctx, gameID, gs, botSeats); err != nil {
			return err
		}
	}
	if gs.Phase != battle.PhasePlan {
		return nil
	}

	// Generate plans concurrently; each seat has its own strategy instance.
	type botResult struct {
		seat       string
		strategy   bot.Strategy
		ordersJSON []byte
		count      int
		err        error
	}
	resultsCh := make(chan botResult, len(botSeats))
	pending := 0

	for seat, strategy := range botSeats {
		buffered, err := s.cache.GetOrders(ctx, gameID, seat)
		if err != nil {
			return fmt.Errorf("check bot orders for %s: %w", seat, err)
		}
		if buffered != nil {
			continue
		}
		pending++
		go func(seat string, strategy bot.Strategy) {
			orders := strategy.Plan(battle.View(gs, battle.PlayerID(seat)))
			if err := battle.ValidateOrders(gs, battle.PlayerID(seat), orders); err != nil {
				log.Warn().Err(err).Str("gameId", gameID).Str("seat", seat).
					Str("strategy", strategy.Name()).Msg("Bot produced invalid batch, holding")
				orders = nil
			}
			ordersJSON, marshalErr := json.Marshal(orders)
			resultsCh <- botResult{seat: seat, strategy: strategy, ordersJSON: ordersJSON, count: len(orders), err: marshalErr}
		}(seat, strategy)
	}

	for i := 0; i < pending; i++ {
		res := <-resultsCh
		if res.err != nil {
			return fmt.Errorf("marshal bot orders for %s: %w", res.seat, res.err)
		}
		if err := s.cache.SetOrders(ctx, gameID, res.seat, res.ordersJSON); err != nil {
			return fmt.Errorf("cache bot orders for %s: %w", res.seat, err)
		}
		if err := s.cache.MarkReady(ctx, gameID, res.seat); err != nil {
			return fmt.Errorf("mark bot ready for %s: %w", res.seat, err)
		}
		log.Debug().Str("gameId", gameID).Str("seat", res.seat).
			Str("strategy", res.strategy.Name()).Int("orders", res.count).Msg("Bot orders submitted")
	}

	readyCount, err := s.cache.ReadyCount(ctx, gameID)
	if err != nil {
		return fmt.Errorf("ready count after bot orders: %w", err)
	}
	totalSeats := len(allSeats())

	s.broadcaster.BroadcastGameEvent(gameID, "player_ready", map[string]any{
		"ready_count": readyCount,
		"total_seats": totalSeats,
	})

	if int(readyCount) >= totalSeats {
		log.Info().Str("gameId", gameID).Msg("All seats ready after bot orders, resolving turn")
		if err := s.ResolveTurnEarly(ctx, gameID); err != nil {
			return fmt.Errorf("auto-resolve after bot orders: %w", err)
		}
	}

	return nil
}

// deployBots runs the Deploy phase for undeployed bot seats.
func (s *TurnService) deployBots(ctx context.Context, gameID string, gs *battle.GameState, botSeats map[string]bot.Strategy) error {
	deployed := false
	for _, seat := range allSeats() {
		strategy, ok := botSeats[seat]
		if !ok {
			continue
		}
		p := battle.PlayerID(seat)
		if gs.Players[p].Deployed {
			continue
		}
		perm := strategy.Deploy(battle.View(gs, p))
		if err := gs.Deploy(p, perm); err != nil {
			return fmt.Errorf("bot deploy for %s: %w", seat, err)
		}
		deployed = true
		log.Debug().Str("gameId", gameID).Str("seat", seat).
			Str("strategy", strategy.Name()).Msg("Bot deployed")
	}
	if !deployed {
		return nil
	}
	if err := saveLiveState(ctx, s.cache, gameID, gs); err != nil {
		return err
	}
	s.broadcaster.BroadcastGameEvent(gameID, "player_ready", map[string]any{
		"phase": gs.Phase.String(),
	})
	return nil
}

// botStrategies returns the per-seat strategy instances for a game,
// creating them on first use from the seat difficulties.
func (s *TurnService) botStrategies(game *model.Game) map[string]bot.Strategy {
	if v, ok := s.strategies.Load(game.ID); ok {
		return v.(map[string]bot.Strategy)
	}
	seats := make(map[string]bot.Strategy)
	for _, p := range game.Players {
		if p.IsBot {
			seats[p.Seat] = bot.StrategyForDifficulty(p.BotDifficulty)
		}
	}
	actual, _ := s.strategies.LoadOrStore(game.ID, seats)
	return actual.(map[string]bot.Strategy)
}

// ResolveTurn performs the full turn resolution cycle once the deadline
// has passed: default missing deployments and orders, run the engine,
// persist the record, advance or finish.
func (s *TurnService) ResolveTurn(ctx context.Context, gameID string) error {
	return s.resolveTurnInternal(ctx, gameID, false)
}

// ResolveTurnEarly is called when both seats have marked ready before the deadline.
func (s *TurnService) ResolveTurnEarly(ctx context.Context, gameID string) error {
	return s.resolveTurnInternal(ctx, gameID, true)
}

func (s *TurnService) resolveTurnInternal(ctx context.Context, gameID string, early bool) error {
	// Per-game lock prevents concurrent resolution from keyspace + poller
	// or from early-resolution goroutines racing with timer expiry.
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil || game == nil {
		return fmt.Errorf("find game: %w", err)
	}
	if game.Status != "active" {
		log.Info().Str("gameId", gameID).Str("status", game.Status).Msg("Skipping resolution for non-active game")
		return nil
	}

	record, err := s.turnRepo.CurrentTurn(ctx, gameID)
	if err != nil || record == nil {
		return fmt.Errorf("get current turn: %w", err)
	}

	// Guard against resolving a turn whose deadline hasn't passed yet
	// (unless triggered by both seats being ready).
	if !early && time.Now().Before(record.Deadline) {
		log.Debug().Str("gameId", gameID).Time("deadline", record.Deadline).Msg("Turn deadline not yet reached, skipping")
		return nil
	}
	// An early trigger that lost the race to another resolution sees a
	// fresh turn with an empty ready set; it must not resolve that one.
	if early && time.Now().Before(record.Deadline) {
		readyCount, err := s.cache.ReadyCount(ctx, gameID)
		if err != nil {
			return fmt.Errorf("ready count before early resolve: %w", err)
		}
		if int(readyCount) < len(allSeats()) {
			log.Debug().Str("gameId", gameID).Int64("ready", readyCount).Msg("Early resolution requested but seats not all ready, skipping")
			return nil
		}
	}

	log.Info().Str("gameId", gameID).Str("turnId", record.ID).
		Int("turn", record.Turn).Bool("early", early).Msg("Resolving turn")

	gs, err := loadLiveState(ctx, s.cache, s.turnRepo, gameID)
	if err != nil {
		return err
	}

	eventMark := len(gs.Events)

	// A seat that never deployed gets a permutation drawn from the game
	// stream, so replays of the same seed stay reproducible.
	if gs.Phase == battle.PhaseDeploy {
		for _, seat := range allSeats() {
			p := battle.PlayerID(seat)
			if !gs.Players[p].Deployed {
				if err := gs.Deploy(p, gs.Rand.Perm(gs.Config.ForcesPerPlayer)); err != nil {
					return fmt.Errorf("default deploy for %s: %w", seat, err)
				}
				log.Info().Str("gameId", gameID).Str("seat", seat).Msg("Seat missed deployment, assigned default")
			}
		}
	}

	orders, err := s.collectOrders(ctx, gameID)
	if err != nil {
		return fmt.Errorf("collect orders: %w", err)
	}

	if err := battle.ResolveTurn(gs, orders); err != nil {
		return fmt.Errorf("resolve turn: %w", err)
	}

	stateAfterJSON, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("marshal state after: %w", err)
	}
	eventsJSON, err := json.Marshal(gs.Events[eventMark:])
	if err != nil {
		return fmt.Errorf("marshal turn events: %w", err)
	}
	if err := s.turnRepo.ResolveTurn(ctx, record.ID, stateAfterJSON, eventsJSON); err != nil {
		return fmt.Errorf("save turn record: %w", err)
	}

	if gs.Over {
		return s.finishGame(ctx, gameID, gs)
	}

	deadline := time.Now().Add(s.turnDuration)
	if _, err := s.turnRepo.CreateTurn(ctx, gameID, gs.Turn, stateAfterJSON, deadline); err != nil {
		return fmt.Errorf("create next turn: %w", err)
	}
	if err := s.cache.ClearTurnData(ctx, gameID, allSeats()); err != nil {
		return fmt.Errorf("clear turn data: %w", err)
	}
	if err := s.cache.SetGameState(ctx, gameID, stateAfterJSON); err != nil {
		return fmt.Errorf("set new state: %w", err)
	}
	if err := s.cache.SetTimer(ctx, gameID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}

	log.Info().Str("gameId", gameID).Int("turn", gs.Turn).
		Time("deadline", deadline).Msg("Game advanced to next turn")

	// Broadcast AFTER the new record exists so clients can fetch views
	// immediately. Payloads carry no hidden information; each client
	// pulls its own fog view.
	s.broadcaster.BroadcastGameEvent(gameID, "turn_resolved", map[string]any{
		"turn":     record.Turn,
		"next":     gs.Turn,
		"deadline": deadline.Format(time.RFC3339),
	})

	go func() {
		botCtx, cancel := context.WithTimeout(context.Background(), s.botTimeout())
		defer cancel()
		if err := s.SubmitBotOrders(botCtx, gameID); err != nil {
			log.Error().Err(err).Str("gameId", gameID).Msg("Failed to submit bot orders after turn advance")
		}
	}()

	return nil
}

// finishGame persists a decided game, notifies clients, and drops cache data.
func (s *TurnService) finishGame(ctx context.Context, gameID string, gs *battle.GameState) error {
	log.Info().Str("gameId", gameID).Str("winner", string(gs.Winner)).
		Str("victory", string(gs.Victory)).Msg("Game over")
	if err := s.gameRepo.SetFinished(ctx, gameID, string(gs.Winner), string(gs.Victory)); err != nil {
		return fmt.Errorf("set finished: %w", err)
	}
	s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{
		"winner":  string(gs.Winner),
		"victory": string(gs.Victory),
	})
	s.strategies.Delete(gameID)
	return s.cache.DeleteGameData(ctx, gameID, allSeats())
}

// collectOrders gathers buffered batches from the cache. A seat with no
// batch, or an unreadable one, defaults to no orders: every force holds.
func (s *TurnService) collectOrders(ctx context.Context, gameID string) (map[battle.PlayerID][]battle.Order, error) {
	raw, err := s.cache.GetAllOrders(ctx, gameID, allSeats())
	if err != nil {
		return nil, err
	}

	orders := make(map[battle.PlayerID][]battle.Order)
	for _, seat := range allSeats() {
		data, ok := raw[seat]
		if !ok {
			continue
		}
		var batch []battle.Order
		if err := json.Unmarshal(data, &batch); err != nil {
			log.Warn().Str("seat", seat).Str("gameId", gameID).Msg("Invalid buffered orders, seat holds")
			continue
		}
		orders[battle.PlayerID(seat)] = batch
	}
	return orders, nil
}

// botTimeout bounds bot order generation so it finishes before the timer.
func (s *TurnService) botTimeout() time.Duration {
	timeout := s.turnDuration - 5*time.Second
	if timeout > 30*time.Second {
		timeout = 30 * time.Second
	}
	if timeout < 5*time.Second {
		timeout = 5 * time.Second
	}
	return timeout
}
