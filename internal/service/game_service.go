package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/unfought/api/internal/model"
	"github.com/unfought/api/internal/repository"
	"github.com/unfought/api/pkg/battle"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameNotWaiting  = errors.New("game is not waiting for players")
	ErrGameNotActive   = errors.New("game is not active")
	ErrGameFull        = errors.New("game already has both seats filled")
	ErrNotInGame       = errors.New("you are not in this game")
	ErrInvalidDeploy   = errors.New("invalid deployment")
	ErrInvalidSeat     = errors.New("invalid seat")
	ErrBadBotTier      = errors.New("unknown bot difficulty")
	ErrGameOver        = errors.New("game is already over")
	ErrWrongPhase      = errors.New("operation not allowed in this phase")
)

// botTiers are the difficulty names a bot seat accepts.
var botTiers = map[string]bool{
	"random": true, "easy": true, "medium": true, "hard": true, "expert": true,
}

// GameService handles game lifecycle operations: creation, seating,
// deployment, concession, and fog views.
type GameService struct {
	gameRepo     repository.GameRepository
	turnRepo     repository.TurnRepository
	cache        repository.GameCache
	broadcaster  Broadcaster
	turnDuration time.Duration
}

// NewGameService creates a GameService.
func NewGameService(
	gameRepo repository.GameRepository,
	turnRepo repository.TurnRepository,
	cache repository.GameCache,
	broadcaster Broadcaster,
	turnDuration time.Duration,
) *GameService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	if turnDuration <= 0 {
		turnDuration = 2 * time.Minute
	}
	return &GameService{
		gameRepo:     gameRepo,
		turnRepo:     turnRepo,
		cache:        cache,
		broadcaster:  broadcaster,
		turnDuration: turnDuration,
	}
}

// CreateGame creates a game. The creator takes seat p1 unless botOnly is
// set. With vsBot the second seat is a bot at the given difficulty and
// the game starts immediately; otherwise it waits for a join.
func (s *GameService) CreateGame(ctx context.Context, name, playerName string, seed int64, vsBot bool, botDifficulty string, botOnly bool) (*model.Game, error) {
	if botDifficulty == "" {
		botDifficulty = "easy"
	}
	if (vsBot || botOnly) && !botTiers[botDifficulty] {
		return nil, fmt.Errorf("%w: %s", ErrBadBotTier, botDifficulty)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if playerName == "" {
		playerName = "player"
	}

	game, err := s.gameRepo.Create(ctx, name, seed)
	if err != nil {
		return nil, err
	}

	if botOnly {
		if err := s.gameRepo.SeatPlayer(ctx, game.ID, string(battle.P1), "bot-p1", true, botDifficulty); err != nil {
			return nil, err
		}
		if err := s.gameRepo.SeatPlayer(ctx, game.ID, string(battle.P2), "bot-p2", true, botDifficulty); err != nil {
			return nil, err
		}
		if err := s.startGame(ctx, game.ID, seed); err != nil {
			return nil, err
		}
	} else {
		if err := s.gameRepo.SeatPlayer(ctx, game.ID, string(battle.P1), playerName, false, ""); err != nil {
			return nil, err
		}
		if vsBot {
			if err := s.gameRepo.SeatPlayer(ctx, game.ID, string(battle.P2), "bot", true, botDifficulty); err != nil {
				return nil, err
			}
			if err := s.startGame(ctx, game.ID, seed); err != nil {
				return nil, err
			}
		}
	}

	return s.gameRepo.FindByID(ctx, game.ID)
}

// JoinGame fills the open seat of a waiting game and starts it.
// Returns the seat the player was assigned.
func (s *GameService) JoinGame(ctx context.Context, gameID, playerName string) (string, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return "", err
	}
	if game == nil {
		return "", ErrGameNotFound
	}
	if game.Status != "waiting" {
		return "", ErrGameNotWaiting
	}
	if playerName == "" {
		playerName = "player"
	}

	taken := map[string]bool{}
	for _, p := range game.Players {
		taken[p.Seat] = true
	}
	seat := ""
	for _, candidate := range allSeats() {
		if !taken[candidate] {
			seat = candidate
			break
		}
	}
	if seat == "" {
		return "", ErrGameFull
	}

	if err := s.gameRepo.SeatPlayer(ctx, gameID, seat, playerName, false, ""); err != nil {
		return "", err
	}
	if err := s.startGame(ctx, gameID, game.Seed); err != nil {
		return "", err
	}
	return seat, nil
}

// startGame activates a fully seated game: builds the initial state,
// opens the first turn record, and arms the deadline timer.
func (s *GameService) startGame(ctx context.Context, gameID string, seed int64) error {
	gs := battle.NewGame(seed, battle.DefaultConfig())
	stateJSON, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("marshal initial state: %w", err)
	}

	if err := s.gameRepo.SetActive(ctx, gameID); err != nil {
		return err
	}

	deadline := time.Now().Add(s.turnDuration)
	if _, err := s.turnRepo.CreateTurn(ctx, gameID, gs.Turn, stateJSON, deadline); err != nil {
		return err
	}
	if err := s.cache.SetGameState(ctx, gameID, stateJSON); err != nil {
		return fmt.Errorf("set game state: %w", err)
	}
	if err := s.cache.SetTimer(ctx, gameID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}

	s.broadcaster.BroadcastGameEvent(gameID, "game_started", map[string]any{
		"deadline": deadline.Format(time.RFC3339),
	})
	return nil
}

// Deploy assigns a seat's hidden power permutation during the Deploy
// phase. When both seats have deployed the game enters the Plan phase.
func (s *GameService) Deploy(ctx context.Context, gameID, seat string, powers []int) (*battle.PlayerView, error) {
	game, err := s.activeGameWithSeat(ctx, gameID, seat)
	if err != nil {
		return nil, err
	}

	gs, err := loadLiveState(ctx, s.cache, s.turnRepo, game.ID)
	if err != nil {
		return nil, err
	}
	if err := gs.Deploy(battle.PlayerID(seat), powers); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDeploy, err)
	}
	if err := saveLiveState(ctx, s.cache, game.ID, gs); err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastGameEvent(gameID, "player_ready", map[string]any{
		"seat":  seat,
		"phase": gs.Phase.String(),
	})
	return battle.View(gs, battle.PlayerID(seat)), nil
}

// Concede ends the game in the opponent's favor.
func (s *GameService) Concede(ctx context.Context, gameID, seat string) error {
	game, err := s.activeGameWithSeat(ctx, gameID, seat)
	if err != nil {
		return err
	}

	gs, err := loadLiveState(ctx, s.cache, s.turnRepo, game.ID)
	if err != nil {
		return err
	}
	eventMark := len(gs.Events)
	if err := gs.Concede(battle.PlayerID(seat)); err != nil {
		return fmt.Errorf("%w: %s", ErrGameOver, err)
	}

	stateJSON, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("marshal final state: %w", err)
	}
	eventsJSON, err := json.Marshal(gs.Events[eventMark:])
	if err != nil {
		return fmt.Errorf("marshal concede events: %w", err)
	}

	if record, err := s.turnRepo.CurrentTurn(ctx, gameID); err == nil && record != nil {
		if err := s.turnRepo.ResolveTurn(ctx, record.ID, stateJSON, eventsJSON); err != nil {
			return err
		}
	}
	if err := s.gameRepo.SetFinished(ctx, gameID, string(gs.Winner), string(gs.Victory)); err != nil {
		return err
	}

	s.broadcaster.BroadcastGameEvent(gameID, "game_ended", map[string]any{
		"winner":  string(gs.Winner),
		"victory": string(gs.Victory),
	})
	return s.cache.DeleteGameData(ctx, gameID, allSeats())
}

// View returns a seat's fog-of-war projection of the live state.
func (s *GameService) View(ctx context.Context, gameID, seat string) (*battle.PlayerView, error) {
	if _, err := s.activeGameWithSeat(ctx, gameID, seat); err != nil {
		return nil, err
	}
	gs, err := loadLiveState(ctx, s.cache, s.turnRepo, gameID)
	if err != nil {
		return nil, err
	}
	return battle.View(gs, battle.PlayerID(seat)), nil
}

// FinalView returns a seat's view of a finished game from its last turn record.
func (s *GameService) FinalView(ctx context.Context, gameID, seat string) (*battle.PlayerView, error) {
	turns, err := s.turnRepo.ListTurns(ctx, gameID)
	if err != nil {
		return nil, err
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].StateAfter == nil {
			continue
		}
		var gs battle.GameState
		if err := json.Unmarshal(turns[i].StateAfter, &gs); err != nil {
			return nil, fmt.Errorf("unmarshal final state: %w", err)
		}
		return battle.View(&gs, battle.PlayerID(seat)), nil
	}
	return nil, ErrNoLiveState
}

// EventLog returns the events visible to a seat, oldest first.
func (s *GameService) EventLog(ctx context.Context, gameID, seat string) ([]battle.Event, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if !hasSeat(game, seat) {
		return nil, ErrNotInGame
	}

	gs, err := loadLiveState(ctx, s.cache, s.turnRepo, gameID)
	if err != nil {
		return nil, err
	}
	return gs.EventsFor(battle.PlayerID(seat)), nil
}

// GetGame returns a game's metadata by ID.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// ListGames returns games by status filter: open (default), active, or finished.
func (s *GameService) ListGames(ctx context.Context, filter string) ([]model.Game, error) {
	switch filter {
	case "active":
		return s.gameRepo.ListActive(ctx)
	case "finished":
		return s.gameRepo.ListFinished(ctx)
	default:
		return s.gameRepo.ListOpen(ctx)
	}
}

// activeGameWithSeat loads an active game and checks seat membership.
func (s *GameService) activeGameWithSeat(ctx context.Context, gameID, seat string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.Status != "active" {
		return nil, ErrGameNotActive
	}
	if !hasSeat(game, seat) {
		return nil, ErrNotInGame
	}
	return game, nil
}

func hasSeat(game *model.Game, seat string) bool {
	for _, p := range game.Players {
		if p.Seat == seat {
			return true
		}
	}
	return false
}
