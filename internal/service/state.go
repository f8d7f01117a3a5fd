package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/unfought/api/internal/repository"
	"github.com/unfought/api/pkg/battle"
)

var ErrNoLiveState = errors.New("no live state for game")

// allSeats is the canonical seat order for cache key fanout.
func allSeats() []string {
	return []string{string(battle.P1), string(battle.P2)}
}

// loadLiveState reads the authoritative game state from the cache,
// falling back to the current turn record after a cache wipe.
func loadLiveState(ctx context.Context, cache repository.GameCache, turnRepo repository.TurnRepository, gameID string) (*battle.GameState, error) {
	stateJSON, err := cache.GetGameState(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get cached state: %w", err)
	}
	if stateJSON == nil {
		record, err := turnRepo.CurrentTurn(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("current turn: %w", err)
		}
		if record == nil {
			return nil, ErrNoLiveState
		}
		stateJSON = record.StateBefore
	}

	var gs battle.GameState
	if err := json.Unmarshal(stateJSON, &gs); err != nil {
		return nil, fmt.Errorf("unmarshal game state: %w", err)
	}
	return &gs, nil
}

// saveLiveState writes the game state back to the cache.
func saveLiveState(ctx context.Context, cache repository.GameCache, gameID string, gs *battle.GameState) error {
	stateJSON, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}
	if err := cache.SetGameState(ctx, gameID, stateJSON); err != nil {
		return fmt.Errorf("set game state: %w", err)
	}
	return nil
}
