package bot

import (
	"github.com/unfought/api/pkg/battle"
)

// Strategy generates a bot player's deployment and turn plans from its
// fog-of-war view. Implementations never see the authoritative state.
// Tiers with cross-turn memory update it inside Plan, so one instance
// must stay dedicated to one seat in one game.
type Strategy interface {
	Name() string

	// Deploy returns the hidden power assignment for the player's
	// forces in id order: a permutation of 1..ForcesPerPlayer.
	Deploy(v *battle.PlayerView) []int

	// Plan returns the order batch for the current turn. Batches are
	// built to validate against the view; the engine re-checks anyway.
	Plan(v *battle.PlayerView) []battle.Order
}

// BeliefReporter exposes a tier's per-force power marginals.
// Not all strategies track beliefs; use a type assertion to check.
type BeliefReporter interface {
	Beliefs() map[int]map[int]float64
}

// StrategyForDifficulty returns a fresh strategy for a difficulty level.
func StrategyForDifficulty(difficulty string) Strategy {
	switch difficulty {
	case "random":
		return &RandomStrategy{}
	case "medium":
		return NewPatternStrategy()
	case "hard":
		return NewBeliefStrategy()
	case "expert":
		return NewSearchStrategy(DefaultSearchBudget())
	default:
		return &HeuristicStrategy{}
	}
}
