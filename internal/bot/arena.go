package bot

import (
	"fmt"

	"github.com/unfought/api/pkg/battle"
)

// Headless selfplay. The arena drives full games strategy-vs-strategy
// straight against the engine, for ladder comparisons and regression
// tests; cmd/arena wraps it in a CLI.

// MatchConfig parameterizes one game.
type MatchConfig struct {
	Seed     int64
	MaxTurns int
	Config   battle.Config
}

// MatchResult is the outcome of one game. A game stopped at MaxTurns
// has Winner "" and Victory "", an adjudicated draw.
type MatchResult struct {
	Winner  battle.PlayerID
	Victory battle.VictoryKind
	Turns   int
}

// RunMatch plays one full game between two strategy instances. The
// instances must be fresh: stateful tiers remember the game they are
// in.
func RunMatch(p1, p2 Strategy, mc MatchConfig) (MatchResult, error) {
	if mc.MaxTurns <= 0 {
		mc.MaxTurns = 60
	}
	gs := battle.NewGame(mc.Seed, mc.Config)

	seats := map[battle.PlayerID]Strategy{battle.P1: p1, battle.P2: p2}
	for _, seat := range []battle.PlayerID{battle.P1, battle.P2} {
		perm := seats[seat].Deploy(battle.View(gs, seat))
		if err := gs.Deploy(seat, perm); err != nil {
			return MatchResult{}, fmt.Errorf("%s deploy: %w", seat, err)
		}
	}

	for !gs.Over && gs.Turn <= mc.MaxTurns {
		orders := map[battle.PlayerID][]battle.Order{}
		for _, seat := range []battle.PlayerID{battle.P1, battle.P2} {
			batch := seats[seat].Plan(battle.View(gs, seat))
			// A strategy emitting an invalid batch forfeits its turn
			// rather than the match.
			if err := battle.ValidateOrders(gs, seat, batch); err != nil {
				batch = nil
			}
			orders[seat] = batch
		}
		if err := battle.ResolveTurn(gs, orders); err != nil {
			return MatchResult{}, fmt.Errorf("turn %d: %w", gs.Turn, err)
		}
	}

	return MatchResult{Winner: gs.Winner, Victory: gs.Victory, Turns: gs.Turn}, nil
}

// SeriesResult aggregates a run of matches.
type SeriesResult struct {
	Matches  []MatchResult
	Wins     map[battle.PlayerID]int
	Draws    int
	AvgTurns float64
}

// RunSeries plays n matches with consecutive seeds, building fresh
// strategy instances per game.
func RunSeries(newP1, newP2 func() Strategy, n int, base MatchConfig) (SeriesResult, error) {
	res := SeriesResult{Wins: map[battle.PlayerID]int{}}
	totalTurns := 0
	for i := 0; i < n; i++ {
		mc := base
		mc.Seed = base.Seed + int64(i)
		m, err := RunMatch(newP1(), newP2(), mc)
		if err != nil {
			return res, fmt.Errorf("match %d: %w", i, err)
		}
		res.Matches = append(res.Matches, m)
		if m.Winner == "" {
			res.Draws++
		} else {
			res.Wins[m.Winner]++
		}
		totalTurns += m.Turns
	}
	if n > 0 {
		res.AvgTurns = float64(totalTurns) / float64(n)
	}
	return res, nil
}
