package bot

import (
	"testing"

	"github.com/unfought/api/pkg/battle"
)

func TestRunMatch_Completes(t *testing.T) {
	SeedBotRng(1)
	defer ResetBotRng()

	res, err := RunMatch(&RandomStrategy{}, &HeuristicStrategy{}, MatchConfig{
		Seed:     100,
		MaxTurns: 40,
		Config:   battle.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("RunMatch: %v", err)
	}
	if res.Turns < 1 || res.Turns > 41 {
		t.Errorf("match length %d out of range", res.Turns)
	}
	if res.Winner != "" && res.Victory == "" {
		t.Error("a decided match must carry a victory kind")
	}
}

func TestRunMatch_DeterministicUnderSeeds(t *testing.T) {
	run := func() MatchResult {
		SeedBotRng(2)
		defer ResetBotRng()
		res, err := RunMatch(&RandomStrategy{}, &RandomStrategy{}, MatchConfig{
			Seed:     7,
			MaxTurns: 30,
			Config:   battle.DefaultConfig(),
		})
		if err != nil {
			t.Fatalf("RunMatch: %v", err)
		}
		return res
	}
	a, b := run(), run()
	if a != b {
		t.Errorf("seeded matches diverged: %+v vs %+v", a, b)
	}
}

func TestRunSeries_Accounting(t *testing.T) {
	SeedBotRng(3)
	defer ResetBotRng()

	const n = 5
	res, err := RunSeries(
		func() Strategy { return &RandomStrategy{} },
		func() Strategy { return &HeuristicStrategy{} },
		n,
		MatchConfig{Seed: 500, MaxTurns: 30, Config: battle.DefaultConfig()},
	)
	if err != nil {
		t.Fatalf("RunSeries: %v", err)
	}
	if len(res.Matches) != n {
		t.Fatalf("recorded %d matches, want %d", len(res.Matches), n)
	}
	if res.Wins[battle.P1]+res.Wins[battle.P2]+res.Draws != n {
		t.Errorf("wins %v + draws %d do not add up to %d", res.Wins, res.Draws, n)
	}
	if res.AvgTurns <= 0 {
		t.Errorf("average turns %v, want positive", res.AvgTurns)
	}
}

func TestRunMatch_StatefulTiers(t *testing.T) {
	SeedBotRng(4)
	defer ResetBotRng()

	res, err := RunMatch(NewPatternStrategy(), NewBeliefStrategy(), MatchConfig{
		Seed:     9,
		MaxTurns: 25,
		Config:   battle.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("RunMatch: %v", err)
	}
	if res.Turns < 1 {
		t.Errorf("match length %d", res.Turns)
	}
}
