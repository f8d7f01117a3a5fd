package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/unfought/api/internal/bot"
	"github.com/unfought/api/pkg/battle"
)

// arena pits two bot tiers against each other straight on the engine,
// with no server in the loop. Used for ladder comparisons between
// strategy tiers and as a soak test for the resolution rules.

type matchRecord struct {
	Game    int                `json:"game"`
	Seed    int64              `json:"seed"`
	Winner  battle.PlayerID    `json:"winner,omitempty"`
	Victory battle.VictoryKind `json:"victory,omitempty"`
	Turns   int                `json:"turns"`
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		p1Tier   string
		p2Tier   string
		numGames int
		workers  int
		maxTurns int
		seed     int64
		jsonOut  bool
	)

	flag.StringVar(&p1Tier, "p1", "easy", "Tier for seat p1 (random, easy, medium, hard, expert)")
	flag.StringVar(&p2Tier, "p2", "easy", "Tier for seat p2")
	flag.IntVar(&numGames, "n", 1, "Number of games to run")
	flag.IntVar(&workers, "workers", 1, "Concurrency (parallel games)")
	flag.IntVar(&maxTurns, "max-turns", 60, "Turn cap before adjudicated draw")
	flag.Int64Var(&seed, "seed", 0, "Base seed (0 = wall clock)")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")

	flag.Parse()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	results := make([]*matchRecord, numGames)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	errCount := 0

	for i := 0; i < numGames; i++ {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			gameSeed := seed + int64(idx)
			mc := bot.MatchConfig{
				Seed:     gameSeed,
				MaxTurns: maxTurns,
				Config:   battle.DefaultConfig(),
			}

			result, err := bot.RunMatch(
				bot.StrategyForDifficulty(p1Tier),
				bot.StrategyForDifficulty(p2Tier),
				mc,
			)
			if err != nil {
				log.Error().Err(err).Int("game", idx+1).Msg("Game failed")
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}

			mu.Lock()
			results[idx] = &matchRecord{
				Game:    idx + 1,
				Seed:    gameSeed,
				Winner:  result.Winner,
				Victory: result.Victory,
				Turns:   result.Turns,
			}
			mu.Unlock()

			log.Info().Int("game", idx+1).Str("winner", string(result.Winner)).
				Str("victory", string(result.Victory)).Int("turns", result.Turns).Msg("Game completed")
		}(i)
	}

	wg.Wait()

	if jsonOut {
		printJSON(results, numGames, errCount)
	} else {
		printSummary(results, p1Tier, p2Tier, errCount)
	}
}

func printSummary(results []*matchRecord, p1Tier, p2Tier string, errCount int) {
	wins := map[battle.PlayerID]int{}
	victories := map[battle.VictoryKind]int{}
	draws := 0
	totalTurns := 0
	completed := 0

	for _, r := range results {
		if r == nil {
			continue
		}
		completed++
		totalTurns += r.Turns
		if r.Winner == "" {
			draws++
			continue
		}
		wins[r.Winner]++
		victories[r.Victory]++
	}

	fmt.Printf("\nResults (%d games):\n", completed)
	if errCount > 0 {
		fmt.Printf("  (%d games failed)\n", errCount)
	}
	fmt.Printf("  p1 (%s): %d wins\n", p1Tier, wins[battle.P1])
	fmt.Printf("  p2 (%s): %d wins\n", p2Tier, wins[battle.P2])
	fmt.Printf("  draws: %d\n", draws)
	if completed > 0 {
		fmt.Printf("  avg turns: %.1f\n", float64(totalTurns)/float64(completed))
	}
	if len(victories) > 0 {
		fmt.Printf("  by victory kind:\n")
		for _, kind := range []battle.VictoryKind{
			battle.VictorySovereignCapture,
			battle.VictoryElimination,
			battle.VictoryDomination,
			battle.VictoryMutualDestruction,
		} {
			if victories[kind] > 0 {
				fmt.Printf("    %-20s %d\n", kind, victories[kind])
			}
		}
	}
}

func printJSON(results []*matchRecord, total, errCount int) {
	out := struct {
		Total   int            `json:"total"`
		Errors  int            `json:"errors"`
		Results []*matchRecord `json:"results"`
	}{
		Total:   total,
		Errors:  errCount,
		Results: results,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
