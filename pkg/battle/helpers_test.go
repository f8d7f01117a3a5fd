package battle

import "testing"

// testState builds a bare in-progress game on an open board. Tests
// place forces themselves with addForce.
func testState(cfg Config) *GameState {
	gs := &GameState{
		Config: cfg,
		Seed:   1,
		Turn:   1,
		Phase:  PhasePlan,
		Board:  NewBoard(cfg.BoardWidth, cfg.BoardHeight),
		// Reserve capacity so addForce never reallocates and the
		// pointers it returns stay valid across later adds.
		Forces: make([]Force, 0, 64),
		Rand:   NewStream(1),
		Players: map[PlayerID]*PlayerState{
			P1: {Shih: cfg.ShihStart, Intel: map[int]Intel{}, Deployed: true},
			P2: {Shih: cfg.ShihStart, Intel: map[int]Intel{}, Deployed: true},
		},
	}
	return gs
}

func addForce(gs *GameState, id int, owner PlayerID, power int, pos Coord) *Force {
	gs.Forces = append(gs.Forces, Force{
		ID: id, Owner: owner, Power: power, Pos: pos,
		Alive: true, Supplied: true,
	})
	return &gs.Forces[len(gs.Forces)-1]
}

// fixedCombatConfig removes combat variance so outcomes depend only on
// the bonus arithmetic under test.
func fixedCombatConfig() Config {
	cfg := DefaultConfig()
	cfg.VarianceMin = 0
	cfg.VarianceMax = 0
	return cfg
}

func resolveOrFail(t *testing.T, gs *GameState, orders map[PlayerID][]Order) {
	t.Helper()
	if err := ResolveTurn(gs, orders); err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}
}

func lastEventOfType(gs *GameState, typ EventType) (Event, bool) {
	for i := len(gs.Events) - 1; i >= 0; i-- {
		if gs.Events[i].Type == typ {
			return gs.Events[i], true
		}
	}
	return Event{}, false
}
