package battle

import "testing"

func fogTestState() *GameState {
	gs := testState(DefaultConfig())
	addForce(gs, 1, P1, 1, Coord{1, 3})
	addForce(gs, 2, P1, 4, Coord{2, 3})
	addForce(gs, 6, P2, 1, Coord{6, 3}) // far from every p1 force
	addForce(gs, 7, P2, 3, Coord{3, 3}) // one hex from force 2
	return gs
}

func TestView_OwnForcesComplete(t *testing.T) {
	v := View(fogTestState(), P1)
	if len(v.Forces) != 2 {
		t.Fatalf("own forces = %d, want 2", len(v.Forces))
	}
	for _, f := range v.Forces {
		if f.Power == 0 {
			t.Errorf("own force %d missing its power", f.ID)
		}
	}
}

func TestView_EnemyVisibility(t *testing.T) {
	v := View(fogTestState(), P1)
	if len(v.EnemyForces) != 1 {
		t.Fatalf("visible enemies = %d, want only the nearby one", len(v.EnemyForces))
	}
	ef := v.EnemyForces[0]
	if ef.ID != 7 {
		t.Errorf("visible enemy id = %d, want 7", ef.ID)
	}
	if ef.Power != 0 || ef.Band != "" {
		t.Errorf("unscouted enemy should show no power, got %+v", ef)
	}
}

func TestView_IntelShowsThrough(t *testing.T) {
	gs := fogTestState()
	gs.Players[P1].Intel[7] = Intel{Band: BandMid}
	v := View(gs, P1)
	if v.EnemyForces[0].Band != BandMid {
		t.Error("band intel should appear on the visible enemy")
	}

	gs.Force(7).Revealed = true
	gs.Players[P1].Intel[7] = Intel{Exact: 3, Band: BandMid}
	v = View(gs, P1)
	if v.EnemyForces[0].Power != 3 {
		t.Error("revealed enemy should show its exact power")
	}
}

func TestView_HexesLimitedToSight(t *testing.T) {
	gs := fogTestState()
	v := View(gs, P1)

	seen := map[Coord]bool{}
	for _, h := range v.Hexes {
		seen[h.Pos] = true
	}
	if !seen[Coord{0, 3}] {
		t.Error("hex next to an own force should be visible")
	}
	if seen[Coord{6, 0}] {
		t.Error("hex far from every own force should be hidden")
	}
	for _, h := range v.Hexes {
		near := false
		for _, f := range gs.LivingForcesOf(P1) {
			if f.Pos.Distance(h.Pos) <= gs.Config.VisibilityRange {
				near = true
				break
			}
		}
		if !near {
			t.Errorf("hex %s leaked outside the sight radius", h.Pos)
		}
	}
}

func TestView_PublicScalars(t *testing.T) {
	gs := fogTestState()
	gs.Players[P2].Shih = 6
	gs.Players[P2].DominationTurns = 2
	v := View(gs, P1)
	if v.EnemyShih != 6 || v.EnemyDomination != 2 || v.EnemyAlive != 2 {
		t.Errorf("public enemy scalars wrong: %+v", v)
	}
}

func TestView_DoesNotMutateState(t *testing.T) {
	gs := fogTestState()
	v := View(gs, P1)
	v.Intel[99] = Intel{Exact: 5}
	if _, ok := gs.Players[P1].Intel[99]; ok {
		t.Error("view intel must be a copy")
	}
}

func TestEventsFor_PrivateFiltering(t *testing.T) {
	gs := fogTestState()
	gs.logEvent(Event{Type: EventMoved, Player: P1, Force: 2})
	gs.logEvent(Event{Type: EventScouted, Player: P1, Force: 2, Target: 7, Private: P1})

	p1Events := gs.EventsFor(P1)
	p2Events := gs.EventsFor(P2)
	if len(p1Events) != 2 {
		t.Errorf("p1 sees %d events, want 2", len(p1Events))
	}
	if len(p2Events) != 1 {
		t.Errorf("p2 sees %d events, want 1 (scout result is private)", len(p2Events))
	}
}
