package battle

import "testing"

func TestGenerateBoard_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	b1, _ := GenerateBoard(NewStream(123), cfg)
	b2, _ := GenerateBoard(NewStream(123), cfg)
	for q := 0; q < b1.Width; q++ {
		for r := 0; r < b1.Height; r++ {
			if b1.Cells[q][r] != b2.Cells[q][r] {
				t.Fatalf("boards from the same seed differ at (%d,%d)", q, r)
			}
		}
	}
}

func TestGenerateBoard_Objectives(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		b, _ := GenerateBoard(NewStream(seed), DefaultConfig())
		objs := b.ContentiousHexes()
		if len(objs) != 3 {
			t.Fatalf("seed %d: %d contentious hexes, want 3", seed, len(objs))
		}
		center := b.Center()
		for _, c := range objs {
			if abs(c.Q-center.Q) > 1 || abs(c.R-center.R) > 1 {
				t.Errorf("seed %d: objective %s outside the center zone", seed, c)
			}
		}
	}
}

func TestGenerateBoard_StartClustersClear(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		b, starts := GenerateBoard(NewStream(seed), DefaultConfig())
		if len(starts[P1]) != 5 || len(starts[P2]) != 5 {
			t.Fatalf("seed %d: start clusters %d/%d, want 5/5", seed, len(starts[P1]), len(starts[P2]))
		}
		for _, p := range []PlayerID{P1, P2} {
			for _, c := range starts[p] {
				if !b.InBounds(c) {
					t.Fatalf("seed %d: start %s off board", seed, c)
				}
				if b.TerrainAt(c) != Open {
					t.Errorf("seed %d: start hex %s is %s, want open", seed, c, b.TerrainAt(c))
				}
			}
		}
		if starts[P1][0].Q != 0 || starts[P2][0].Q != b.Width-1 {
			t.Errorf("seed %d: clusters not on opposite edges", seed)
		}
	}
}

func TestGenerateBoard_ObjectivesReachable(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		b, starts := GenerateBoard(NewStream(seed), DefaultConfig())
		for _, p := range []PlayerID{P1, P2} {
			for _, start := range starts[p] {
				costs := marchCosts(b, start)
				for _, obj := range b.ContentiousHexes() {
					if _, ok := costs[obj]; !ok {
						t.Errorf("seed %d: %s cannot reach objective %s", seed, start, obj)
					}
				}
			}
		}
	}
}
