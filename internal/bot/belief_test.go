package bot

import (
	"math"
	"testing"

	"github.com/unfought/api/pkg/battle"
)

func newTestBelief() *Belief {
	return NewBelief([]int{6, 7, 8, 9, 10})
}

func TestBelief_StartsFullyUncertain(t *testing.T) {
	b := newTestBelief()
	if b.WorldCount() != 120 {
		t.Fatalf("initial worlds = %d, want 5! = 120", b.WorldCount())
	}
	m := b.Marginal(6)
	for power := 1; power <= 5; power++ {
		if math.Abs(m[power]-0.2) > 1e-9 {
			t.Errorf("prior marginal[%d] = %v, want 0.2", power, m[power])
		}
	}
	if h := b.Entropy(6); math.Abs(h-math.Log2(5)) > 1e-9 {
		t.Errorf("prior entropy = %v, want log2(5)", h)
	}
}

func TestBelief_ExactObservationPropagates(t *testing.T) {
	b := newTestBelief()
	b.ObserveExact(7, 5)

	if b.WorldCount() != 24 {
		t.Fatalf("worlds after exact reveal = %d, want 4! = 24", b.WorldCount())
	}
	if p := b.Marginal(7)[5]; p != 1 {
		t.Errorf("revealed force marginal[5] = %v, want 1", p)
	}
	if b.Entropy(7) != 0 {
		t.Error("revealed force should have zero entropy")
	}

	// The shared pool: no other force can be power 5 anymore, and the
	// rest of their mass renormalizes to 0.25 each.
	for _, id := range []int{6, 8, 9, 10} {
		m := b.Marginal(id)
		if m[5] != 0 {
			t.Errorf("force %d marginal[5] = %v, want 0 after the reveal", id, m[5])
		}
		for power := 1; power <= 4; power++ {
			if math.Abs(m[power]-0.25) > 1e-9 {
				t.Errorf("force %d marginal[%d] = %v, want 0.25", id, power, m[power])
			}
		}
	}
}

func TestBelief_BandObservation(t *testing.T) {
	b := newTestBelief()
	b.ObserveBand(6, battle.BandLow)

	if b.WorldCount() != 48 {
		t.Fatalf("worlds after low band = %d, want 2*4! = 48", b.WorldCount())
	}
	m := b.Marginal(6)
	if math.Abs(m[1]-0.5) > 1e-9 || math.Abs(m[2]-0.5) > 1e-9 {
		t.Errorf("low band marginal = %v, want 0.5/0.5 over powers 1 and 2", m)
	}
	if m[3] != 0 || m[4] != 0 || m[5] != 0 {
		t.Error("low band must exclude powers 3..5")
	}
}

func TestBelief_JointConstraintAcrossBands(t *testing.T) {
	b := newTestBelief()
	// Two forces both scouted low: together they own powers 1 and 2,
	// so nobody else can be the sovereign.
	b.ObserveBand(6, battle.BandLow)
	b.ObserveBand(7, battle.BandLow)

	for _, id := range []int{8, 9, 10} {
		if p := b.SovereignProb(id); p != 0 {
			t.Errorf("force %d sovereign prob = %v, want 0", id, p)
		}
	}
	if p := b.SovereignProb(6); math.Abs(p-0.5) > 1e-9 {
		t.Errorf("force 6 sovereign prob = %v, want 0.5", p)
	}
}

func TestBelief_ObserveIntelIdempotent(t *testing.T) {
	b := newTestBelief()
	intel := map[int]battle.Intel{
		6: {Exact: 3, Band: battle.BandMid},
		8: {Band: battle.BandHigh},
	}
	b.ObserveIntel(intel)
	count := b.WorldCount()
	b.ObserveIntel(intel)
	if b.WorldCount() != count {
		t.Errorf("reapplying the same intel changed worlds from %d to %d", count, b.WorldCount())
	}
	if !b.Consistent() {
		t.Fatal("consistent intel emptied the belief")
	}
}

func TestBelief_ContradictionDetected(t *testing.T) {
	b := newTestBelief()
	b.ObserveExact(6, 1)
	b.ObserveExact(6, 2)
	if b.Consistent() {
		t.Error("contradictory exact reveals must empty the belief")
	}
}

func TestBelief_ExpectedPower(t *testing.T) {
	b := newTestBelief()
	if e := b.ExpectedPower(6); math.Abs(e-3.0) > 1e-9 {
		t.Errorf("prior expected power = %v, want 3", e)
	}
	b.ObserveExact(6, 4)
	if e := b.ExpectedPower(6); e != 4 {
		t.Errorf("expected power after reveal = %v, want 4", e)
	}
}

func TestBelief_SampleWorlds(t *testing.T) {
	b := newTestBelief()
	b.ObserveExact(6, 1)
	b.ObserveExact(7, 2)
	b.ObserveExact(8, 3)
	// 2 worlds remain; a bigger budget returns them all.
	worlds := b.SampleWorlds(10)
	if len(worlds) != 2 {
		t.Fatalf("sampled %d worlds, want the full set of 2", len(worlds))
	}
	for _, w := range worlds {
		if w[6] != 1 || w[7] != 2 || w[8] != 3 {
			t.Errorf("world %v violates the observations", w)
		}
		if !((w[9] == 4 && w[10] == 5) || (w[9] == 5 && w[10] == 4)) {
			t.Errorf("world %v is not a permutation", w)
		}
	}

	SeedBotRng(1)
	defer ResetBotRng()
	capped := newTestBelief().SampleWorlds(7)
	if len(capped) != 7 {
		t.Errorf("sampled %d worlds, want the budget of 7", len(capped))
	}
}
