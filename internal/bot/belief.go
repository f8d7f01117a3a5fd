package bot

import (
	"math"
	"sort"

	"github.com/unfought/api/pkg/battle"
)

// Belief tracks what a player can infer about the enemy's hidden power
// assignment. The representation is the full joint distribution: the
// set of still-admissible permutations, uniformly weighted. Filtering
// one force's possibilities automatically renormalizes every other
// force's marginal, because powers are drawn from a shared pool; five
// independent per-force filters would get that propagation wrong.
//
// Truthful observations can never empty the set. An empty set means a
// caller fed contradictory intel and is a bug upstream; Consistent
// exposes it.
type Belief struct {
	forceIDs []int   // enemy force ids, ascending
	perms    [][]int // perms[i][j] = power of forceIDs[j] in world i
}

// NewBelief starts from total ignorance: every permutation of
// 1..len(forceIDs) is admissible.
func NewBelief(forceIDs []int) *Belief {
	ids := append([]int(nil), forceIDs...)
	sort.Ints(ids)
	b := &Belief{forceIDs: ids}
	b.perms = allPermutations(len(ids))
	return b
}

func allPermutations(n int) [][]int {
	vals := make([]int, n)
	for i := range vals {
		vals[i] = i + 1
	}
	var out [][]int
	var rec func(cur []int, rest []int)
	rec = func(cur []int, rest []int) {
		if len(rest) == 0 {
			out = append(out, append([]int(nil), cur...))
			return
		}
		for i, v := range rest {
			next := make([]int, 0, len(rest)-1)
			next = append(next, rest[:i]...)
			next = append(next, rest[i+1:]...)
			rec(append(cur, v), next)
		}
	}
	rec(nil, vals)
	return out
}

func (b *Belief) slot(forceID int) int {
	for i, id := range b.forceIDs {
		if id == forceID {
			return i
		}
	}
	return -1
}

func (b *Belief) filter(keep func(world []int) bool) {
	kept := b.perms[:0]
	for _, w := range b.perms {
		if keep(w) {
			kept = append(kept, w)
		}
	}
	b.perms = kept
}

// ObserveExact keeps only worlds where the force has the given power.
func (b *Belief) ObserveExact(forceID, power int) {
	s := b.slot(forceID)
	if s < 0 {
		return
	}
	b.filter(func(w []int) bool { return w[s] == power })
}

// ObserveBand keeps only worlds where the force's power falls in the
// band. Bands from scouts are truthful, so this is a hard filter.
func (b *Belief) ObserveBand(forceID int, band battle.Band) {
	s := b.slot(forceID)
	if s < 0 {
		return
	}
	b.filter(func(w []int) bool { return band.Contains(w[s]) })
}

// ObserveIntel applies a player's whole intel map. It is idempotent,
// so calling it with the cumulative view every turn is fine.
func (b *Belief) ObserveIntel(intel map[int]battle.Intel) {
	ids := make([]int, 0, len(intel))
	for id := range intel {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		in := intel[id]
		if in.Exact != 0 {
			b.ObserveExact(id, in.Exact)
		} else if in.Band != "" {
			b.ObserveBand(id, in.Band)
		}
	}
}

// Consistent reports whether any world remains admissible.
func (b *Belief) Consistent() bool {
	return len(b.perms) > 0
}

// WorldCount is the number of admissible permutations.
func (b *Belief) WorldCount() int {
	return len(b.perms)
}

// Marginal returns the probability of each power value for a force,
// counted over admissible worlds.
func (b *Belief) Marginal(forceID int) map[int]float64 {
	out := map[int]float64{}
	s := b.slot(forceID)
	if s < 0 || len(b.perms) == 0 {
		return out
	}
	for _, w := range b.perms {
		out[w[s]]++
	}
	total := float64(len(b.perms))
	for k := range out {
		out[k] /= total
	}
	return out
}

// Marginals returns every force's marginal, for telemetry.
func (b *Belief) Marginals() map[int]map[int]float64 {
	out := map[int]map[int]float64{}
	for _, id := range b.forceIDs {
		out[id] = b.Marginal(id)
	}
	return out
}

// SovereignProb is the probability that a force is the enemy sovereign.
func (b *Belief) SovereignProb(forceID int) float64 {
	return b.Marginal(forceID)[1]
}

// ExpectedPower is the mean power of a force under the belief.
func (b *Belief) ExpectedPower(forceID int) float64 {
	var sum float64
	for power, p := range b.Marginal(forceID) {
		sum += float64(power) * p
	}
	return sum
}

// Entropy measures remaining uncertainty about one force, in bits.
// Zero means its power is pinned down.
func (b *Belief) Entropy(forceID int) float64 {
	var h float64
	for _, p := range b.Marginal(forceID) {
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}

// Worlds returns copies of the admissible assignments as forceID to
// power maps.
func (b *Belief) Worlds() []map[int]int {
	out := make([]map[int]int, 0, len(b.perms))
	for _, w := range b.perms {
		m := make(map[int]int, len(w))
		for i, id := range b.forceIDs {
			m[id] = w[i]
		}
		out = append(out, m)
	}
	return out
}

// SampleWorlds draws up to n worlds. When the admissible set already
// fits the budget it is returned whole, making the search exhaustive.
func (b *Belief) SampleWorlds(n int) []map[int]int {
	worlds := b.Worlds()
	if len(worlds) <= n {
		return worlds
	}
	botShuffle(len(worlds), func(i, j int) { worlds[i], worlds[j] = worlds[j], worlds[i] })
	return worlds[:n]
}
