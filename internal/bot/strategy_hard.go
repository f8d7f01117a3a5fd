package bot

import (
	"github.com/unfought/api/pkg/battle"
)

// BeliefStrategy is the probabilistic tier. It carries a permutation
// belief over the enemy's hidden powers, feeds every piece of intel
// into it, scouts wherever uncertainty is highest, and fights on
// expected values instead of worst cases.
type BeliefStrategy struct {
	belief *Belief
}

func NewBeliefStrategy() *BeliefStrategy {
	return &BeliefStrategy{}
}

func (*BeliefStrategy) Name() string { return "belief" }

func (*BeliefStrategy) Deploy(v *battle.PlayerView) []int {
	return guardedDeploy(v.Config.ForcesPerPlayer)
}

// Beliefs exposes the marginals for telemetry.
func (s *BeliefStrategy) Beliefs() map[int]map[int]float64 {
	if s.belief == nil {
		return map[int]map[int]float64{}
	}
	return s.belief.Marginals()
}

// enemyForceIDs derives the opponent's force ids from the seating:
// forces are numbered 1..n for p1 and n+1..2n for p2.
func enemyForceIDs(v *battle.PlayerView) []int {
	n := v.Config.ForcesPerPlayer
	base := 0
	if v.Player == battle.P1 {
		base = n
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = base + i + 1
	}
	return ids
}

func (s *BeliefStrategy) ensureBelief(v *battle.PlayerView) *Belief {
	if s.belief == nil {
		s.belief = NewBelief(enemyForceIDs(v))
	}
	s.belief.ObserveIntel(v.Intel)
	return s.belief
}

func (s *BeliefStrategy) Plan(v *battle.PlayerView) []battle.Order {
	b := s.ensureBelief(v)

	var orders []battle.Order
	budget := newBudget(v)
	claimed := map[battle.Coord]bool{}
	scouted := false

	suspect, haveSuspect := s.likelySovereign(v, b)

	for _, f := range livingOwn(v) {
		if f.Power == 1 {
			if o, ok := sovereignOrder(v, f, budget, claimed); ok {
				orders = append(orders, o)
			}
			continue
		}

		// One scout per turn, aimed at the murkiest enemy in range.
		if !scouted && f.Supplied && budget.afford(battle.OrderScout) {
			if target, ok := bestScoutTarget(v, b, f); ok {
				budget.spend(battle.OrderScout)
				orders = append(orders, battle.Order{Force: f.ID, Type: battle.OrderScout, TargetForce: target})
				scouted = true
				continue
			}
		}

		// Fight when the expected margin is in our favor.
		if o, ok := s.attackByExpectation(v, b, f); ok {
			orders = append(orders, o)
			continue
		}

		goal := advanceGoal(v, f.Pos)
		if haveSuspect {
			goal = suspect
		}
		if !f.Supplied {
			if sov, ok := ownSovereign(v); ok {
				goal = sov.Pos
			}
		}
		if step, ok := stepToward(v, f.Pos, goal, claimed); ok {
			claimed[step] = true
			orders = append(orders, battle.Order{Force: f.ID, Type: battle.OrderMove, Target: step})
		}
	}
	return orders
}

// bestScoutTarget picks the visible enemy in scout range with the most
// entropy left. Enemies already pinned down are not worth a draw.
func bestScoutTarget(v *battle.PlayerView, b *Belief, f battle.OwnForce) (int, bool) {
	bestID := 0
	bestH := 0.5 // below this, scouting buys too little
	for _, e := range enemiesWithin(v, f.Pos, v.Config.ScoutRange) {
		if h := b.Entropy(e.ID); h > bestH {
			bestID, bestH = e.ID, h
		}
	}
	return bestID, bestID != 0
}

// attackByExpectation assaults an adjacent enemy whose expected power
// under the belief sits clearly below the attacker's.
func (s *BeliefStrategy) attackByExpectation(v *battle.PlayerView, b *Belief, f battle.OwnForce) (battle.Order, bool) {
	for _, n := range f.Pos.Neighbors() {
		e, ok := enemyForceAt(v, n)
		if !ok {
			continue
		}
		if b.ExpectedPower(e.ID) < float64(f.Power)-0.5 {
			return battle.Order{Force: f.ID, Type: battle.OrderMove, Target: n}, true
		}
	}
	return battle.Order{}, false
}

// likelySovereign returns the position of the visible enemy most
// likely to be the sovereign, once the belief leans far enough.
func (s *BeliefStrategy) likelySovereign(v *battle.PlayerView, b *Belief) (battle.Coord, bool) {
	var best battle.Coord
	bestP := 0.4
	found := false
	for _, e := range v.EnemyForces {
		if p := b.SovereignProb(e.ID); p > bestP {
			best, bestP, found = e.Pos, p, true
		}
	}
	return best, found
}
