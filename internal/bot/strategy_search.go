package bot

import (
	"time"

	"github.com/unfought/api/pkg/battle"
)

// SearchStrategy is the top tier: a one-ply lookahead over sampled
// worlds. Each candidate plan is played out against every sampled
// enemy power assignment on a reconstructed state, with a scripted
// stand-in generating the opponent's reply, and the plan with the best
// average evaluation wins. The budget bounds both the number of worlds
// and the wall clock; when it runs out the best plan found so far is
// returned.
type SearchStrategy struct {
	belief   *Belief
	lastSeen map[int]battle.Coord
	budget   SearchBudget
}

// SearchBudget caps one Plan call.
type SearchBudget struct {
	MaxWorlds   int
	MaxDuration time.Duration
}

func DefaultSearchBudget() SearchBudget {
	return SearchBudget{MaxWorlds: 24, MaxDuration: 150 * time.Millisecond}
}

func NewSearchStrategy(budget SearchBudget) *SearchStrategy {
	if budget.MaxWorlds <= 0 {
		budget.MaxWorlds = 1
	}
	if budget.MaxDuration <= 0 {
		// Zero means no wall-clock cap; the world budget still binds.
		budget.MaxDuration = time.Hour
	}
	return &SearchStrategy{
		lastSeen: map[int]battle.Coord{},
		budget:   budget,
	}
}

func (*SearchStrategy) Name() string { return "search" }

func (*SearchStrategy) Deploy(v *battle.PlayerView) []int {
	return guardedDeploy(v.Config.ForcesPerPlayer)
}

// Beliefs exposes the marginals for telemetry.
func (s *SearchStrategy) Beliefs() map[int]map[int]float64 {
	if s.belief == nil {
		return map[int]map[int]float64{}
	}
	return s.belief.Marginals()
}

func (s *SearchStrategy) Plan(v *battle.PlayerView) []battle.Order {
	if s.belief == nil {
		s.belief = NewBelief(enemyForceIDs(v))
	}
	s.belief.ObserveIntel(v.Intel)
	for _, e := range v.EnemyForces {
		s.lastSeen[e.ID] = e.Pos
	}

	candidates := candidatePlans(v)
	worlds := s.belief.SampleWorlds(s.budget.MaxWorlds)
	if len(worlds) == 0 || len(candidates) == 0 {
		return HeuristicStrategy{}.Plan(v)
	}

	deadline := time.Now().Add(s.budget.MaxDuration)
	standIn := HeuristicStrategy{}

	best := candidates[0]
	bestScore := 0.0
	scored := false

	sim := &battle.GameState{}
	for _, cand := range candidates {
		total := 0.0
		evaluated := 0
		for _, world := range worlds {
			gs := buildWorldState(v, world, s.lastSeen)
			gs.CloneInto(sim)

			oppOrders := standIn.Plan(battle.View(sim, battle.Opponent(v.Player)))
			orders := map[battle.PlayerID][]battle.Order{
				v.Player:                  cand.orders,
				battle.Opponent(v.Player): oppOrders,
			}
			if err := battle.ResolveTurn(sim, orders); err != nil {
				continue
			}
			total += Evaluate(sim, v.Player)
			evaluated++

			if time.Now().After(deadline) {
				break
			}
		}
		if evaluated == 0 {
			continue
		}
		avg := total / float64(evaluated)
		if !scored || avg > bestScore {
			best, bestScore, scored = cand, avg, true
		}
		if time.Now().After(deadline) {
			break
		}
	}
	return best.orders
}

type candidate struct {
	name   string
	orders []battle.Order
}

// candidatePlans builds the whole-turn plans worth comparing: the
// baseline march, an all-in push, and a defensive crouch.
func candidatePlans(v *battle.PlayerView) []candidate {
	return []candidate{
		{name: "baseline", orders: HeuristicStrategy{}.Plan(v)},
		{name: "aggressive", orders: aggressivePlan(v)},
		{name: "defensive", orders: defensivePlan(v)},
	}
}

// aggressivePlan charges anything in reach and closes distance with
// everything else.
func aggressivePlan(v *battle.PlayerView) []battle.Order {
	var orders []battle.Order
	budget := newBudget(v)
	claimed := map[battle.Coord]bool{}

	for _, f := range livingOwn(v) {
		if f.Power == 1 {
			if o, ok := sovereignOrder(v, f, budget, claimed); ok {
				orders = append(orders, o)
			}
			continue
		}

		charged := false
		if f.Supplied && budget.afford(battle.OrderCharge) {
			for _, e := range enemiesWithin(v, f.Pos, 2) {
				d := f.Pos.Distance(e.Pos)
				if d < 1 || d > 2 {
					continue
				}
				budget.spend(battle.OrderCharge)
				orders = append(orders, battle.Order{Force: f.ID, Type: battle.OrderCharge, Target: e.Pos})
				charged = true
				break
			}
		}
		if charged {
			continue
		}

		goal := advanceGoal(v, f.Pos)
		if es := v.EnemyForces; len(es) > 0 {
			nearest := es[0]
			for _, e := range es[1:] {
				if f.Pos.Distance(e.Pos) < f.Pos.Distance(nearest.Pos) {
					nearest = e
				}
			}
			goal = nearest.Pos
		}
		if step, ok := stepToward(v, f.Pos, goal, claimed); ok {
			claimed[step] = true
			orders = append(orders, battle.Order{Force: f.ID, Type: battle.OrderMove, Target: step})
		}
	}
	return orders
}

// defensivePlan digs in: the sovereign fortifies, contact forces set
// ambushes, the rest tighten around the sovereign.
func defensivePlan(v *battle.PlayerView) []battle.Order {
	var orders []battle.Order
	budget := newBudget(v)
	claimed := map[battle.Coord]bool{}
	sov, haveSov := ownSovereign(v)

	if haveSov && budget.afford(battle.OrderFortify) {
		budget.spend(battle.OrderFortify)
		orders = append(orders, battle.Order{Force: sov.ID, Type: battle.OrderFortify})
	}

	for _, f := range livingOwn(v) {
		if f.Power == 1 {
			continue
		}
		if f.Supplied && len(enemiesWithin(v, f.Pos, 1)) > 0 && budget.afford(battle.OrderAmbush) {
			budget.spend(battle.OrderAmbush)
			orders = append(orders, battle.Order{Force: f.ID, Type: battle.OrderAmbush})
			continue
		}
		if haveSov && f.Pos.Distance(sov.Pos) > 2 {
			if step, ok := stepToward(v, f.Pos, sov.Pos, claimed); ok {
				claimed[step] = true
				orders = append(orders, battle.Order{Force: f.ID, Type: battle.OrderMove, Target: step})
			}
		}
	}
	return orders
}
