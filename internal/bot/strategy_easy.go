package bot

import (
	"github.com/unfought/api/pkg/battle"
)

// HeuristicStrategy is the stateless tier: it reacts to the current
// view only, marching on the objectives, keeping the sovereign back,
// and picking fights it can see it should win.
type HeuristicStrategy struct{}

func (HeuristicStrategy) Name() string { return "heuristic" }

func (HeuristicStrategy) Deploy(v *battle.PlayerView) []int {
	return guardedDeploy(v.Config.ForcesPerPlayer)
}

func (HeuristicStrategy) Plan(v *battle.PlayerView) []battle.Order {
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

		// Take an adjacent fight the intel says we win.
		if o, ok := attackWeakNeighbor(v, f); ok {
			orders = append(orders, o)
			continue
		}

		// Out-of-supply forces fall back toward the sovereign; the
		// rest march on the objectives.
		goal := advanceGoal(v, f.Pos)
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

// sovereignOrder keeps the sovereign defensive: fortify under visible
// threat, otherwise stay ahead of the noose.
func sovereignOrder(v *battle.PlayerView, sov battle.OwnForce, budget *planBudget, claimed map[battle.Coord]bool) (battle.Order, bool) {
	if len(enemiesWithin(v, sov.Pos, 2)) > 0 && budget.afford(battle.OrderFortify) {
		budget.spend(battle.OrderFortify)
		return battle.Order{Force: sov.ID, Type: battle.OrderFortify}, true
	}
	center := viewCenter(v)
	if sov.Pos.Distance(center) >= v.ShrinkLimit {
		if step, ok := stepToward(v, sov.Pos, center, claimed); ok {
			claimed[step] = true
			return battle.Order{Force: sov.ID, Type: battle.OrderMove, Target: step}, true
		}
	}
	return battle.Order{}, false
}

// attackWeakNeighbor looks for an adjacent enemy whose known exact
// power is below the attacker's.
func attackWeakNeighbor(v *battle.PlayerView, f battle.OwnForce) (battle.Order, bool) {
	for _, n := range f.Pos.Neighbors() {
		e, ok := enemyForceAt(v, n)
		if !ok || e.Power == 0 || e.Power >= f.Power {
			continue
		}
		return battle.Order{Force: f.ID, Type: battle.OrderMove, Target: n}, true
	}
	return battle.Order{}, false
}
