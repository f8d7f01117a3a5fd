package bot

import (
	"github.com/unfought/api/pkg/battle"
)

// PatternStrategy is the stateful tier. It remembers where enemy
// forces were on previous turns and scores how timidly each one plays;
// a force that keeps backing away from contact is probably shielding
// its real value, and the most timid of all is probably the sovereign.
type PatternStrategy struct {
	lastSeen map[int]battle.Coord
	timidity map[int]int
}

func NewPatternStrategy() *PatternStrategy {
	return &PatternStrategy{
		lastSeen: map[int]battle.Coord{},
		timidity: map[int]int{},
	}
}

func (*PatternStrategy) Name() string { return "pattern" }

func (*PatternStrategy) Deploy(v *battle.PlayerView) []int {
	return guardedDeploy(v.Config.ForcesPerPlayer)
}

func (s *PatternStrategy) Plan(v *battle.PlayerView) []battle.Order {
	s.observe(v)

	var orders []battle.Order
	budget := newBudget(v)
	claimed := map[battle.Coord]bool{}

	suspect, haveSuspect := s.suspectSovereign(v)

	for _, f := range livingOwn(v) {
		if f.Power == 1 {
			if o, ok := sovereignOrder(v, f, budget, claimed); ok {
				orders = append(orders, o)
			}
			continue
		}

		if o, ok := attackWeakNeighbor(v, f); ok {
			orders = append(orders, o)
			continue
		}

		// Charge the suspected sovereign when it is in reach.
		if haveSuspect && budget.afford(battle.OrderCharge) && f.Supplied {
			d := f.Pos.Distance(suspect)
			if d >= 1 && d <= 2 {
				if e, ok := enemyForceAt(v, suspect); ok && (e.Power == 0 || e.Power < f.Power) {
					budget.spend(battle.OrderCharge)
					orders = append(orders, battle.Order{Force: f.ID, Type: battle.OrderCharge, Target: suspect})
					continue
				}
			}
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

// observe updates the movement book from the current view: enemies
// that retreated relative to our closest force gain timidity, ones
// that closed in lose it.
func (s *PatternStrategy) observe(v *battle.PlayerView) {
	own := livingOwn(v)
	for _, e := range v.EnemyForces {
		prev, seen := s.lastSeen[e.ID]
		s.lastSeen[e.ID] = e.Pos
		if !seen || prev == e.Pos || len(own) == 0 {
			continue
		}
		nearest := own[0].Pos
		for _, f := range own[1:] {
			if f.Pos.Distance(e.Pos) < nearest.Distance(e.Pos) {
				nearest = f.Pos
			}
		}
		if e.Pos.Distance(nearest) > prev.Distance(nearest) {
			s.timidity[e.ID]++
		} else {
			s.timidity[e.ID]--
		}
	}
}

// suspectSovereign picks the hunt target: a revealed power-1 force if
// combat ever exposed one, otherwise the most timid enemy on record.
func (s *PatternStrategy) suspectSovereign(v *battle.PlayerView) (battle.Coord, bool) {
	for _, e := range v.EnemyForces {
		if e.Power == 1 {
			return e.Pos, true
		}
	}
	bestID, bestScore := 0, 0
	for id, score := range s.timidity {
		if score > bestScore || (score == bestScore && bestID != 0 && id < bestID) {
			bestID, bestScore = id, score
		}
	}
	if bestID == 0 || bestScore <= 0 {
		return battle.Coord{}, false
	}
	for _, e := range v.EnemyForces {
		if e.ID == bestID {
			return e.Pos, true
		}
	}
	if pos, ok := s.lastSeen[bestID]; ok {
		return pos, true
	}
	return battle.Coord{}, false
}
