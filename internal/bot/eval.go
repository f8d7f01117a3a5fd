package bot

import (
	"github.com/unfought/api/pkg/battle"
)

// Position evaluation used by the search tier. Scores are from the
// perspective of p: positive is good for p. The function reads true
// powers, so it must only ever run on simulated worlds where the
// enemy powers were sampled, never on the live state.

const (
	winScore = 1000.0

	weightForces     = 3.0
	weightPowerSum   = 0.5
	weightObjectives = 2.0
	weightDomination = 3.0
	weightSovSafety  = 2.5
	weightIntel      = 0.5
	weightShih       = 0.3

	sovSafetyCap = 4
)

// Evaluate scores a (possibly simulated) state for player p.
func Evaluate(gs *battle.GameState, p battle.PlayerID) float64 {
	opp := battle.Opponent(p)

	if gs.Over {
		switch gs.Winner {
		case p:
			return winScore
		case opp:
			return -winScore
		default:
			return 0 // drawn
		}
	}

	mine := gs.LivingForcesOf(p)
	theirs := gs.LivingForcesOf(opp)

	score := weightForces * float64(len(mine)-len(theirs))
	score += weightPowerSum * float64(powerSum(mine)-powerSum(theirs))
	score += weightObjectives * float64(heldObjectives(gs, p)-heldObjectives(gs, opp))
	score += weightDomination * float64(gs.Players[p].DominationTurns-gs.Players[opp].DominationTurns)
	score += weightSovSafety * float64(sovereignSafety(gs, p)-sovereignSafety(gs, opp))
	score += weightIntel * float64(len(gs.Players[p].Intel)-len(gs.Players[opp].Intel))
	score += weightShih * float64(gs.Players[p].Shih-gs.Players[opp].Shih)
	return score
}

func powerSum(forces []*battle.Force) int {
	sum := 0
	for _, f := range forces {
		sum += f.Power
	}
	return sum
}

func heldObjectives(gs *battle.GameState, p battle.PlayerID) int {
	held := 0
	for _, obj := range gs.Board.ContentiousHexes() {
		if f := gs.ForceAt(obj); f != nil && f.Owner == p {
			held++
		}
	}
	return held
}

// sovereignSafety is the distance from p's sovereign to the nearest
// living enemy, capped: past a few hexes more distance buys nothing.
func sovereignSafety(gs *battle.GameState, p battle.PlayerID) int {
	sov := gs.Sovereign(p)
	if sov == nil || !sov.Alive {
		return 0
	}
	nearest := -1
	for _, e := range gs.LivingForcesOf(battle.Opponent(p)) {
		d := sov.Pos.Distance(e.Pos)
		if nearest == -1 || d < nearest {
			nearest = d
		}
	}
	if nearest == -1 {
		return sovSafetyCap
	}
	return min(nearest, sovSafetyCap)
}
