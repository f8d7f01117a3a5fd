package bot

import (
	"sort"

	"github.com/unfought/api/pkg/battle"
)

// Helpers shared by every tier. All of them work on the fog view only;
// hexes the player cannot see are assumed Open unless the shrink stage
// proves them scorched.

func viewCenter(v *battle.PlayerView) battle.Coord {
	return battle.Coord{Q: v.BoardWidth / 2, R: v.BoardHeight / 2}
}

func viewInBounds(v *battle.PlayerView, c battle.Coord) bool {
	return c.Q >= 0 && c.Q < v.BoardWidth && c.R >= 0 && c.R < v.BoardHeight
}

func viewTerrain(v *battle.PlayerView, c battle.Coord) battle.Terrain {
	for _, h := range v.Hexes {
		if h.Pos == c {
			return h.Terrain
		}
	}
	if c.Distance(viewCenter(v)) > v.ShrinkLimit {
		return battle.Scorched
	}
	return battle.Open
}

func viewPassable(v *battle.PlayerView, c battle.Coord) bool {
	return viewInBounds(v, c) && viewTerrain(v, c) != battle.Scorched
}

func ownForceAt(v *battle.PlayerView, c battle.Coord) bool {
	for _, f := range v.Forces {
		if f.Alive && f.Pos == c {
			return true
		}
	}
	return false
}

func enemyForceAt(v *battle.PlayerView, c battle.Coord) (battle.EnemyForce, bool) {
	for _, e := range v.EnemyForces {
		if e.Pos == c {
			return e, true
		}
	}
	return battle.EnemyForce{}, false
}

func livingOwn(v *battle.PlayerView) []battle.OwnForce {
	var out []battle.OwnForce
	for _, f := range v.Forces {
		if f.Alive {
			out = append(out, f)
		}
	}
	return out
}

func ownSovereign(v *battle.PlayerView) (battle.OwnForce, bool) {
	for _, f := range v.Forces {
		if f.Alive && f.Power == 1 {
			return f, true
		}
	}
	return battle.OwnForce{}, false
}

// visibleObjectives lists Contentious hexes in sight, in (q,r) order.
func visibleObjectives(v *battle.PlayerView) []battle.Coord {
	var out []battle.Coord
	for _, h := range v.Hexes {
		if h.Terrain == battle.Contentious {
			out = append(out, h.Pos)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// advanceGoal picks where a force should head: the nearest visible
// objective, or the board center while none is in sight.
func advanceGoal(v *battle.PlayerView, from battle.Coord) battle.Coord {
	objs := visibleObjectives(v)
	if len(objs) == 0 {
		return viewCenter(v)
	}
	best := objs[0]
	for _, o := range objs[1:] {
		if from.Distance(o) < from.Distance(best) {
			best = o
		}
	}
	return best
}

// stepToward returns the neighbor of from that closes the distance to
// goal, skipping impassable hexes, hexes claimed earlier this plan,
// and friendly occupants. Ties break on the lowest (q,r) so plans stay
// stable between calls.
func stepToward(v *battle.PlayerView, from, goal battle.Coord, claimed map[battle.Coord]bool) (battle.Coord, bool) {
	var best battle.Coord
	bestDist := from.Distance(goal)
	found := false
	for _, n := range from.Neighbors() {
		if !viewPassable(v, n) || claimed[n] || ownForceAt(v, n) {
			continue
		}
		if _, enemy := enemyForceAt(v, n); enemy {
			continue
		}
		d := n.Distance(goal)
		if d < bestDist || (found && d == bestDist && n.Less(best)) {
			best, bestDist, found = n, d, true
		}
	}
	return best, found
}

// planBudget tracks remaining Shih while a plan is assembled.
type planBudget struct {
	shih int
	cfg  battle.Config
}

func newBudget(v *battle.PlayerView) *planBudget {
	return &planBudget{shih: v.Shih, cfg: v.Config}
}

func (b *planBudget) afford(t battle.OrderType) bool {
	return b.cfg.OrderCost(t) <= b.shih
}

func (b *planBudget) spend(t battle.OrderType) {
	b.shih -= b.cfg.OrderCost(t)
}

// guardedDeploy hides the sovereign in the middle of the column and
// shuffles the fighting powers around it.
func guardedDeploy(n int) []int {
	rest := botPerm(n - 1) // 0..n-2, remapped to the powers 2..n below
	out := make([]int, n)
	mid := n / 2
	ri := 0
	for i := range out {
		if i == mid {
			out[i] = 1
			continue
		}
		out[i] = rest[ri] + 2
		ri++
	}
	return out
}

// enemiesWithin lists visible enemies within range of a position.
func enemiesWithin(v *battle.PlayerView, from battle.Coord, r int) []battle.EnemyForce {
	var out []battle.EnemyForce
	for _, e := range v.EnemyForces {
		if from.Distance(e.Pos) <= r {
			out = append(out, e)
		}
	}
	return out
}
