package bot

import (
	"github.com/unfought/api/pkg/battle"
)

// RandomStrategy deploys randomly and wanders. Its real job is being
// the floor of the ladder and a cheap opponent for tests.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

func (RandomStrategy) Deploy(v *battle.PlayerView) []int {
	return botPowerPerm(v.Config.ForcesPerPlayer)
}

// Plan moves each force to a random passable neighbor (~70%) or holds.
// Forces are processed in id order and claim their destinations so two
// friends never pick the same hex.
func (RandomStrategy) Plan(v *battle.PlayerView) []battle.Order {
	var orders []battle.Order
	claimed := map[battle.Coord]bool{}
	for _, f := range livingOwn(v) {
		if botFloat64() < 0.3 {
			continue
		}
		ns := f.Pos.Neighbors()
		for _, idx := range botPerm(len(ns)) {
			n := ns[idx]
			if !viewPassable(v, n) || claimed[n] || ownForceAt(v, n) {
				continue
			}
			if _, enemy := enemyForceAt(v, n); enemy {
				continue
			}
			claimed[n] = true
			orders = append(orders, battle.Order{Force: f.ID, Type: battle.OrderMove, Target: n})
			break
		}
	}
	return orders
}
