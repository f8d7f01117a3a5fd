package battle

// Supply lines. A force is in supply when it can be reached from its
// side's Sovereign through a chain of living friendly forces, each
// link spanning at most SupplyLinkRange hexes, using at most
// SupplyMaxHops links. An out-of-supply force can still Move but takes
// no other orders.

// RecomputeSupply refreshes the Supplied flag on every force. Called
// when the game enters Plan and after anything that moves or kills
// forces mid-resolution.
func (gs *GameState) RecomputeSupply() {
	for _, p := range playerOrder {
		gs.recomputeSupplyFor(p)
	}
}

func (gs *GameState) recomputeSupplyFor(p PlayerID) {
	forces := gs.ForcesOf(p)
	for _, f := range forces {
		f.Supplied = false
	}

	sov := gs.Sovereign(p)
	if sov == nil || !sov.Alive {
		return
	}

	// BFS over the friendly force graph, bounded by hop count.
	hops := map[int]int{sov.ID: 0}
	sov.Supplied = true
	queue := []*Force{sov}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if hops[cur.ID] >= gs.Config.SupplyMaxHops {
			continue
		}
		for _, f := range forces {
			if !f.Alive || f.Supplied {
				continue
			}
			if cur.Pos.Distance(f.Pos) <= gs.Config.SupplyLinkRange {
				f.Supplied = true
				hops[f.ID] = hops[cur.ID] + 1
				queue = append(queue, f)
			}
		}
	}
}
