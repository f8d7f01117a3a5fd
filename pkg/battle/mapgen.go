package battle

// Map generation. Boards are random but constrained: the Contentious
// objectives sit in the middle of the board, Difficult terrain is
// scattered without walling either side off from the objectives, and
// both sides face roughly equal marching distances.

const (
	mapGenAttempts  = 50
	difficultMin    = 4
	difficultMax    = 10
	contentiousHexs = 3
)

// GenerateBoard builds a board and the two start clusters from the
// given stream. The same stream state always yields the same board.
func GenerateBoard(rng *Stream, cfg Config) (*Board, map[PlayerID][]Coord) {
	starts := startClusters(cfg)

	for attempt := 0; attempt < mapGenAttempts; attempt++ {
		b := NewBoard(cfg.BoardWidth, cfg.BoardHeight)
		placeContentious(b, rng)
		placeDifficult(b, rng, starts)
		if boardFair(b, starts) {
			return b, starts
		}
	}

	// Scatter never converged on a fair layout. Fall back to an open
	// board with objectives only, which is trivially fair.
	b := NewBoard(cfg.BoardWidth, cfg.BoardHeight)
	placeContentious(b, rng)
	return b, starts
}

// startClusters puts each player's forces in a column on their edge,
// centered vertically.
func startClusters(cfg Config) map[PlayerID][]Coord {
	n := cfg.ForcesPerPlayer
	top := (cfg.BoardHeight - n) / 2
	starts := map[PlayerID][]Coord{}
	for i := 0; i < n; i++ {
		starts[P1] = append(starts[P1], Coord{0, top + i})
		starts[P2] = append(starts[P2], Coord{cfg.BoardWidth - 1, top + i})
	}
	return starts
}

// placeContentious picks distinct hexes in the 3x3 zone around the
// board center.
func placeContentious(b *Board, rng *Stream) {
	center := b.Center()
	var zone []Coord
	for dq := -1; dq <= 1; dq++ {
		for dr := -1; dr <= 1; dr++ {
			c := Coord{center.Q + dq, center.R + dr}
			if b.InBounds(c) {
				zone = append(zone, c)
			}
		}
	}
	rng.Shuffle(len(zone), func(i, j int) { zone[i], zone[j] = zone[j], zone[i] })
	for i := 0; i < contentiousHexs && i < len(zone); i++ {
		b.SetTerrain(zone[i], Contentious)
	}
}

func placeDifficult(b *Board, rng *Stream, starts map[PlayerID][]Coord) {
	occupied := map[Coord]bool{}
	for _, p := range playerOrder {
		for _, c := range starts[p] {
			occupied[c] = true
		}
	}

	var candidates []Coord
	for q := 0; q < b.Width; q++ {
		for r := 0; r < b.Height; r++ {
			c := Coord{q, r}
			if b.TerrainAt(c) == Open && !occupied[c] {
				candidates = append(candidates, c)
			}
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	count := rng.IntRange(difficultMin, difficultMax)
	for i := 0; i < count && i < len(candidates); i++ {
		b.SetTerrain(candidates[i], Difficult)
	}
}

// boardFair checks that every start hex can reach every objective and
// that the two sides' cheapest marches to the objectives differ by at
// most one step. Difficult hexes cost double to cross.
func boardFair(b *Board, starts map[PlayerID][]Coord) bool {
	objectives := b.ContentiousHexes()
	cost := map[PlayerID]int{}
	for _, p := range playerOrder {
		total := 0
		for _, start := range starts[p] {
			dist := marchCosts(b, start)
			for _, obj := range objectives {
				d, ok := dist[obj]
				if !ok {
					return false
				}
				total += d
			}
		}
		cost[p] = total
	}
	return abs(cost[P1]-cost[P2]) <= 1
}

// marchCosts runs Dijkstra from one hex over the whole board. Scorched
// hexes (none at generation time) are impassable, Difficult costs 2,
// everything else 1.
func marchCosts(b *Board, from Coord) map[Coord]int {
	dist := map[Coord]int{from: 0}
	frontier := []Coord{from}
	for len(frontier) > 0 {
		// Pick the cheapest frontier hex; the board is small enough
		// that a linear scan beats a heap.
		best := 0
		for i := 1; i < len(frontier); i++ {
			if dist[frontier[i]] < dist[frontier[best]] {
				best = i
			}
		}
		cur := frontier[best]
		frontier = append(frontier[:best], frontier[best+1:]...)

		for _, n := range cur.Neighbors() {
			if !b.InBounds(n) || b.TerrainAt(n) == Scorched {
				continue
			}
			step := 1
			if b.TerrainAt(n) == Difficult {
				step = 2
			}
			nd := dist[cur] + step
			if old, seen := dist[n]; !seen || nd < old {
				dist[n] = nd
				frontier = append(frontier, n)
			}
		}
	}
	return dist
}
