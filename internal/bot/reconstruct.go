package bot

import (
	"github.com/unfought/api/pkg/battle"
)

// World reconstruction for the search tier. A candidate plan cannot be
// scored against the real state without cheating, so the searcher
// rebuilds a complete state from what the view actually contains plus
// one sampled power assignment. Enemies currently out of sight are
// placed at their last known position; never-seen ones are assumed
// still near their home edge.

func buildWorldState(v *battle.PlayerView, world map[int]int, lastSeen map[int]battle.Coord) *battle.GameState {
	cfg := v.Config
	board := battle.NewBoard(v.BoardWidth, v.BoardHeight)
	center := battle.Coord{Q: v.BoardWidth / 2, R: v.BoardHeight / 2}
	for q := 0; q < board.Width; q++ {
		for r := 0; r < board.Height; r++ {
			c := battle.Coord{Q: q, R: r}
			if c.Distance(center) > v.ShrinkLimit {
				board.SetTerrain(c, battle.Scorched)
			}
		}
	}
	for _, h := range v.Hexes {
		board.SetTerrain(h.Pos, h.Terrain)
	}

	me := v.Player
	opp := battle.Opponent(me)

	gs := &battle.GameState{
		Config:      cfg,
		Turn:        v.Turn,
		Phase:       battle.PhasePlan,
		Board:       board,
		ShrinkStage: v.ShrinkStage,
		Rand:        battle.NewStream(int64(botIntn(1 << 30))),
		Players: map[battle.PlayerID]*battle.PlayerState{
			me: {
				Shih:            v.Shih,
				DominationTurns: v.DominationTurns,
				Intel:           copyIntel(v.Intel),
				Deployed:        true,
			},
			opp: {
				Shih:            v.EnemyShih,
				DominationTurns: v.EnemyDomination,
				Intel:           map[int]battle.Intel{},
				Deployed:        true,
			},
		},
	}

	occupied := map[battle.Coord]bool{}
	for _, f := range v.Forces {
		gs.Forces = append(gs.Forces, battle.Force{
			ID: f.ID, Owner: me, Power: f.Power, Pos: f.Pos,
			Alive: f.Alive, Revealed: f.Revealed,
			Fortified: f.Fortified, Ambushing: f.Ambushing,
		})
		if f.Alive {
			occupied[f.Pos] = true
		}
	}

	visible := map[int]battle.Coord{}
	for _, e := range v.EnemyForces {
		visible[e.ID] = e.Pos
	}

	placed := 0
	for _, id := range enemyForceIDs(v) {
		if placed >= v.EnemyAlive {
			break
		}
		pos, ok := visible[id]
		if !ok {
			pos, ok = lastSeen[id]
			if !ok {
				pos = homeEdgeGuess(v, me)
			}
		}
		pos, ok = nearestFree(board, occupied, pos)
		if !ok {
			continue
		}
		occupied[pos] = true
		gs.Forces = append(gs.Forces, battle.Force{
			ID: id, Owner: opp, Power: world[id], Pos: pos, Alive: true,
		})
		placed++
	}

	gs.RecomputeSupply()
	return gs
}

func copyIntel(in map[int]battle.Intel) map[int]battle.Intel {
	out := make(map[int]battle.Intel, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// homeEdgeGuess is the middle of the opponent's start edge.
func homeEdgeGuess(v *battle.PlayerView, me battle.PlayerID) battle.Coord {
	q := 0
	if me == battle.P1 {
		q = v.BoardWidth - 1
	}
	return battle.Coord{Q: q, R: v.BoardHeight / 2}
}

// nearestFree returns pos, or the closest unoccupied passable hex when
// pos is taken. Search rings grow outward; ties go to the lowest (q,r).
func nearestFree(board *battle.Board, occupied map[battle.Coord]bool, pos battle.Coord) (battle.Coord, bool) {
	free := func(c battle.Coord) bool {
		return board.InBounds(c) && board.TerrainAt(c) != battle.Scorched && !occupied[c]
	}
	if free(pos) {
		return pos, true
	}
	for radius := 1; radius < board.Width+board.Height; radius++ {
		var best battle.Coord
		found := false
		for q := 0; q < board.Width; q++ {
			for r := 0; r < board.Height; r++ {
				c := battle.Coord{Q: q, R: r}
				if c.Distance(pos) != radius || !free(c) {
					continue
				}
				if !found || c.Less(best) {
					best, found = c, true
				}
			}
		}
		if found {
			return best, true
		}
	}
	return battle.Coord{}, false
}
