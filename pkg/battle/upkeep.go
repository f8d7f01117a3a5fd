package battle

// Upkeep closes out a turn: victory from combat, the noose, income,
// domination, then the next Plan phase.

func (gs *GameState) runUpkeep() {
	if gs.checkVictory() {
		return
	}

	if gs.Config.ShrinkInterval > 0 && gs.Turn%gs.Config.ShrinkInterval == 0 {
		gs.tightenNoose()
		if gs.checkVictory() {
			return
		}
	}

	gs.collectIncome()
	if gs.trackDomination() {
		return
	}

	gs.Turn++
	gs.Phase = PhasePlan
	gs.RecomputeSupply()
}

// checkVictory inspects the board for a finished game. Sovereign
// capture outranks elimination; simultaneous loss is a draw.
func (gs *GameState) checkVictory() bool {
	if gs.Over {
		return true
	}
	sovDead := map[PlayerID]bool{}
	wiped := map[PlayerID]bool{}
	for _, p := range playerOrder {
		sov := gs.Sovereign(p)
		sovDead[p] = sov == nil || !sov.Alive
		wiped[p] = len(gs.LivingForcesOf(p)) == 0
	}

	switch {
	case sovDead[P1] && sovDead[P2]:
		gs.endGame("", VictoryMutualDestruction)
	case sovDead[P1]:
		gs.endGame(P2, VictorySovereignCapture)
	case sovDead[P2]:
		gs.endGame(P1, VictorySovereignCapture)
	case wiped[P1] && wiped[P2]:
		gs.endGame("", VictoryMutualDestruction)
	case wiped[P1]:
		gs.endGame(P2, VictoryElimination)
	case wiped[P2]:
		gs.endGame(P1, VictoryElimination)
	default:
		return false
	}
	return true
}

// tightenNoose advances the shrink stage and scorches every hex
// outside the new limit. Forces caught outside die on the spot.
func (gs *GameState) tightenNoose() {
	gs.ShrinkStage++
	limit := gs.Config.ShrinkLimit(gs.ShrinkStage)
	center := gs.Board.Center()

	scorched := 0
	for q := 0; q < gs.Board.Width; q++ {
		for r := 0; r < gs.Board.Height; r++ {
			c := Coord{q, r}
			if c.Distance(center) <= limit || gs.Board.TerrainAt(c) == Scorched {
				continue
			}
			gs.Board.SetTerrain(c, Scorched)
			scorched++
			if f := gs.ForceAt(c); f != nil {
				f.Alive = false
				gs.logEvent(Event{
					Type: EventForceScorched, Player: f.Owner, Force: f.ID,
					To: coordPtr(c),
				})
			}
		}
	}
	if scorched > 0 {
		gs.logEvent(Event{Type: EventScorched, Amount: scorched, Detail: "noose tightens"})
	}
}

// collectIncome pays each player base income plus a bonus for every
// Contentious hex one of their living forces stands on, clamped to
// the Shih cap.
func (gs *GameState) collectIncome() {
	objectives := gs.Board.ContentiousHexes()
	for _, p := range playerOrder {
		held := 0
		for _, obj := range objectives {
			if f := gs.ForceAt(obj); f != nil && f.Owner == p {
				held++
			}
		}
		income := gs.Config.IncomeBase + held*gs.Config.IncomePerContentious
		ps := gs.Players[p]
		ps.Shih = min(ps.Shih+income, gs.Config.ShihMax)
		gs.logEvent(Event{Type: EventIncome, Player: p, Amount: income})
	}
}

// trackDomination advances or resets each player's streak. A hex
// counts as controlled only when the occupier has no living enemy
// adjacent to it. Returns true when the game ends here.
func (gs *GameState) trackDomination() bool {
	objectives := gs.Board.ContentiousHexes()
	for _, p := range playerOrder {
		controlled := 0
		for _, obj := range objectives {
			if gs.controlsHex(p, obj) {
				controlled++
			}
		}
		ps := gs.Players[p]
		if controlled >= gs.Config.DominationHexes {
			ps.DominationTurns++
			gs.logEvent(Event{Type: EventDomination, Player: p, Amount: ps.DominationTurns})
			if ps.DominationTurns >= gs.Config.DominationTurns {
				gs.endGame(p, VictoryDomination)
				return true
			}
		} else {
			ps.DominationTurns = 0
		}
	}
	return false
}

// controlsHex reports uncontested occupation: a living force of p on
// the hex and no living enemy on any neighbor.
func (gs *GameState) controlsHex(p PlayerID, c Coord) bool {
	f := gs.ForceAt(c)
	if f == nil || f.Owner != p {
		return false
	}
	for _, n := range c.Neighbors() {
		if e := gs.ForceAt(n); e != nil && e.Owner != p {
			return false
		}
	}
	return true
}
