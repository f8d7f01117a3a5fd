package battle

import (
	"fmt"
	"sort"
)

// Turn resolution. Both players' batches resolve simultaneously in a
// fixed pipeline: reset markers, validate and pay, fortify, ambush,
// movement with combat, scouts, then upkeep. Every stage walks orders
// in ascending force id, so the game RNG is consumed in the same
// sequence for the same inputs.

// combatTrigger records a pending fight found during movement.
type combatTrigger struct {
	attacker int
	defender int
	hex      Coord
	charge   bool
}

// ResolveTurn runs Execute and Upkeep for one turn. Batches should
// have passed ValidateOrders; any order that is stale anyway (for
// example a scout whose target died to an earlier stage) is rejected
// individually with a logged event rather than failing the turn.
func ResolveTurn(gs *GameState, orders map[PlayerID][]Order) error {
	if gs.Over {
		return fmt.Errorf("game is over")
	}
	if gs.Phase != PhasePlan {
		return fmt.Errorf("cannot resolve from phase %s", gs.Phase)
	}
	gs.Phase = PhaseExecute

	for i := range gs.Forces {
		f := &gs.Forces[i]
		f.Fortified = false
		f.Ambushing = false
		f.Charging = false
	}

	accepted := acceptOrders(gs, orders)

	for _, ao := range accepted {
		if ao.order.Type == OrderFortify {
			f := gs.Force(ao.order.Force)
			f.Fortified = true
			gs.logEvent(Event{Type: EventFortified, Player: f.Owner, Force: f.ID})
		}
	}
	for _, ao := range accepted {
		if ao.order.Type == OrderAmbush {
			f := gs.Force(ao.order.Force)
			f.Ambushing = true
			gs.logEvent(Event{Type: EventAmbushSet, Player: f.Owner, Force: f.ID, Private: f.Owner})
		}
	}

	triggers := applyMovement(gs, accepted)
	for _, tr := range triggers {
		resolveCombat(gs, tr)
	}

	resolveScouts(gs, accepted)

	gs.Phase = PhaseUpkeep
	gs.runUpkeep()
	return nil
}

type acceptedOrder struct {
	player PlayerID
	order  Order
}

// acceptOrders re-checks each order individually, charges its Shih
// cost, and returns the surviving orders sorted by force id. Rejected
// orders are logged and cost nothing.
func acceptOrders(gs *GameState, orders map[PlayerID][]Order) []acceptedOrder {
	var out []acceptedOrder
	for _, p := range playerOrder {
		ps := gs.Players[p]
		seen := map[int]bool{}
		for _, o := range orders[p] {
			if err := checkSingleOrder(gs, p, o, seen); err != nil {
				gs.logEvent(Event{
					Type: EventOrderRejected, Player: p, Force: o.Force,
					Detail: err.Error(), Private: p,
				})
				continue
			}
			cost := gs.Config.OrderCost(o.Type)
			if cost > ps.Shih {
				gs.logEvent(Event{
					Type: EventOrderRejected, Player: p, Force: o.Force,
					Detail: "insufficient shih", Private: p,
				})
				continue
			}
			ps.Shih -= cost
			seen[o.Force] = true
			out = append(out, acceptedOrder{player: p, order: o})
		}
		gs.logEvent(Event{Type: EventOrdersAccepted, Player: p, Amount: countAccepted(out, p)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order.Force < out[j].order.Force })
	return out
}

func countAccepted(orders []acceptedOrder, p PlayerID) int {
	n := 0
	for _, ao := range orders {
		if ao.player == p {
			n++
		}
	}
	return n
}

func checkSingleOrder(gs *GameState, p PlayerID, o Order, seen map[int]bool) error {
	f := gs.Force(o.Force)
	if f == nil || f.Owner != p {
		return fmt.Errorf("no such force")
	}
	if !f.Alive {
		return fmt.Errorf("force is eliminated")
	}
	if seen[o.Force] {
		return fmt.Errorf("duplicate order for force")
	}
	if !f.Supplied && o.Type != OrderMove {
		return fmt.Errorf("out-of-supply force can only move")
	}
	switch o.Type {
	case OrderMove:
		return validateMove(gs, f, o)
	case OrderCharge:
		return validateCharge(gs, f, o)
	case OrderScout:
		return validateScout(gs, f, o)
	case OrderFortify, OrderAmbush:
		return nil
	default:
		return fmt.Errorf("unknown order type")
	}
}

// applyMovement walks Move and Charge orders in force-id order. A
// mover whose target is empty steps in; a target held by an enemy
// (including one that arrived earlier this stage) queues a combat; a
// target held by a friend blocks the move.
func applyMovement(gs *GameState, accepted []acceptedOrder) []combatTrigger {
	var triggers []combatTrigger
	for _, ao := range accepted {
		o := ao.order
		if o.Type != OrderMove && o.Type != OrderCharge {
			continue
		}
		f := gs.Force(o.Force)
		if !f.Alive {
			continue
		}
		if o.Type == OrderCharge {
			f.Charging = true
		}

		occ := gs.ForceAt(o.Target)
		switch {
		case occ == nil:
			from := f.Pos
			f.Pos = o.Target
			gs.logEvent(Event{
				Type: EventMoved, Player: f.Owner, Force: f.ID,
				From: coordPtr(from), To: coordPtr(o.Target),
			})
		case occ.Owner == f.Owner:
			gs.logEvent(Event{
				Type: EventMoveBlocked, Player: f.Owner, Force: f.ID,
				To: coordPtr(o.Target), Private: f.Owner,
			})
		default:
			triggers = append(triggers, combatTrigger{
				attacker: f.ID,
				defender: occ.ID,
				hex:      o.Target,
				charge:   o.Type == OrderCharge,
			})
		}
	}
	return triggers
}

// resolveCombat fights one trigger. Two variance draws are consumed,
// attacker first, even when a combatant died to an earlier combat (so
// the stream stays aligned across replays with identical inputs).
func resolveCombat(gs *GameState, tr combatTrigger) {
	attVar := gs.Rand.IntRange(gs.Config.VarianceMin, gs.Config.VarianceMax)
	defVar := gs.Rand.IntRange(gs.Config.VarianceMin, gs.Config.VarianceMax)

	att := gs.Force(tr.attacker)
	def := gs.Force(tr.defender)
	if !att.Alive || !def.Alive || def.Pos != tr.hex {
		return
	}

	attEff := effectivePower(gs, att, false, tr.charge) + attVar
	defEff := effectivePower(gs, def, true, false) + defVar

	revealForce(gs, att)
	revealForce(gs, def)

	switch {
	case attEff > defEff:
		gs.logEvent(combatEvent(gs, att, def, tr.hex, attEff, defEff, "attacker wins"))
		loserOut(gs, def, att, tr.hex)
		if gs.ForceAt(tr.hex) == nil {
			from := att.Pos
			att.Pos = tr.hex
			gs.logEvent(Event{
				Type: EventMoved, Player: att.Owner, Force: att.ID,
				From: coordPtr(from), To: coordPtr(tr.hex),
			})
		}
	case defEff > attEff:
		gs.logEvent(combatEvent(gs, att, def, tr.hex, attEff, defEff, "defender wins"))
		// A losing attacker falls back to where it stands; it only
		// dies when the power gap is past saving.
		if gap(att, def) > gs.Config.RetreatThreshold {
			eliminate(gs, att)
		}
	default:
		// Stalemate: the defender holds, the attacker stays put.
		gs.logEvent(combatEvent(gs, att, def, tr.hex, attEff, defEff, "stalemate"))
	}
}

func combatEvent(gs *GameState, att, def *Force, hex Coord, attEff, defEff int, outcome string) Event {
	return Event{
		Type: EventCombat, Player: att.Owner, Force: att.ID, Target: def.ID,
		To:     coordPtr(hex),
		Detail: fmt.Sprintf("%s (%d vs %d)", outcome, attEff, defEff),
	}
}

// effectivePower sums the base power and situational bonuses, without
// variance. Charge counts only for the attacker, ambush, terrain and
// sovereign defense only for the defender.
func effectivePower(gs *GameState, f *Force, defender bool, charging bool) int {
	cfg := gs.Config
	power := f.Power
	if f.Fortified {
		power += cfg.FortifyBonus
	}
	if defender && f.Ambushing {
		power += cfg.AmbushBonus
	}
	if !defender && charging {
		power += cfg.ChargeBonus
	}
	if defender && gs.Board.TerrainAt(f.Pos) == Difficult {
		power += cfg.TerrainDefenseBonus
	}
	if defender && f.IsSovereign() {
		power += cfg.SovereignDefenseBonus
	}
	power += supportBonus(gs, f)
	return power
}

// supportBonus counts living allies adjacent to the force, capped.
func supportBonus(gs *GameState, f *Force) int {
	support := 0
	for _, n := range f.Pos.Neighbors() {
		ally := gs.ForceAt(n)
		if ally != nil && ally.Owner == f.Owner {
			support += gs.Config.SupportBonus
		}
	}
	return min(support, gs.Config.SupportCap)
}

func gap(a, b *Force) int {
	return abs(a.Power - b.Power)
}

// loserOut handles a defeated defender: retreat when the power gap is
// small and an escape hex exists, elimination otherwise.
func loserOut(gs *GameState, loser, winner *Force, hex Coord) {
	if gap(winner, loser) <= gs.Config.RetreatThreshold {
		if to, ok := retreatHex(gs, loser, hex); ok {
			from := loser.Pos
			loser.Pos = to
			gs.logEvent(Event{
				Type: EventRetreated, Player: loser.Owner, Force: loser.ID,
				From: coordPtr(from), To: coordPtr(to),
			})
			return
		}
	}
	eliminate(gs, loser)
}

// retreatHex picks the escape hex: empty, on the board, not scorched,
// closest to the loser's position, ties broken by lowest (q,r).
func retreatHex(gs *GameState, loser *Force, hex Coord) (Coord, bool) {
	var best Coord
	bestDist := -1
	for _, n := range hex.Neighbors() {
		if !gs.Board.InBounds(n) || gs.Board.TerrainAt(n) == Scorched {
			continue
		}
		if gs.ForceAt(n) != nil {
			continue
		}
		d := n.Distance(loser.Pos)
		if bestDist == -1 || d < bestDist || (d == bestDist && n.Less(best)) {
			best, bestDist = n, d
		}
	}
	return best, bestDist != -1
}

func eliminate(gs *GameState, f *Force) {
	f.Alive = false
	gs.logEvent(Event{Type: EventEliminated, Player: f.Owner, Force: f.ID, To: coordPtr(f.Pos)})
}

// revealForce makes a combatant's power permanent public knowledge.
func revealForce(gs *GameState, f *Force) {
	if f.Revealed {
		return
	}
	f.Revealed = true
	enemy := gs.Players[Opponent(f.Owner)]
	enemy.Intel[f.ID] = Intel{Exact: f.Power, Band: BandOf(f.Power)}
	gs.logEvent(Event{Type: EventRevealed, Player: f.Owner, Force: f.ID, Power: f.Power})
}

// resolveScouts runs Scout orders last, in force-id order. Each scout
// consumes one accuracy draw; a hit yields the exact power, a miss the
// truthful band. Results are private to the scouting player.
func resolveScouts(gs *GameState, accepted []acceptedOrder) {
	for _, ao := range accepted {
		o := ao.order
		if o.Type != OrderScout {
			continue
		}
		roll := gs.Rand.Float64()

		scout := gs.Force(o.Force)
		tgt := gs.Force(o.TargetForce)
		if scout == nil || !scout.Alive || tgt == nil || !tgt.Alive {
			continue
		}
		ps := gs.Players[ao.player]
		if roll < gs.Config.ScoutAccuracy {
			ps.Intel[tgt.ID] = Intel{Exact: tgt.Power, Band: BandOf(tgt.Power)}
			gs.logEvent(Event{
				Type: EventScouted, Player: ao.player, Force: scout.ID,
				Target: tgt.ID, Power: tgt.Power, Private: ao.player,
			})
		} else {
			if cur, ok := ps.Intel[tgt.ID]; !ok || cur.Exact == 0 {
				ps.Intel[tgt.ID] = Intel{Band: BandOf(tgt.Power)}
			}
			gs.logEvent(Event{
				Type: EventScouted, Player: ao.player, Force: scout.ID,
				Target: tgt.ID, Band: BandOf(tgt.Power), Private: ao.player,
			})
		}
	}
}
