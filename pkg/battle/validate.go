package battle

import "fmt"

// ValidationError reports a single bad order. A batch containing any
// bad order is rejected as a whole.
type ValidationError struct {
	Order   Order
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order (%s): %s", e.Order.Describe(), e.Message)
}

func invalid(o Order, format string, args ...any) *ValidationError {
	return &ValidationError{Order: o, Message: fmt.Sprintf(format, args...)}
}

// ValidateOrders checks a player's whole batch against the current
// state: phase, ownership, duplicates, supply restrictions, cumulative
// Shih, and per-order-type rules. It returns the first problem found
// and nothing is applied.
func ValidateOrders(gs *GameState, p PlayerID, orders []Order) error {
	if gs.Over {
		return fmt.Errorf("game is over")
	}
	if gs.Phase != PhasePlan {
		return fmt.Errorf("orders only accepted during plan, phase is %s", gs.Phase)
	}
	ps, ok := gs.Players[p]
	if !ok {
		return fmt.Errorf("unknown player %q", p)
	}

	seen := map[int]bool{}
	totalCost := 0
	for _, o := range orders {
		f := gs.Force(o.Force)
		if f == nil {
			return invalid(o, "no such force")
		}
		if f.Owner != p {
			return invalid(o, "force belongs to the opponent")
		}
		if !f.Alive {
			return invalid(o, "force is eliminated")
		}
		if seen[o.Force] {
			return invalid(o, "duplicate order for force")
		}
		seen[o.Force] = true

		if !f.Supplied && o.Type != OrderMove {
			return invalid(o, "out-of-supply force can only move")
		}

		totalCost += gs.Config.OrderCost(o.Type)

		var err error
		switch o.Type {
		case OrderMove:
			err = validateMove(gs, f, o)
		case OrderCharge:
			err = validateCharge(gs, f, o)
		case OrderScout:
			err = validateScout(gs, f, o)
		case OrderFortify, OrderAmbush:
			// No target to check.
		default:
			err = invalid(o, "unknown order type")
		}
		if err != nil {
			return err
		}
	}

	if totalCost > ps.Shih {
		return fmt.Errorf("orders cost %d shih, player %s has %d", totalCost, p, ps.Shih)
	}
	return nil
}

func validateDestination(gs *GameState, f *Force, o Order) error {
	if !gs.Board.InBounds(o.Target) {
		return invalid(o, "target off the board")
	}
	if gs.Board.TerrainAt(o.Target) == Scorched {
		return invalid(o, "target hex is scorched")
	}
	if occ := gs.ForceAt(o.Target); occ != nil && occ.Owner == f.Owner {
		return invalid(o, "target hex held by a friendly force")
	}
	return nil
}

func validateMove(gs *GameState, f *Force, o Order) error {
	if err := validateDestination(gs, f, o); err != nil {
		return err
	}
	if f.Pos.Distance(o.Target) != 1 {
		return invalid(o, "move target not adjacent")
	}
	return nil
}

func validateCharge(gs *GameState, f *Force, o Order) error {
	if err := validateDestination(gs, f, o); err != nil {
		return err
	}
	d := f.Pos.Distance(o.Target)
	if d < 1 || d > 2 {
		return invalid(o, "charge target must be 1 or 2 hexes away")
	}
	if d == 2 && !hasChargeLane(gs, f.Pos, o.Target) {
		return invalid(o, "no clear lane for a 2-hex charge")
	}
	return nil
}

// hasChargeLane looks for an intermediate hex adjacent to both ends
// that a charging force could pass through: on the board, not
// scorched, not occupied.
func hasChargeLane(gs *GameState, from, to Coord) bool {
	for _, n := range from.Neighbors() {
		if !n.Adjacent(to) {
			continue
		}
		if !gs.Board.InBounds(n) || gs.Board.TerrainAt(n) == Scorched {
			continue
		}
		if gs.ForceAt(n) != nil {
			continue
		}
		return true
	}
	return false
}

func validateScout(gs *GameState, f *Force, o Order) error {
	tgt := gs.Force(o.TargetForce)
	if tgt == nil {
		return invalid(o, "no such scout target")
	}
	if !tgt.Alive {
		return invalid(o, "scout target is eliminated")
	}
	if tgt.Owner == f.Owner {
		return invalid(o, "cannot scout a friendly force")
	}
	if f.Pos.Distance(tgt.Pos) > gs.Config.ScoutRange {
		return invalid(o, "scout target out of range")
	}
	return nil
}
