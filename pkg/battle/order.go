package battle

import "fmt"

// OrderType identifies the kind of order given to a force.
type OrderType int

const (
	OrderMove OrderType = iota
	OrderCharge
	OrderScout
	OrderFortify
	OrderAmbush
)

func (t OrderType) String() string {
	switch t {
	case OrderMove:
		return "move"
	case OrderCharge:
		return "charge"
	case OrderScout:
		return "scout"
	case OrderFortify:
		return "fortify"
	case OrderAmbush:
		return "ambush"
	default:
		return "unknown"
	}
}

// ParseOrderType converts the wire name of an order type.
func ParseOrderType(s string) (OrderType, error) {
	switch s {
	case "move":
		return OrderMove, nil
	case "charge":
		return OrderCharge, nil
	case "scout":
		return OrderScout, nil
	case "fortify":
		return OrderFortify, nil
	case "ambush":
		return OrderAmbush, nil
	default:
		return 0, fmt.Errorf("unknown order type %q", s)
	}
}

// Order is a single instruction for one force during the Plan phase.
// Target is used by Move and Charge; TargetForce by Scout. Fortify and
// Ambush take no target.
type Order struct {
	Force       int       `json:"force"`
	Type        OrderType `json:"type"`
	Target      Coord     `json:"target,omitzero"`
	TargetForce int       `json:"target_force,omitempty"`
}

// Describe renders an order for logs and error messages.
func (o Order) Describe() string {
	switch o.Type {
	case OrderMove, OrderCharge:
		return fmt.Sprintf("force %d %s %s", o.Force, o.Type, o.Target)
	case OrderScout:
		return fmt.Sprintf("force %d scout force %d", o.Force, o.TargetForce)
	default:
		return fmt.Sprintf("force %d %s", o.Force, o.Type)
	}
}
