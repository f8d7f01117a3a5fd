package battle

// EventType tags entries in the game's append-only event log.
type EventType string

const (
	EventDeployed       EventType = "deployed"
	EventOrdersAccepted EventType = "orders_accepted"
	EventOrderRejected  EventType = "order_rejected"
	EventMoved          EventType = "moved"
	EventMoveBlocked    EventType = "move_blocked"
	EventFortified      EventType = "fortified"
	EventAmbushSet      EventType = "ambush_set"
	EventCombat         EventType = "combat"
	EventRevealed       EventType = "revealed"
	EventRetreated      EventType = "retreated"
	EventEliminated     EventType = "eliminated"
	EventScouted        EventType = "scouted"
	EventScorched       EventType = "scorched"
	EventForceScorched  EventType = "force_scorched"
	EventIncome         EventType = "income"
	EventDomination     EventType = "domination"
	EventConceded       EventType = "conceded"
	EventVictory        EventType = "victory"
)

// Event is one entry in the game log. Fields beyond Turn and Type are
// populated per event type; unused fields stay zero and are omitted on
// the wire. Private, when set, names the only player allowed to see
// the event (scout results are private, everything else is public).
type Event struct {
	Turn    int       `json:"turn"`
	Type    EventType `json:"type"`
	Player  PlayerID  `json:"player,omitempty"`
	Force   int       `json:"force,omitempty"`
	Target  int       `json:"target,omitempty"`
	From    *Coord    `json:"from,omitempty"`
	To      *Coord    `json:"to,omitempty"`
	Power   int       `json:"power,omitempty"`
	Band    Band      `json:"band,omitempty"`
	Amount  int       `json:"amount,omitempty"`
	Detail  string    `json:"detail,omitempty"`
	Private PlayerID  `json:"private,omitempty"`
}

// VisibleTo reports whether viewer may see this event.
func (e Event) VisibleTo(viewer PlayerID) bool {
	return e.Private == "" || e.Private == viewer
}

func (gs *GameState) logEvent(e Event) {
	e.Turn = gs.Turn
	gs.Events = append(gs.Events, e)
}

// EventsFor returns the slice of log events viewer may see.
func (gs *GameState) EventsFor(viewer PlayerID) []Event {
	out := make([]Event, 0, len(gs.Events))
	for _, e := range gs.Events {
		if e.VisibleTo(viewer) {
			out = append(out, e)
		}
	}
	return out
}

func coordPtr(c Coord) *Coord {
	cc := c
	return &cc
}
