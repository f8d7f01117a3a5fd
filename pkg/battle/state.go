package battle

import (
	"fmt"
	"sort"
)

// PlayerID identifies one of the two sides.
type PlayerID string

const (
	P1 PlayerID = "p1"
	P2 PlayerID = "p2"
)

// playerOrder is the canonical iteration order for anything that
// touches both players. Map iteration is never used for game logic.
var playerOrder = [2]PlayerID{P1, P2}

// Opponent returns the other player.
func Opponent(p PlayerID) PlayerID {
	if p == P1 {
		return P2
	}
	return P1
}

// Terrain classifies a board hex.
type Terrain int

const (
	Open Terrain = iota
	Difficult
	Contentious
	Scorched
)

func (t Terrain) String() string {
	switch t {
	case Open:
		return "open"
	case Difficult:
		return "difficult"
	case Contentious:
		return "contentious"
	case Scorched:
		return "scorched"
	default:
		return "unknown"
	}
}

// Phase is the game's turn phase.
type Phase int

const (
	PhaseDeploy Phase = iota
	PhasePlan
	PhaseExecute
	PhaseUpkeep
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseDeploy:
		return "deploy"
	case PhasePlan:
		return "plan"
	case PhaseExecute:
		return "execute"
	case PhaseUpkeep:
		return "upkeep"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// VictoryKind says how a finished game ended.
type VictoryKind string

const (
	VictorySovereignCapture  VictoryKind = "sovereign_capture"
	VictoryElimination       VictoryKind = "elimination"
	VictoryDomination        VictoryKind = "domination"
	VictoryConcession        VictoryKind = "concession"
	VictoryMutualDestruction VictoryKind = "mutual_destruction"
)

// Band is a coarse power estimate from an inaccurate scout.
type Band string

const (
	BandLow  Band = "low"  // powers 1-2
	BandMid  Band = "mid"  // power 3
	BandHigh Band = "high" // powers 4-5
)

// BandOf maps a base power to its band.
func BandOf(power int) Band {
	switch {
	case power <= 2:
		return BandLow
	case power == 3:
		return BandMid
	default:
		return BandHigh
	}
}

// Contains reports whether a power value falls in the band.
func (b Band) Contains(power int) bool {
	return BandOf(power) == b
}

// Force is one piece on the board. Power stays hidden from the
// opponent until revealed by combat or an exact scout. The per-turn
// flags reset at the start of every Execute.
type Force struct {
	ID       int      `json:"id"`
	Owner    PlayerID `json:"owner"`
	Power    int      `json:"power"`
	Pos      Coord    `json:"pos"`
	Alive    bool     `json:"alive"`
	Revealed bool     `json:"revealed"`
	Supplied bool     `json:"supplied"`

	Fortified bool `json:"fortified,omitempty"`
	Ambushing bool `json:"ambushing,omitempty"`
	Charging  bool `json:"charging,omitempty"`
}

// IsSovereign reports whether this is the power-1 force. False until
// powers are deployed.
func (f *Force) IsSovereign() bool {
	return f.Power == 1
}

// Intel is one player's private knowledge about an enemy force.
// Exact is 0 when only a band is known.
type Intel struct {
	Exact int  `json:"exact,omitempty"`
	Band  Band `json:"band,omitempty"`
}

// PlayerState is the per-player bookkeeping.
type PlayerState struct {
	Shih            int           `json:"shih"`
	Intel           map[int]Intel `json:"intel"`
	DominationTurns int           `json:"domination_turns"`
	Deployed        bool          `json:"deployed"`
	Conceded        bool          `json:"conceded"`
}

// Board is the hex grid. Cells is indexed [q][r].
type Board struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Cells  [][]Terrain `json:"cells"`
}

// NewBoard returns an all-Open board.
func NewBoard(width, height int) *Board {
	cells := make([][]Terrain, width)
	for q := range cells {
		cells[q] = make([]Terrain, height)
	}
	return &Board{Width: width, Height: height, Cells: cells}
}

func (b *Board) InBounds(c Coord) bool {
	return c.Q >= 0 && c.Q < b.Width && c.R >= 0 && c.R < b.Height
}

func (b *Board) TerrainAt(c Coord) Terrain {
	return b.Cells[c.Q][c.R]
}

func (b *Board) SetTerrain(c Coord, t Terrain) {
	b.Cells[c.Q][c.R] = t
}

// Center is the board's middle hex, the anchor of the shrink.
func (b *Board) Center() Coord {
	return Coord{b.Width / 2, b.Height / 2}
}

// ContentiousHexes lists the Contentious cells in (q,r) order.
func (b *Board) ContentiousHexes() []Coord {
	var out []Coord
	for q := 0; q < b.Width; q++ {
		for r := 0; r < b.Height; r++ {
			if b.Cells[q][r] == Contentious {
				out = append(out, Coord{q, r})
			}
		}
	}
	return out
}

func (b *Board) clone() *Board {
	cells := make([][]Terrain, b.Width)
	for q := range cells {
		cells[q] = make([]Terrain, b.Height)
		copy(cells[q], b.Cells[q])
	}
	return &Board{Width: b.Width, Height: b.Height, Cells: cells}
}

// GameState is the complete authoritative state of one game. It is a
// plain serializable struct; the engine functions in this package are
// the only things that should mutate it.
type GameState struct {
	Config Config `json:"config"`
	Seed   int64  `json:"seed"`

	Turn  int   `json:"turn"`
	Phase Phase `json:"phase"`

	Board  *Board  `json:"board"`
	Forces []Force `json:"forces"`

	Players map[PlayerID]*PlayerState `json:"players"`

	ShrinkStage int `json:"shrink_stage"`

	Rand *Stream `json:"rand"`

	Over    bool        `json:"over"`
	Winner  PlayerID    `json:"winner,omitempty"`
	Victory VictoryKind `json:"victory,omitempty"`

	Events []Event `json:"events"`
}

// NewGame creates a game at the Deploy phase with a generated map.
// Force powers are zero until both players deploy.
func NewGame(seed int64, cfg Config) *GameState {
	rng := NewStream(seed)
	board, starts := GenerateBoard(rng, cfg)

	gs := &GameState{
		Config:  cfg,
		Seed:    seed,
		Turn:    1,
		Phase:   PhaseDeploy,
		Board:   board,
		Rand:    rng,
		Players: map[PlayerID]*PlayerState{},
	}
	for _, p := range playerOrder {
		gs.Players[p] = &PlayerState{
			Shih:  cfg.ShihStart,
			Intel: map[int]Intel{},
		}
	}

	id := 1
	for _, p := range playerOrder {
		for _, pos := range starts[p] {
			gs.Forces = append(gs.Forces, Force{
				ID:    id,
				Owner: p,
				Pos:   pos,
				Alive: true,
			})
			id++
		}
	}
	return gs
}

// Force returns the force with the given id, dead or alive, or nil.
func (gs *GameState) Force(id int) *Force {
	for i := range gs.Forces {
		if gs.Forces[i].ID == id {
			return &gs.Forces[i]
		}
	}
	return nil
}

// ForceAt returns the living force on a hex, or nil.
func (gs *GameState) ForceAt(c Coord) *Force {
	for i := range gs.Forces {
		f := &gs.Forces[i]
		if f.Alive && f.Pos == c {
			return f
		}
	}
	return nil
}

// ForcesOf returns pointers to a player's forces in id order,
// including dead ones.
func (gs *GameState) ForcesOf(p PlayerID) []*Force {
	var out []*Force
	for i := range gs.Forces {
		if gs.Forces[i].Owner == p {
			out = append(out, &gs.Forces[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LivingForcesOf returns a player's living forces in id order.
func (gs *GameState) LivingForcesOf(p PlayerID) []*Force {
	var out []*Force
	for _, f := range gs.ForcesOf(p) {
		if f.Alive {
			out = append(out, f)
		}
	}
	return out
}

// Sovereign returns the player's power-1 force, or nil before deploy.
func (gs *GameState) Sovereign(p PlayerID) *Force {
	for i := range gs.Forces {
		f := &gs.Forces[i]
		if f.Owner == p && f.Power == 1 {
			return f
		}
	}
	return nil
}

// Deploy assigns a player's hidden powers. perm must be a permutation
// of 1..ForcesPerPlayer; it is applied to the player's forces in id
// order. When both players have deployed the game enters Plan.
func (gs *GameState) Deploy(p PlayerID, perm []int) error {
	if gs.Phase != PhaseDeploy {
		return fmt.Errorf("deploy in phase %s", gs.Phase)
	}
	ps, ok := gs.Players[p]
	if !ok {
		return fmt.Errorf("unknown player %q", p)
	}
	if ps.Deployed {
		return fmt.Errorf("player %s already deployed", p)
	}
	n := gs.Config.ForcesPerPlayer
	if err := checkPermutation(perm, n); err != nil {
		return err
	}
	forces := gs.ForcesOf(p)
	for i, f := range forces {
		f.Power = perm[i]
	}
	ps.Deployed = true
	gs.logEvent(Event{Type: EventDeployed, Player: p})

	if gs.Players[Opponent(p)].Deployed {
		gs.Phase = PhasePlan
		gs.RecomputeSupply()
	}
	return nil
}

func checkPermutation(perm []int, n int) error {
	if len(perm) != n {
		return fmt.Errorf("deployment needs %d powers, got %d", n, len(perm))
	}
	seen := make([]bool, n+1)
	for _, v := range perm {
		if v < 1 || v > n || seen[v] {
			return fmt.Errorf("deployment is not a permutation of 1..%d", n)
		}
		seen[v] = true
	}
	return nil
}

// Concede ends the game in the opponent's favor.
func (gs *GameState) Concede(p PlayerID) error {
	if gs.Over {
		return fmt.Errorf("game already over")
	}
	if _, ok := gs.Players[p]; !ok {
		return fmt.Errorf("unknown player %q", p)
	}
	gs.Players[p].Conceded = true
	gs.logEvent(Event{Type: EventConceded, Player: p})
	gs.endGame(Opponent(p), VictoryConcession)
	return nil
}

func (gs *GameState) endGame(winner PlayerID, kind VictoryKind) {
	gs.Over = true
	gs.Winner = winner
	gs.Victory = kind
	gs.Phase = PhaseEnded
	gs.logEvent(Event{Type: EventVictory, Player: winner, Detail: string(kind)})
}

// Clone returns a deep copy sharing no memory with the original.
func (gs *GameState) Clone() *GameState {
	c := &GameState{}
	gs.CloneInto(c)
	return c
}

// CloneInto deep-copies gs into dst, reusing dst's allocations where
// capacity allows. Search code calls this in a tight loop.
func (gs *GameState) CloneInto(dst *GameState) {
	dst.Config = gs.Config
	dst.Seed = gs.Seed
	dst.Turn = gs.Turn
	dst.Phase = gs.Phase
	dst.ShrinkStage = gs.ShrinkStage
	dst.Over = gs.Over
	dst.Winner = gs.Winner
	dst.Victory = gs.Victory

	if gs.Board != nil {
		dst.Board = gs.Board.clone()
	} else {
		dst.Board = nil
	}

	if cap(dst.Forces) >= len(gs.Forces) {
		dst.Forces = dst.Forces[:len(gs.Forces)]
	} else {
		dst.Forces = make([]Force, len(gs.Forces))
	}
	copy(dst.Forces, gs.Forces)

	if dst.Players == nil {
		dst.Players = make(map[PlayerID]*PlayerState, len(gs.Players))
	}
	for _, p := range playerOrder {
		src, ok := gs.Players[p]
		if !ok {
			delete(dst.Players, p)
			continue
		}
		cp := *src
		cp.Intel = make(map[int]Intel, len(src.Intel))
		for k, v := range src.Intel {
			cp.Intel[k] = v
		}
		dst.Players[p] = &cp
	}

	if gs.Rand != nil {
		dst.Rand = gs.Rand.Clone()
	} else {
		dst.Rand = nil
	}

	if cap(dst.Events) >= len(gs.Events) {
		dst.Events = dst.Events[:len(gs.Events)]
	} else {
		dst.Events = make([]Event, len(gs.Events))
	}
	copy(dst.Events, gs.Events)
}
