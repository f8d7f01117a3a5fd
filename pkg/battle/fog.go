package battle

import "sort"

// Fog of war. View projects the authoritative state into what one
// player is allowed to see; everything that leaves the engine for a
// player goes through it. The projection is pure and never mutates
// the state.

// OwnForce is the viewer's complete knowledge of their own piece.
type OwnForce struct {
	ID        int   `json:"id"`
	Power     int   `json:"power"`
	Pos       Coord `json:"pos"`
	Alive     bool  `json:"alive"`
	Supplied  bool  `json:"supplied"`
	Revealed  bool  `json:"revealed"`
	Fortified bool  `json:"fortified,omitempty"`
	Ambushing bool  `json:"ambushing,omitempty"`
}

// EnemyForce is a spotted enemy piece. Power is 0 and Band empty when
// nothing is known about its strength.
type EnemyForce struct {
	ID       int   `json:"id"`
	Pos      Coord `json:"pos"`
	Power    int   `json:"power,omitempty"`
	Band     Band  `json:"band,omitempty"`
	Revealed bool  `json:"revealed,omitempty"`
}

// VisibleHex is one board cell inside the viewer's sight.
type VisibleHex struct {
	Pos     Coord   `json:"pos"`
	Terrain Terrain `json:"terrain"`
}

// PlayerView is the fog-filtered game state for one player.
type PlayerView struct {
	Player PlayerID `json:"player"`
	Turn   int      `json:"turn"`
	Phase  string   `json:"phase"`

	BoardWidth  int `json:"board_width"`
	BoardHeight int `json:"board_height"`
	ShrinkStage int `json:"shrink_stage"`
	ShrinkLimit int `json:"shrink_limit"`

	Shih            int `json:"shih"`
	DominationTurns int `json:"domination_turns"`

	EnemyShih       int `json:"enemy_shih"`
	EnemyDomination int `json:"enemy_domination_turns"`
	EnemyAlive      int `json:"enemy_alive"`

	Forces      []OwnForce    `json:"forces"`
	EnemyForces []EnemyForce  `json:"enemy_forces"`
	Hexes       []VisibleHex  `json:"hexes"`
	Intel       map[int]Intel `json:"intel"`

	Over    bool        `json:"over"`
	Winner  PlayerID    `json:"winner,omitempty"`
	Victory VictoryKind `json:"victory,omitempty"`

	Config Config `json:"config"`
}

// View builds viewer's fog-of-war projection of the state.
func View(gs *GameState, viewer PlayerID) *PlayerView {
	ps := gs.Players[viewer]
	enemy := gs.Players[Opponent(viewer)]

	v := &PlayerView{
		Player:          viewer,
		Turn:            gs.Turn,
		Phase:           gs.Phase.String(),
		BoardWidth:      gs.Board.Width,
		BoardHeight:     gs.Board.Height,
		ShrinkStage:     gs.ShrinkStage,
		ShrinkLimit:     gs.Config.ShrinkLimit(gs.ShrinkStage),
		Shih:            ps.Shih,
		DominationTurns: ps.DominationTurns,
		EnemyShih:       enemy.Shih,
		EnemyDomination: enemy.DominationTurns,
		EnemyAlive:      len(gs.LivingForcesOf(Opponent(viewer))),
		Intel:           map[int]Intel{},
		Over:            gs.Over,
		Winner:          gs.Winner,
		Victory:         gs.Victory,
		Config:          gs.Config,
	}
	for k, in := range ps.Intel {
		v.Intel[k] = in
	}

	visible := visibleHexes(gs, viewer)
	for _, h := range sortedCoords(visible) {
		v.Hexes = append(v.Hexes, VisibleHex{Pos: h, Terrain: gs.Board.TerrainAt(h)})
	}

	for _, f := range gs.ForcesOf(viewer) {
		v.Forces = append(v.Forces, OwnForce{
			ID: f.ID, Power: f.Power, Pos: f.Pos, Alive: f.Alive,
			Supplied: f.Supplied, Revealed: f.Revealed,
			Fortified: f.Fortified, Ambushing: f.Ambushing,
		})
	}

	for _, f := range gs.LivingForcesOf(Opponent(viewer)) {
		if !visible[f.Pos] {
			continue
		}
		ef := EnemyForce{ID: f.ID, Pos: f.Pos, Revealed: f.Revealed}
		if in, ok := ps.Intel[f.ID]; ok {
			ef.Power = in.Exact
			ef.Band = in.Band
		}
		v.EnemyForces = append(v.EnemyForces, ef)
	}
	return v
}

// visibleHexes is the union of sight disks around the viewer's living
// forces.
func visibleHexes(gs *GameState, viewer PlayerID) map[Coord]bool {
	out := map[Coord]bool{}
	radius := gs.Config.VisibilityRange
	for _, f := range gs.LivingForcesOf(viewer) {
		for q := 0; q < gs.Board.Width; q++ {
			for r := 0; r < gs.Board.Height; r++ {
				c := Coord{q, r}
				if f.Pos.Distance(c) <= radius {
					out[c] = true
				}
			}
		}
	}
	return out
}

func sortedCoords(set map[Coord]bool) []Coord {
	out := make([]Coord, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
