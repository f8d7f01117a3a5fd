package battle

// Config holds the engine tunables. Callers usually start from
// DefaultConfig and adjust; the zero value is not usable.
type Config struct {
	BoardWidth  int `json:"board_width"`
	BoardHeight int `json:"board_height"`

	ForcesPerPlayer int `json:"forces_per_player"`

	ShihStart            int `json:"shih_start"`
	ShihMax              int `json:"shih_max"`
	IncomeBase           int `json:"income_base"`
	IncomePerContentious int `json:"income_per_contentious"`

	MoveCost    int `json:"move_cost"`
	ChargeCost  int `json:"charge_cost"`
	ScoutCost   int `json:"scout_cost"`
	FortifyCost int `json:"fortify_cost"`
	AmbushCost  int `json:"ambush_cost"`

	SupplyLinkRange int `json:"supply_link_range"`
	SupplyMaxHops   int `json:"supply_max_hops"`

	ScoutRange    int     `json:"scout_range"`
	ScoutAccuracy float64 `json:"scout_accuracy"`

	FortifyBonus          int `json:"fortify_bonus"`
	AmbushBonus           int `json:"ambush_bonus"`
	ChargeBonus           int `json:"charge_bonus"`
	TerrainDefenseBonus   int `json:"terrain_defense_bonus"`
	SupportBonus          int `json:"support_bonus"`
	SupportCap            int `json:"support_cap"`
	SovereignDefenseBonus int `json:"sovereign_defense_bonus"`

	VarianceMin int `json:"variance_min"`
	VarianceMax int `json:"variance_max"`

	RetreatThreshold int `json:"retreat_threshold"`

	ShrinkInterval int `json:"shrink_interval"`

	DominationHexes int `json:"domination_hexes"`
	DominationTurns int `json:"domination_turns"`

	VisibilityRange int `json:"visibility_range"`
}

// DefaultConfig returns the standard ruleset.
func DefaultConfig() Config {
	return Config{
		BoardWidth:  7,
		BoardHeight: 7,

		ForcesPerPlayer: 5,

		ShihStart:            4,
		ShihMax:              8,
		IncomeBase:           1,
		IncomePerContentious: 2,

		MoveCost:    0,
		ChargeCost:  2,
		ScoutCost:   2,
		FortifyCost: 2,
		AmbushCost:  3,

		SupplyLinkRange: 2,
		SupplyMaxHops:   2,

		ScoutRange:    2,
		ScoutAccuracy: 0.7,

		FortifyBonus:          2,
		AmbushBonus:           2,
		ChargeBonus:           2,
		TerrainDefenseBonus:   1,
		SupportBonus:          1,
		SupportCap:            2,
		SovereignDefenseBonus: 1,

		VarianceMin: -2,
		VarianceMax: 2,

		RetreatThreshold: 2,

		ShrinkInterval: 3,

		DominationHexes: 2,
		DominationTurns: 3,

		VisibilityRange: 2,
	}
}

// ShrinkLimit returns the maximum allowed distance from the board
// center for a given shrink stage. Stage 0 means the board has not
// started shrinking.
func (c Config) ShrinkLimit(stage int) int {
	switch {
	case stage <= 0:
		return c.BoardWidth // effectively unlimited on a 7x7 board
	case stage == 1:
		return 5
	case stage == 2:
		return 4
	case stage == 3:
		return 3
	case stage == 4:
		return 2
	default:
		return 1
	}
}

// OrderCost returns the Shih cost of an order type.
func (c Config) OrderCost(t OrderType) int {
	switch t {
	case OrderMove:
		return c.MoveCost
	case OrderCharge:
		return c.ChargeCost
	case OrderScout:
		return c.ScoutCost
	case OrderFortify:
		return c.FortifyCost
	case OrderAmbush:
		return c.AmbushCost
	default:
		return 0
	}
}
