package content

// EnemyRole distinguishes minions from elites and bosses inside a stage.
type EnemyRole string

const (
	RoleNormal EnemyRole = "normal"
	RoleElite  EnemyRole = "elite"
	RoleBoss   EnemyRole = "boss"
)

// SpecialKind is a boss special-ability category.
type SpecialKind string

const (
	// SpecialBarrier multiplies incoming damage while active.
	SpecialBarrier SpecialKind = "barrier"
	// SpecialDrain removes a fraction of current Happy when it fires.
	SpecialDrain SpecialKind = "drain"
)

// SpecialTemplate is the static description of a boss special; the stage
// generator stamps runtime instances from it.
type SpecialTemplate struct {
	ID        string      `json:"id"`
	Kind      SpecialKind `json:"kind" jsonschema:"enum=barrier,enum=drain"`
	Cooldown  float64     `json:"cooldown" jsonschema:"minimum=1,description=Seconds between triggers"`
	Duration  float64     `json:"duration" jsonschema:"minimum=0,description=Active window in seconds; zero means edge-triggered"`
	Magnitude float64     `json:"magnitude" jsonschema:"description=Damage multiplier for barriers; drained Happy fraction for drains"`
}

// EnemyTemplate is a sampled encounter blueprint. RewardRatio converts the
// rolled max HP into the Happy granted on defeat.
type EnemyTemplate struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	BaseHp      float64           `json:"baseHp" jsonschema:"minimum=1"`
	RewardRatio float64           `json:"rewardRatio" jsonschema:"minimum=0"`
	Specials    []SpecialTemplate `json:"specials,omitempty"`
}

var minionTemplates = []EnemyTemplate{
	{ID: "forest_guardian", Name: "Forest Guardian", BaseHp: 1200, RewardRatio: 0.35},
	{ID: "clockwork_cat", Name: "Clockwork Cat", BaseHp: 1600, RewardRatio: 0.32},
	{ID: "shadow_pouncer", Name: "Shadow Pouncer", BaseHp: 2000, RewardRatio: 0.4},
	{ID: "crystal_lynx", Name: "Crystal Lynx", BaseHp: 2400, RewardRatio: 0.33},
	{ID: "aurora_tiger", Name: "Aurora Tiger", BaseHp: 3000, RewardRatio: 0.36},
}

var bossTemplates = []EnemyTemplate{
	{ID: "guardian_gate", Name: "Guardian of the Gate", BaseHp: 9000, RewardRatio: 0.5,
		Specials: []SpecialTemplate{
			{ID: "stone_barrier", Kind: SpecialBarrier, Cooldown: 14, Duration: 4, Magnitude: 0.45},
		}},
	{ID: "clockwork_bastion", Name: "Clockwork Bastion", BaseHp: 11000, RewardRatio: 0.48,
		Specials: []SpecialTemplate{
			{ID: "gear_shield", Kind: SpecialBarrier, Cooldown: 12, Duration: 3, Magnitude: 0.5},
		}},
	{ID: "shadow_curator", Name: "Shadow Curator", BaseHp: 12500, RewardRatio: 0.52,
		Specials: []SpecialTemplate{
			{ID: "gloom_siphon", Kind: SpecialDrain, Cooldown: 10, Duration: 0, Magnitude: 0.08},
		}},
	{ID: "crystal_monarch", Name: "Crystal Monarch", BaseHp: 14000, RewardRatio: 0.5,
		Specials: []SpecialTemplate{
			{ID: "prism_wall", Kind: SpecialBarrier, Cooldown: 15, Duration: 5, Magnitude: 0.4},
			{ID: "facet_tax", Kind: SpecialDrain, Cooldown: 13, Duration: 0, Magnitude: 0.06},
		}},
	{ID: "aurora_sovereign", Name: "Aurora Sovereign", BaseHp: 16000, RewardRatio: 0.55,
		Specials: []SpecialTemplate{
			{ID: "dawn_veil", Kind: SpecialBarrier, Cooldown: 11, Duration: 4, Magnitude: 0.5},
			{ID: "dusk_toll", Kind: SpecialDrain, Cooldown: 16, Duration: 0, Magnitude: 0.1},
		}},
}

// MinionTemplates returns the minion sampling pool.
func MinionTemplates() []EnemyTemplate {
	return minionTemplates
}

// BossTemplates returns the boss sampling pool.
func BossTemplates() []EnemyTemplate {
	return bossTemplates
}
