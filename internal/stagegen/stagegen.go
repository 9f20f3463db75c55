// Package stagegen builds the ordered encounter sequence for a run. The
// whole generation is a pure function of (seed, baseClick, basePps):
// identical inputs always yield identical stage arrays, so a shared seed
// reproduces a run anywhere.
package stagegen

import (
	"fmt"
	"time"

	"purrfect-run/server/internal/content"
	"purrfect-run/server/internal/rng"
)

// RewardTier selects which of a stage's reward pools a defeat draws from.
type RewardTier string

const (
	TierStandard RewardTier = "standard"
	TierBoss     RewardTier = "boss"
)

// Special is the runtime instance of a boss special ability. Trigger and
// active-window state is wall-clock based and re-evaluated on each combat
// resolution; there is no background timer.
type Special struct {
	ID              string
	Kind            content.SpecialKind
	Cooldown        float64
	Duration        float64
	Magnitude       float64
	LastTriggeredAt time.Time
	ActiveUntil     time.Time
}

// Enemy is a live encounter. Hp is mutated only by the run engine's damage
// application; BaseMaxHp/BaseRewardHappy are immutable snapshots so
// repeated game-stage rescaling never compounds rounding error.
type Enemy struct {
	ID              string
	Name            string
	MaxHp           float64
	Hp              float64
	RewardHappy     float64
	Role            content.EnemyRole
	RewardTier      RewardTier
	DamageTakenMult float64
	Specials        []Special
	TimeLimitSec    float64
	BaseMaxHp       float64
	BaseRewardHappy float64
}

// RewardPools holds the per-stage shuffled card-id pools.
type RewardPools struct {
	Standard []string
	Boss     []string
}

// Stage is one ordered content unit: its minions are fought strictly in
// slice order, and the boss becomes fightable only once they are all down.
type Stage struct {
	ID          string
	Name        string
	Order       int
	Difficulty  float64
	Enemies     []Enemy
	Boss        Enemy
	RewardPools RewardPools
}

const (
	stageCount = 5

	poolSizeBase = 6
	poolSizeMax  = 9

	bossTimeLimitBase  = 75.0
	bossTimeLimitStep  = 6.0
	bossTimeLimitFloor = 20.0

	saltStageLayout uint32 = 0x51a6e001
	saltMinion      uint32 = 0x0000a11e
	saltBoss        uint32 = 0x0000b055
	saltRewardPool  uint32 = 0x9e3779b9
)

var stageNames = []string{"Whisker Woods", "Moonlit Hill", "Bell Path", "Starfall Lake", "Aurora Throne"}

// Generate produces the full stage sequence for a run.
func Generate(seed uint32, baseClick, basePps float64) []Stage {
	// baseClick/basePps anchor the earliest HP targets so a fresh run's
	// first encounters stay clearable with starting stats.
	anchor := baseClick*40 + basePps*90
	if anchor < 250 {
		anchor = 250
	}
	hpScale := anchor / 250

	stages := make([]Stage, 0, stageCount)
	for order := 0; order < stageCount; order++ {
		stages = append(stages, generateStage(seed, order, hpScale))
	}
	return stages
}

func generateStage(seed uint32, order int, hpScale float64) Stage {
	difficulty := 1 + 0.6*float64(order)

	layout := rng.New(rng.SeedFrom(seed, uint32(order), saltStageLayout))
	minCount := 2 + order/2
	maxCount := 3 + (3*order)/4
	count := layout.Int(minCount, maxCount)

	enemies := make([]Enemy, 0, count)
	for i := 0; i < count; i++ {
		enemies = append(enemies, rollMinion(seed, order, i, difficulty, hpScale))
	}

	return Stage{
		ID:         fmt.Sprintf("stage_%d", order),
		Name:       stageNames[order%len(stageNames)],
		Order:      order,
		Difficulty: difficulty,
		Enemies:    enemies,
		Boss:       rollBoss(seed, order, difficulty, hpScale),
		RewardPools: RewardPools{
			Standard: rollRewardPool(seed, order, 0),
			Boss:     rollRewardPool(seed, order, 1),
		},
	}
}

func rollMinion(seed uint32, order, index int, difficulty, hpScale float64) Enemy {
	r := rng.New(rng.SeedFrom(seed, uint32(order), uint32(index), saltMinion))
	template, err := rng.Pick(r, content.MinionTemplates())
	if err != nil {
		panic(err)
	}
	// Later encounters in a stage ramp up on top of the stage difficulty.
	scaling := difficulty * (1 + 0.15*float64(index)) * hpScale
	variance := 0.85 + r.Next()*0.3
	maxHp := floorAtLeast(template.BaseHp*scaling*variance, 1)
	reward := floorAtLeast(maxHp*template.RewardRatio, 1)
	return Enemy{
		ID:              fmt.Sprintf("%s_%d_%d", template.ID, order, index),
		Name:            template.Name,
		MaxHp:           maxHp,
		Hp:              maxHp,
		RewardHappy:     reward,
		Role:            content.RoleNormal,
		RewardTier:      TierStandard,
		DamageTakenMult: 1,
		BaseMaxHp:       maxHp,
		BaseRewardHappy: reward,
	}
}

func rollBoss(seed uint32, order int, difficulty, hpScale float64) Enemy {
	r := rng.New(rng.SeedFrom(seed, uint32(order), saltBoss))
	template, err := rng.Pick(r, content.BossTemplates())
	if err != nil {
		panic(err)
	}
	scaling := difficulty * (1 + 0.35*float64(order)) * hpScale
	variance := 0.85 + r.Next()*0.3
	maxHp := floorAtLeast(template.BaseHp*scaling*variance, 1)
	reward := floorAtLeast(maxHp*template.RewardRatio, 1)

	specials := make([]Special, 0, len(template.Specials))
	for _, spec := range template.Specials {
		specials = append(specials, Special{
			ID:        spec.ID,
			Kind:      spec.Kind,
			Cooldown:  spec.Cooldown,
			Duration:  spec.Duration,
			Magnitude: spec.Magnitude,
		})
	}

	timeLimit := bossTimeLimitBase - bossTimeLimitStep*float64(order)
	if timeLimit < bossTimeLimitFloor {
		timeLimit = bossTimeLimitFloor
	}

	return Enemy{
		ID:              fmt.Sprintf("%s_%d", template.ID, order),
		Name:            template.Name,
		MaxHp:           maxHp,
		Hp:              maxHp,
		RewardHappy:     reward,
		Role:            content.RoleBoss,
		RewardTier:      TierBoss,
		DamageTakenMult: 1,
		Specials:        specials,
		TimeLimitSec:    timeLimit,
		BaseMaxHp:       maxHp,
		BaseRewardHappy: reward,
	}
}

func rollRewardPool(seed uint32, order int, kind uint32) []string {
	pool := content.AllRewardCardIDs()
	r := rng.New(rng.SeedFrom(seed, uint32(order), kind, saltRewardPool))
	rng.ShuffleInPlace(r, pool)
	size := poolSizeBase + order/2
	if size > poolSizeMax {
		size = poolSizeMax
	}
	if size > len(pool) {
		size = len(pool)
	}
	return pool[:size]
}

func floorAtLeast(value, min float64) float64 {
	floored := float64(int64(value))
	if floored < min {
		return min
	}
	return floored
}
