package content

import "fmt"

// SkillEffect is the contribution of a running ability. ClickMult/PpsMult
// compose multiplicatively across simultaneously active abilities,
// CritChancePlus/CritMultPlus additively, and TickRateMult feeds the
// aggregate tick-rate factor as its reciprocal (a haste effect).
type SkillEffect struct {
	ClickMult      float64 `json:"clickMult,omitempty"`
	PpsMult        float64 `json:"ppsMult,omitempty"`
	CritChancePlus float64 `json:"critChancePlus,omitempty"`
	CritMultPlus   float64 `json:"critMultPlus,omitempty"`
	TickRateMult   float64 `json:"tickRateMult,omitempty"`
}

// SkillSpec is an active ability definition. BaseCd and BaseDuration are
// seconds before meta-upgrade and character adjustments.
type SkillSpec struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	BaseCd       float64     `json:"baseCd" jsonschema:"minimum=1"`
	BaseDuration float64     `json:"baseDuration" jsonschema:"minimum=0.5"`
	Effect       SkillEffect `json:"effect"`
}

// Meta-upgrade tuning for skills. Cooldown reduction is floored so a
// cooldown never drops below MetaCdFloor of its base.
const (
	MetaDurationPerLevel    = 1.0
	MetaCdReducePerLevel    = 0.05
	MetaCdFloor             = 0.3
	CheerfulMetaPpsPerLevel = 0.05
)

// Skill meta-upgrade ids referenced by the skill runtime.
const (
	MetaUpgradeSkillDuration = "skill.durationPlus"
	MetaUpgradeSkillCd       = "skill.cdReduce"
	MetaUpgradeCheerfulPps   = "skill.cheerful.ppsBonus"
)

var baseSkills = []SkillSpec{
	{ID: "cheerful", Name: "Cheerful", BaseCd: 35, BaseDuration: 10, Effect: SkillEffect{PpsMult: 1.75}},
	{ID: "critBoost", Name: "Crit Boost", BaseCd: 40, BaseDuration: 12, Effect: SkillEffect{CritChancePlus: 0.2, CritMultPlus: 0.5}},
	{ID: "clickRush", Name: "Click Rush", BaseCd: 30, BaseDuration: 8, Effect: SkillEffect{ClickMult: 1.6}},
	{ID: "overdrive", Name: "Overdrive", BaseCd: 50, BaseDuration: 10, Effect: SkillEffect{PpsMult: 1.3, ClickMult: 1.3}},
	{ID: "timeWarp", Name: "Time Warp", BaseCd: 35, BaseDuration: 6, Effect: SkillEffect{TickRateMult: 0.7}},
}

var baseSkillIndex = func() map[string]SkillSpec {
	index := make(map[string]SkillSpec, len(baseSkills))
	for _, spec := range baseSkills {
		index[spec.ID] = spec
	}
	return index
}()

// BaseSkills returns the base ability set in declaration order.
func BaseSkills() []SkillSpec {
	return baseSkills
}

// BaseSkillFor fetches a base ability spec.
func BaseSkillFor(id string) (SkillSpec, bool) {
	spec, ok := baseSkillIndex[id]
	return spec, ok
}

// MustBaseSkill fetches a base ability spec or panics on an unknown id.
func MustBaseSkill(id string) SkillSpec {
	spec, ok := baseSkillIndex[id]
	if !ok {
		panic(fmt.Sprintf("content: unknown skill %q", id))
	}
	return spec
}

// MetaUpgradeSpec is a soul-priced permanent upgrade outside the build
// node tree; cost compounds by CostGrowth per level.
type MetaUpgradeSpec struct {
	ID         string  `json:"id"`
	BaseCost   float64 `json:"baseCost" jsonschema:"minimum=1"`
	CostGrowth float64 `json:"costGrowth" jsonschema:"minimum=1"`
	MaxLevel   int     `json:"maxLevel,omitempty" jsonschema:"description=Zero means unbounded"`
}

var metaUpgrades = []MetaUpgradeSpec{
	{ID: MetaUpgradeSkillDuration, BaseCost: 40, CostGrowth: 1.65},
	{ID: MetaUpgradeSkillCd, BaseCost: 60, CostGrowth: 1.7, MaxLevel: 10},
	{ID: MetaUpgradeCheerfulPps, BaseCost: 55, CostGrowth: 1.6, MaxLevel: 8},
}

var metaUpgradeIndex = func() map[string]MetaUpgradeSpec {
	index := make(map[string]MetaUpgradeSpec, len(metaUpgrades))
	for _, spec := range metaUpgrades {
		index[spec.ID] = spec
	}
	return index
}()

// MetaUpgrades returns the upgrade table in declaration order.
func MetaUpgrades() []MetaUpgradeSpec {
	return metaUpgrades
}

// MetaUpgradeFor fetches a meta upgrade spec.
func MetaUpgradeFor(id string) (MetaUpgradeSpec, bool) {
	spec, ok := metaUpgradeIndex[id]
	return spec, ok
}

// MustMetaUpgrade fetches a meta upgrade spec or panics on an unknown id.
func MustMetaUpgrade(id string) MetaUpgradeSpec {
	spec, ok := metaUpgradeIndex[id]
	if !ok {
		panic(fmt.Sprintf("content: unknown meta upgrade %q", id))
	}
	return spec
}
