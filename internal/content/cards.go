// Package content holds the static designer-authored tables: reward cards,
// build bonuses, meta nodes, enemy templates, shop items, skill specs, and
// characters. Unknown-id lookups through the Must variants panic: a missing
// entry is a content bug and has to surface during development, never as a
// silently degraded run.
package content

import (
	"fmt"

	"purrfect-run/server/internal/buildagg"
)

// Build archetypes bias reward weighting once the player locks one in.
const (
	ArchetypeBurst   = "burst"
	ArchetypeEngine  = "engine"
	ArchetypeLuck    = "luck"
	ArchetypeTempo   = "tempo"
	ArchetypeUtility = "utility"
)

// TempMods is the sparse run-scoped modifier bag populated by reward cards
// and discarded at run end. Multiplicative fields default to 1 when zero,
// additive fields to 0; CritMult defaults to 2.
type TempMods struct {
	CritChance        float64 `json:"critChance,omitempty"`
	CritMult          float64 `json:"critMult,omitempty"`
	ClickMult         float64 `json:"clickMult,omitempty"`
	PpsMult           float64 `json:"ppsMult,omitempty"`
	SkillDurationPlus float64 `json:"skillDurationPlus,omitempty"`
	SkillCdMult       float64 `json:"skillCdMult,omitempty"`
	BossClickMult     float64 `json:"bossClickMult,omitempty"`
	ShopDiscount      float64 `json:"shopDiscount,omitempty"`
	BossDamageMult    float64 `json:"bossDamageMult,omitempty"`
	DrainResist       float64 `json:"drainResist,omitempty"`
}

// MultOr returns value when non-zero, otherwise the neutral fallback.
func MultOr(value, fallback float64) float64 {
	if value == 0 {
		return fallback
	}
	return value
}

// RewardCard is a pickable reward. Applying it mutates the run's temp-mods;
// the referenced build bonus is registered with the build aggregator.
type RewardCard struct {
	ID        string `json:"id" jsonschema:"title=Card id,pattern=^[a-z]+\\.[a-zA-Z]+$"`
	BonusID   string `json:"bonusId" jsonschema:"title=Build bonus id granted by this card"`
	Archetype string `json:"archetype" jsonschema:"enum=burst,enum=engine,enum=luck,enum=tempo,enum=utility"`
	Tier      int    `json:"tier" jsonschema:"minimum=1,maximum=3"`
	Apply     func(mods *TempMods) `json:"-"`
}

func mulTemp(target *float64, factor float64) {
	*target = MultOr(*target, 1) * factor
}

var rewardCards = []RewardCard{
	{ID: "burst.doubleTap", BonusID: "burst.doubleTap", Archetype: ArchetypeBurst, Tier: 1,
		Apply: func(m *TempMods) { mulTemp(&m.ClickMult, 1.35) }},
	{ID: "burst.comboDrive", BonusID: "burst.comboDrive", Archetype: ArchetypeBurst, Tier: 2,
		Apply: func(m *TempMods) { mulTemp(&m.ClickMult, 1.1) }},
	{ID: "burst.impactPalm", BonusID: "burst.impactPalm", Archetype: ArchetypeBurst, Tier: 3,
		Apply: func(m *TempMods) {
			mulTemp(&m.ClickMult, 1.5)
			m.CritMult = MultOr(m.CritMult, 2) * 1.1
		}},
	{ID: "engine.dispenser", BonusID: "engine.dispenser", Archetype: ArchetypeEngine, Tier: 1,
		Apply: func(m *TempMods) { mulTemp(&m.PpsMult, 1.15) }},
	{ID: "engine.nightWatch", BonusID: "engine.nightWatch", Archetype: ArchetypeEngine, Tier: 2,
		Apply: func(m *TempMods) { mulTemp(&m.PpsMult, 1.2) }},
	{ID: "engine.resonanceTower", BonusID: "engine.resonanceTower", Archetype: ArchetypeEngine, Tier: 3,
		Apply: func(m *TempMods) { mulTemp(&m.PpsMult, 1.25) }},
	{ID: "luck.luckyWhisker", BonusID: "luck.luckyWhisker", Archetype: ArchetypeLuck, Tier: 1,
		Apply: func(m *TempMods) { m.CritChance += 0.1 }},
	{ID: "luck.critBattery", BonusID: "luck.critBattery", Archetype: ArchetypeLuck, Tier: 2,
		Apply: func(m *TempMods) { m.CritChance += 0.05 }},
	{ID: "luck.jackpot", BonusID: "luck.jackpot", Archetype: ArchetypeLuck, Tier: 3,
		Apply: func(m *TempMods) { m.CritMult = MultOr(m.CritMult, 2) * 1.25 }},
	{ID: "tempo.resonancePalm", BonusID: "tempo.resonancePalm", Archetype: ArchetypeTempo, Tier: 1,
		Apply: func(m *TempMods) { m.SkillDurationPlus += 3 }},
	{ID: "tempo.cdTuner", BonusID: "tempo.cdTuner", Archetype: ArchetypeTempo, Tier: 2,
		Apply: func(m *TempMods) { m.SkillCdMult = MultOr(m.SkillCdMult, 1) * 0.8 }},
	{ID: "tempo.cycleRush", BonusID: "tempo.cycleRush", Archetype: ArchetypeTempo, Tier: 3,
		Apply: func(m *TempMods) {
			m.SkillCdMult = MultOr(m.SkillCdMult, 1) * 0.92
			mulTemp(&m.ClickMult, 1.2)
		}},
	{ID: "utility.emberFur", BonusID: "utility.emberFur", Archetype: ArchetypeUtility, Tier: 1,
		Apply: func(m *TempMods) { mulTemp(&m.BossDamageMult, 1.15) }},
	{ID: "utility.frostPaw", BonusID: "utility.frostPaw", Archetype: ArchetypeUtility, Tier: 2,
		Apply: func(m *TempMods) { m.ShopDiscount = MultOr(m.ShopDiscount, 1) * 0.9 }},
	{ID: "utility.hexShadow", BonusID: "utility.hexShadow", Archetype: ArchetypeUtility, Tier: 3,
		Apply: func(m *TempMods) { m.DrainResist += 0.25 }},
}

var rewardCardIndex = buildCardIndex()

func buildCardIndex() map[string]RewardCard {
	index := make(map[string]RewardCard, len(rewardCards))
	for _, card := range rewardCards {
		if _, dup := index[card.ID]; dup {
			panic(fmt.Sprintf("content: duplicate reward card %q", card.ID))
		}
		if _, ok := buildBonusIndex[card.BonusID]; !ok {
			panic(fmt.Sprintf("content: card %q references unknown bonus %q", card.ID, card.BonusID))
		}
		index[card.ID] = card
	}
	return index
}

// RewardCardFor fetches a card definition.
func RewardCardFor(id string) (RewardCard, bool) {
	card, ok := rewardCardIndex[id]
	return card, ok
}

// MustRewardCard fetches a card definition or panics on an unknown id.
func MustRewardCard(id string) RewardCard {
	card, ok := rewardCardIndex[id]
	if !ok {
		panic(fmt.Sprintf("content: unknown reward card %q", id))
	}
	return card
}

// AllRewardCardIDs lists every card id in declaration order.
func AllRewardCardIDs() []string {
	ids := make([]string, 0, len(rewardCards))
	for _, card := range rewardCards {
		ids = append(ids, card.ID)
	}
	return ids
}

// BuildBonus pairs an id with its effect contribution and weighting tags.
type BuildBonus struct {
	ID        string           `json:"id"`
	Archetype string           `json:"archetype" jsonschema:"enum=burst,enum=engine,enum=luck,enum=tempo,enum=utility"`
	Tier      int              `json:"tier" jsonschema:"minimum=1,maximum=3"`
	Effects   buildagg.Effects `json:"effects"`
}

var buildBonuses = []BuildBonus{
	{ID: "burst.doubleTap", Archetype: ArchetypeBurst, Tier: 1, Effects: buildagg.Effects{ClickMult: 1.35}},
	{ID: "burst.comboDrive", Archetype: ArchetypeBurst, Tier: 2, Effects: buildagg.Effects{ComboHoldPlus: 0.5, InstantHappyPlus: 0.05}},
	{ID: "burst.impactPalm", Archetype: ArchetypeBurst, Tier: 3, Effects: buildagg.Effects{ClickMult: 1.5, CritMultPlus: 0.25}},
	{ID: "engine.dispenser", Archetype: ArchetypeEngine, Tier: 1, Effects: buildagg.Effects{PpsMult: 1.15}},
	{ID: "engine.nightWatch", Archetype: ArchetypeEngine, Tier: 2, Effects: buildagg.Effects{PpsMult: 1.2, InstantHappyPlus: 0.04}},
	{ID: "engine.resonanceTower", Archetype: ArchetypeEngine, Tier: 3, Effects: buildagg.Effects{PpsMult: 1.25, SkillExtendPerClick: 0.02}},
	{ID: "luck.luckyWhisker", Archetype: ArchetypeLuck, Tier: 1, Effects: buildagg.Effects{CritChancePlus: 0.1, CritMultPlus: 0.2}},
	{ID: "luck.critBattery", Archetype: ArchetypeLuck, Tier: 2, Effects: buildagg.Effects{CritChancePlus: 0.05, CritMultPlus: 0.3}},
	{ID: "luck.jackpot", Archetype: ArchetypeLuck, Tier: 3, Effects: buildagg.Effects{InstantHappyPlus: 0.12}},
	{ID: "tempo.resonancePalm", Archetype: ArchetypeTempo, Tier: 1, Effects: buildagg.Effects{SkillExtendPerClick: 0.05}},
	{ID: "tempo.cdTuner", Archetype: ArchetypeTempo, Tier: 2, Effects: buildagg.Effects{SkillCdMult: 0.9}},
	{ID: "tempo.cycleRush", Archetype: ArchetypeTempo, Tier: 3, Effects: buildagg.Effects{SkillCdMult: 0.92, ClickMult: 1.2}},
	{ID: "utility.emberFur", Archetype: ArchetypeUtility, Tier: 1, Effects: buildagg.Effects{DotMult: 1.25}},
	{ID: "utility.frostPaw", Archetype: ArchetypeUtility, Tier: 2, Effects: buildagg.Effects{EnemyCastSlow: 0.12}},
	{ID: "utility.hexShadow", Archetype: ArchetypeUtility, Tier: 3, Effects: buildagg.Effects{DotMult: 1.35, EnemyCastSlow: 0.08, DrainResist: 0.1}},
}

var buildBonusIndex = func() map[string]BuildBonus {
	index := make(map[string]BuildBonus, len(buildBonuses))
	for _, bonus := range buildBonuses {
		index[bonus.ID] = bonus
	}
	return index
}()

// BuildBonusFor fetches a build bonus definition.
func BuildBonusFor(id string) (BuildBonus, bool) {
	bonus, ok := buildBonusIndex[id]
	return bonus, ok
}

// MustBuildBonus fetches a build bonus or panics on an unknown id.
func MustBuildBonus(id string) BuildBonus {
	bonus, ok := buildBonusIndex[id]
	if !ok {
		panic(fmt.Sprintf("content: unknown build bonus %q", id))
	}
	return bonus
}

// BuildBonuses returns the full bonus table in declaration order.
func BuildBonuses() []BuildBonus {
	return buildBonuses
}
