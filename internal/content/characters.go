package content

import "fmt"

// PassiveMods is a character's always-on modifier bag. Multiplicative
// fields are neutral at zero (callers substitute 1); additive fields are
// neutral at zero. NonCritMultiplier scales non-critical clicks when set,
// and CritHappyBonus pays extra Happy on critical clicks.
type PassiveMods struct {
	ClickMult         float64 `json:"clickMult,omitempty"`
	PpsMult           float64 `json:"ppsMult,omitempty"`
	CritChancePlus    float64 `json:"critChancePlus,omitempty"`
	CritMultPlus      float64 `json:"critMultPlus,omitempty"`
	SkillCdMult       float64 `json:"skillCdMult,omitempty"`
	SkillDurationPlus float64 `json:"skillDurationPlus,omitempty"`
	BossTakenMult     float64 `json:"bossTakenMult,omitempty"`
	NonCritMultiplier float64 `json:"nonCritMultiplier,omitempty"`
	CritHappyBonus    float64 `json:"critHappyBonus,omitempty"`
}

// SkillOverride adjusts a base ability for one character. Zero fields keep
// the base value; a non-nil Effect replaces the base effect entirely.
type SkillOverride struct {
	BaseCd       float64      `json:"baseCd,omitempty"`
	BaseDuration float64      `json:"baseDuration,omitempty"`
	Effect       *SkillEffect `json:"effect,omitempty"`
}

// CharacterSpec describes a playable character: combined passives, base
// ability overrides, and character-unique abilities appended to the set.
type CharacterSpec struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	Difficulty      string                   `json:"difficulty,omitempty" jsonschema:"enum=easy,enum=normal,enum=hard"`
	Passives        PassiveMods              `json:"passives"`
	ActiveOverrides map[string]SkillOverride `json:"activeOverrides,omitempty"`
	UniqueSkills    []SkillSpec              `json:"uniqueSkills,omitempty"`
	StartingPps     float64                  `json:"startingPps,omitempty" jsonschema:"description=Applied to the run by the on-start hook"`
}

var characters = []CharacterSpec{
	{
		ID: "critCat", Name: "Crit Cat", Difficulty: "normal",
		Passives: PassiveMods{CritChancePlus: 0.1, CritMultPlus: 0.3, ClickMult: 1.1},
		ActiveOverrides: map[string]SkillOverride{
			"critBoost": {BaseCd: 32, BaseDuration: 14, Effect: &SkillEffect{CritChancePlus: 0.3, CritMultPlus: 0.6}},
		},
	},
	{
		ID: "tempoCat", Name: "Tempo Cat", Difficulty: "easy",
		Passives: PassiveMods{SkillCdMult: 0.85, SkillDurationPlus: 2},
		ActiveOverrides: map[string]SkillOverride{
			"overdrive": {BaseCd: 40.5, BaseDuration: 12},
		},
	},
	{
		ID: "summonerCat", Name: "Summoner Cat", Difficulty: "normal",
		Passives:    PassiveMods{PpsMult: 1.2, ClickMult: 1.05},
		StartingPps: 0.5,
		UniqueSkills: []SkillSpec{
			{ID: "spiritSwarm", Name: "Spirit Swarm", BaseCd: 42, BaseDuration: 10, Effect: SkillEffect{PpsMult: 1.4}},
		},
	},
	{
		ID: "guardianCat", Name: "Guardian Cat", Difficulty: "hard",
		Passives: PassiveMods{BossTakenMult: 1.1, PpsMult: 1.1},
		ActiveOverrides: map[string]SkillOverride{
			"cheerful": {BaseCd: 40, Effect: &SkillEffect{PpsMult: 1.9}},
		},
	},
	{
		ID: "gamblerCat", Name: "Gambler Cat", Difficulty: "hard",
		Passives: PassiveMods{CritChancePlus: 0.05, NonCritMultiplier: 0.9, CritHappyBonus: 0.25},
		UniqueSkills: []SkillSpec{
			{ID: "doubleOrNothing", Name: "Double or Nothing", BaseCd: 50, BaseDuration: 6, Effect: SkillEffect{ClickMult: 2}},
		},
	},
}

var characterIndex = func() map[string]CharacterSpec {
	index := make(map[string]CharacterSpec, len(characters))
	for _, spec := range characters {
		index[spec.ID] = spec
	}
	return index
}()

// Characters returns the roster in declaration order.
func Characters() []CharacterSpec {
	return characters
}

// CharacterFor fetches a character spec.
func CharacterFor(id string) (CharacterSpec, bool) {
	spec, ok := characterIndex[id]
	return spec, ok
}

// MustCharacter fetches a character spec or panics on an unknown id.
func MustCharacter(id string) CharacterSpec {
	spec, ok := characterIndex[id]
	if !ok {
		panic(fmt.Sprintf("content: unknown character %q", id))
	}
	return spec
}

// IsCharacterID reports whether candidate names a known character.
func IsCharacterID(candidate string) bool {
	_, ok := characterIndex[candidate]
	return ok
}
