// Package buildagg folds permanent meta-upgrade levels and in-run acquired
// bonuses into one set of final multipliers. Every effect channel is either
// multiplicative (neutral 1) or additive (neutral 0); the classification
// lives here so call sites cannot drift apart on combination rules.
package buildagg

import "math"

// Effects is the fixed schema shared by build bonuses, meta nodes, and the
// folded totals. Zero values mean "no contribution" for every channel; the
// fold functions substitute the proper neutral element per channel.
type Effects struct {
	ClickMult           float64 `json:"clickMult,omitempty" jsonschema:"description=Multiplies click gain"`
	PpsMult             float64 `json:"ppsMult,omitempty" jsonschema:"description=Multiplies passive income"`
	CritChancePlus      float64 `json:"critChancePlus,omitempty" jsonschema:"description=Adds critical hit chance"`
	CritMultPlus        float64 `json:"critMultPlus,omitempty" jsonschema:"description=Adds to the critical multiplier"`
	ComboHoldPlus       float64 `json:"comboHoldPlus,omitempty" jsonschema:"description=Extends combo hold window in seconds"`
	SkillCdMult         float64 `json:"skillCdMult,omitempty" jsonschema:"description=Multiplies skill cooldowns"`
	SkillExtendPerClick float64 `json:"skillExtendPerClick,omitempty" jsonschema:"description=Seconds added to running skills per click"`
	DotMult             float64 `json:"dotMult,omitempty" jsonschema:"description=Multiplies damage-over-time effects"`
	EnemyCastSlow       float64 `json:"enemyCastSlow,omitempty" jsonschema:"description=Slows enemy special cooldowns"`
	InstantHappyPlus    float64 `json:"instantHappyPlus,omitempty" jsonschema:"description=Fraction of gain paid out again instantly"`
	BossDamageMult      float64 `json:"bossDamageMult,omitempty" jsonschema:"description=Multiplies damage dealt to bosses"`
	DrainResist         float64 `json:"drainResist,omitempty" jsonschema:"description=Reduces boss drain specials"`
}

// Final carries the folded totals with neutral elements already applied.
type Final struct {
	ClickMult           float64
	PpsMult             float64
	CritChancePlus      float64
	CritMultPlus        float64
	ComboHoldPlus       float64
	SkillCdMult         float64
	SkillExtendPerClick float64
	DotMult             float64
	EnemyCastSlow       float64
	InstantHappyPlus    float64
	BossDamageMult      float64
	DrainResist         float64
}

type channelKind uint8

const (
	channelMultiplicative channelKind = iota
	channelAdditive
)

type channel struct {
	kind channelKind
	get  func(*Effects) float64
	set  func(*Effects, float64)
}

// channels is the single authoritative (key, combination-rule) list.
var channels = []channel{
	{channelMultiplicative, func(e *Effects) float64 { return e.ClickMult }, func(e *Effects, v float64) { e.ClickMult = v }},
	{channelMultiplicative, func(e *Effects) float64 { return e.PpsMult }, func(e *Effects, v float64) { e.PpsMult = v }},
	{channelMultiplicative, func(e *Effects) float64 { return e.SkillCdMult }, func(e *Effects, v float64) { e.SkillCdMult = v }},
	{channelMultiplicative, func(e *Effects) float64 { return e.DotMult }, func(e *Effects, v float64) { e.DotMult = v }},
	{channelMultiplicative, func(e *Effects) float64 { return e.BossDamageMult }, func(e *Effects, v float64) { e.BossDamageMult = v }},
	{channelAdditive, func(e *Effects) float64 { return e.CritChancePlus }, func(e *Effects, v float64) { e.CritChancePlus = v }},
	{channelAdditive, func(e *Effects) float64 { return e.CritMultPlus }, func(e *Effects, v float64) { e.CritMultPlus = v }},
	{channelAdditive, func(e *Effects) float64 { return e.ComboHoldPlus }, func(e *Effects, v float64) { e.ComboHoldPlus = v }},
	{channelAdditive, func(e *Effects) float64 { return e.SkillExtendPerClick }, func(e *Effects, v float64) { e.SkillExtendPerClick = v }},
	{channelAdditive, func(e *Effects) float64 { return e.EnemyCastSlow }, func(e *Effects, v float64) { e.EnemyCastSlow = v }},
	{channelAdditive, func(e *Effects) float64 { return e.InstantHappyPlus }, func(e *Effects, v float64) { e.InstantHappyPlus = v }},
	{channelAdditive, func(e *Effects) float64 { return e.DrainResist }, func(e *Effects, v float64) { e.DrainResist = v }},
}

func neutral() Effects {
	e := Effects{}
	for _, ch := range channels {
		if ch.kind == channelMultiplicative {
			ch.set(&e, 1)
		}
	}
	return e
}

// foldOnce folds a single contribution into acc, raised to the given power
// for multiplicative channels and scaled linearly for additive ones. N
// levels of a x1.05 node compound as 1.05^N rather than 1+0.05N.
func foldOnce(acc *Effects, contribution Effects, times float64) {
	if times <= 0 {
		return
	}
	for _, ch := range channels {
		value := ch.get(&contribution)
		switch ch.kind {
		case channelMultiplicative:
			if value != 0 && value != 1 {
				ch.set(acc, ch.get(acc)*math.Pow(value, times))
			}
		case channelAdditive:
			if value != 0 {
				ch.set(acc, ch.get(acc)+value*times)
			}
		}
	}
}

// MetaLevels maps a meta-node id to its purchased level.
type MetaLevels map[string]int

// MetaNode is a permanent upgrade whose PerLevel effects apply once per
// purchased level.
type MetaNode struct {
	ID           string
	Archetype    string
	MaxLevel     int
	PerLevel     Effects
	CostPerLevel int
}

// Fold computes the final multipliers from meta nodes (each contributing
// PerLevel raised by its level) and the ordered acquired bonus list (each
// contributing its effects once per stack). Pure and side-effect free.
func Fold(nodes []MetaNode, levels MetaLevels, acquired []Effects) Final {
	acc := neutral()
	for _, node := range nodes {
		level := levels[node.ID]
		if level > node.MaxLevel {
			level = node.MaxLevel
		}
		foldOnce(&acc, node.PerLevel, float64(level))
	}
	for _, bonus := range acquired {
		foldOnce(&acc, bonus, 1)
	}
	return Final{
		ClickMult:           acc.ClickMult,
		PpsMult:             acc.PpsMult,
		CritChancePlus:      acc.CritChancePlus,
		CritMultPlus:        acc.CritMultPlus,
		ComboHoldPlus:       acc.ComboHoldPlus,
		SkillCdMult:         acc.SkillCdMult,
		SkillExtendPerClick: acc.SkillExtendPerClick,
		DotMult:             acc.DotMult,
		EnemyCastSlow:       acc.EnemyCastSlow,
		InstantHappyPlus:    acc.InstantHappyPlus,
		BossDamageMult:      acc.BossDamageMult,
		DrainResist:         acc.DrainResist,
	}
}
