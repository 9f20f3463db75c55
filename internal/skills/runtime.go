// Package skills tracks cooldown and active-duration state for the active
// ability set and aggregates the effect contributions of currently running
// abilities. Windows are wall-clock timestamps re-evaluated on every call;
// nothing runs in the background.
package skills

import (
	"sort"
	"time"

	"purrfect-run/server/internal/content"
)

// Runtime state for one ability. Ready when both windows have elapsed.
type abilityRuntime struct {
	coolingDownUntil time.Time
	runningUntil     time.Time
	lastTriggeredAt  time.Time
}

// RunModifiers are the run-scoped adjustments derived from temp-mods and
// character passives; they shape trigger durations and cooldowns.
type RunModifiers struct {
	DurationBonus float64
	CooldownMult  float64
}

// Aggregates is the combined contribution of all running abilities.
type Aggregates struct {
	ClickMult      float64
	PpsMult        float64
	CritChancePlus float64
	CritMultPlus   float64
	TickRateFactor float64
	Active         []string
}

// Remaining reports seconds left on an ability's windows.
type Remaining struct {
	Cooldown float64
	Duration float64
}

// Runtime owns the ability state for one session. Specs are derived from
// meta-progression levels and the selected character and must be recomputed
// whenever either changes.
type Runtime struct {
	specs        map[string]content.SkillSpec
	order        []string
	rt           map[string]*abilityRuntime
	runModifiers RunModifiers
}

// NewRuntime builds a runtime with base specs and no meta or character
// adjustments.
func NewRuntime() *Runtime {
	r := &Runtime{
		rt:           make(map[string]*abilityRuntime),
		runModifiers: RunModifiers{CooldownMult: 1},
	}
	r.Recompute(nil, "")
	return r
}

// Recompute rebuilds the ability specs from permanent upgrade levels and
// the selected character's overrides and unique abilities. Runtime windows
// for abilities that survive the rebuild are preserved.
func (r *Runtime) Recompute(metaLevels map[string]int, characterID string) {
	durationLevel := metaLevels[content.MetaUpgradeSkillDuration]
	cdLevel := metaLevels[content.MetaUpgradeSkillCd]
	durationBonus := float64(durationLevel) * content.MetaDurationPerLevel
	cdFactor := 1 - float64(cdLevel)*content.MetaCdReducePerLevel
	if cdFactor < content.MetaCdFloor {
		cdFactor = content.MetaCdFloor
	}

	var char content.CharacterSpec
	if characterID != "" {
		char = content.MustCharacter(characterID)
	}

	specs := make(map[string]content.SkillSpec)
	order := make([]string, 0, len(content.BaseSkills())+len(char.UniqueSkills))
	for _, base := range content.BaseSkills() {
		spec := base
		if override, ok := char.ActiveOverrides[base.ID]; ok {
			if override.BaseCd > 0 {
				spec.BaseCd = override.BaseCd
			}
			if override.BaseDuration > 0 {
				spec.BaseDuration = override.BaseDuration
			}
			if override.Effect != nil {
				spec.Effect = *override.Effect
			}
		}
		if spec.ID == "cheerful" {
			if level := metaLevels[content.MetaUpgradeCheerfulPps]; level > 0 {
				spec.Effect.PpsMult += float64(level) * content.CheerfulMetaPpsPerLevel
			}
		}
		spec.BaseDuration = atLeast(spec.BaseDuration+durationBonus, 0.5)
		spec.BaseCd = atLeast(spec.BaseCd*cdFactor, 0.5)
		specs[spec.ID] = spec
		order = append(order, spec.ID)
	}
	for _, unique := range char.UniqueSkills {
		spec := unique
		spec.BaseDuration = atLeast(spec.BaseDuration+durationBonus, 0.5)
		spec.BaseCd = atLeast(spec.BaseCd*cdFactor, 0.5)
		specs[spec.ID] = spec
		order = append(order, spec.ID)
	}

	r.specs = specs
	r.order = order
	for id := range r.rt {
		if _, ok := specs[id]; !ok {
			delete(r.rt, id)
		}
	}
}

// SetRunModifiers installs the temp-mod derived adjustments. A zero or
// negative cooldown multiplier is coerced to 0.1 rather than disabling
// cooldowns entirely.
func (r *Runtime) SetRunModifiers(mods RunModifiers) {
	if mods.CooldownMult <= 0 {
		mods.CooldownMult = 0.1
	}
	r.runModifiers = mods
}

// ModifiersFromTempMods derives run modifiers from the temp-mod bag plus
// the character's passive cooldown/duration adjustments.
func ModifiersFromTempMods(mods content.TempMods, passives content.PassiveMods) RunModifiers {
	cdMult := content.MultOr(mods.SkillCdMult, 1) * content.MultOr(passives.SkillCdMult, 1)
	return RunModifiers{
		DurationBonus: mods.SkillDurationPlus + passives.SkillDurationPlus,
		CooldownMult:  cdMult,
	}
}

// Specs returns the current ability specs in declaration order.
func (r *Runtime) Specs() []content.SkillSpec {
	specs := make([]content.SkillSpec, 0, len(r.order))
	for _, id := range r.order {
		specs = append(specs, r.specs[id])
	}
	return specs
}

// IsRunning reports whether the ability's active window covers now.
func (r *Runtime) IsRunning(id string, now time.Time) bool {
	rt := r.rt[id]
	return rt != nil && now.Before(rt.runningUntil)
}

// IsCooling reports whether the ability is on cooldown and not running.
func (r *Runtime) IsCooling(id string, now time.Time) bool {
	rt := r.rt[id]
	return rt != nil && !now.Before(rt.runningUntil) && now.Before(rt.coolingDownUntil)
}

// RemainingFor reports seconds left on the ability's windows.
func (r *Runtime) RemainingFor(id string, now time.Time) Remaining {
	rt := r.rt[id]
	if rt == nil {
		return Remaining{}
	}
	var rem Remaining
	if now.Before(rt.coolingDownUntil) {
		rem.Cooldown = rt.coolingDownUntil.Sub(now).Seconds()
	}
	if now.Before(rt.runningUntil) {
		rem.Duration = rt.runningUntil.Sub(now).Seconds()
	}
	return rem
}

// Trigger activates an ability. Rejected (silently) while it is running or
// cooling, or when the id is unknown to the current spec set. Reports
// whether the trigger took effect.
func (r *Runtime) Trigger(id string, now time.Time) bool {
	spec, ok := r.specs[id]
	if !ok {
		return false
	}
	if rt := r.rt[id]; rt != nil {
		if now.Before(rt.runningUntil) || now.Before(rt.coolingDownUntil) {
			return false
		}
	}
	duration := atLeast(spec.BaseDuration+r.runModifiers.DurationBonus, 0.5)
	cooldown := atLeast(spec.BaseCd*r.runModifiers.CooldownMult, 0.5)
	r.rt[id] = &abilityRuntime{
		runningUntil:     now.Add(secondsDur(duration)),
		coolingDownUntil: now.Add(secondsDur(cooldown)),
		lastTriggeredAt:  now,
	}
	return true
}

// Tick clears windows that ended at or before now. Called before every
// gameplay-affecting read so stale "active" state never leaks into a
// computation.
func (r *Runtime) Tick(now time.Time) {
	for _, rt := range r.rt {
		if !rt.runningUntil.IsZero() && !now.Before(rt.runningUntil) {
			rt.runningUntil = time.Time{}
		}
		if !rt.coolingDownUntil.IsZero() && !now.Before(rt.coolingDownUntil) {
			rt.coolingDownUntil = time.Time{}
		}
	}
}

// ExtendRunning pushes the active window of every running ability by the
// given seconds (the per-click skill-extension build effect).
func (r *Runtime) ExtendRunning(seconds float64, now time.Time) {
	if seconds <= 0 {
		return
	}
	for _, rt := range r.rt {
		if now.Before(rt.runningUntil) {
			rt.runningUntil = rt.runningUntil.Add(secondsDur(seconds))
		}
	}
}

// AggregatesAt folds the contributions of every running ability:
// multiplicative channels multiply, additive channels sum, and tick-rate
// haste contributes the reciprocal of its multiplier.
func (r *Runtime) AggregatesAt(now time.Time) Aggregates {
	agg := Aggregates{ClickMult: 1, PpsMult: 1, TickRateFactor: 1}
	for _, id := range r.order {
		rt := r.rt[id]
		if rt == nil || !now.Before(rt.runningUntil) {
			continue
		}
		effect := r.specs[id].Effect
		agg.Active = append(agg.Active, id)
		if effect.ClickMult != 0 {
			agg.ClickMult *= effect.ClickMult
		}
		if effect.PpsMult != 0 {
			agg.PpsMult *= effect.PpsMult
		}
		agg.CritChancePlus += effect.CritChancePlus
		agg.CritMultPlus += effect.CritMultPlus
		if effect.TickRateMult > 0 {
			agg.TickRateFactor *= 1 / effect.TickRateMult
		}
	}
	return agg
}

// ResetAll clears every runtime window; called at run start and run end.
func (r *Runtime) ResetAll() {
	r.rt = make(map[string]*abilityRuntime)
}

// SnapshotEntry is the persisted form of one ability's runtime windows.
type SnapshotEntry struct {
	ID               string `json:"id"`
	CoolingDownUntil int64  `json:"coolingDownUntil,omitempty"`
	RunningUntil     int64  `json:"runningUntil,omitempty"`
	LastTriggeredAt  int64  `json:"lastTriggeredAt,omitempty"`
}

// Snapshot exports the runtime windows as unix-millisecond timestamps,
// sorted by ability id for stable output.
func (r *Runtime) Snapshot() []SnapshotEntry {
	entries := make([]SnapshotEntry, 0, len(r.rt))
	for id, rt := range r.rt {
		entries = append(entries, SnapshotEntry{
			ID:               id,
			CoolingDownUntil: unixMilliOrZero(rt.coolingDownUntil),
			RunningUntil:     unixMilliOrZero(rt.runningUntil),
			LastTriggeredAt:  unixMilliOrZero(rt.lastTriggeredAt),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// Restore re-derives runtime state from persisted timestamps. Windows that
// ended in the past are dropped, never resumed: a persisted "active" flag
// is not trusted on its own.
func (r *Runtime) Restore(entries []SnapshotEntry, now time.Time) {
	r.rt = make(map[string]*abilityRuntime)
	for _, entry := range entries {
		if _, ok := r.specs[entry.ID]; !ok {
			continue
		}
		rt := &abilityRuntime{}
		if entry.CoolingDownUntil > 0 {
			if until := time.UnixMilli(entry.CoolingDownUntil); now.Before(until) {
				rt.coolingDownUntil = until
			}
		}
		if entry.RunningUntil > 0 {
			if until := time.UnixMilli(entry.RunningUntil); now.Before(until) {
				rt.runningUntil = until
			}
		}
		if entry.LastTriggeredAt > 0 {
			rt.lastTriggeredAt = time.UnixMilli(entry.LastTriggeredAt)
		}
		if rt.coolingDownUntil.IsZero() && rt.runningUntil.IsZero() && rt.lastTriggeredAt.IsZero() {
			continue
		}
		r.rt[entry.ID] = rt
	}
}

func atLeast(value, min float64) float64 {
	if value < min {
		return min
	}
	return value
}

func secondsDur(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func unixMilliOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
