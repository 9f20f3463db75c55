package run

import (
	"context"
	"fmt"
	"math"
	"time"

	"purrfect-run/server/internal/buildagg"
	"purrfect-run/server/internal/content"
	"purrfect-run/server/internal/meta"
	"purrfect-run/server/internal/rng"
	"purrfect-run/server/internal/skills"
	"purrfect-run/server/logging"
	"purrfect-run/server/logging/runlog"
	"purrfect-run/server/logging/skilllog"
)

const (
	gameStageIntervalSec = 60.0
	gameStageFactor      = 1.12

	shopDiscountFloor = 0.4
	shopGainFloor     = 0.45
	shopGainPenalty   = 0.12

	floatingTextTTL = 1200 * time.Millisecond
	floatingTextCap = 24

	saltCritStream uint32 = 0x00c57a11
)

// Engine drives one player's runs. Operations are synchronous and must be
// serialized by the caller (the hub holds the session lock); one wall-clock
// time is sampled per operation and threaded through.
type Engine struct {
	metaStore *meta.Store
	skills    *skills.Runtime
	build     *buildagg.State
	pub       logging.Publisher

	state       State
	overlay     overlay
	shopLevels  map[string]int
	pickedCards []string

	floatingTexts  []FloatingText
	nextFloatingID uint64

	// critRoll returns the next [0,1) crit roll. Defaults to a dedicated
	// per-run stream; tests inject forced rolls.
	critRoll func() float64
}

// NewEngine builds an engine bound to the given meta store. A nil publisher
// disables event logging.
func NewEngine(metaStore *meta.Store, pub logging.Publisher) *Engine {
	if metaStore == nil {
		metaStore = meta.NewStore()
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	e := &Engine{
		metaStore:  metaStore,
		skills:     skills.NewRuntime(),
		build:      buildagg.NewState(),
		pub:        pub,
		shopLevels: make(map[string]int),
	}
	e.skills.Recompute(metaStore.Levels(), "")
	return e
}

// SetCritRoll overrides the crit roll source. Passing nil restores the
// default per-run stream.
func (e *Engine) SetCritRoll(roll func() float64) {
	e.critRoll = roll
}

// Meta exposes the bound progression store.
func (e *Engine) Meta() *meta.Store {
	return e.metaStore
}

// Skills exposes the ability runtime (read paths for views and tests).
func (e *Engine) Skills() *skills.Runtime {
	return e.skills
}

// Active reports whether a live run is in progress.
func (e *Engine) Active() bool {
	return e.state.Alive
}

// CharacterID returns the selected character, or "" before selection.
func (e *Engine) CharacterID() string {
	return e.state.CharacterID
}

// SelectCharacter picks the character for subsequent runs. Rejected while a
// run is live or for unknown ids. Reports whether the selection took.
func (e *Engine) SelectCharacter(id string) bool {
	if e.state.Alive {
		return false
	}
	if !content.IsCharacterID(id) {
		return false
	}
	e.state.CharacterID = id
	e.skills.Recompute(e.metaStore.Levels(), id)
	return true
}

// NewRun starts a fresh run from the given seed. Requires a selected
// character; rejected while a run is already live.
func (e *Engine) NewRun(seed uint32, now time.Time) bool {
	if e.state.Alive {
		return false
	}
	if e.state.CharacterID == "" {
		return false
	}
	char := content.MustCharacter(e.state.CharacterID)

	clickPower := 1.0
	pps := char.StartingPps

	e.state = State{
		RunID:         fmt.Sprintf("run-%08x-%d", seed, now.UnixMilli()),
		Seed:          seed,
		CharacterID:   char.ID,
		StartedAt:     now,
		Stages:        generateStages(seed, clickPower, pps),
		ClickPower:    clickPower,
		Pps:           pps,
		Alive:         true,
		GameStageMult: 1,
	}
	e.overlay = overlay{}
	e.shopLevels = make(map[string]int)
	e.pickedCards = nil
	e.floatingTexts = nil

	e.build.ResetRun()
	e.skills.ResetAll()
	e.skills.Recompute(e.metaStore.Levels(), char.ID)
	e.skills.SetRunModifiers(skills.ModifiersFromTempMods(e.state.TempMods, char.Passives))

	e.critRoll = newCritStream(seed)

	runlog.Started(context.Background(), e.pub, e.state.RunID,
		logging.EntityRef{ID: char.ID, Kind: logging.EntityKindPlayer},
		runlog.StartedPayload{Seed: seed, CharacterID: char.ID, StageCount: len(e.state.Stages)})
	return true
}

// mults is the per-operation fold of every modifier source: temp-mods,
// running skills, character passives, and build/meta effects.
type mults struct {
	click          float64
	pps            float64
	critChance     float64
	critMult       float64
	tickRateFactor float64
	final          buildagg.Final
	passives       content.PassiveMods
}

func (e *Engine) foldMults(now time.Time) mults {
	agg := e.skills.AggregatesAt(now)
	final := e.build.Final(content.MetaNodes(), e.metaStore.Levels())
	var passives content.PassiveMods
	if e.state.CharacterID != "" {
		passives = content.MustCharacter(e.state.CharacterID).Passives
	}
	temp := e.state.TempMods

	critChance := clamp01(temp.CritChance + agg.CritChancePlus + passives.CritChancePlus + final.CritChancePlus)
	critMult := content.MultOr(temp.CritMult, 2) + agg.CritMultPlus + passives.CritMultPlus + final.CritMultPlus
	if critMult < 1 {
		critMult = 1
	}

	return mults{
		click:          content.MultOr(temp.ClickMult, 1) * agg.ClickMult * content.MultOr(passives.ClickMult, 1) * final.ClickMult,
		pps:            content.MultOr(temp.PpsMult, 1) * agg.PpsMult * content.MultOr(passives.PpsMult, 1) * final.PpsMult,
		critChance:     critChance,
		critMult:       critMult,
		tickRateFactor: agg.TickRateFactor,
		final:          final,
		passives:       passives,
	}
}

// Tick advances the simulation by dt seconds. No-op while no run is live or
// an overlay is showing; the boss timer and passive income pause with the
// overlay, the skill clock does not.
func (e *Engine) Tick(dt float64, now time.Time) {
	e.skills.Tick(now)
	e.decayFloatingTexts(now)
	if !e.state.Alive || e.overlay.blocking() || dt <= 0 {
		return
	}

	e.advanceGameStage(now)

	m := e.foldMults(now)
	gain := e.state.Pps * m.pps * dt * m.tickRateFactor
	gain *= 1 + m.final.InstantHappyPlus
	if gain > 0 {
		e.state.Happy += gain
	}

	if e.state.BossEngaged {
		e.resolveBossSpecials(now, m)
		e.state.BossTimeLeft -= dt
		if e.state.BossTimeLeft <= 0 {
			boss := &e.state.currentStage().Boss
			e.logBossTimeout(boss)
			e.finish(FinishAbandon, now)
			return
		}
	}

	if gain > 0 {
		e.applyEncounterDamage(gain, now, m)
	}
}

// Click resolves one pet. Guarded like Tick. The gain feeds Happy and is
// routed as damage to the current encounter; the crit and instant bonuses
// pay into Happy only.
func (e *Engine) Click(now time.Time) {
	if !e.state.Alive || e.overlay.blocking() {
		return
	}
	e.skills.Tick(now)
	m := e.foldMults(now)

	gain, bonusHappy, crit := e.resolveClickGain(m)
	e.state.Happy += gain + bonusHappy
	e.state.TotalPets++
	e.pushFloatingText(gain+bonusHappy, crit, now)

	if m.final.SkillExtendPerClick > 0 {
		e.skills.ExtendRunning(m.final.SkillExtendPerClick, now)
	}

	e.advanceGameStage(now)
	e.applyEncounterDamage(gain, now, m)
}

// resolveClickGain computes one click's gain through the crit pipeline:
// aggregated chance, additive multiplier on a base of 2, the character's
// non-crit penalty on a miss. The character's crit happy bonus and the
// instantHappyPlus build effect accrue into bonusHappy, which feeds the
// currency but never the encounter damage.
func (e *Engine) resolveClickGain(m mults) (gain, bonusHappy float64, crit bool) {
	gain = e.state.ClickPower * m.click
	crit = e.roll() < m.critChance
	if crit {
		gain *= m.critMult
		bonusHappy = gain * m.passives.CritHappyBonus
	} else {
		gain *= content.MultOr(m.passives.NonCritMultiplier, 1)
	}
	bonusHappy += gain * m.final.InstantHappyPlus
	return gain, bonusHappy, crit
}

func (e *Engine) roll() float64 {
	if e.critRoll == nil {
		return 1
	}
	return e.critRoll()
}

// TriggerSkill activates an ability. Rejections (unknown id, still running
// or cooling, no live run) are silent. Reports whether the trigger took.
func (e *Engine) TriggerSkill(id string, now time.Time) bool {
	if !e.state.Alive || e.overlay.ShowSummary {
		return false
	}
	e.skills.Tick(now)
	if !e.skills.Trigger(id, now) {
		return false
	}
	rem := e.skills.RemainingFor(id, now)
	skilllog.Triggered(context.Background(), e.pub, e.state.RunID,
		logging.EntityRef{ID: id, Kind: logging.EntityKindSkill},
		skilllog.TriggeredPayload{SkillID: id, DurationSec: rem.Duration, CooldownSec: rem.Cooldown})
	return true
}

// BuyShopItem purchases one copy of a run-scoped shop item. Price compounds
// per owned copy and honors the temp-mod discount floored at 40 %; the stat
// gain is penalized by stage difficulty, floored at 45 %.
func (e *Engine) BuyShopItem(id string, now time.Time) bool {
	if !e.state.Alive || e.overlay.ShowSummary {
		return false
	}
	item := content.MustShopItem(id)

	price := e.ShopPrice(id)
	if e.state.Happy < price {
		return false
	}
	e.state.Happy -= price
	e.shopLevels[id]++

	difficulty := 1.0
	if stage := e.state.currentStage(); stage != nil {
		difficulty = stage.Difficulty
	}
	penalty := 1 - (difficulty-1)*shopGainPenalty
	if penalty < shopGainFloor {
		penalty = shopGainFloor
	}
	gain := item.Gain * penalty

	switch item.Kind {
	case content.ShopItemClick:
		e.state.ClickPower += gain
	case content.ShopItemPps:
		e.state.Pps += gain
	}

	e.pub.Publish(context.Background(), logging.Event{
		Type:     "economy.shop_purchase",
		Actor:    logging.EntityRef{ID: item.ID, Kind: logging.EntityKindPlayer},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  map[string]any{"itemId": item.ID, "price": price, "owned": e.shopLevels[id]},
		RunID:    e.state.RunID,
	})
	return true
}

// ShopPrice computes the current price of a shop item for this run.
func (e *Engine) ShopPrice(id string) float64 {
	item := content.MustShopItem(id)
	owned := e.shopLevels[id]
	discount := content.MultOr(e.state.TempMods.ShopDiscount, 1)
	if discount < shopDiscountFloor {
		discount = shopDiscountFloor
	}
	return math.Ceil(item.BasePrice * math.Pow(item.Growth, float64(owned)) * discount)
}

// BuyMetaUpgrade purchases one level of a skill meta upgrade with Cat
// Souls. Unknown ids panic; insufficient souls or the level cap reject
// silently.
func (e *Engine) BuyMetaUpgrade(id string) bool {
	spec := content.MustMetaUpgrade(id)
	if !e.metaStore.BuyUpgrade(spec.ID, spec.BaseCost, spec.CostGrowth, spec.MaxLevel) {
		return false
	}
	e.skills.Recompute(e.metaStore.Levels(), e.state.CharacterID)
	return true
}

// BuyMetaNode purchases one level of a permanent build node.
func (e *Engine) BuyMetaNode(id string) bool {
	node := content.MustMetaNode(id)
	return e.metaStore.BuyNode(node.ID, node.CostPerLevel, node.MaxLevel)
}

// Abandon ends the live run early. Souls are still awarded.
func (e *Engine) Abandon(now time.Time) {
	if !e.state.Alive {
		return
	}
	runlog.Abandoned(context.Background(), e.pub, e.state.RunID,
		logging.EntityRef{ID: e.state.CharacterID, Kind: logging.EntityKindPlayer})
	e.finish(FinishAbandon, now)
}

// DismissSummary acknowledges the end-of-run summary overlay.
func (e *Engine) DismissSummary() {
	e.overlay.ShowSummary = false
	e.overlay.Summary = nil
}

// finish seals the run: summary, soul award, state teardown. The only
// gameplay path that mutates meta progression.
func (e *Engine) finish(kind FinishKind, now time.Time) {
	souls := e.state.StagesCleared
	if souls < 1 {
		souls = 1
	}
	e.metaStore.AddSouls(souls)

	summary := Summary{
		RunID:         e.state.RunID,
		Seed:          e.state.Seed,
		Kind:          kind,
		Cleared:       e.state.Cleared,
		StagesCleared: e.state.StagesCleared,
		TotalStages:   len(e.state.Stages),
		TotalHappy:    math.Floor(e.state.Happy),
		PickedCards:   append([]string(nil), e.pickedCards...),
		SoulsEarned:   souls,
		StartedAt:     e.state.StartedAt.UnixMilli(),
		DurationSec:   now.Sub(e.state.StartedAt).Seconds(),
	}

	e.state.Alive = false
	e.state.BossEngaged = false
	e.overlay.clearReward()
	e.overlay.BossOpen = false
	e.overlay.ShowSummary = true
	e.overlay.Summary = &summary

	e.skills.ResetAll()
	e.build.ResetRun()

	runlog.Finished(context.Background(), e.pub, summary.RunID,
		logging.EntityRef{ID: e.state.CharacterID, Kind: logging.EntityKindPlayer},
		runlog.FinishedPayload{
			Victory:       kind == FinishCleared,
			StagesCleared: summary.StagesCleared,
			TotalPets:     e.state.TotalPets,
			SoulsEarned:   souls,
			DurationSec:   summary.DurationSec,
		})
}

// advanceGameStage applies the 60-second wall-time difficulty ramp. Each
// elapsed interval multiplies remaining encounter HP by the stage factor;
// the in-progress encounter keeps its remaining-HP ratio, defeated and
// already-passed encounters are untouched.
func (e *Engine) advanceGameStage(now time.Time) {
	elapsed := now.Sub(e.state.StartedAt).Seconds()
	intervals := int(elapsed / gameStageIntervalSec)
	if intervals <= e.state.GameStage {
		return
	}
	steps := intervals - e.state.GameStage
	e.state.GameStage = intervals
	e.state.GameStageMult *= math.Pow(gameStageFactor, float64(steps))
	e.rescaleRemaining()
}

func (e *Engine) rescaleRemaining() {
	mult := e.state.GameStageMult
	for si := e.state.StageIndex; si < len(e.state.Stages); si++ {
		stage := &e.state.Stages[si]
		start := 0
		if si == e.state.StageIndex {
			start = e.state.EnemyIndex
		}
		for ei := start; ei < len(stage.Enemies); ei++ {
			rescaleEnemy(&stage.Enemies[ei], mult)
		}
		rescaleEnemy(&stage.Boss, mult)
	}
}

func (e *Engine) decayFloatingTexts(now time.Time) {
	if len(e.floatingTexts) == 0 {
		return
	}
	cutoff := now.UnixMilli()
	kept := e.floatingTexts[:0]
	for _, ft := range e.floatingTexts {
		if ft.ExpiresAt > cutoff {
			kept = append(kept, ft)
		}
	}
	e.floatingTexts = kept
}

func (e *Engine) pushFloatingText(amount float64, crit bool, now time.Time) {
	e.nextFloatingID++
	e.floatingTexts = append(e.floatingTexts, FloatingText{
		ID:        e.nextFloatingID,
		Amount:    amount,
		Crit:      crit,
		ExpiresAt: now.Add(floatingTextTTL).UnixMilli(),
	})
	if len(e.floatingTexts) > floatingTextCap {
		e.floatingTexts = e.floatingTexts[len(e.floatingTexts)-floatingTextCap:]
	}
}

func newCritStream(seed uint32) func() float64 {
	r := rng.New(rng.SeedFrom(seed, saltCritStream))
	return r.Next
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
