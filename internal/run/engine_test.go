package run

import (
	"math"
	"testing"
	"time"

	"purrfect-run/server/internal/buildagg"
	"purrfect-run/server/internal/meta"
)

var runEpoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// startRun builds an engine with a live run for the given character.
// guardianCat has no click, crit, or non-crit passives, so a clickPower of 1
// pays out exactly 1 Happy per pet.
func startRun(t *testing.T, characterID string) *Engine {
	t.Helper()
	e := NewEngine(meta.NewStore(), nil)
	if !e.SelectCharacter(characterID) {
		t.Fatalf("select %q failed", characterID)
	}
	if !e.NewRun(42, runEpoch) {
		t.Fatal("new run failed")
	}
	return e
}

// armFirstMinion pins the first encounter's HP so click tests cannot
// accidentally defeat it.
func armFirstMinion(e *Engine) {
	enemy := &e.state.Stages[0].Enemies[0]
	enemy.MaxHp = 100
	enemy.Hp = 100
	enemy.BaseMaxHp = 100
}

func TestNewRunPreconditions(t *testing.T) {
	e := NewEngine(meta.NewStore(), nil)
	if e.NewRun(42, runEpoch) {
		t.Fatal("run without a selected character should be rejected")
	}
	if e.SelectCharacter("notACat") {
		t.Fatal("unknown character should be rejected")
	}
	if !e.SelectCharacter("guardianCat") || !e.NewRun(42, runEpoch) {
		t.Fatal("valid start should succeed")
	}
	if e.NewRun(43, runEpoch) {
		t.Fatal("second run while one is live should be rejected")
	}
	if e.SelectCharacter("critCat") {
		t.Fatal("character switch during a live run should be rejected")
	}
}

func TestNewRunInitialState(t *testing.T) {
	e := startRun(t, "guardianCat")
	if e.state.ClickPower != 1 || e.state.Pps != 0 {
		t.Fatalf("starting stats %v/%v", e.state.ClickPower, e.state.Pps)
	}
	if len(e.state.Stages) != 5 || e.state.StageIndex != 0 || e.state.EnemyIndex != 0 {
		t.Fatalf("unexpected stage cursor: %+v", e.state)
	}
	if !e.Active() || e.state.Happy != 0 {
		t.Fatalf("unexpected run state: %+v", e.state)
	}
}

func TestSummonerStartingPps(t *testing.T) {
	e := startRun(t, "summonerCat")
	if e.state.Pps != 0.5 {
		t.Fatalf("starting pps %v, want 0.5", e.state.Pps)
	}
}

func TestClickBaseGain(t *testing.T) {
	e := startRun(t, "guardianCat")
	armFirstMinion(e)

	e.Click(runEpoch)
	if e.state.Happy != 1 {
		t.Fatalf("happy %v, want 1", e.state.Happy)
	}
	if e.state.TotalPets != 1 {
		t.Fatalf("pets %v, want 1", e.state.TotalPets)
	}
	enemy := &e.state.Stages[0].Enemies[0]
	if enemy.Hp != 99 {
		t.Fatalf("minion hp %v, want 99", enemy.Hp)
	}
	if len(e.floatingTexts) != 1 || e.floatingTexts[0].Crit {
		t.Fatalf("floating texts %+v", e.floatingTexts)
	}
}

func TestClickForcedCrit(t *testing.T) {
	e := startRun(t, "guardianCat")
	armFirstMinion(e)
	e.state.ClickPower = 5
	e.state.TempMods.CritChance = 1
	e.SetCritRoll(func() float64 { return 0 })

	e.Click(runEpoch)
	// Base crit multiplier is 2, guardianCat adds nothing: 5 x 2 = 10.
	if e.state.Happy != 10 {
		t.Fatalf("happy %v, want 10", e.state.Happy)
	}
	if !e.floatingTexts[0].Crit {
		t.Fatal("crit flag missing from floating text")
	}
	if hp := e.state.Stages[0].Enemies[0].Hp; hp != 90 {
		t.Fatalf("minion hp %v, want 90", hp)
	}
}

func TestGamblerClickPassives(t *testing.T) {
	e := startRun(t, "gamblerCat")
	armFirstMinion(e)

	// Forced miss: the non-crit multiplier scales the gain down.
	e.SetCritRoll(func() float64 { return 0.99 })
	e.Click(runEpoch)
	if math.Abs(e.state.Happy-0.9) > 1e-9 {
		t.Fatalf("non-crit gain %v, want 0.9", e.state.Happy)
	}

	// Forced crit: base 2 multiplier plus the 25% crit happy bonus.
	e.state.Happy = 0
	e.SetCritRoll(func() float64 { return 0 })
	e.Click(runEpoch)
	if math.Abs(e.state.Happy-2.5) > 1e-9 {
		t.Fatalf("crit gain %v, want 2.5", e.state.Happy)
	}
}

func TestCritHappyBonusDoesNotDamage(t *testing.T) {
	e := startRun(t, "gamblerCat")
	armFirstMinion(e)
	e.SetCritRoll(func() float64 { return 0 })

	e.Click(runEpoch)
	// The 25% crit happy bonus pays on top of the 1 x 2 crit gain...
	if math.Abs(e.state.Happy-2.5) > 1e-9 {
		t.Fatalf("happy %v, want 2.5", e.state.Happy)
	}
	// ...but the encounter only takes the crit gain itself.
	if hp := e.state.Stages[0].Enemies[0].Hp; math.Abs(hp-98) > 1e-9 {
		t.Fatalf("minion hp %v, want 98", hp)
	}
}

func TestInstantHappyBonusDoesNotDamage(t *testing.T) {
	e := startRun(t, "guardianCat")
	armFirstMinion(e)
	e.build.AddBonus(buildagg.Bonus{
		ID:        "jackpot",
		Archetype: "luck",
		Tier:      3,
		Effects:   buildagg.Effects{InstantHappyPlus: 0.1},
	})

	e.Click(runEpoch)
	if math.Abs(e.state.Happy-1.1) > 1e-9 {
		t.Fatalf("happy %v, want 1.1", e.state.Happy)
	}
	if hp := e.state.Stages[0].Enemies[0].Hp; math.Abs(hp-99) > 1e-9 {
		t.Fatalf("minion hp %v, want 99", hp)
	}
}

func TestTickPassiveIncome(t *testing.T) {
	e := startRun(t, "guardianCat")
	armFirstMinion(e)
	e.state.Pps = 10

	// guardianCat's passive pps multiplier is 1.1.
	e.Tick(2, runEpoch.Add(2*time.Second))
	if math.Abs(e.state.Happy-22) > 1e-9 {
		t.Fatalf("happy %v, want 22", e.state.Happy)
	}
	if hp := e.state.Stages[0].Enemies[0].Hp; math.Abs(hp-78) > 1e-9 {
		t.Fatalf("passive gain should damage the encounter, hp %v", hp)
	}
}

func TestTickGuards(t *testing.T) {
	e := startRun(t, "guardianCat")
	e.state.Pps = 10
	e.Tick(-1, runEpoch)
	e.Tick(0, runEpoch)
	if e.state.Happy != 0 {
		t.Fatalf("non-positive dt should be a no-op, happy %v", e.state.Happy)
	}
	e.overlay.ShowReward = true
	e.Tick(1, runEpoch.Add(time.Second))
	if e.state.Happy != 0 {
		t.Fatal("overlay should pause passive income")
	}
}

func TestGameStageRamp(t *testing.T) {
	e := startRun(t, "guardianCat")
	enemy := &e.state.Stages[0].Enemies[0]
	enemy.BaseMaxHp = 100
	enemy.MaxHp = 100
	enemy.Hp = 50
	enemy.BaseRewardHappy = 10
	defeated := &e.state.Stages[0].Enemies[1]
	defeated.Hp = 0
	beforeMax := defeated.MaxHp

	e.Tick(0.1, runEpoch.Add(61*time.Second))
	if e.state.GameStage != 1 {
		t.Fatalf("game stage %d, want 1", e.state.GameStage)
	}
	if math.Abs(e.state.GameStageMult-1.12) > 1e-9 {
		t.Fatalf("stage mult %v, want 1.12", e.state.GameStageMult)
	}
	if math.Abs(enemy.MaxHp-112) > 1e-9 {
		t.Fatalf("max hp %v, want 112", enemy.MaxHp)
	}
	// The in-progress encounter keeps its remaining-HP ratio.
	if math.Abs(enemy.Hp-56) > 1e-9 {
		t.Fatalf("hp %v, want 56", enemy.Hp)
	}
	if math.Abs(enemy.RewardHappy-11.2) > 1e-9 {
		t.Fatalf("reward %v, want 11.2", enemy.RewardHappy)
	}
	if defeated.Hp != 0 || defeated.MaxHp != beforeMax {
		t.Fatal("defeated encounters must not rescale")
	}
}

func TestClickAdvancesGameStage(t *testing.T) {
	e := startRun(t, "guardianCat")
	armFirstMinion(e)

	// A click past the first interval applies the ramp before its damage:
	// 100 max HP scales to 112, then takes the 1-point hit.
	e.Click(runEpoch.Add(61 * time.Second))
	if e.state.GameStage != 1 {
		t.Fatalf("game stage %d, want 1", e.state.GameStage)
	}
	if hp := e.state.Stages[0].Enemies[0].Hp; math.Abs(hp-111) > 1e-9 {
		t.Fatalf("minion hp %v, want 111", hp)
	}
}

func TestTriggerSkill(t *testing.T) {
	e := startRun(t, "guardianCat")
	if !e.TriggerSkill("cheerful", runEpoch) {
		t.Fatal("ready skill should trigger")
	}
	if e.TriggerSkill("cheerful", runEpoch.Add(time.Second)) {
		t.Fatal("running skill should not re-trigger")
	}
	if e.TriggerSkill("nosuch", runEpoch) {
		t.Fatal("unknown skill id should be rejected, not panic")
	}
}

func TestSkillAffectsPassiveIncome(t *testing.T) {
	e := startRun(t, "guardianCat")
	armFirstMinion(e)
	e.state.Pps = 10
	e.TriggerSkill("cheerful", runEpoch)

	// guardianCat overrides cheerful to a 1.9x pps multiplier; with the 1.1
	// passive the total is 10 x 1.9 x 1.1 per second.
	e.Tick(1, runEpoch.Add(time.Second))
	if math.Abs(e.state.Happy-20.9) > 1e-9 {
		t.Fatalf("happy %v, want 20.9", e.state.Happy)
	}
}

func TestShopPurchase(t *testing.T) {
	e := startRun(t, "guardianCat")
	e.state.Happy = 1000

	if price := e.ShopPrice("soft_brush"); price != 30 {
		t.Fatalf("price %v, want 30", price)
	}
	if !e.BuyShopItem("soft_brush", runEpoch) {
		t.Fatal("affordable purchase should succeed")
	}
	if e.state.Happy != 970 {
		t.Fatalf("happy %v, want 970", e.state.Happy)
	}
	if e.state.ClickPower != 1.5 {
		t.Fatalf("click power %v, want 1.5", e.state.ClickPower)
	}
	if price := e.ShopPrice("soft_brush"); price != 41 {
		t.Fatalf("second price %v, want 41", price)
	}
	if !e.BuyShopItem("soft_brush", runEpoch) {
		t.Fatal("second purchase should succeed")
	}
	if e.state.ClickPower != 2 {
		t.Fatalf("click power %v, want 2", e.state.ClickPower)
	}
}

func TestShopPurchaseInsufficient(t *testing.T) {
	e := startRun(t, "guardianCat")
	e.state.Happy = 10
	if e.BuyShopItem("soft_brush", runEpoch) {
		t.Fatal("unaffordable purchase should fail")
	}
	if e.state.Happy != 10 || e.state.ClickPower != 1 {
		t.Fatal("failed purchase must not mutate state")
	}
}

func TestShopDiscountFloor(t *testing.T) {
	e := startRun(t, "guardianCat")
	e.state.TempMods.ShopDiscount = 0.1
	// The discount floors at 40% of list price.
	if price := e.ShopPrice("soft_brush"); price != math.Ceil(30*shopDiscountFloor) {
		t.Fatalf("price %v, want %v", price, math.Ceil(30*shopDiscountFloor))
	}
}

func TestShopGainPenaltyByDifficulty(t *testing.T) {
	e := startRun(t, "guardianCat")
	e.state.Happy = 10000
	e.state.StageIndex = 4
	stage := e.state.currentStage()

	before := e.state.Pps
	if !e.BuyShopItem("treat_dispenser", runEpoch) {
		t.Fatal("purchase should succeed")
	}
	want := 0.4 * (1 - (stage.Difficulty-1)*shopGainPenalty)
	if got := e.state.Pps - before; math.Abs(got-want) > 1e-9 {
		t.Fatalf("pps gain %v, want %v", got, want)
	}
}

func TestBuyMetaUpgradeRecomputes(t *testing.T) {
	e := NewEngine(meta.NewStore(), nil)
	e.Meta().AddSouls(100)
	if !e.BuyMetaUpgrade("skill.durationPlus") {
		t.Fatal("purchase should succeed")
	}
	if e.Meta().Souls() != 60 {
		t.Fatalf("souls %d, want 60", e.Meta().Souls())
	}
	for _, spec := range e.Skills().Specs() {
		if spec.ID == "cheerful" && spec.BaseDuration != 11 {
			t.Fatalf("duration upgrade not applied, got %v", spec.BaseDuration)
		}
	}
}

func TestBuyMetaNode(t *testing.T) {
	e := NewEngine(meta.NewStore(), nil)
	e.Meta().AddSouls(20)
	if !e.BuyMetaNode("meta.engine.hub") {
		t.Fatal("purchase should succeed")
	}
	if e.Meta().Souls() != 10 {
		t.Fatalf("souls %d, want 10", e.Meta().Souls())
	}
	if e.BuyMetaNode("meta.luck.overflow") {
		t.Fatal("unaffordable node should be rejected")
	}
}

func TestAbandonAwardsSouls(t *testing.T) {
	e := startRun(t, "guardianCat")
	e.state.StagesCleared = 3
	e.Abandon(runEpoch.Add(time.Minute))
	if e.Active() {
		t.Fatal("run should be over")
	}
	if e.Meta().Souls() != 3 {
		t.Fatalf("souls %d, want 3", e.Meta().Souls())
	}
	summary := e.overlay.Summary
	if summary == nil || summary.Kind != FinishAbandon || summary.SoulsEarned != 3 {
		t.Fatalf("summary %+v", summary)
	}
	if summary.DurationSec != 60 {
		t.Fatalf("duration %v, want 60", summary.DurationSec)
	}
}

func TestAbandonMinimumSoul(t *testing.T) {
	e := startRun(t, "guardianCat")
	e.Abandon(runEpoch)
	if e.Meta().Souls() != 1 {
		t.Fatalf("souls %d, want the minimum 1", e.Meta().Souls())
	}
}

func TestDismissSummaryAllowsNewRun(t *testing.T) {
	e := startRun(t, "guardianCat")
	e.Abandon(runEpoch)
	if !e.overlay.ShowSummary {
		t.Fatal("summary overlay should be up")
	}
	e.DismissSummary()
	if e.overlay.ShowSummary || e.overlay.Summary != nil {
		t.Fatal("summary should be dismissed")
	}
	if !e.NewRun(7, runEpoch.Add(time.Minute)) {
		t.Fatal("new run after dismissal should succeed")
	}
}

func TestBossTimeoutEndsRun(t *testing.T) {
	e := startRun(t, "guardianCat")
	stage := e.state.currentStage()
	e.state.EnemyIndex = len(stage.Enemies)
	e.OpenBoss(runEpoch)
	if !e.state.BossEngaged {
		t.Fatal("boss should be engaged")
	}
	e.state.BossTimeLeft = 0.5

	e.Tick(1, runEpoch.Add(time.Second))
	if e.Active() {
		t.Fatal("timeout should end the run")
	}
	summary := e.overlay.Summary
	if summary == nil || summary.Kind != FinishAbandon {
		t.Fatalf("summary %+v", summary)
	}
	if e.Meta().Souls() != 1 {
		t.Fatalf("souls %d, want 1", e.Meta().Souls())
	}
}

func TestFloatingTextDecayAndCap(t *testing.T) {
	e := startRun(t, "guardianCat")
	armFirstMinion(e)
	for i := 0; i < floatingTextCap+10; i++ {
		e.Click(runEpoch)
	}
	if len(e.floatingTexts) != floatingTextCap {
		t.Fatalf("%d floating texts, want cap %d", len(e.floatingTexts), floatingTextCap)
	}
	e.Tick(0.1, runEpoch.Add(2*time.Second))
	if len(e.floatingTexts) != 0 {
		t.Fatalf("expired texts should decay, %d left", len(e.floatingTexts))
	}
}
