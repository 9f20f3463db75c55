package run

import (
	"context"
	"time"

	"purrfect-run/server/internal/content"
	"purrfect-run/server/internal/stagegen"
	"purrfect-run/server/logging"
	"purrfect-run/server/logging/combat"
	"purrfect-run/server/logging/runlog"
)

func generateStages(seed uint32, baseClick, basePps float64) []stagegen.Stage {
	return stagegen.Generate(seed, baseClick, basePps)
}

// rescaleEnemy applies the game-stage multiplier to a living encounter,
// preserving the remaining-HP ratio. Defeated encounters keep their zero HP.
func rescaleEnemy(enemy *stagegen.Enemy, mult float64) {
	if enemy.Hp <= 0 {
		return
	}
	ratio := 1.0
	if enemy.MaxHp > 0 {
		ratio = enemy.Hp / enemy.MaxHp
	}
	enemy.MaxHp = enemy.BaseMaxHp * mult
	enemy.Hp = enemy.MaxHp * ratio
	enemy.RewardHappy = enemy.BaseRewardHappy * mult
}

// applyEncounterDamage routes damage to the current encounter: minions in
// slice order first, then the boss but only while engaged. Damage to a
// non-engaged boss is impossible by construction.
func (e *Engine) applyEncounterDamage(amount float64, now time.Time, m mults) {
	if amount <= 0 {
		return
	}
	if enemy := e.state.currentEnemy(); enemy != nil {
		enemy.Hp -= amount * enemy.DamageTakenMult
		if enemy.Hp <= 0 {
			enemy.Hp = 0
			e.onMinionDefeated(enemy)
		}
		return
	}
	if e.state.BossEngaged {
		e.damageBoss(amount, now, m)
	}
}

// HitBoss resolves a direct boss strike: the click pipeline plus the boss
// multiplier stack, with specials resolved before the damage lands. A
// strike on a closed boss fight engages it instead of dealing damage.
func (e *Engine) HitBoss(now time.Time) {
	if !e.state.Alive || e.overlay.blocking() {
		return
	}
	if !e.state.minionsExhausted() {
		return
	}
	stage := e.state.currentStage()
	if stage == nil || stage.Boss.Hp <= 0 {
		return
	}
	if !e.state.BossEngaged {
		e.OpenBoss(now)
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

	temp := e.state.TempMods
	bossStack := content.MultOr(temp.BossClickMult, 1) *
		content.MultOr(temp.BossDamageMult, 1) *
		content.MultOr(m.passives.BossTakenMult, 1) *
		m.final.BossDamageMult

	edge := e.resolveBossSpecials(now, m)
	e.damageBoss(gain*bossStack*edge, now, m)
}

func (e *Engine) damageBoss(amount float64, now time.Time, m mults) {
	stage := e.state.currentStage()
	if stage == nil {
		return
	}
	boss := &stage.Boss
	if boss.Hp <= 0 {
		return
	}
	boss.Hp -= amount * boss.DamageTakenMult * e.barrierFactor(boss, now)
	if boss.Hp > 0 {
		return
	}
	boss.Hp = 0
	e.state.Happy += boss.RewardHappy
	e.state.BossEngaged = false
	e.overlay.BossOpen = false
	e.state.StagesCleared++

	combat.EnemyDefeated(context.Background(), e.pub, e.state.RunID,
		logging.EntityRef{ID: boss.ID, Kind: logging.EntityKindEnemy},
		combat.EnemyDefeatedPayload{StageIndex: e.state.StageIndex, RewardHappy: boss.RewardHappy, Boss: true})
	runlog.StageCleared(context.Background(), e.pub, e.state.RunID,
		logging.EntityRef{ID: e.state.CharacterID, Kind: logging.EntityKindPlayer},
		runlog.StageClearedPayload{StageIndex: e.state.StageIndex, StageName: stage.Name, Happy: e.state.Happy})

	e.prepareRewards(stagegen.TierBoss)
}

func (e *Engine) onMinionDefeated(enemy *stagegen.Enemy) {
	e.state.Happy += enemy.RewardHappy
	e.state.EnemyIndex++

	combat.EnemyDefeated(context.Background(), e.pub, e.state.RunID,
		logging.EntityRef{ID: enemy.ID, Kind: logging.EntityKindEnemy},
		combat.EnemyDefeatedPayload{StageIndex: e.state.StageIndex, RewardHappy: enemy.RewardHappy})

	e.prepareRewards(stagegen.TierStandard)
}

// OpenBoss engages the stage boss. Only valid once every minion is down and
// the boss is alive; idempotent, and re-entry resumes the remaining time
// limit rather than resetting it.
func (e *Engine) OpenBoss(now time.Time) {
	if !e.state.Alive || e.overlay.blocking() {
		return
	}
	stage := e.state.currentStage()
	if stage == nil || !e.state.minionsExhausted() || stage.Boss.Hp <= 0 {
		return
	}
	if e.state.BossEngaged {
		return
	}
	e.state.BossEngaged = true
	e.overlay.BossOpen = true
	if e.state.BossTimeLeft <= 0 {
		e.state.BossTimeLeft = stage.Boss.TimeLimitSec
	}
	// Baseline special cooldowns so the first trigger waits a full cycle.
	for i := range stage.Boss.Specials {
		if stage.Boss.Specials[i].LastTriggeredAt.IsZero() {
			stage.Boss.Specials[i].LastTriggeredAt = now
		}
	}
}

// CloseBoss disengages without resetting the remaining time limit.
func (e *Engine) CloseBoss() {
	if !e.state.Alive {
		return
	}
	e.state.BossEngaged = false
	e.overlay.BossOpen = false
}

// resolveBossSpecials fires any special whose cooldown elapsed. Barriers
// open an active damage-reduction window; drains remove a fraction of
// current Happy on the trigger edge, mitigated by drain resist. The
// returned factor carries zero-duration barriers that triggered this call,
// which never open a window but still dampen the triggering strike.
func (e *Engine) resolveBossSpecials(now time.Time, m mults) float64 {
	edge := 1.0
	stage := e.state.currentStage()
	if stage == nil || stage.Boss.Hp <= 0 {
		return edge
	}
	for i := range stage.Boss.Specials {
		sp := &stage.Boss.Specials[i]
		cooldown := sp.Cooldown * (1 + m.final.EnemyCastSlow)
		if sp.LastTriggeredAt.IsZero() {
			sp.LastTriggeredAt = now
			continue
		}
		if now.Sub(sp.LastTriggeredAt).Seconds() < cooldown {
			continue
		}
		sp.LastTriggeredAt = now
		switch sp.Kind {
		case content.SpecialBarrier:
			if sp.Duration > 0 {
				sp.ActiveUntil = now.Add(time.Duration(sp.Duration * float64(time.Second)))
			} else {
				edge *= sp.Magnitude
			}
		case content.SpecialDrain:
			resist := clamp01(e.state.TempMods.DrainResist + m.final.DrainResist)
			drained := e.state.Happy * sp.Magnitude * (1 - resist)
			if drained > e.state.Happy {
				drained = e.state.Happy
			}
			if drained > 0 {
				e.state.Happy -= drained
			}
		}
		combat.SpecialTriggered(context.Background(), e.pub, e.state.RunID,
			logging.EntityRef{ID: stage.Boss.ID, Kind: logging.EntityKindEnemy},
			combat.SpecialPayload{Kind: string(sp.Kind), Magnitude: sp.Magnitude})
	}
	return edge
}

// barrierFactor multiplies together the magnitudes of every active barrier.
func (e *Engine) barrierFactor(boss *stagegen.Enemy, now time.Time) float64 {
	factor := 1.0
	for i := range boss.Specials {
		sp := &boss.Specials[i]
		if sp.Kind == content.SpecialBarrier && now.Before(sp.ActiveUntil) {
			factor *= sp.Magnitude
		}
	}
	return factor
}

func (e *Engine) logBossTimeout(boss *stagegen.Enemy) {
	combat.BossTimeout(context.Background(), e.pub, e.state.RunID,
		logging.EntityRef{ID: boss.ID, Kind: logging.EntityKindEnemy}, e.state.StageIndex)
}
