package run

import (
	"math"
	"time"

	"purrfect-run/server/internal/buildagg"
	"purrfect-run/server/internal/content"
	"purrfect-run/server/internal/skills"
	"purrfect-run/server/internal/state"
)

// Snapshot exports the live run for persistence. Reports false when no run
// is in progress; overlay and floating-text state is never included.
func (e *Engine) Snapshot() (state.RunSnapshot, bool) {
	if !e.state.Alive {
		return state.RunSnapshot{}, false
	}
	enemyHp := make([][]float64, len(e.state.Stages))
	bossHp := make([]float64, len(e.state.Stages))
	for i := range e.state.Stages {
		stage := &e.state.Stages[i]
		hps := make([]float64, len(stage.Enemies))
		for j := range stage.Enemies {
			hps[j] = stage.Enemies[j].Hp
		}
		enemyHp[i] = hps
		bossHp[i] = stage.Boss.Hp
	}

	bonuses := make([]string, 0, len(e.build.Acquired()))
	for _, bonus := range e.build.Acquired() {
		bonuses = append(bonuses, bonus.ID)
	}
	shopLevels := make(map[string]int, len(e.shopLevels))
	for id, level := range e.shopLevels {
		shopLevels[id] = level
	}

	return state.RunSnapshot{
		RunID:         e.state.RunID,
		Seed:          e.state.Seed,
		CharacterID:   e.state.CharacterID,
		StartedAt:     e.state.StartedAt.UnixMilli(),
		StageIndex:    e.state.StageIndex,
		EnemyIndex:    e.state.EnemyIndex,
		Happy:         e.state.Happy,
		TotalPets:     e.state.TotalPets,
		ClickPower:    e.state.ClickPower,
		Pps:           e.state.Pps,
		TempMods:      e.state.TempMods,
		StagesCleared: e.state.StagesCleared,
		BossTimeLeft:  e.state.BossTimeLeft,
		GameStage:     e.state.GameStage,
		EnemyHp:       enemyHp,
		BossHp:        bossHp,
		PickedCards:   append([]string(nil), e.pickedCards...),
		Bonuses:       bonuses,
		ShopLevels:    shopLevels,
		Skills:        e.skills.Snapshot(),
	}, true
}

// RestoreSnapshot rebuilds a live run from a sanitized snapshot. Stages
// regenerate deterministically from the seed, then stored HP values
// overwrite the fresh rolls. Engagement and overlay state does not
// survive a restore; the boss time limit does. Unknown bonus ids in
// persisted data are skipped, never fatal.
func (e *Engine) RestoreSnapshot(snap state.RunSnapshot, now time.Time) bool {
	char, ok := content.CharacterFor(snap.CharacterID)
	if !ok {
		return false
	}

	stages := generateStages(snap.Seed, 1, char.StartingPps)
	if snap.StageIndex >= len(stages) {
		return false
	}

	e.state = State{
		RunID:         snap.RunID,
		Seed:          snap.Seed,
		CharacterID:   char.ID,
		StartedAt:     time.UnixMilli(snap.StartedAt),
		Stages:        stages,
		StageIndex:    snap.StageIndex,
		EnemyIndex:    snap.EnemyIndex,
		Happy:         snap.Happy,
		TotalPets:     snap.TotalPets,
		ClickPower:    snap.ClickPower,
		Pps:           snap.Pps,
		TempMods:      snap.TempMods,
		Alive:         true,
		StagesCleared: snap.StagesCleared,
		BossTimeLeft:  snap.BossTimeLeft,
		GameStage:     snap.GameStage,
		GameStageMult: math.Pow(gameStageFactor, float64(snap.GameStage)),
	}
	if e.state.EnemyIndex > len(stages[e.state.StageIndex].Enemies) {
		e.state.EnemyIndex = len(stages[e.state.StageIndex].Enemies)
	}
	e.rescaleRemaining()
	e.applyStoredHp(snap)

	e.overlay = overlay{}
	e.floatingTexts = nil
	e.pickedCards = append([]string(nil), snap.PickedCards...)
	e.shopLevels = make(map[string]int, len(snap.ShopLevels))
	for id, level := range snap.ShopLevels {
		if _, known := content.ShopItemFor(id); known && level > 0 {
			e.shopLevels[id] = level
		}
	}

	e.build.ResetRun()
	for _, id := range snap.Bonuses {
		bonus, known := content.BuildBonusFor(id)
		if !known {
			continue
		}
		e.build.AddBonus(buildagg.Bonus{ID: bonus.ID, Archetype: bonus.Archetype, Tier: bonus.Tier, Effects: bonus.Effects})
	}

	e.skills.Recompute(e.metaStore.Levels(), char.ID)
	e.skills.SetRunModifiers(skills.ModifiersFromTempMods(e.state.TempMods, char.Passives))
	e.skills.Restore(snap.Skills, now)

	// The crit stream restarts on restore; call position is not persisted.
	e.critRoll = newCritStream(e.state.Seed)
	return true
}

func (e *Engine) applyStoredHp(snap state.RunSnapshot) {
	for i := range e.state.Stages {
		stage := &e.state.Stages[i]
		if i < len(snap.EnemyHp) {
			for j := range stage.Enemies {
				if j < len(snap.EnemyHp[i]) {
					stage.Enemies[j].Hp = clampHp(snap.EnemyHp[i][j], stage.Enemies[j].MaxHp)
				}
			}
		}
		if i < len(snap.BossHp) {
			stage.Boss.Hp = clampHp(snap.BossHp[i], stage.Boss.MaxHp)
		}
	}
}

func clampHp(hp, max float64) float64 {
	if hp < 0 {
		return 0
	}
	if hp > max {
		return max
	}
	return hp
}
