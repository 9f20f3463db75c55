package run

import (
	"time"

	"purrfect-run/server/internal/buildagg"
	"purrfect-run/server/internal/content"
	"purrfect-run/server/internal/rng"
	"purrfect-run/server/internal/skills"
	"purrfect-run/server/internal/stagegen"
)

const (
	rewardChoiceCount = 3

	tierWeight1 = 1.0
	tierWeight2 = 0.65
	tierWeight3 = 0.35

	archetypeWeightBoost = 1.5

	saltRewardDraw uint32 = 0xabc98388
)

// prepareRewards opens the reward overlay for the given tier. Gated: while
// any overlay is already showing this is a no-op, so a defeat resolved
// during an open overlay cannot clobber pending choices.
func (e *Engine) prepareRewards(tier stagegen.RewardTier) {
	if e.overlay.blocking() {
		return
	}
	stage := e.state.currentStage()
	if stage == nil {
		return
	}
	choices := e.sampleRewards(stage, tier)
	if len(choices) == 0 {
		return
	}
	e.overlay.ShowReward = true
	e.overlay.RewardChoices = choices
	e.overlay.RewardTier = tier
	e.overlay.RewardStageIndex = e.state.StageIndex
}

// sampleRewards draws up to three cards from the stage's tier pool by
// weighted sampling without replacement. Weights fall with card tier and
// rise on a locked-archetype match. The generator is seeded from the run
// seed and stage index so re-preparing the same state offers the same
// cards.
func (e *Engine) sampleRewards(stage *stagegen.Stage, tier stagegen.RewardTier) []string {
	pool := stage.RewardPools.Standard
	tierKey := uint32(0)
	if tier == stagegen.TierBoss {
		pool = stage.RewardPools.Boss
		tierKey = 1
	}
	if len(pool) == 0 {
		return nil
	}

	candidates := append([]string(nil), pool...)
	archetype := e.build.ActiveArchetype()
	r := rng.New(rng.SeedFrom(e.state.Seed, uint32(e.state.StageIndex), tierKey, saltRewardDraw))

	count := rewardChoiceCount
	if count > len(candidates) {
		count = len(candidates)
	}
	choices := make([]string, 0, count)
	for len(choices) < count {
		idx := weightedIndex(r, candidates, archetype)
		choices = append(choices, candidates[idx])
		candidates = append(candidates[:idx], candidates[idx+1:]...)
	}
	return choices
}

func weightedIndex(r *rng.Rand, ids []string, archetype string) int {
	total := 0.0
	weights := make([]float64, len(ids))
	for i, id := range ids {
		w := cardWeight(content.MustRewardCard(id), archetype)
		weights[i] = w
		total += w
	}
	target := r.Next() * total
	for i, w := range weights {
		target -= w
		if target < 0 {
			return i
		}
	}
	return len(ids) - 1
}

func cardWeight(card content.RewardCard, archetype string) float64 {
	w := tierWeight1
	switch card.Tier {
	case 2:
		w = tierWeight2
	case 3:
		w = tierWeight3
	}
	if archetype != "" && card.Archetype == archetype {
		w *= archetypeWeightBoost
	}
	return w
}

// RewardChoices returns the currently offered card ids, or nil when no
// reward overlay is up.
func (e *Engine) RewardChoices() []string {
	if !e.overlay.ShowReward {
		return nil
	}
	return append([]string(nil), e.overlay.RewardChoices...)
}

// ApplyReward commits a reward pick: the card's temp-mod mutation, the
// linked build bonus (locking the archetype on the first pick), a skill
// modifier resync, and the post-reward advancement (boss auto-open after a
// standard pick, stage advance after a boss pick).
func (e *Engine) ApplyReward(cardID string, now time.Time) bool {
	if !e.state.Alive || !e.overlay.ShowReward {
		return false
	}
	if !containsID(e.overlay.RewardChoices, cardID) {
		return false
	}
	card := content.MustRewardCard(cardID)
	bonus := content.MustBuildBonus(card.BonusID)

	card.Apply(&e.state.TempMods)
	e.build.AddBonus(buildagg.Bonus{
		ID:        bonus.ID,
		Archetype: bonus.Archetype,
		Tier:      bonus.Tier,
		Effects:   bonus.Effects,
	})
	e.pickedCards = append(e.pickedCards, card.ID)
	e.removeFromPool(card.ID)

	char := content.MustCharacter(e.state.CharacterID)
	e.skills.SetRunModifiers(skills.ModifiersFromTempMods(e.state.TempMods, char.Passives))

	tier := e.overlay.RewardTier
	e.overlay.clearReward()

	switch tier {
	case stagegen.TierStandard:
		stage := e.state.currentStage()
		if stage != nil && e.state.minionsExhausted() && stage.Boss.Hp > 0 && !e.state.BossEngaged {
			e.OpenBoss(now)
		}
	case stagegen.TierBoss:
		e.advanceStage(now)
	}
	return true
}

// removeFromPool drops a picked card from both of the current stage's
// pools so later draws in the same stage cannot offer it again.
func (e *Engine) removeFromPool(cardID string) {
	stage := e.state.currentStage()
	if stage == nil {
		return
	}
	stage.RewardPools.Standard = removeID(stage.RewardPools.Standard, cardID)
	stage.RewardPools.Boss = removeID(stage.RewardPools.Boss, cardID)
}

func (e *Engine) advanceStage(now time.Time) {
	e.state.StageIndex++
	e.state.EnemyIndex = 0
	e.state.BossEngaged = false
	e.state.BossTimeLeft = 0
	if e.state.StageIndex >= len(e.state.Stages) {
		e.state.Cleared = true
		e.finish(FinishCleared, now)
	}
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
