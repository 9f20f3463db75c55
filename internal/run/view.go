package run

import (
	"math"
	"time"

	"purrfect-run/server/internal/content"
	"purrfect-run/server/internal/stagegen"
)

// View is the read-only snapshot broadcast to clients. All fields are
// copies; mutating a View never touches engine state.
type View struct {
	Active      bool   `json:"active"`
	RunID       string `json:"runId,omitempty"`
	Seed        uint32 `json:"seed,omitempty"`
	CharacterID string `json:"characterId,omitempty"`

	StageIndex  int     `json:"stageIndex"`
	StageCount  int     `json:"stageCount"`
	EnemyIndex  int     `json:"enemyIndex"`
	Happy       float64 `json:"happy"`
	TotalPets   float64 `json:"totalPets"`
	ClickPower  float64 `json:"clickPower"`
	Pps         float64 `json:"pps"`
	GameStage   int     `json:"gameStage"`
	StagesClear int     `json:"stagesCleared"`

	Stage *StageView `json:"stage,omitempty"`

	BossEngaged  bool    `json:"bossEngaged"`
	BossTimeLeft float64 `json:"bossTimeLeft,omitempty"`

	Reward  *RewardView `json:"reward,omitempty"`
	Summary *Summary    `json:"summary,omitempty"`

	Skills []SkillView `json:"skills,omitempty"`
	Shop   []ShopView  `json:"shop,omitempty"`

	ActiveArchetype string         `json:"activeArchetype,omitempty"`
	PickedCards     []string       `json:"pickedCards,omitempty"`
	FloatingTexts   []FloatingText `json:"floatingTexts,omitempty"`

	CatSouls int `json:"catSouls"`
}

// StageView is the current stage with per-encounter HP.
type StageView struct {
	Name       string      `json:"name"`
	Order      int         `json:"order"`
	Difficulty float64     `json:"difficulty"`
	Enemies    []EnemyView `json:"enemies"`
	Boss       EnemyView   `json:"boss"`
}

// EnemyView is one encounter's client-visible state.
type EnemyView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Hp          float64 `json:"hp"`
	MaxHp       float64 `json:"maxHp"`
	RewardHappy float64 `json:"rewardHappy"`
	Boss        bool    `json:"boss,omitempty"`
}

// RewardView is the open reward overlay.
type RewardView struct {
	Choices    []string `json:"choices"`
	Tier       string   `json:"tier"`
	StageIndex int      `json:"stageIndex"`
}

// SkillView is one ability's availability state.
type SkillView struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Running           bool    `json:"running"`
	Cooling           bool    `json:"cooling"`
	RemainingCooldown float64 `json:"remainingCooldown,omitempty"`
	RemainingDuration float64 `json:"remainingDuration,omitempty"`
}

// ShopView is one shop item with its current run-scoped price.
type ShopView struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Kind  string  `json:"kind"`
	Price float64 `json:"price"`
	Owned int     `json:"owned"`
}

// View assembles the client snapshot for the given instant.
func (e *Engine) View(now time.Time) View {
	v := View{
		Active:      e.state.Alive,
		RunID:       e.state.RunID,
		Seed:        e.state.Seed,
		CharacterID: e.state.CharacterID,
		StageIndex:  e.state.StageIndex,
		StageCount:  len(e.state.Stages),
		EnemyIndex:  e.state.EnemyIndex,
		Happy:       math.Floor(e.state.Happy),
		TotalPets:   e.state.TotalPets,
		ClickPower:  e.state.ClickPower,
		Pps:         e.state.Pps,
		GameStage:   e.state.GameStage,
		StagesClear: e.state.StagesCleared,
		BossEngaged: e.state.BossEngaged,
		CatSouls:    e.metaStore.Souls(),
	}
	if e.state.BossEngaged {
		v.BossTimeLeft = e.state.BossTimeLeft
	}

	if stage := e.state.currentStage(); stage != nil {
		v.Stage = stageView(stage)
	}

	if e.overlay.ShowReward {
		v.Reward = &RewardView{
			Choices:    append([]string(nil), e.overlay.RewardChoices...),
			Tier:       string(e.overlay.RewardTier),
			StageIndex: e.overlay.RewardStageIndex,
		}
	}
	if e.overlay.ShowSummary && e.overlay.Summary != nil {
		summary := *e.overlay.Summary
		v.Summary = &summary
	}

	for _, spec := range e.skills.Specs() {
		rem := e.skills.RemainingFor(spec.ID, now)
		v.Skills = append(v.Skills, SkillView{
			ID:                spec.ID,
			Name:              spec.Name,
			Running:           e.skills.IsRunning(spec.ID, now),
			Cooling:           e.skills.IsCooling(spec.ID, now),
			RemainingCooldown: rem.Cooldown,
			RemainingDuration: rem.Duration,
		})
	}

	if e.state.Alive {
		for _, item := range content.ShopItems() {
			v.Shop = append(v.Shop, ShopView{
				ID:    item.ID,
				Name:  item.Name,
				Kind:  string(item.Kind),
				Price: e.ShopPrice(item.ID),
				Owned: e.shopLevels[item.ID],
			})
		}
	}

	v.ActiveArchetype = e.build.ActiveArchetype()
	v.PickedCards = append([]string(nil), e.pickedCards...)
	v.FloatingTexts = append([]FloatingText(nil), e.floatingTexts...)
	return v
}

func stageView(stage *stagegen.Stage) *StageView {
	enemies := make([]EnemyView, 0, len(stage.Enemies))
	for i := range stage.Enemies {
		enemies = append(enemies, enemyView(&stage.Enemies[i], false))
	}
	return &StageView{
		Name:       stage.Name,
		Order:      stage.Order,
		Difficulty: stage.Difficulty,
		Enemies:    enemies,
		Boss:       enemyView(&stage.Boss, true),
	}
}

func enemyView(enemy *stagegen.Enemy, boss bool) EnemyView {
	return EnemyView{
		ID:          enemy.ID,
		Name:        enemy.Name,
		Hp:          enemy.Hp,
		MaxHp:       enemy.MaxHp,
		RewardHappy: enemy.RewardHappy,
		Boss:        boss,
	}
}
