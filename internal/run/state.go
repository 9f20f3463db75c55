// Package run owns the run state machine. Every gameplay mutation passes
// through an Engine operation; operations whose preconditions fail are
// silent no-ops, while unknown content ids panic (a content bug, never a
// player-visible condition).
package run

import (
	"time"

	"purrfect-run/server/internal/content"
	"purrfect-run/server/internal/stagegen"
)

// FinishKind distinguishes how a run ended.
type FinishKind string

const (
	FinishCleared FinishKind = "cleared"
	FinishAbandon FinishKind = "abandon"
)

// State is the mutable run data. It is owned by the Engine and only ever
// read from the outside through View snapshots.
type State struct {
	RunID       string
	Seed        uint32
	CharacterID string
	StartedAt   time.Time

	Stages     []stagegen.Stage
	StageIndex int
	EnemyIndex int

	Happy      float64
	TotalPets  float64
	ClickPower float64
	Pps        float64
	TempMods   content.TempMods

	Alive         bool
	Cleared       bool
	StagesCleared int

	BossEngaged  bool
	BossTimeLeft float64

	// GameStage counts elapsed 60-second wall-time intervals; each interval
	// rescales not-yet-defeated encounters.
	GameStage     int
	GameStageMult float64
}

// Summary is the immutable record produced when a run finishes.
type Summary struct {
	RunID         string     `json:"runId"`
	Seed          uint32     `json:"seed"`
	Kind          FinishKind `json:"kind"`
	Cleared       bool       `json:"cleared"`
	StagesCleared int        `json:"stagesCleared"`
	TotalStages   int        `json:"totalStages"`
	TotalHappy    float64    `json:"totalHappy"`
	PickedCards   []string   `json:"pickedCards,omitempty"`
	SoulsEarned   int        `json:"soulsEarned"`
	StartedAt     int64      `json:"startedAt"`
	DurationSec   float64    `json:"durationSec"`
}

// FloatingText is a transient per-click FX entry. Purely presentational;
// never persisted.
type FloatingText struct {
	ID        uint64  `json:"id"`
	Amount    float64 `json:"amount"`
	Crit      bool    `json:"crit"`
	ExpiresAt int64   `json:"expiresAt"`
}

// overlay tracks which modal the client is showing. While an overlay is up
// the simulation is paused: Tick, Click and HitBoss are no-ops.
type overlay struct {
	ShowReward       bool
	RewardChoices    []string
	RewardTier       stagegen.RewardTier
	RewardStageIndex int
	BossOpen         bool
	ShowSummary      bool
	Summary          *Summary
}

func (o *overlay) blocking() bool {
	return o.ShowReward || o.ShowSummary
}

func (o *overlay) clearReward() {
	o.ShowReward = false
	o.RewardChoices = nil
	o.RewardTier = ""
	o.RewardStageIndex = 0
}

// currentStage returns the stage under the cursor, or nil past the end.
func (s *State) currentStage() *stagegen.Stage {
	if s.StageIndex < 0 || s.StageIndex >= len(s.Stages) {
		return nil
	}
	return &s.Stages[s.StageIndex]
}

// currentEnemy returns the minion under the cursor, or nil when the stage's
// minions are exhausted.
func (s *State) currentEnemy() *stagegen.Enemy {
	stage := s.currentStage()
	if stage == nil || s.EnemyIndex < 0 || s.EnemyIndex >= len(stage.Enemies) {
		return nil
	}
	return &stage.Enemies[s.EnemyIndex]
}

// minionsExhausted reports whether every minion of the current stage is down.
func (s *State) minionsExhausted() bool {
	stage := s.currentStage()
	return stage != nil && s.EnemyIndex >= len(stage.Enemies)
}
