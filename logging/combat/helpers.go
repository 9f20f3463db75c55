package combat

import (
	"context"

	"purrfect-run/server/logging"
)

const (
	// EventEnemyDefeated is emitted whenever an encounter's HP reaches zero.
	EventEnemyDefeated logging.EventType = "combat.enemy_defeated"
	// EventBossTimeout is emitted when a boss outlasts its time limit.
	EventBossTimeout logging.EventType = "combat.boss_timeout"
	// EventSpecialTriggered is emitted when a boss special fires.
	EventSpecialTriggered logging.EventType = "combat.special_triggered"
)

// EnemyDefeatedPayload records one defeated encounter.
type EnemyDefeatedPayload struct {
	StageIndex  int     `json:"stageIndex"`
	RewardHappy float64 `json:"rewardHappy"`
	Boss        bool    `json:"boss,omitempty"`
}

// SpecialPayload records a boss special activation.
type SpecialPayload struct {
	Kind      string  `json:"kind"`
	Magnitude float64 `json:"magnitude"`
}

// EnemyDefeated publishes an encounter defeat event.
func EnemyDefeated(ctx context.Context, pub logging.Publisher, runID string, enemy logging.EntityRef, payload EnemyDefeatedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventEnemyDefeated,
		Actor:    enemy,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		RunID:    runID,
	})
}

// BossTimeout publishes a boss-timer expiry event.
func BossTimeout(ctx context.Context, pub logging.Publisher, runID string, boss logging.EntityRef, stageIndex int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBossTimeout,
		Actor:    boss,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryCombat,
		Payload:  map[string]any{"stageIndex": stageIndex},
		RunID:    runID,
	})
}

// SpecialTriggered publishes a boss special activation event.
func SpecialTriggered(ctx context.Context, pub logging.Publisher, runID string, boss logging.EntityRef, payload SpecialPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSpecialTriggered,
		Actor:    boss,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		RunID:    runID,
	})
}
