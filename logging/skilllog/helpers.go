package skilllog

import (
	"context"

	"purrfect-run/server/logging"
)

const (
	// EventTriggered is emitted when an ability activation is accepted.
	EventTriggered logging.EventType = "skills.triggered"
)

// TriggeredPayload captures the resolved windows of an accepted trigger.
type TriggeredPayload struct {
	SkillID     string  `json:"skillId"`
	DurationSec float64 `json:"durationSec"`
	CooldownSec float64 `json:"cooldownSec"`
}

// Triggered publishes an ability activation event.
func Triggered(ctx context.Context, pub logging.Publisher, runID string, actor logging.EntityRef, payload TriggeredPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTriggered,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySkills,
		Payload:  payload,
		RunID:    runID,
	})
}
