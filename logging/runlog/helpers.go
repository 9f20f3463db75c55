package runlog

import (
	"context"

	"purrfect-run/server/logging"
)

const (
	// EventStarted is emitted when a fresh run begins.
	EventStarted logging.EventType = "run.started"
	// EventStageCleared is emitted when a stage's boss goes down.
	EventStageCleared logging.EventType = "run.stage_cleared"
	// EventFinished is emitted when a run ends, win or loss.
	EventFinished logging.EventType = "run.finished"
	// EventAbandoned is emitted when the player gives up mid-run.
	EventAbandoned logging.EventType = "run.abandoned"
)

// StartedPayload captures the parameters a run begins with.
type StartedPayload struct {
	Seed        uint32 `json:"seed"`
	CharacterID string `json:"characterId,omitempty"`
	StageCount  int    `json:"stageCount"`
}

// StageClearedPayload records one cleared stage.
type StageClearedPayload struct {
	StageIndex int     `json:"stageIndex"`
	StageName  string  `json:"stageName"`
	Happy      float64 `json:"happy"`
}

// FinishedPayload summarises a completed run.
type FinishedPayload struct {
	Victory       bool    `json:"victory"`
	StagesCleared int     `json:"stagesCleared"`
	TotalPets     float64 `json:"totalPets"`
	SoulsEarned   int     `json:"soulsEarned"`
	DurationSec   float64 `json:"durationSec"`
}

// Started publishes a run start event.
func Started(ctx context.Context, pub logging.Publisher, runID string, actor logging.EntityRef, payload StartedPayload) {
	publish(ctx, pub, EventStarted, runID, actor, payload)
}

// StageCleared publishes a stage clear event.
func StageCleared(ctx context.Context, pub logging.Publisher, runID string, actor logging.EntityRef, payload StageClearedPayload) {
	publish(ctx, pub, EventStageCleared, runID, actor, payload)
}

// Finished publishes a run summary event.
func Finished(ctx context.Context, pub logging.Publisher, runID string, actor logging.EntityRef, payload FinishedPayload) {
	publish(ctx, pub, EventFinished, runID, actor, payload)
}

// Abandoned publishes a run abandonment event.
func Abandoned(ctx context.Context, pub logging.Publisher, runID string, actor logging.EntityRef) {
	publish(ctx, pub, EventAbandoned, runID, actor, nil)
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, runID string, actor logging.EntityRef, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryRun,
		Payload:  payload,
		RunID:    runID,
	})
}
