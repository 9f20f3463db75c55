package state

import (
	"encoding/json"

	"purrfect-run/server/internal/content"
	"purrfect-run/server/internal/meta"
	"purrfect-run/server/internal/skills"
)

// Snapshot versions. Loading a snapshot with a different version drops it
// whole rather than attempting migration.
const (
	RunSnapshotVersion  = 1
	MetaSnapshotVersion = 1
)

// Storage keys.
const (
	KeyRun  = "run"
	KeyMeta = "meta"
)

// RunSnapshot is the persisted form of a live run. Transient overlay and
// FX fields are deliberately absent; stages regenerate deterministically
// from the seed, so only HP overrides are stored.
type RunSnapshot struct {
	Version       int                    `json:"version"`
	RunID         string                 `json:"runId"`
	Seed          uint32                 `json:"seed"`
	CharacterID   string                 `json:"characterId"`
	StartedAt     int64                  `json:"startedAt"`
	StageIndex    int                    `json:"stageIndex"`
	EnemyIndex    int                    `json:"enemyIndex"`
	Happy         float64                `json:"happy"`
	TotalPets     float64                `json:"totalPets"`
	ClickPower    float64                `json:"clickPower"`
	Pps           float64                `json:"pps"`
	TempMods      content.TempMods       `json:"tempMods"`
	StagesCleared int                    `json:"stagesCleared"`
	BossTimeLeft  float64                `json:"bossTimeLeft,omitempty"`
	GameStage     int                    `json:"gameStage,omitempty"`
	EnemyHp       [][]float64            `json:"enemyHp"`
	BossHp        []float64              `json:"bossHp"`
	PickedCards   []string               `json:"pickedCards,omitempty"`
	Bonuses       []string               `json:"bonuses,omitempty"`
	ShopLevels    map[string]int         `json:"shopLevels,omitempty"`
	Skills        []skills.SnapshotEntry `json:"skills,omitempty"`
}

// MetaSnapshot is the persisted meta progression.
type MetaSnapshot struct {
	Version  int           `json:"version"`
	Progress meta.Progress `json:"progress"`
}

// SaveRun serializes and stores a run snapshot.
func SaveRun(store Store, snap RunSnapshot) error {
	snap.Version = RunSnapshotVersion
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return store.Set(KeyRun, data)
}

// LoadRun fetches and sanitizes the persisted run. Missing keys, malformed
// JSON, version mismatches, and snapshots without the required shape all
// report false: the caller starts fresh instead of resuming.
func LoadRun(store Store) (RunSnapshot, bool) {
	data, err := store.Get(KeyRun)
	if err != nil {
		return RunSnapshot{}, false
	}
	var snap RunSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return RunSnapshot{}, false
	}
	if snap.Version != RunSnapshotVersion {
		return RunSnapshot{}, false
	}
	if !sanitizeRun(&snap) {
		return RunSnapshot{}, false
	}
	return snap, true
}

func sanitizeRun(snap *RunSnapshot) bool {
	if snap.CharacterID == "" || !content.IsCharacterID(snap.CharacterID) {
		return false
	}
	if snap.StageIndex < 0 || len(snap.EnemyHp) == 0 || snap.StageIndex >= len(snap.EnemyHp) {
		return false
	}
	if len(snap.BossHp) != len(snap.EnemyHp) {
		return false
	}
	if snap.EnemyIndex < 0 {
		snap.EnemyIndex = 0
	}
	if snap.Happy < 0 {
		snap.Happy = 0
	}
	if snap.ClickPower <= 0 {
		snap.ClickPower = 1
	}
	if snap.Pps < 0 {
		snap.Pps = 0
	}
	if snap.StagesCleared < 0 {
		snap.StagesCleared = 0
	}
	if snap.GameStage < 0 {
		snap.GameStage = 0
	}
	if snap.BossTimeLeft < 0 {
		snap.BossTimeLeft = 0
	}
	levels := make(map[string]int, len(snap.ShopLevels))
	for id, level := range snap.ShopLevels {
		if level > 0 {
			levels[id] = level
		}
	}
	snap.ShopLevels = levels
	return true
}

// ClearRun removes the persisted run, if any.
func ClearRun(store Store) error {
	return store.Delete(KeyRun)
}

// SaveMeta serializes and stores the meta progression.
func SaveMeta(store Store, progress meta.Progress) error {
	data, err := json.Marshal(MetaSnapshot{Version: MetaSnapshotVersion, Progress: progress})
	if err != nil {
		return err
	}
	return store.Set(KeyMeta, data)
}

// LoadMeta fetches the persisted meta progression; corrupt data yields a
// fresh zero Progress.
func LoadMeta(store Store) (meta.Progress, bool) {
	data, err := store.Get(KeyMeta)
	if err != nil {
		return meta.Progress{}, false
	}
	var snap MetaSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return meta.Progress{}, false
	}
	if snap.Version != MetaSnapshotVersion {
		return meta.Progress{}, false
	}
	return snap.Progress, true
}
