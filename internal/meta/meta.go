// Package meta owns cross-run progression: the Cat Soul balance and the
// permanent upgrade levels. Gameplay mutates it through exactly one path,
// the run engine's finish step; everything else is explicit purchase.
package meta

import "math"

// Progress is the persistent meta-progression state.
type Progress struct {
	CatSouls          int            `json:"catSouls"`
	PermanentUpgrades map[string]int `json:"permanentUpgrades"`
}

// Store wraps Progress with the mutation rules.
type Store struct {
	progress Progress
}

// NewStore returns an empty progression store.
func NewStore() *Store {
	return &Store{progress: Progress{PermanentUpgrades: make(map[string]int)}}
}

// Restore replaces the store contents with a sanitized copy of saved.
func (s *Store) Restore(saved Progress) {
	if saved.CatSouls < 0 {
		saved.CatSouls = 0
	}
	upgrades := make(map[string]int, len(saved.PermanentUpgrades))
	for id, level := range saved.PermanentUpgrades {
		if level > 0 {
			upgrades[id] = level
		}
	}
	s.progress = Progress{CatSouls: saved.CatSouls, PermanentUpgrades: upgrades}
}

// Progress returns a copy of the current state.
func (s *Store) Progress() Progress {
	upgrades := make(map[string]int, len(s.progress.PermanentUpgrades))
	for id, level := range s.progress.PermanentUpgrades {
		upgrades[id] = level
	}
	return Progress{CatSouls: s.progress.CatSouls, PermanentUpgrades: upgrades}
}

// Souls returns the current Cat Soul balance.
func (s *Store) Souls() int {
	return s.progress.CatSouls
}

// UpgradeLevel returns the purchased level of an upgrade or node.
func (s *Store) UpgradeLevel(id string) int {
	return s.progress.PermanentUpgrades[id]
}

// Levels returns the full upgrade level map (shared read-only view).
func (s *Store) Levels() map[string]int {
	return s.progress.PermanentUpgrades
}

// AddSouls credits the balance; non-positive amounts are ignored.
func (s *Store) AddSouls(amount int) {
	if amount <= 0 {
		return
	}
	s.progress.CatSouls += amount
}

// SpendSouls debits the balance, reporting whether it covered the amount.
func (s *Store) SpendSouls(amount int) bool {
	if amount <= 0 {
		return true
	}
	if s.progress.CatSouls < amount {
		return false
	}
	s.progress.CatSouls -= amount
	return true
}

// UpgradeCost computes the soul price of the next level for a growth-priced
// upgrade.
func UpgradeCost(baseCost, costGrowth float64, currentLevel int) int {
	return int(math.Ceil(baseCost * math.Pow(costGrowth, float64(currentLevel))))
}

// BuyUpgrade purchases one level of a growth-priced upgrade. Reports
// whether the purchase succeeded; level caps and insufficient souls reject
// silently.
func (s *Store) BuyUpgrade(id string, baseCost, costGrowth float64, maxLevel int) bool {
	level := s.progress.PermanentUpgrades[id]
	if maxLevel > 0 && level >= maxLevel {
		return false
	}
	if !s.SpendSouls(UpgradeCost(baseCost, costGrowth, level)) {
		return false
	}
	s.progress.PermanentUpgrades[id] = level + 1
	return true
}

// BuyNode purchases one level of a flat-priced build meta node.
func (s *Store) BuyNode(id string, costPerLevel, maxLevel int) bool {
	level := s.progress.PermanentUpgrades[id]
	if maxLevel > 0 && level >= maxLevel {
		return false
	}
	if !s.SpendSouls(costPerLevel) {
		return false
	}
	s.progress.PermanentUpgrades[id] = level + 1
	return true
}
