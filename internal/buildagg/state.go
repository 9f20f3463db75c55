package buildagg

// Bonus is an acquired in-run reward bonus. Duplicates are allowed and
// stack; acquisition order is preserved for the run summary.
type Bonus struct {
	ID        string
	Archetype string
	Tier      int
	Effects   Effects
}

// State owns the run-scoped build accumulation: the locked-in archetype and
// the ordered list of acquired bonuses. Permanent meta nodes live in the
// meta store and are passed in at fold time.
type State struct {
	activeArchetype string
	acquired        []Bonus
}

// NewState returns an empty run-build state.
func NewState() *State {
	return &State{}
}

// ActiveArchetype reports the locked-in build archetype, or "" before the
// first pick.
func (s *State) ActiveArchetype() string {
	if s == nil {
		return ""
	}
	return s.activeArchetype
}

// AddBonus appends a bonus stack and locks the archetype on the first pick.
func (s *State) AddBonus(bonus Bonus) {
	if s == nil {
		return
	}
	if s.activeArchetype == "" {
		s.activeArchetype = bonus.Archetype
	}
	s.acquired = append(s.acquired, bonus)
}

// Acquired returns the acquired bonuses in pick order.
func (s *State) Acquired() []Bonus {
	if s == nil {
		return nil
	}
	return s.acquired
}

// ResetRun discards all run-scoped accumulation.
func (s *State) ResetRun() {
	if s == nil {
		return
	}
	s.activeArchetype = ""
	s.acquired = nil
}

// Final folds the given meta nodes and levels with the acquired bonuses.
func (s *State) Final(nodes []MetaNode, levels MetaLevels) Final {
	var acquired []Effects
	if s != nil {
		acquired = make([]Effects, 0, len(s.acquired))
		for _, bonus := range s.acquired {
			acquired = append(acquired, bonus.Effects)
		}
	}
	return Fold(nodes, levels, acquired)
}
