package domain

import "fmt"

// Skill is one candidate action in the catalog. Skills are immutable
// after load; the core never creates or destroys them.
//
// A sensing skill has GoalCoefficient = 0, an acting skill typically has
// InfoCoefficient = 0, and a balanced skill has both nonzero.
type Skill struct {
	Name            string  `json:"name"`
	Cost            float64 `json:"cost"`
	GoalCoefficient float64 `json:"goal_coefficient"`
	InfoCoefficient float64 `json:"info_coefficient"`

	// Variable optionally binds the skill to a belief variable. A bound
	// skill is scored against that variable's probability; an unbound
	// skill scores against a neutral p = 0.5.
	Variable string `json:"variable,omitempty"`

	// FavorableWhenFalse inverts the favorable direction: the skill
	// succeeds when the bound variable is false (e.g. "try door" is
	// favorable when door_locked is false).
	FavorableWhenFalse bool `json:"favorable_when_false,omitempty"`
}

// SkillCatalog is the ordered list of candidate skills for an episode.
// Declaration order is the deterministic tie-break order.
type SkillCatalog []Skill

// Validate checks the catalog for configuration defects.
func (c SkillCatalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("skill catalog is empty")
	}

	seen := make(map[string]struct{}, len(c))
	for i, s := range c {
		if s.Name == "" {
			return fmt.Errorf("skill at index %d has no name", i)
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("duplicate skill name %q", s.Name)
		}
		seen[s.Name] = struct{}{}

		if s.Cost < 0 {
			return fmt.Errorf("skill %q has negative cost %v", s.Name, s.Cost)
		}
	}
	return nil
}

// Get returns the skill with the given name, if present.
func (c SkillCatalog) Get(name string) (Skill, bool) {
	for _, s := range c {
		if s.Name == name {
			return s, true
		}
	}
	return Skill{}, false
}
