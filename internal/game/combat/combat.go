// Package combat implements the deterministic initiative scheduler for
// skirmish encounters: per-combatant stats and runtime records, the
// encounter state machine, seeded initiative ordering, and strike resolution.
package combat

// Team identifies which side a combatant fights for.
type Team string

// Combatant is one encounter participant. Stats and Runtime are owned value
// copies created by NewCombatant, so archetype definitions are never shared
// between instances.
type Combatant struct {
	ID      string
	Name    string
	Team    Team
	Stats   *Stats
	Runtime *Runtime
}

// NewCombatant creates a Combatant with its own cloned Stats and a fresh
// Runtime carrying baseInitiativeBonus.
//
// Precondition: id must be non-empty.
// Postcondition: Returned combatant owns its Stats and Runtime exclusively;
// stats invariants (health and AP within bounds) are enforced by clamping.
func NewCombatant(id, name string, team Team, stats Stats, baseInitiativeBonus int) *Combatant {
	s := stats
	s.clamp()
	return &Combatant{
		ID:      id,
		Name:    name,
		Team:    team,
		Stats:   &s,
		Runtime: &Runtime{BaseInitiativeBonus: baseInitiativeBonus},
	}
}

// IsDown reports whether this combatant has been eliminated.
func (c *Combatant) IsDown() bool {
	return c.Stats.IsDown()
}
