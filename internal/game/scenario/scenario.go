// Package scenario loads encounter definitions from YAML content files: the
// encounter identity, its RNG seed, the effect-script hooks, and the roster
// of combatant archetypes grouped by team.
package scenario

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Scenario is a fully loaded encounter definition.
type Scenario struct {
	// ID is the encounter identifier. Empty means the scheduler generates one.
	ID string
	// Name is the human-readable scenario title.
	Name string
	// Seed is the RNG seed for the encounter. 0 means the runner chooses.
	Seed int64
	// ScriptDir overrides the configured effect-script directory when set.
	ScriptDir string
	// Teams holds each team's roster in declaration order.
	Teams []TeamRoster
}

// TeamRoster is one team's combatant list.
type TeamRoster struct {
	Team    combat.Team
	Members []Member
}

// Member is one combatant archetype entry.
type Member struct {
	ID                  string
	Name                string
	Stats               combat.Stats
	BaseInitiativeBonus int
}

// Combatants instantiates the scenario's roster in declaration order: teams
// in file order, members in list order. Each call produces fresh Stats and
// Runtime records.
//
// Postcondition: Returned combatants own their records exclusively; calling
// twice never shares state between the two rosters.
func (s *Scenario) Combatants() []*combat.Combatant {
	var roster []*combat.Combatant
	for _, team := range s.Teams {
		for _, m := range team.Members {
			roster = append(roster, combat.NewCombatant(
				m.ID, m.Name, team.Team, m.Stats, m.BaseInitiativeBonus,
			))
		}
	}
	return roster
}

// Validate checks scenario invariants: at least one team, at least one member
// per team, unique non-empty member IDs across teams, and positive max health.
//
// Postcondition: Returns nil if the scenario is valid, or an error describing
// all violations.
func (s *Scenario) Validate() error {
	var errs []string

	if s.Name == "" {
		errs = append(errs, "scenario name must not be empty")
	}
	if len(s.Teams) == 0 {
		errs = append(errs, "scenario must declare at least one team")
	}

	seen := make(map[string]bool)
	for _, team := range s.Teams {
		if team.Team == "" {
			errs = append(errs, "team name must not be empty")
		}
		if len(team.Members) == 0 {
			errs = append(errs, fmt.Sprintf("team %q has no members", team.Team))
		}
		for _, m := range team.Members {
			switch {
			case m.ID == "":
				errs = append(errs, fmt.Sprintf("team %q has a member with no id", team.Team))
			case seen[m.ID]:
				errs = append(errs, fmt.Sprintf("duplicate combatant id %q", m.ID))
			default:
				seen[m.ID] = true
			}
			if m.Stats.MaxHealth < 1 {
				errs = append(errs, fmt.Sprintf("combatant %q max_health must be >= 1", m.ID))
			}
			if m.Stats.MaxActionPoints < 0 {
				errs = append(errs, fmt.Sprintf("combatant %q max_action_points must be >= 0", m.ID))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("scenario validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
