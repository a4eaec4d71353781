package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// yamlScenarioFile is the top-level YAML structure for scenario files.
type yamlScenarioFile struct {
	Scenario yamlScenario `yaml:"scenario"`
}

// yamlScenario is the YAML representation of a scenario.
type yamlScenario struct {
	ID        string     `yaml:"id"`
	Name      string     `yaml:"name"`
	Seed      int64      `yaml:"seed"`
	ScriptDir string     `yaml:"script_dir"`
	Teams     []yamlTeam `yaml:"teams"`
}

// yamlTeam is the YAML representation of one team's roster.
type yamlTeam struct {
	Name    string       `yaml:"name"`
	Members []yamlMember `yaml:"members"`
}

// yamlMember is the YAML representation of a combatant archetype.
type yamlMember struct {
	ID                  string `yaml:"id"`
	Name                string `yaml:"name"`
	MaxHealth           int    `yaml:"max_health"`
	MaxActionPoints     int    `yaml:"max_action_points"`
	Speed               int    `yaml:"speed"`
	Agility             int    `yaml:"agility"`
	InitiativeBonus     int    `yaml:"initiative_bonus"`
	BaseInitiativeBonus int    `yaml:"base_initiative_bonus"`
}

// LoadFromFile reads and validates a single scenario YAML file.
//
// Precondition: path must point to a valid YAML scenario file.
// Postcondition: Returns a validated Scenario or a non-nil error.
func LoadFromFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a scenario from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the scenario schema.
// Postcondition: Returns a validated Scenario or a non-nil error.
func LoadFromBytes(data []byte) (*Scenario, error) {
	var file yamlScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}

	s := convertYAMLScenario(file.Scenario)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validating scenario: %w", err)
	}

	return s, nil
}

// LoadFromDir loads all YAML files in a directory as scenarios.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated scenarios or the first error encountered.
func LoadFromDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory %s: %w", dir, err)
	}

	var scenarios []*Scenario
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		s, err := LoadFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading scenario from %s: %w", name, err)
		}
		scenarios = append(scenarios, s)
	}

	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	return scenarios, nil
}

// convertYAMLScenario converts the parsed YAML structures into domain types.
func convertYAMLScenario(ys yamlScenario) *Scenario {
	s := &Scenario{
		ID:        ys.ID,
		Name:      ys.Name,
		Seed:      ys.Seed,
		ScriptDir: ys.ScriptDir,
	}

	for _, yt := range ys.Teams {
		roster := TeamRoster{Team: combat.Team(yt.Name)}
		for _, ym := range yt.Members {
			roster.Members = append(roster.Members, Member{
				ID:   ym.ID,
				Name: ym.Name,
				Stats: combat.Stats{
					Health:                ym.MaxHealth,
					MaxHealth:             ym.MaxHealth,
					ActionPoints:          ym.MaxActionPoints,
					MaxActionPoints:       ym.MaxActionPoints,
					Speed:                 ym.Speed,
					Agility:               ym.Agility,
					InitiativeStaticBonus: ym.InitiativeBonus,
				},
				BaseInitiativeBonus: ym.BaseInitiativeBonus,
			})
		}
		s.Teams = append(s.Teams, roster)
	}

	return s
}
