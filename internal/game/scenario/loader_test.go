package scenario_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/scenario"
)

const duelYAML = `
scenario:
  id: enc-duel
  name: Rooftop Duel
  seed: 1234
  script_dir: scripts/duel
  teams:
    - name: players
      members:
        - id: alpha
          name: PlayerAlpha
          max_health: 20
          max_action_points: 3
          speed: 5
          agility: 3
          initiative_bonus: 2
        - id: bravo
          name: PlayerBravo
          max_health: 20
          max_action_points: 3
          speed: 6
          agility: 2
          base_initiative_bonus: 1
    - name: raiders
      members:
        - id: shadow
          name: Shadow
          max_health: 18
          max_action_points: 3
          speed: 4
          agility: 4
          initiative_bonus: 1
`

func TestLoadFromBytes(t *testing.T) {
	s, err := scenario.LoadFromBytes([]byte(duelYAML))
	require.NoError(t, err)

	assert.Equal(t, "enc-duel", s.ID)
	assert.Equal(t, "Rooftop Duel", s.Name)
	assert.Equal(t, int64(1234), s.Seed)
	assert.Equal(t, "scripts/duel", s.ScriptDir)
	require.Len(t, s.Teams, 2)
	assert.Equal(t, combat.Team("players"), s.Teams[0].Team)
	require.Len(t, s.Teams[0].Members, 2)

	alpha := s.Teams[0].Members[0]
	assert.Equal(t, "alpha", alpha.ID)
	assert.Equal(t, 20, alpha.Stats.MaxHealth)
	assert.Equal(t, 2, alpha.Stats.InitiativeStaticBonus)
	assert.Equal(t, 15, alpha.Stats.InitiativeSeed())

	bravo := s.Teams[0].Members[1]
	assert.Equal(t, 1, bravo.BaseInitiativeBonus)
}

func TestLoadFromBytes_InvalidYAML(t *testing.T) {
	_, err := scenario.LoadFromBytes([]byte("scenario: [not a map"))
	assert.Error(t, err)
}

func TestLoadFromBytes_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no teams",
			yaml: "scenario:\n  name: Empty\n",
			want: "at least one team",
		},
		{
			name: "empty team",
			yaml: "scenario:\n  name: Hollow\n  teams:\n    - name: ghosts\n",
			want: "no members",
		},
		{
			name: "duplicate ids",
			yaml: `
scenario:
  name: Twins
  teams:
    - name: players
      members:
        - {id: twin, name: A, max_health: 10}
        - {id: twin, name: B, max_health: 10}
`,
			want: "duplicate combatant id",
		},
		{
			name: "zero max health",
			yaml: `
scenario:
  name: Ghost
  teams:
    - name: players
      members:
        - {id: ghost, name: G, max_health: 0}
`,
			want: "max_health",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := scenario.LoadFromBytes([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestScenario_Combatants(t *testing.T) {
	s, err := scenario.LoadFromBytes([]byte(duelYAML))
	require.NoError(t, err)

	roster := s.Combatants()
	require.Len(t, roster, 3)
	// Declaration order: teams in file order, members in list order.
	assert.Equal(t, "alpha", roster[0].ID)
	assert.Equal(t, "bravo", roster[1].ID)
	assert.Equal(t, "shadow", roster[2].ID)
	assert.Equal(t, combat.Team("raiders"), roster[2].Team)

	// Each instantiation owns fresh records.
	again := s.Combatants()
	roster[0].Stats.ApplyDamage(20)
	assert.True(t, roster[0].IsDown())
	assert.False(t, again[0].IsDown())
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "duel.yaml"), []byte(duelYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	scenarios, err := scenario.LoadFromDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "Rooftop Duel", scenarios[0].Name)
}

func TestLoadFromDir_Empty(t *testing.T) {
	_, err := scenario.LoadFromDir(t.TempDir())
	assert.Error(t, err)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := scenario.LoadFromFile("/nonexistent/scenario.yaml")
	assert.Error(t, err)
}
