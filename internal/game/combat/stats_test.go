package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

func TestStats_InitiativeSeed(t *testing.T) {
	tests := []struct {
		speed, agility, bonus int
		want                  int
	}{
		{5, 3, 2, 15},
		{4, 4, 1, 13},
		{6, 2, 0, 14},
		{0, 0, 0, 0},
		{1, 0, -3, -1},
	}
	for _, tc := range tests {
		s := combat.Stats{Speed: tc.speed, Agility: tc.agility, InitiativeStaticBonus: tc.bonus}
		assert.Equal(t, tc.want, s.InitiativeSeed(),
			"speed=%d agility=%d bonus=%d", tc.speed, tc.agility, tc.bonus)
	}
}

func TestStats_InitiativeSeed_Property_Pure(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := combat.Stats{
			Speed:                 rapid.IntRange(0, 20).Draw(rt, "speed"),
			Agility:               rapid.IntRange(0, 20).Draw(rt, "agility"),
			InitiativeStaticBonus: rapid.IntRange(-10, 10).Draw(rt, "bonus"),
		}
		first := s.InitiativeSeed()
		// Mutating unrelated fields must not change the seed.
		s.Health = 1
		s.ActionPoints = 3
		assert.Equal(rt, first, s.InitiativeSeed())
	})
}

func TestStats_RefreshActionPoints(t *testing.T) {
	s := combat.Stats{ActionPoints: 0, MaxActionPoints: 3}
	s.RefreshActionPoints()
	assert.Equal(t, 3, s.ActionPoints)
}

func TestStats_SpendActionPoints(t *testing.T) {
	s := combat.Stats{ActionPoints: 2, MaxActionPoints: 3}
	assert.True(t, s.SpendActionPoints(1))
	assert.Equal(t, 1, s.ActionPoints)
	assert.False(t, s.SpendActionPoints(5)) // floors at 0
	assert.Equal(t, 0, s.ActionPoints)
}

func TestStats_ApplyDamage_FloorsAtZero(t *testing.T) {
	s := combat.Stats{Health: 10, MaxHealth: 10}
	s.ApplyDamage(4)
	assert.Equal(t, 6, s.Health)
	s.ApplyDamage(100)
	assert.Equal(t, 0, s.Health)
	assert.True(t, s.IsDown())
}

func TestStats_Property_DamageNeverBelowZero(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxHP := rapid.IntRange(1, 200).Draw(rt, "max_hp")
		dmg := rapid.IntRange(0, 500).Draw(rt, "dmg")
		s := combat.Stats{Health: maxHP, MaxHealth: maxHP}
		s.ApplyDamage(dmg)
		assert.GreaterOrEqual(rt, s.Health, 0)
	})
}

func TestNewCombatant_ClampsStats(t *testing.T) {
	c := combat.NewCombatant("c-1", "Clamped", "alpha", combat.Stats{
		Health:          50,
		MaxHealth:       20,
		ActionPoints:    9,
		MaxActionPoints: 3,
	}, 0)
	assert.Equal(t, 20, c.Stats.Health)
	assert.Equal(t, 3, c.Stats.ActionPoints)
}

func TestNewCombatant_ClonesStats(t *testing.T) {
	archetype := combat.Stats{Health: 12, MaxHealth: 12, MaxActionPoints: 2}
	a := combat.NewCombatant("a", "A", "alpha", archetype, 0)
	b := combat.NewCombatant("b", "B", "alpha", archetype, 0)

	a.Stats.ApplyDamage(12)
	assert.True(t, a.IsDown())
	assert.False(t, b.IsDown(), "instances must not share stats")
	assert.Equal(t, 12, archetype.Health)
}
