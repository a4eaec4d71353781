package combat

import "github.com/cory-johannsen/skirmish/internal/game/dice"

// StrikeCost is the action-point cost of one strike.
const StrikeCost = 1

// StrikeResult holds the outcome of a single strike action.
type StrikeResult struct {
	// AttackerID is the striking combatant's ID.
	AttackerID string
	// TargetID is the defending combatant's ID.
	TargetID string
	// AttackRoll is the raw d20 result before modifiers.
	AttackRoll int
	// AttackTotal is the full attack value: d20 + half the attacker's speed.
	AttackTotal int
	// Hit is true when AttackTotal met the target's guard.
	Hit bool
	// Critical is true on a natural 20; damage is doubled.
	Critical bool
	// Damage is the final damage dealt (0 on a miss).
	Damage int
	// DamageRoll holds the individual damage die values.
	DamageRoll []int
}

// Guard returns the target value a strike must meet: 10 plus the defender's
// agility.
func Guard(s *Stats) int {
	return 10 + s.Agility
}

// ResolveStrike performs one attack roll and damage roll for attacker vs
// target. Attack: d20 + speed/2 vs Guard(target). Damage on a hit: 1d6 +
// speed/2, doubled on a natural 20. No damage is applied; the caller owns
// health mutation.
//
// Precondition: attacker and target must be non-nil with non-nil Stats,
// neither down; src must be non-nil.
// Postcondition: Returns a fully populated StrikeResult with Damage >= 0.
func ResolveStrike(attacker, target *Combatant, src dice.Source) StrikeResult {
	d20 := src.Intn(20) + 1
	atkMod := attacker.Stats.Speed / 2
	total := d20 + atkMod

	result := StrikeResult{
		AttackerID:  attacker.ID,
		TargetID:    target.ID,
		AttackRoll:  d20,
		AttackTotal: total,
		Critical:    d20 == 20,
	}

	if total < Guard(target.Stats) && !result.Critical {
		return result
	}
	result.Hit = true

	die := src.Intn(6) + 1
	dmg := die + atkMod
	if dmg < 1 {
		dmg = 1
	}
	if result.Critical {
		dmg *= 2
	}
	result.Damage = dmg
	result.DamageRoll = []int{die}
	return result
}
