// Package dice provides the randomness abstraction and roll auditing for the
// skirmish combat engine. Encounters that must be replayable use a seeded
// Source; everything else may use the crypto-backed one.
package dice

import "fmt"

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// RollResult holds the full audit trail for a single roll evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Count    int   // number of dice rolled
	Sides    int   // faces per die
	Dice     []int // individual die results before modifier
	Modifier int   // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// Notation returns the standard dice notation for this roll, e.g. "2d6+3".
func (r RollResult) Notation() string {
	switch {
	case r.Modifier > 0:
		return fmt.Sprintf("%dd%d+%d", r.Count, r.Sides, r.Modifier)
	case r.Modifier < 0:
		return fmt.Sprintf("%dd%d%d", r.Count, r.Sides, r.Modifier)
	default:
		return fmt.Sprintf("%dd%d", r.Count, r.Sides)
	}
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] +3 = 12"
func (r RollResult) String() string {
	return fmt.Sprintf("%s → %v %+d = %d", r.Notation(), r.Dice, r.Modifier, r.Total())
}

// Roll rolls count dice with the given number of sides and adds modifier.
//
// Precondition: count >= 1; sides >= 2; src must be non-nil.
// Postcondition: len(result.Dice) == count; each die is in [1, sides].
func Roll(count, sides, modifier int, src Source) (RollResult, error) {
	if count < 1 {
		return RollResult{}, fmt.Errorf("dice: count must be >= 1, got %d", count)
	}
	if sides < 2 {
		return RollResult{}, fmt.Errorf("dice: sides must be >= 2, got %d", sides)
	}

	rolled := make([]int, count)
	for i := range rolled {
		rolled[i] = src.Intn(sides) + 1
	}

	return RollResult{
		Count:    count,
		Sides:    sides,
		Dice:     rolled,
		Modifier: modifier,
	}, nil
}
