package combat

import "github.com/cory-johannsen/skirmish/internal/game/dice"

// InitiativeDieSides is the default die rolled per participant per round.
const InitiativeDieSides = 100

// BuildQueue computes one round's initiative order for the given living
// participants.
//
// For each participant, in registration order, exactly one roll is drawn
// from src and the score is computed as
//
//	roll(1..sides) + Stats.InitiativeSeed() + Runtime.CurrentInitiative
//
// The score is then stored back as the combatant's running total, so the
// next round's score builds on this round's rather than starting from zero.
// Drawing in registration order from a single seeded source is what makes
// the sequence exactly reproducible for a given seed and participant order.
//
// Entries are sorted descending by score; equal scores keep registration
// order (stable sort), which is the documented tie-break.
//
// Precondition: every participant has non-nil Stats and Runtime; src must be
// non-nil; sides >= 2.
// Postcondition: Returns one entry per participant; each participant's
// Runtime.CurrentInitiative equals its entry's Initiative.
func BuildQueue(participants []*Combatant, src dice.Source, sides int) []QueueEntry {
	entries := make([]QueueEntry, 0, len(participants))
	for _, c := range participants {
		roll := src.Intn(sides) + 1
		score := roll + c.Stats.InitiativeSeed() + c.Runtime.CurrentInitiative
		c.Runtime.CurrentInitiative = score
		entries = append(entries, QueueEntry{EntityID: c.ID, Initiative: score})
	}
	sortByInitiativeDesc(entries)
	return entries
}

// sortByInitiativeDesc sorts entries in place, highest initiative first.
// Insertion sort with a strict comparison keeps equal scores in their
// original order.
func sortByInitiativeDesc(entries []QueueEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Initiative > entries[j-1].Initiative; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}
