package combat

// QueueEntry is one pending turn in the current round's initiative order.
type QueueEntry struct {
	EntityID   string
	Initiative int
}

// EncounterState holds the round/turn bookkeeping for one active encounter.
// It is a pure data holder; all transitions are driven by the Scheduler,
// which exclusively owns it while an encounter is active.
type EncounterState struct {
	// Round is the current round number; 0 when idle, 1 from encounter start.
	Round int
	// TurnNumber counts completed turns across the whole encounter.
	TurnNumber int
	// TurnQueue is the remaining turn order for the current round.
	TurnQueue []QueueEntry
	// ActiveEntityID is the combatant currently acting, or "" when idle.
	ActiveEntityID string
}

// PeekNextTurn returns the queue head without removing it.
//
// Postcondition: Returns (entry, true) when the queue is non-empty, or the
// zero entry and false otherwise. The queue is never mutated.
func (s *EncounterState) PeekNextTurn() (QueueEntry, bool) {
	if len(s.TurnQueue) == 0 {
		return QueueEntry{}, false
	}
	return s.TurnQueue[0], true
}

// Reset zeroes all counters and clears the queue and active pointer.
//
// Postcondition: The state equals the zero EncounterState.
func (s *EncounterState) Reset() {
	s.Round = 0
	s.TurnNumber = 0
	s.TurnQueue = nil
	s.ActiveEntityID = ""
}
