package combat

// InitiativeModifier is one timed delta on a combatant's running initiative.
type InitiativeModifier struct {
	Amount          int
	RemainingRounds int
	SourceID        string
}

// Runtime tracks a combatant's transient initiative state across one
// encounter. It is not safe for concurrent use; during an active encounter
// the scheduler exclusively owns it.
type Runtime struct {
	// BaseInitiativeBonus is the baseline carried into every encounter.
	BaseInitiativeBonus int
	// CurrentInitiative is the running total: the base bonus plus every
	// per-round score and active modifier accumulated so far.
	CurrentInitiative int

	modifiers []InitiativeModifier
}

// ResetForNewEncounter clears all modifiers and resets the running total to
// the base bonus. Called once per encounter start.
//
// Postcondition: CurrentInitiative == BaseInitiativeBonus; Modifiers() is empty.
func (r *Runtime) ResetForNewEncounter() {
	r.modifiers = nil
	r.CurrentInitiative = r.BaseInitiativeBonus
}

// ApplyModifier appends a timed modifier and immediately applies its amount
// to the running total. Durations below zero are clamped to zero; a
// zero-duration modifier still applies its amount and expires on the next tick.
//
// Postcondition: CurrentInitiative increased by amount; modifier recorded.
func (r *Runtime) ApplyModifier(amount, duration int, source string) {
	if duration < 0 {
		duration = 0
	}
	r.modifiers = append(r.modifiers, InitiativeModifier{
		Amount:          amount,
		RemainingRounds: duration,
		SourceID:        source,
	})
	r.CurrentInitiative += amount
}

// TickModifiers decrements every modifier's remaining duration by one round.
// Modifiers that reach zero are removed and their amounts are subtracted from
// the running total. Called once per round boundary, so durations measure
// rounds rather than individual turns.
//
// Postcondition: Returns the total amount removed; CurrentInitiative reduced
// by exactly that total.
func (r *Runtime) TickModifiers() int {
	expired := 0
	kept := r.modifiers[:0]
	for _, m := range r.modifiers {
		m.RemainingRounds--
		if m.RemainingRounds <= 0 {
			expired += m.Amount
			continue
		}
		kept = append(kept, m)
	}
	r.modifiers = kept
	r.CurrentInitiative -= expired
	return expired
}

// Modifiers returns a copy of the active modifiers in application order.
func (r *Runtime) Modifiers() []InitiativeModifier {
	out := make([]InitiativeModifier, len(r.modifiers))
	copy(out, r.modifiers)
	return out
}
