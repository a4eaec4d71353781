package combat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/event"
)

// Phase is the scheduler's lifecycle state.
type Phase int

const (
	// PhaseIdle means no encounter is active.
	PhaseIdle Phase = iota
	// PhaseActive means an encounter is running and turns are being scheduled.
	PhaseActive
	// PhaseEnded means the last encounter has resolved; the scheduler can be
	// reset or reinitialised.
	PhaseEnded
)

// String returns a human-readable phase label.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Construction and protocol errors surfaced to callers. Turn-order
// correctness is safety-critical, so none of these are retried or swallowed.
var (
	ErrNoParticipants    = errors.New("combat: encounter requires at least one participant")
	ErrEncounterActive   = errors.New("combat: encounter already active")
	ErrNoActiveEncounter = errors.New("combat: no active encounter")
)

// EliminationCheck decides whether the encounter is over. It returns the
// outcome token and the winning team (empty when not determinable).
type EliminationCheck func(participants []*Combatant) (over bool, outcome string, winner Team)

// Scheduler is the combat turn-order state machine. It seeds participants,
// builds one initiative queue per round from a single seeded source, advances
// turns on external action-resolved notifications, restores per-turn action
// points, and emits the encounter lifecycle events in a fixed synchronous
// order.
//
// Scheduler is single-threaded by contract: all transitions run to completion
// on the caller's goroutine before the next trigger is processed, and no
// event is fanned out asynchronously. While an encounter is active the
// scheduler exclusively owns the participants' Stats initiative fields,
// action points, and Runtime records; external effects must go through
// ModifyInitiative rather than mutating them directly.
type Scheduler struct {
	bus    *event.Bus
	src    dice.Source
	logger *zap.Logger
	sides  int

	phase        Phase
	encounterID  string
	participants []*Combatant // registration order, fixed for the encounter
	byID         map[string]*Combatant
	state        EncounterState
	turnIndex    int // 0-based turn position within the current round

	// Eliminated is the elimination predicate supplied by the surrounding
	// combat rules. nil uses the default team-wipe check: the encounter ends
	// when at most one team has a living member.
	Eliminated EliminationCheck
}

// NewScheduler creates a Scheduler publishing to bus and rolling initiative
// from src. The source must be seeded by the caller when deterministic
// replay is required.
//
// Precondition: bus, src, and logger must be non-nil.
// Postcondition: Returns an idle Scheduler rolling 1d100 for initiative.
func NewScheduler(bus *event.Bus, src dice.Source, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		bus:    bus,
		src:    src,
		logger: logger,
		sides:  InitiativeDieSides,
	}
}

// SetInitiativeDieSides overrides the initiative die, e.g. from the
// encounter configuration. The default is InitiativeDieSides.
//
// Precondition: no encounter may be active; sides >= 2.
// Postcondition: Every subsequent queue build draws from a die with the
// given number of sides.
func (s *Scheduler) SetInitiativeDieSides(sides int) error {
	if s.phase == PhaseActive {
		return ErrEncounterActive
	}
	if sides < 2 {
		return fmt.Errorf("combat: initiative die needs at least 2 sides, got %d", sides)
	}
	s.sides = sides
	return nil
}

// Phase returns the scheduler's current lifecycle phase.
func (s *Scheduler) Phase() Phase { return s.phase }

// EncounterID returns the active (or last) encounter's identifier.
func (s *Scheduler) EncounterID() string { return s.encounterID }

// State returns a snapshot copy of the encounter state.
func (s *Scheduler) State() EncounterState {
	snap := s.state
	snap.TurnQueue = make([]QueueEntry, len(s.state.TurnQueue))
	copy(snap.TurnQueue, s.state.TurnQueue)
	return snap
}

// Combatant returns the participant with the given id.
func (s *Scheduler) Combatant(id string) (*Combatant, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// Participants returns the encounter roster in registration order.
func (s *Scheduler) Participants() []*Combatant {
	out := make([]*Combatant, len(s.participants))
	copy(out, s.participants)
	return out
}

// InitializeEncounter starts a new encounter with the given participants in
// registration order. An empty encounterID is replaced with a generated UUID.
//
// On success the scheduler resets every participant's runtime, sets round 1,
// builds the first queue, emits encounter-started → round-started →
// queue-rebuilt, and activates the first combatant (turn-started →
// turn-ready-for-action).
//
// Precondition: the scheduler must not have an active encounter.
// Postcondition: On error, no state changed and nothing was emitted. On nil
// return, Phase() == PhaseActive and State().Round == 1.
func (s *Scheduler) InitializeEncounter(encounterID string, participants []*Combatant) error {
	if s.phase == PhaseActive {
		return ErrEncounterActive
	}
	if len(participants) == 0 {
		return ErrNoParticipants
	}

	byID := make(map[string]*Combatant, len(participants))
	ids := make([]string, 0, len(participants))
	for i, c := range participants {
		if c == nil || c.ID == "" {
			return fmt.Errorf("combat: participant %d is missing an identifier", i)
		}
		if c.Stats == nil || c.Runtime == nil {
			return fmt.Errorf("combat: participant %q lacks stats or runtime record", c.ID)
		}
		if _, dup := byID[c.ID]; dup {
			return fmt.Errorf("combat: duplicate participant %q", c.ID)
		}
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	if encounterID == "" {
		encounterID = uuid.NewString()
	}

	s.encounterID = encounterID
	s.participants = make([]*Combatant, len(participants))
	copy(s.participants, participants)
	s.byID = byID
	s.state.Reset()
	s.turnIndex = 0

	for _, c := range s.participants {
		c.Runtime.ResetForNewEncounter()
	}

	s.state.Round = 1
	s.state.TurnQueue = BuildQueue(s.living(), s.src, s.sides)
	s.phase = PhaseActive

	s.logger.Info("encounter started",
		zap.String("encounter_id", encounterID),
		zap.Int("participants", len(ids)),
	)

	snap := s.queueSnapshot()
	s.emit(event.EncounterStarted{Participants: ids, EncounterID: encounterID})
	s.emit(event.RoundStarted{Round: 1, QueueSnapshot: snap})
	s.emit(event.QueueRebuilt{Round: 1, QueueSnapshot: snap})
	s.activateNext()
	return nil
}

// ActionResolved completes the active combatant's turn. It must carry the
// currently active entity; anything else is a protocol violation rejected
// without state change, since accepting it would desynchronise turn order.
//
// Postcondition: On nil return, turn-completed was emitted, the global turn
// counter advanced, and either the next combatant was activated, a new round
// started, or the encounter ended.
func (s *Scheduler) ActionResolved(p event.ActionResolved) error {
	if s.phase != PhaseActive {
		return ErrNoActiveEncounter
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("combat: action-resolved rejected: %w", err)
	}
	if p.EntityID != s.state.ActiveEntityID {
		return fmt.Errorf("combat: action resolved for %q but active combatant is %q",
			p.EntityID, s.state.ActiveEntityID)
	}

	s.state.ActiveEntityID = ""
	s.emit(event.TurnCompleted{EntityID: p.EntityID, Round: s.state.Round, Results: p.Results})
	s.state.TurnNumber++

	if over, outcome, winner := s.checkElimination(); over {
		s.endEncounter(outcome, winner)
		return nil
	}

	if len(s.state.TurnQueue) == 0 {
		s.startNextRound()
	} else {
		s.activateNext()
	}
	return nil
}

// ModifyInitiative pushes a delta onto a combatant's running initiative
// outside the normal round tick, e.g. from an ability effect. The delta is
// recorded as a timed modifier (duration clamped to >= 0, in rounds) and an
// initiative-modified event is emitted. The queue is NOT re-sorted; the
// delta takes effect in the next round's build.
//
// Precondition: an encounter must be active; entityID must be a participant.
func (s *Scheduler) ModifyInitiative(entityID string, amount, duration int, source string) error {
	if s.phase != PhaseActive {
		return ErrNoActiveEncounter
	}
	c, ok := s.byID[entityID]
	if !ok {
		return fmt.Errorf("combat: unknown combatant %q", entityID)
	}
	if source == "" {
		return fmt.Errorf("combat: initiative modifier source must not be empty")
	}
	if duration < 0 {
		duration = 0
	}
	c.Runtime.ApplyModifier(amount, duration, source)
	s.emit(event.InitiativeModified{
		EntityID:        entityID,
		Delta:           amount,
		Source:          source,
		RemainingRounds: duration,
	})
	return nil
}

// Reset returns an ended (or idle) scheduler to PhaseIdle, discarding all
// encounter state.
//
// Precondition: no encounter may be active.
func (s *Scheduler) Reset() error {
	if s.phase == PhaseActive {
		return ErrEncounterActive
	}
	s.state.Reset()
	s.participants = nil
	s.byID = nil
	s.encounterID = ""
	s.turnIndex = 0
	s.phase = PhaseIdle
	return nil
}

// activateNext pops queue entries until a living combatant is found, refreshes
// its action points, and emits turn-started then turn-ready-for-action. If
// every remaining entry belongs to an eliminated combatant, a new round is
// started instead.
func (s *Scheduler) activateNext() {
	for len(s.state.TurnQueue) > 0 {
		head := s.state.TurnQueue[0]
		s.state.TurnQueue = s.state.TurnQueue[1:]
		c := s.byID[head.EntityID]
		if c.IsDown() {
			continue
		}

		s.state.ActiveEntityID = head.EntityID
		c.Stats.RefreshActionPoints()

		// Snapshot of the turns still pending after this one.
		snap := s.queueSnapshot()
		s.emit(event.TurnStarted{
			EntityID:      head.EntityID,
			Round:         s.state.Round,
			Initiative:    head.Initiative,
			TurnIndex:     s.turnIndex,
			QueueSnapshot: snap,
		})
		s.emit(event.TurnReady{
			EntityID:      head.EntityID,
			Round:         s.state.Round,
			Initiative:    head.Initiative,
			TurnIndex:     s.turnIndex,
			QueueSnapshot: snap,
		})
		s.turnIndex++
		return
	}
	s.startNextRound()
}

// startNextRound increments the round counter, ticks every surviving
// combatant's initiative modifiers, rebuilds the queue carrying forward the
// running totals, emits round-started then queue-rebuilt, and activates the
// new round's first combatant.
func (s *Scheduler) startNextRound() {
	living := s.living()
	if len(living) == 0 {
		// Unreachable with the default predicate, but a custom Eliminated
		// hook may decline to end; avoid spinning on an empty roster.
		s.endEncounter(event.OutcomeDraw, "")
		return
	}

	s.state.Round++
	s.turnIndex = 0
	for _, c := range living {
		c.Runtime.TickModifiers()
	}
	s.state.TurnQueue = BuildQueue(living, s.src, s.sides)

	snap := s.queueSnapshot()
	s.emit(event.RoundStarted{Round: s.state.Round, QueueSnapshot: snap})
	s.emit(event.QueueRebuilt{Round: s.state.Round, QueueSnapshot: snap})
	s.activateNext()
}

// endEncounter emits encounter-ended and transitions to PhaseEnded.
func (s *Scheduler) endEncounter(outcome string, winner Team) {
	ids := make([]string, 0, len(s.participants))
	for _, c := range s.participants {
		ids = append(ids, c.ID)
	}
	s.state.ActiveEntityID = ""
	s.phase = PhaseEnded

	s.logger.Info("encounter ended",
		zap.String("encounter_id", s.encounterID),
		zap.String("outcome", outcome),
		zap.String("winning_team", string(winner)),
		zap.Int("rounds", s.state.Round),
		zap.Int("turns", s.state.TurnNumber),
	)

	s.emit(event.EncounterEnded{
		Outcome: outcome,
		Summary: event.Summary{
			Round:        s.state.Round,
			Turns:        s.state.TurnNumber,
			Participants: ids,
		},
		WinningTeam: string(winner),
	})
}

// checkElimination applies the injected predicate, or the default team-wipe
// rule: the encounter is over when at most one team still has a living
// member. A single-team encounter only ends when everyone is down.
func (s *Scheduler) checkElimination() (bool, string, Team) {
	if s.Eliminated != nil {
		return s.Eliminated(s.participants)
	}

	teams := make(map[Team]bool)
	livingTeams := make(map[Team]bool)
	for _, c := range s.participants {
		teams[c.Team] = true
		if !c.IsDown() {
			livingTeams[c.Team] = true
		}
	}

	switch {
	case len(livingTeams) == 0:
		return true, event.OutcomeDraw, ""
	case len(livingTeams) == 1 && len(teams) > 1:
		for t := range livingTeams {
			return true, event.OutcomeVictory, t
		}
	}
	return false, "", ""
}

// living returns the surviving participants in registration order.
func (s *Scheduler) living() []*Combatant {
	var alive []*Combatant
	for _, c := range s.participants {
		if !c.IsDown() {
			alive = append(alive, c)
		}
	}
	return alive
}

// queueSnapshot copies the pending queue into event entries.
func (s *Scheduler) queueSnapshot() []event.QueueEntry {
	snap := make([]event.QueueEntry, len(s.state.TurnQueue))
	for i, e := range s.state.TurnQueue {
		snap[i] = event.QueueEntry{EntityID: e.EntityID, Initiative: e.Initiative}
	}
	return snap
}

// emit publishes p. Scheduler payloads are valid by construction, so a
// rejection here is a bug; it is logged and the encounter continues rather
// than desynchronising turn order mid-transition.
func (s *Scheduler) emit(p event.Payload) {
	if err := s.bus.Publish(p); err != nil {
		s.logger.Error("scheduler event rejected",
			zap.String("type", string(p.Type())),
			zap.Error(err),
		)
	}
}
