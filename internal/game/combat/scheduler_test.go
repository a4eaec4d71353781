package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/event"
)

// recorder captures every published payload in emission order.
type recorder struct {
	payloads []event.Payload
}

func newRecorder(t *testing.T, bus *event.Bus) *recorder {
	t.Helper()
	r := &recorder{}
	require.NoError(t, bus.SubscribeAll(func(p event.Payload) {
		r.payloads = append(r.payloads, p)
	}))
	return r
}

func (r *recorder) types() []event.Type {
	out := make([]event.Type, len(r.payloads))
	for i, p := range r.payloads {
		out[i] = p.Type()
	}
	return out
}

func newScheduler(t *testing.T, seed int64) (*combat.Scheduler, *recorder) {
	t.Helper()
	bus := event.NewBus()
	rec := newRecorder(t, bus)
	return combat.NewScheduler(bus, dice.NewSeededSource(seed), zap.NewNop()), rec
}

func duelRoster() []*combat.Combatant {
	return []*combat.Combatant{
		combat.NewCombatant("alpha", "PlayerAlpha", "players",
			combat.Stats{Health: 20, MaxHealth: 20, MaxActionPoints: 3, Speed: 5, Agility: 3, InitiativeStaticBonus: 2}, 0),
		combat.NewCombatant("shadow", "Shadow", "raiders",
			combat.Stats{Health: 18, MaxHealth: 18, MaxActionPoints: 3, Speed: 4, Agility: 4, InitiativeStaticBonus: 1}, 0),
		combat.NewCombatant("bravo", "PlayerBravo", "players",
			combat.Stats{Health: 20, MaxHealth: 20, MaxActionPoints: 3, Speed: 6, Agility: 2}, 1),
	}
}

// resolve completes the currently active combatant's turn.
func resolve(t *testing.T, s *combat.Scheduler) {
	t.Helper()
	active := s.State().ActiveEntityID
	require.NotEmpty(t, active, "no active combatant")
	require.NoError(t, s.ActionResolved(event.ActionResolved{
		EntityID: active,
		Results:  map[string]any{"action": "pass"},
	}))
}

// recordingSource wraps a source and records the bound of every Intn call.
type recordingSource struct {
	inner  dice.Source
	bounds []int
}

func (r *recordingSource) Intn(n int) int {
	r.bounds = append(r.bounds, n)
	return r.inner.Intn(n)
}

func TestScheduler_SetInitiativeDieSides_UsedForEveryQueueBuild(t *testing.T) {
	bus := event.NewBus()
	src := &recordingSource{inner: dice.NewSeededSource(31)}
	s := combat.NewScheduler(bus, src, zap.NewNop())
	require.NoError(t, s.SetInitiativeDieSides(20))

	require.NoError(t, s.InitializeEncounter("enc", duelRoster()))
	// Complete round 1 so round 2's rebuild draws again.
	for i := 0; i < 3; i++ {
		resolve(t, s)
	}

	require.NotEmpty(t, src.bounds)
	for i, n := range src.bounds {
		assert.Equal(t, 20, n, "draw %d must use the configured die", i)
	}
}

func TestScheduler_SetInitiativeDieSides_Errors(t *testing.T) {
	s, _ := newScheduler(t, 31)
	assert.Error(t, s.SetInitiativeDieSides(1))

	require.NoError(t, s.InitializeEncounter("enc", duelRoster()))
	assert.ErrorIs(t, s.SetInitiativeDieSides(20), combat.ErrEncounterActive)
}

func TestScheduler_InitializeEncounter_EmitsLifecycleInOrder(t *testing.T) {
	s, rec := newScheduler(t, 42)
	require.NoError(t, s.InitializeEncounter("enc-1", duelRoster()))

	assert.Equal(t, combat.PhaseActive, s.Phase())
	assert.Equal(t, []event.Type{
		event.TypeEncounterStarted,
		event.TypeRoundStarted,
		event.TypeQueueRebuilt,
		event.TypeTurnStarted,
		event.TypeTurnReady,
	}, rec.types())

	started, ok := rec.payloads[0].(event.EncounterStarted)
	require.True(t, ok)
	assert.Equal(t, "enc-1", started.EncounterID)
	assert.Equal(t, []string{"alpha", "shadow", "bravo"}, started.Participants)

	round, ok := rec.payloads[1].(event.RoundStarted)
	require.True(t, ok)
	assert.Equal(t, 1, round.Round)

	rebuilt, ok := rec.payloads[2].(event.QueueRebuilt)
	require.True(t, ok)
	assert.Len(t, rebuilt.QueueSnapshot, 3)
}

func TestScheduler_InitializeEncounter_GeneratesID(t *testing.T) {
	s, _ := newScheduler(t, 1)
	require.NoError(t, s.InitializeEncounter("", duelRoster()))
	assert.NotEmpty(t, s.EncounterID())
}

func TestScheduler_InitializeEncounter_ConstructionErrors(t *testing.T) {
	s, rec := newScheduler(t, 1)

	err := s.InitializeEncounter("enc", nil)
	assert.ErrorIs(t, err, combat.ErrNoParticipants)

	err = s.InitializeEncounter("enc", []*combat.Combatant{{ID: "broken"}})
	assert.Error(t, err) // missing stats/runtime records

	roster := duelRoster()
	roster[1].ID = roster[0].ID
	err = s.InitializeEncounter("enc", roster)
	assert.Error(t, err) // duplicate identifier

	// Failed construction must not transition state or emit anything.
	assert.Equal(t, combat.PhaseIdle, s.Phase())
	assert.Empty(t, rec.payloads)
}

func TestScheduler_InitializeEncounter_RejectsWhileActive(t *testing.T) {
	s, _ := newScheduler(t, 1)
	require.NoError(t, s.InitializeEncounter("enc", duelRoster()))
	assert.ErrorIs(t, s.InitializeEncounter("enc-2", duelRoster()), combat.ErrEncounterActive)
}

func TestScheduler_TurnStartRefreshesActionPoints(t *testing.T) {
	bus := event.NewBus()
	s := combat.NewScheduler(bus, dice.NewSeededSource(9), zap.NewNop())

	checked := 0
	require.NoError(t, bus.Subscribe(event.TypeTurnStarted, func(p event.Payload) {
		ts := p.(event.TurnStarted)
		c, ok := s.Combatant(ts.EntityID)
		require.True(t, ok)
		assert.Equal(t, c.Stats.MaxActionPoints, c.Stats.ActionPoints,
			"AP must be refreshed when turn-started fires for %s", ts.EntityID)
		checked++
	}))

	roster := duelRoster()
	for _, c := range roster {
		c.Stats.ActionPoints = 0
	}
	require.NoError(t, s.InitializeEncounter("enc", roster))
	resolve(t, s)
	resolve(t, s)
	assert.GreaterOrEqual(t, checked, 3)
}

func TestScheduler_RoundRobin_EachParticipantActsOncePerRound(t *testing.T) {
	s, rec := newScheduler(t, 7)
	require.NoError(t, s.InitializeEncounter("enc", duelRoster()))

	// Complete round 1 (3 turns) and round 2 (3 turns).
	for i := 0; i < 6; i++ {
		resolve(t, s)
	}

	actedByRound := make(map[int][]string)
	for _, p := range rec.payloads {
		if ts, ok := p.(event.TurnStarted); ok {
			actedByRound[ts.Round] = append(actedByRound[ts.Round], ts.EntityID)
		}
	}
	for round := 1; round <= 2; round++ {
		acted := actedByRound[round]
		assert.Len(t, acted, 3, "round %d", round)
		seen := make(map[string]bool)
		for _, id := range acted {
			assert.False(t, seen[id], "round %d: %s acted twice", round, id)
			seen[id] = true
		}
	}
}

func TestScheduler_RoundBoundary_EmitsRoundStartedThenQueueRebuilt(t *testing.T) {
	s, rec := newScheduler(t, 21)
	require.NoError(t, s.InitializeEncounter("enc", duelRoster()))
	for i := 0; i < 3; i++ {
		resolve(t, s)
	}

	// ... turn-completed (3rd) → round-started(2) → queue-rebuilt(2) → turn-started ...
	types := rec.types()
	idx := -1
	for i, p := range rec.payloads {
		if rs, ok := p.(event.RoundStarted); ok && rs.Round == 2 {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 1)
	assert.Equal(t, event.TypeTurnCompleted, types[idx-1])
	assert.Equal(t, event.TypeQueueRebuilt, types[idx+1])
	assert.Equal(t, event.TypeTurnStarted, types[idx+2])
	assert.Equal(t, event.TypeTurnReady, types[idx+3])
	assert.Equal(t, 2, s.State().Round)
}

func TestScheduler_ActionResolved_ProtocolViolation(t *testing.T) {
	s, _ := newScheduler(t, 5)
	require.NoError(t, s.InitializeEncounter("enc", duelRoster()))

	active := s.State().ActiveEntityID
	wrong := "alpha"
	if active == "alpha" {
		wrong = "shadow"
	}
	err := s.ActionResolved(event.ActionResolved{EntityID: wrong, Results: map[string]any{}})
	assert.Error(t, err)
	// The active combatant must be unchanged.
	assert.Equal(t, active, s.State().ActiveEntityID)
}

func TestScheduler_ActionResolved_RejectsMalformedPayload(t *testing.T) {
	s, _ := newScheduler(t, 5)
	require.NoError(t, s.InitializeEncounter("enc", duelRoster()))

	err := s.ActionResolved(event.ActionResolved{EntityID: s.State().ActiveEntityID})
	assert.Error(t, err) // nil results
}

func TestScheduler_ActionResolved_RequiresActiveEncounter(t *testing.T) {
	s, _ := newScheduler(t, 5)
	err := s.ActionResolved(event.ActionResolved{EntityID: "alpha", Results: map[string]any{}})
	assert.ErrorIs(t, err, combat.ErrNoActiveEncounter)
}

func TestScheduler_EliminationEndsEncounter(t *testing.T) {
	s, rec := newScheduler(t, 11)
	roster := duelRoster()
	require.NoError(t, s.InitializeEncounter("enc", roster))

	// The surrounding rules eliminate the lone raider, then the active
	// combatant's turn resolves.
	for _, c := range roster {
		if c.Team == "raiders" {
			c.Stats.ApplyDamage(c.Stats.Health)
		}
	}
	resolve(t, s)

	assert.Equal(t, combat.PhaseEnded, s.Phase())
	types := rec.types()
	require.GreaterOrEqual(t, len(types), 2)
	assert.Equal(t, event.TypeTurnCompleted, types[len(types)-2],
		"encounter-ended must immediately follow turn-completed")
	assert.Equal(t, event.TypeEncounterEnded, types[len(types)-1])

	ended := rec.payloads[len(rec.payloads)-1].(event.EncounterEnded)
	assert.Equal(t, event.OutcomeVictory, ended.Outcome)
	assert.Equal(t, "players", ended.WinningTeam)
	assert.Equal(t, []string{"alpha", "shadow", "bravo"}, ended.Summary.Participants)
	assert.Equal(t, 1, ended.Summary.Turns)
}

func TestScheduler_EliminatedCombatantSkippedInQueue(t *testing.T) {
	s, rec := newScheduler(t, 13)
	roster := duelRoster()
	// Two raiders so the encounter survives one raider going down.
	roster = append(roster, combat.NewCombatant("ghost", "Ghost", "raiders",
		combat.Stats{Health: 10, MaxHealth: 10, MaxActionPoints: 2, Speed: 3, Agility: 3}, 0))
	require.NoError(t, s.InitializeEncounter("enc", roster))

	// Down Shadow before its turn comes up.
	shadow, ok := s.Combatant("shadow")
	require.True(t, ok)
	shadow.Stats.ApplyDamage(shadow.Stats.Health)

	for i := 0; i < 3 && s.Phase() == combat.PhaseActive; i++ {
		resolve(t, s)
	}

	for _, p := range rec.payloads {
		if ts, ok := p.(event.TurnStarted); ok && ts.Round == 1 {
			assert.NotEqual(t, "shadow", ts.EntityID, "eliminated combatant must not act")
		}
	}
}

func TestScheduler_ModifyInitiative(t *testing.T) {
	s, rec := newScheduler(t, 17)
	require.NoError(t, s.InitializeEncounter("enc", duelRoster()))
	queueBefore := s.State().TurnQueue

	require.NoError(t, s.ModifyInitiative("shadow", 25, 2, "haste-totem"))

	last := rec.payloads[len(rec.payloads)-1]
	mod, ok := last.(event.InitiativeModified)
	require.True(t, ok)
	assert.Equal(t, "shadow", mod.EntityID)
	assert.Equal(t, 25, mod.Delta)
	assert.Equal(t, "haste-totem", mod.Source)
	assert.Equal(t, 2, mod.RemainingRounds)

	// No mid-round re-sort: the pending queue is untouched.
	assert.Equal(t, queueBefore, s.State().TurnQueue)

	shadow, _ := s.Combatant("shadow")
	assert.Contains(t, shadow.Runtime.Modifiers(), combat.InitiativeModifier{
		Amount: 25, RemainingRounds: 2, SourceID: "haste-totem",
	})
}

func TestScheduler_ModifyInitiative_Errors(t *testing.T) {
	s, _ := newScheduler(t, 17)
	assert.ErrorIs(t, s.ModifyInitiative("alpha", 1, 1, "x"), combat.ErrNoActiveEncounter)

	require.NoError(t, s.InitializeEncounter("enc", duelRoster()))
	assert.Error(t, s.ModifyInitiative("nobody", 1, 1, "x"))
	assert.Error(t, s.ModifyInitiative("alpha", 1, 1, ""))
}

func TestScheduler_Determinism_SameSeedSameEventSequence(t *testing.T) {
	run := func() []event.Payload {
		s, rec := newScheduler(t, 1234)
		require.NoError(t, s.InitializeEncounter("enc", duelRoster()))
		for i := 0; i < 9; i++ { // three full rounds
			resolve(t, s)
		}
		return rec.payloads
	}

	first := run()
	second := run()
	assert.Equal(t, first, second,
		"two runs with the same seed and inputs must emit identical event sequences")
}

func TestScheduler_Determinism_DifferentSeedsDiverge(t *testing.T) {
	order := func(seed int64) []string {
		s, rec := newScheduler(t, seed)
		require.NoError(t, s.InitializeEncounter("enc", duelRoster()))
		for i := 0; i < 6; i++ {
			resolve(t, s)
		}
		var acted []string
		for _, p := range rec.payloads {
			if ts, ok := p.(event.TurnStarted); ok {
				acted = append(acted, ts.EntityID)
			}
		}
		return acted
	}

	diverged := false
	for seed := int64(0); seed < 20 && !diverged; seed++ {
		if a, b := order(seed), order(seed+1000); !assert.ObjectsAreEqual(a, b) {
			diverged = true
		}
	}
	assert.True(t, diverged, "different seeds should eventually produce different turn orders")
}

func TestScheduler_PeekNextTurn(t *testing.T) {
	s, _ := newScheduler(t, 3)
	require.NoError(t, s.InitializeEncounter("enc", duelRoster()))

	state := s.State()
	head, ok := state.PeekNextTurn()
	require.True(t, ok)
	assert.Equal(t, state.TurnQueue[0], head)

	// Peek must not consume.
	again, ok := state.PeekNextTurn()
	require.True(t, ok)
	assert.Equal(t, head, again)
}

func TestScheduler_Reset(t *testing.T) {
	s, _ := newScheduler(t, 19)
	roster := duelRoster()
	require.NoError(t, s.InitializeEncounter("enc", roster))
	assert.ErrorIs(t, s.Reset(), combat.ErrEncounterActive)

	for _, c := range roster {
		if c.Team == "raiders" {
			c.Stats.ApplyDamage(c.Stats.Health)
		}
	}
	resolve(t, s)
	require.Equal(t, combat.PhaseEnded, s.Phase())

	require.NoError(t, s.Reset())
	assert.Equal(t, combat.PhaseIdle, s.Phase())
	assert.Zero(t, s.State().Round)
	assert.Empty(t, s.EncounterID())
}

func TestScheduler_CustomEliminationCheck(t *testing.T) {
	s, rec := newScheduler(t, 23)
	s.Eliminated = func(participants []*combat.Combatant) (bool, string, combat.Team) {
		return true, "defeat", "raiders"
	}
	require.NoError(t, s.InitializeEncounter("enc", duelRoster()))
	resolve(t, s)

	assert.Equal(t, combat.PhaseEnded, s.Phase())
	ended := rec.payloads[len(rec.payloads)-1].(event.EncounterEnded)
	assert.Equal(t, "defeat", ended.Outcome)
	assert.Equal(t, "raiders", ended.WinningTeam)
}
