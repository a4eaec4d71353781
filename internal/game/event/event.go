// Package event defines the encounter event contract and the synchronous
// publish/subscribe bus that enforces it.
//
// Each event name maps to one typed payload struct rather than a loose
// key/value dictionary; wrong-typed values are therefore impossible to
// construct, and missing required keys are caught by Validate before any
// subscriber sees the payload.
package event

import (
	"errors"
	"fmt"
)

// Type names one event in the encounter contract.
type Type string

const (
	TypeEncounterStarted   Type = "encounter-started"
	TypeRoundStarted       Type = "round-started"
	TypeTurnStarted        Type = "turn-started"
	TypeTurnReady          Type = "turn-ready-for-action"
	TypeTurnCompleted      Type = "turn-completed"
	TypeQueueRebuilt       Type = "queue-rebuilt"
	TypeEncounterEnded     Type = "encounter-ended"
	TypeInitiativeModified Type = "initiative-modified"
	// TypeActionResolved is the inbound trigger that completes a turn.
	TypeActionResolved Type = "action-resolved"
)

// knownTypes is the closed set of event names in the contract.
var knownTypes = map[Type]bool{
	TypeEncounterStarted:   true,
	TypeRoundStarted:       true,
	TypeTurnStarted:        true,
	TypeTurnReady:          true,
	TypeTurnCompleted:      true,
	TypeQueueRebuilt:       true,
	TypeEncounterEnded:     true,
	TypeInitiativeModified: true,
	TypeActionResolved:     true,
}

// Known reports whether t is part of the event contract.
func Known(t Type) bool { return knownTypes[t] }

// Payload is one event's data. Validate enforces the required-key contract
// for the payload's event name.
type Payload interface {
	Type() Type
	Validate() error
}

// QueueEntry is one pending turn in an initiative queue snapshot.
type QueueEntry struct {
	EntityID   string `json:"entity_id"`
	Initiative int    `json:"initiative"`
}

// Outcome values for EncounterEnded.
const (
	OutcomeVictory = "victory"
	OutcomeDraw    = "draw"
)

// EncounterStarted announces a new encounter and its participant order.
type EncounterStarted struct {
	Participants []string `json:"participants"`
	EncounterID  string   `json:"encounter_id,omitempty"`
}

// Type returns TypeEncounterStarted.
func (EncounterStarted) Type() Type { return TypeEncounterStarted }

// Validate enforces: participants present and every token non-empty.
func (p EncounterStarted) Validate() error {
	if len(p.Participants) == 0 {
		return errors.New("participants must not be empty")
	}
	for i, id := range p.Participants {
		if id == "" {
			return fmt.Errorf("participants[%d] must not be empty", i)
		}
	}
	return nil
}

// RoundStarted announces the beginning of a round.
type RoundStarted struct {
	Round         int          `json:"round"`
	QueueSnapshot []QueueEntry `json:"queue_snapshot,omitempty"`
}

// Type returns TypeRoundStarted.
func (RoundStarted) Type() Type { return TypeRoundStarted }

// Validate enforces: round >= 1.
func (p RoundStarted) Validate() error {
	if p.Round < 1 {
		return fmt.Errorf("round must be >= 1, got %d", p.Round)
	}
	return nil
}

// TurnStarted announces that a combatant's turn is being set up.
type TurnStarted struct {
	EntityID      string       `json:"entity_id"`
	Round         int          `json:"round"`
	Initiative    int          `json:"initiative"`
	TurnIndex     int          `json:"turn_index"`
	QueueSnapshot []QueueEntry `json:"queue_snapshot,omitempty"`
}

// Type returns TypeTurnStarted.
func (TurnStarted) Type() Type { return TypeTurnStarted }

// Validate enforces: entity_id present, round >= 1.
func (p TurnStarted) Validate() error { return validateTurn(p.EntityID, p.Round) }

// TurnReady announces that the active combatant is cleared to act. It is a
// distinct observable point from TurnStarted so downstream systems can tell
// "about to act" from "cleared to act".
type TurnReady struct {
	EntityID      string       `json:"entity_id"`
	Round         int          `json:"round"`
	Initiative    int          `json:"initiative"`
	TurnIndex     int          `json:"turn_index"`
	QueueSnapshot []QueueEntry `json:"queue_snapshot,omitempty"`
}

// Type returns TypeTurnReady.
func (TurnReady) Type() Type { return TypeTurnReady }

// Validate enforces: entity_id present, round >= 1.
func (p TurnReady) Validate() error { return validateTurn(p.EntityID, p.Round) }

// TurnCompleted announces that the active combatant's action has resolved.
type TurnCompleted struct {
	EntityID string         `json:"entity_id"`
	Round    int            `json:"round"`
	Results  map[string]any `json:"results,omitempty"`
}

// Type returns TypeTurnCompleted.
func (TurnCompleted) Type() Type { return TypeTurnCompleted }

// Validate enforces: entity_id present, round >= 1.
func (p TurnCompleted) Validate() error { return validateTurn(p.EntityID, p.Round) }

// QueueRebuilt carries the full ordered initiative queue for a round.
type QueueRebuilt struct {
	Round         int          `json:"round"`
	QueueSnapshot []QueueEntry `json:"queue_snapshot"`
}

// Type returns TypeQueueRebuilt.
func (QueueRebuilt) Type() Type { return TypeQueueRebuilt }

// Validate enforces: round >= 1 and a non-empty snapshot with non-empty tokens.
func (p QueueRebuilt) Validate() error {
	if p.Round < 1 {
		return fmt.Errorf("round must be >= 1, got %d", p.Round)
	}
	if len(p.QueueSnapshot) == 0 {
		return errors.New("queue_snapshot must not be empty")
	}
	for i, e := range p.QueueSnapshot {
		if e.EntityID == "" {
			return fmt.Errorf("queue_snapshot[%d].entity_id must not be empty", i)
		}
	}
	return nil
}

// Summary aggregates the final bookkeeping of an encounter.
type Summary struct {
	Round        int      `json:"round"`
	Turns        int      `json:"turns"`
	Participants []string `json:"participants"`
}

// EncounterEnded announces the encounter's resolution.
type EncounterEnded struct {
	Outcome     string  `json:"outcome"`
	Summary     Summary `json:"summary"`
	WinningTeam string  `json:"winning_team,omitempty"`
}

// Type returns TypeEncounterEnded.
func (EncounterEnded) Type() Type { return TypeEncounterEnded }

// Validate enforces: outcome present.
func (p EncounterEnded) Validate() error {
	if p.Outcome == "" {
		return errors.New("outcome must not be empty")
	}
	return nil
}

// InitiativeModified announces a mid-encounter initiative delta.
type InitiativeModified struct {
	EntityID        string `json:"entity_id"`
	Delta           int    `json:"delta"`
	Source          string `json:"source"`
	RemainingRounds int    `json:"remaining_turns,omitempty"`
}

// Type returns TypeInitiativeModified.
func (InitiativeModified) Type() Type { return TypeInitiativeModified }

// Validate enforces: entity_id and source present.
func (p InitiativeModified) Validate() error {
	if p.EntityID == "" {
		return errors.New("entity_id must not be empty")
	}
	if p.Source == "" {
		return errors.New("source must not be empty")
	}
	return nil
}

// ActionResolved is the inbound notification that the active combatant's
// action has been resolved by the surrounding combat rules.
type ActionResolved struct {
	EntityID string         `json:"entity_id"`
	Results  map[string]any `json:"results"`
}

// Type returns TypeActionResolved.
func (ActionResolved) Type() Type { return TypeActionResolved }

// Validate enforces: entity_id present and results non-nil.
func (p ActionResolved) Validate() error {
	if p.EntityID == "" {
		return errors.New("entity_id must not be empty")
	}
	if p.Results == nil {
		return errors.New("results must not be nil")
	}
	return nil
}

func validateTurn(entityID string, round int) error {
	if entityID == "" {
		return errors.New("entity_id must not be empty")
	}
	if round < 1 {
		return fmt.Errorf("round must be >= 1, got %d", round)
	}
	return nil
}
