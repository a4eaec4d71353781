// Package journal records the encounter event stream. A Recorder subscribes
// to the event bus as a catch-all and appends every delivered payload to a
// Store in emission order, which is the replay log for a deterministic
// encounter.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/event"
)

// Entry is one recorded event. Seq is the 0-based position in the encounter's
// event stream; the (EncounterID, Seq) pair is unique.
type Entry struct {
	EncounterID string
	Seq         int
	Type        event.Type
	Payload     json.RawMessage
	RecordedAt  time.Time
}

// Store persists journal entries.
type Store interface {
	// Append writes one entry.
	//
	// Precondition: e.EncounterID must be non-empty and (EncounterID, Seq)
	// unused.
	Append(ctx context.Context, e Entry) error
	// Entries returns an encounter's recorded stream ordered by Seq.
	Entries(ctx context.Context, encounterID string) ([]Entry, error)
}

// Recorder appends every published event to a Store. It tracks the active
// encounter ID from encounter-started payloads, so it must be attached before
// the encounter is initialized.
//
// Recorder runs on the publisher's goroutine; Store failures are logged and
// never propagate back into the scheduler's transition.
type Recorder struct {
	store  Store
	logger *zap.Logger

	encounterID string
	seq         int
}

// NewRecorder creates a Recorder writing to store.
//
// Precondition: store and logger must be non-nil.
func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Attach subscribes the recorder to bus as a catch-all handler.
//
// Postcondition: Every subsequent valid publish on bus is appended to the
// store in delivery order.
func (r *Recorder) Attach(bus *event.Bus) error {
	return bus.SubscribeAll(r.record)
}

func (r *Recorder) record(p event.Payload) {
	if started, ok := p.(event.EncounterStarted); ok {
		r.encounterID = started.EncounterID
		r.seq = 0
	}
	if r.encounterID == "" {
		// Events outside an encounter (e.g. a bare action-resolved publish)
		// have no stream to belong to.
		r.logger.Warn("journal: dropping event with no active encounter",
			zap.String("type", string(p.Type())),
		)
		return
	}

	raw, err := json.Marshal(p)
	if err != nil {
		r.logger.Error("journal: marshalling payload",
			zap.String("type", string(p.Type())),
			zap.Error(err),
		)
		return
	}

	entry := Entry{
		EncounterID: r.encounterID,
		Seq:         r.seq,
		Type:        p.Type(),
		Payload:     raw,
		RecordedAt:  time.Now().UTC(),
	}
	r.seq++

	if err := r.store.Append(context.Background(), entry); err != nil {
		r.logger.Error("journal: appending entry",
			zap.String("encounter_id", entry.EncounterID),
			zap.Int("seq", entry.Seq),
			zap.Error(err),
		)
	}

	if p.Type() == event.TypeEncounterEnded {
		r.encounterID = ""
	}
}

// Replay decodes an encounter's recorded stream back into typed payloads.
//
// Postcondition: Returns payloads in Seq order, or an error naming the first
// undecodable entry.
func Replay(ctx context.Context, store Store, encounterID string) ([]event.Payload, error) {
	entries, err := store.Entries(ctx, encounterID)
	if err != nil {
		return nil, fmt.Errorf("journal: reading entries for %q: %w", encounterID, err)
	}

	payloads := make([]event.Payload, 0, len(entries))
	for _, e := range entries {
		p, err := decode(e)
		if err != nil {
			return nil, fmt.Errorf("journal: entry %d of %q: %w", e.Seq, encounterID, err)
		}
		payloads = append(payloads, p)
	}
	return payloads, nil
}

// decode unmarshals one entry into its typed payload.
func decode(e Entry) (event.Payload, error) {
	var p event.Payload
	switch e.Type {
	case event.TypeEncounterStarted:
		p = &event.EncounterStarted{}
	case event.TypeRoundStarted:
		p = &event.RoundStarted{}
	case event.TypeTurnStarted:
		p = &event.TurnStarted{}
	case event.TypeTurnReady:
		p = &event.TurnReady{}
	case event.TypeTurnCompleted:
		p = &event.TurnCompleted{}
	case event.TypeQueueRebuilt:
		p = &event.QueueRebuilt{}
	case event.TypeEncounterEnded:
		p = &event.EncounterEnded{}
	case event.TypeInitiativeModified:
		p = &event.InitiativeModified{}
	case event.TypeActionResolved:
		p = &event.ActionResolved{}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if err := json.Unmarshal(e.Payload, p); err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %w", e.Type, err)
	}
	return p, nil
}
