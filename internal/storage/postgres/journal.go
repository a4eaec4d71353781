package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/event"
	"github.com/cory-johannsen/skirmish/internal/game/journal"
)

// ErrDuplicateEntry is returned when appending an (encounter_id, seq) pair
// that already exists.
var ErrDuplicateEntry = errors.New("journal entry already recorded")

// JournalRepository persists encounter event streams. It implements
// journal.Store.
type JournalRepository struct {
	db *pgxpool.Pool
}

// NewJournalRepository creates a JournalRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewJournalRepository(db *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{db: db}
}

// Append inserts one journal entry.
//
// Precondition: e.EncounterID must be non-empty.
// Postcondition: The entry is durable, or ErrDuplicateEntry on a seq
// collision.
func (r *JournalRepository) Append(ctx context.Context, e journal.Entry) error {
	if e.EncounterID == "" {
		return fmt.Errorf("journal entry has no encounter id")
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO encounter_events (encounter_id, seq, event_type, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.EncounterID, e.Seq, string(e.Type), e.Payload, e.RecordedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// Entries returns an encounter's recorded stream ordered by Seq.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *JournalRepository) Entries(ctx context.Context, encounterID string) ([]journal.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT encounter_id, seq, event_type, payload, recorded_at
		FROM encounter_events WHERE encounter_id = $1 ORDER BY seq ASC`,
		encounterID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing journal entries: %w", err)
	}
	defer rows.Close()

	entries := make([]journal.Entry, 0)
	for rows.Next() {
		var e journal.Entry
		var eventType string
		if err := rows.Scan(&e.EncounterID, &e.Seq, &eventType, &e.Payload, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Type = event.Type(eventType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Encounters returns the distinct encounter IDs present in the journal,
// newest first.
func (r *JournalRepository) Encounters(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT encounter_id FROM encounter_events
		GROUP BY encounter_id ORDER BY MIN(recorded_at) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing encounters: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning encounter id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
