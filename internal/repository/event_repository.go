package repository

import (
    "context"
    "database/sql"
)

// EventRepo provides read access to the events catalog.  The catalog
// is owned by an external system; this service never inserts or
// mutates event rows, so the repository intentionally exposes only
// lookups.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// EventRecord mirrors the schema of the events table.
type EventRecord struct {
    ID          uint64
    Serial      string
    Name        string
    Type        string
    Visibility  string
    OrganizerID uint64
}

// GetByID returns the event with the given ID.  ErrEventNotFound is
// returned when no row exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*EventRecord, error) {
    const q = `SELECT id, serial, name, type, visibility, organizer_id FROM events WHERE id = ?`
    var e EventRecord
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &e.ID, &e.Serial, &e.Name, &e.Type, &e.Visibility, &e.OrganizerID,
    )
    if err == sql.ErrNoRows {
        return nil, ErrEventNotFound
    }
    if err != nil {
        return nil, err
    }
    return &e, nil
}

// GetBySerial returns the event carrying the given human-shown serial.
// Serials are unique and immutable once issued, so at most one row can
// match.  ErrEventNotFound is returned when no row exists.
func (r *EventRepo) GetBySerial(ctx context.Context, serial string) (*EventRecord, error) {
    const q = `SELECT id, serial, name, type, visibility, organizer_id FROM events WHERE serial = ?`
    var e EventRecord
    err := r.db.QueryRowContext(ctx, q, serial).Scan(
        &e.ID, &e.Serial, &e.Name, &e.Type, &e.Visibility, &e.OrganizerID,
    )
    if err == sql.ErrNoRows {
        return nil, ErrEventNotFound
    }
    if err != nil {
        return nil, err
    }
    return &e, nil
}
