package repository

import (
    "context"
    "database/sql"
    "time"
)

// RoomRepo provides access to the rooms table, one row per online
// event once the organizer has created its video room.  Only the
// organizer mutates room state, so every update is a plain
// last-write-wins statement with no versioning.
type RoomRepo struct {
    db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// RoomRecord mirrors the schema of the rooms table.
type RoomRecord struct {
    EventID   uint64
    Ready     bool
    Connected bool
    CreatedAt time.Time
}

// Create inserts the room for an event.  Rooms start not-ready and
// not-connected.  ErrRoomExists is returned when the event already has
// a room.
func (r *RoomRepo) Create(ctx context.Context, eventID uint64) error {
    const q = `INSERT INTO rooms (event_id, ready, connected) VALUES (?, 0, 0)`
    if _, err := r.db.ExecContext(ctx, q, eventID); err != nil {
        if isDuplicateEntry(err) {
            return ErrRoomExists
        }
        return err
    }
    return nil
}

// GetByEvent returns the room of an event.  ErrRoomNotFound is
// returned when the organizer never created one.
func (r *RoomRepo) GetByEvent(ctx context.Context, eventID uint64) (*RoomRecord, error) {
    const q = `SELECT event_id, ready, connected, created_at FROM rooms WHERE event_id = ?`
    var room RoomRecord
    err := r.db.QueryRowContext(ctx, q, eventID).Scan(
        &room.EventID, &room.Ready, &room.Connected, &room.CreatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrRoomNotFound
    }
    if err != nil {
        return nil, err
    }
    return &room, nil
}

// SetReady toggles whether attendees may join the room.
func (r *RoomRepo) SetReady(ctx context.Context, eventID uint64, ready bool) error {
    const q = `UPDATE rooms SET ready = ? WHERE event_id = ?`
    result, err := r.db.ExecContext(ctx, q, ready, eventID)
    if err != nil {
        return err
    }
    return r.mustExist(ctx, eventID, result)
}

// SetConnected records whether the organizer is currently inside the
// room.  Flipped on the organizer's own join and leave only.
func (r *RoomRepo) SetConnected(ctx context.Context, eventID uint64, connected bool) error {
    const q = `UPDATE rooms SET connected = ? WHERE event_id = ?`
    result, err := r.db.ExecContext(ctx, q, connected, eventID)
    if err != nil {
        return err
    }
    return r.mustExist(ctx, eventID, result)
}

// Delete removes the room.  ErrRoomNotFound is returned when the event
// has no room.
func (r *RoomRepo) Delete(ctx context.Context, eventID uint64) error {
    const q = `DELETE FROM rooms WHERE event_id = ?`
    result, err := r.db.ExecContext(ctx, q, eventID)
    if err != nil {
        return err
    }
    affected, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 0 {
        return ErrRoomNotFound
    }
    return nil
}

// mustExist maps a zero-affected update to ErrRoomNotFound when the
// row is genuinely absent.  An update that left the value unchanged
// also reports zero affected rows under MySQL, so existence decides.
func (r *RoomRepo) mustExist(ctx context.Context, eventID uint64, result sql.Result) error {
    affected, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 1 {
        return nil
    }
    var exists bool
    if err := r.db.QueryRowContext(ctx,
        `SELECT EXISTS(SELECT 1 FROM rooms WHERE event_id = ?)`, eventID,
    ).Scan(&exists); err != nil {
        return err
    }
    if !exists {
        return ErrRoomNotFound
    }
    return nil
}
