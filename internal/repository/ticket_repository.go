package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/go-sql-driver/mysql"
)

// TicketRepo owns the per-event ticket counters.  The remaining
// quantity is only ever mutated through Reserve and Release; both run
// a single conditional UPDATE so concurrent purchases serialize at the
// database rather than in application memory.  Multiple service
// instances may run against the same database and still never
// oversell.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a new TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *TicketRepo) DB() *sql.DB { return r.db }

// TicketRecord mirrors the schema of the tickets table.
type TicketRecord struct {
    ID                uint64
    EventID           uint64
    PriceCents        uint32
    Quantity          uint32
    QuantityRemaining uint32
}

// mysqlDuplicateEntry is the server error number MySQL reports when an
// insert violates a UNIQUE constraint.
const mysqlDuplicateEntry = 1062

func isDuplicateEntry(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// CreateForEvent inserts the ticket class for an event when the
// organizer enables ticketing.  Each event has at most one ticket
// class; the UNIQUE constraint on event_id enforces this and a second
// attempt returns ErrConflict.  The generated ID is populated on the
// record.
func (r *TicketRepo) CreateForEvent(ctx context.Context, t *TicketRecord) error {
    const q = `INSERT INTO tickets (event_id, price_cents, quantity, quantity_remaining) VALUES (?, ?, ?, ?)`
    result, err := r.db.ExecContext(ctx, q, t.EventID, t.PriceCents, t.Quantity, t.Quantity)
    if err != nil {
        if isDuplicateEntry(err) {
            return ErrConflict
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    t.QuantityRemaining = t.Quantity
    return nil
}

// GetByEventID returns the ticket class of an event.  ErrTicketNotFound
// is returned when ticketing was never enabled for the event.
func (r *TicketRepo) GetByEventID(ctx context.Context, eventID uint64) (*TicketRecord, error) {
    const q = `SELECT id, event_id, price_cents, quantity, quantity_remaining FROM tickets WHERE event_id = ?`
    var t TicketRecord
    err := r.db.QueryRowContext(ctx, q, eventID).Scan(
        &t.ID, &t.EventID, &t.PriceCents, &t.Quantity, &t.QuantityRemaining,
    )
    if err == sql.ErrNoRows {
        return nil, ErrTicketNotFound
    }
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// GetByID returns a ticket class by primary key.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*TicketRecord, error) {
    const q = `SELECT id, event_id, price_cents, quantity, quantity_remaining FROM tickets WHERE id = ?`
    var t TicketRecord
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &t.ID, &t.EventID, &t.PriceCents, &t.Quantity, &t.QuantityRemaining,
    )
    if err == sql.ErrNoRows {
        return nil, ErrTicketNotFound
    }
    if err != nil {
        return nil, err
    }
    return &t, nil
}

// Reserve decrements the remaining quantity by count, but only when at
// least count units remain.  The check and the decrement are a single
// UPDATE statement, never a read followed by a write, so two buyers
// racing for the last unit cannot both win.  When the update matches
// no row, a follow-up existence check distinguishes a sold-out ticket
// (ErrInsufficientInventory) from an unknown one (ErrTicketNotFound).
func (r *TicketRepo) Reserve(ctx context.Context, ticketID uint64, count uint32) error {
    if count == 0 {
        return nil
    }
    const q = `UPDATE tickets
               SET quantity_remaining = quantity_remaining - ?
               WHERE id = ? AND quantity_remaining >= ?`
    result, err := r.db.ExecContext(ctx, q, count, ticketID, count)
    if err != nil {
        return err
    }
    affected, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 1 {
        return nil
    }
    var exists bool
    if err := r.db.QueryRowContext(ctx,
        `SELECT EXISTS(SELECT 1 FROM tickets WHERE id = ?)`, ticketID,
    ).Scan(&exists); err != nil {
        return err
    }
    if !exists {
        return ErrTicketNotFound
    }
    return ErrInsufficientInventory
}

// Release restores count units after a downstream failure, e.g. token
// issuance failing after a successful reservation.  The quantity
// ceiling from creation is re-imposed so a double release can never
// push remaining above the original quantity.
func (r *TicketRepo) Release(ctx context.Context, ticketID uint64, count uint32) error {
    if count == 0 {
        return nil
    }
    const q = `UPDATE tickets
               SET quantity_remaining = LEAST(quantity, quantity_remaining + ?)
               WHERE id = ?`
    result, err := r.db.ExecContext(ctx, q, count, ticketID)
    if err != nil {
        return err
    }
    affected, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if affected == 1 {
        return nil
    }
    // MySQL reports zero affected rows both for a missing ticket and
    // for an update that left the value unchanged (already at the
    // ceiling), so disambiguate with an existence check.
    var exists bool
    if err := r.db.QueryRowContext(ctx,
        `SELECT EXISTS(SELECT 1 FROM tickets WHERE id = ?)`, ticketID,
    ).Scan(&exists); err != nil {
        return err
    }
    if !exists {
        return ErrTicketNotFound
    }
    return nil
}
