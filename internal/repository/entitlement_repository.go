package repository

import (
    "context"
    "database/sql"
    "time"
)

// EntitlementRepo provides data access to the entitlements table, the
// durable record of who holds which proof-of-purchase.  Inserts rely
// on the UNIQUE constraint over the token column for global token
// uniqueness; a violated constraint surfaces as ErrTokenCollision so
// the purchase service can retry with fresh tokens.
type EntitlementRepo struct {
    db *sql.DB
}

// NewEntitlementRepo returns a new EntitlementRepo bound to the given database.
func NewEntitlementRepo(db *sql.DB) *EntitlementRepo { return &EntitlementRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *EntitlementRepo) DB() *sql.DB { return r.db }

// EntitlementRecord mirrors the schema of the entitlements table.  It
// is used internally by the repository when constructing or scanning
// rows.  Business logic should use the model.Entitlement type instead.
type EntitlementRecord struct {
    ID        uint64
    TicketID  uint64
    HolderID  uint64
    Token     string
    Channel   string
    GiftedBy  *uint64
    Revoked   bool
    CheckedIn bool
    CreatedAt time.Time
}

// CreateTx inserts a new entitlement within the scope of an existing
// transaction.  It populates the generated ID on the provided record.
// ErrTokenCollision is returned when the token already exists; the
// caller must roll back and retry with a fresh token.
func (r *EntitlementRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *EntitlementRecord) error {
    const q = `INSERT INTO entitlements (ticket_id, holder_id, token, channel, gifted_by) VALUES (?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, e.TicketID, e.HolderID, e.Token, e.Channel, e.GiftedBy)
    if err != nil {
        if isDuplicateEntry(err) {
            return ErrTokenCollision
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    return nil
}

// Create inserts a single entitlement outside any caller-owned
// transaction.  A lone INSERT is atomic on its own, so the purchase
// path for a self-purchase needs no explicit transaction around it.
func (r *EntitlementRepo) Create(ctx context.Context, e *EntitlementRecord) error {
    const q = `INSERT INTO entitlements (ticket_id, holder_id, token, channel, gifted_by) VALUES (?, ?, ?, ?, ?)`
    result, err := r.db.ExecContext(ctx, q, e.TicketID, e.HolderID, e.Token, e.Channel, e.GiftedBy)
    if err != nil {
        if isDuplicateEntry(err) {
            return ErrTokenCollision
        }
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    return nil
}

// CreateBatch inserts all records in one transaction, populating the
// generated IDs.  Either every recipient of a gift purchase gets a row
// or none does.  Any error rolls the whole batch back; a duplicate
// token anywhere in the batch surfaces as ErrTokenCollision.
func (r *EntitlementRepo) CreateBatch(ctx context.Context, ents []EntitlementRecord) error {
    if len(ents) == 0 {
        return nil
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    for i := range ents {
        if err := r.CreateTx(ctx, tx, &ents[i]); err != nil {
            return err
        }
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// RevokeAndRelease revokes an entitlement and restores one inventory
// unit in the same transaction, so a refund can never revoke without
// restocking or restock twice.  The conditional revoke guards against
// double refunds (ErrRevoked on the second attempt); the restock is
// capped at the ticket's original quantity.
func (r *EntitlementRepo) RevokeAndRelease(ctx context.Context, entitlementID, ticketID uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := r.RevokeTx(ctx, tx, entitlementID); err != nil {
        return err
    }
    const q = `UPDATE tickets
               SET quantity_remaining = LEAST(quantity, quantity_remaining + 1)
               WHERE id = ?`
    if _, err := tx.ExecContext(ctx, q, ticketID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// EntitlementDetail is the display bundle resolved for a presented
// token.  It carries everything an operator's screen needs after an
// Admit decision: event identity, organizer handle and holder
// identity.  The raw token is deliberately absent so it can never leak
// through logs or UI and be replayed.
type EntitlementDetail struct {
    ID              uint64  `json:"id"`
    TicketID        uint64  `json:"ticket_id"`
    HolderID        uint64  `json:"holder_id"`
    HolderHandle    string  `json:"holder_handle"`
    Channel         string  `json:"channel"`
    GiftedBy        *uint64 `json:"gifted_by,omitempty"`
    Revoked         bool    `json:"-"`
    CheckedIn       bool    `json:"-"`
    EventID         uint64  `json:"event_id"`
    EventSerial     string  `json:"event_serial"`
    EventName       string  `json:"event_name"`
    EventType       string  `json:"event_type"`
    OrganizerHandle string  `json:"organizer_handle"`
}

// GetDetailByToken resolves a presented token to its entitlement along
// with the event and identity details needed for the admission screen.
// ErrEntitlementNotFound is returned when the token matches no row.
func (r *EntitlementRepo) GetDetailByToken(ctx context.Context, token string) (*EntitlementDetail, error) {
    const q = `SELECT en.id, en.ticket_id, en.holder_id, hu.handle, en.channel, en.gifted_by,
                      en.revoked, en.checked_in,
                      ev.id, ev.serial, ev.name, ev.type, ou.handle
               FROM entitlements en
               JOIN tickets t ON t.id = en.ticket_id
               JOIN events ev ON ev.id = t.event_id
               JOIN users hu ON hu.id = en.holder_id
               JOIN users ou ON ou.id = ev.organizer_id
               WHERE en.token = ?`
    var det EntitlementDetail
    var giftedBy sql.NullInt64
    err := r.db.QueryRowContext(ctx, q, token).Scan(
        &det.ID, &det.TicketID, &det.HolderID, &det.HolderHandle, &det.Channel, &giftedBy,
        &det.Revoked, &det.CheckedIn,
        &det.EventID, &det.EventSerial, &det.EventName, &det.EventType, &det.OrganizerHandle,
    )
    if err == sql.ErrNoRows {
        return nil, ErrEntitlementNotFound
    }
    if err != nil {
        return nil, err
    }
    if giftedBy.Valid {
        gb := uint64(giftedBy.Int64)
        det.GiftedBy = &gb
    }
    return &det, nil
}

// HasActiveForEvent reports whether the user holds at least one
// non-revoked entitlement for the event's ticket class.  Used by the
// entitlement evaluator to resolve the HasTicket flag.
func (r *EntitlementRepo) HasActiveForEvent(ctx context.Context, userID, eventID uint64) (bool, error) {
    const q = `SELECT EXISTS(
                 SELECT 1 FROM entitlements en
                 JOIN tickets t ON t.id = en.ticket_id
                 WHERE en.holder_id = ? AND t.event_id = ? AND en.revoked = 0
               )`
    var exists bool
    if err := r.db.QueryRowContext(ctx, q, userID, eventID).Scan(&exists); err != nil {
        return false, err
    }
    return exists, nil
}

// HoldingDetail is returned by ListByHolder for display to users
// reviewing their tickets.
type HoldingDetail struct {
    ID          uint64  `json:"id"`
    EventID     uint64  `json:"event_id"`
    EventSerial string  `json:"event_serial"`
    EventName   string  `json:"event_name"`
    EventType   string  `json:"event_type"`
    Token       string  `json:"token"`
    Channel     string  `json:"channel"`
    GiftedBy    *uint64 `json:"gifted_by,omitempty"`
    Revoked     bool    `json:"revoked"`
    CreatedAt   string  `json:"created_at"`
}

// ListByHolder returns all entitlements held by a user, newest first,
// together with the event details needed to render them.  The token is
// included here: this is the holder retrieving their own credential,
// not an operator's admission screen.
func (r *EntitlementRepo) ListByHolder(ctx context.Context, holderID uint64) ([]HoldingDetail, error) {
    const q = `SELECT en.id, ev.id, ev.serial, ev.name, ev.type,
                      en.token, en.channel, en.gifted_by, en.revoked, en.created_at
               FROM entitlements en
               JOIN tickets t ON t.id = en.ticket_id
               JOIN events ev ON ev.id = t.event_id
               WHERE en.holder_id = ?
               ORDER BY en.created_at DESC, en.id DESC`
    rows, err := r.db.QueryContext(ctx, q, holderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    holdings := make([]HoldingDetail, 0)
    for rows.Next() {
        var h HoldingDetail
        var giftedBy sql.NullInt64
        var createdAt time.Time
        if err := rows.Scan(
            &h.ID, &h.EventID, &h.EventSerial, &h.EventName, &h.EventType,
            &h.Token, &h.Channel, &giftedBy, &h.Revoked, &createdAt,
        ); err != nil {
            return nil, err
        }
        if giftedBy.Valid {
            gb := uint64(giftedBy.Int64)
            h.GiftedBy = &gb
        }
        h.CreatedAt = createdAt.UTC().Format(time.RFC3339)
        holdings = append(holdings, h)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return holdings, nil
}

// GetByID returns a single entitlement row by primary key.
func (r *EntitlementRepo) GetByID(ctx context.Context, id uint64) (*EntitlementRecord, error) {
    const q = `SELECT id, ticket_id, holder_id, token, channel, gifted_by, revoked, checked_in, created_at
               FROM entitlements WHERE id = ?`
    var e EntitlementRecord
    var giftedBy sql.NullInt64
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &e.ID, &e.TicketID, &e.HolderID, &e.Token, &e.Channel, &giftedBy,
        &e.Revoked, &e.CheckedIn, &e.CreatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrEntitlementNotFound
    }
    if err != nil {
        return nil, err
    }
    if giftedBy.Valid {
        gb := uint64(giftedBy.Int64)
        e.GiftedBy = &gb
    }
    return &e, nil
}

// RevokeTx marks an entitlement revoked within the provided
// transaction.  The WHERE clause requires the row to still be active,
// so a refund processed twice fails the second time with ErrRevoked
// instead of releasing inventory again.
func (r *EntitlementRepo) RevokeTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `UPDATE entitlements SET revoked = 1 WHERE id = ? AND revoked = 0`
    result, err := tx.ExecContext(ctx, q, id)
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
    if err := tx.QueryRowContext(ctx,
        `SELECT EXISTS(SELECT 1 FROM entitlements WHERE id = ?)`, id,
    ).Scan(&exists); err != nil {
        return err
    }
    if !exists {
        return ErrEntitlementNotFound
    }
    return ErrRevoked
}

// MarkCheckedIn consumes an entitlement on first admission when
// single-use check-in is enabled.  The conditional update makes the
// consumption atomic: two operators scanning the same token
// concurrently can only produce one Admit.
func (r *EntitlementRepo) MarkCheckedIn(ctx context.Context, id uint64) error {
    const q = `UPDATE entitlements SET checked_in = 1 WHERE id = ? AND checked_in = 0 AND revoked = 0`
    result, err := r.db.ExecContext(ctx, q, id)
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
    e, err := r.GetByID(ctx, id)
    if err != nil {
        return err
    }
    if e.Revoked {
        return ErrRevoked
    }
    return ErrAlreadyCheckedIn
}
