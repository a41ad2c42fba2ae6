package repository

import (
    "context"
    "database/sql"
)

// MembershipRepo provides access to room_memberships, the record that
// a user was granted access to a private event independently of
// payment.  Memberships are written by the (out of scope) join-request
// flow; this service reads them to resolve the IsMember flag and lets
// organizers grant them directly.
type MembershipRepo struct {
    db *sql.DB
}

// NewMembershipRepo returns a new MembershipRepo bound to the given database.
func NewMembershipRepo(db *sql.DB) *MembershipRepo { return &MembershipRepo{db: db} }

// IsMember reports whether the user has a membership for the event.
func (r *MembershipRepo) IsMember(ctx context.Context, eventID, userID uint64) (bool, error) {
    const q = `SELECT EXISTS(SELECT 1 FROM room_memberships WHERE event_id = ? AND user_id = ?)`
    var exists bool
    if err := r.db.QueryRowContext(ctx, q, eventID, userID).Scan(&exists); err != nil {
        return false, err
    }
    return exists, nil
}

// Grant inserts a membership.  Granting an existing membership is a
// no-op rather than an error, so organizers can re-accept without
// checking first.
func (r *MembershipRepo) Grant(ctx context.Context, eventID, userID uint64) error {
    const q = `INSERT INTO room_memberships (event_id, user_id) VALUES (?, ?)`
    if _, err := r.db.ExecContext(ctx, q, eventID, userID); err != nil {
        if isDuplicateEntry(err) {
            return nil
        }
        return err
    }
    return nil
}

// Revoke removes a membership.  Removing an absent membership is a
// no-op.
func (r *MembershipRepo) Revoke(ctx context.Context, eventID, userID uint64) error {
    const q = `DELETE FROM room_memberships WHERE event_id = ? AND user_id = ?`
    _, err := r.db.ExecContext(ctx, q, eventID, userID)
    return err
}
