package repository

import (
    "context"
    "database/sql"
    "time"
)

// RefreshTokenRepo persists and validates refresh tokens.  Only the
// SHA-256 hash of a token ever touches the database; the raw value is
// returned to the client once at issue time.  These are session
// credentials for the HTTP surface and are unrelated to admission
// tokens, which live in the entitlements table.
type RefreshTokenRepo struct {
    db *sql.DB
}

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{db: db} }

// Store inserts a refresh token hash row.
func (r *RefreshTokenRepo) Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
    _, err := r.db.ExecContext(ctx,
        "INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
        userID, tokenHash, exp)
    return err
}

// Validate returns the owning user ID when a non-revoked, non-expired
// token with the given hash exists.  Missing, revoked and expired
// tokens all surface uniformly as sql.ErrNoRows so callers cannot
// distinguish them (and neither can an attacker).
func (r *RefreshTokenRepo) Validate(ctx context.Context, tokenHash string) (uint64, error) {
    var (
        userID    uint64
        expiresAt time.Time
        revokedAt sql.NullTime
    )
    err := r.db.QueryRowContext(ctx,
        "SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
        tokenHash).Scan(&userID, &expiresAt, &revokedAt)
    if err != nil {
        return 0, err
    }
    if revokedAt.Valid {
        return 0, sql.ErrNoRows
    }
    if time.Now().UTC().After(expiresAt) {
        return 0, sql.ErrNoRows
    }
    return userID, nil
}

// Revoke marks the token with the given hash as revoked.
func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
    _, err := r.db.ExecContext(ctx,
        "UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
        tokenHash)
    return err
}

// RevokeAllForUser revokes every active token of a user.
func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
    _, err := r.db.ExecContext(ctx,
        "UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
        userID)
    return err
}
