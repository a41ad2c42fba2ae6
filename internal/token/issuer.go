// Package token mints proof-of-purchase tokens.  A token is an opaque
// high-entropy string with no derivable relationship to the ticket or
// holder it is bound to; a deterministic token (e.g. a hash of
// ticket+user) would be guessable and reusable across events, so the
// binding lives only in the entitlements row, never in the token
// itself.  Global uniqueness is enforced by the UNIQUE constraint on
// entitlements.token at insert time.
package token

import (
    "crypto/rand"
    "encoding/hex"
)

// DefaultBytes is the entropy of an admission token.  32 random bytes
// encode to a 64 character hex string; at that size the collision
// probability is negligible, but the store-level unique constraint and
// the purchase service's bounded retry still cover the theoretical
// case.
const DefaultBytes = 32

// MaxIssueAttempts bounds how many times the purchase service retries
// issuance after a store-level token collision before giving up with
// an issuance failure.
const MaxIssueAttempts = 3

// Issuer generates admission tokens.  The zero value is not usable;
// construct with NewIssuer.
type Issuer struct {
    bytes int
}

// NewIssuer returns an Issuer producing tokens of n random bytes.
// Values below DefaultBytes are raised to DefaultBytes so a
// misconfigured caller can never weaken tokens.
func NewIssuer(n int) *Issuer {
    if n < DefaultBytes {
        n = DefaultBytes
    }
    return &Issuer{bytes: n}
}

// Issue returns a new hex-encoded random token.  It fails only when
// the operating system's entropy source is unavailable.
func (i *Issuer) Issue() (string, error) {
    b := make([]byte, i.bytes)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return hex.EncodeToString(b), nil
}
