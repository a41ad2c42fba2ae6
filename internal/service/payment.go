package service

import (
    "context"
    "strings"
)

// PaymentConfirmer is the external "payment captured" signal consulted
// before any inventory is reserved for a paid event.  Payment capture
// itself happens at an external processor; this core only asks whether
// a given reference represents a captured payment covering the amount.
type PaymentConfirmer interface {
    Confirmed(ctx context.Context, eventID, buyerID uint64, paymentRef string, amountCents uint64) (bool, error)
}

// RefConfirmer accepts payment references carrying the processor's
// prefix.  It is the integration seam where a real capture lookup
// against the processor API belongs; until then a well-formed
// reference is treated as captured, matching the trust model of the
// hosted checkout flow that produced it.
type RefConfirmer struct {
    Prefix string
}

// Confirmed reports whether the reference looks like a capture issued
// by the configured processor.
func (c *RefConfirmer) Confirmed(_ context.Context, _, _ uint64, paymentRef string, _ uint64) (bool, error) {
    ref := strings.TrimSpace(paymentRef)
    if ref == "" {
        return false, nil
    }
    if c.Prefix != "" && !strings.HasPrefix(ref, c.Prefix) {
        return false, nil
    }
    return true, nil
}
