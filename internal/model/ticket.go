package model

import "time"

// Ticket is the single ticket class of an event.  It is created when
// the organizer enables ticketing and from then on only its
// QuantityRemaining column is mutated, exclusively through the
// conditional decrement in the ticket repository.  QuantityRemaining
// never goes negative.
//
// Fields:
//  ID                – primary key identifier.
//  EventID           – event this ticket class belongs to (1:1).
//  PriceCents        – unit price in cents.  Zero means the event is free.
//  Quantity          – quantity at creation; immutable.
//  QuantityRemaining – units still available for reservation.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Ticket struct {
    ID                uint64    // tickets.id
    EventID           uint64    // tickets.event_id
    PriceCents        uint32    // tickets.price_cents
    Quantity          uint32    // tickets.quantity
    QuantityRemaining uint32    // tickets.quantity_remaining
    CreatedAt         time.Time // tickets.created_at
    UpdatedAt         time.Time // tickets.updated_at
}

// IsPaid reports whether the ticket costs money.  Paid events gate
// room entry on holding a non-revoked entitlement.
func (t *Ticket) IsPaid() bool { return t.PriceCents > 0 }
