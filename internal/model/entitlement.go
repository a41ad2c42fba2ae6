package model

import "time"

// Entitlement channel constants record how a ticket was obtained.
const (
    ChannelOnline   = "online"
    ChannelPhysical = "physical"
)

// Entitlement is a durable record that a user holds a ticket.  One row
// is created per successful reservation and is immutable afterwards
// except for the Revoked flag (set on refund) and the CheckedIn flag
// (set on first admission when single-use check-in is enabled).
//
// Fields:
//  ID        – primary key identifier.
//  TicketID  – ticket class the entitlement draws from.  The sum of
//              active entitlements for a ticket never exceeds the
//              ticket's quantity at creation.
//  HolderID  – user who holds the entitlement.
//  Token     – opaque proof-of-purchase string presented at the door.
//              High-entropy, globally unique, with no derivable
//              relationship to ticket or holder.
//  Channel   – online or physical.
//  GiftedBy  – set when the entitlement was purchased on behalf of the
//              holder by another user; nil for self-purchases.
//  Revoked   – true once refunded; revoked entitlements never admit.
//  CheckedIn – true once admitted, when single-use check-in is on.
//  CreatedAt – creation timestamp.
type Entitlement struct {
    ID        uint64    // entitlements.id
    TicketID  uint64    // entitlements.ticket_id
    HolderID  uint64    // entitlements.holder_id
    Token     string    // entitlements.token
    Channel   string    // entitlements.channel
    GiftedBy  *uint64   // entitlements.gifted_by (nullable)
    Revoked   bool      // entitlements.revoked
    CheckedIn bool      // entitlements.checked_in
    CreatedAt time.Time // entitlements.created_at
}
