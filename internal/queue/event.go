// Package queue defines message payloads exchanged over the message broker.
package queue

// EntitlementIssuedEvent is published once per entitlement created by
// a purchase or gift.  It contains enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.  The admission token is deliberately excluded so
// it cannot leak through broker logs.
type EntitlementIssuedEvent struct {
    EntitlementID uint64  `json:"entitlement_id"`
    EventID       uint64  `json:"event_id"`
    EventSerial   string  `json:"event_serial"`
    EventName     string  `json:"event_name"`
    HolderID      uint64  `json:"holder_id"`
    GiftedBy      *uint64 `json:"gifted_by,omitempty"`
    Channel       string  `json:"channel"`
    PriceCents    uint32  `json:"price_cents"`
    IssuedAt      string  `json:"issued_at"`
}
