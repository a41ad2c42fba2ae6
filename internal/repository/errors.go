// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as services and handlers to distinguish between different
// failure scenarios. For example, ErrInsufficientInventory means a
// reservation asked for more units than remain and should be shown as
// "sold out", while ErrTokenCollision is an internal condition the
// purchase service retries with a fresh token.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own, e.g. a non-organizer toggling a
// room. Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because
// of conflicting state, such as creating a ticket class for an event
// that already has one. Handlers should translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")

// ErrEventNotFound is returned when an event lookup against the
// catalog finds no row.
var ErrEventNotFound = errors.New("event not found")

// ErrTicketNotFound is returned when an event has no ticket class,
// i.e. ticketing was never enabled for it.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrInsufficientInventory is returned when a conditional decrement
// finds fewer remaining units than requested. The caller may retry
// with a smaller count; the repository never retries on its own.
var ErrInsufficientInventory = errors.New("insufficient inventory")

// ErrEntitlementNotFound is returned when a token or entitlement ID
// resolves to no row. At the verification boundary this surfaces as
// an InvalidToken denial.
var ErrEntitlementNotFound = errors.New("entitlement not found")

// ErrTokenCollision is returned when an entitlement insert trips the
// UNIQUE constraint on the token column. Internal; the purchase
// service retries with fresh tokens up to a small bound.
var ErrTokenCollision = errors.New("token collision")

// ErrAlreadyCheckedIn is returned by the conditional check-in update
// when the entitlement was consumed by an earlier admission.
var ErrAlreadyCheckedIn = errors.New("already checked in")

// ErrRevoked is returned when an operation targets an entitlement
// that was revoked by a refund.
var ErrRevoked = errors.New("entitlement revoked")

// ErrRoomNotFound is returned when an event has no video room.
var ErrRoomNotFound = errors.New("room not found")

// ErrRoomExists is returned when the organizer attempts to create a
// second room for the same event.
var ErrRoomExists = errors.New("room already exists")
