package model

import "time"

// Room is the live video room attached to an online event.  It is
// created and deleted by the organizer.  Ready toggles whether
// attendees may join; Connected tracks whether the organizer is
// currently inside.  Only the organizer mutates room state, so
// last-write-wins is sufficient.
type Room struct {
    EventID   uint64    // rooms.event_id
    Ready     bool      // rooms.ready
    Connected bool      // rooms.connected
    CreatedAt time.Time // rooms.created_at
}

// RoomMembership records that a user was granted access to a private
// event independently of payment, e.g. an accepted join request.
// Private events require a membership (in addition to a ticket when
// the event is paid) before a user may obtain a ticket or enter the
// room.
type RoomMembership struct {
    EventID   uint64    // room_memberships.event_id
    UserID    uint64    // room_memberships.user_id
    CreatedAt time.Time // room_memberships.created_at
}
