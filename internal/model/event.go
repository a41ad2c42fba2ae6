package model

// Event type constants describe where an event takes place.  Online
// events are backed by a video room; indoor and outdoor events are
// physical venues where tickets are scanned at the door.
const (
    EventTypeOnline  = "online"
    EventTypeIndoor  = "indoor"
    EventTypeOutdoor = "outdoor"
)

// Event visibility constants.  Private events additionally require a
// room membership before a user can obtain a ticket or join the room.
const (
    VisibilityPublic  = "public"
    VisibilityPrivate = "private"
)

// Event mirrors the events catalog.  The catalog is owned by an
// external system and this service only ever reads it; rows are never
// inserted or mutated here.
//
// Fields:
//  ID          – primary key identifier.
//  Serial      – human-shown identifier printed on tickets and posters.
//                Unique and immutable once issued.
//  Name        – display name of the event.
//  Type        – one of online, indoor, outdoor.
//  Visibility  – public or private.
//  OrganizerID – user who organizes the event.  The organizer bypasses
//                every entitlement check and is the only user allowed
//                to mutate the event's room and ticketing.
type Event struct {
    ID          uint64 // events.id
    Serial      string // events.serial
    Name        string // events.name
    Type        string // events.type
    Visibility  string // events.visibility
    OrganizerID uint64 // events.organizer_id
}

// IsOnline reports whether the event is held in a video room rather
// than a physical venue.
func (e *Event) IsOnline() bool { return e.Type == EventTypeOnline }

// IsPrivate reports whether the event is private.
func (e *Event) IsPrivate() bool { return e.Visibility == VisibilityPrivate }
