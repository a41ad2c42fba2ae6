package service

import (
    "context"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/policy"
    "github.com/iliyamo/event-ticketing/internal/repository"
)

// ReasonRoomNotReady denies a join while the organizer has not opened
// the room, independent of the joiner's entitlement.
const ReasonRoomNotReady = "ROOM_NOT_READY"

// RoomStore is the video room state store.
type RoomStore interface {
    Create(ctx context.Context, eventID uint64) error
    GetByEvent(ctx context.Context, eventID uint64) (*repository.RoomRecord, error)
    SetReady(ctx context.Context, eventID uint64, ready bool) error
    SetConnected(ctx context.Context, eventID uint64, connected bool) error
    Delete(ctx context.Context, eventID uint64) error
}

// RoomService gates access to live video rooms.  A join is treated as
// an entry at a virtual door: the same entitlement evaluation as
// ticket verification applies, plus a readiness gate on the room
// itself.  All mutations are organizer-only.
type RoomService struct {
    catalog      EventCatalog
    inventory    Inventory
    entitlements EntitlementStore
    memberships  MembershipStore
    rooms        RoomStore
}

// NewRoomService constructs a RoomService.
func NewRoomService(catalog EventCatalog, inventory Inventory, entitlements EntitlementStore, memberships MembershipStore, rooms RoomStore) *RoomService {
    if catalog == nil || inventory == nil || entitlements == nil || memberships == nil || rooms == nil {
        panic("nil dependency passed to NewRoomService")
    }
    return &RoomService{
        catalog:      catalog,
        inventory:    inventory,
        entitlements: entitlements,
        memberships:  memberships,
        rooms:        rooms,
    }
}

// AdmissionResult is the outcome of a room join evaluation.
type AdmissionResult struct {
    Allowed bool   `json:"allowed"`
    Reason  string `json:"reason,omitempty"`
}

// loadEvent fetches the event and reports whether it is paid.  An
// event without a ticket class is free: ticketing was never enabled.
func (s *RoomService) loadEvent(ctx context.Context, eventID uint64) (*repository.EventRecord, bool, error) {
    ev, err := s.catalog.GetByID(ctx, eventID)
    if err != nil {
        return nil, false, err
    }
    t, err := s.inventory.GetByEventID(ctx, eventID)
    if err == repository.ErrTicketNotFound {
        return ev, false, nil
    }
    if err != nil {
        return nil, false, err
    }
    return ev, t.PriceCents > 0, nil
}

// resolveActor builds the policy actor for a user against an event,
// resolving the ticket and membership flags only when the policy can
// actually depend on them.
func (s *RoomService) resolveActor(ctx context.Context, ev *repository.EventRecord, paid bool, userID uint64) (policy.Actor, error) {
    actor := policy.Actor{ID: userID}
    if userID == ev.OrganizerID {
        return actor, nil
    }
    if paid {
        has, err := s.entitlements.HasActiveForEvent(ctx, userID, ev.ID)
        if err != nil {
            return actor, err
        }
        actor.HasTicket = has
    }
    if ev.Visibility == model.VisibilityPrivate {
        member, err := s.memberships.IsMember(ctx, ev.ID, userID)
        if err != nil {
            return actor, err
        }
        actor.IsMember = member
    }
    return actor, nil
}

// CanJoin decides whether the user may join the event's video room.
// Entitlement is evaluated first so the user learns the real reason
// they are excluded; the readiness gate applies on top even for
// entitled users (and for everyone but the organizer, who must be able
// to enter their own not-ready room to set it up).
func (s *RoomService) CanJoin(ctx context.Context, eventID, userID uint64) (*AdmissionResult, error) {
    ev, paid, err := s.loadEvent(ctx, eventID)
    if err != nil {
        return nil, err
    }
    actor, err := s.resolveActor(ctx, ev, paid, userID)
    if err != nil {
        return nil, err
    }
    mev := &model.Event{
        ID:          ev.ID,
        Serial:      ev.Serial,
        Name:        ev.Name,
        Type:        ev.Type,
        Visibility:  ev.Visibility,
        OrganizerID: ev.OrganizerID,
    }
    if d := policy.CanEnter(mev, paid, actor); !d.Allowed {
        return &AdmissionResult{Reason: d.Reason}, nil
    }
    room, err := s.rooms.GetByEvent(ctx, eventID)
    if err != nil {
        return nil, err
    }
    if !room.Ready && userID != ev.OrganizerID {
        return &AdmissionResult{Reason: ReasonRoomNotReady}, nil
    }
    return &AdmissionResult{Allowed: true}, nil
}

// Join evaluates admission and records the organizer's presence: the
// connected flag flips on join and leave of the organizer
// specifically, never for attendees.
func (s *RoomService) Join(ctx context.Context, eventID, userID uint64) (*AdmissionResult, error) {
    res, err := s.CanJoin(ctx, eventID, userID)
    if err != nil || !res.Allowed {
        return res, err
    }
    ev, err := s.catalog.GetByID(ctx, eventID)
    if err != nil {
        return nil, err
    }
    if userID == ev.OrganizerID {
        if err := s.rooms.SetConnected(ctx, eventID, true); err != nil {
            return nil, err
        }
    }
    return res, nil
}

// Leave records the organizer leaving their room.  Attendee leaves
// carry no room state.
func (s *RoomService) Leave(ctx context.Context, eventID, userID uint64) error {
    ev, err := s.catalog.GetByID(ctx, eventID)
    if err != nil {
        return err
    }
    if userID != ev.OrganizerID {
        return nil
    }
    return s.rooms.SetConnected(ctx, eventID, false)
}

// requireOrganizer loads the event and rejects non-organizers.
func (s *RoomService) requireOrganizer(ctx context.Context, eventID, actorID uint64) (*repository.EventRecord, error) {
    ev, err := s.catalog.GetByID(ctx, eventID)
    if err != nil {
        return nil, err
    }
    if actorID != ev.OrganizerID {
        return nil, repository.ErrForbidden
    }
    return ev, nil
}

// CreateRoom creates the video room for an online event.  Only the
// organizer may create it, and only events of type online carry rooms.
func (s *RoomService) CreateRoom(ctx context.Context, eventID, actorID uint64) error {
    ev, err := s.requireOrganizer(ctx, eventID, actorID)
    if err != nil {
        return err
    }
    if ev.Type != model.EventTypeOnline {
        return repository.ErrConflict
    }
    return s.rooms.Create(ctx, eventID)
}

// DeleteRoom removes the event's room.  Organizer only.
func (s *RoomService) DeleteRoom(ctx context.Context, eventID, actorID uint64) error {
    if _, err := s.requireOrganizer(ctx, eventID, actorID); err != nil {
        return err
    }
    return s.rooms.Delete(ctx, eventID)
}

// SetReady toggles whether attendees may join.  Organizer only,
// last-write-wins.
func (s *RoomService) SetReady(ctx context.Context, eventID, actorID uint64, ready bool) error {
    if _, err := s.requireOrganizer(ctx, eventID, actorID); err != nil {
        return err
    }
    return s.rooms.SetReady(ctx, eventID, ready)
}
