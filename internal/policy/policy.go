// Package policy implements the single entitlement decision function
// shared by ticket purchase and room admission.  Earlier iterations of
// the product re-implemented the organizer, ticket and membership
// checks separately at every call site; all of that now funnels
// through CanObtain and CanEnter so the paid/free × public/private
// matrix lives in exactly one place.
package policy

import "github.com/iliyamo/event-ticketing/internal/model"

// Denial reason codes surfaced to clients.  They are distinct from
// generic errors so UIs can render "not eligible" differently from
// "try again".
const (
    ReasonNoValidTicket = "NO_VALID_TICKET"
    ReasonNotAMember    = "NOT_A_MEMBER"
)

// Actor captures everything the evaluator needs to know about the
// requesting user.  Callers resolve the three flags against the store
// before evaluating; the evaluator itself performs no I/O.
//
// Fields:
//  ID          – user identifier, always passed explicitly.
//  IsOrganizer – true when the actor organizes the event under test.
//  HasTicket   – true when the actor holds a non-revoked entitlement
//                for the event's ticket.
//  IsMember    – true when the actor has a room membership for the
//                event.
type Actor struct {
    ID          uint64
    IsOrganizer bool
    HasTicket   bool
    IsMember    bool
}

// Decision is the outcome of an entitlement evaluation.  Reason is
// empty when Allowed is true and carries one of the Reason constants
// otherwise.
type Decision struct {
    Allowed bool
    Reason  string
}

var allowed = Decision{Allowed: true}

func denied(reason string) Decision { return Decision{Reason: reason} }

// CanEnter decides whether the actor may enter the event, i.e. be
// admitted at the door or join the video room.  Rules, in precedence
// order:
//
//  1. The organizer is always allowed.
//  2. Paid events require a non-revoked entitlement.
//  3. Private events require a room membership.  For paid private
//     events both checks apply: ticket first, then membership.
//  4. Free public events are open to everyone.
//
// Entry never consumes inventory.
func CanEnter(event *model.Event, paid bool, actor Actor) Decision {
    if actor.IsOrganizer || actor.ID == event.OrganizerID {
        return allowed
    }
    if paid && !actor.HasTicket {
        return denied(ReasonNoValidTicket)
    }
    if event.IsPrivate() && !actor.IsMember {
        return denied(ReasonNotAMember)
    }
    return allowed
}

// CanObtain decides whether the actor may obtain a ticket for the
// event, either for themselves or as the buyer in a gift purchase.
// The organizer override and the private-membership rule apply exactly
// as in CanEnter.  The paid rule does not: a buyer obviously holds no
// entitlement before their first purchase, so for obtain the paid gate
// is payment capture, which the purchase service enforces before any
// inventory is reserved.  Obtain additionally requires inventory
// availability, checked atomically at reservation time rather than
// here.
func CanObtain(event *model.Event, actor Actor) Decision {
    if actor.IsOrganizer || actor.ID == event.OrganizerID {
        return allowed
    }
    if event.IsPrivate() && !actor.IsMember {
        return denied(ReasonNotAMember)
    }
    return allowed
}
