package policy

import (
    "testing"

    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/event-ticketing/internal/model"
)

func event(visibility string) *model.Event {
    return &model.Event{
        ID:          1,
        Serial:      "EV-01",
        Name:        "Test Event",
        Type:        model.EventTypeOnline,
        Visibility:  visibility,
        OrganizerID: 100,
    }
}

func TestCanEnterDecisionTable(t *testing.T) {
    cases := []struct {
        name       string
        visibility string
        paid       bool
        actor      Actor
        allowed    bool
        reason     string
    }{
        {
            name:       "organizer always allowed",
            visibility: model.VisibilityPrivate,
            paid:       true,
            actor:      Actor{ID: 100},
            allowed:    true,
        },
        {
            name:       "free public open to everyone",
            visibility: model.VisibilityPublic,
            paid:       false,
            actor:      Actor{ID: 2},
            allowed:    true,
        },
        {
            name:       "paid public requires ticket",
            visibility: model.VisibilityPublic,
            paid:       true,
            actor:      Actor{ID: 2},
            allowed:    false,
            reason:     ReasonNoValidTicket,
        },
        {
            name:       "free private requires membership",
            visibility: model.VisibilityPrivate,
            paid:       false,
            actor:      Actor{ID: 2},
            allowed:    false,
            reason:     ReasonNotAMember,
        },
        {
            name:       "paid private with ticket but no membership",
            visibility: model.VisibilityPrivate,
            paid:       true,
            actor:      Actor{ID: 2, HasTicket: true},
            allowed:    false,
            reason:     ReasonNotAMember,
        },
        {
            name:       "paid private with membership but no ticket",
            visibility: model.VisibilityPrivate,
            paid:       true,
            actor:      Actor{ID: 2, IsMember: true},
            allowed:    false,
            reason:     ReasonNoValidTicket,
        },
        {
            name:       "paid private with ticket and membership",
            visibility: model.VisibilityPrivate,
            paid:       true,
            actor:      Actor{ID: 2, HasTicket: true, IsMember: true},
            allowed:    true,
        },
        {
            name:       "paid public with ticket",
            visibility: model.VisibilityPublic,
            paid:       true,
            actor:      Actor{ID: 2, HasTicket: true},
            allowed:    true,
        },
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            d := CanEnter(event(tc.visibility), tc.paid, tc.actor)
            assert.Equal(t, tc.allowed, d.Allowed)
            assert.Equal(t, tc.reason, d.Reason)
        })
    }
}

func TestCanObtain(t *testing.T) {
    t.Run("paid public event needs no prior ticket", func(t *testing.T) {
        d := CanObtain(event(model.VisibilityPublic), Actor{ID: 2})
        assert.True(t, d.Allowed)
    })

    t.Run("private event requires membership", func(t *testing.T) {
        d := CanObtain(event(model.VisibilityPrivate), Actor{ID: 2})
        assert.False(t, d.Allowed)
        assert.Equal(t, ReasonNotAMember, d.Reason)
    })

    t.Run("private event member allowed", func(t *testing.T) {
        d := CanObtain(event(model.VisibilityPrivate), Actor{ID: 2, IsMember: true})
        assert.True(t, d.Allowed)
    })

    t.Run("organizer bypasses membership", func(t *testing.T) {
        d := CanObtain(event(model.VisibilityPrivate), Actor{ID: 100})
        assert.True(t, d.Allowed)
    })

    t.Run("IsOrganizer flag honoured without matching id", func(t *testing.T) {
        d := CanObtain(event(model.VisibilityPrivate), Actor{ID: 2, IsOrganizer: true})
        assert.True(t, d.Allowed)
    })
}
