package service

import (
    "context"
    "sync"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/policy"
    "github.com/iliyamo/event-ticketing/internal/repository"
    "github.com/iliyamo/event-ticketing/internal/token"
)

type purchaseFixture struct {
    catalog      *fakeCatalog
    inventory    *fakeInventory
    entitlements *fakeEntitlements
    memberships  *fakeMemberships
    users        *fakeUsers
    tokens       *seqTokens
    published    *capturedPublishes
    svc          *PurchaseService
}

func newPurchaseFixture(ev *repository.EventRecord, t *repository.TicketRecord) *purchaseFixture {
    f := &purchaseFixture{
        catalog:     &fakeCatalog{events: map[uint64]*repository.EventRecord{ev.ID: ev}},
        inventory:   &fakeInventory{tickets: map[uint64]*repository.TicketRecord{t.ID: t}},
        memberships: &fakeMemberships{members: map[uint64]map[uint64]bool{}},
        users:       &fakeUsers{active: map[uint64]bool{}},
        tokens:      &seqTokens{},
        published:   &capturedPublishes{},
    }
    f.entitlements = newFakeEntitlements(f.catalog, f.inventory)
    f.svc = NewPurchaseService(
        f.catalog, f.inventory, f.entitlements, f.memberships, f.users,
        f.tokens, alwaysConfirmed{}, f.published.publish, token.MaxIssueAttempts,
    )
    return f
}

func paidEvent() (*repository.EventRecord, *repository.TicketRecord) {
    ev := &repository.EventRecord{
        ID: 1, Serial: "GALA-01", Name: "Gala", Type: model.EventTypeIndoor,
        Visibility: model.VisibilityPublic, OrganizerID: 100,
    }
    t := &repository.TicketRecord{ID: 10, EventID: 1, PriceCents: 1000, Quantity: 5, QuantityRemaining: 5}
    return ev, t
}

func TestPurchaseForSelf(t *testing.T) {
    t.Run("reserves issues and persists", func(t *testing.T) {
        ev, tk := paidEvent()
        f := newPurchaseFixture(ev, tk)

        ent, err := f.svc.PurchaseForSelf(context.Background(), 1, 2, model.ChannelOnline, "pay_abc")
        require.NoError(t, err)
        assert.NotEmpty(t, ent.Token)
        assert.Nil(t, ent.GiftedBy)
        assert.Equal(t, uint64(2), ent.HolderID)
        assert.Equal(t, uint32(4), f.inventory.remaining(10))
        assert.Equal(t, 1, f.entitlements.count())
        assert.Len(t, f.published.events, 1)
    })

    t.Run("paid event without captured payment reserves nothing", func(t *testing.T) {
        ev, tk := paidEvent()
        f := newPurchaseFixture(ev, tk)
        f.svc.payments = &RefConfirmer{}

        _, err := f.svc.PurchaseForSelf(context.Background(), 1, 2, model.ChannelOnline, "")
        require.ErrorIs(t, err, ErrPaymentRequired)
        assert.Equal(t, uint32(5), f.inventory.remaining(10))
        assert.Equal(t, 0, f.entitlements.count())
    })

    t.Run("free event skips payment", func(t *testing.T) {
        ev, tk := paidEvent()
        tk.PriceCents = 0
        f := newPurchaseFixture(ev, tk)
        f.svc.payments = &RefConfirmer{}

        _, err := f.svc.PurchaseForSelf(context.Background(), 1, 2, model.ChannelOnline, "")
        require.NoError(t, err)
    })

    t.Run("sold out", func(t *testing.T) {
        ev, tk := paidEvent()
        tk.QuantityRemaining = 0
        f := newPurchaseFixture(ev, tk)

        _, err := f.svc.PurchaseForSelf(context.Background(), 1, 2, model.ChannelOnline, "pay_abc")
        require.ErrorIs(t, err, repository.ErrInsufficientInventory)
    })

    t.Run("private event non-member denied before any reservation", func(t *testing.T) {
        ev, tk := paidEvent()
        ev.Visibility = model.VisibilityPrivate
        f := newPurchaseFixture(ev, tk)

        _, err := f.svc.PurchaseForSelf(context.Background(), 1, 2, model.ChannelOnline, "pay_abc")
        reason, ok := Denied(err)
        require.True(t, ok)
        assert.Equal(t, policy.ReasonNotAMember, reason)
        assert.Equal(t, uint32(5), f.inventory.remaining(10))
    })

    t.Run("token collision retries with fresh token", func(t *testing.T) {
        ev, tk := paidEvent()
        f := newPurchaseFixture(ev, tk)
        require.NoError(t, f.entitlements.Create(context.Background(), &repository.EntitlementRecord{
            TicketID: 10, HolderID: 99, Token: "occupied", Channel: model.ChannelOnline,
        }))
        f.tokens.queue = []string{"occupied"}

        ent, err := f.svc.PurchaseForSelf(context.Background(), 1, 2, model.ChannelOnline, "pay_abc")
        require.NoError(t, err)
        assert.NotEqual(t, "occupied", ent.Token)
    })

    t.Run("exhausted collisions release the reservation", func(t *testing.T) {
        ev, tk := paidEvent()
        f := newPurchaseFixture(ev, tk)
        require.NoError(t, f.entitlements.Create(context.Background(), &repository.EntitlementRecord{
            TicketID: 10, HolderID: 99, Token: "occupied", Channel: model.ChannelOnline,
        }))
        f.tokens.queue = []string{"occupied", "occupied", "occupied"}

        _, err := f.svc.PurchaseForSelf(context.Background(), 1, 2, model.ChannelOnline, "pay_abc")
        require.ErrorIs(t, err, ErrIssuanceFailed)
        assert.Equal(t, uint32(5), f.inventory.remaining(10))
        assert.Equal(t, uint32(1), f.inventory.released)
    })
}

func TestPurchaseForSelfNeverOversells(t *testing.T) {
    ev, tk := paidEvent()
    tk.Quantity = 5
    tk.QuantityRemaining = 5
    f := newPurchaseFixture(ev, tk)

    const buyers = 20
    var wg sync.WaitGroup
    errs := make([]error, buyers)
    for i := 0; i < buyers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = f.svc.PurchaseForSelf(context.Background(), 1, uint64(200+i), model.ChannelOnline, "pay_abc")
        }(i)
    }
    wg.Wait()

    successes, soldOut := 0, 0
    for _, err := range errs {
        switch err {
        case nil:
            successes++
        case repository.ErrInsufficientInventory:
            soldOut++
        default:
            t.Fatalf("unexpected error: %v", err)
        }
    }
    assert.Equal(t, 5, successes)
    assert.Equal(t, 15, soldOut)
    assert.Equal(t, uint32(0), f.inventory.remaining(10))
    assert.Equal(t, 5, f.entitlements.count())
}

func TestPurchaseForOthers(t *testing.T) {
    setup := func(available uint32) *purchaseFixture {
        ev, tk := paidEvent()
        tk.QuantityRemaining = available
        f := newPurchaseFixture(ev, tk)
        for id := uint64(2); id <= 6; id++ {
            f.users.active[id] = true
        }
        return f
    }

    t.Run("one entitlement per recipient with provenance", func(t *testing.T) {
        f := setup(5)
        ents, err := f.svc.PurchaseForOthers(context.Background(), 1, 2, []uint64{3, 4, 5}, model.ChannelOnline, "pay_abc")
        require.NoError(t, err)
        require.Len(t, ents, 3)
        for _, e := range ents {
            require.NotNil(t, e.GiftedBy)
            assert.Equal(t, uint64(2), *e.GiftedBy)
        }
        assert.Equal(t, uint32(2), f.inventory.remaining(10))
        assert.Len(t, f.published.events, 3)
    })

    t.Run("all or nothing when recipients exceed availability", func(t *testing.T) {
        f := setup(2)
        _, err := f.svc.PurchaseForOthers(context.Background(), 1, 2, []uint64{3, 4, 5}, model.ChannelOnline, "pay_abc")
        require.ErrorIs(t, err, repository.ErrInsufficientInventory)
        assert.Equal(t, uint32(2), f.inventory.remaining(10))
        assert.Equal(t, 0, f.entitlements.count())
    })

    t.Run("unknown recipient fails before reservation", func(t *testing.T) {
        f := setup(5)
        _, err := f.svc.PurchaseForOthers(context.Background(), 1, 2, []uint64{3, 777}, model.ChannelOnline, "pay_abc")
        require.ErrorIs(t, err, ErrUnknownRecipient)
        assert.Equal(t, uint32(5), f.inventory.remaining(10))
    })

    t.Run("empty recipient list", func(t *testing.T) {
        f := setup(5)
        _, err := f.svc.PurchaseForOthers(context.Background(), 1, 2, nil, model.ChannelOnline, "pay_abc")
        require.ErrorIs(t, err, ErrNoRecipients)
    })

    t.Run("duplicate recipients collapse to one", func(t *testing.T) {
        f := setup(5)
        ents, err := f.svc.PurchaseForOthers(context.Background(), 1, 2, []uint64{3, 3, 3}, model.ChannelOnline, "pay_abc")
        require.NoError(t, err)
        assert.Len(t, ents, 1)
        assert.Equal(t, uint32(4), f.inventory.remaining(10))
    })

    t.Run("batch collision rolls back and retries whole batch", func(t *testing.T) {
        f := setup(5)
        require.NoError(t, f.entitlements.Create(context.Background(), &repository.EntitlementRecord{
            TicketID: 10, HolderID: 99, Token: "occupied", Channel: model.ChannelOnline,
        }))
        f.tokens.queue = []string{"occupied"} // first token of first batch attempt collides

        ents, err := f.svc.PurchaseForOthers(context.Background(), 1, 2, []uint64{3, 4}, model.ChannelOnline, "pay_abc")
        require.NoError(t, err)
        assert.Len(t, ents, 2)
        // 1 pre-seeded + 2 from the successful retry; nothing from the rolled-back attempt.
        assert.Equal(t, 3, f.entitlements.count())
    })
}

func TestRefund(t *testing.T) {
    buy := func(f *purchaseFixture, buyerID uint64) *model.Entitlement {
        ent, err := f.svc.PurchaseForSelf(context.Background(), 1, buyerID, model.ChannelOnline, "pay_abc")
        require.NoError(t, err)
        return ent
    }

    t.Run("holder refund revokes and restocks", func(t *testing.T) {
        ev, tk := paidEvent()
        f := newPurchaseFixture(ev, tk)
        ent := buy(f, 2)
        require.Equal(t, uint32(4), f.inventory.remaining(10))

        require.NoError(t, f.svc.Refund(context.Background(), ent.ID, 2))
        assert.Equal(t, uint32(5), f.inventory.remaining(10))

        rec, err := f.entitlements.GetByID(context.Background(), ent.ID)
        require.NoError(t, err)
        assert.True(t, rec.Revoked)
    })

    t.Run("double refund rejected", func(t *testing.T) {
        ev, tk := paidEvent()
        f := newPurchaseFixture(ev, tk)
        ent := buy(f, 2)
        require.NoError(t, f.svc.Refund(context.Background(), ent.ID, 2))
        require.ErrorIs(t, f.svc.Refund(context.Background(), ent.ID, 2), repository.ErrRevoked)
        assert.Equal(t, uint32(5), f.inventory.remaining(10))
    })

    t.Run("stranger forbidden", func(t *testing.T) {
        ev, tk := paidEvent()
        f := newPurchaseFixture(ev, tk)
        ent := buy(f, 2)
        require.ErrorIs(t, f.svc.Refund(context.Background(), ent.ID, 3), repository.ErrForbidden)
    })

    t.Run("organizer may refund", func(t *testing.T) {
        ev, tk := paidEvent()
        f := newPurchaseFixture(ev, tk)
        ent := buy(f, 2)
        require.NoError(t, f.svc.Refund(context.Background(), ent.ID, 100))
    })

    t.Run("gifting buyer may refund", func(t *testing.T) {
        ev, tk := paidEvent()
        f := newPurchaseFixture(ev, tk)
        f.users.active[3] = true
        ents, err := f.svc.PurchaseForOthers(context.Background(), 1, 2, []uint64{3}, model.ChannelOnline, "pay_abc")
        require.NoError(t, err)
        require.NoError(t, f.svc.Refund(context.Background(), ents[0].ID, 2))
    })
}
