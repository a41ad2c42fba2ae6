package service

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/repository"
)

func verificationFixture(t *testing.T) (*fakeEntitlements, *model.Entitlement, *purchaseFixture) {
    t.Helper()
    ev, tk := paidEvent()
    f := newPurchaseFixture(ev, tk)
    f.entitlements.users[2] = "alice"
    f.entitlements.users[100] = "gala_org"
    ent, err := f.svc.PurchaseForSelf(context.Background(), 1, 2, model.ChannelOnline, "pay_abc")
    require.NoError(t, err)
    return f.entitlements, ent, f
}

func TestVerify(t *testing.T) {
    t.Run("admit with display bundle and no token echo", func(t *testing.T) {
        store, ent, _ := verificationFixture(t)
        svc := NewVerificationService(store, false)

        res, err := svc.Verify(context.Background(), ent.Token, "GALA-01")
        require.NoError(t, err)
        require.True(t, res.Admitted)
        require.NotNil(t, res.Entitlement)
        assert.Equal(t, "Gala", res.Entitlement.EventName)
        assert.Equal(t, "GALA-01", res.Entitlement.EventSerial)
        assert.Equal(t, "alice", res.Entitlement.HolderHandle)
        assert.Equal(t, "gala_org", res.Entitlement.OrganizerHandle)
    })

    t.Run("unknown token", func(t *testing.T) {
        store, _, _ := verificationFixture(t)
        svc := NewVerificationService(store, false)

        res, err := svc.Verify(context.Background(), "no-such-token", "")
        require.NoError(t, err)
        assert.False(t, res.Admitted)
        assert.Equal(t, DenyInvalidToken, res.Reason)
    })

    t.Run("revoked token", func(t *testing.T) {
        store, ent, f := verificationFixture(t)
        require.NoError(t, f.svc.Refund(context.Background(), ent.ID, 2))
        svc := NewVerificationService(store, false)

        res, err := svc.Verify(context.Background(), ent.Token, "GALA-01")
        require.NoError(t, err)
        assert.Equal(t, DenyRevoked, res.Reason)
    })

    t.Run("serial mismatch surfaces both serials", func(t *testing.T) {
        store, ent, _ := verificationFixture(t)
        svc := NewVerificationService(store, false)

        res, err := svc.Verify(context.Background(), ent.Token, "OTHER-02")
        require.NoError(t, err)
        assert.False(t, res.Admitted)
        assert.Equal(t, DenySerialMismatch, res.Reason)
        assert.Equal(t, "OTHER-02", res.ExpectedSerial)
        assert.Equal(t, "GALA-01", res.ActualSerial)
    })

    t.Run("no expected serial skips the cross-check", func(t *testing.T) {
        store, ent, _ := verificationFixture(t)
        svc := NewVerificationService(store, false)

        res, err := svc.Verify(context.Background(), ent.Token, "")
        require.NoError(t, err)
        assert.True(t, res.Admitted)
    })

    t.Run("idempotent when check-in disabled", func(t *testing.T) {
        store, ent, _ := verificationFixture(t)
        svc := NewVerificationService(store, false)

        for i := 0; i < 3; i++ {
            res, err := svc.Verify(context.Background(), ent.Token, "GALA-01")
            require.NoError(t, err)
            assert.True(t, res.Admitted, "verification %d", i)
        }
    })

    t.Run("single-use when check-in enabled", func(t *testing.T) {
        store, ent, _ := verificationFixture(t)
        svc := NewVerificationService(store, true)

        res, err := svc.Verify(context.Background(), ent.Token, "GALA-01")
        require.NoError(t, err)
        assert.True(t, res.Admitted)

        res, err = svc.Verify(context.Background(), ent.Token, "GALA-01")
        require.NoError(t, err)
        assert.False(t, res.Admitted)
        assert.Equal(t, DenyAlreadyCheckedIn, res.Reason)
    })

    t.Run("serial mismatch does not consume a single-use entitlement", func(t *testing.T) {
        store, ent, _ := verificationFixture(t)
        svc := NewVerificationService(store, true)

        res, err := svc.Verify(context.Background(), ent.Token, "OTHER-02")
        require.NoError(t, err)
        assert.Equal(t, DenySerialMismatch, res.Reason)

        res, err = svc.Verify(context.Background(), ent.Token, "GALA-01")
        require.NoError(t, err)
        assert.True(t, res.Admitted)
    })
}

// TestGalaScenario walks the full purchase-then-verify flow: one unit,
// two buyers, door scans against the right and the wrong event.
func TestGalaScenario(t *testing.T) {
    ev, tk := paidEvent()
    tk.Quantity = 1
    tk.QuantityRemaining = 1
    f := newPurchaseFixture(ev, tk)
    f.entitlements.users[2] = "alice"

    entA, err := f.svc.PurchaseForSelf(context.Background(), 1, 2, model.ChannelOnline, "pay_a")
    require.NoError(t, err)
    assert.Equal(t, uint32(0), f.inventory.remaining(10))

    _, err = f.svc.PurchaseForSelf(context.Background(), 1, 3, model.ChannelOnline, "pay_b")
    require.ErrorIs(t, err, repository.ErrInsufficientInventory)

    verifier := NewVerificationService(f.entitlements, false)

    res, err := verifier.Verify(context.Background(), entA.Token, "GALA-01")
    require.NoError(t, err)
    assert.True(t, res.Admitted)

    res, err = verifier.Verify(context.Background(), entA.Token, "OTHER-02")
    require.NoError(t, err)
    assert.False(t, res.Admitted)
    assert.Equal(t, DenySerialMismatch, res.Reason)
}
