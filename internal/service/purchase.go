// Package service orchestrates the ticketing core: purchase, gift,
// refund, verification and room admission.  Services hold narrow
// store interfaces so the repository layer stays swappable in tests;
// the SQL implementations in internal/repository satisfy them.
package service

import (
    "context"
    "log"
    "time"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/policy"
    "github.com/iliyamo/event-ticketing/internal/queue"
    "github.com/iliyamo/event-ticketing/internal/repository"
)

// EventCatalog is the read-only event lookup.  The catalog is owned
// by an external system; this core only ever reads from it.
type EventCatalog interface {
    GetByID(ctx context.Context, id uint64) (*repository.EventRecord, error)
}

// Inventory is the atomic per-event ticket counter.  Reserve performs
// a conditional decrement as a single indivisible operation; Release
// restores units after a downstream failure.
type Inventory interface {
    GetByEventID(ctx context.Context, eventID uint64) (*repository.TicketRecord, error)
    GetByID(ctx context.Context, id uint64) (*repository.TicketRecord, error)
    Reserve(ctx context.Context, ticketID uint64, count uint32) error
    Release(ctx context.Context, ticketID uint64, count uint32) error
}

// EntitlementStore is the durable record of who holds which
// proof-of-purchase.
type EntitlementStore interface {
    Create(ctx context.Context, e *repository.EntitlementRecord) error
    CreateBatch(ctx context.Context, ents []repository.EntitlementRecord) error
    HasActiveForEvent(ctx context.Context, userID, eventID uint64) (bool, error)
    GetByID(ctx context.Context, id uint64) (*repository.EntitlementRecord, error)
    RevokeAndRelease(ctx context.Context, entitlementID, ticketID uint64) error
}

// MembershipStore resolves private-event memberships.
type MembershipStore interface {
    IsMember(ctx context.Context, eventID, userID uint64) (bool, error)
}

// UserDirectory validates gift recipients against the external user
// identity store.
type UserDirectory interface {
    ExistActive(ctx context.Context, ids []uint64) (map[uint64]bool, error)
}

// TokenSource mints admission tokens.
type TokenSource interface {
    Issue() (string, error)
}

// Publisher emits entitlement.issued messages.  Publishing is
// best-effort: a broker outage never fails a committed purchase.
type Publisher func(ctx context.Context, ev queue.EntitlementIssuedEvent) error

// PurchaseService orchestrates evaluate → reserve → issue → persist.
// Every failure after a successful reservation releases the reserved
// units before the error is returned, so inventory is never left
// dangling.
type PurchaseService struct {
    catalog     EventCatalog
    inventory   Inventory
    store       EntitlementStore
    memberships MembershipStore
    users       UserDirectory
    tokens      TokenSource
    payments    PaymentConfirmer
    publish     Publisher
    maxAttempts int
}

// NewPurchaseService constructs a PurchaseService.  publish may be nil
// to disable messaging (tests, single-binary deployments without a
// broker).
func NewPurchaseService(
    catalog EventCatalog,
    inventory Inventory,
    store EntitlementStore,
    memberships MembershipStore,
    users UserDirectory,
    tokens TokenSource,
    payments PaymentConfirmer,
    publish Publisher,
    maxAttempts int,
) *PurchaseService {
    if catalog == nil || inventory == nil || store == nil || memberships == nil || users == nil || tokens == nil || payments == nil {
        panic("nil dependency passed to NewPurchaseService")
    }
    if maxAttempts < 1 {
        maxAttempts = 1
    }
    return &PurchaseService{
        catalog:     catalog,
        inventory:   inventory,
        store:       store,
        memberships: memberships,
        users:       users,
        tokens:      tokens,
        payments:    payments,
        publish:     publish,
        maxAttempts: maxAttempts,
    }
}

// buyerStanding loads the event and its ticket class and evaluates the
// buyer's standing to obtain.  Shared by self-purchase and gift.
func (s *PurchaseService) buyerStanding(ctx context.Context, eventID, buyerID uint64) (*repository.EventRecord, *repository.TicketRecord, error) {
    ev, err := s.catalog.GetByID(ctx, eventID)
    if err != nil {
        return nil, nil, err
    }
    t, err := s.inventory.GetByEventID(ctx, eventID)
    if err != nil {
        return nil, nil, err
    }
    actor := policy.Actor{ID: buyerID}
    if ev.Visibility == model.VisibilityPrivate && buyerID != ev.OrganizerID {
        member, err := s.memberships.IsMember(ctx, eventID, buyerID)
        if err != nil {
            return nil, nil, err
        }
        actor.IsMember = member
    }
    mev := &model.Event{
        ID:          ev.ID,
        Serial:      ev.Serial,
        Name:        ev.Name,
        Type:        ev.Type,
        Visibility:  ev.Visibility,
        OrganizerID: ev.OrganizerID,
    }
    if d := policy.CanObtain(mev, actor); !d.Allowed {
        return nil, nil, &DeniedError{Reason: d.Reason}
    }
    return ev, t, nil
}

// confirmPayment enforces the external "payment captured" signal for
// paid events before any inventory is touched.  Free tickets skip the
// check entirely, as does the organizer issuing their own.
func (s *PurchaseService) confirmPayment(ctx context.Context, ev *repository.EventRecord, t *repository.TicketRecord, buyerID uint64, paymentRef string, units uint32) error {
    if t.PriceCents == 0 || buyerID == ev.OrganizerID {
        return nil
    }
    ok, err := s.payments.Confirmed(ctx, ev.ID, buyerID, paymentRef, uint64(t.PriceCents)*uint64(units))
    if err != nil {
        return err
    }
    if !ok {
        return ErrPaymentRequired
    }
    return nil
}

// PurchaseForSelf reserves one unit, issues a token and persists the
// entitlement for the buyer.  On any failure after the reservation the
// unit is released before the error is returned.
func (s *PurchaseService) PurchaseForSelf(ctx context.Context, eventID, buyerID uint64, channel, paymentRef string) (*model.Entitlement, error) {
    ev, t, err := s.buyerStanding(ctx, eventID, buyerID)
    if err != nil {
        return nil, err
    }
    if err := s.confirmPayment(ctx, ev, t, buyerID, paymentRef, 1); err != nil {
        return nil, err
    }
    if err := s.inventory.Reserve(ctx, t.ID, 1); err != nil {
        return nil, err
    }

    var rec repository.EntitlementRecord
    issued := false
    for attempt := 0; attempt < s.maxAttempts; attempt++ {
        tok, err := s.tokens.Issue()
        if err != nil {
            s.compensate(ctx, t.ID, 1)
            return nil, err
        }
        rec = repository.EntitlementRecord{
            TicketID: t.ID,
            HolderID: buyerID,
            Token:    tok,
            Channel:  normalizeChannel(channel),
        }
        err = s.store.Create(ctx, &rec)
        if err == nil {
            issued = true
            break
        }
        if err != repository.ErrTokenCollision {
            s.compensate(ctx, t.ID, 1)
            return nil, err
        }
    }
    if !issued {
        s.compensate(ctx, t.ID, 1)
        return nil, ErrIssuanceFailed
    }

    ent := recordToModel(&rec)
    s.announce(ctx, ev, t, ent)
    return ent, nil
}

// PurchaseForOthers reserves len(recipients) units in one atomic
// multi-unit reservation, then issues one token and one entitlement
// per recipient with gifted_by set to the buyer.  The whole batch is
// all-or-nothing: if issuance or persistence fails partway, no
// entitlements remain and the full reservation is released.
func (s *PurchaseService) PurchaseForOthers(ctx context.Context, eventID, buyerID uint64, recipientIDs []uint64, channel, paymentRef string) ([]model.Entitlement, error) {
    recipients := dedupe(recipientIDs)
    if len(recipients) == 0 {
        return nil, ErrNoRecipients
    }

    ev, t, err := s.buyerStanding(ctx, eventID, buyerID)
    if err != nil {
        return nil, err
    }

    // Validate every recipient before reserving so a bad list costs
    // no inventory.
    found, err := s.users.ExistActive(ctx, recipients)
    if err != nil {
        return nil, err
    }
    for _, id := range recipients {
        if !found[id] {
            return nil, ErrUnknownRecipient
        }
    }

    count := uint32(len(recipients))
    if err := s.confirmPayment(ctx, ev, t, buyerID, paymentRef, count); err != nil {
        return nil, err
    }
    if err := s.inventory.Reserve(ctx, t.ID, count); err != nil {
        return nil, err
    }

    var batch []repository.EntitlementRecord
    issued := false
    for attempt := 0; attempt < s.maxAttempts; attempt++ {
        batch = make([]repository.EntitlementRecord, 0, len(recipients))
        for _, rid := range recipients {
            tok, err := s.tokens.Issue()
            if err != nil {
                s.compensate(ctx, t.ID, count)
                return nil, err
            }
            gb := buyerID
            batch = append(batch, repository.EntitlementRecord{
                TicketID: t.ID,
                HolderID: rid,
                Token:    tok,
                Channel:  normalizeChannel(channel),
                GiftedBy: &gb,
            })
        }
        err := s.store.CreateBatch(ctx, batch)
        if err == nil {
            issued = true
            break
        }
        if err != repository.ErrTokenCollision {
            s.compensate(ctx, t.ID, count)
            return nil, err
        }
        // Collision anywhere in the batch: the store rolled the whole
        // insert back, retry with entirely fresh tokens.
    }
    if !issued {
        s.compensate(ctx, t.ID, count)
        return nil, ErrIssuanceFailed
    }

    ents := make([]model.Entitlement, 0, len(batch))
    for i := range batch {
        ent := recordToModel(&batch[i])
        ents = append(ents, *ent)
        s.announce(ctx, ev, t, ent)
    }
    return ents, nil
}

// Refund revokes an entitlement and restores one inventory unit.  The
// holder, the gifting buyer and the event organizer may refund; anyone
// else gets ErrForbidden.
func (s *PurchaseService) Refund(ctx context.Context, entitlementID, actorID uint64) error {
    rec, err := s.store.GetByID(ctx, entitlementID)
    if err != nil {
        return err
    }
    if rec.Revoked {
        return repository.ErrRevoked
    }
    allowed := actorID == rec.HolderID
    if rec.GiftedBy != nil && actorID == *rec.GiftedBy {
        allowed = true
    }
    if !allowed {
        t, err := s.inventory.GetByID(ctx, rec.TicketID)
        if err != nil {
            return err
        }
        ev, err := s.catalog.GetByID(ctx, t.EventID)
        if err != nil {
            return err
        }
        allowed = actorID == ev.OrganizerID
    }
    if !allowed {
        return repository.ErrForbidden
    }
    return s.store.RevokeAndRelease(ctx, entitlementID, rec.TicketID)
}

// compensate releases reserved units after a downstream failure and
// logs when even the release fails; at that point the units are lost
// to sale until manual correction, but the oversell invariant is
// still intact.
func (s *PurchaseService) compensate(ctx context.Context, ticketID uint64, count uint32) {
    if err := s.inventory.Release(ctx, ticketID, count); err != nil {
        log.Printf("purchase: release of %d unit(s) for ticket %d failed: %v", count, ticketID, err)
    }
}

// announce publishes entitlement.issued best-effort.
func (s *PurchaseService) announce(ctx context.Context, ev *repository.EventRecord, t *repository.TicketRecord, ent *model.Entitlement) {
    if s.publish == nil {
        return
    }
    msg := queue.EntitlementIssuedEvent{
        EntitlementID: ent.ID,
        EventID:       ev.ID,
        EventSerial:   ev.Serial,
        EventName:     ev.Name,
        HolderID:      ent.HolderID,
        GiftedBy:      ent.GiftedBy,
        Channel:       ent.Channel,
        PriceCents:    t.PriceCents,
        IssuedAt:      time.Now().UTC().Format(time.RFC3339),
    }
    if err := s.publish(ctx, msg); err != nil {
        log.Printf("purchase: publish entitlement.issued failed: %v", err)
    }
}

func recordToModel(rec *repository.EntitlementRecord) *model.Entitlement {
    return &model.Entitlement{
        ID:        rec.ID,
        TicketID:  rec.TicketID,
        HolderID:  rec.HolderID,
        Token:     rec.Token,
        Channel:   rec.Channel,
        GiftedBy:  rec.GiftedBy,
        Revoked:   rec.Revoked,
        CheckedIn: rec.CheckedIn,
        CreatedAt: rec.CreatedAt,
    }
}

func normalizeChannel(channel string) string {
    if channel == model.ChannelPhysical {
        return model.ChannelPhysical
    }
    return model.ChannelOnline
}

func dedupe(ids []uint64) []uint64 {
    out := make([]uint64, 0, len(ids))
    seen := make(map[uint64]struct{}, len(ids))
    for _, id := range ids {
        if id == 0 {
            continue
        }
        if _, ok := seen[id]; ok {
            continue
        }
        seen[id] = struct{}{}
        out = append(out, id)
    }
    return out
}
