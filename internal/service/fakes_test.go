package service

import (
    "context"
    "sync"

    "github.com/iliyamo/event-ticketing/internal/queue"
    "github.com/iliyamo/event-ticketing/internal/repository"
)

// In-memory fakes implementing the service store interfaces.  The
// inventory fake guards its counters with a mutex so the oversell
// property test can race real goroutines against it, mirroring the
// conditional-decrement contract of the SQL implementation.

type fakeCatalog struct {
    events map[uint64]*repository.EventRecord
}

func (f *fakeCatalog) GetByID(_ context.Context, id uint64) (*repository.EventRecord, error) {
    ev, ok := f.events[id]
    if !ok {
        return nil, repository.ErrEventNotFound
    }
    cp := *ev
    return &cp, nil
}

type fakeInventory struct {
    mu       sync.Mutex
    tickets  map[uint64]*repository.TicketRecord // by ticket ID
    released uint32
}

func (f *fakeInventory) byEvent(eventID uint64) *repository.TicketRecord {
    for _, t := range f.tickets {
        if t.EventID == eventID {
            return t
        }
    }
    return nil
}

func (f *fakeInventory) GetByEventID(_ context.Context, eventID uint64) (*repository.TicketRecord, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    t := f.byEvent(eventID)
    if t == nil {
        return nil, repository.ErrTicketNotFound
    }
    cp := *t
    return &cp, nil
}

func (f *fakeInventory) GetByID(_ context.Context, id uint64) (*repository.TicketRecord, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    t, ok := f.tickets[id]
    if !ok {
        return nil, repository.ErrTicketNotFound
    }
    cp := *t
    return &cp, nil
}

func (f *fakeInventory) Reserve(_ context.Context, ticketID uint64, count uint32) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    t, ok := f.tickets[ticketID]
    if !ok {
        return repository.ErrTicketNotFound
    }
    if t.QuantityRemaining < count {
        return repository.ErrInsufficientInventory
    }
    t.QuantityRemaining -= count
    return nil
}

func (f *fakeInventory) Release(_ context.Context, ticketID uint64, count uint32) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    t, ok := f.tickets[ticketID]
    if !ok {
        return repository.ErrTicketNotFound
    }
    t.QuantityRemaining += count
    if t.QuantityRemaining > t.Quantity {
        t.QuantityRemaining = t.Quantity
    }
    f.released += count
    return nil
}

func (f *fakeInventory) remaining(ticketID uint64) uint32 {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.tickets[ticketID].QuantityRemaining
}

type fakeEntitlements struct {
    mu     sync.Mutex
    nextID uint64
    byID   map[uint64]*repository.EntitlementRecord

    // wired in by tests that need joins or refunds
    catalog   *fakeCatalog
    inventory *fakeInventory
    users     map[uint64]string // holder handles for detail lookups
}

func newFakeEntitlements(catalog *fakeCatalog, inv *fakeInventory) *fakeEntitlements {
    return &fakeEntitlements{
        byID:      make(map[uint64]*repository.EntitlementRecord),
        catalog:   catalog,
        inventory: inv,
        users:     make(map[uint64]string),
    }
}

func (f *fakeEntitlements) tokenExists(token string) bool {
    for _, e := range f.byID {
        if e.Token == token {
            return true
        }
    }
    return false
}

func (f *fakeEntitlements) createLocked(e *repository.EntitlementRecord) error {
    if f.tokenExists(e.Token) {
        return repository.ErrTokenCollision
    }
    f.nextID++
    e.ID = f.nextID
    cp := *e
    f.byID[e.ID] = &cp
    return nil
}

func (f *fakeEntitlements) Create(_ context.Context, e *repository.EntitlementRecord) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.createLocked(e)
}

func (f *fakeEntitlements) CreateBatch(_ context.Context, ents []repository.EntitlementRecord) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    // All-or-nothing: check the whole batch before inserting anything.
    seen := make(map[string]struct{}, len(ents))
    for _, e := range ents {
        if f.tokenExists(e.Token) {
            return repository.ErrTokenCollision
        }
        if _, dup := seen[e.Token]; dup {
            return repository.ErrTokenCollision
        }
        seen[e.Token] = struct{}{}
    }
    for i := range ents {
        if err := f.createLocked(&ents[i]); err != nil {
            return err
        }
    }
    return nil
}

func (f *fakeEntitlements) HasActiveForEvent(_ context.Context, userID, eventID uint64) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, e := range f.byID {
        if e.HolderID != userID || e.Revoked {
            continue
        }
        t, ok := f.inventory.tickets[e.TicketID]
        if ok && t.EventID == eventID {
            return true, nil
        }
    }
    return false, nil
}

func (f *fakeEntitlements) GetByID(_ context.Context, id uint64) (*repository.EntitlementRecord, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    e, ok := f.byID[id]
    if !ok {
        return nil, repository.ErrEntitlementNotFound
    }
    cp := *e
    return &cp, nil
}

func (f *fakeEntitlements) RevokeAndRelease(ctx context.Context, entitlementID, ticketID uint64) error {
    f.mu.Lock()
    e, ok := f.byID[entitlementID]
    if !ok {
        f.mu.Unlock()
        return repository.ErrEntitlementNotFound
    }
    if e.Revoked {
        f.mu.Unlock()
        return repository.ErrRevoked
    }
    e.Revoked = true
    f.mu.Unlock()
    return f.inventory.Release(ctx, ticketID, 1)
}

func (f *fakeEntitlements) GetDetailByToken(_ context.Context, token string) (*repository.EntitlementDetail, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, e := range f.byID {
        if e.Token != token {
            continue
        }
        det := &repository.EntitlementDetail{
            ID:           e.ID,
            TicketID:     e.TicketID,
            HolderID:     e.HolderID,
            HolderHandle: f.users[e.HolderID],
            Channel:      e.Channel,
            GiftedBy:     e.GiftedBy,
            Revoked:      e.Revoked,
            CheckedIn:    e.CheckedIn,
        }
        if t, ok := f.inventory.tickets[e.TicketID]; ok {
            if ev, ok := f.catalog.events[t.EventID]; ok {
                det.EventID = ev.ID
                det.EventSerial = ev.Serial
                det.EventName = ev.Name
                det.EventType = ev.Type
                det.OrganizerHandle = f.users[ev.OrganizerID]
            }
        }
        return det, nil
    }
    return nil, repository.ErrEntitlementNotFound
}

func (f *fakeEntitlements) MarkCheckedIn(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    e, ok := f.byID[id]
    if !ok {
        return repository.ErrEntitlementNotFound
    }
    if e.Revoked {
        return repository.ErrRevoked
    }
    if e.CheckedIn {
        return repository.ErrAlreadyCheckedIn
    }
    e.CheckedIn = true
    return nil
}

func (f *fakeEntitlements) count() int {
    f.mu.Lock()
    defer f.mu.Unlock()
    return len(f.byID)
}

type fakeMemberships struct {
    members map[uint64]map[uint64]bool // eventID -> userID
}

func (f *fakeMemberships) IsMember(_ context.Context, eventID, userID uint64) (bool, error) {
    return f.members[eventID][userID], nil
}

type fakeUsers struct {
    active map[uint64]bool
}

func (f *fakeUsers) ExistActive(_ context.Context, ids []uint64) (map[uint64]bool, error) {
    found := make(map[uint64]bool, len(ids))
    for _, id := range ids {
        if f.active[id] {
            found[id] = true
        }
    }
    return found, nil
}

// seqTokens returns tokens from a fixed list first (to force
// collisions deterministically), then falls back to unique generated
// ones.
type seqTokens struct {
    mu     sync.Mutex
    queue  []string
    serial int
}

func (f *seqTokens) Issue() (string, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if len(f.queue) > 0 {
        tok := f.queue[0]
        f.queue = f.queue[1:]
        return tok, nil
    }
    f.serial++
    return uniqueToken(f.serial), nil
}

func uniqueToken(n int) string {
    const hexdigits = "0123456789abcdef"
    b := make([]byte, 64)
    for i := range b {
        b[i] = hexdigits[(n>>(uint(i%8)*4))&0xf]
    }
    return string(b)
}

type fakeRooms struct {
    mu    sync.Mutex
    rooms map[uint64]*repository.RoomRecord
}

func newFakeRooms() *fakeRooms {
    return &fakeRooms{rooms: make(map[uint64]*repository.RoomRecord)}
}

func (f *fakeRooms) Create(_ context.Context, eventID uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.rooms[eventID]; ok {
        return repository.ErrRoomExists
    }
    f.rooms[eventID] = &repository.RoomRecord{EventID: eventID}
    return nil
}

func (f *fakeRooms) GetByEvent(_ context.Context, eventID uint64) (*repository.RoomRecord, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    r, ok := f.rooms[eventID]
    if !ok {
        return nil, repository.ErrRoomNotFound
    }
    cp := *r
    return &cp, nil
}

func (f *fakeRooms) SetReady(_ context.Context, eventID uint64, ready bool) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    r, ok := f.rooms[eventID]
    if !ok {
        return repository.ErrRoomNotFound
    }
    r.Ready = ready
    return nil
}

func (f *fakeRooms) SetConnected(_ context.Context, eventID uint64, connected bool) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    r, ok := f.rooms[eventID]
    if !ok {
        return repository.ErrRoomNotFound
    }
    r.Connected = connected
    return nil
}

func (f *fakeRooms) Delete(_ context.Context, eventID uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.rooms[eventID]; !ok {
        return repository.ErrRoomNotFound
    }
    delete(f.rooms, eventID)
    return nil
}

// alwaysConfirmed approves every payment; neverConfirmed approves none.
type alwaysConfirmed struct{}

func (alwaysConfirmed) Confirmed(context.Context, uint64, uint64, string, uint64) (bool, error) {
    return true, nil
}

type capturedPublishes struct {
    mu     sync.Mutex
    events []queue.EntitlementIssuedEvent
}

func (c *capturedPublishes) publish(_ context.Context, ev queue.EntitlementIssuedEvent) error {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.events = append(c.events, ev)
    return nil
}
