package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/model"
    "github.com/iliyamo/event-ticketing/internal/repository"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// TicketHandler exposes ticketing setup, purchase, gifting, refunds
// and the caller's holdings.
type TicketHandler struct {
    Events       *repository.EventRepo
    Tickets      *repository.TicketRepo
    Entitlements *repository.EntitlementRepo
    Memberships  *repository.MembershipRepo
    Purchases    *service.PurchaseService
}

func NewTicketHandler(
    e *repository.EventRepo,
    t *repository.TicketRepo,
    en *repository.EntitlementRepo,
    m *repository.MembershipRepo,
    p *service.PurchaseService,
) *TicketHandler {
    return &TicketHandler{Events: e, Tickets: t, Entitlements: en, Memberships: m, Purchases: p}
}

// ----- DTOs -----

type createTicketReq struct {
    PriceCents uint32 `json:"price_cents"`
    Quantity   uint32 `json:"quantity"`
}
type purchaseReq struct {
    Channel    string `json:"channel"`
    PaymentRef string `json:"payment_ref"`
}
type giftReq struct {
    RecipientIDs []uint64 `json:"recipient_ids"`
    Channel      string   `json:"channel"`
    PaymentRef   string   `json:"payment_ref"`
}

type entitlementPart struct {
    ID       uint64  `json:"id"`
    TicketID uint64  `json:"ticket_id"`
    HolderID uint64  `json:"holder_id"`
    Token    string  `json:"token"`
    Channel  string  `json:"channel"`
    GiftedBy *uint64 `json:"gifted_by,omitempty"`
}

func toEntitlementPart(e *model.Entitlement) entitlementPart {
    return entitlementPart{
        ID:       e.ID,
        TicketID: e.TicketID,
        HolderID: e.HolderID,
        Token:    e.Token,
        Channel:  e.Channel,
        GiftedBy: e.GiftedBy,
    }
}

// CreateTicket enables ticketing for an event: one ticket class with a
// price and a finite quantity.  Organizer only, once per event.
func (h *TicketHandler) CreateTicket(c echo.Context) error {
    eventID, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createTicketReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Quantity == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be positive"})
    }

    ctx := c.Request().Context()
    ev, err := h.Events.GetByID(ctx, eventID)
    if err != nil {
        return writeServiceError(c, err)
    }
    if ev.OrganizerID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only the organizer may enable ticketing"})
    }

    t := &repository.TicketRecord{
        EventID:           eventID,
        PriceCents:        req.PriceCents,
        Quantity:          req.Quantity,
        QuantityRemaining: req.Quantity,
    }
    if err := h.Tickets.CreateForEvent(ctx, t); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "ticketing already enabled"})
        }
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "id":                 t.ID,
        "event_id":           t.EventID,
        "price_cents":        t.PriceCents,
        "quantity":           t.Quantity,
        "quantity_remaining": t.QuantityRemaining,
    })
}

// Purchase obtains one entitlement for the caller.
func (h *TicketHandler) Purchase(c echo.Context) error {
    eventID, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req purchaseReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ent, err := h.Purchases.PurchaseForSelf(c.Request().Context(), eventID, uid, req.Channel, strings.TrimSpace(req.PaymentRef))
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusCreated, toEntitlementPart(ent))
}

// Gift purchases entitlements for other users in one all-or-nothing
// batch; each carries the buyer as gifted_by.
func (h *TicketHandler) Gift(c echo.Context) error {
    eventID, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req giftReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ents, err := h.Purchases.PurchaseForOthers(c.Request().Context(), eventID, uid, req.RecipientIDs, req.Channel, strings.TrimSpace(req.PaymentRef))
    if err != nil {
        return writeServiceError(c, err)
    }
    out := make([]entitlementPart, 0, len(ents))
    for i := range ents {
        out = append(out, toEntitlementPart(&ents[i]))
    }
    return c.JSON(http.StatusCreated, echo.Map{"entitlements": out})
}

// ListEntitlements returns the caller's holdings, newest first.  The
// raw token is included: this is the holder retrieving their own
// credential.
func (h *TicketHandler) ListEntitlements(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    holdings, err := h.Entitlements.ListByHolder(c.Request().Context(), uid)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"entitlements": holdings})
}

// Refund revokes an entitlement and returns its unit to inventory.
// Allowed for the holder, the gifting buyer, or the organizer.
func (h *TicketHandler) Refund(c echo.Context) error {
    entID, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entitlement id"})
    }
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Purchases.Refund(c.Request().Context(), entID, uid); err != nil {
        return writeServiceError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// GrantMember adds a user to a private event's member list.
// Organizer only.
func (h *TicketHandler) GrantMember(c echo.Context) error {
    return h.memberChange(c, h.Memberships.Grant)
}

// RevokeMember removes a user from a private event's member list.
// Organizer only.
func (h *TicketHandler) RevokeMember(c echo.Context) error {
    return h.memberChange(c, h.Memberships.Revoke)
}

func (h *TicketHandler) memberChange(c echo.Context, apply func(ctx context.Context, eventID, userID uint64) error) error {
    eventID, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    memberID, err := paramID(c, "user_id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx := c.Request().Context()
    ev, err := h.Events.GetByID(ctx, eventID)
    if err != nil {
        return writeServiceError(c, err)
    }
    if ev.OrganizerID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only the organizer may manage members"})
    }
    if err := apply(ctx, eventID, memberID); err != nil {
        return writeServiceError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
