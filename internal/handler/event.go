package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/repository"
)

// EventHandler serves the public catalog view.  The catalog itself is
// owned elsewhere; this service only reads events to ticket them.
type EventHandler struct {
    Events  *repository.EventRepo
    Tickets *repository.TicketRepo
}

func NewEventHandler(e *repository.EventRepo, t *repository.TicketRepo) *EventHandler {
    return &EventHandler{Events: e, Tickets: t}
}

// Get returns an event together with its ticket availability when
// ticketing is enabled.  Public: no token required to browse.
func (h *EventHandler) Get(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    ev, err := h.Events.GetByID(c.Request().Context(), id)
    if err != nil {
        return writeServiceError(c, err)
    }
    resp := echo.Map{
        "id":         ev.ID,
        "serial":     ev.Serial,
        "name":       ev.Name,
        "type":       ev.Type,
        "visibility": ev.Visibility,
    }
    t, err := h.Tickets.GetByEventID(c.Request().Context(), id)
    switch err {
    case nil:
        resp["ticketing"] = echo.Map{
            "price_cents":        t.PriceCents,
            "quantity":           t.Quantity,
            "quantity_remaining": t.QuantityRemaining,
        }
    case repository.ErrTicketNotFound:
        // Browsing an event without ticketing is fine.
    default:
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, resp)
}
