package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/service"
)

// RoomHandler exposes the live video room lifecycle and admission.
// Rooms are keyed by event ID: one room per online event.
type RoomHandler struct {
    Rooms *service.RoomService
}

func NewRoomHandler(r *service.RoomService) *RoomHandler {
    return &RoomHandler{Rooms: r}
}

type readyReq struct {
    Ready bool `json:"ready"`
}

// Create opens a room for an online event.  Organizer only.
func (h *RoomHandler) Create(c echo.Context) error {
    eventID, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Rooms.CreateRoom(c.Request().Context(), eventID, uid); err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"event_id": eventID})
}

// Delete removes the event's room.  Organizer only.
func (h *RoomHandler) Delete(c echo.Context) error {
    eventID, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Rooms.DeleteRoom(c.Request().Context(), eventID, uid); err != nil {
        return writeServiceError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// SetReady toggles whether attendees may join.  Organizer only,
// last write wins.
func (h *RoomHandler) SetReady(c echo.Context) error {
    eventID, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req readyReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := h.Rooms.SetReady(c.Request().Context(), eventID, uid, req.Ready); err != nil {
        return writeServiceError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Join evaluates admission and, when allowed, records the join.  A
// denial is a decision: 403 with the reason code, not an error.
func (h *RoomHandler) Join(c echo.Context) error {
    eventID, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    res, err := h.Rooms.Join(c.Request().Context(), eventID, uid)
    if err != nil {
        return writeServiceError(c, err)
    }
    if !res.Allowed {
        return c.JSON(http.StatusForbidden, res)
    }
    return c.JSON(http.StatusOK, res)
}

// Leave records the caller leaving the room.
func (h *RoomHandler) Leave(c echo.Context) error {
    eventID, err := paramID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
    }
    uid, ok := currentUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Rooms.Leave(c.Request().Context(), eventID, uid); err != nil {
        return writeServiceError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
