package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/repository"
    "github.com/iliyamo/event-ticketing/internal/service"
)

// currentUserID extracts the authenticated user's ID from the request
// context.  JWT numeric claims decode as float64; some clients carry
// the subject as a numeric string.
func currentUserID(c echo.Context) (uint64, bool) {
    switch v := c.Get("user_id").(type) {
    case float64:
        return uint64(v), true
    case uint64:
        return v, true
    case string:
        if n, err := strconv.ParseUint(v, 10, 64); err == nil {
            return n, true
        }
    }
    return 0, false
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
    return strconv.ParseUint(c.Param(name), 10, 64)
}

// writeServiceError maps repository and service sentinels onto HTTP
// responses.  Policy denials carry their reason code so clients can
// tell "not eligible" apart from generic failures.
func writeServiceError(c echo.Context, err error) error {
    if reason, ok := service.Denied(err); ok {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not eligible", "reason": reason})
    }
    switch err {
    case repository.ErrEventNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
    case repository.ErrTicketNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "ticketing not enabled for event"})
    case repository.ErrEntitlementNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "entitlement not found"})
    case repository.ErrRoomNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    case repository.ErrInsufficientInventory:
        return c.JSON(http.StatusConflict, echo.Map{"error": "sold out", "reason": "INSUFFICIENT_INVENTORY"})
    case repository.ErrRevoked:
        return c.JSON(http.StatusConflict, echo.Map{"error": "entitlement already revoked"})
    case repository.ErrRoomExists:
        return c.JSON(http.StatusConflict, echo.Map{"error": "room already exists"})
    case repository.ErrConflict:
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
    case repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case service.ErrPaymentRequired:
        return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment not confirmed"})
    case service.ErrNoRecipients:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "recipient_ids required"})
    case service.ErrUnknownRecipient:
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "unknown or inactive recipient"})
    case service.ErrIssuanceFailed:
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "could not issue entitlement, retry"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
