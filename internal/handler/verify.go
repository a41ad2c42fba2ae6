package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-ticketing/internal/service"
)

// VerifyHandler is the admission screen endpoint: an operator presents
// a token and gets an admit or deny decision.
type VerifyHandler struct {
    Verifier *service.VerificationService
}

func NewVerifyHandler(v *service.VerificationService) *VerifyHandler {
    return &VerifyHandler{Verifier: v}
}

type verifyReq struct {
    Token          string `json:"token"`
    ExpectedSerial string `json:"expected_serial"`
}

// Verify decides admission for a presented token.  Denials are
// decisions, not errors: the response is 200 with admitted=false and a
// reason code.  Only a store failure surfaces as an error status so
// the operator knows to re-scan.
func (h *VerifyHandler) Verify(c echo.Context) error {
    var req verifyReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "token required"})
    }
    res, err := h.Verifier.Verify(c.Request().Context(), strings.TrimSpace(req.Token), strings.TrimSpace(req.ExpectedSerial))
    if err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "verification unavailable, retry"})
    }
    return c.JSON(http.StatusOK, res)
}
