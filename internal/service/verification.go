package service

import (
    "context"

    "github.com/iliyamo/event-ticketing/internal/repository"
)

// Verification denial reason codes, surfaced to the scanning operator.
const (
    DenyInvalidToken     = "INVALID_TOKEN"
    DenyRevoked          = "REVOKED"
    DenySerialMismatch   = "SERIAL_MISMATCH"
    DenyAlreadyCheckedIn = "ALREADY_CHECKED_IN"
)

// VerificationStore is the subset of the entitlement store the
// verifier needs.
type VerificationStore interface {
    GetDetailByToken(ctx context.Context, token string) (*repository.EntitlementDetail, error)
    MarkCheckedIn(ctx context.Context, id uint64) error
}

// VerificationResult is the outcome of presenting a token at the door.
// On Admit, Entitlement carries the display bundle (event identity,
// organizer handle, holder identity) and never the raw token, so a
// logged or screenshotted result cannot be replayed.  On a serial
// mismatch both serials are surfaced so the operator can see whether
// they are scanning for the wrong event or the ticket is for another
// one.
type VerificationResult struct {
    Admitted       bool                          `json:"admitted"`
    Reason         string                        `json:"reason,omitempty"`
    ExpectedSerial string                        `json:"expected_serial,omitempty"`
    ActualSerial   string                        `json:"actual_serial,omitempty"`
    Entitlement    *repository.EntitlementDetail `json:"entitlement,omitempty"`
}

// VerificationService resolves a presented token to an admit/deny
// decision: token lookup, revocation check, event cross-check, then
// (optionally) single-use consumption.  With check-in disabled the
// whole flow is read-only and idempotent: the same valid token admits
// every time.
type VerificationService struct {
    store          VerificationStore
    checkInEnabled bool
}

// NewVerificationService constructs a VerificationService.  When
// checkInEnabled is true the first Admit consumes the entitlement and
// later presentations deny with ALREADY_CHECKED_IN.
func NewVerificationService(store VerificationStore, checkInEnabled bool) *VerificationService {
    if store == nil {
        panic("nil store passed to NewVerificationService")
    }
    return &VerificationService{store: store, checkInEnabled: checkInEnabled}
}

func deny(reason string) *VerificationResult { return &VerificationResult{Reason: reason} }

// Verify decides admission for a presented token.  expectedSerial is
// the serial of the event the operator is scanning for; when empty the
// cross-check is skipped (e.g. a holder previewing their own ticket).
// A non-nil error means the decision could not be made (store
// unavailable) and the caller should retry; denials are results, not
// errors.
func (s *VerificationService) Verify(ctx context.Context, presentedToken, expectedSerial string) (*VerificationResult, error) {
    det, err := s.store.GetDetailByToken(ctx, presentedToken)
    if err == repository.ErrEntitlementNotFound {
        return deny(DenyInvalidToken), nil
    }
    if err != nil {
        return nil, err
    }
    if det.Revoked {
        return deny(DenyRevoked), nil
    }
    if expectedSerial != "" && det.EventSerial != expectedSerial {
        r := deny(DenySerialMismatch)
        r.ExpectedSerial = expectedSerial
        r.ActualSerial = det.EventSerial
        return r, nil
    }
    if s.checkInEnabled {
        switch err := s.store.MarkCheckedIn(ctx, det.ID); err {
        case nil:
        case repository.ErrAlreadyCheckedIn:
            return deny(DenyAlreadyCheckedIn), nil
        case repository.ErrRevoked:
            // Revoked between the lookup and the conditional update.
            return deny(DenyRevoked), nil
        default:
            return nil, err
        }
    }
    return &VerificationResult{Admitted: true, Entitlement: det}, nil
}
