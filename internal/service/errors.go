package service

import (
    "errors"
    "fmt"
)

// ErrPaymentRequired is returned when a paid purchase reaches the
// service without a confirmed payment capture.  Payment is checked
// before any inventory is reserved, so this error never leaves a
// dangling reservation.
var ErrPaymentRequired = errors.New("payment not confirmed")

// ErrIssuanceFailed is returned when token issuance kept colliding at
// the store for the maximum number of attempts.  The reservation is
// released before the error is returned.
var ErrIssuanceFailed = errors.New("token issuance failed")

// ErrNoRecipients is returned when a gift purchase carries an empty
// recipient list.
var ErrNoRecipients = errors.New("no recipients")

// ErrUnknownRecipient is returned when a gift purchase names a
// recipient that does not exist or is inactive.  Checked before any
// inventory is reserved.
var ErrUnknownRecipient = errors.New("unknown recipient")

// DeniedError carries a policy denial out of a service call.  Reason
// is one of the policy reason codes (or the room layer's
// ROOM_NOT_READY) so clients can render "not eligible" distinctly from
// generic failures.
type DeniedError struct {
    Reason string
}

func (e *DeniedError) Error() string { return fmt.Sprintf("denied: %s", e.Reason) }

// Denied reports whether err is a policy denial and returns its
// reason code.
func Denied(err error) (string, bool) {
    var d *DeniedError
    if errors.As(err, &d) {
        return d.Reason, true
    }
    return "", false
}
