// internal/services/errors.go
package services

import (
	"errors"
)

// Sentinel errors for the trade domain. Handlers map these to HTTP codes with
// errors.Is; none of them is retryable.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotOwner         = errors.New("not the owner of the trade anchor")
	ErrItemUnavailable  = errors.New("item is not available")
	ErrItemsUnavailable = errors.New("one or both items are no longer available")
	ErrNotAccepted      = errors.New("offer has not been accepted")
	ErrAlreadyConfirmed = errors.New("completion already confirmed by this user")
	ErrInvalidState     = errors.New("operation not valid in the offer's current state")
	ErrRateLimited      = errors.New("rate limit exceeded")
)

// Outcome tags what happened to a mutating call so callers can distinguish
// "someone else changed this first" from a hard validation failure.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeStale    Outcome = "stale"
	OutcomeRejected Outcome = "rejected"
)

// ClassifyOutcome buckets a mutation error. Availability failures are the
// staleness signal in this system: the caller acted on a snapshot another
// user has since invalidated.
func ClassifyOutcome(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, ErrItemUnavailable), errors.Is(err, ErrItemsUnavailable):
		return OutcomeStale
	default:
		return OutcomeRejected
	}
}
