// README: Ride status transitions and timestamps.
package ride

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTransition = errors.New("invalid ride status transition")
	ErrNotPending        = errors.New("ride is not pending")
)

// AcceptsJoins reports whether new passengers may be added.
func AcceptsJoins(r *Ride) bool {
	return r.Status == StatusPending
}

// Editable reports whether the driver may still change date/time or the roster.
func Editable(r *Ride) bool {
	return r.Status == StatusPending
}

// Transition moves r to status to and stamps the matching timestamp. r is left
// untouched when the move is not allowed.
func Transition(r *Ride, to Status, at time.Time) error {
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}
	r.Status = to
	r.UpdatedAt = at
	t := at
	switch to {
	case StatusStarted:
		r.StartedAt = &t
	case StatusCompleted:
		r.CompletedAt = &t
	case StatusCancelled:
		r.CancelledAt = &t
	case StatusBlocked:
		r.BlockedAt = &t
	}
	return nil
}
