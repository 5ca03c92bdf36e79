package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, unknown status value).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNoAvailableItem is returned when a reservation is requested for an item
// type that currently has zero available units. The condition is recoverable —
// the caller may retry later or pick another type. Handlers should map this
// to HTTP 409.
var ErrNoAvailableItem = errors.New("no available item")

// ErrInvalidTransition is returned when a session status transition is
// attempted from a status that does not permit it — including the case where
// the expiry timer already cancelled a session a staff member is trying to
// start. The wrapped message carries the current status so the caller can
// decide what to do. Handlers should map this to HTTP 409.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrInactiveSession is returned when Return is attempted on a session that is
// neither ACTIVE nor OVERDUE. Same class as ErrInvalidTransition, kept
// distinct because it is the most common caller mistake.
var ErrInactiveSession = errors.New("session is not active")
