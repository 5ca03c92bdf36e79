package domain

import "time"

// Status is the lifecycle state of a rental session.
//
// Legal transitions:
//
//	RESERVED → ACTIVE → RETURNED
//	RESERVED → CANCELED   (expiry timer fired before handover)
//	RESERVED → DISMISSED  (administrative rejection)
//	ACTIVE   → OVERDUE    (periodic sweep, outside this service)
//	OVERDUE  → RETURNED
//
// CANCELED, DISMISSED and RETURNED are terminal: no further transition is
// permitted once a session reaches one of them. DISMISSED and OVERDUE have no
// triggering operation in this service — they are set by external
// collaborators — but remain valid values of the enum.
type Status string

const (
	StatusReserved  Status = "RESERVED"
	StatusActive    Status = "ACTIVE"
	StatusCanceled  Status = "CANCELED"
	StatusDismissed Status = "DISMISSED"
	StatusOverdue   Status = "OVERDUE"
	StatusReturned  Status = "RETURNED"
)

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	switch s {
	case StatusReserved, StatusActive, StatusCanceled, StatusDismissed, StatusOverdue, StatusReturned:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCanceled, StatusDismissed, StatusReturned:
		return true
	}
	return false
}

// RentalSession is the central entity: one user renting one item unit.
// Timestamps progress monotonically with status (ReservationTS ≤ StartTS ≤
// EndTS). EndTS is set exactly once; a repeated return never overwrites it,
// while ActualReturnTS tracks the latest successful return. Sessions are
// never deleted — terminal states are permanent history.
type RentalSession struct {
	ID            int64
	UserID        int64
	ItemID        int64
	Status        Status
	ReservationTS time.Time

	// StartTS and AdminOpenID are set when staff hand the item over.
	StartTS     *time.Time
	AdminOpenID *int64

	// EndTS is the rental deadline or close marker; ActualReturnTS is when
	// the item physically came back. AdminCloseID is the closing staff member.
	EndTS          *time.Time
	ActualReturnTS *time.Time
	AdminCloseID   *int64
}

// SessionPatch carries an administrative partial update of a session.
// Nil fields are left untouched. This is an operator escape hatch: it does
// not re-validate state machine legality (see SessionService.Update).
type SessionPatch struct {
	Status         *Status
	StartTS        *time.Time
	EndTS          *time.Time
	ActualReturnTS *time.Time
	AdminOpenID    *int64
	AdminCloseID   *int64
}

// Empty reports whether the patch would change nothing.
func (p SessionPatch) Empty() bool {
	return p.Status == nil && p.StartTS == nil && p.EndTS == nil &&
		p.ActualReturnTS == nil && p.AdminOpenID == nil && p.AdminCloseID == nil
}
