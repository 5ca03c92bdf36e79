package domain

import "time"

// Strike records a policy violation against a user. It is created as a side
// effect of closing a session abnormally, or directly by an administrator.
// Issuing a strike has no further effect here — suspension policy lives in
// the identity service.
type Strike struct {
	ID      int64
	UserID  int64
	AdminID int64
	Reason  string
	// SessionID links the strike to the rental session that triggered it,
	// when there is one.
	SessionID *int64
	CreatedAt time.Time
}
