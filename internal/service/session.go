// Package service implements the business logic of the rental backend: the
// session state machine, the reservation expiry timers, strike issuance, and
// inventory management. Services depend on repo interfaces and collaborator
// interfaces only, so they can be unit-tested with mocks.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rentpoint/backend/internal/audit"
	"github.com/rentpoint/backend/internal/domain"
	"github.com/rentpoint/backend/internal/repo"
)

// Scheduler arms the one-shot expiry check for a reservation. Implemented by
// ExpiryScheduler; defined as an interface here so session tests can observe
// scheduling without real timers.
type Scheduler interface {
	// Schedule arms a timer for the full expiry window.
	Schedule(sessionID int64, fire func(ctx context.Context))

	// ScheduleRemaining arms a timer for whatever is left of the window
	// measured from reservedAt. Used on startup to re-arm reservations that
	// were in flight when the process last stopped; a window that already
	// elapsed fires immediately.
	ScheduleRemaining(sessionID int64, reservedAt time.Time, fire func(ctx context.Context))
}

// StrikeIssuer records a policy violation. Implemented by StrikeService.
type StrikeIssuer interface {
	Issue(ctx context.Context, userID, adminID int64, reason string, sessionID *int64) (domain.Strike, error)
}

// SessionService owns the rental session lifecycle. Every successful mutation
// emits one audit record; audit failures are logged and never undo the
// mutation. All status transitions delegate to the repo's compare-and-set
// updates, so concurrent operations on the same session resolve to exactly
// one winner (see repo.SessionRepo).
type SessionService struct {
	sessions repo.SessionRepo
	strikes  StrikeIssuer
	timers   Scheduler
	audit    audit.Recorder
}

// NewSessionService constructs a SessionService with its collaborators.
func NewSessionService(sessions repo.SessionRepo, strikes StrikeIssuer, timers Scheduler, rec audit.Recorder) *SessionService {
	return &SessionService{sessions: sessions, strikes: strikes, timers: timers, audit: rec}
}

// Create reserves one available item of the given type for the user and arms
// the expiry timer for the new session. Claiming the item and creating the
// RESERVED session is one transaction: when no unit is free the call fails
// with domain.ErrNoAvailableItem and nothing is mutated.
func (s *SessionService) Create(ctx context.Context, userID, itemTypeID int64) (domain.RentalSession, error) {
	sess, err := s.sessions.CreateReserved(ctx, userID, itemTypeID)
	if err != nil {
		return domain.RentalSession{}, fmt.Errorf("service.SessionService.Create: %w", err)
	}

	s.timers.Schedule(sess.ID, s.expireFunc(sess.ID))

	s.record(ctx, audit.Event{
		UserID:    sess.UserID,
		SessionID: &sess.ID,
		Action:    audit.ActionCreateSession,
		Details: map[string]any{
			"item_id": sess.ItemID,
			"status":  sess.Status,
		},
	})
	return sess, nil
}

// Start marks the handover of the item to the user: RESERVED → ACTIVE.
// Fails with domain.ErrInvalidTransition when the session is not RESERVED —
// in particular when the expiry timer cancelled it first.
func (s *SessionService) Start(ctx context.Context, id, adminID int64) (domain.RentalSession, error) {
	sess, err := s.sessions.SetActive(ctx, id, adminID)
	if err != nil {
		return domain.RentalSession{}, fmt.Errorf("service.SessionService.Start: %w", err)
	}

	s.record(ctx, audit.Event{
		UserID:    sess.UserID,
		AdminID:   &adminID,
		SessionID: &sess.ID,
		Action:    audit.ActionStartSession,
		Details: map[string]any{
			"status":   sess.Status,
			"start_ts": sess.StartTS,
		},
	})
	return sess, nil
}

// Return closes the session: ACTIVE or OVERDUE → RETURNED. When withStrike is
// set a strike is issued to the session's user, attributed to the closing
// admin, after the transition commits. A strike storage failure propagates to
// the caller even though the session is already RETURNED — the transition is
// never rolled back.
func (s *SessionService) Return(ctx context.Context, id, adminID int64, withStrike bool, strikeReason string) (domain.RentalSession, error) {
	sess, err := s.sessions.SetReturned(ctx, id, adminID)
	if err != nil {
		return domain.RentalSession{}, fmt.Errorf("service.SessionService.Return: %w", err)
	}

	s.record(ctx, audit.Event{
		UserID:    sess.UserID,
		AdminID:   &adminID,
		SessionID: &sess.ID,
		Action:    audit.ActionReturnSession,
		Details: map[string]any{
			"status":           sess.Status,
			"end_ts":           sess.EndTS,
			"actual_return_ts": sess.ActualReturnTS,
		},
	})

	if withStrike {
		if _, err := s.strikes.Issue(ctx, sess.UserID, adminID, strikeReason, &sess.ID); err != nil {
			return domain.RentalSession{}, fmt.Errorf("service.SessionService.Return: issue strike: %w", err)
		}
	}
	return sess, nil
}

// ExpireIfUnclaimed cancels the session and releases its item if it is still
// RESERVED. A session that has already been started or cancelled is a no-op —
// the expected common case, not a fault. Invoked by the expiry timer.
func (s *SessionService) ExpireIfUnclaimed(ctx context.Context, id int64) error {
	sess, canceled, err := s.sessions.CancelIfReserved(ctx, id)
	if err != nil {
		return fmt.Errorf("service.SessionService.ExpireIfUnclaimed: %w", err)
	}
	if !canceled {
		return nil
	}

	s.record(ctx, audit.Event{
		UserID:    sess.UserID,
		SessionID: &sess.ID,
		Action:    audit.ActionExpireSession,
		Details: map[string]any{
			"item_id": sess.ItemID,
			"status":  sess.Status,
		},
	})
	return nil
}

// Update applies an administrative partial update. This is an operator escape
// hatch: it deliberately bypasses state machine validation so corrupted
// records can be repaired, and callers must hold the admin scope. Only the
// status value itself is validated.
func (s *SessionService) Update(ctx context.Context, id, adminID int64, patch domain.SessionPatch) (domain.RentalSession, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.RentalSession{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *patch.Status)
	}

	sess, err := s.sessions.Update(ctx, id, patch)
	if err != nil {
		return domain.RentalSession{}, fmt.Errorf("service.SessionService.Update: %w", err)
	}

	s.record(ctx, audit.Event{
		UserID:    sess.UserID,
		AdminID:   &adminID,
		SessionID: &sess.ID,
		Action:    audit.ActionUpdateSession,
		Details: map[string]any{
			"status":           sess.Status,
			"end_ts":           sess.EndTS,
			"actual_return_ts": sess.ActualReturnTS,
		},
	})
	return sess, nil
}

// GetByID returns a single session by ID.
// Returns domain.ErrNotFound if no session with that ID exists.
func (s *SessionService) GetByID(ctx context.Context, id int64) (domain.RentalSession, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return domain.RentalSession{}, fmt.Errorf("service.SessionService.GetByID: %w", err)
	}
	return sess, nil
}

// ListByUser returns all sessions of a user, newest reservation first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *SessionService) ListByUser(ctx context.Context, userID int64) ([]domain.RentalSession, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.SessionService.ListByUser: %w", err)
	}
	if sessions == nil {
		return []domain.RentalSession{}, nil
	}
	return sessions, nil
}

// ListByStatuses returns sessions whose status is in the given set.
// An empty set returns an empty list, not all sessions — callers must name
// every status they want. Always returns a non-nil slice.
func (s *SessionService) ListByStatuses(ctx context.Context, statuses []domain.Status) ([]domain.RentalSession, error) {
	if len(statuses) == 0 {
		return []domain.RentalSession{}, nil
	}
	sessions, err := s.sessions.ListByStatuses(ctx, statuses)
	if err != nil {
		return nil, fmt.Errorf("service.SessionService.ListByStatuses: %w", err)
	}
	if sessions == nil {
		return []domain.RentalSession{}, nil
	}
	return sessions, nil
}

// RearmPending re-arms expiry timers for sessions that are still RESERVED,
// using the stored reservation_ts as the source of truth for the remaining
// window. Call once at startup: timers do not survive a process restart, and
// a reservation whose window elapsed while the process was down is expired
// immediately.
func (s *SessionService) RearmPending(ctx context.Context) (int, error) {
	pending, err := s.sessions.ListByStatuses(ctx, []domain.Status{domain.StatusReserved})
	if err != nil {
		return 0, fmt.Errorf("service.SessionService.RearmPending: %w", err)
	}

	for _, sess := range pending {
		s.timers.ScheduleRemaining(sess.ID, sess.ReservationTS, s.expireFunc(sess.ID))
	}
	return len(pending), nil
}

// expireFunc builds the timer callback for a session. Errors are logged only:
// there is no caller to return them to once the timer fires.
func (s *SessionService) expireFunc(id int64) func(ctx context.Context) {
	return func(ctx context.Context) {
		if err := s.ExpireIfUnclaimed(ctx, id); err != nil {
			slog.ErrorContext(ctx, "reservation expiry failed", "session_id", id, "error", err)
		}
	}
}

// record delivers an audit event, fire-and-forget. A sink failure is logged
// and swallowed: the committed row is the source of truth, the audit trail is
// best-effort.
func (s *SessionService) record(ctx context.Context, e audit.Event) {
	if err := s.audit.Record(ctx, e); err != nil {
		slogAuditWarn(ctx, e.Action, err)
	}
}

// slogAuditWarn logs a failed audit emission. Shared by every service that
// records events.
func slogAuditWarn(ctx context.Context, action audit.Action, err error) {
	slog.WarnContext(ctx, "audit record failed", "action", string(action), "error", err)
}
