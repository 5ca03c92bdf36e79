package service

import (
	"context"
	"fmt"

	"github.com/rentpoint/backend/internal/audit"
	"github.com/rentpoint/backend/internal/domain"
	"github.com/rentpoint/backend/internal/repo"
)

// StrikeService issues and manages strikes. Issuing a strike has no side
// effects beyond the record and its audit event — suspension policy belongs
// to the identity service.
type StrikeService struct {
	strikes repo.StrikeRepo
	audit   audit.Recorder
}

// NewStrikeService constructs a StrikeService backed by the provided repo.
func NewStrikeService(strikes repo.StrikeRepo, rec audit.Recorder) *StrikeService {
	return &StrikeService{strikes: strikes, audit: rec}
}

// Issue creates a strike against userID, attributed to adminID, optionally
// linked to a session. There are no business failure modes; storage errors
// propagate.
func (s *StrikeService) Issue(ctx context.Context, userID, adminID int64, reason string, sessionID *int64) (domain.Strike, error) {
	strike, err := s.strikes.Create(ctx, domain.Strike{
		UserID:    userID,
		AdminID:   adminID,
		Reason:    reason,
		SessionID: sessionID,
	})
	if err != nil {
		return domain.Strike{}, fmt.Errorf("service.StrikeService.Issue: %w", err)
	}

	if err := s.audit.Record(ctx, audit.Event{
		UserID:    strike.UserID,
		AdminID:   &strike.AdminID,
		SessionID: strike.SessionID,
		Action:    audit.ActionCreateStrike,
		Details:   map[string]any{"reason": strike.Reason},
	}); err != nil {
		// Best-effort, same as every other audit emission.
		slogAuditWarn(ctx, audit.ActionCreateStrike, err)
	}
	return strike, nil
}

// ListByUser returns all strikes issued against a user, newest first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *StrikeService) ListByUser(ctx context.Context, userID int64) ([]domain.Strike, error) {
	strikes, err := s.strikes.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.StrikeService.ListByUser: %w", err)
	}
	if strikes == nil {
		return []domain.Strike{}, nil
	}
	return strikes, nil
}

// Delete revokes a strike by ID.
// Returns domain.ErrNotFound if the strike does not exist.
func (s *StrikeService) Delete(ctx context.Context, id int64) error {
	if err := s.strikes.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.StrikeService.Delete: %w", err)
	}
	return nil
}

// compile-time check: StrikeService must satisfy StrikeIssuer.
var _ StrikeIssuer = (*StrikeService)(nil)
