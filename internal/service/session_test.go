package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentpoint/backend/internal/audit"
	"github.com/rentpoint/backend/internal/domain"
	"github.com/rentpoint/backend/internal/repo"
	"github.com/rentpoint/backend/internal/service"
)

// ---- mocks -----------------------------------------------------------------

// mockSessionRepo is a hand-written test double for repo.SessionRepo.
// Set only the method fields your test needs; calling an unset field panics,
// which is exactly what a test wants when an unexpected call happens.
type mockSessionRepo struct {
	createReserved   func(ctx context.Context, userID, itemTypeID int64) (domain.RentalSession, error)
	setActive        func(ctx context.Context, id, adminID int64) (domain.RentalSession, error)
	setReturned      func(ctx context.Context, id, adminID int64) (domain.RentalSession, error)
	cancelIfReserved func(ctx context.Context, id int64) (domain.RentalSession, bool, error)
	update           func(ctx context.Context, id int64, patch domain.SessionPatch) (domain.RentalSession, error)
	getByID          func(ctx context.Context, id int64) (domain.RentalSession, error)
	listByUser       func(ctx context.Context, userID int64) ([]domain.RentalSession, error)
	listByStatuses   func(ctx context.Context, statuses []domain.Status) ([]domain.RentalSession, error)
}

func (m *mockSessionRepo) CreateReserved(ctx context.Context, userID, itemTypeID int64) (domain.RentalSession, error) {
	return m.createReserved(ctx, userID, itemTypeID)
}
func (m *mockSessionRepo) SetActive(ctx context.Context, id, adminID int64) (domain.RentalSession, error) {
	return m.setActive(ctx, id, adminID)
}
func (m *mockSessionRepo) SetReturned(ctx context.Context, id, adminID int64) (domain.RentalSession, error) {
	return m.setReturned(ctx, id, adminID)
}
func (m *mockSessionRepo) CancelIfReserved(ctx context.Context, id int64) (domain.RentalSession, bool, error) {
	return m.cancelIfReserved(ctx, id)
}
func (m *mockSessionRepo) Update(ctx context.Context, id int64, patch domain.SessionPatch) (domain.RentalSession, error) {
	return m.update(ctx, id, patch)
}
func (m *mockSessionRepo) GetByID(ctx context.Context, id int64) (domain.RentalSession, error) {
	return m.getByID(ctx, id)
}
func (m *mockSessionRepo) ListByUser(ctx context.Context, userID int64) ([]domain.RentalSession, error) {
	return m.listByUser(ctx, userID)
}
func (m *mockSessionRepo) ListByStatuses(ctx context.Context, statuses []domain.Status) ([]domain.RentalSession, error) {
	return m.listByStatuses(ctx, statuses)
}

// compile-time check: mockSessionRepo must satisfy repo.SessionRepo.
var _ repo.SessionRepo = (*mockSessionRepo)(nil)

// mockScheduler records Schedule calls and keeps the fire callbacks so tests
// can trigger them synchronously.
type mockScheduler struct {
	scheduled []int64
	fires     map[int64]func(ctx context.Context)
}

func newMockScheduler() *mockScheduler {
	return &mockScheduler{fires: map[int64]func(ctx context.Context){}}
}

func (m *mockScheduler) Schedule(sessionID int64, fire func(ctx context.Context)) {
	m.scheduled = append(m.scheduled, sessionID)
	m.fires[sessionID] = fire
}

func (m *mockScheduler) ScheduleRemaining(sessionID int64, _ time.Time, fire func(ctx context.Context)) {
	m.Schedule(sessionID, fire)
}

var _ service.Scheduler = (*mockScheduler)(nil)

// mockStrikeIssuer is a test double for service.StrikeIssuer.
type mockStrikeIssuer struct {
	issue func(ctx context.Context, userID, adminID int64, reason string, sessionID *int64) (domain.Strike, error)
}

func (m *mockStrikeIssuer) Issue(ctx context.Context, userID, adminID int64, reason string, sessionID *int64) (domain.Strike, error) {
	return m.issue(ctx, userID, adminID, reason, sessionID)
}

var _ service.StrikeIssuer = (*mockStrikeIssuer)(nil)

// mockRecorder collects audit events; set err to simulate a failing sink.
type mockRecorder struct {
	events []audit.Event
	err    error
}

func (m *mockRecorder) Record(_ context.Context, e audit.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

var _ audit.Recorder = (*mockRecorder)(nil)

// ---- helpers ---------------------------------------------------------------

func reservedSession(id int64) domain.RentalSession {
	return domain.RentalSession{
		ID:            id,
		UserID:        1,
		ItemID:        7,
		Status:        domain.StatusReserved,
		ReservationTS: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func activeSession(id, adminID int64) domain.RentalSession {
	s := reservedSession(id)
	s.Status = domain.StatusActive
	start := s.ReservationTS.Add(2 * time.Minute)
	s.StartTS = &start
	s.AdminOpenID = &adminID
	return s
}

// ---- Create ----------------------------------------------------------------

func TestSessionService_Create_OK(t *testing.T) {
	rec := &mockRecorder{}
	sched := newMockScheduler()
	svc := service.NewSessionService(
		&mockSessionRepo{
			createReserved: func(_ context.Context, userID, itemTypeID int64) (domain.RentalSession, error) {
				assert.Equal(t, int64(1), userID)
				assert.Equal(t, int64(5), itemTypeID)
				return reservedSession(10), nil
			},
		},
		&mockStrikeIssuer{}, sched, rec,
	)

	got, err := svc.Create(context.Background(), 1, 5)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusReserved, got.Status)
	assert.Equal(t, int64(7), got.ItemID)

	require.Equal(t, []int64{10}, sched.scheduled, "expiry timer must be armed for the new session")

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionCreateSession, rec.events[0].Action)
	assert.Equal(t, int64(1), rec.events[0].UserID)
	assert.Nil(t, rec.events[0].AdminID)
	assert.Equal(t, int64(7), rec.events[0].Details["item_id"])
}

func TestSessionService_Create_NoAvailableItem(t *testing.T) {
	rec := &mockRecorder{}
	sched := newMockScheduler()
	svc := service.NewSessionService(
		&mockSessionRepo{
			createReserved: func(_ context.Context, _, _ int64) (domain.RentalSession, error) {
				return domain.RentalSession{}, domain.ErrNoAvailableItem
			},
		},
		&mockStrikeIssuer{}, sched, rec,
	)

	_, err := svc.Create(context.Background(), 1, 5)

	assert.ErrorIs(t, err, domain.ErrNoAvailableItem)
	assert.Empty(t, sched.scheduled, "no timer for a failed reservation")
	assert.Empty(t, rec.events, "no audit record for a failed reservation")
}

func TestSessionService_Create_AuditFailureDoesNotFail(t *testing.T) {
	rec := &mockRecorder{err: errors.New("sink down")}
	svc := service.NewSessionService(
		&mockSessionRepo{
			createReserved: func(_ context.Context, _, _ int64) (domain.RentalSession, error) {
				return reservedSession(10), nil
			},
		},
		&mockStrikeIssuer{}, newMockScheduler(), rec,
	)

	_, err := svc.Create(context.Background(), 1, 5)

	require.NoError(t, err, "audit is fire-and-forget")
}

func TestSessionService_Create_TimerFiresExpiry(t *testing.T) {
	rec := &mockRecorder{}
	sched := newMockScheduler()
	var canceled bool
	svc := service.NewSessionService(
		&mockSessionRepo{
			createReserved: func(_ context.Context, _, _ int64) (domain.RentalSession, error) {
				return reservedSession(10), nil
			},
			cancelIfReserved: func(_ context.Context, id int64) (domain.RentalSession, bool, error) {
				canceled = true
				s := reservedSession(id)
				s.Status = domain.StatusCanceled
				return s, true, nil
			},
		},
		&mockStrikeIssuer{}, sched, rec,
	)

	_, err := svc.Create(context.Background(), 1, 5)
	require.NoError(t, err)

	// Trigger the armed callback as the real scheduler would.
	sched.fires[10](context.Background())

	assert.True(t, canceled)
	require.Len(t, rec.events, 2)
	assert.Equal(t, audit.ActionExpireSession, rec.events[1].Action)
}

// ---- Start -----------------------------------------------------------------

func TestSessionService_Start_OK(t *testing.T) {
	rec := &mockRecorder{}
	svc := service.NewSessionService(
		&mockSessionRepo{
			setActive: func(_ context.Context, id, adminID int64) (domain.RentalSession, error) {
				return activeSession(id, adminID), nil
			},
		},
		&mockStrikeIssuer{}, newMockScheduler(), rec,
	)

	got, err := svc.Start(context.Background(), 10, 9)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, got.Status)
	require.NotNil(t, got.AdminOpenID)
	assert.Equal(t, int64(9), *got.AdminOpenID)

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionStartSession, rec.events[0].Action)
	require.NotNil(t, rec.events[0].AdminID)
	assert.Equal(t, int64(9), *rec.events[0].AdminID)
}

func TestSessionService_Start_InvalidTransition(t *testing.T) {
	rec := &mockRecorder{}
	svc := service.NewSessionService(
		&mockSessionRepo{
			setActive: func(_ context.Context, _, _ int64) (domain.RentalSession, error) {
				return domain.RentalSession{}, domain.ErrInvalidTransition
			},
		},
		&mockStrikeIssuer{}, newMockScheduler(), rec,
	)

	_, err := svc.Start(context.Background(), 10, 9)

	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Empty(t, rec.events)
}

func TestSessionService_Start_NotFound(t *testing.T) {
	svc := service.NewSessionService(
		&mockSessionRepo{
			setActive: func(_ context.Context, _, _ int64) (domain.RentalSession, error) {
				return domain.RentalSession{}, domain.ErrNotFound
			},
		},
		&mockStrikeIssuer{}, newMockScheduler(), &mockRecorder{},
	)

	_, err := svc.Start(context.Background(), 99, 9)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Return ----------------------------------------------------------------

func returnedSession(id, adminID int64) domain.RentalSession {
	s := activeSession(id, adminID)
	s.Status = domain.StatusReturned
	end := s.ReservationTS.Add(time.Hour)
	s.EndTS = &end
	s.ActualReturnTS = &end
	s.AdminCloseID = &adminID
	return s
}

func TestSessionService_Return_OK_NoStrike(t *testing.T) {
	rec := &mockRecorder{}
	strikeCalled := false
	svc := service.NewSessionService(
		&mockSessionRepo{
			setReturned: func(_ context.Context, id, adminID int64) (domain.RentalSession, error) {
				return returnedSession(id, adminID), nil
			},
		},
		&mockStrikeIssuer{
			issue: func(_ context.Context, _, _ int64, _ string, _ *int64) (domain.Strike, error) {
				strikeCalled = true
				return domain.Strike{}, nil
			},
		},
		newMockScheduler(), rec,
	)

	got, err := svc.Return(context.Background(), 10, 9, false, "")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusReturned, got.Status)
	assert.False(t, strikeCalled, "no strike without with_strike")
	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionReturnSession, rec.events[0].Action)
}

func TestSessionService_Return_WithStrike(t *testing.T) {
	var gotUser, gotAdmin int64
	var gotReason string
	var gotSession *int64
	svc := service.NewSessionService(
		&mockSessionRepo{
			setReturned: func(_ context.Context, id, adminID int64) (domain.RentalSession, error) {
				return returnedSession(id, adminID), nil
			},
		},
		&mockStrikeIssuer{
			issue: func(_ context.Context, userID, adminID int64, reason string, sessionID *int64) (domain.Strike, error) {
				gotUser, gotAdmin, gotReason, gotSession = userID, adminID, reason, sessionID
				return domain.Strike{ID: 1}, nil
			},
		},
		newMockScheduler(), &mockRecorder{},
	)

	_, err := svc.Return(context.Background(), 10, 9, true, "damaged")

	require.NoError(t, err)
	assert.Equal(t, int64(1), gotUser, "strike goes to the session's user")
	assert.Equal(t, int64(9), gotAdmin, "strike attributed to the closing admin")
	assert.Equal(t, "damaged", gotReason)
	require.NotNil(t, gotSession)
	assert.Equal(t, int64(10), *gotSession)
}

func TestSessionService_Return_StrikeErrorPropagates(t *testing.T) {
	strikeErr := errors.New("strikes table down")
	svc := service.NewSessionService(
		&mockSessionRepo{
			setReturned: func(_ context.Context, id, adminID int64) (domain.RentalSession, error) {
				return returnedSession(id, adminID), nil
			},
		},
		&mockStrikeIssuer{
			issue: func(_ context.Context, _, _ int64, _ string, _ *int64) (domain.Strike, error) {
				return domain.Strike{}, strikeErr
			},
		},
		newMockScheduler(), &mockRecorder{},
	)

	_, err := svc.Return(context.Background(), 10, 9, true, "damaged")

	assert.ErrorIs(t, err, strikeErr)
}

func TestSessionService_Return_Inactive(t *testing.T) {
	svc := service.NewSessionService(
		&mockSessionRepo{
			setReturned: func(_ context.Context, _, _ int64) (domain.RentalSession, error) {
				return domain.RentalSession{}, domain.ErrInactiveSession
			},
		},
		&mockStrikeIssuer{}, newMockScheduler(), &mockRecorder{},
	)

	_, err := svc.Return(context.Background(), 10, 9, false, "")

	assert.ErrorIs(t, err, domain.ErrInactiveSession)
}

// ---- ExpireIfUnclaimed -----------------------------------------------------

func TestSessionService_ExpireIfUnclaimed_Won(t *testing.T) {
	rec := &mockRecorder{}
	svc := service.NewSessionService(
		&mockSessionRepo{
			cancelIfReserved: func(_ context.Context, id int64) (domain.RentalSession, bool, error) {
				s := reservedSession(id)
				s.Status = domain.StatusCanceled
				return s, true, nil
			},
		},
		&mockStrikeIssuer{}, newMockScheduler(), rec,
	)

	err := svc.ExpireIfUnclaimed(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionExpireSession, rec.events[0].Action)
	assert.Nil(t, rec.events[0].AdminID, "expiry is not attributed to an admin")
}

func TestSessionService_ExpireIfUnclaimed_NoOp(t *testing.T) {
	rec := &mockRecorder{}
	svc := service.NewSessionService(
		&mockSessionRepo{
			cancelIfReserved: func(_ context.Context, _ int64) (domain.RentalSession, bool, error) {
				// Session was started before the timer fired.
				return domain.RentalSession{}, false, nil
			},
		},
		&mockStrikeIssuer{}, newMockScheduler(), rec,
	)

	err := svc.ExpireIfUnclaimed(context.Background(), 10)

	require.NoError(t, err, "losing the race is not an error")
	assert.Empty(t, rec.events, "a no-op expiry emits nothing")
}

// ---- Update ----------------------------------------------------------------

func TestSessionService_Update_OK(t *testing.T) {
	rec := &mockRecorder{}
	st := domain.StatusOverdue
	svc := service.NewSessionService(
		&mockSessionRepo{
			update: func(_ context.Context, id int64, patch domain.SessionPatch) (domain.RentalSession, error) {
				require.NotNil(t, patch.Status)
				s := reservedSession(id)
				s.Status = *patch.Status
				return s, nil
			},
		},
		&mockStrikeIssuer{}, newMockScheduler(), rec,
	)

	got, err := svc.Update(context.Background(), 10, 9, domain.SessionPatch{Status: &st})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusOverdue, got.Status)
	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionUpdateSession, rec.events[0].Action)
}

func TestSessionService_Update_UnknownStatus(t *testing.T) {
	bad := domain.Status("LOST")
	svc := service.NewSessionService(&mockSessionRepo{}, &mockStrikeIssuer{}, newMockScheduler(), &mockRecorder{})

	_, err := svc.Update(context.Background(), 10, 9, domain.SessionPatch{Status: &bad})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- queries ---------------------------------------------------------------

func TestSessionService_ListByStatuses_EmptyFilterReturnsEmpty(t *testing.T) {
	svc := service.NewSessionService(
		&mockSessionRepo{
			listByStatuses: func(_ context.Context, _ []domain.Status) ([]domain.RentalSession, error) {
				t.Fatal("repo must not be queried for an empty filter")
				return nil, nil
			},
		},
		&mockStrikeIssuer{}, newMockScheduler(), &mockRecorder{},
	)

	got, err := svc.ListByStatuses(context.Background(), nil)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSessionService_ListByUser_ReturnsEmptySlice(t *testing.T) {
	svc := service.NewSessionService(
		&mockSessionRepo{
			listByUser: func(_ context.Context, _ int64) ([]domain.RentalSession, error) {
				return nil, nil
			},
		},
		&mockStrikeIssuer{}, newMockScheduler(), &mockRecorder{},
	)

	got, err := svc.ListByUser(context.Background(), 1)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// ---- RearmPending ----------------------------------------------------------

func TestSessionService_RearmPending(t *testing.T) {
	sched := newMockScheduler()
	svc := service.NewSessionService(
		&mockSessionRepo{
			listByStatuses: func(_ context.Context, statuses []domain.Status) ([]domain.RentalSession, error) {
				assert.Equal(t, []domain.Status{domain.StatusReserved}, statuses)
				return []domain.RentalSession{reservedSession(10), reservedSession(11)}, nil
			},
		},
		&mockStrikeIssuer{}, sched, &mockRecorder{},
	)

	count, err := svc.RearmPending(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []int64{10, 11}, sched.scheduled)
}
