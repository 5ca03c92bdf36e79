package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rentpoint/backend/internal/domain"
)

// SessionRepo defines the persistence operations for rental sessions.
//
// The guided transitions (SetActive, SetReturned, CancelIfReserved) are
// single-statement compare-and-set updates: the current status is part of the
// WHERE clause, so a concurrent transition on the same session resolves to
// exactly one winner and the loser sees a typed error (or a clean no-op for
// CancelIfReserved). That CAS is the core correctness property of the whole
// service — never replace it with a read-then-write.
type SessionRepo interface {
	// CreateReserved atomically claims one available item of the given type
	// and inserts a RESERVED session holding it. No session is created and no
	// item is mutated when the claim fails with domain.ErrNoAvailableItem.
	CreateReserved(ctx context.Context, userID, itemTypeID int64) (domain.RentalSession, error)

	// SetActive transitions RESERVED → ACTIVE, stamping start_ts and the
	// opening admin. Returns domain.ErrNotFound for an unknown id and
	// domain.ErrInvalidTransition (carrying the current status) when the
	// session is not RESERVED — including when the expiry timer won the race.
	SetActive(ctx context.Context, id, adminID int64) (domain.RentalSession, error)

	// SetReturned transitions ACTIVE or OVERDUE → RETURNED. end_ts is set
	// only if not already set; actual_return_ts is stamped unconditionally.
	// Returns domain.ErrNotFound or domain.ErrInactiveSession.
	SetReturned(ctx context.Context, id, adminID int64) (domain.RentalSession, error)

	// CancelIfReserved transitions RESERVED → CANCELED and releases the held
	// item in the same transaction. The boolean reports whether the cancel
	// won; a session that already left RESERVED (or does not exist) is a
	// no-op, not an error — that is the expected common case for the expiry
	// timer.
	CancelIfReserved(ctx context.Context, id int64) (domain.RentalSession, bool, error)

	// Update applies an administrative partial update without transition
	// validation. Returns domain.ErrNotFound if the session does not exist.
	Update(ctx context.Context, id int64, patch domain.SessionPatch) (domain.RentalSession, error)

	// GetByID retrieves a single session by primary key.
	// Returns domain.ErrNotFound if no session with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.RentalSession, error)

	// ListByUser returns all sessions of a user, newest reservation first.
	ListByUser(ctx context.Context, userID int64) ([]domain.RentalSession, error)

	// ListByStatuses returns sessions whose status is in the given set,
	// newest reservation first. An empty set yields an empty result.
	ListByStatuses(ctx context.Context, statuses []domain.Status) ([]domain.RentalSession, error)
}

// sessionCols is the canonical column list every session query returns,
// in scanSession order.
const sessionCols = `id, user_id, item_id, status, reservation_ts,
	start_ts, end_ts, actual_return_ts, admin_open_id, admin_close_id`

// pgSessionRepo is the Postgres implementation of SessionRepo.
type pgSessionRepo struct {
	db db
}

// NewSessionRepo constructs a SessionRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback
// isolation (the compound operations then nest via savepoints).
func NewSessionRepo(db db) SessionRepo {
	return &pgSessionRepo{db: db}
}

func (r *pgSessionRepo) CreateReserved(ctx context.Context, userID, itemTypeID int64) (domain.RentalSession, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.RentalSession{}, fmt.Errorf("repo.SessionRepo.CreateReserved: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	item, err := claimAvailableItem(ctx, tx, itemTypeID)
	if err != nil {
		return domain.RentalSession{}, fmt.Errorf("repo.SessionRepo.CreateReserved: %w", err)
	}

	const q = `
		INSERT INTO rental_sessions (user_id, item_id, status, reservation_ts)
		VALUES (@user_id, @item_id, @status, now())
		RETURNING ` + sessionCols

	row := tx.QueryRow(ctx, q, pgx.NamedArgs{
		"user_id": userID,
		"item_id": item.ID,
		"status":  domain.StatusReserved,
	})
	sess, err := scanSession(row)
	if err != nil {
		return domain.RentalSession{}, fmt.Errorf("repo.SessionRepo.CreateReserved: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.RentalSession{}, fmt.Errorf("repo.SessionRepo.CreateReserved: commit: %w", err)
	}
	return sess, nil
}

func (r *pgSessionRepo) SetActive(ctx context.Context, id, adminID int64) (domain.RentalSession, error) {
	const q = `
		UPDATE rental_sessions
		SET status = @to, start_ts = now(), admin_open_id = @admin_id
		WHERE id = @id AND status = @from
		RETURNING ` + sessionCols

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":       id,
		"admin_id": adminID,
		"from":     domain.StatusReserved,
		"to":       domain.StatusActive,
	})
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RentalSession{}, r.transitionConflict(ctx, "SetActive", id, domain.ErrInvalidTransition)
		}
		return domain.RentalSession{}, fmt.Errorf("repo.SessionRepo.SetActive: %w", err)
	}
	return sess, nil
}

func (r *pgSessionRepo) SetReturned(ctx context.Context, id, adminID int64) (domain.RentalSession, error) {
	// COALESCE keeps an earlier end marker: end_ts is written exactly once.
	const q = `
		UPDATE rental_sessions
		SET status         = @to,
		    end_ts         = COALESCE(end_ts, now()),
		    actual_return_ts = now(),
		    admin_close_id = @admin_id
		WHERE id = @id AND status = ANY(@from)
		RETURNING ` + sessionCols

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":       id,
		"admin_id": adminID,
		"from":     []string{string(domain.StatusActive), string(domain.StatusOverdue)},
		"to":       domain.StatusReturned,
	})
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.RentalSession{}, r.transitionConflict(ctx, "SetReturned", id, domain.ErrInactiveSession)
		}
		return domain.RentalSession{}, fmt.Errorf("repo.SessionRepo.SetReturned: %w", err)
	}
	return sess, nil
}

func (r *pgSessionRepo) CancelIfReserved(ctx context.Context, id int64) (domain.RentalSession, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.RentalSession{}, false, fmt.Errorf("repo.SessionRepo.CancelIfReserved: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		UPDATE rental_sessions
		SET status = @to
		WHERE id = @id AND status = @from
		RETURNING ` + sessionCols

	row := tx.QueryRow(ctx, q, pgx.NamedArgs{
		"id":   id,
		"from": domain.StatusReserved,
		"to":   domain.StatusCanceled,
	})
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Already started, expired, or gone: nothing to do.
			return domain.RentalSession{}, false, nil
		}
		return domain.RentalSession{}, false, fmt.Errorf("repo.SessionRepo.CancelIfReserved: %w", err)
	}

	if err := releaseItem(ctx, tx, sess.ItemID); err != nil {
		return domain.RentalSession{}, false, fmt.Errorf("repo.SessionRepo.CancelIfReserved: release item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.RentalSession{}, false, fmt.Errorf("repo.SessionRepo.CancelIfReserved: commit: %w", err)
	}
	return sess, true, nil
}

func (r *pgSessionRepo) Update(ctx context.Context, id int64, patch domain.SessionPatch) (domain.RentalSession, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	sets := make([]string, 0, 6)
	args := pgx.NamedArgs{"id": id}
	if patch.Status != nil {
		sets = append(sets, "status = @status")
		args["status"] = *patch.Status
	}
	if patch.StartTS != nil {
		sets = append(sets, "start_ts = @start_ts")
		args["start_ts"] = *patch.StartTS
	}
	if patch.EndTS != nil {
		sets = append(sets, "end_ts = @end_ts")
		args["end_ts"] = *patch.EndTS
	}
	if patch.ActualReturnTS != nil {
		sets = append(sets, "actual_return_ts = @actual_return_ts")
		args["actual_return_ts"] = *patch.ActualReturnTS
	}
	if patch.AdminOpenID != nil {
		sets = append(sets, "admin_open_id = @admin_open_id")
		args["admin_open_id"] = *patch.AdminOpenID
	}
	if patch.AdminCloseID != nil {
		sets = append(sets, "admin_close_id = @admin_close_id")
		args["admin_close_id"] = *patch.AdminCloseID
	}

	q := `UPDATE rental_sessions SET ` + strings.Join(sets, ", ") +
		` WHERE id = @id RETURNING ` + sessionCols

	row := r.db.QueryRow(ctx, q, args)
	sess, err := scanSession(row)
	if err != nil {
		return domain.RentalSession{}, fmt.Errorf("repo.SessionRepo.Update: %w", err)
	}
	return sess, nil
}

func (r *pgSessionRepo) GetByID(ctx context.Context, id int64) (domain.RentalSession, error) {
	const q = `SELECT ` + sessionCols + ` FROM rental_sessions WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	sess, err := scanSession(row)
	if err != nil {
		return domain.RentalSession{}, fmt.Errorf("repo.SessionRepo.GetByID: %w", err)
	}
	return sess, nil
}

func (r *pgSessionRepo) ListByUser(ctx context.Context, userID int64) ([]domain.RentalSession, error) {
	const q = `
		SELECT ` + sessionCols + `
		FROM rental_sessions
		WHERE user_id = @user_id
		ORDER BY reservation_ts DESC, id DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.SessionRepo.ListByUser: %w", err)
	}
	return collectSessions(rows, "ListByUser")
}

func (r *pgSessionRepo) ListByStatuses(ctx context.Context, statuses []domain.Status) ([]domain.RentalSession, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	const q = `
		SELECT ` + sessionCols + `
		FROM rental_sessions
		WHERE status = ANY(@statuses)
		ORDER BY reservation_ts DESC, id DESC`

	vals := make([]string, len(statuses))
	for i, s := range statuses {
		vals[i] = string(s)
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"statuses": vals})
	if err != nil {
		return nil, fmt.Errorf("repo.SessionRepo.ListByStatuses: %w", err)
	}
	return collectSessions(rows, "ListByStatuses")
}

// transitionConflict turns a zero-row CAS update into the right typed error:
// ErrNotFound when the session does not exist, otherwise the given sentinel
// wrapped with the session's current status.
func (r *pgSessionRepo) transitionConflict(ctx context.Context, op string, id int64, sentinel error) error {
	const q = `SELECT status FROM rental_sessions WHERE id = @id`

	var status string
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("repo.SessionRepo.%s: %w", op, domain.ErrNotFound)
		}
		return fmt.Errorf("repo.SessionRepo.%s: %w", op, err)
	}
	return fmt.Errorf("repo.SessionRepo.%s: %w: session is %s", op, sentinel, status)
}

// collectSessions drains rows into a slice, wrapping errors with the caller's
// operation name.
func collectSessions(rows pgx.Rows, op string) ([]domain.RentalSession, error) {
	defer rows.Close()

	var sessions []domain.RentalSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.SessionRepo.%s: scan: %w", op, err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.SessionRepo.%s: rows: %w", op, err)
	}

	return sessions, nil
}

// scanSession maps a single database row into a domain.RentalSession.
// It handles the nullable timestamp and admin id conversions.
func scanSession(s scanner) (domain.RentalSession, error) {
	var (
		sess                     domain.RentalSession
		status                   string
		startTS, endTS, actualTS pgtype.Timestamptz
		adminOpen, adminClose    pgtype.Int8
	)

	err := s.Scan(&sess.ID, &sess.UserID, &sess.ItemID, &status, &sess.ReservationTS,
		&startTS, &endTS, &actualTS, &adminOpen, &adminClose)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RentalSession{}, domain.ErrNotFound
		}
		return domain.RentalSession{}, err
	}

	sess.Status = domain.Status(status)
	if startTS.Valid {
		t := startTS.Time
		sess.StartTS = &t
	}
	if endTS.Valid {
		t := endTS.Time
		sess.EndTS = &t
	}
	if actualTS.Valid {
		t := actualTS.Time
		sess.ActualReturnTS = &t
	}
	if adminOpen.Valid {
		v := adminOpen.Int64
		sess.AdminOpenID = &v
	}
	if adminClose.Valid {
		v := adminClose.Int64
		sess.AdminCloseID = &v
	}

	return sess, nil
}
