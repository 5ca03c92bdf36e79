package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rentpoint/backend/internal/domain"
)

// StrikeRepo defines the persistence operations for strikes.
type StrikeRepo interface {
	// Create inserts a new strike and returns the persisted record (with
	// DB-generated id and created_at populated).
	Create(ctx context.Context, strike domain.Strike) (domain.Strike, error)

	// ListByUser returns all strikes issued against a user, newest first.
	ListByUser(ctx context.Context, userID int64) ([]domain.Strike, error)

	// Delete removes a strike by ID (administrative revocation).
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id int64) error
}

// pgStrikeRepo is the Postgres implementation of StrikeRepo.
type pgStrikeRepo struct {
	db db
}

// NewStrikeRepo constructs a StrikeRepo backed by the provided db connection.
func NewStrikeRepo(db db) StrikeRepo {
	return &pgStrikeRepo{db: db}
}

func (r *pgStrikeRepo) Create(ctx context.Context, strike domain.Strike) (domain.Strike, error) {
	const q = `
		INSERT INTO strikes (user_id, admin_id, reason, session_id)
		VALUES (@user_id, @admin_id, @reason, @session_id)
		RETURNING id, user_id, admin_id, reason, session_id, created_at`

	args := pgx.NamedArgs{
		"user_id":    strike.UserID,
		"admin_id":   strike.AdminID,
		"reason":     strike.Reason,
		"session_id": strike.SessionID, // nil becomes NULL
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanStrike(row)
	if err != nil {
		return domain.Strike{}, fmt.Errorf("repo.StrikeRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgStrikeRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Strike, error) {
	const q = `
		SELECT id, user_id, admin_id, reason, session_id, created_at
		FROM strikes
		WHERE user_id = @user_id
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.StrikeRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	var strikes []domain.Strike
	for rows.Next() {
		s, err := scanStrike(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.StrikeRepo.ListByUser: scan: %w", err)
		}
		strikes = append(strikes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.StrikeRepo.ListByUser: rows: %w", err)
	}

	return strikes, nil
}

func (r *pgStrikeRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM strikes WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.StrikeRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.StrikeRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanStrike maps a single database row into a domain.Strike.
func scanStrike(s scanner) (domain.Strike, error) {
	var (
		strike    domain.Strike
		sessionID pgtype.Int8
	)

	err := s.Scan(&strike.ID, &strike.UserID, &strike.AdminID, &strike.Reason, &sessionID, &strike.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Strike{}, domain.ErrNotFound
		}
		return domain.Strike{}, err
	}

	if sessionID.Valid {
		v := sessionID.Int64
		strike.SessionID = &v
	}

	return strike, nil
}
