package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rentpoint/backend/internal/domain"
)

// ItemRepo defines the persistence operations for physical item units.
// These cover inventory management only — the availability flag itself is
// mutated exclusively by the allocator helpers below, inside the session
// repo's transactions.
type ItemRepo interface {
	// Create inserts a new available unit of the given type and returns the
	// persisted record.
	Create(ctx context.Context, typeID int64) (domain.Item, error)

	// GetByID retrieves a single item by primary key.
	// Returns domain.ErrNotFound if no item with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.Item, error)

	// List returns items matching the filter, ordered by id.
	List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error)

	// Delete removes an item by ID. Returns domain.ErrNotFound if it does
	// not exist. Items referenced by sessions cannot be deleted (FK).
	Delete(ctx context.Context, id int64) error
}

// pgItemRepo is the Postgres implementation of ItemRepo.
type pgItemRepo struct {
	db db
}

// NewItemRepo constructs an ItemRepo backed by the provided db connection.
func NewItemRepo(db db) ItemRepo {
	return &pgItemRepo{db: db}
}

func (r *pgItemRepo) Create(ctx context.Context, typeID int64) (domain.Item, error) {
	const q = `
		INSERT INTO items (type_id, is_available)
		VALUES (@type_id, TRUE)
		RETURNING id, type_id, is_available`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"type_id": typeID})
	result, err := scanItem(row)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgItemRepo) GetByID(ctx context.Context, id int64) (domain.Item, error) {
	const q = `SELECT id, type_id, is_available FROM items WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanItem(row)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgItemRepo) List(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	// Both filter clauses collapse to TRUE when the corresponding field is nil.
	const q = `
		SELECT id, type_id, is_available
		FROM items
		WHERE (@type_id::bigint IS NULL OR type_id = @type_id)
		  AND (@is_available::boolean IS NULL OR is_available = @is_available)
		ORDER BY id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"type_id":      filter.TypeID,
		"is_available": filter.IsAvailable,
	})
	if err != nil {
		return nil, fmt.Errorf("repo.ItemRepo.List: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ItemRepo.List: scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItemRepo.List: rows: %w", err)
	}

	return items, nil
}

func (r *pgItemRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM items WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ItemRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItemRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// --- allocator helpers ------------------------------------------------------
// These run inside the session repo's transactions so that an item's
// availability flag and the session status that depends on it always commit
// (or roll back) together.

// claimAvailableItem picks the lowest-id available unit of the given type and
// marks it unavailable. FOR UPDATE SKIP LOCKED makes concurrent claims skip a
// row another transaction has already locked, so two reservations can never
// allocate the same unit. Returns domain.ErrNoAvailableItem when the type has
// zero free units.
func claimAvailableItem(ctx context.Context, q db, typeID int64) (domain.Item, error) {
	const query = `
		UPDATE items
		SET is_available = FALSE
		WHERE id = (
			SELECT id FROM items
			WHERE type_id = @type_id AND is_available
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, type_id, is_available`

	row := q.QueryRow(ctx, query, pgx.NamedArgs{"type_id": typeID})
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Item{}, domain.ErrNoAvailableItem
		}
		return domain.Item{}, err
	}
	return item, nil
}

// releaseItem marks an item available again. Idempotent: releasing an already
// available item is a no-op, not an error.
func releaseItem(ctx context.Context, q db, itemID int64) error {
	const query = `UPDATE items SET is_available = TRUE WHERE id = @id`

	if _, err := q.Exec(ctx, query, pgx.NamedArgs{"id": itemID}); err != nil {
		return err
	}
	return nil
}

// scanItem maps a single database row into a domain.Item.
func scanItem(s scanner) (domain.Item, error) {
	var it domain.Item
	if err := s.Scan(&it.ID, &it.TypeID, &it.IsAvailable); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Item{}, domain.ErrNotFound
		}
		return domain.Item{}, err
	}
	return it, nil
}
