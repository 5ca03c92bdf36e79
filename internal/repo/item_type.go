package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rentpoint/backend/internal/domain"
)

// ItemTypeRepo defines the persistence operations for item types.
type ItemTypeRepo interface {
	// Create inserts a new item type and returns the persisted record.
	Create(ctx context.Context, name string) (domain.ItemType, error)

	// GetByID retrieves a single item type by primary key.
	// Returns domain.ErrNotFound if no type with that ID exists.
	GetByID(ctx context.Context, id int64) (domain.ItemType, error)

	// List returns all item types ordered by id.
	List(ctx context.Context) ([]domain.ItemType, error)

	// Delete removes an item type by ID. Items of the type are removed with
	// it (ON DELETE CASCADE). Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id int64) error
}

// pgItemTypeRepo is the Postgres implementation of ItemTypeRepo.
type pgItemTypeRepo struct {
	db db
}

// NewItemTypeRepo constructs an ItemTypeRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewItemTypeRepo(db db) ItemTypeRepo {
	return &pgItemTypeRepo{db: db}
}

func (r *pgItemTypeRepo) Create(ctx context.Context, name string) (domain.ItemType, error) {
	const q = `
		INSERT INTO item_types (name)
		VALUES (@name)
		RETURNING id, name`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name})
	result, err := scanItemType(row)
	if err != nil {
		return domain.ItemType{}, fmt.Errorf("repo.ItemTypeRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgItemTypeRepo) GetByID(ctx context.Context, id int64) (domain.ItemType, error) {
	const q = `SELECT id, name FROM item_types WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanItemType(row)
	if err != nil {
		return domain.ItemType{}, fmt.Errorf("repo.ItemTypeRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgItemTypeRepo) List(ctx context.Context) ([]domain.ItemType, error) {
	const q = `SELECT id, name FROM item_types ORDER BY id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.ItemTypeRepo.List: %w", err)
	}
	defer rows.Close()

	var types []domain.ItemType
	for rows.Next() {
		t, err := scanItemType(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ItemTypeRepo.List: scan: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItemTypeRepo.List: rows: %w", err)
	}

	return types, nil
}

func (r *pgItemTypeRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM item_types WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ItemTypeRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItemTypeRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanItemType maps a single database row into a domain.ItemType.
func scanItemType(s scanner) (domain.ItemType, error) {
	var t domain.ItemType
	if err := s.Scan(&t.ID, &t.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ItemType{}, domain.ErrNotFound
		}
		return domain.ItemType{}, err
	}
	return t, nil
}
