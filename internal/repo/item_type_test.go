package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentpoint/backend/internal/domain"
	"github.com/rentpoint/backend/internal/repo"
)

func TestItemTypeRepo_CreateAndGet(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()

	r := repo.NewItemTypeRepo(tx)
	name := "kayak " + uuid.NewString()
	created, err := r.Create(ctx, name)

	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, name, created.Name)

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestItemTypeRepo_GetByID_NotFound(t *testing.T) {
	tx := newTestTx(t)

	_, err := repo.NewItemTypeRepo(tx).GetByID(context.Background(), 999999)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestItemTypeRepo_List(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()

	r := repo.NewItemTypeRepo(tx)
	first, err := r.Create(ctx, "list a "+uuid.NewString())
	require.NoError(t, err)
	second, err := r.Create(ctx, "list b "+uuid.NewString())
	require.NoError(t, err)

	got, err := r.List(ctx)

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(got), 2)
	// Ordered by id: ours appear in creation order at the tail.
	assert.Equal(t, first.ID, got[len(got)-2].ID)
	assert.Equal(t, second.ID, got[len(got)-1].ID)
}

func TestItemTypeRepo_Delete_CascadesToItems(t *testing.T) {
	tx := newTestTx(t)
	ctx := context.Background()
	typeID, itemIDs := seedInventory(t, tx, 2)

	require.NoError(t, repo.NewItemTypeRepo(tx).Delete(ctx, typeID))

	items := repo.NewItemRepo(tx)
	for _, id := range itemIDs {
		_, err := items.GetByID(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "item %d should cascade away", id)
	}
}

func TestItemTypeRepo_Delete_NotFound(t *testing.T) {
	tx := newTestTx(t)

	err := repo.NewItemTypeRepo(tx).Delete(context.Background(), 999999)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
