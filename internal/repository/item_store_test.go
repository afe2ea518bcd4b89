package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TransWatcher/internal/domain/models"
)

func TestMemoryItemStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryItemStore()

	a, err := store.Create(ctx, models.ItemInput{Name: "Laptop", Price: 999.5, IsAvailable: true})
	require.NoError(t, err)
	b, err := store.Create(ctx, models.ItemInput{Name: "Mouse", Price: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)

	got, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Mouse", got.Name)

	desc := "wireless"
	upd, err := store.Update(ctx, 2, models.ItemInput{Name: "Mouse Pro", Description: &desc, Price: 35})
	require.NoError(t, err)
	assert.Equal(t, 2, upd.ID)
	assert.Equal(t, "wireless", *upd.Description)

	del, err := store.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", del.Name)

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mouse Pro", items[0].Name)

	c, err := store.Create(ctx, models.ItemInput{Name: "Keyboard"})
	require.NoError(t, err)
	assert.Equal(t, 3, c.ID, "ids are not reused")
}

func TestMemoryItemStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryItemStore()

	_, err := store.Get(ctx, 7)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
	assert.Equal(t, "Item not found", models.MessageOf(err))

	_, err = store.Update(ctx, 7, models.ItemInput{Name: "x"})
	assert.Equal(t, models.KindNotFound, models.KindOf(err))

	_, err = store.Delete(ctx, 7)
	assert.Equal(t, models.KindNotFound, models.KindOf(err))
}

func TestMemoryItemStoreSearch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryItemStore()
	for _, n := range []string{"Gaming Laptop", "laptop bag", "Monitor"} {
		_, err := store.Create(ctx, models.ItemInput{Name: n})
		require.NoError(t, err)
	}

	res, err := store.Search(ctx, "LAPTOP")
	require.NoError(t, err)
	assert.Len(t, res, 2)

	res, err = store.Search(ctx, "phone")
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, res)
}
