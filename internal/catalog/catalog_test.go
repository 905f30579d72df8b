package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"panoproperty_backend/internal/backend"
	"panoproperty_backend/internal/backend/memory"
	"panoproperty_backend/internal/model"
)

func insert(t *testing.T, store *memory.Store, title string, seller *string, labels ...string) string {
	t.Helper()
	row := model.PropertyRow{Title: title, City: "Austin", SellerID: seller}
	require.NoError(t, store.InsertProperty(context.Background(), &row))
	var panos []model.Panorama
	for _, l := range labels {
		panos = append(panos, model.Panorama{URL: "https://cdn.test/" + l, Label: l})
	}
	require.NoError(t, store.InsertPhotos(context.Background(), model.PhotoRowsFor(row.ID, panos)))
	return row.ID
}

func TestLoadOnceNewestFirst(t *testing.T) {
	store := memory.NewStore()
	first := insert(t, store, "First", nil, "a", "b")
	second := insert(t, store, "Second", nil, "c")

	c := New(store, zap.NewNop())
	require.NoError(t, c.Load(context.Background()))

	all := c.All()
	require.Len(t, all, 2)
	require.Equal(t, second, all[0].ID)
	require.Equal(t, first, all[1].ID)
	require.Equal(t, []model.Panorama{
		{URL: "https://cdn.test/a", Label: "a"},
		{URL: "https://cdn.test/b", Label: "b"},
	}, all[1].Panoramas)

	insert(t, store, "Third", nil, "d")
	require.NoError(t, c.Load(context.Background()))
	require.Len(t, c.All(), 2)

	require.NoError(t, c.Reload(context.Background()))
	require.Len(t, c.All(), 3)
}

func TestLocalMutationsWinWithoutRefetch(t *testing.T) {
	store := memory.NewStore()
	id := insert(t, store, "Listed", nil, "a")

	c := New(store, zap.NewNop())
	require.NoError(t, c.Load(context.Background()))
	store.ResetCalls()

	c.Created(model.Property{ID: "new", Title: "Created"})
	c.Updated(model.Property{ID: id, Title: "Edited"})
	require.Equal(t, []string{"new", id}, []string{c.All()[0].ID, c.All()[1].ID})

	got, ok := c.Get(id)
	require.True(t, ok)
	require.Equal(t, "Edited", got.Title)

	c.Deleted("new")
	_, ok = c.Get("new")
	require.False(t, ok)

	require.Empty(t, store.Calls())
}

func TestLoadFailureLeavesCatalogEmpty(t *testing.T) {
	store := memory.NewStore()
	store.Fail(memory.OpListPhotos, errors.New("connection reset"))

	c := New(store, zap.NewNop())
	require.EqualError(t, c.Load(context.Background()), "connection reset")
	require.Empty(t, c.All())

	store.Fail(memory.OpListPhotos, nil)
	require.NoError(t, c.Load(context.Background()))
}

func TestBySeller(t *testing.T) {
	store := memory.NewStore()
	seller := "seller-1"
	other := "seller-2"
	mine := insert(t, store, "Mine", &seller, "a")
	insert(t, store, "Theirs", &other, "b")
	insert(t, store, "Seed", nil, "c")

	c := New(store, zap.NewNop())
	got, err := c.BySeller(context.Background(), seller)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, mine, got[0].ID)
	require.Len(t, got[0].Panoramas, 1)
}

func TestFetchReadsStore(t *testing.T) {
	store := memory.NewStore()
	id := insert(t, store, "Fresh", nil, "a", "b")

	c := New(store, zap.NewNop())
	got, err := c.Fetch(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "Fresh", got.Title)
	require.Len(t, got.Panoramas, 2)

	_, err = c.Fetch(context.Background(), "missing")
	require.ErrorIs(t, err, backend.ErrNotFound)
}
