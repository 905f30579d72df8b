package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"panoproperty_backend/internal/backend/memory"
	"panoproperty_backend/internal/model"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFindOrphanListings(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return created })

	seller := "seller-1"
	withPhotos := &model.PropertyRow{Title: "Complete", SellerID: &seller}
	orphan := &model.PropertyRow{Title: "Orphan", SellerID: &seller}
	seed := &model.PropertyRow{Title: "Demo"}
	for _, row := range []*model.PropertyRow{withPhotos, orphan, seed} {
		require.NoError(t, store.InsertProperty(ctx, row))
	}
	require.NoError(t, store.InsertPhotos(ctx, model.PhotoRowsFor(withPhotos.ID, []model.Panorama{{URL: "u", Label: "Living Room"}})))

	orphans, err := FindOrphanListings(ctx, store, created.Add(2*time.Hour), time.Hour)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	require.Equal(t, orphan.ID, orphans[0].ID)
	require.Equal(t, seller, orphans[0].SellerID)
	require.Equal(t, 2*time.Hour, orphans[0].Age)

	orphans, err = FindOrphanListings(ctx, store, created.Add(time.Minute), time.Hour)
	require.NoError(t, err)
	require.Empty(t, orphans)
}

func TestFindOrphanListingsEmpty(t *testing.T) {
	orphans, err := FindOrphanListings(context.Background(), memory.NewStore(), time.Now(), time.Hour)
	require.NoError(t, err)
	require.Empty(t, orphans)
}

func TestSweepOrphanListingsStoreError(t *testing.T) {
	store := memory.NewStore()
	store.Fail(memory.OpListProperties, errors.New("offline"))

	require.Zero(t, sweepOrphanListings(context.Background(), store, zap.NewNop()))
}

func TestInitOrphanListingsCronRejectsBadSchedule(t *testing.T) {
	_, err := InitOrphanListingsCron("not a schedule", memory.NewStore(), zap.NewNop())
	require.Error(t, err)

	c, err := InitOrphanListingsCron("0 3 * * *", memory.NewStore(), zap.NewNop())
	require.NoError(t, err)
	c.Stop()
}
