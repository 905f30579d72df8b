package cron

import (
	"context"
	"fmt"
	"time"

	"panoproperty_backend/internal/model"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ListingStore is what the sweep reads.
type ListingStore interface {
	ListProperties(ctx context.Context) ([]model.PropertyRow, error)
	ListPhotos(ctx context.Context, propertyIDs []string) ([]model.PhotoRow, error)
}

// Orphan is a listing row that has no photos, which is what a submission
// leaves behind when it fails after the row was written.
type Orphan struct {
	ID       string
	Title    string
	SellerID string
	Age      time.Duration
}

// FindOrphanListings returns the seller listings without photos that are
// older than grace. Seed listings are skipped.
func FindOrphanListings(ctx context.Context, store ListingStore, now time.Time, grace time.Duration) ([]Orphan, error) {
	rows, err := store.ListProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	photos, err := store.ListPhotos(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	grouped := model.GroupPhotos(photos)

	var orphans []Orphan
	for _, row := range rows {
		if row.SellerID == nil || len(grouped[row.ID]) > 0 {
			continue
		}
		age := now.Sub(row.CreatedAt)
		if age < grace {
			continue
		}
		orphans = append(orphans, Orphan{ID: row.ID, Title: row.Title, SellerID: *row.SellerID, Age: age})
	}
	return orphans, nil
}

// InitOrphanListingsCron reports photo-less listings on schedule. The rows
// are only logged; deleting them is left to the seller.
func InitOrphanListingsCron(schedule string, store ListingStore, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		sweepOrphanListings(context.Background(), store, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("could not initialize orphan listings cron: %w", err)
	}

	c.Start()
	return c, nil
}

func sweepOrphanListings(ctx context.Context, store ListingStore, logger *zap.Logger) int {
	orphans, err := FindOrphanListings(ctx, store, time.Now(), time.Hour)
	if err != nil {
		logger.Error("orphan listings sweep failed", zap.Error(err))
		return 0
	}

	for _, o := range orphans {
		logger.Warn("listing has no photos",
			zap.String("property_id", o.ID),
			zap.String("seller_id", o.SellerID),
			zap.String("title", o.Title),
			zap.Duration("age", o.Age),
		)
	}
	logger.Info("orphan listings sweep finished", zap.Int("orphans", len(orphans)))
	return len(orphans)
}
