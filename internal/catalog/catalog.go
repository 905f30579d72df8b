// Package catalog keeps the loaded listings in memory.
//
// The list is fetched once. Afterwards local mutations are applied directly
// and win over the store; nothing refreshes it periodically, so writes made
// by other processes only show up after Reload.
package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"panoproperty_backend/internal/backend"
	"panoproperty_backend/internal/listing"
	"panoproperty_backend/internal/model"
)

type Store interface {
	backend.PropertyStore
	backend.PhotoStore
}

type Catalog struct {
	store  Store
	logger *zap.Logger

	mu         sync.RWMutex
	properties []model.Property
	loaded     bool
}

func New(store Store, logger *zap.Logger) *Catalog {
	return &Catalog{store: store, logger: logger}
}

// Load fetches the listings unless they are already loaded.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}
	return c.Reload(ctx)
}

// Reload replaces the loaded list with the store's current content.
func (c *Catalog) Reload(ctx context.Context) error {
	properties, err := fetch(ctx, c.store, func(ctx context.Context) ([]model.PropertyRow, error) {
		return c.store.ListProperties(ctx)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.properties = properties
	c.loaded = true
	c.mu.Unlock()

	c.logger.Info("catalog loaded", zap.Int("properties", len(properties)))
	return nil
}

func fetch(ctx context.Context, store Store, list func(context.Context) ([]model.PropertyRow, error)) ([]model.Property, error) {
	rows, err := list(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	photos, err := store.ListPhotos(ctx, ids)
	if err != nil {
		return nil, err
	}
	grouped := model.GroupPhotos(photos)

	properties := make([]model.Property, 0, len(rows))
	for _, row := range rows {
		properties = append(properties, model.PropertyFromRow(row, grouped[row.ID]))
	}
	return properties, nil
}

// All returns a copy of the loaded listings, newest first.
func (c *Catalog) All() []model.Property {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Property(nil), c.properties...)
}

func (c *Catalog) Get(id string) (model.Property, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.properties {
		if p.ID == id {
			return p, true
		}
	}
	return model.Property{}, false
}

// Created puts a new listing at the head of the list.
func (c *Catalog) Created(p model.Property) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.properties = listing.Prepend(c.properties, p)
}

// Updated replaces the listing with the same id in place.
func (c *Catalog) Updated(p model.Property) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.properties = listing.ReplaceByID(c.properties, p)
}

func (c *Catalog) Deleted(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.properties = listing.RemoveByID(c.properties, id)
}

// BySeller reads a seller's listings from the store, newest first.
func (c *Catalog) BySeller(ctx context.Context, sellerID string) ([]model.Property, error) {
	return fetch(ctx, c.store, func(ctx context.Context) ([]model.PropertyRow, error) {
		return c.store.ListPropertiesBySeller(ctx, sellerID)
	})
}

// Fetch reads one listing straight from the store.
func (c *Catalog) Fetch(ctx context.Context, id string) (model.Property, error) {
	properties, err := fetch(ctx, c.store, func(ctx context.Context) ([]model.PropertyRow, error) {
		row, err := c.store.GetProperty(ctx, id)
		if err != nil {
			return nil, err
		}
		return []model.PropertyRow{*row}, nil
	})
	if err != nil {
		return model.Property{}, err
	}
	return properties[0], nil
}
