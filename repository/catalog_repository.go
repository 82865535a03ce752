package repository

import (
	"context"
	"errors"
	"fmt"

	"gatedfm/core/errs"
	"gatedfm/model"

	"gorm.io/gorm"
)

// CatalogRepository reads product and track metadata owned by the content host.
type CatalogRepository interface {
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	GetTrack(ctx context.Context, productID string, index int) (*model.Track, error)
}

type gormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a CatalogRepository backed by GORM.
func NewGormCatalogRepository(db *gorm.DB) CatalogRepository {
	return &gormCatalogRepository{db: db}
}

// GetProduct loads a product with its tracks ordered by index.
func (r *gormCatalogRepository) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Tracks", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC") }).
		Where("id = ?", productID).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", productID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", productID, err)
	}
	return &product, nil
}

// GetTrack loads a single track by product and index.
func (r *gormCatalogRepository) GetTrack(ctx context.Context, productID string, index int) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND position = ?", productID, index).
		First(&track).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("track %s/%d: %w", productID, index, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track %s/%d: %w", productID, index, err)
	}
	return &track, nil
}
