package repository

import (
	"context"
	"fmt"
	"time"

	"gatedfm/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntitlementRepository answers whether a requester bought a product.
type EntitlementRepository interface {
	HasEntitlement(ctx context.Context, requesterID, productID string) (bool, error)
	Grant(ctx context.Context, requesterID, productID string, at time.Time) error
}

type gormEntitlementRepository struct {
	db *gorm.DB
}

// NewGormEntitlementRepository creates an EntitlementRepository backed by GORM.
func NewGormEntitlementRepository(db *gorm.DB) EntitlementRepository {
	return &gormEntitlementRepository{db: db}
}

func (r *gormEntitlementRepository) HasEntitlement(ctx context.Context, requesterID, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.EntitlementRecord{}).
		Where("requester_id = ? AND product_id = ?", requesterID, productID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check entitlement for %s/%s: %w", requesterID, productID, err)
	}
	return count > 0, nil
}

// Grant records an entitlement; granting twice is a no-op.
func (r *gormEntitlementRepository) Grant(ctx context.Context, requesterID, productID string, at time.Time) error {
	rec := &model.EntitlementRecord{RequesterID: requesterID, ProductID: productID, GrantedAt: at}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to grant entitlement %s/%s: %w", requesterID, productID, err)
	}
	return nil
}
