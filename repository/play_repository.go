package repository

import (
	"context"
	"fmt"

	"gatedfm/model"

	"gorm.io/gorm"
)

// PlayEventRepository persists counted plays for external reporting.
type PlayEventRepository interface {
	AppendPlay(ctx context.Context, event *model.PlayEvent) error
}

type gormPlayEventRepository struct {
	db *gorm.DB
}

// NewGormPlayEventRepository creates a PlayEventRepository backed by GORM.
func NewGormPlayEventRepository(db *gorm.DB) PlayEventRepository {
	return &gormPlayEventRepository{db: db}
}

func (r *gormPlayEventRepository) AppendPlay(ctx context.Context, event *model.PlayEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to append play event %s/%d: %w", event.ProductID, event.TrackIndex, err)
	}
	return nil
}
