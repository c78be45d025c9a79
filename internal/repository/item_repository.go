package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"rewear-api/internal/model"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Create(ctx context.Context, item *model.ClothingItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create item failed: %w", err)
	}
	return nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*model.ClothingItem, error) {
	var item model.ClothingItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item failed: %w", err)
	}
	return &item, nil
}

func (r *ItemRepository) ListByStatus(ctx context.Context, status model.ItemStatus, limit, offset int) ([]model.ClothingItem, error) {
	var items []model.ClothingItem
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("posted_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items by status failed: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) ListByOwner(ctx context.Context, userID string) ([]model.ClothingItem, error) {
	var items []model.ClothingItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("posted_date DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items by owner failed: %w", err)
	}
	return items, nil
}

// Save overwrites the descriptive fields of an existing item.
func (r *ItemRepository) Save(ctx context.Context, item *model.ClothingItem) error {
	if err := r.db.WithContext(ctx).Model(item).Select(
		"title", "description", "category", "item_type", "size", "condition", "tags", "image_urls",
	).Updates(item).Error; err != nil {
		return fmt.Errorf("update item failed: %w", err)
	}
	return nil
}
