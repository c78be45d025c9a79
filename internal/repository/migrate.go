package repository

import (
	"fmt"

	"gorm.io/gorm"

	"rewear-api/internal/model"
)

// AutoMigrate creates the tables and indexes the relational backends need.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.ClothingItem{}, &model.AuthEvent{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}
