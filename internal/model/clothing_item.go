package model

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemStatus string

const (
	ItemStatusPendingApproval ItemStatus = "pending_approval"
	ItemStatusAvailable       ItemStatus = "available"
	ItemStatusSwapped         ItemStatus = "swapped"
	ItemStatusRedeemed        ItemStatus = "redeemed"
	ItemStatusRejected        ItemStatus = "rejected"
	ItemStatusRemoved         ItemStatus = "removed"
)

var ItemConditions = []string{"New with Tags", "Like New", "Used - Good", "Used - Fair"}

var (
	conditionValidator = validator.New()
	conditionRule      = "oneof='" + strings.Join(ItemConditions, "' '") + "'"
)

func ValidItemCondition(condition string) bool {
	return conditionValidator.Var(condition, conditionRule) == nil
}

type ClothingItem struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"size:36;not null;index" json:"user_id"`
	Title       string     `gorm:"size:100;not null" json:"title"`
	Description string     `gorm:"size:1000;not null" json:"description"`
	Category    string     `gorm:"size:64;not null" json:"category"`
	ItemType    string     `gorm:"size:64;not null" json:"item_type"`
	Size        string     `gorm:"size:32;not null" json:"size"`
	Condition   string     `gorm:"size:32;not null" json:"condition"`
	Tags        []string   `gorm:"serializer:json" json:"tags"`
	ImageURLs   []string   `gorm:"serializer:json" json:"image_urls"`
	Status      ItemStatus `gorm:"size:32;not null;index:idx_items_status_posted,priority:1" json:"status"`
	PostedDate  time.Time  `gorm:"not null;index:idx_items_status_posted,priority:2,sort:desc" json:"posted_date"`
}

func (ClothingItem) TableName() string {
	return "clothing_items"
}

func (i *ClothingItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// ItemPatch carries the descriptive fields an owner may change. Nil fields are left untouched.
type ItemPatch struct {
	Title       *string
	Description *string
	Category    *string
	ItemType    *string
	Size        *string
	Condition   *string
	Tags        *[]string
	ImageURLs   *[]string
}

func (p ItemPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil && p.ItemType == nil &&
		p.Size == nil && p.Condition == nil && p.Tags == nil && p.ImageURLs == nil
}

func (p ItemPatch) Apply(item *ClothingItem) {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.ItemType != nil {
		item.ItemType = *p.ItemType
	}
	if p.Size != nil {
		item.Size = *p.Size
	}
	if p.Condition != nil {
		item.Condition = *p.Condition
	}
	if p.Tags != nil {
		item.Tags = *p.Tags
	}
	if p.ImageURLs != nil {
		item.ImageURLs = *p.ImageURLs
	}
}
