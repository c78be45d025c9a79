package app

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"rewear-api/internal/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ItemService struct {
	items ItemStore
	now   func() time.Time
}

type CreateItemInput struct {
	Title       string
	Description string
	Category    string
	ItemType    string
	Size        string
	Condition   string
	Tags        []string
	ImageURLs   []string
}

type Page struct {
	Limit  int
	Offset int
}

func NewItemService(items ItemStore) *ItemService {
	return &ItemService{
		items: items,
		now:   time.Now,
	}
}

// Create lists a new item owned by ownerID. New listings wait for approval.
func (s *ItemService) Create(ctx context.Context, ownerID string, input CreateItemInput) (*model.ClothingItem, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	item := &model.ClothingItem{
		UserID:      ownerID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		ItemType:    strings.TrimSpace(input.ItemType),
		Size:        strings.TrimSpace(input.Size),
		Condition:   input.Condition,
		Tags:        cleanList(input.Tags),
		ImageURLs:   cleanList(input.ImageURLs),
		Status:      model.ItemStatusPendingApproval,
		PostedDate:  s.now().UTC(),
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Get returns an item to viewer. Items that are not available are only visible to their owner and
// admins; everyone else sees ErrItemNotFound. viewer may be nil for anonymous callers.
func (s *ItemService) Get(ctx context.Context, viewer *model.User, id string) (*model.ClothingItem, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status != model.ItemStatusAvailable && !canSeeUnlisted(viewer, item) {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *ItemService) find(ctx context.Context, id string) (*model.ClothingItem, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrItemNotFound
	}
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func canSeeUnlisted(viewer *model.User, item *model.ClothingItem) bool {
	return viewer != nil && (viewer.IsAdmin || viewer.ID == item.UserID)
}

func (s *ItemService) ListAvailable(ctx context.Context, page Page) ([]model.ClothingItem, Page, error) {
	return s.listByStatus(ctx, model.ItemStatusAvailable, page)
}

// ListPending is the admin view of listings awaiting approval.
func (s *ItemService) ListPending(ctx context.Context, page Page) ([]model.ClothingItem, Page, error) {
	return s.listByStatus(ctx, model.ItemStatusPendingApproval, page)
}

func (s *ItemService) ListByOwner(ctx context.Context, ownerID string) ([]model.ClothingItem, error) {
	items, err := s.items.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.ClothingItem{}
	}
	return items, nil
}

// Update applies an owner's partial edit. Status and ownership never change here.
func (s *ItemService) Update(ctx context.Context, callerID, id string, patch model.ItemPatch) (*model.ClothingItem, error) {
	if patch.Empty() {
		return nil, invalid("body", "no fields to update")
	}
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.UserID != callerID {
		return nil, ErrForbidden
	}

	patch.Apply(item)
	item.Title = strings.TrimSpace(item.Title)
	item.Description = strings.TrimSpace(item.Description)
	item.Tags = cleanList(item.Tags)
	item.ImageURLs = cleanList(item.ImageURLs)
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) listByStatus(ctx context.Context, status model.ItemStatus, page Page) ([]model.ClothingItem, Page, error) {
	page = normalizePage(page)
	items, err := s.items.ListByStatus(ctx, status, page.Limit, page.Offset)
	if err != nil {
		return nil, page, err
	}
	if items == nil {
		items = []model.ClothingItem{}
	}
	return items, page, nil
}

func normalizePage(page Page) Page {
	if page.Limit <= 0 {
		page.Limit = defaultPageSize
	}
	if page.Limit > maxPageSize {
		page.Limit = maxPageSize
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	return page
}

func validateItem(item *model.ClothingItem) error {
	if n := utf8.RuneCountInString(item.Title); n < 3 || n > 100 {
		return invalid("title", "must be between 3 and 100 characters")
	}
	if n := utf8.RuneCountInString(item.Description); n < 10 || n > 1000 {
		return invalid("description", "must be between 10 and 1000 characters")
	}
	if strings.TrimSpace(item.Category) == "" {
		return invalid("category", "is required")
	}
	if strings.TrimSpace(item.ItemType) == "" {
		return invalid("item_type", "is required")
	}
	if strings.TrimSpace(item.Size) == "" {
		return invalid("size", "is required")
	}
	if !model.ValidItemCondition(item.Condition) {
		return invalid("condition", "must be one of "+strings.Join(model.ItemConditions, ", "))
	}
	return nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
