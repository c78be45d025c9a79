package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"rewear-api/internal/model"
)

// ItemCache keeps item detail documents in Redis for ttl.
type ItemCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewItemCache(client *redisv9.Client, ttl time.Duration) *ItemCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &ItemCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *ItemCache) GetItem(ctx context.Context, id string) (*model.ClothingItem, bool, error) {
	raw, err := c.client.Get(ctx, c.itemKey(id)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get item failed: %w", err)
	}

	var item model.ClothingItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached item failed: %w", err)
	}
	return &item, true, nil
}

func (c *ItemCache) SetItem(ctx context.Context, item *model.ClothingItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.itemKey(item.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set item failed: %w", err)
	}
	return nil
}

func (c *ItemCache) DeleteItem(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.itemKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete item failed: %w", err)
	}
	return nil
}

func (c *ItemCache) itemKey(id string) string {
	return "items:detail:" + id
}

type ItemStore interface {
	Create(ctx context.Context, item *model.ClothingItem) error
	GetByID(ctx context.Context, id string) (*model.ClothingItem, error)
	ListByStatus(ctx context.Context, status model.ItemStatus, limit, offset int) ([]model.ClothingItem, error)
	ListByOwner(ctx context.Context, userID string) ([]model.ClothingItem, error)
	Save(ctx context.Context, item *model.ClothingItem) error
}

// CachedItemStore reads item details through the cache. Cache failures fall back to the store.
type CachedItemStore struct {
	ItemStore
	cache *ItemCache
}

func NewCachedItemStore(store ItemStore, cache *ItemCache) *CachedItemStore {
	return &CachedItemStore{ItemStore: store, cache: cache}
}

func (s *CachedItemStore) GetByID(ctx context.Context, id string) (*model.ClothingItem, error) {
	item, hit, err := s.cache.GetItem(ctx, id)
	if err != nil {
		log.Printf("item cache read failed: %v", err)
	}
	if hit {
		return item, nil
	}

	item, err = s.ItemStore.GetByID(ctx, id)
	if err != nil || item == nil {
		return item, err
	}
	if err := s.cache.SetItem(ctx, item); err != nil {
		log.Printf("item cache write failed: %v", err)
	}
	return item, nil
}

func (s *CachedItemStore) Save(ctx context.Context, item *model.ClothingItem) error {
	if err := s.ItemStore.Save(ctx, item); err != nil {
		return err
	}
	if err := s.cache.DeleteItem(ctx, item.ID); err != nil {
		log.Printf("item cache invalidate failed: %v", err)
	}
	return nil
}
