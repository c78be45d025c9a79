package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"rewear-api/internal/model"
)

type ItemRepository struct {
	collection *mongo.Collection
}

func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{collection: db.Collection(itemsCollection)}
}

func (r *ItemRepository) Create(ctx context.Context, item *model.ClothingItem) error {
	doc := newItemDocument(item)
	doc.ID = bson.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert item failed: %w", err)
	}
	item.ID = doc.ID.Hex()
	return nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id string) (*model.ClothingItem, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var doc itemDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find item failed: %w", err)
	}
	item := doc.toModel()
	return &item, nil
}

func (r *ItemRepository) ListByStatus(ctx context.Context, status model.ItemStatus, limit, offset int) ([]model.ClothingItem, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "posted_date", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	return r.find(ctx, bson.M{"status": string(status)}, opts)
}

func (r *ItemRepository) ListByOwner(ctx context.Context, userID string) ([]model.ClothingItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "posted_date", Value: -1}})
	return r.find(ctx, bson.M{"user_id": userID}, opts)
}

func (r *ItemRepository) Save(ctx context.Context, item *model.ClothingItem) error {
	oid, err := bson.ObjectIDFromHex(item.ID)
	if err != nil {
		return fmt.Errorf("invalid item id %q: %w", item.ID, err)
	}
	doc := newItemDocument(item)
	update := bson.M{"$set": bson.M{
		"title":       doc.Title,
		"description": doc.Description,
		"category":    doc.Category,
		"item_type":   doc.ItemType,
		"size":        doc.Size,
		"condition":   doc.Condition,
		"tags":        doc.Tags,
		"image_urls":  doc.ImageURLs,
	}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return fmt.Errorf("update item failed: %w", err)
	}
	return nil
}

func (r *ItemRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]model.ClothingItem, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find items failed: %w", err)
	}
	var docs []itemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode items failed: %w", err)
	}
	items := make([]model.ClothingItem, 0, len(docs))
	for i := range docs {
		items = append(items, docs[i].toModel())
	}
	return items, nil
}
