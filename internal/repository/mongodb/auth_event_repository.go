package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"rewear-api/internal/model"
)

type AuthEventRepository struct {
	collection *mongo.Collection
}

func NewAuthEventRepository(db *mongo.Database) *AuthEventRepository {
	return &AuthEventRepository{collection: db.Collection(authEventsCollection)}
}

func (r *AuthEventRepository) Create(ctx context.Context, event *model.AuthEvent) error {
	doc := authEventDocument{
		ID:         bson.NewObjectID(),
		Type:       string(event.Type),
		UserID:     event.UserID,
		Email:      event.Email,
		RemoteIP:   event.RemoteIP,
		OccurredAt: event.OccurredAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event failed: %w", err)
	}
	event.ID = doc.ID.Hex()
	return nil
}

func (r *AuthEventRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]model.AuthEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find auth events failed: %w", err)
	}
	var docs []authEventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode auth events failed: %w", err)
	}
	events := make([]model.AuthEvent, 0, len(docs))
	for i := range docs {
		events = append(events, docs[i].toModel())
	}
	return events, nil
}
