package app

import (
	"context"

	"rewear-api/internal/ai"
	"rewear-api/internal/model"
)

// UserStore returns (nil, nil) from lookups when no user matches.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type ItemStore interface {
	Create(ctx context.Context, item *model.ClothingItem) error
	GetByID(ctx context.Context, id string) (*model.ClothingItem, error)
	ListByStatus(ctx context.Context, status model.ItemStatus, limit, offset int) ([]model.ClothingItem, error)
	ListByOwner(ctx context.Context, userID string) ([]model.ClothingItem, error)
	Save(ctx context.Context, item *model.ClothingItem) error
}

type AuthEventReader interface {
	ListByUserID(ctx context.Context, userID string, limit int) ([]model.AuthEvent, error)
}

type AuthEventPublisher interface {
	Publish(ctx context.Context, event model.AuthEvent) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type TokenIssuer interface {
	Issue(subject string) (string, error)
	Verify(token string) (string, error)
}

type CompletionClient interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}
