package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"rewear-api/internal/model"
)

const (
	usersCollection      = "users"
	itemsCollection      = "clothing_items"
	authEventsCollection = "auth_events"
)

type userDocument struct {
	ID            bson.ObjectID `bson:"_id,omitempty"`
	Email         string        `bson:"email"`
	Username      string        `bson:"username"`
	Password      string        `bson:"password"`
	PointsBalance int           `bson:"points_balance"`
	JoinDate      time.Time     `bson:"join_date"`
	IsAdmin       bool          `bson:"is_admin"`
}

func (d *userDocument) toModel() *model.User {
	return &model.User{
		ID:            d.ID.Hex(),
		Email:         d.Email,
		Username:      d.Username,
		PasswordHash:  d.Password,
		PointsBalance: d.PointsBalance,
		JoinDate:      d.JoinDate,
		IsAdmin:       d.IsAdmin,
	}
}

type itemDocument struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	UserID      string        `bson:"user_id"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	Category    string        `bson:"category"`
	ItemType    string        `bson:"item_type"`
	Size        string        `bson:"size"`
	Condition   string        `bson:"condition"`
	Tags        []string      `bson:"tags"`
	ImageURLs   []string      `bson:"image_urls"`
	Status      string        `bson:"status"`
	PostedDate  time.Time     `bson:"posted_date"`
}

func newItemDocument(item *model.ClothingItem) itemDocument {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	imageURLs := item.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}
	return itemDocument{
		UserID:      item.UserID,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		ItemType:    item.ItemType,
		Size:        item.Size,
		Condition:   item.Condition,
		Tags:        tags,
		ImageURLs:   imageURLs,
		Status:      string(item.Status),
		PostedDate:  item.PostedDate,
	}
}

func (d *itemDocument) toModel() model.ClothingItem {
	return model.ClothingItem{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		ItemType:    d.ItemType,
		Size:        d.Size,
		Condition:   d.Condition,
		Tags:        d.Tags,
		ImageURLs:   d.ImageURLs,
		Status:      model.ItemStatus(d.Status),
		PostedDate:  d.PostedDate,
	}
}

type authEventDocument struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	Type       string        `bson:"type"`
	UserID     string        `bson:"user_id,omitempty"`
	Email      string        `bson:"email"`
	RemoteIP   string        `bson:"remote_ip,omitempty"`
	OccurredAt time.Time     `bson:"occurred_at"`
}

func (d *authEventDocument) toModel() model.AuthEvent {
	return model.AuthEvent{
		ID:         d.ID.Hex(),
		Type:       model.AuthEventType(d.Type),
		UserID:     d.UserID,
		Email:      d.Email,
		RemoteIP:   d.RemoteIP,
		OccurredAt: d.OccurredAt,
	}
}
