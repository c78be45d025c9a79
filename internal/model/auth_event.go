package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthEventType string

const (
	AuthEventSignup         AuthEventType = "signup"
	AuthEventLoginSucceeded AuthEventType = "login_succeeded"
	AuthEventLoginFailed    AuthEventType = "login_failed"
)

// AuthEvent is an audit record of an authentication attempt.
type AuthEvent struct {
	ID         string        `gorm:"primaryKey;size:36" json:"id"`
	Type       AuthEventType `gorm:"size:32;not null;index" json:"type"`
	UserID     string        `gorm:"size:36;index" json:"user_id,omitempty"`
	Email      string        `gorm:"size:255;not null" json:"email"`
	RemoteIP   string        `gorm:"size:64" json:"remote_ip,omitempty"`
	OccurredAt time.Time     `gorm:"not null;index" json:"occurred_at"`
}

func (e *AuthEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
