package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Username      string    `gorm:"size:64;not null" json:"username"`
	Email         string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	PointsBalance int       `gorm:"not null;default:0" json:"points_balance"`
	JoinDate      time.Time `gorm:"not null" json:"join_date"`
	IsAdmin       bool      `gorm:"not null;default:false" json:"is_admin"`
}

// BeforeCreate assigns a UUID primary key for relational backends.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PublicUser is the client-facing view of a user. It never carries credential material.
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PointsBalance int       `json:"points_balance"`
	JoinDate      time.Time `json:"join_date"`
	IsAdmin       bool      `json:"is_admin"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		PointsBalance: u.PointsBalance,
		JoinDate:      u.JoinDate,
		IsAdmin:       u.IsAdmin,
	}
}
