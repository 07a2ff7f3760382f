package models

import (
	"time"

	"github.com/google/uuid"
)

// UserModel represents the database model for User
type UserModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email          string     `gorm:"type:varchar(254);not null;uniqueIndex"`
	Username       *string    `gorm:"type:varchar(150)"`
	PasswordHashed string     `gorm:"type:varchar(255);not null"`
	IsActive       bool       `gorm:"not null"`
	LastLogin      *time.Time `gorm:"type:timestamptz"`
	CreatedAt      time.Time  `gorm:"not null"`
	UpdatedAt      time.Time  `gorm:"not null"`

	Profile *ProfileModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (UserModel) TableName() string {
	return "users"
}
