package models

import (
	"time"

	"github.com/google/uuid"
)

// ProfileModel represents the database model for UserProfile
type ProfileModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	FullName  *string    `gorm:"type:varchar(255)"`
	RoleID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`

	Role *RoleModel `gorm:"foreignKey:RoleID;constraint:OnDelete:SET NULL"`
}

func (ProfileModel) TableName() string {
	return "user_profiles"
}
