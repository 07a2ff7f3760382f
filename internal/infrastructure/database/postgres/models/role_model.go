package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleModel represents the database model for Role
type RoleModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (RoleModel) TableName() string {
	return "roles"
}
