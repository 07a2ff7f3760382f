package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPModel represents the database model for OTP
type OTPModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_otps_user_code"`
	Code      int       `gorm:"not null;index:idx_otps_user_code"`
	Purpose   string    `gorm:"type:varchar(32);not null"`
	Used      bool      `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (OTPModel) TableName() string {
	return "otps"
}
