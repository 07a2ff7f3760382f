package postgres

import (
	"account-service/internal/domain/user"
	"account-service/internal/infrastructure/database/postgres/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileRepository implements user.ProfileRepository
type ProfileRepository struct {
	db *gorm.DB
}

func (r *ProfileRepository) Create(ctx context.Context, p *user.Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(toProfileModel(p)).Error; err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*user.Profile, error) {
	var dbModel models.ProfileModel
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("user_id = ?", userID).
		Take(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return toProfileEntity(&dbModel), nil
}

// Update writes full_name and role_id as given; nil values clear the column.
func (r *ProfileRepository) Update(ctx context.Context, p *user.Profile) error {
	p.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).
		Model(&models.ProfileModel{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"full_name":  p.FullName,
			"role_id":    p.RoleID,
			"updated_at": p.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrProfileNotFound
	}
	return nil
}
