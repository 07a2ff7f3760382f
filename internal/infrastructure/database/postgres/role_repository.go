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
	"gorm.io/gorm/clause"
)

// RoleRepository implements user.RoleRepository
type RoleRepository struct {
	db *gorm.DB
}

// GetOrCreate inserts the role if the name is free and then reads it back,
// so concurrent callers converge on the same row.
func (r *RoleRepository) GetOrCreate(ctx context.Context, name string) (*user.Role, error) {
	now := time.Now()
	candidate := models.RoleModel{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&candidate).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert role: %w", err)
	}

	var dbModel models.RoleModel
	if err := r.db.WithContext(ctx).Where("name = ?", name).Take(&dbModel).Error; err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return toRoleEntity(&dbModel), nil
}

func (r *RoleRepository) GetByID(ctx context.Context, roleID uuid.UUID) (*user.Role, error) {
	var dbModel models.RoleModel
	err := r.db.WithContext(ctx).Where("id = ?", roleID).Take(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}

	return toRoleEntity(&dbModel), nil
}
