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

// OTPRepository implements user.OTPRepository
type OTPRepository struct {
	db *gorm.DB
}

func (r *OTPRepository) Create(ctx context.Context, o *user.OTP) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(toOTPModel(o)).Error; err != nil {
		return fmt.Errorf("failed to create otp: %w", err)
	}
	return nil
}

func (r *OTPRepository) DeleteUnused(ctx context.Context, userID uuid.UUID, purpose user.OTPPurpose) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ? AND used = ?", userID, string(purpose), false).
		Delete(&models.OTPModel{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete pending otps: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *OTPRepository) FindLatestUnused(ctx context.Context, userID uuid.UUID, code int) (*user.OTP, error) {
	var dbModel models.OTPModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND code = ? AND used = ?", userID, code, false).
		Order("created_at DESC").
		Order("id DESC").
		Take(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrOTPNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find otp: %w", err)
	}

	return toOTPEntity(&dbModel), nil
}

func (r *OTPRepository) MarkUsed(ctx context.Context, otpID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.OTPModel{}).
		Where("id = ? AND used = ?", otpID, false).
		Updates(map[string]any{"used": true, "updated_at": time.Now()})

	if result.Error != nil {
		return fmt.Errorf("failed to mark otp used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrOTPAlreadyUsed
	}
	return nil
}

func (r *OTPRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*user.OTP, error) {
	var dbModels []models.OTPModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list otps: %w", err)
	}

	otps := make([]*user.OTP, len(dbModels))
	for i := range dbModels {
		otps[i] = toOTPEntity(&dbModels[i])
	}
	return otps, nil
}
