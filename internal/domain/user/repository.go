package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for user persistence
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	// LockByID loads the user and holds a row lock until the transaction ends.
	LockByID(ctx context.Context, userID uuid.UUID) (*User, error)
	UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	Activate(ctx context.Context, userID uuid.UUID) error
	TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// RoleRepository is the shared role registry.
type RoleRepository interface {
	// GetOrCreate is an idempotent upsert on the unique name.
	GetOrCreate(ctx context.Context, name string) (*Role, error)
	GetByID(ctx context.Context, roleID uuid.UUID) (*Role, error)
}

// ProfileRepository manages the one-to-one user profile.
type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Update(ctx context.Context, profile *Profile) error
}

// OTPRepository persists one-time codes.
type OTPRepository interface {
	Create(ctx context.Context, otp *OTP) error
	// DeleteUnused removes pending codes for (user, purpose) and returns how many.
	DeleteUnused(ctx context.Context, userID uuid.UUID, purpose OTPPurpose) (int64, error)
	// FindLatestUnused returns the most recently created unused OTP matching
	// (user, code), locked for update.
	FindLatestUnused(ctx context.Context, userID uuid.UUID, code int) (*OTP, error)
	// MarkUsed flips used to true; ErrOTPAlreadyUsed when it was not pending.
	MarkUsed(ctx context.Context, otpID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*OTP, error)
}

// Store groups the repositories behind one transactional boundary.
type Store interface {
	Users() Repository
	Roles() RoleRepository
	Profiles() ProfileRepository
	OTPs() OTPRepository

	// WithinTx runs fn with a Store bound to a transaction. The transaction
	// commits when fn returns nil and rolls back otherwise. Calling WithinTx
	// on a transactional Store nests.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
