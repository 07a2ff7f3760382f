package user

import (
	"time"

	"github.com/google/uuid"
)

// Column limits, in characters.
const (
	EmailMaxLength    = 254
	UsernameMaxLength = 150
	FullNameMaxLength = 255
)

// User represents an account identity in the domain
type User struct {
	ID             uuid.UUID
	Email          string
	Username       *string
	PasswordHashed string
	IsActive       bool
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Profile is populated by lookups that preload it.
	Profile *Profile
}

// FullName returns the profile's display name, or "" without a profile.
func (u *User) FullName() string {
	if u.Profile == nil || u.Profile.FullName == nil {
		return ""
	}
	return *u.Profile.FullName
}

// Role is a named category shared by many profiles.
type Role struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	RoleAdmin   = "admin"
	RoleUser    = "user"
	RoleTrainer = "trainer"
)

// Profile is one-to-one with User. Role is nil when unset or after the
// referenced role was deleted.
type Profile struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	FullName  *string
	RoleID    *uuid.UUID
	Role      *Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OTPPurpose scopes a one-time code and decides what consuming it does.
type OTPPurpose string

const (
	PurposeSignUp         OTPPurpose = "sign_up"
	PurposeForgetPassword OTPPurpose = "forget_password"
)

func (p OTPPurpose) Valid() bool {
	return p == PurposeSignUp || p == PurposeForgetPassword
}

// OTP is a one-time code. At most one unused OTP exists per (user, purpose).
type OTP struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Code      int
	Purpose   OTPPurpose
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsExpired reports whether the code is past its expiry at now.
func (o *OTP) IsExpired(now time.Time) bool {
	return o.ExpiresAt.Before(now)
}
