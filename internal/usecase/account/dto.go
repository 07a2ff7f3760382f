package account

import (
	"account-service/internal/domain/user"
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   int    `json:"otp" validate:"otp_code"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	ResetToken  string `json:"reset_token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// ProfilePatch carries the nested "profile" object of a /me/ update.
// Role is a role id; leaving it out keeps the current role.
type ProfilePatch struct {
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Role     *string `json:"role" validate:"omitempty,uuid"`
}

type UpdateProfileRequest struct {
	Email   *string       `json:"email" validate:"omitempty,email,max=254"`
	Profile *ProfilePatch `json:"profile" validate:"omitempty"`
}

// ClientInfo describes the caller of a login for the login audit log.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type RoleResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProfileResponse struct {
	ID        uuid.UUID     `json:"id"`
	User      uuid.UUID     `json:"user"`
	FullName  *string       `json:"full_name"`
	Role      *RoleResponse `json:"role"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type UserResponse struct {
	ID        uuid.UUID        `json:"id"`
	Email     string           `json:"email"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Profile   *ProfileResponse `json:"profile"`
}

type RegisteredUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type LoginProfile struct {
	ID       uuid.UUID `json:"id"`
	FullName *string   `json:"full_name"`
}

type LoginResponse struct {
	Access  string         `json:"access"`
	Refresh string         `json:"refresh"`
	User    RegisteredUser `json:"user"`
	Profile *LoginProfile  `json:"profile,omitempty"`
}

type RefreshResponse struct {
	Access string `json:"access"`
}

// VerifyOTPResult reports what consuming the code did: a sign-up code
// activates the account, a password reset code yields a reset token.
type VerifyOTPResult struct {
	Purpose    user.OTPPurpose
	Activated  bool
	ResetToken string
}

func ToRoleResponse(r *user.Role) *RoleResponse {
	if r == nil {
		return nil
	}
	return &RoleResponse{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func ToProfileResponse(p *user.Profile) *ProfileResponse {
	if p == nil {
		return nil
	}
	return &ProfileResponse{
		ID:        p.ID,
		User:      p.UserID,
		FullName:  p.FullName,
		Role:      ToRoleResponse(p.Role),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func ToUserResponse(u *user.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		Profile:   ToProfileResponse(u.Profile),
	}
}
