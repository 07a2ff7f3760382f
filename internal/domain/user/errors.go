package user

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrRoleNotFound      = errors.New("role not found")
	ErrOTPNotFound       = errors.New("otp not found")
	ErrOTPAlreadyUsed    = errors.New("otp already used")
	ErrInvalidPurpose    = errors.New("invalid otp purpose")
)
