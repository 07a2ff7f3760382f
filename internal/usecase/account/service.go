package account

import (
	"account-service/internal/config"
	domainUser "account-service/internal/domain/user"
	"account-service/internal/infrastructure/geo"
	"account-service/internal/logger"
	"account-service/internal/notification"
	"account-service/internal/usecase/otp"
	"account-service/internal/usecase/token"
	appErrors "account-service/pkg/errors"
	"account-service/pkg/utils"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgInvalidData        = "Invalid data was given"
	msgUserNotFound       = "User not found"
	msgEmailTaken         = "user with this email address already exists."
	msgNoActiveAccount    = "No active account found with the given credentials"
	msgInvalidCredentials = "Invalid credentials"
)

// Service implements the account use cases on top of a transactional store.
type Service struct {
	store       domainUser.Store
	otps        *otp.Manager
	resetTokens *token.ResetTokens
	notifier    notification.Notifier
	locator     geo.Locator
	jwt         config.JWTConfig
	now         func() time.Time
}

func NewService(
	store domainUser.Store,
	otps *otp.Manager,
	resetTokens *token.ResetTokens,
	notifier notification.Notifier,
	locator geo.Locator,
	cfg *config.Config,
) *Service {
	if locator == nil {
		locator = geo.Disabled{}
	}
	return &Service{
		store:       store,
		otps:        otps,
		resetTokens: resetTokens,
		notifier:    notifier,
		locator:     locator,
		jwt:         cfg.JWT,
		now:         time.Now,
	}
}

func validationFailed(err error) error {
	return appErrors.ValidationFailed(msgInvalidData, utils.FieldErrors(err))
}

func fieldError(field, message string) error {
	return appErrors.ValidationFailed(msgInvalidData, appErrors.Details{field: message})
}

// unexpected rewraps anything that is not already an AppError.
func unexpected(message string, err error) error {
	if _, ok := appErrors.As(err); ok {
		return err
	}
	return appErrors.Unexpected(message, err)
}

// Register creates an inactive user with a profile and a sign-up OTP and
// mails the code. Everything happens in one transaction, the email included,
// so a failed dispatch leaves nothing behind.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*domainUser.User, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	req.FullName = utils.SanitizeString(req.FullName)

	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, fieldError("password", err.Error())
	}

	if _, err := s.store.Users().GetByEmail(ctx, req.Email); err == nil {
		logger.Warn("Registration attempt with existing email",
			zap.String("email", req.Email),
			zap.String("event", "registration_failed_duplicate_email"),
		)
		return nil, fieldError("email", msgEmailTaken)
	} else if !errors.Is(err, domainUser.ErrUserNotFound) {
		return nil, appErrors.RegistrationFailed(err)
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.RegistrationFailed(err)
	}

	fullName := req.FullName
	// the profile keeps the full name; username is a shorter legacy column
	username := utils.Truncate(fullName, domainUser.UsernameMaxLength)
	newUser := &domainUser.User{
		Email:          req.Email,
		Username:       &username,
		PasswordHashed: hashedPassword,
		IsActive:       false,
	}

	err = s.store.WithinTx(ctx, func(tx domainUser.Store) error {
		role, err := tx.Roles().GetOrCreate(ctx, domainUser.RoleUser)
		if err != nil {
			return err
		}

		if err := tx.Users().Create(ctx, newUser); err != nil {
			return err
		}

		profile := &domainUser.Profile{
			UserID:   newUser.ID,
			FullName: &fullName,
			RoleID:   &role.ID,
			Role:     role,
		}
		if err := tx.Profiles().Create(ctx, profile); err != nil {
			return err
		}
		newUser.Profile = profile

		code, minutes, err := s.otps.Bind(tx).Create(ctx, newUser, domainUser.PurposeSignUp)
		if err != nil {
			return err
		}

		return s.notifier.Send(ctx, newUser.Email, notification.TemplateRegister, notification.Data{
			"otp_code":       code,
			"expire_minutes": minutes,
		})
	})
	if err != nil {
		if errors.Is(err, domainUser.ErrUserAlreadyExists) {
			return nil, fieldError("email", msgEmailTaken)
		}
		logger.Error("Registration failed",
			zap.String("email", req.Email),
			zap.String("event", "registration_failed"),
			zap.Error(err),
		)
		return nil, appErrors.RegistrationFailed(err)
	}

	logger.Info("User registered successfully",
		zap.String("user_id", newUser.ID.String()),
		zap.String("email", newUser.Email),
		zap.String("event", "user_registered"),
	)

	return newUser, nil
}

// VerifyOTP consumes a code. A sign-up code activates the account; a
// password reset code returns a reset token.
func (s *Service) VerifyOTP(ctx context.Context, req *VerifyOTPRequest) (*VerifyOTPResult, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	result := &VerifyOTPResult{}
	err := s.store.WithinTx(ctx, func(tx domainUser.Store) error {
		owner, purpose, err := s.otps.Bind(tx).Validate(ctx, req.Email, req.OTP)
		if err != nil {
			return err
		}
		result.Purpose = purpose

		switch purpose {
		case domainUser.PurposeSignUp:
			if err := tx.Users().Activate(ctx, owner.ID); err != nil {
				return err
			}
			result.Activated = true
			logger.Info("User activated",
				zap.String("user_id", owner.ID.String()),
				zap.String("event", "user_activated"),
			)
		case domainUser.PurposeForgetPassword:
			result.ResetToken = s.resetTokens.Generate(owner)
		default:
			return domainUser.ErrInvalidPurpose
		}
		return nil
	})

	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, domainUser.ErrUserNotFound):
		return nil, appErrors.NotFound(msgUserNotFound)
	case errors.Is(err, otp.ErrInvalidCode):
		logger.Warn("Invalid OTP submitted",
			zap.String("email", req.Email),
			zap.String("event", "otp_invalid"),
		)
		return nil, appErrors.Invalid("Invalid OTP")
	case errors.Is(err, otp.ErrExpiredCode):
		return nil, appErrors.Expired("OTP expired")
	default:
		return nil, unexpected("Failed to verify OTP", err)
	}
}

// RequestPasswordReset issues a password reset OTP and mails it. The OTP is
// rolled back when the email cannot be sent.
func (s *Service) RequestPasswordReset(ctx context.Context, req *ForgotPasswordRequest) error {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return validationFailed(err)
	}

	account, err := s.store.Users().GetByEmail(ctx, req.Email)
	if errors.Is(err, domainUser.ErrUserNotFound) {
		logger.Warn("Password reset requested for unknown email",
			zap.String("email", req.Email),
			zap.String("event", "password_reset_unknown_email"),
		)
		return appErrors.NotFound(msgUserNotFound)
	}
	if err != nil {
		return unexpected("Failed to look up user", err)
	}

	err = s.store.WithinTx(ctx, func(tx domainUser.Store) error {
		code, minutes, err := s.otps.Bind(tx).Create(ctx, account, domainUser.PurposeForgetPassword)
		if err != nil {
			return err
		}

		err = s.notifier.Send(ctx, account.Email, notification.TemplateForgetPassword, notification.Data{
			"otp_code":       code,
			"expire_minutes": minutes,
		})
		if err != nil {
			return appErrors.Unexpected("Failed to send OTP email. Please try again.", err)
		}
		return nil
	})
	if err != nil {
		return unexpected("Failed to create OTP", err)
	}

	logger.Info("Password reset OTP sent",
		zap.String("user_id", account.ID.String()),
		zap.String("event", "password_reset_requested"),
	)
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return validationFailed(err)
	}

	account, err := s.store.Users().GetByEmail(ctx, req.Email)
	if errors.Is(err, domainUser.ErrUserNotFound) {
		return appErrors.NotFound(msgUserNotFound)
	}
	if err != nil {
		return unexpected("Failed to look up user", err)
	}

	if err := s.resetTokens.Validate(account, req.ResetToken); err != nil {
		logger.Warn("Invalid password reset token",
			zap.String("user_id", account.ID.String()),
			zap.String("event", "password_reset_invalid_token"),
		)
		return appErrors.Invalid("Invalid or expired token.")
	}

	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return fieldError("new_password", err.Error())
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return unexpected("Failed to hash password", err)
	}
	if err := s.store.Users().UpdatePassword(ctx, account.ID, hashedPassword); err != nil {
		return unexpected("Failed to reset password", err)
	}

	logger.Info("Password reset successfully",
		zap.String("user_id", account.ID.String()),
		zap.String("event", "password_reset"),
	)
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return validationFailed(err)
	}

	account, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, domainUser.ErrUserNotFound) {
		return appErrors.NotFound(msgUserNotFound)
	}
	if err != nil {
		return unexpected("Failed to look up user", err)
	}

	if !utils.CheckPassword(account.PasswordHashed, req.OldPassword) {
		logger.Warn("Password change with wrong old password",
			zap.String("user_id", userID.String()),
			zap.String("event", "password_change_failed_wrong_password"),
		)
		return appErrors.Unauthorized("Old password is incorrect")
	}

	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return fieldError("new_password", err.Error())
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return unexpected("Failed to hash password", err)
	}
	if err := s.store.Users().UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return unexpected("Failed to change password", err)
	}

	logger.Info("Password changed successfully",
		zap.String("user_id", userID.String()),
		zap.String("event", "password_changed"),
	)
	return nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*domainUser.User, error) {
	account, err := s.store.Users().GetByID(ctx, userID)
	if errors.Is(err, domainUser.ErrUserNotFound) {
		return nil, appErrors.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, unexpected("Failed to get user", err)
	}
	return account, nil
}

// UpdateProfile applies email and nested profile changes in one transaction.
// A full update (partial == false) must carry the email.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest, partial bool) (*domainUser.User, error) {
	if req.Email != nil {
		email := utils.SanitizeEmail(*req.Email)
		req.Email = &email
	}
	if req.Profile != nil {
		req.Profile.FullName = utils.SanitizeStringPtr(req.Profile.FullName)
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}
	if !partial && req.Email == nil {
		return nil, fieldError("email", "This field is required.")
	}

	err := s.store.WithinTx(ctx, func(tx domainUser.Store) error {
		account, err := tx.Users().LockByID(ctx, userID)
		if err != nil {
			return err
		}

		if req.Email != nil && *req.Email != account.Email {
			if err := tx.Users().UpdateEmail(ctx, userID, *req.Email); err != nil {
				return err
			}
		}

		if req.Profile == nil {
			return nil
		}
		return s.applyProfilePatch(ctx, tx, userID, req.Profile)
	})
	if err != nil {
		switch {
		case errors.Is(err, domainUser.ErrUserNotFound):
			return nil, appErrors.NotFound(msgUserNotFound)
		case errors.Is(err, domainUser.ErrUserAlreadyExists):
			return nil, fieldError("email", msgEmailTaken)
		}
		return nil, unexpected("Error updating user", err)
	}

	logger.Info("Profile updated",
		zap.String("user_id", userID.String()),
		zap.String("event", "profile_updated"),
	)

	return s.GetProfile(ctx, userID)
}

func (s *Service) applyProfilePatch(ctx context.Context, tx domainUser.Store, userID uuid.UUID, patch *ProfilePatch) error {
	profile, err := tx.Profiles().GetByUserID(ctx, userID)
	isNew := errors.Is(err, domainUser.ErrProfileNotFound)
	if err != nil && !isNew {
		return err
	}
	if isNew {
		profile = &domainUser.Profile{UserID: userID}
	}

	if patch.FullName != nil {
		profile.FullName = patch.FullName
	}

	if patch.Role != nil {
		// validated as a uuid already
		roleID := uuid.MustParse(*patch.Role)
		if _, err := tx.Roles().GetByID(ctx, roleID); err != nil {
			if errors.Is(err, domainUser.ErrRoleNotFound) {
				return appErrors.ValidationFailed(msgInvalidData, appErrors.Details{
					"profile": map[string]any{
						"role": fmt.Sprintf("Invalid pk \"%s\" - object does not exist.", roleID),
					},
				})
			}
			return err
		}
		profile.RoleID = &roleID
	}

	if isNew {
		return tx.Profiles().Create(ctx, profile)
	}
	return tx.Profiles().Update(ctx, profile)
}

// DeleteAccount removes the user together with its profile and OTPs.
func (s *Service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	err := s.store.Users().Delete(ctx, userID)
	if errors.Is(err, domainUser.ErrUserNotFound) {
		return appErrors.NotFound(msgUserNotFound)
	}
	if err != nil {
		return unexpected("Failed to delete user", err)
	}

	logger.Info("User deleted",
		zap.String("user_id", userID.String()),
		zap.String("event", "user_deleted"),
	)
	return nil
}

// Login issues an access/refresh pair. Unknown emails, wrong passwords and
// inactive accounts get the same 401 response.
func (s *Service) Login(ctx context.Context, req *LoginRequest, client ClientInfo) (*LoginResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	denied := appErrors.Unauthorized(msgNoActiveAccount).WithStatus(http.StatusUnauthorized)

	account, err := s.store.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Warn("Login attempt with non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "user_not_found"),
			)
			return nil, denied
		}
		return nil, unexpected("Failed to look up user", err)
	}

	if !utils.CheckPassword(account.PasswordHashed, req.Password) {
		logger.Warn("Login attempt with invalid password",
			zap.String("user_id", account.ID.String()),
			zap.String("email", account.Email),
			zap.String("event", "login_failed_invalid_password"),
		)
		return nil, denied
	}

	if !account.IsActive {
		logger.Warn("Login attempt for inactive user",
			zap.String("user_id", account.ID.String()),
			zap.String("email", account.Email),
			zap.String("event", "login_failed_inactive_user"),
		)
		return nil, denied
	}

	now := s.now()
	if err := s.store.Users().TouchLastLogin(ctx, account.ID, now); err != nil {
		return nil, unexpected("Failed to record login", err)
	}

	tokenPair, err := utils.GenerateTokenPair(
		utils.TokenSubject{UserID: account.ID, Email: account.Email, FullName: account.FullName()},
		s.jwt.Secret,
		s.jwt.AccessTTL,
		s.jwt.RefreshTTL,
	)
	if err != nil {
		return nil, unexpected("Failed to generate tokens", err)
	}

	info := s.loginInfo(ctx, client, now)
	logger.Info("User logged in successfully",
		zap.String("user_id", account.ID.String()),
		zap.String("email", account.Email),
		zap.String("ip", info.IP),
		zap.String("device", info.Device),
		zap.String("location", info.Location),
		zap.String("login_time", info.LoginTime),
		zap.String("event", "login_success"),
	)

	resp := &LoginResponse{
		Access:  tokenPair.AccessToken,
		Refresh: tokenPair.RefreshToken,
		User:    RegisteredUser{ID: account.ID, Email: account.Email},
	}
	if account.Profile != nil {
		resp.Profile = &LoginProfile{ID: account.Profile.ID, FullName: account.Profile.FullName}
	}
	return resp, nil
}

// Refresh exchanges a refresh token for a new access token. Refresh tokens
// are not stored, so any unexpired one signed with the current secret works.
func (s *Service) Refresh(ctx context.Context, req *RefreshRequest) (*RefreshResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	claims, err := utils.ValidateTokenOfType(req.Refresh, s.jwt.Secret, utils.TokenTypeRefresh)
	if err != nil {
		logger.Warn("Invalid refresh token",
			zap.String("event", "refresh_failed"),
			zap.Error(err),
		)
		return nil, appErrors.Unauthorized("Token is invalid or expired").WithStatus(http.StatusUnauthorized)
	}

	access, err := utils.GenerateAccessToken(
		utils.TokenSubject{UserID: claims.UserID, Email: claims.Email, FullName: claims.FullName},
		s.jwt.Secret,
		s.jwt.AccessTTL,
	)
	if err != nil {
		return nil, unexpected("Failed to generate tokens", err)
	}

	return &RefreshResponse{Access: access}, nil
}

// CheckCredentials is the session style login: it only confirms the
// credentials of an active account and returns its id.
func (s *Service) CheckCredentials(ctx context.Context, req *LoginRequest) (uuid.UUID, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return uuid.Nil, validationFailed(err)
	}

	account, err := s.store.Users().GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, domainUser.ErrUserNotFound) {
		return uuid.Nil, unexpected("Failed to look up user", err)
	}
	if err != nil || !account.IsActive || !utils.CheckPassword(account.PasswordHashed, req.Password) {
		logger.Warn("Credential check failed",
			zap.String("email", req.Email),
			zap.String("event", "credential_check_failed"),
		)
		return uuid.Nil, appErrors.Invalid(msgInvalidCredentials)
	}

	return account.ID, nil
}
