package postgres

import (
	"account-service/internal/domain/user"
	"account-service/internal/infrastructure/database/postgres/models"
)

func toUserModel(u *user.User) *models.UserModel {
	return &models.UserModel{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		PasswordHashed: u.PasswordHashed,
		IsActive:       u.IsActive,
		LastLogin:      u.LastLogin,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func toUserEntity(m *models.UserModel) *user.User {
	u := &user.User{
		ID:             m.ID,
		Email:          m.Email,
		Username:       m.Username,
		PasswordHashed: m.PasswordHashed,
		IsActive:       m.IsActive,
		LastLogin:      m.LastLogin,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.Profile != nil {
		u.Profile = toProfileEntity(m.Profile)
	}
	return u
}

func toRoleEntity(m *models.RoleModel) *user.Role {
	return &user.Role{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toProfileModel(p *user.Profile) *models.ProfileModel {
	return &models.ProfileModel{
		ID:        p.ID,
		UserID:    p.UserID,
		FullName:  p.FullName,
		RoleID:    p.RoleID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toProfileEntity(m *models.ProfileModel) *user.Profile {
	p := &user.Profile{
		ID:        m.ID,
		UserID:    m.UserID,
		FullName:  m.FullName,
		RoleID:    m.RoleID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Role != nil {
		p.Role = toRoleEntity(m.Role)
	}
	return p
}

func toOTPModel(o *user.OTP) *models.OTPModel {
	return &models.OTPModel{
		ID:        o.ID,
		UserID:    o.UserID,
		Code:      o.Code,
		Purpose:   string(o.Purpose),
		Used:      o.Used,
		ExpiresAt: o.ExpiresAt,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func toOTPEntity(m *models.OTPModel) *user.OTP {
	return &user.OTP{
		ID:        m.ID,
		UserID:    m.UserID,
		Code:      m.Code,
		Purpose:   user.OTPPurpose(m.Purpose),
		Used:      m.Used,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
