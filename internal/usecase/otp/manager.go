package otp

import (
	"account-service/internal/domain/user"
	"account-service/internal/logger"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const DefaultTTL = 5 * time.Minute

var (
	ErrInvalidCode = errors.New("invalid otp")
	ErrExpiredCode = errors.New("otp expired")
)

// Manager issues and consumes one-time codes. At most one unused code exists
// per (user, purpose); issuing a new one deletes the previous.
type Manager struct {
	store    user.Store
	ttl      time.Duration
	now      func() time.Time
	generate func() (int, error)
}

type Option func(*Manager)

func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithGenerator(generate func() (int, error)) Option {
	return func(m *Manager) { m.generate = generate }
}

func NewManager(store user.Store, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		ttl:      DefaultTTL,
		now:      time.Now,
		generate: GenerateCode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bind returns a copy of the manager that works inside the given store,
// typically a transaction opened by the caller.
func (m *Manager) Bind(store user.Store) *Manager {
	bound := *m
	bound.store = store
	return &bound
}

// TTLMinutes is the lifetime quoted to users in notifications, rounded up
// to a whole minute.
func (m *Manager) TTLMinutes() int {
	return int((m.ttl + time.Minute - 1) / time.Minute)
}

// Create replaces any pending code for (u, purpose) with a fresh one and
// returns it with its lifetime in minutes. The user row is locked so that
// concurrent calls for the same user run one after another.
func (m *Manager) Create(ctx context.Context, u *user.User, purpose user.OTPPurpose) (int, int, error) {
	if !purpose.Valid() {
		return 0, 0, user.ErrInvalidPurpose
	}

	var code int
	err := m.store.WithinTx(ctx, func(tx user.Store) error {
		if _, err := tx.Users().LockByID(ctx, u.ID); err != nil {
			return err
		}

		superseded, err := tx.OTPs().DeleteUnused(ctx, u.ID, purpose)
		if err != nil {
			return err
		}

		code, err = m.generate()
		if err != nil {
			return fmt.Errorf("failed to generate otp: %w", err)
		}

		record := &user.OTP{
			UserID:    u.ID,
			Code:      code,
			Purpose:   purpose,
			ExpiresAt: m.now().Add(m.ttl),
		}
		if err := tx.OTPs().Create(ctx, record); err != nil {
			return err
		}

		logger.Debug("OTP created",
			zap.String("event", "otp_created"),
			zap.String("user_id", u.ID.String()),
			zap.String("purpose", string(purpose)),
			zap.Int64("superseded", superseded),
		)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return code, m.TTLMinutes(), nil
}

// Validate consumes the most recent unused code matching (email, code).
// It returns user.ErrUserNotFound for an unknown email, ErrInvalidCode when
// nothing matches and ErrExpiredCode when the match is past its expiry. An
// expired code is left untouched.
func (m *Manager) Validate(ctx context.Context, email string, code int) (*user.User, user.OTPPurpose, error) {
	var (
		owner   *user.User
		purpose user.OTPPurpose
	)

	err := m.store.WithinTx(ctx, func(tx user.Store) error {
		u, err := tx.Users().GetByEmail(ctx, email)
		if err != nil {
			return err
		}

		record, err := tx.OTPs().FindLatestUnused(ctx, u.ID, code)
		if errors.Is(err, user.ErrOTPNotFound) {
			return ErrInvalidCode
		}
		if err != nil {
			return err
		}

		if record.IsExpired(m.now()) {
			return ErrExpiredCode
		}

		if err := tx.OTPs().MarkUsed(ctx, record.ID); err != nil {
			if errors.Is(err, user.ErrOTPAlreadyUsed) {
				return ErrInvalidCode
			}
			return err
		}

		owner = u
		purpose = record.Purpose
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	logger.Info("OTP verified",
		zap.String("event", "otp_verified"),
		zap.String("user_id", owner.ID.String()),
		zap.String("purpose", string(purpose)),
	)

	return owner, purpose, nil
}
