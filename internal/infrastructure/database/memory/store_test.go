package memory

import (
	"account-service/internal/domain/user"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *Store, email string) *user.User {
	t.Helper()
	u := &user.User{Email: email, PasswordHashed: "hash"}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestUsers_UniqueEmail(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "a@x.com")

	err := s.Users().Create(context.Background(), &user.User{Email: "A@x.com"})
	assert.ErrorIs(t, err, user.ErrUserAlreadyExists)
}

func TestUsers_GetByEmailAttachesProfile(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := seedUser(t, s, "a@x.com")

	role, err := s.Roles().GetOrCreate(ctx, user.RoleUser)
	require.NoError(t, err)
	name := "Alice"
	require.NoError(t, s.Profiles().Create(ctx, &user.Profile{UserID: u.ID, FullName: &name, RoleID: &role.ID}))

	got, err := s.Users().GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "Alice", got.FullName())
	require.NotNil(t, got.Profile.Role)
	assert.Equal(t, user.RoleUser, got.Profile.Role.Name)

	_, err = s.Users().GetByEmail(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestRoles_GetOrCreateIsIdempotent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first, err := s.Roles().GetOrCreate(ctx, user.RoleTrainer)
	require.NoError(t, err)
	second, err := s.Roles().GetOrCreate(ctx, user.RoleTrainer)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestProfiles_ForeignKeys(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.Profiles().Create(ctx, &user.Profile{UserID: uuid.New()})
	assert.ErrorIs(t, err, ErrForeignKeyViolation)

	u := seedUser(t, s, "a@x.com")
	missing := uuid.New()
	err = s.Profiles().Create(ctx, &user.Profile{UserID: u.ID, RoleID: &missing})
	assert.ErrorIs(t, err, ErrForeignKeyViolation)

	require.NoError(t, s.Profiles().Create(ctx, &user.Profile{UserID: u.ID}))
	err = s.Profiles().Create(ctx, &user.Profile{UserID: u.ID})
	assert.ErrorIs(t, err, ErrUniqueViolation)
}

func TestOTPs_SinglePendingPerPurpose(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := seedUser(t, s, "a@x.com")
	expires := time.Now().Add(5 * time.Minute)

	require.NoError(t, s.OTPs().Create(ctx, &user.OTP{UserID: u.ID, Code: 111111, Purpose: user.PurposeSignUp, ExpiresAt: expires}))
	require.NoError(t, s.OTPs().Create(ctx, &user.OTP{UserID: u.ID, Code: 111111, Purpose: user.PurposeForgetPassword, ExpiresAt: expires}))

	err := s.OTPs().Create(ctx, &user.OTP{UserID: u.ID, Code: 222222, Purpose: user.PurposeSignUp, ExpiresAt: expires})
	assert.ErrorIs(t, err, ErrUniqueViolation)

	err = s.OTPs().Create(ctx, &user.OTP{UserID: u.ID, Code: 99, Purpose: user.PurposeSignUp, ExpiresAt: expires})
	assert.ErrorIs(t, err, ErrCheckViolation)

	n, err := s.OTPs().DeleteUnused(ctx, u.ID, user.PurposeSignUp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	otps, err := s.OTPs().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, otps, 1)
	assert.Equal(t, user.PurposeForgetPassword, otps[0].Purpose)
}

func TestOTPs_FindAndMarkUsed(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := seedUser(t, s, "a@x.com")

	otp := &user.OTP{UserID: u.ID, Code: 123456, Purpose: user.PurposeSignUp, ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, s.OTPs().Create(ctx, otp))

	found, err := s.OTPs().FindLatestUnused(ctx, u.ID, 123456)
	require.NoError(t, err)
	assert.Equal(t, otp.ID, found.ID)

	require.NoError(t, s.OTPs().MarkUsed(ctx, otp.ID))
	assert.ErrorIs(t, s.OTPs().MarkUsed(ctx, otp.ID), user.ErrOTPAlreadyUsed)

	_, err = s.OTPs().FindLatestUnused(ctx, u.ID, 123456)
	assert.ErrorIs(t, err, user.ErrOTPNotFound)
}

func TestUsers_DeleteCascades(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := seedUser(t, s, "a@x.com")
	require.NoError(t, s.Profiles().Create(ctx, &user.Profile{UserID: u.ID}))
	require.NoError(t, s.OTPs().Create(ctx, &user.OTP{UserID: u.ID, Code: 123456, Purpose: user.PurposeSignUp}))

	require.NoError(t, s.Users().Delete(ctx, u.ID))

	_, err := s.Profiles().GetByUserID(ctx, u.ID)
	assert.ErrorIs(t, err, user.ErrProfileNotFound)
	otps, err := s.OTPs().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, otps)

	assert.ErrorIs(t, s.Users().Delete(ctx, u.ID), user.ErrUserNotFound)
}

func TestWithinTx_RollbackRestoresSnapshot(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx user.Store) error {
		require.NoError(t, tx.Users().Create(ctx, &user.User{Email: "a@x.com"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Users().GetByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestWithinTx_NestedRollbackKeepsOuterWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx user.Store) error {
		require.NoError(t, tx.Users().Create(ctx, &user.User{Email: "outer@x.com"}))
		inner := tx.WithinTx(ctx, func(tx user.Store) error {
			require.NoError(t, tx.Users().Create(ctx, &user.User{Email: "inner@x.com"}))
			return boom
		})
		assert.ErrorIs(t, inner, boom)
		return nil
	})
	require.NoError(t, err)

	_, err = s.Users().GetByEmail(ctx, "outer@x.com")
	assert.NoError(t, err)
	_, err = s.Users().GetByEmail(ctx, "inner@x.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestWithinTx_Serialized(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u := seedUser(t, s, "a@x.com")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(code int) {
			defer wg.Done()
			_ = s.WithinTx(ctx, func(tx user.Store) error {
				if _, err := tx.OTPs().DeleteUnused(ctx, u.ID, user.PurposeSignUp); err != nil {
					return err
				}
				return tx.OTPs().Create(ctx, &user.OTP{UserID: u.ID, Code: code, Purpose: user.PurposeSignUp})
			})
		}(100000 + i)
	}
	wg.Wait()

	otps, err := s.OTPs().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, otps, 1)
}

func TestColumnLengths(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	long := strings.Repeat("n", user.UsernameMaxLength+1)
	err := s.Users().Create(ctx, &user.User{Email: "a@x.com", Username: &long})
	assert.ErrorIs(t, err, ErrValueTooLong)

	u := seedUser(t, s, "a@x.com")
	tooLongEmail := strings.Repeat("e", user.EmailMaxLength) + "@x.com"
	assert.ErrorIs(t, s.Users().UpdateEmail(ctx, u.ID, tooLongEmail), ErrValueTooLong)

	name := strings.Repeat("ż", user.FullNameMaxLength)
	require.NoError(t, s.Profiles().Create(ctx, &user.Profile{UserID: u.ID, FullName: &name}))

	profile, err := s.Profiles().GetByUserID(ctx, u.ID)
	require.NoError(t, err)
	longer := name + "ż"
	profile.FullName = &longer
	assert.ErrorIs(t, s.Profiles().Update(ctx, profile), ErrValueTooLong)
}
