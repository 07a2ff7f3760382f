package otp

import (
	"account-service/internal/domain/user"
	"account-service/internal/infrastructure/database/memory"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *memory.Store
	user  *user.User
	now   time.Time
	codes []int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), now: time.Now()}
	f.user = &user.User{Email: "a@x.com"}
	require.NoError(t, f.store.Users().Create(context.Background(), f.user))
	return f
}

func (f *fixture) manager(codes ...int) *Manager {
	f.codes = codes
	return NewManager(f.store,
		WithClock(func() time.Time { return f.now }),
		WithGenerator(func() (int, error) {
			code := f.codes[0]
			f.codes = f.codes[1:]
			return code, nil
		}),
	)
}

func unused(t *testing.T, s user.Store, u *user.User, purpose user.OTPPurpose) []*user.OTP {
	t.Helper()
	all, err := s.OTPs().ListByUser(context.Background(), u.ID)
	require.NoError(t, err)
	var out []*user.OTP
	for _, o := range all {
		if !o.Used && o.Purpose == purpose {
			out = append(out, o)
		}
	}
	return out
}

func TestGenerateCode_Range(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, code, CodeMin)
		assert.LessOrEqual(t, code, CodeMax)
	}
}

func TestCreate_ReturnsCodeAndTTL(t *testing.T) {
	f := newFixture(t)
	m := f.manager(123456)

	code, minutes, err := m.Create(context.Background(), f.user, user.PurposeSignUp)
	require.NoError(t, err)
	assert.Equal(t, 123456, code)
	assert.Equal(t, 5, minutes)

	pending := unused(t, f.store, f.user, user.PurposeSignUp)
	require.Len(t, pending, 1)
	assert.Equal(t, f.now.Add(5*time.Minute), pending[0].ExpiresAt)
}

func TestTTLMinutes_RoundsUp(t *testing.T) {
	store := memory.NewStore()
	for ttl, want := range map[time.Duration]int{
		30 * time.Second: 1,
		90 * time.Second: 2,
		5 * time.Minute:  5,
	} {
		assert.Equal(t, want, NewManager(store, WithTTL(ttl)).TTLMinutes(), ttl.String())
	}
}

func TestCreate_SupersedesPendingOfSamePurpose(t *testing.T) {
	f := newFixture(t)
	m := f.manager(111111, 222222, 333333)
	ctx := context.Background()

	_, _, err := m.Create(ctx, f.user, user.PurposeSignUp)
	require.NoError(t, err)
	_, _, err = m.Create(ctx, f.user, user.PurposeForgetPassword)
	require.NoError(t, err)
	_, _, err = m.Create(ctx, f.user, user.PurposeSignUp)
	require.NoError(t, err)

	signUp := unused(t, f.store, f.user, user.PurposeSignUp)
	require.Len(t, signUp, 1)
	assert.Equal(t, 333333, signUp[0].Code)

	reset := unused(t, f.store, f.user, user.PurposeForgetPassword)
	require.Len(t, reset, 1)
	assert.Equal(t, 222222, reset[0].Code)
}

func TestCreate_RejectsUnknownPurpose(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.manager().Create(context.Background(), f.user, user.OTPPurpose("login"))
	assert.ErrorIs(t, err, user.ErrInvalidPurpose)
}

func TestCreate_GeneratorFailureLeavesPreviousCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.manager(111111).Create(ctx, f.user, user.PurposeSignUp)
	require.NoError(t, err)

	failing := NewManager(f.store, WithGenerator(func() (int, error) { return 0, errors.New("entropy") }))
	_, _, err = failing.Create(ctx, f.user, user.PurposeSignUp)
	require.Error(t, err)

	pending := unused(t, f.store, f.user, user.PurposeSignUp)
	require.Len(t, pending, 1)
	assert.Equal(t, 111111, pending[0].Code)
}

func TestValidate_SucceedsOnceThenInvalid(t *testing.T) {
	f := newFixture(t)
	m := f.manager(123456)
	ctx := context.Background()

	_, _, err := m.Create(ctx, f.user, user.PurposeSignUp)
	require.NoError(t, err)

	u, purpose, err := m.Validate(ctx, "a@x.com", 123456)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, u.ID)
	assert.Equal(t, user.PurposeSignUp, purpose)

	_, _, err = m.Validate(ctx, "a@x.com", 123456)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestValidate_ExpiredIsNotInvalid(t *testing.T) {
	f := newFixture(t)
	m := f.manager(123456)
	ctx := context.Background()

	_, _, err := m.Create(ctx, f.user, user.PurposeForgetPassword)
	require.NoError(t, err)

	f.now = f.now.Add(6 * time.Minute)
	_, _, err = m.Validate(ctx, "a@x.com", 123456)
	assert.ErrorIs(t, err, ErrExpiredCode)

	// still pending: expiry is reported, not recorded
	assert.Len(t, unused(t, f.store, f.user, user.PurposeForgetPassword), 1)
}

func TestValidate_Failures(t *testing.T) {
	f := newFixture(t)
	m := f.manager(123456)
	ctx := context.Background()

	_, _, err := m.Validate(ctx, "ghost@x.com", 123456)
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, _, err = m.Create(ctx, f.user, user.PurposeSignUp)
	require.NoError(t, err)

	_, _, err = m.Validate(ctx, "a@x.com", 654321)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestValidate_SameCodeAcrossPurposesPicksLatest(t *testing.T) {
	f := newFixture(t)
	m := f.manager(123456, 123456)
	ctx := context.Background()

	_, _, err := m.Create(ctx, f.user, user.PurposeSignUp)
	require.NoError(t, err)
	_, _, err = m.Create(ctx, f.user, user.PurposeForgetPassword)
	require.NoError(t, err)

	_, purpose, err := m.Validate(ctx, "a@x.com", 123456)
	require.NoError(t, err)
	assert.Equal(t, user.PurposeForgetPassword, purpose)

	_, purpose, err = m.Validate(ctx, "a@x.com", 123456)
	require.NoError(t, err)
	assert.Equal(t, user.PurposeSignUp, purpose)
}

func TestBind_RollsBackWithCaller(t *testing.T) {
	f := newFixture(t)
	m := f.manager(123456)
	ctx := context.Background()
	boom := errors.New("boom")

	err := f.store.WithinTx(ctx, func(tx user.Store) error {
		if _, _, err := m.Bind(tx).Create(ctx, f.user, user.PurposeSignUp); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, unused(t, f.store, f.user, user.PurposeSignUp))
}
