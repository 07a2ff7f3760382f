// Package memory is an in-process user.Store. It enforces the same unique
// keys, foreign keys, column lengths and cascades as the Postgres schema so
// services behave the same against either backend.
package memory

import (
	"account-service/internal/domain/user"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrCheckViolation      = errors.New("check constraint violation")
	ErrValueTooLong        = errors.New("value too long for column")
)

// checkLength mirrors a VARCHAR(max) column; nil values always fit.
func checkLength(column string, value *string, limit int) error {
	if value != nil && utf8.RuneCountInString(*value) > limit {
		return fmt.Errorf("%s: %w", column, ErrValueTooLong)
	}
	return nil
}

func checkUserRow(u *user.User) error {
	if err := checkLength("users.email", &u.Email, user.EmailMaxLength); err != nil {
		return err
	}
	return checkLength("users.username", u.Username, user.UsernameMaxLength)
}

type tables struct {
	users    map[uuid.UUID]user.User
	roles    map[uuid.UUID]user.Role
	profiles map[uuid.UUID]user.Profile
	// otps keeps insertion order, which is also creation order.
	otps []user.OTP
}

func (t *tables) clone() *tables {
	return &tables{
		users:    maps.Clone(t.users),
		roles:    maps.Clone(t.roles),
		profiles: maps.Clone(t.profiles),
		otps:     slices.Clone(t.otps),
	}
}

type state struct {
	// mu serializes transactions and standalone operations.
	mu   sync.Mutex
	data *tables
}

// Store implements user.Store. Transactions are serialized; a failed
// transaction restores the snapshot taken when it began.
type Store struct {
	st   *state
	inTx bool
}

func NewStore() *Store {
	return &Store{st: &state{data: &tables{
		users:    make(map[uuid.UUID]user.User),
		roles:    make(map[uuid.UUID]user.Role),
		profiles: make(map[uuid.UUID]user.Profile),
	}}}
}

func (s *Store) Users() user.Repository           { return &userRepo{s} }
func (s *Store) Roles() user.RoleRepository       { return &roleRepo{s} }
func (s *Store) Profiles() user.ProfileRepository { return &profileRepo{s} }
func (s *Store) OTPs() user.OTPRepository         { return &otpRepo{s} }

func (s *Store) WithinTx(ctx context.Context, fn func(tx user.Store) error) error {
	if !s.inTx {
		s.st.mu.Lock()
		defer s.st.mu.Unlock()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.st.data.clone()
	if err := fn(&Store{st: s.st, inTx: true}); err != nil {
		s.st.data = snapshot
		return err
	}
	return nil
}

// Health always succeeds unless ctx is done.
func (s *Store) Health(ctx context.Context) error {
	return ctx.Err()
}

// run executes op against the tables, taking the lock unless the caller
// already holds it through a transaction.
func (s *Store) run(ctx context.Context, op func(t *tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.inTx {
		s.st.mu.Lock()
		defer s.st.mu.Unlock()
	}
	return op(s.st.data)
}

func (t *tables) userByEmail(email string) (user.User, bool) {
	for _, u := range t.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return user.User{}, false
}

func (t *tables) profileByUser(userID uuid.UUID) (user.Profile, bool) {
	for _, p := range t.profiles {
		if p.UserID == userID {
			return p, true
		}
	}
	return user.Profile{}, false
}

// hydrate returns a copy of p with its role attached.
func (t *tables) hydrate(p user.Profile) *user.Profile {
	if p.RoleID != nil {
		if r, ok := t.roles[*p.RoleID]; ok {
			p.Role = &r
		} else {
			p.RoleID = nil
		}
	}
	return &p
}

func (t *tables) withProfile(u user.User) *user.User {
	if p, ok := t.profileByUser(u.ID); ok {
		u.Profile = t.hydrate(p)
	}
	return &u
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, u *user.User) error {
	return r.s.run(ctx, func(t *tables) error {
		if err := checkUserRow(u); err != nil {
			return err
		}
		if _, exists := t.userByEmail(u.Email); exists {
			return user.ErrUserAlreadyExists
		}
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		now := time.Now()
		u.CreatedAt = now
		u.UpdatedAt = now

		row := *u
		row.Profile = nil
		t.users[u.ID] = row
		return nil
	})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var out *user.User
	err := r.s.run(ctx, func(t *tables) error {
		u, ok := t.userByEmail(email)
		if !ok {
			return user.ErrUserNotFound
		}
		out = t.withProfile(u)
		return nil
	})
	return out, err
}

func (r *userRepo) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	var out *user.User
	err := r.s.run(ctx, func(t *tables) error {
		u, ok := t.users[userID]
		if !ok {
			return user.ErrUserNotFound
		}
		out = t.withProfile(u)
		return nil
	})
	return out, err
}

// LockByID is GetByID without the profile; transactions are already exclusive.
func (r *userRepo) LockByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	var out *user.User
	err := r.s.run(ctx, func(t *tables) error {
		u, ok := t.users[userID]
		if !ok {
			return user.ErrUserNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) update(ctx context.Context, userID uuid.UUID, apply func(t *tables, u *user.User) error) error {
	return r.s.run(ctx, func(t *tables) error {
		u, ok := t.users[userID]
		if !ok {
			return user.ErrUserNotFound
		}
		if err := apply(t, &u); err != nil {
			return err
		}
		u.UpdatedAt = time.Now()
		t.users[userID] = u
		return nil
	})
}

func (r *userRepo) UpdateEmail(ctx context.Context, userID uuid.UUID, email string) error {
	return r.update(ctx, userID, func(t *tables, u *user.User) error {
		if err := checkLength("users.email", &email, user.EmailMaxLength); err != nil {
			return err
		}
		if other, exists := t.userByEmail(email); exists && other.ID != userID {
			return user.ErrUserAlreadyExists
		}
		u.Email = email
		return nil
	})
}

func (r *userRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return r.update(ctx, userID, func(_ *tables, u *user.User) error {
		u.PasswordHashed = passwordHash
		return nil
	})
}

func (r *userRepo) Activate(ctx context.Context, userID uuid.UUID) error {
	return r.update(ctx, userID, func(_ *tables, u *user.User) error {
		u.IsActive = true
		return nil
	})
}

func (r *userRepo) TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.update(ctx, userID, func(_ *tables, u *user.User) error {
		u.LastLogin = &at
		return nil
	})
}

func (r *userRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	return r.s.run(ctx, func(t *tables) error {
		if _, ok := t.users[userID]; !ok {
			return user.ErrUserNotFound
		}
		delete(t.users, userID)
		maps.DeleteFunc(t.profiles, func(_ uuid.UUID, p user.Profile) bool { return p.UserID == userID })
		t.otps = slices.DeleteFunc(t.otps, func(o user.OTP) bool { return o.UserID == userID })
		return nil
	})
}

type roleRepo struct{ s *Store }

func (r *roleRepo) GetOrCreate(ctx context.Context, name string) (*user.Role, error) {
	var out *user.Role
	err := r.s.run(ctx, func(t *tables) error {
		for _, role := range t.roles {
			if role.Name == name {
				out = &role
				return nil
			}
		}
		now := time.Now()
		role := user.Role{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
		t.roles[role.ID] = role
		out = &role
		return nil
	})
	return out, err
}

func (r *roleRepo) GetByID(ctx context.Context, roleID uuid.UUID) (*user.Role, error) {
	var out *user.Role
	err := r.s.run(ctx, func(t *tables) error {
		role, ok := t.roles[roleID]
		if !ok {
			return user.ErrRoleNotFound
		}
		out = &role
		return nil
	})
	return out, err
}

type profileRepo struct{ s *Store }

func (r *profileRepo) Create(ctx context.Context, p *user.Profile) error {
	return r.s.run(ctx, func(t *tables) error {
		if _, ok := t.users[p.UserID]; !ok {
			return fmt.Errorf("profile user %s: %w", p.UserID, ErrForeignKeyViolation)
		}
		if _, exists := t.profileByUser(p.UserID); exists {
			return fmt.Errorf("profile for user %s: %w", p.UserID, ErrUniqueViolation)
		}
		if err := checkLength("user_profiles.full_name", p.FullName, user.FullNameMaxLength); err != nil {
			return err
		}
		if err := checkRole(t, p.RoleID); err != nil {
			return err
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		now := time.Now()
		p.CreatedAt = now
		p.UpdatedAt = now

		row := *p
		row.Role = nil
		t.profiles[p.ID] = row
		return nil
	})
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*user.Profile, error) {
	var out *user.Profile
	err := r.s.run(ctx, func(t *tables) error {
		p, ok := t.profileByUser(userID)
		if !ok {
			return user.ErrProfileNotFound
		}
		out = t.hydrate(p)
		return nil
	})
	return out, err
}

func (r *profileRepo) Update(ctx context.Context, p *user.Profile) error {
	return r.s.run(ctx, func(t *tables) error {
		row, ok := t.profiles[p.ID]
		if !ok {
			return user.ErrProfileNotFound
		}
		if err := checkLength("user_profiles.full_name", p.FullName, user.FullNameMaxLength); err != nil {
			return err
		}
		if err := checkRole(t, p.RoleID); err != nil {
			return err
		}
		p.UpdatedAt = time.Now()
		row.FullName = p.FullName
		row.RoleID = p.RoleID
		row.UpdatedAt = p.UpdatedAt
		t.profiles[p.ID] = row
		return nil
	})
}

func checkRole(t *tables, roleID *uuid.UUID) error {
	if roleID == nil {
		return nil
	}
	if _, ok := t.roles[*roleID]; !ok {
		return fmt.Errorf("profile role %s: %w", *roleID, ErrForeignKeyViolation)
	}
	return nil
}

type otpRepo struct{ s *Store }

func (r *otpRepo) Create(ctx context.Context, o *user.OTP) error {
	return r.s.run(ctx, func(t *tables) error {
		if _, ok := t.users[o.UserID]; !ok {
			return fmt.Errorf("otp user %s: %w", o.UserID, ErrForeignKeyViolation)
		}
		if !o.Purpose.Valid() || o.Code < 100000 || o.Code > 999999 {
			return fmt.Errorf("otp %d/%s: %w", o.Code, o.Purpose, ErrCheckViolation)
		}
		if !o.Used {
			for _, existing := range t.otps {
				if existing.UserID == o.UserID && existing.Purpose == o.Purpose && !existing.Used {
					return fmt.Errorf("pending otp for (%s, %s): %w", o.UserID, o.Purpose, ErrUniqueViolation)
				}
			}
		}
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		now := time.Now()
		o.CreatedAt = now
		o.UpdatedAt = now
		t.otps = append(t.otps, *o)
		return nil
	})
}

func (r *otpRepo) DeleteUnused(ctx context.Context, userID uuid.UUID, purpose user.OTPPurpose) (int64, error) {
	var deleted int64
	err := r.s.run(ctx, func(t *tables) error {
		before := len(t.otps)
		t.otps = slices.DeleteFunc(t.otps, func(o user.OTP) bool {
			return o.UserID == userID && o.Purpose == purpose && !o.Used
		})
		deleted = int64(before - len(t.otps))
		return nil
	})
	return deleted, err
}

func (r *otpRepo) FindLatestUnused(ctx context.Context, userID uuid.UUID, code int) (*user.OTP, error) {
	var out *user.OTP
	err := r.s.run(ctx, func(t *tables) error {
		for i := len(t.otps) - 1; i >= 0; i-- {
			o := t.otps[i]
			if o.UserID == userID && o.Code == code && !o.Used {
				out = &o
				return nil
			}
		}
		return user.ErrOTPNotFound
	})
	return out, err
}

func (r *otpRepo) MarkUsed(ctx context.Context, otpID uuid.UUID) error {
	return r.s.run(ctx, func(t *tables) error {
		for i := range t.otps {
			if t.otps[i].ID != otpID {
				continue
			}
			if t.otps[i].Used {
				return user.ErrOTPAlreadyUsed
			}
			t.otps[i].Used = true
			t.otps[i].UpdatedAt = time.Now()
			return nil
		}
		return user.ErrOTPAlreadyUsed
	})
}

func (r *otpRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*user.OTP, error) {
	var out []*user.OTP
	err := r.s.run(ctx, func(t *tables) error {
		for _, o := range t.otps {
			if o.UserID == userID {
				out = append(out, &o)
			}
		}
		return nil
	})
	return out, err
}
