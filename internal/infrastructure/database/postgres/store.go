package postgres

import (
	"account-service/internal/domain/user"
	"context"

	"gorm.io/gorm"
)

// Store implements user.Store on top of gorm. A Store returned to a
// WithinTx callback is bound to that transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db.DB}
}

func (s *Store) Users() user.Repository {
	return &UserRepository{db: s.db}
}

func (s *Store) Roles() user.RoleRepository {
	return &RoleRepository{db: s.db}
}

func (s *Store) Profiles() user.ProfileRepository {
	return &ProfileRepository{db: s.db}
}

func (s *Store) OTPs() user.OTPRepository {
	return &OTPRepository{db: s.db}
}

// WithinTx uses gorm's Transaction, which turns nested calls into savepoints.
func (s *Store) WithinTx(ctx context.Context, fn func(tx user.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}
