package user

import "context"

// Repository defines the contract for user persistence. Implementations
// must return ErrDuplicateUser on a uniqueness violation and
// ErrUserNotFound when a lookup misses.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*User, error)
	Update(ctx context.Context, u *User) error
	EnableTFA(ctx context.Context, id int64, secret string) error
}
