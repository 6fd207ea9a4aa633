package user

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam"
)

// User is the persisted identity record.
type User struct {
	ID int64 `db:"id" json:"id"`

	Email string `db:"email" json:"email"`

	// PasswordHash is nil for federated-only accounts.
	PasswordHash *string `db:"password_hash" json:"-"`

	Role iam.Role `db:"role" json:"role"`

	Permissions []iam.Permission `db:"permissions" json:"permissions"`

	// GoogleID links the account to a Google identity. Unique when present.
	GoogleID *string `db:"google_id" json:"-"`

	// TFASecret is the TOTP secret, set once two-factor auth is enrolled.
	TFASecret    *string `db:"tfa_secret" json:"-"`
	IsTFAEnabled bool    `db:"is_tfa_enabled" json:"is_tfa_enabled"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// New returns a user with the defaults applied at sign-up.
func New(email string) *User {
	now := time.Now().UTC()
	return &User{
		Email:       email,
		Role:        iam.RoleRegular,
		Permissions: []iam.Permission{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Principal derives the request principal for this user.
func (u *User) Principal() *iam.Principal {
	return &iam.Principal{
		Sub:         u.ID,
		Email:       u.Email,
		Role:        u.Role,
		Permissions: u.Permissions,
	}
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeUserNotFound  = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeDuplicateUser = ErrRegistry.Register("DUPLICATE", errx.TypeConflict, http.StatusConflict, "User already exists")
)

func ErrUserNotFound() *errx.Error {
	return ErrRegistry.New(CodeUserNotFound)
}

// ErrDuplicateUser is the distinguishable uniqueness-conflict signal. The
// message stays generic so callers cannot learn which field collided.
func ErrDuplicateUser() *errx.Error {
	return ErrRegistry.New(CodeDuplicateUser)
}
