package userinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/user"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// PostgresUserRepository is the PostgreSQL implementation of
// user.Repository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository creates a new repository instance.
func NewPostgresUserRepository(db *sqlx.DB) user.Repository {
	return &PostgresUserRepository{db: db}
}

// Create inserts a new user and fills in its generated id.
func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			email, password_hash, role, permissions, google_id,
			tfa_secret, is_tfa_enabled, created_at, updated_at
		) VALUES (
			:email, :password_hash, :role, :permissions, :google_id,
			:tfa_secret, :is_tfa_enabled, :created_at, :updated_at
		) RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, toPersistence(u))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pgUniqueViolation {
			return user.ErrDuplicateUser()
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&u.ID); err != nil {
			return errx.Wrap(err, "failed to scan user id", errx.TypeInternal)
		}
	}
	return nil
}

// FindByID looks a user up by its primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	return r.findOne(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

// FindByEmail looks a user up by email.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, `SELECT * FROM users WHERE email = $1`, email)
}

// FindByGoogleID looks a user up by its linked Google identity.
func (r *PostgresUserRepository) FindByGoogleID(ctx context.Context, googleID string) (*user.User, error) {
	return r.findOne(ctx, `SELECT * FROM users WHERE google_id = $1`, googleID)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	var p userPersistence
	err := r.db.GetContext(ctx, &p, query, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user", errx.TypeInternal)
	}
	return toDomain(p), nil
}

// Update persists changes to an existing user.
func (r *PostgresUserRepository) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users SET
			email = :email,
			password_hash = :password_hash,
			role = :role,
			permissions = :permissions,
			google_id = :google_id,
			tfa_secret = :tfa_secret,
			is_tfa_enabled = :is_tfa_enabled,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, toPersistence(u))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pgUniqueViolation {
			return user.ErrDuplicateUser()
		}
		return errx.Wrap(err, "failed to update user", errx.TypeInternal)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on update", errx.TypeInternal)
	}
	if affected == 0 {
		return user.ErrUserNotFound()
	}
	return nil
}

// EnableTFA stores the TOTP secret and flags the account as enrolled.
func (r *PostgresUserRepository) EnableTFA(ctx context.Context, id int64, secret string) error {
	query := `UPDATE users SET tfa_secret = $1, is_tfa_enabled = true, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, secret, id)
	if err != nil {
		return errx.Wrap(err, "failed to enable two-factor auth", errx.TypeInternal)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on tfa enable", errx.TypeInternal)
	}
	if affected == 0 {
		return user.ErrUserNotFound()
	}
	return nil
}

// userPersistence adapts the domain model to DB-specific types.
type userPersistence struct {
	ID           int64          `db:"id"`
	Email        string         `db:"email"`
	PasswordHash sql.NullString `db:"password_hash"`
	Role         string         `db:"role"`
	Permissions  pq.StringArray `db:"permissions"`
	GoogleID     sql.NullString `db:"google_id"`
	TFASecret    sql.NullString `db:"tfa_secret"`
	IsTFAEnabled bool           `db:"is_tfa_enabled"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func toPersistence(u *user.User) userPersistence {
	perms := make(pq.StringArray, len(u.Permissions))
	for i, p := range u.Permissions {
		perms[i] = string(p)
	}

	return userPersistence{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: nullString(u.PasswordHash),
		Role:         string(u.Role),
		Permissions:  perms,
		GoogleID:     nullString(u.GoogleID),
		TFASecret:    nullString(u.TFASecret),
		IsTFAEnabled: u.IsTFAEnabled,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toDomain(p userPersistence) *user.User {
	perms := make([]iam.Permission, len(p.Permissions))
	for i, s := range p.Permissions {
		perms[i] = iam.Permission(s)
	}

	return &user.User{
		ID:           p.ID,
		Email:        p.Email,
		PasswordHash: stringPtr(p.PasswordHash),
		Role:         iam.Role(p.Role),
		Permissions:  perms,
		GoogleID:     stringPtr(p.GoogleID),
		TFASecret:    stringPtr(p.TFASecret),
		IsTFAEnabled: p.IsTFAEnabled,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
