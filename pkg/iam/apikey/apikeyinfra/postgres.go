package apikeyinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam/apikey"
	"github.com/jmoiron/sqlx"
)

// PostgresAPIKeyRepository is the PostgreSQL implementation of
// apikey.Repository.
type PostgresAPIKeyRepository struct {
	db *sqlx.DB
}

func NewPostgresAPIKeyRepository(db *sqlx.DB) apikey.Repository {
	return &PostgresAPIKeyRepository{db: db}
}

func (r *PostgresAPIKeyRepository) Create(ctx context.Context, key *apikey.APIKey) error {
	query := `
		INSERT INTO api_keys (uuid, key_hash, user_id, name, created_at)
		VALUES (:uuid, :key_hash, :user_id, :name, :created_at)
		RETURNING id`

	rows, err := r.db.NamedQueryContext(ctx, query, key)
	if err != nil {
		return errx.Wrap(err, "failed to create api key", errx.TypeInternal)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&key.ID); err != nil {
			return errx.Wrap(err, "failed to scan api key id", errx.TypeInternal)
		}
	}
	return nil
}

func (r *PostgresAPIKeyRepository) FindByUUID(ctx context.Context, id string) (*apikey.APIKey, error) {
	var key apikey.APIKey
	err := r.db.GetContext(ctx, &key, `SELECT * FROM api_keys WHERE uuid = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apikey.ErrRegistry.New(apikey.CodeKeyNotFound)
		}
		return nil, errx.Wrap(err, "failed to find api key", errx.TypeInternal)
	}
	return &key, nil
}

func (r *PostgresAPIKeyRepository) ListByUser(ctx context.Context, userID int64) ([]apikey.APIKey, error) {
	keys := []apikey.APIKey{}
	err := r.db.SelectContext(ctx, &keys, `SELECT * FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list api keys", errx.TypeInternal)
	}
	return keys, nil
}

func (r *PostgresAPIKeyRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = $1 WHERE uuid = $2`, at, id)
	if err != nil {
		return errx.Wrap(err, "failed to update api key last used", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresAPIKeyRepository) Delete(ctx context.Context, userID int64, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE uuid = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return errx.Wrap(err, "failed to delete api key", errx.TypeInternal)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected on api key delete", errx.TypeInternal)
	}
	if affected == 0 {
		return apikey.ErrRegistry.New(apikey.CodeKeyNotFound)
	}
	return nil
}
