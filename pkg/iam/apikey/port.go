package apikey

import (
	"context"
	"time"
)

// Repository persists API keys.
type Repository interface {
	Create(ctx context.Context, key *APIKey) error
	FindByUUID(ctx context.Context, id string) (*APIKey, error)
	ListByUser(ctx context.Context, userID int64) ([]APIKey, error)
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, userID int64, id string) error
}
