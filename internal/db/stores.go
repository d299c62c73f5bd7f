package db

import (
	"context"
	"time"
)

type Store struct {
	Id         string
	OwnerId    string
	Name       string
	WebhookUrl *string
	CreatedTs  time.Time
}

type StoreService interface {
	CreateStore(ctx context.Context, store *Store) (*Store, error)
	// GetStoreForOwner returns sql.ErrNoRows both when the store does not
	// exist and when it belongs to a different owner.
	GetStoreForOwner(ctx context.Context, storeId string, ownerId string) (*Store, error)
}
