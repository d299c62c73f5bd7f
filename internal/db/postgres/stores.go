package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/splitpilot/splitpilot/internal/db"
	lsql "github.com/splitpilot/splitpilot/pkg/sql"
)

type Stores struct {
	db *lsql.Instance
}

var _ db.StoreService = &Stores{}

func NewStores(instance *lsql.Instance) db.StoreService {
	return &Stores{
		db: instance,
	}
}

func (s *Stores) CreateStore(ctx context.Context, store *db.Store) (*db.Store, error) {
	if store.Id == "" {
		store.Id = uuid.NewString()
	}
	if store.CreatedTs.IsZero() {
		store.CreatedTs = time.Now()
	}
	query := `
	INSERT INTO stores (id, owner_id, name, webhook_url, created_ts)
	VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, store.Id, store.OwnerId, store.Name, store.WebhookUrl, store.CreatedTs); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Stores) GetStoreForOwner(ctx context.Context, storeId string, ownerId string) (*db.Store, error) {
	query := `
	SELECT id, owner_id, name, webhook_url, created_ts
	FROM stores
	WHERE id = ? AND owner_id = ?
	`
	row := s.db.QueryRowContext(ctx, query, storeId, ownerId)
	return storeFromRow(row)
}

func storeFromRow(row lsql.RowScanner) (*db.Store, error) {
	store := &db.Store{}
	webhookUrl := sql.NullString{}
	if err := row.Scan(&store.Id, &store.OwnerId, &store.Name, &webhookUrl, &store.CreatedTs); err != nil {
		return nil, err
	}
	if webhookUrl.Valid {
		store.WebhookUrl = &webhookUrl.String
	}
	return store, nil
}
