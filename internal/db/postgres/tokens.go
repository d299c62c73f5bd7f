package postgres

import (
	"context"
	"time"

	"github.com/splitpilot/splitpilot/internal/db"
	lsql "github.com/splitpilot/splitpilot/pkg/sql"
)

type Tokens struct {
	db *lsql.Instance
}

var _ db.TokenService = &Tokens{}

func NewTokens(instance *lsql.Instance) db.TokenService {
	return &Tokens{
		db: instance,
	}
}

func (t *Tokens) CreateToken(ctx context.Context, token *db.ApiToken) (*db.ApiToken, error) {
	if token.CreatedTs.IsZero() {
		token.CreatedTs = time.Now()
	}
	query := `
	INSERT INTO api_tokens (token_hash, user_id, name, created_ts)
	VALUES (?, ?, ?, ?)
	`
	if _, err := t.db.ExecContext(ctx, query, token.TokenHash, token.UserId, token.Name, token.CreatedTs); err != nil {
		return nil, err
	}
	return token, nil
}

func (t *Tokens) GetUserIdByTokenHash(ctx context.Context, tokenHash string) (string, error) {
	query := `
	SELECT user_id FROM api_tokens WHERE token_hash = ?
	`
	var userId string
	if err := t.db.QueryRowContext(ctx, query, tokenHash).Scan(&userId); err != nil {
		return "", err
	}
	return userId, nil
}
