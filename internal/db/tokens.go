package db

import (
	"context"
	"time"
)

type ApiToken struct {
	TokenHash string
	UserId    string
	Name      string
	CreatedTs time.Time
}

type TokenService interface {
	CreateToken(ctx context.Context, token *ApiToken) (*ApiToken, error)
	// GetUserIdByTokenHash resolves the hex SHA-256 of a bearer token to the
	// owning user id, sql.ErrNoRows when unknown.
	GetUserIdByTokenHash(ctx context.Context, tokenHash string) (string, error)
}
