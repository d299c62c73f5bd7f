package restapi

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/splitpilot/splitpilot/internal/db"
	lhttp "github.com/splitpilot/splitpilot/pkg/http"
	sbhttp "github.com/splitpilot/splitpilot/pkg/serverbase/http"
	sbhttpbase "github.com/splitpilot/splitpilot/pkg/serverbase/http/base"
)

type ownerIdKeyType string

var ownerIdKey = ownerIdKeyType("ownerId")

func WithOwnerId(ctx context.Context, ownerId string) context.Context {
	return context.WithValue(ctx, ownerIdKey, ownerId)
}

func OwnerIdFromContext(ctx context.Context) string {
	if ownerId, ok := ctx.Value(ownerIdKey).(string); ok {
		return ownerId
	}
	return ""
}

// Auth resolves a bearer token to its owning user. Tokens are stored hashed,
// the lookup key is the hex SHA-256 of the presented token.
type Auth struct {
	database db.Database
}

func NewAuth(database db.Database) *Auth {
	return &Auth{
		database: database,
	}
}

func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}

func (a *Auth) Middleware() sbhttpbase.MiddlewareFunc {
	return func(request *sbhttpbase.Request, next sbhttpbase.HandleFunc) {
		token, ok := strings.CutPrefix(request.Request.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			sbhttp.ReturnHttpError(request.Writer, lhttp.NewUnauthorized("missing bearer token"), nil)
			return
		}

		ctx := request.Request.Context()
		ownerId, err := a.database.Tokens().GetUserIdByTokenHash(ctx, HashToken(token))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				sbhttp.ReturnHttpError(request.Writer, lhttp.NewUnauthorized("invalid bearer token"), nil)
				return
			}
			log.Printf("token lookup failed: %s", err)
			sbhttp.ReturnHttpError(request.Writer, lhttp.NewInternalError("Internal server error"), nil)
			return
		}

		next(request.WithContext(WithOwnerId(ctx, ownerId)))
	}
}
