package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/splitpilot/splitpilot/internal/db"
	lsql "github.com/splitpilot/splitpilot/pkg/sql"
)

type Users struct {
	db *lsql.Instance
}

var _ db.UserService = &Users{}

func NewUsers(instance *lsql.Instance) db.UserService {
	return &Users{
		db: instance,
	}
}

func (u *Users) CreateUser(ctx context.Context, user *db.User) (*db.User, error) {
	if user.Id == "" {
		user.Id = uuid.NewString()
	}
	if user.CreatedTs.IsZero() {
		user.CreatedTs = time.Now()
	}
	query := `
	INSERT INTO users (id, email, created_ts)
	VALUES (?, ?, ?)
	`
	if _, err := u.db.ExecContext(ctx, query, user.Id, user.Email, user.CreatedTs); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *Users) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	query := `
	SELECT id, email, created_ts FROM users WHERE email = ?
	`
	user := &db.User{}
	if err := u.db.QueryRowContext(ctx, query, email).Scan(&user.Id, &user.Email, &user.CreatedTs); err != nil {
		return nil, err
	}
	return user, nil
}
