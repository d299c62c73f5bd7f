package db

import (
	"context"
	"time"
)

type User struct {
	Id        string
	Email     string
	CreatedTs time.Time
}

type UserService interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}
