package repository

import (
	"context"

	"nestcrm-data/internal/domain"
)

// UsersRepository is the internal user directory.
type UsersRepository interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (string, error)
}
