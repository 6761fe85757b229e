package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"nestcrm-data/internal/domain"
)

// MemoryUsersRepository supports the user directory when DB is disabled.
type MemoryUsersRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User // userID -> User
}

func NewMemoryUsersRepository() *MemoryUsersRepository {
	return &MemoryUsersRepository{users: map[string]domain.User{}}
}

var _ UsersRepository = (*MemoryUsersRepository)(nil)

func (r *MemoryUsersRepository) GetUser(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	return &u, nil
}

func (r *MemoryUsersRepository) CreateUser(_ context.Context, user *domain.User) (string, error) {
	if user == nil || user.Email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return "", fmt.Errorf("%w: user email", domain.ErrConflict)
		}
	}

	cp := *user
	if cp.UserID == "" {
		cp.UserID = uuid.NewString()
	}
	if cp.Status == "" {
		cp.Status = "active"
	}
	r.users[cp.UserID] = cp
	return cp.UserID, nil
}

// PutUser force-inserts a user with a fixed id. Dev/test seeding only.
func (r *MemoryUsersRepository) PutUser(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.UserID] = user
}
