package repository

import (
	"context"
	"database/sql"
	"fmt"

	"nestcrm-data/internal/domain"
)

// PostgresUsersRepository implements UsersRepository on the users table.
type PostgresUsersRepository struct {
	db *sql.DB
}

func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}

	query := `
		SELECT
			user_id::text,
			email,
			name,
			COALESCE(status, 'active') as status,
			image_url
		FROM users
		WHERE user_id = $1::uuid
	`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID,
		&user.Email,
		&user.Name,
		&user.Status,
		&user.ImageURL,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *PostgresUsersRepository) CreateUser(ctx context.Context, user *domain.User) (string, error) {
	if user == nil {
		return "", fmt.Errorf("%w: user is required", domain.ErrValidation)
	}
	if user.Email == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	var userID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, name, status, image_url)
		 VALUES ($1, NULLIF($2, ''), 'active', NULLIF($3, ''))
		 RETURNING user_id::text`,
		user.Email, user.Name.String, user.ImageURL.String,
	).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: user email", domain.ErrConflict)
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return userID, nil
}
