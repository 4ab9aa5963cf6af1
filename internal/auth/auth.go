package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidToken = errors.New("invalid auth token")

// User — аутентифицированная личность запроса. Флаги is_staff/is_superuser
// управляют видимостью заказов в query-слое.
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
}

type Repository interface {
	UserByToken(ctx context.Context, token string) (*User, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) UserByToken(ctx context.Context, token string) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx,
		`SELECT u.id, u.username, u.email, u.is_staff, u.is_superuser
		 FROM users u
		 JOIN auth_tokens t ON t.user_id = u.id
		 WHERE t.token = $1`, token).
		Scan(&u.ID, &u.Username, &u.Email, &u.IsStaff, &u.IsSuperuser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("auth: failed to select user by token: %w", err)
	}
	return &u, nil
}
