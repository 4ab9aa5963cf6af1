package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserExists = errors.New("user with this username or email already exists")

const uniqueViolation = "23505"

type Repository interface {
	Create(ctx context.Context, user *User) error
	// UserByUsername возвращает (nil, nil), когда пользователя нет.
	UserByUsername(ctx context.Context, username string) (*User, error)
	CreateToken(ctx context.Context, userID uuid.UUID, token string) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, u *User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, is_staff, is_superuser, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.IsStaff, u.IsSuperuser, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUserExists
		}
		return fmt.Errorf("repository: failed to insert user: %w", err)
	}
	return nil
}

func (r *postgresRepository) UserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx,
		`SELECT id, username, email, password_hash, is_staff, is_superuser, created_at
		 FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsStaff, &u.IsSuperuser, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to select user %q: %w", username, err)
	}
	return &u, nil
}

func (r *postgresRepository) CreateToken(ctx context.Context, userID uuid.UUID, token string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO auth_tokens (token, user_id) VALUES ($1, $2)`, token, userID)
	if err != nil {
		return fmt.Errorf("repository: failed to insert auth token: %w", err)
	}
	return nil
}
