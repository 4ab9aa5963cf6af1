package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Service interface {
	// Register создаёт пользователя и сразу выпускает auth-токен.
	Register(ctx context.Context, input RegisterInput) (*User, string, error)
	// Login выпускает новый токен по паре логин/пароль. Старые токены
	// остаются действительными.
	Login(ctx context.Context, username, password string) (*User, string, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*User, string, error) {
	if input.Username == "" {
		return nil, "", ErrUsernameRequired
	}
	if input.Email == "" {
		return nil, "", ErrEmailRequired
	}
	if err := ValidatePassword(input.Password); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("service: failed to hash password: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, "", fmt.Errorf("service: failed to generate user id: %w", err)
	}

	u := &User{
		ID:           id,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("service: failed to create user: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.CreateToken(ctx, u.ID, token); err != nil {
		return nil, "", fmt.Errorf("service: failed to issue auth token: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Str("username", u.Username).Msg("service: user registered")
	return u, token, nil
}

func (s *service) Login(ctx context.Context, username, password string) (*User, string, error) {
	if username == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	u, err := s.repo.UserByUsername(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("service: failed to look up user: %w", err)
	}
	if u == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, "", err
	}
	if err := s.repo.CreateToken(ctx, u.ID, token); err != nil {
		return nil, "", fmt.Errorf("service: failed to issue auth token: %w", err)
	}

	log.Info().Stringer("user_id", u.ID).Str("username", u.Username).Msg("service: auth token issued")
	return u, token, nil
}

func newToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("service: failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
