package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

type contextKey int

const userContextKey contextKey = iota

// Middleware аутентифицирует запрос по заголовку
// "Authorization: Token <token>" и кладёт пользователя в контекст.
func Middleware(repo Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Token ")
			if !ok || token == "" {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			user, err := repo.UserByToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, ErrInvalidToken) {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				log.Error().Err(err).Msg("auth: token lookup failed")
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser кладёт пользователя в контекст запроса.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext возвращает пользователя, положенного Middleware.
func FromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey).(*User)
	return user, ok
}
