package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/StanislavShvedov/Shop-API-dip/internal/handler"
	"github.com/StanislavShvedov/Shop-API-dip/internal/user"
)

type mockUserService struct {
	registerFunc func(ctx context.Context, input user.RegisterInput) (*user.User, string, error)
	loginFunc    func(ctx context.Context, username, password string) (*user.User, string, error)
}

func (m *mockUserService) Register(ctx context.Context, input user.RegisterInput) (*user.User, string, error) {
	return m.registerFunc(ctx, input)
}

func (m *mockUserService) Login(ctx context.Context, username, password string) (*user.User, string, error) {
	return m.loginFunc(ctx, username, password)
}

func TestUserHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{name: "created", body: `{"username":"ivan","email":"a@b.ru","password":"Password1"}`, wantStatus: http.StatusCreated},
		{name: "duplicate", body: `{"username":"ivan","email":"a@b.ru","password":"Password1"}`, serviceErr: user.ErrUserExists, wantStatus: http.StatusConflict},
		{name: "weak_password", body: `{"username":"ivan","email":"a@b.ru","password":"short"}`, serviceErr: user.ErrPasswordTooShort, wantStatus: http.StatusBadRequest},
		{name: "malformed_body", body: `{"username":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserService{
				registerFunc: func(ctx context.Context, input user.RegisterInput) (*user.User, string, error) {
					if tt.serviceErr != nil {
						return nil, "", tt.serviceErr
					}
					return &user.User{ID: uuid.Must(uuid.NewV4()), Username: input.Username}, "token", nil
				},
			}
			h := handler.NewUserHandler(svc)

			rec := httptest.NewRecorder()
			h.Register(rec, httptest.NewRequest(http.MethodPost, "/account/registration", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestUserHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "token_issued", wantStatus: http.StatusOK},
		{name: "bad_credentials", serviceErr: user.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserService{
				loginFunc: func(ctx context.Context, username, password string) (*user.User, string, error) {
					assert.Equal(t, "ivan", username)
					if tt.serviceErr != nil {
						return nil, "", tt.serviceErr
					}
					return &user.User{ID: uuid.Must(uuid.NewV4()), Username: username}, "token", nil
				},
			}
			h := handler.NewUserHandler(svc)

			body := `{"username":"ivan","password":"Password1"}`
			rec := httptest.NewRecorder()
			h.Login(rec, httptest.NewRequest(http.MethodPost, "/account/token", strings.NewReader(body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"token"`)
			}
		})
	}
}
