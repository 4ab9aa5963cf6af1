package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/StanislavShvedov/Shop-API-dip/internal/user"
)

// UserHandler handles account registration.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

type registerResponse struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input user.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	u, token, err := h.svc.Register(r.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserExists):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, user.ErrUsernameRequired),
			errors.Is(err, user.ErrEmailRequired),
			errors.Is(err, user.ErrPasswordTooShort),
			errors.Is(err, user.ErrPasswordNoLower),
			errors.Is(err, user.ErrPasswordNoUpper),
			errors.Is(err, user.ErrPasswordNoDigit):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.Error().Err(err).Msg("Failed to register user")
			http.Error(w, "failed to register user", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{User: u, Token: token})
}

// Login issues a fresh auth token for an existing account.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	u, token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Msg("Failed to log user in")
		http.Error(w, "failed to log in", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{User: u, Token: token})
}
