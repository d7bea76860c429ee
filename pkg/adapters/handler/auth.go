package handler

import (
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

const dateCreatedLayout = "2006-01-02 15:04:05"

type AuthHandler struct {
	users ports.UserService
	log   *slog.Logger
}

func NewAuthHandler(users ports.UserService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

// CredentialsRequest is the body of register_user and login
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.log.InfoContext(r.Context(), "register_user rejected", "username", req.Username, "error", err)
		writeError(w, r, h.log, err)
		return
	}

	h.log.InfoContext(r.Context(), "user registered", "username", user.Username, "id", user.ID)
	writeJSON(w, http.StatusCreated, envelope{
		"success": true,
		"message": "User registered successfully!",
		"data": envelope{
			"id":           user.ID,
			"username":     user.Username,
			"date_created": user.CreatedAt.Format(dateCreatedLayout),
		},
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	token, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.log.InfoContext(r.Context(), "login rejected", "username", req.Username, "error", err)
		writeError(w, r, h.log, err)
		return
	}

	h.log.InfoContext(r.Context(), "user logged in", "username", req.Username)
	writeJSON(w, http.StatusOK, envelope{
		"success":      true,
		"message":      "Login successful!",
		"access_token": token,
	})
}
