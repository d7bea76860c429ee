package handler

import (
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(users ports.UserService, links ports.LinkService, issuer ports.TokenIssuer, log *slog.Logger) http.Handler {
	h := NewHTTPHandler(links, log)
	authHandler := NewAuthHandler(users, log)
	mw := NewMiddleware(issuer, log)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{"message": "ok"})
	})
	mux.HandleFunc("POST /register_user", authHandler.Register)
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("GET /shorten/{token}", h.Redirect)

	// Protected Routes
	mux.Handle("POST /shorten", mw.RequireAuth(http.HandlerFunc(h.Shorten)))
	mux.Handle("GET /stats/{token}", mw.RequireAuth(http.HandlerFunc(h.Stats)))
	mux.Handle("GET /user/links", mw.RequireAuth(http.HandlerFunc(h.ListLinks)))

	return mw.RequestLogger(mw.Recoverer(mux))
}
