package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/shortlink/pkg/adapters/auth"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type contextKey struct{}

var usernameKey contextKey

// Username returns the authenticated caller set by RequireAuth.
func Username(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok && name != ""
}

type Middleware struct {
	issuer ports.TokenIssuer
	log    *slog.Logger
}

func NewMiddleware(issuer ports.TokenIssuer, log *slog.Logger) *Middleware {
	return &Middleware{issuer: issuer, log: log}
}

// RequireAuth verifies the bearer token from the Authorization header
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			writeFailure(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		username, err := m.issuer.Verify(strings.TrimSpace(tokenString))
		if err != nil {
			m.log.InfoContext(r.Context(), "rejected access token", "path", r.URL.Path, "error", err)
			if errors.Is(err, auth.ErrExpiredToken) {
				writeFailure(w, http.StatusUnauthorized, msgExpiredToken)
				return
			}
			writeFailure(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger tags each request with an id and logs its outcome.
func (m *Middleware) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := logger.WithRequestID(r.Context(), id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		m.log.InfoContext(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// Recoverer turns a panic into the generic internal error response.
func (m *Middleware) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				m.log.ErrorContext(r.Context(), "panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rv,
					"stack", string(debug.Stack()),
				)
				writeInternal(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
