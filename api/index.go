package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/wadjakorntonsri/shortlink/pkg/app"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	log := logger.New(os.Stdout, cfg.LogLevel, true)

	// Note: the memory store does not survive cold starts; set STORE_DRIVER to
	// sqlite with a libsql:// DATABASE_URL, or to redis.
	application, err := app.New(context.Background(), cfg, log)
	if err != nil {
		panic(err)
	}
	mux = application.Handler()
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
