package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"financeflow/internal/auth"
	"financeflow/internal/config"
	"financeflow/internal/handlers"
	"financeflow/internal/logger"
	"financeflow/internal/models"
	"financeflow/internal/session"
	"financeflow/internal/storage"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()

	if cfg.AdminUser != "" {
		if err := seedUser(ctx, db, cfg.AdminUser, cfg.AdminPassword); err != nil {
			log.Fatal("seed admin user", zap.Error(err))
		}
	}

	if n, err := db.UserCount(ctx); err == nil && n == 0 {
		log.Info("no users yet; sign up at /signup or run cmd/adduser")
	}

	sessions, err := session.NewService(db, cfg.SessionSecret, cfg.SecureCookie)
	if err != nil {
		log.Fatal("init session service", zap.Error(err))
	}

	h := handlers.NewHandlers(db, sessions, cfg.TemplateDir, log)
	mux := setupRouter(h, cfg.StaticDir, log)

	log.Info("listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, mux); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func setupRouter(h *handlers.Handlers, staticDir string, log *zap.Logger) http.Handler {
	return handlers.NewRouter(h, staticDir, log)
}

// seedUser creates the configured account if it does not exist yet.
// Used by deployments and the e2e suite to start with a known login.
func seedUser(ctx context.Context, db *storage.DB, username, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = db.CreateUser(ctx, username, hash)
	if errors.Is(err, models.ErrDuplicateUsername) {
		return nil
	}
	return err
}
