// Package entrypoint wires configuration, storage, authentication and the
// HTTP server together and owns the process lifecycle.
package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"locallibrary/internal/auth"
	"locallibrary/internal/config"
	"locallibrary/internal/database"
	"locallibrary/internal/database/authors"
	"locallibrary/internal/database/books"
	"locallibrary/internal/database/genres"
	"locallibrary/internal/database/instances"
	"locallibrary/internal/database/languages"
	http_controllers "locallibrary/internal/http"
	"locallibrary/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down within
// the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown server, waiting %v before killing", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run builds the full application from configuration and serves it.
func Run(cfg *config.Config) {
	log.Printf("Starting library catalog")

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Could not initialize database: %s", err)
	}

	routerConfig := http_controllers.RouterConfig{
		Database:      db,
		Books:         books.NewRepository(db.DB),
		Authors:       authors.NewRepository(db.DB),
		Genres:        genres.NewRepository(db.DB),
		Languages:     languages.NewRepository(db.DB),
		Instances:     instances.NewRepository(db.DB),
		AuthConfig:    cfg.Auth,
		CatalogConfig: cfg.Catalog,
		TemplatesPath: cfg.UI.TemplatesPath,
		StaticPath:    cfg.UI.StaticPath,
	}

	if cfg.Auth.Mode == config.AuthModeLocal {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Could not access underlying database: %s", err)
		}

		sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Could not initialize session store: %s", err)
		}

		secret := cfg.Auth.SessionSecret
		if secret == "" {
			secret, err = auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Could not generate session secret: %s", err)
			}
			log.Printf("AUTH_SESSION_SECRET not set, generated an ephemeral secret")
		}
		csrfSecret, err := hex.DecodeString(secret)
		if err != nil || len(csrfSecret) < 32 {
			// Non-hex secrets are used as raw bytes
			csrfSecret = []byte(secret)
		}

		authService := auth.NewService(db.DB, cfg.Auth)
		routerConfig.AuthService = authService
		routerConfig.SessionManager = sessionManager
		routerConfig.AuthMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)
		routerConfig.CSRFSecret = csrfSecret
	} else {
		log.Printf("WARNING: auth mode is 'none', all write endpoints are open")
	}

	router := http_controllers.NewRouter(routerConfig)

	var sweeper *scheduler.OverdueSweeper
	if cfg.Overdue.SweepEnabled {
		sweeper = scheduler.NewOverdueSweeper(routerConfig.Instances, cfg.Overdue.SweepSchedule)
		if err := sweeper.Start(); err != nil {
			log.Fatalf("Could not start overdue sweep: %s", err)
		}
	}

	Serve(router, cfg, func(ctx context.Context) {
		if sweeper != nil {
			sweeper.Stop()
		}
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %s", err)
		}
	})
}
