package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"songboard/internal/cache"
	"songboard/internal/config"
	"songboard/internal/handlers"
	"songboard/internal/models"
	"songboard/internal/repositories"
	"songboard/internal/services"
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout)
	defer cancel()

	db, err := models.NewDatabase(ctx, cfg.MongodbURL, cfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close(context.Background())

	if err := db.CreateIndexes(ctx); err != nil {
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	// Initialize cache. The cache is optional: the service stays
	// correct without it, reads just always hit the database.
	var cacheBackend cache.Cache
	if cfg.ValkeyURL != "" {
		cacheBackend, err = cache.NewValkeyCache(cfg.ValkeyURL)
		if err != nil {
			slog.Warn("Could not connect to cache, running uncached", "error", err)
			cacheBackend = nil
		} else {
			defer cacheBackend.Close()
		}
	} else {
		slog.Info("No VALKEY_URL configured, running uncached")
	}

	// Wire the service and handlers
	songRepo := repositories.NewMongoSongRepository(db)
	songService := services.NewSongService(songRepo, cacheBackend, cfg)
	songHandler := handlers.NewSongHandler(songService, cfg.MaxUploadBytes)

	gin.SetMode(cfg.GinMode)
	router := gin.Default()
	songHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		if cacheBackend != nil {
			if err := cacheBackend.Health(c.Request.Context()); err != nil {
				status["cache"] = "unavailable"
			} else {
				status["cache"] = "ok"
			}
		} else {
			status["cache"] = "disabled"
		}
		c.JSON(http.StatusOK, status)
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	}
}
