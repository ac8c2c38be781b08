package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/terra-energy/inspecciones/internal/buildinfo"
	"github.com/terra-energy/inspecciones/internal/cache"
	"github.com/terra-energy/inspecciones/internal/config"
	"github.com/terra-energy/inspecciones/internal/database"
	"github.com/terra-energy/inspecciones/internal/handlers"
	"github.com/terra-energy/inspecciones/internal/logging"
	"github.com/terra-energy/inspecciones/internal/middleware"
	"github.com/terra-energy/inspecciones/internal/services/checklists"
	"github.com/terra-energy/inspecciones/internal/services/documents"
	"github.com/terra-energy/inspecciones/internal/services/inspections"
	"github.com/terra-energy/inspecciones/internal/storage"
	"github.com/terra-energy/inspecciones/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "inspecciones: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		if err := db.Close(); err != nil {
			log.Warn("database close error", zap.Error(err))
		}
	}()

	// 3. Auto-Migrate Schema
	log.Info("synchronizing database schema")
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// 4. PDF storage and render cache
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	pdfCache := cache.New(cfg.Redis, log)
	defer pdfCache.Close()

	docs := documents.New(db, store, pdfCache, documents.NewHTTPFetcher(cfg.Documents.ImageFetchTimeout, cfg.Documents.AllowedImageHosts()...), documents.Config{
		BaseURL:        cfg.BaseURL,
		DocumentCode:   cfg.Documents.Code,
		NumberPrefix:   cfg.Documents.NumberPrefix,
		CompanyLogoURL: cfg.Documents.CompanyLogoURL,
	}, log)

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	// 5. Set up HTTP router
	router := handlers.NewRouter(handlers.Deps{
		Documents:   docs,
		Inspections: inspections.New(db, log),
		Checklists:  checklists.New(db, log),
		Hub:         hub,
		VerifyLimit: middleware.NewIPRateLimiter(ctx, cfg.Verify.RPS, cfg.Verify.Burst),
		JWTSecret:   cfg.JWTSecret,
		Log:         log,
	})

	// 6. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.RequestLogger(log)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("baseUrl", cfg.BaseURL),
			zap.String("version", buildinfo.Version),
			zap.String("storage", cfg.Storage.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
	return nil
}
