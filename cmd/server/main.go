// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/rop-analytics/internal/api"
	"github.com/andresuchdata/rop-analytics/internal/cache"
	"github.com/andresuchdata/rop-analytics/internal/config"
	"github.com/andresuchdata/rop-analytics/internal/dataset"
	"github.com/andresuchdata/rop-analytics/internal/engine"
	"github.com/andresuchdata/rop-analytics/internal/service"
	"github.com/andresuchdata/rop-analytics/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize result cache (noop when disabled)
	analysisCache, err := cache.NewAnalysisCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("analysis cache unavailable, continuing without caching")
		analysisCache = cache.NewNoopAnalysisCache()
	}

	// Wire the CSV data source and the engine
	source := dataset.NewCSVSource(cfg.Data.SalesDir, cfg.Data.ProductFile)
	eng := engine.New(engine.Config{
		LeadTimeDays: cfg.Engine.LeadTimeDays,
		WindowDays:   cfg.Engine.WindowDays,
	})
	analysisService := service.NewAnalysisService(source, eng, analysisCache)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{AnalysisService: analysisService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
