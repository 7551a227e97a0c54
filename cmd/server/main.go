package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quillblog/internal/config"
	"github.com/quillblog/internal/db"
	"github.com/quillblog/internal/handler"
	"github.com/quillblog/internal/logging"
	"github.com/quillblog/internal/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadEnvFiles()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	if err := db.Init(ctx, cfg, logging.GormLogger(logger, 200*time.Millisecond)); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() { _ = db.Close(db.DB) }()

	api := handler.NewAPI(db.DB, handler.Options{
		SiteName: cfg.SiteName,
		PageSize: cfg.PageSize,
		Logger:   logger,
	})
	r, err := router.SetupRouter(api, router.Config{SessionSecret: cfg.SessionSecret, Logger: logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up router")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Str("driver", cfg.DatabaseDriver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to run server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
