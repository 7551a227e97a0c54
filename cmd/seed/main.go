// Command seed resets the configured database to the demo content.
package main

import (
	"context"
	"os"
	"time"

	"github.com/quillblog/internal/config"
	"github.com/quillblog/internal/db"
	"github.com/quillblog/internal/logging"
	"github.com/quillblog/internal/seed"
)

func main() {
	config.LoadEnvFiles()
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// 初始化数据库
	if err := db.Init(ctx, cfg, logging.GormLogger(logger, 200*time.Millisecond)); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() { _ = db.Close(db.DB) }()

	if _, err := seed.Run(ctx, db.DB, logger); err != nil {
		logger.Error().Err(err).Msg("seed failed")
		os.Exit(1)
	}
}
