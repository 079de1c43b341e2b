// Package main wires together the lead scraper service binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-lead-scraper/internal/config"
	"github.com/JakeFAU/realtime-lead-scraper/internal/logging"
	"github.com/JakeFAU/realtime-lead-scraper/internal/server"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}

	logger, restore, err := logging.Install(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer restore()

	ctx := context.Background()
	app, err := server.Build(ctx, &cfg, logger)
	if err != nil {
		logger.Error("application init failed", zap.Error(err))
		restore()
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		logger.Error("application stopped with error", zap.Error(err))
		restore()
		os.Exit(1)
	}
}
