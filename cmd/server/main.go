package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/themobileprof/voicepilot/server/bootstrap"
)

func main() {
	// A local .env is optional
	_ = godotenv.Load()

	cfg, err := bootstrap.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := bootstrap.NewLogger(cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting VoicePilot service",
		zap.String("environment", cfg.Environment))

	if err := bootstrap.Run(cfg, logger); err != nil {
		logger.Fatal("Service failed", zap.Error(err))
	}
}
