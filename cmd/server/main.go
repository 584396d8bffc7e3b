// Package main implements the entry point for the mealsmith API server,
// which generates weekly dinner meal plans on a per-user schedule and
// delivers them by email.
package main

import (
	"log"

	"github.com/mealsmith/mealsmith-api/internal/config"
	"github.com/mealsmith/mealsmith-api/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
