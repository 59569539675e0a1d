package main

import (
	"flag"
	"log"
	"time"

	"grimoire/internal/engine/identity"
	"grimoire/internal/pkg/logger"
	"grimoire/internal/platform/config"
	"grimoire/internal/platform/database"
	"grimoire/internal/workers"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	interval := flag.Duration("interval", time.Hour, "Token prune interval")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging, "worker")

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	pruner := workers.NewTokenPruner(identity.NewRepository(db), cfg.Tokens)

	log.Printf("Worker starting, pruning every %v", *interval)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	pruner.Run()
	for range ticker.C {
		pruner.Run()
	}
}
