package main

import (
	"context"
	"flag"
	"os"

	"literary-character-ai/backend/internal/models"
	"literary-character-ai/backend/internal/repository"
	"literary-character-ai/backend/internal/seed"
	"literary-character-ai/backend/pkg/config"
	"literary-character-ai/backend/pkg/logger"
)

func main() {
	file := flag.String("file", "seed/characters.yaml", "path to the character catalog")
	flag.Parse()

	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"
	log := logger.New(logConfig)

	catalog, err := seed.LoadFile(*file)
	if err != nil {
		log.LogError(err, "Failed to load catalog", "file", *file)
		os.Exit(1)
	}

	db, err := config.NewDB(cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	if err := models.AutoMigrate(db); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Seeding only inserts, so no cached copy can go stale
	characters := repository.NewCharacterRepository(db, nil)

	res, err := seed.NewSeeder(characters, log).Run(context.Background(), catalog)
	if err != nil {
		log.LogError(err, "Seeding failed", "created", res.Created)
		os.Exit(1)
	}

	log.Info("Seeding complete", "created", res.Created, "skipped", res.Skipped)
}
