package main

import (
	"context"
	"log"

	"godna/adapters/postgres"
	"godna/app"
	"godna/internal"
	"godna/internal/config"
	"godna/internal/metrics"
	"godna/internal/migration"
	"godna/internal/testkit"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Seeds the database with synthetic demand history and builds the
// profile store from it.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	genConfig := testkit.DefaultDemandConfig()
	genConfig.Seed = appConfig.Data.Seed
	rows := testkit.NewDemandGenerator(genConfig, &testkit.RNGAdapter{}).Generate()
	log.Printf("Generated %d transaction rows for %d entities (seed %d)",
		len(rows), len(genConfig.Entities), genConfig.Seed)

	profiles := app.NewProfileService(
		postgres.NewProfileRepository(db),
		postgres.NewTransactionRepository(db),
		internal.NewDefaultLogger(), metrics.New(),
	)
	count, err := profiles.Import(ctx, rows)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seed complete: %d profile rows built", count)
}
