package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"godna/adapters/postgres"
	"godna/app"
	"godna/internal"
	"godna/internal/config"
	"godna/internal/metrics"
	"godna/internal/migration"
	"godna/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Ops server: health, prometheus metrics and admin maintenance
// endpoints, run separately from the analyst API.
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

	if err := migration.NewRunner().Run(context.Background(), db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	logger := internal.NewDefaultLogger()
	m := metrics.New()
	profiles := app.NewProfileService(
		postgres.NewProfileRepository(db),
		postgres.NewTransactionRepository(db),
		logger, m,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ops := ui.NewApp(profiles, logger)
	if err := ops.Start(ctx, "0.0.0.0:"+appConfig.Server.OpsPort); err != nil {
		log.Fatalf("Ops server failed: %v", err)
	}
}
