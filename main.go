package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"

	"godna/adapters/excel"
	"godna/adapters/postgres"
	"godna/app"
	"godna/internal"
	"godna/internal/config"
	"godna/internal/errors"
	"godna/internal/metrics"
	"godna/internal/migration"
	"godna/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// resetDatabase drops the engine's tables so migrations rebuild a
// clean schema. Development only, gated by DB_RESET.
func resetDatabase(db *sqlx.DB) error {
	tables := []string{
		"campaign_settings",
		"shock_signatures",
		"daily_transactions",
		"dna_profiles",
	}
	for _, table := range tables {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table + " CASCADE"); err != nil {
			return errors.Wrapf(err, "failed to drop table %s", table)
		}
	}
	return nil
}

// initDatabase connects to PostgreSQL and brings the schema up to date
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if appConfig.Database.Reset {
		log.Println("DB_RESET set - dropping all tables")
		if err := resetDatabase(db); err != nil {
			return nil, errors.Wrap(err, "database reset failed")
		}
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	logger := internal.NewDefaultLogger()
	m := metrics.New()

	profileRepo := postgres.NewProfileRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	signatureRepo := postgres.NewSignatureRepository(db)
	settingsRepo := postgres.NewSettingsRepository(db)

	forecasts := app.NewForecastService(profileRepo, settingsRepo, logger, m)
	lab := app.NewLabService(transactionRepo, signatureRepo, logger, m, appConfig.Forecast.AuditParallelism)
	goals := app.NewGoalService(transactionRepo, logger, m)
	profiles := app.NewProfileService(profileRepo, transactionRepo, logger, m)

	// Optional bootstrap import: load history from a spreadsheet and
	// build the profile store before serving.
	if appConfig.Data.ExcelFile != "" {
		loader := excel.NewTransactionLoader(excel.NewDataReader(appConfig.Data.ExcelFile))
		rows, err := loader.Load(context.Background())
		if err != nil {
			log.Fatalf("Failed to load history from %s: %v", appConfig.Data.ExcelFile, err)
		}
		if _, err := profiles.Import(context.Background(), rows); err != nil {
			log.Fatalf("Failed to import history: %v", err)
		}
	}

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("Profiling server starting on :%s", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				log.Printf("pprof server failed: %v", err)
			}
		}()
	}

	server := ui.NewServer(appConfig, forecasts, lab, goals, logger, m)
	log.Fatal(server.Start(":" + appConfig.Server.Port))
}
