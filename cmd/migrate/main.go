package main

// Run database migrations:
//   go run ./cmd/migrate            apply pending migrations
//   go run ./cmd/migrate down       roll back the latest migration
//   go run ./cmd/migrate version    print the applied version

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"lens-backend/internal/shared/config"
	"lens-backend/internal/shared/storage/db"
	"lens-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel)

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := run(ctx, sqlDB, direction); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"direction": direction, "error": err})
		sqlDB.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, sqlDB *sql.DB, direction string) error {
	switch direction {
	case "up":
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return err
		}
	case "down":
		if err := db.RollbackMigration(ctx, sqlDB); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown direction %q (want up, down or version)", direction)
	}
	version, err := db.SchemaVersion(ctx, sqlDB)
	if err != nil {
		return err
	}
	telemetry.Info("migrate.completed", map[string]any{"direction": direction, "version": version})
	return nil
}
