package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"github.com/karthik1704/rsr-v1/internal/shared/config"
	"github.com/karthik1704/rsr-v1/internal/shared/storage/db"
	"github.com/karthik1704/rsr-v1/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(cfg.Env)
	ctx := context.Background()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.ProfileMigrate)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	version, err := db.RunMigrations(ctx, sqlDB)
	if err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		telemetry.Sync()
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"version": version})
	telemetry.Sync()
}
