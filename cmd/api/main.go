package main

import (
	"os"

	"github.com/karthik1704/rsr-v1/internal/bootstrap"
	"github.com/karthik1704/rsr-v1/internal/shared/config"
	"github.com/karthik1704/rsr-v1/internal/shared/server"
	"github.com/karthik1704/rsr-v1/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(cfg.Env)
	defer telemetry.Sync()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("bootstrap.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	addr := server.Addr(cfg.Port)
	telemetry.Info("server.start", map[string]any{"addr": addr, "env": cfg.Env})

	if err := app.Router.Run(addr); err != nil {
		telemetry.Error("server.stopped", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
