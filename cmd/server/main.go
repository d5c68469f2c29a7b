// Command server runs the sales ETL HTTP service: pipeline control,
// quality reports, cache maintenance, and Prometheus metrics.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"salesetl/internal/app"
	"salesetl/internal/config"
)

func main() {
	port := flag.Int("port", 0, "override the configured listen port")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	fmt.Printf("sales ETL server listening on :%d\n", cfg.Server.Port)
	if err := application.Run(); err != nil {
		application.Logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
