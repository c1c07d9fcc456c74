// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command migrate applies the catalog schema migrations outside of the API
// process.
//
// Usage:
//
//	migrate            # apply every pending migration
//	migrate -down      # revert every applied migration
//	migrate -path dir  # override MIGRATION_PATH
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/taibuivan/acervo/internal/platform/config"
	"github.com/taibuivan/acervo/internal/platform/constants"
	"github.com/taibuivan/acervo/internal/platform/migration"
)

func main() {
	down := flag.Bool("down", false, "revert every applied migration")
	path := flag.String("path", "", "migrations directory (defaults to MIGRATION_PATH)")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("app", constants.AppName))

	cfg, err := config.Load()
	if err != nil {
		log.Error("startup_failure", slog.String("context", "load configuration"), slog.Any("error", err))
		os.Exit(1)
	}

	migrationsPath := cfg.MigrationPath
	if *path != "" {
		migrationsPath = *path
	}

	direction := migration.Up
	if *down {
		direction = migration.Down
	}

	if err := migration.Run(cfg.DatabaseURL, migrationsPath, direction, log); err != nil {
		log.Error("migration_failed", slog.String("direction", string(direction)), slog.Any("error", err))
		os.Exit(1)
	}
}
