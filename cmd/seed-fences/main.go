// Command seed-fences loads geo-fences from a YAML file into the configured
// store. Fences whose name already exists are skipped.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"smartourism/internal/geofence/index"
	"smartourism/internal/geofence/seed"
	"smartourism/internal/geofence/service"
	"smartourism/internal/geofence/store"
	"smartourism/internal/platform/config"
	"smartourism/internal/platform/logger"
	"smartourism/internal/platform/postgres"
)

func main() {
	path := flag.String("file", "fences.yaml", "path to the fence seed file")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *path, log); err != nil {
		log.Error("seeding failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, path string, log *slog.Logger) error {
	if cfg.Database.Backend != "postgres" {
		return fmt.Errorf("seeding needs STORAGE_BACKEND=postgres, got %q", cfg.Database.Backend)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	doc, err := seed.Parse(f)
	if err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	idx := index.New(store.NewPostgres(db), index.WithLogger(log))
	if err := idx.Reload(ctx); err != nil {
		return fmt.Errorf("load existing fences: %w", err)
	}
	res, err := seed.Apply(ctx, service.New(idx, nil, service.WithLogger(log)), doc)
	log.Info("geo-fence seeding finished",
		"file", path,
		"added", res.Added,
		"skipped", res.Skipped,
	)
	return err
}
