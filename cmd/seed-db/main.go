// Command seed-db applies migrations and upserts the admin inventory.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/xenking/dkopi/internal/domain/admin"
	"github.com/xenking/dkopi/internal/storage/postgres"
)

func main() {
	var (
		databaseURL   string
		inventoryFile string
		skipMigrate   bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&inventoryFile, "inventory-file", "db/seed/inventory.json", "path to inventory JSON file (.json or .json.gz)")
	flag.BoolVar(&skipMigrate, "skip-migrate", false, "do not apply schema migrations first")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, inventoryFile, skipMigrate); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, inventoryFile string, skipMigrate bool) error {
	items, err := readInventory(inventoryFile)
	if err != nil {
		return err
	}
	slog.Info("loaded inventory", slog.String("file", inventoryFile), slog.Int("items", len(items)))

	if !skipMigrate {
		slog.Info("applying migrations")
		if err := postgres.Migrate(databaseURL); err != nil {
			return errors.Wrap(err, "migrate")
		}
	}

	slog.Info("connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	n, err := postgres.NewInventoryRepository(pool).Upsert(ctx, items)
	if err != nil {
		return errors.Wrap(err, "upsert inventory")
	}
	slog.Info("seeded inventory", slog.Int64("rows", n))
	return nil
}

// readInventory decodes an inventory file, transparently decompressing
// files ending in .gz.
func readInventory(path string) (_ []admin.Item, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open inventory file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	items, err := admin.DecodeItems(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return items, nil
}
