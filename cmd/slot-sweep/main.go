// Command slot-sweep deletes cart slots whose session is no longer live.
//
// Live session ids are read from gzip files, one id per line (for example one
// export per storefront node). Every cart:<session> row in the PostgreSQL slot
// table that is older than --min-age and whose session appears in none of the
// files is removed. Bloom filter false positives only ever keep a slot.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/dkopi/internal/storage/postgres"
)

func main() {
	var (
		dataDir     string
		databaseURL string
		minAge      time.Duration
		batch       int
		dryRun      bool
	)

	flag.StringVar(&dataDir, "data-dir", "data/sessions", "directory containing *.gz live session exports")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.DurationVar(&minAge, "min-age", 24*time.Hour, "only consider slots not written for this long")
	flag.IntVar(&batch, "batch", 500, "keys deleted per statement")
	flag.BoolVar(&dryRun, "dry-run", false, "report orphaned slots without deleting them")
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

	if err := run(ctx, dataDir, databaseURL, minAge, batch, dryRun); err != nil {
		slog.Error("slot sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("slot sweep completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, minAge time.Duration, batch int, dryRun bool) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list session exports")
	}
	if len(files) == 0 {
		// Without any live set every slot would look orphaned.
		return errors.Errorf("no *.gz session exports in %s", dataDir)
	}

	slog.Info("building live session filters", slog.Int("files", len(files)))
	live, err := buildFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build filters")
	}

	slog.Info("connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	s := &sweeper{
		slots:  postgres.NewSlotRepository(pool),
		live:   live,
		batch:  batch,
		dryRun: dryRun,
	}
	res, err := s.sweep(ctx, time.Now().Add(-minAge))
	if err != nil {
		return err
	}
	slog.Info("sweep finished",
		slog.Int("scanned", res.scanned),
		slog.Int("orphaned", res.orphaned),
		slog.Int64("deleted", res.deleted),
		slog.Bool("dry_run", dryRun),
	)
	return nil
}
