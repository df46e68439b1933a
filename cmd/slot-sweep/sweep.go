package main

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/dkopi/internal/session"
)

const (
	filterCapacity = 10_000_000
	filterFPR      = 0.001
	progressEvery  = 1_000_000
)

// slotStore is the part of the PostgreSQL slot table the sweep needs.
type slotStore interface {
	StaleKeys(ctx context.Context, prefix string, before time.Time) ([]string, error)
	DeleteKeys(ctx context.Context, keys []string) (int64, error)
}

// liveSet reports whether a session id may still be live.
type liveSet []*bloom.BloomFilter

func (s liveSet) mayContain(id string) bool {
	for _, f := range s {
		if f.TestString(id) {
			return true
		}
	}
	return false
}

// buildFilters builds one bloom filter per export file, concurrently.
func buildFilters(ctx context.Context, files []string) (liveSet, error) {
	filters := make(liveSet, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			f := bloom.NewWithEstimates(filterCapacity, filterFPR)
			var count uint64
			if err := streamGzFile(ctx, path, func(line string) {
				id := strings.TrimSpace(line)
				if !session.ValidID(id) {
					return
				}
				f.AddString(id)
				count++
				if count%progressEvery == 0 {
					slog.Info("filter progress", slog.String("file", path), slog.Uint64("sessions", count))
				}
			}); err != nil {
				return errors.Wrapf(err, "build filter for %s", path)
			}
			slog.Info("filter complete", slog.String("file", path), slog.Uint64("sessions", count))
			filters[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

type sweepResult struct {
	scanned  int
	orphaned int
	deleted  int64
}

type sweeper struct {
	slots  slotStore
	live   liveSet
	batch  int
	dryRun bool
}

// sweep deletes slots written before cutoff whose session is not live.
func (s *sweeper) sweep(ctx context.Context, cutoff time.Time) (sweepResult, error) {
	var res sweepResult

	keys, err := s.slots.StaleKeys(ctx, session.KeyPrefix, cutoff)
	if err != nil {
		return res, errors.Wrap(err, "list stale slots")
	}
	res.scanned = len(keys)

	var orphans []string
	for _, key := range keys {
		id := strings.TrimPrefix(key, session.KeyPrefix)
		if !s.live.mayContain(id) {
			orphans = append(orphans, key)
		}
	}
	res.orphaned = len(orphans)
	if s.dryRun {
		for _, key := range orphans {
			slog.Info("orphaned slot", slog.String("key", key))
		}
		return res, nil
	}

	size := max(s.batch, 1)
	for start := 0; start < len(orphans); start += size {
		chunk := orphans[start:min(start+size, len(orphans))]
		n, err := s.slots.DeleteKeys(ctx, chunk)
		if err != nil {
			return res, errors.Wrapf(err, "delete batch at %d", start)
		}
		res.deleted += n
		slog.Info("delete progress", slog.Int64("deleted", res.deleted), slog.Int("total", len(orphans)))
	}
	return res, nil
}
