// Package pipeline sequences the full run: catalog half first, then the
// event half, with a hard barrier between the songs write and the fact join.
//
// The barrier is not an in-memory handoff: the join re-reads the songs
// dimension from persisted storage, so the catalog stage must have committed
// its write before the join may start. Everything inside a stage that does
// not depend on the barrier (the users, time, and songplay writes) runs
// concurrently. A failure anywhere aborts the run with no partial-table
// cleanup; tables already committed stay, tables not yet written keep their
// previous contents.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jrwils/sparkify-datalake/internal/config"
	"github.com/jrwils/sparkify-datalake/internal/metrics"
	"github.com/jrwils/sparkify-datalake/internal/model"
	jsonparser "github.com/jrwils/sparkify-datalake/internal/parser/json"
	"github.com/jrwils/sparkify-datalake/internal/source"
	"github.com/jrwils/sparkify-datalake/internal/storage"
	"github.com/jrwils/sparkify-datalake/internal/timeconv"
	"github.com/jrwils/sparkify-datalake/internal/transform"
)

// counters holds cross-goroutine statistics for a run. All fields are
// updated atomically.
type counters struct {
	catalogRecords atomic.Int64 // raw catalog records read
	eventsRead     atomic.Int64 // raw log events read
	plays          atomic.Int64 // events surviving the NextSong filter
	rowsWritten    atomic.Int64 // rows written across all five tables
}

// Pipeline executes one full recompute of the five tables.
type Pipeline struct {
	cfg    config.Pipeline
	writer storage.Writer
	log    *zap.Logger
	loc    *time.Location
	keyFn  transform.SongplayKey
	stats  counters
}

// New resolves the run-level settings (time zone, key mode) and returns a
// ready Pipeline. The writer is owned by the caller.
func New(cfg config.Pipeline, w storage.Writer, log *zap.Logger) (*Pipeline, error) {
	loc, err := timeconv.Location(cfg.Time.Zone)
	if err != nil {
		return nil, err
	}
	keyFn, err := transform.KeyGenerator(cfg.Keys.Mode)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:    cfg,
		writer: w,
		log:    log,
		loc:    loc,
		keyFn:  keyFn,
	}, nil
}

// Run executes the two stages in order. Success means all five tables were
// written; any error leaves the output in an indeterminate mix of old and
// new tables, reported as-is.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()

	if err := p.runCatalog(ctx); err != nil {
		return fmt.Errorf("catalog stage: %w", err)
	}
	if err := p.runEvents(ctx); err != nil {
		return fmt.Errorf("event stage: %w", err)
	}

	elapsed := time.Since(start)
	metrics.ObserveDuration(metrics.StageDuration, elapsed, metrics.Labels{"stage": "run"})
	p.log.Info("run complete",
		zap.Int64("catalog_records", p.stats.catalogRecords.Load()),
		zap.Int64("events_read", p.stats.eventsRead.Load()),
		zap.Int64("plays", p.stats.plays.Load()),
		zap.Int64("rows_written", p.stats.rowsWritten.Load()),
		zap.Duration("elapsed", elapsed.Truncate(time.Millisecond)),
	)
	return nil
}

// runCatalog reads the catalog and writes the songs and artists dimensions.
// The two writes are independent and run concurrently; the stage returns only
// once both have committed, which is what arms the barrier for the fact join.
func (p *Pipeline) runCatalog(ctx context.Context) error {
	stageStart := time.Now()

	recs, err := readFamily[model.CatalogRecord](ctx, p.cfg.Input.SongData, "song_data")
	if err != nil {
		return err
	}
	p.stats.catalogRecords.Store(int64(len(recs)))
	metrics.IncCounter(metrics.RecordsRead, float64(len(recs)), metrics.Labels{"source": "song_data"})

	songs := transform.Songs(recs)
	artists := transform.Artists(recs)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.writeTable(ctx, storage.TableSongs, len(songs), func(ctx context.Context) error {
			return p.writer.WriteSongs(ctx, songs)
		})
	})
	g.Go(func() error {
		return p.writeTable(ctx, storage.TableArtists, len(artists), func(ctx context.Context) error {
			return p.writer.WriteArtists(ctx, artists)
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}

	metrics.ObserveDuration(metrics.StageDuration, time.Since(stageStart), metrics.Labels{"stage": "catalog"})
	return nil
}

// runEvents reads the event log, filters it to plays, and derives the users
// and time dimensions plus the songplay fact table. The three branches run
// concurrently: the fact branch alone depends on the persisted songs
// dimension, and runCatalog has already returned by the time it starts.
func (p *Pipeline) runEvents(ctx context.Context) error {
	stageStart := time.Now()

	events, err := readFamily[model.LogEvent](ctx, p.cfg.Input.LogData, "log_data")
	if err != nil {
		return err
	}
	p.stats.eventsRead.Store(int64(len(events)))
	metrics.IncCounter(metrics.RecordsRead, float64(len(events)), metrics.Labels{"source": "log_data"})

	plays := transform.FilterPlays(events)
	p.stats.plays.Store(int64(len(plays)))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		users := transform.Users(plays)
		return p.writeTable(ctx, storage.TableUsers, len(users), func(ctx context.Context) error {
			return p.writer.WriteUsers(ctx, users)
		})
	})

	g.Go(func() error {
		rows := transform.TimeRows(plays, p.loc)
		return p.writeTable(ctx, storage.TableTime, len(rows), func(ctx context.Context) error {
			return p.writer.WriteTime(ctx, rows)
		})
	})

	g.Go(func() error {
		songs, err := p.writer.ReadSongs(ctx)
		if err != nil {
			return fmt.Errorf("read back songs: %w", err)
		}
		facts := transform.Songplays(plays, songs, p.loc, p.keyFn)
		return p.writeTable(ctx, storage.TableSongplays, len(facts), func(ctx context.Context) error {
			return p.writer.WriteSongplays(ctx, facts)
		})
	})

	if err := g.Wait(); err != nil {
		return err
	}

	metrics.ObserveDuration(metrics.StageDuration, time.Since(stageStart), metrics.Labels{"stage": "events"})
	return nil
}

// writeTable runs one table write with the configured bounded retry. Each
// attempt re-runs the full overwrite, which is idempotent per table, so a
// retry can never produce a mixed table.
func (p *Pipeline) writeTable(ctx context.Context, table string, rows int, write func(context.Context) error) error {
	attempts := p.cfg.Runtime.WriteAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = write(ctx); err == nil {
			p.stats.rowsWritten.Add(int64(rows))
			metrics.IncCounter(metrics.RowsWritten, float64(rows), metrics.Labels{"table": table})
			return nil
		}
		if ctx.Err() != nil || attempt == attempts {
			break
		}
		p.log.Warn("table write failed, retrying",
			zap.String("table", table),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("write %s: %w", table, err)
}

// readFamily loads every record of one raw input family. Any decode or
// schema error aborts the read; there is no per-record skip.
func readFamily[T interface{ Validate() error }](ctx context.Context, root, family string) ([]T, error) {
	files, err := source.List(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", family, err)
	}

	var recs []T
	for _, path := range files {
		part, err := readFile[T](ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", family, path, err)
		}
		recs = append(recs, part...)
	}
	return recs, nil
}

// readFile streams one JSON file into validated records.
func readFile[T interface{ Validate() error }](ctx context.Context, path string) ([]T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rc, err := source.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ch := make(chan T, 256)
	errCh := make(chan error, 1)
	go func() {
		errCh <- jsonparser.StreamRecords(ctx, rc, ch)
		close(ch)
	}()

	var recs []T
	for rec := range ch {
		if err := rec.Validate(); err != nil {
			cancel()
			for range ch {
				// drain so the producer can exit
			}
			<-errCh
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return recs, nil
}
