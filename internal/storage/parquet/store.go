// Package parquetstore persists the star-schema tables as directories of
// parquet files, optionally partitioned hive-style (col=value subdirectories)
// by the values of one or more columns.
//
// Overwrite semantics: each table is staged into a temporary sibling
// directory and swapped into place with directory renames, so a reader
// observes either the previous table or the new one, never a mix of files
// from both. Partition columns are retained inside the data files as regular
// columns, which keeps the read-back path free of directory-name parsing.
package parquetstore

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"github.com/jrwils/sparkify-datalake/internal/model"
	"github.com/jrwils/sparkify-datalake/internal/storage"
)

func init() {
	storage.Register("parquet", func(_ context.Context, cfg storage.Config) (storage.Writer, error) {
		return New(cfg)
	})
}

// Store writes parquet tables under a root directory.
type Store struct {
	root string
	log  *zap.Logger
}

// New constructs a Store. The root directory is created on first write.
func New(cfg storage.Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("parquet: output root is required")
	}
	return &Store{root: cfg.Root, log: cfg.Logger}, nil
}

func (s *Store) WriteSongs(ctx context.Context, rows []model.SongRow) error {
	return writeTable(ctx, s, storage.TableSongs, rows,
		[]string{"year", "artist_id"},
		func(r model.SongRow) []string {
			return []string{fmt.Sprint(r.Year), r.ArtistID}
		})
}

func (s *Store) WriteArtists(ctx context.Context, rows []model.ArtistRow) error {
	return writeTable(ctx, s, storage.TableArtists, rows, nil, nil)
}

func (s *Store) WriteUsers(ctx context.Context, rows []model.UserRow) error {
	return writeTable(ctx, s, storage.TableUsers, rows, nil, nil)
}

func (s *Store) WriteTime(ctx context.Context, rows []model.TimeRow) error {
	return writeTable(ctx, s, storage.TableTime, rows,
		[]string{"year", "month"},
		func(r model.TimeRow) []string {
			return []string{fmt.Sprint(r.Year), fmt.Sprint(r.Month)}
		})
}

func (s *Store) WriteSongplays(ctx context.Context, rows []model.SongplayRow) error {
	return writeTable(ctx, s, storage.TableSongplays, rows,
		[]string{"year", "month"},
		func(r model.SongplayRow) []string {
			return []string{fmt.Sprint(r.Year), fmt.Sprint(r.Month)}
		})
}

// ReadSongs loads every part file of the persisted songs table. Used by the
// fact join, which must see the songs write of the current run.
func (s *Store) ReadSongs(_ context.Context) ([]model.SongRow, error) {
	dir := filepath.Join(s.root, storage.TableSongs)
	var rows []model.SongRow
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".parquet") {
			return nil
		}
		part, err := parquet.ReadFile[model.SongRow](path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, part...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parquet: read songs: %w", err)
	}
	return rows, nil
}

func (s *Store) Close() error { return nil }

// writeTable stages rows into a temp directory and swaps it into place.
// partitionBy names the partition columns; partKey extracts the column values
// for one row, aligned with partitionBy. Both are nil for unpartitioned
// tables.
func writeTable[T any](ctx context.Context, s *Store, name string, rows []T, partitionBy []string, partKey func(T) []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Join(s.root, name)
	tmp := dir + ".tmp-" + uuid.NewString()[:8]
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return fmt.Errorf("parquet: stage %s: %w", name, err)
	}
	defer os.RemoveAll(tmp) // no-op after a successful swap

	groups, order := groupRows(rows, partitionBy, partKey)
	nparts := 0
	for _, rel := range order {
		pdir := filepath.Join(tmp, rel)
		if err := os.MkdirAll(pdir, 0o755); err != nil {
			return fmt.Errorf("parquet: partition dir %s: %w", rel, err)
		}
		file := filepath.Join(pdir, "part-00000.parquet")
		if err := parquet.WriteFile(file, groups[rel]); err != nil {
			return fmt.Errorf("parquet: write %s/%s: %w", name, rel, err)
		}
		nparts++
	}

	if err := swapDirs(tmp, dir); err != nil {
		return fmt.Errorf("parquet: commit %s: %w", name, err)
	}

	s.log.Info("table written",
		zap.String("table", name),
		zap.Int("rows", len(rows)),
		zap.Int("partitions", nparts),
		zap.Strings("partition_by", partitionBy),
	)
	return nil
}

// groupRows buckets rows by their partition path, preserving first-seen
// partition order. Unpartitioned tables get a single bucket at the table
// root. Partition values are path-escaped so that values containing '/' or
// '%' cannot escape the table directory.
func groupRows[T any](rows []T, partitionBy []string, partKey func(T) []string) (map[string][]T, []string) {
	groups := make(map[string][]T)
	var order []string

	add := func(rel string, r T) {
		if _, ok := groups[rel]; !ok {
			order = append(order, rel)
		}
		groups[rel] = append(groups[rel], r)
	}

	if len(partitionBy) == 0 {
		if len(rows) == 0 {
			// An empty unpartitioned table still gets a schema-bearing part file.
			groups[""] = nil
			return groups, []string{""}
		}
		for _, r := range rows {
			add("", r)
		}
		return groups, order
	}

	for _, r := range rows {
		vals := partKey(r)
		segs := make([]string, len(partitionBy))
		for i, col := range partitionBy {
			segs[i] = col + "=" + url.PathEscape(vals[i])
		}
		add(filepath.Join(segs...), r)
	}
	return groups, order
}

// swapDirs replaces dir with tmp. The previous table version is moved aside
// first so the new version lands with a single rename, then the old copy is
// deleted.
func swapDirs(tmp, dir string) error {
	old := dir + ".old-" + uuid.NewString()[:8]
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, old); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.Rename(tmp, dir); err != nil {
		// Try to put the previous version back before failing.
		_ = os.Rename(old, dir)
		return err
	}
	return os.RemoveAll(old)
}
