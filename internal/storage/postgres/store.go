// Package pgstore loads the star-schema tables into Postgres, as a warehouse
// mirror of the parquet lake. Each table write is an atomic truncate-and-COPY
// inside one transaction, which gives the same full-overwrite, per-table
// commit semantics as the file backend. Partition columns become ordinary
// columns.
package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jrwils/sparkify-datalake/internal/model"
	"github.com/jrwils/sparkify-datalake/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Writer, error) {
		return New(ctx, cfg)
	})
}

// Store is a Postgres-backed implementation of storage.Writer using pgx v5.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// New opens a connection pool and verifies connectivity so a bad DSN fails
// the run before any transform work happens.
func New(ctx context.Context, cfg storage.Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool, log: cfg.Logger}, nil
}

// DDL for the five tables. Identifiers that carry the raw feed's camelCase
// are quoted so column names round-trip exactly.
var tableDDL = map[string]string{
	storage.TableSongs: `CREATE TABLE IF NOT EXISTS songs (
		song_id text, title text, artist_id text, year integer, duration double precision)`,
	storage.TableArtists: `CREATE TABLE IF NOT EXISTS artists (
		artist_id text, name text, location text, latitude double precision, longitude double precision)`,
	storage.TableUsers: `CREATE TABLE IF NOT EXISTS users (
		"userId" text, "firstName" text, "lastName" text, gender text, level text)`,
	storage.TableTime: `CREATE TABLE IF NOT EXISTS "time" (
		start_time timestamptz, hour integer, day integer, week integer, month integer, year integer, weekday integer)`,
	storage.TableSongplays: `CREATE TABLE IF NOT EXISTS songplays (
		songplay_id text, start_time timestamptz, user_id text, level text, song_id text, artist_id text,
		session_id bigint, location text, user_agent text, year integer, month integer)`,
}

func (s *Store) WriteSongs(ctx context.Context, rows []model.SongRow) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.SongID, r.Title, r.ArtistID, r.Year, r.Duration}
	}
	return s.overwrite(ctx, storage.TableSongs,
		[]string{"song_id", "title", "artist_id", "year", "duration"}, vals)
}

func (s *Store) WriteArtists(ctx context.Context, rows []model.ArtistRow) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.ArtistID, r.Name, r.Location, r.Latitude, r.Longitude}
	}
	return s.overwrite(ctx, storage.TableArtists,
		[]string{"artist_id", "name", "location", "latitude", "longitude"}, vals)
}

func (s *Store) WriteUsers(ctx context.Context, rows []model.UserRow) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.UserID, r.FirstName, r.LastName, r.Gender, r.Level}
	}
	return s.overwrite(ctx, storage.TableUsers,
		[]string{"userId", "firstName", "lastName", "gender", "level"}, vals)
}

func (s *Store) WriteTime(ctx context.Context, rows []model.TimeRow) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.StartTime, r.Hour, r.Day, r.Week, r.Month, r.Year, r.Weekday}
	}
	return s.overwrite(ctx, storage.TableTime,
		[]string{"start_time", "hour", "day", "week", "month", "year", "weekday"}, vals)
}

func (s *Store) WriteSongplays(ctx context.Context, rows []model.SongplayRow) error {
	vals := make([][]any, len(rows))
	for i, r := range rows {
		vals[i] = []any{r.SongplayID, r.StartTime, r.UserID, r.Level, r.SongID, r.ArtistID,
			r.SessionID, r.Location, r.UserAgent, r.Year, r.Month}
	}
	return s.overwrite(ctx, storage.TableSongplays,
		[]string{"songplay_id", "start_time", "user_id", "level", "song_id", "artist_id",
			"session_id", "location", "user_agent", "year", "month"}, vals)
}

// ReadSongs reads the persisted songs dimension for the fact join.
func (s *Store) ReadSongs(ctx context.Context) ([]model.SongRow, error) {
	q, err := s.pool.Query(ctx, `SELECT song_id, title, artist_id, year, duration FROM songs`)
	if err != nil {
		return nil, fmt.Errorf("postgres: read songs: %w", err)
	}
	defer q.Close()

	var rows []model.SongRow
	for q.Next() {
		var r model.SongRow
		if err := q.Scan(&r.SongID, &r.Title, &r.ArtistID, &r.Year, &r.Duration); err != nil {
			return nil, fmt.Errorf("postgres: scan song: %w", err)
		}
		rows = append(rows, r)
	}
	if err := q.Err(); err != nil {
		return nil, fmt.Errorf("postgres: read songs: %w", err)
	}
	return rows, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// overwrite replaces the table's contents in a single transaction: ensure the
// table exists, truncate, COPY the new rows, commit. Readers outside the
// transaction see the old rows until the commit lands.
func (s *Store) overwrite(ctx context.Context, table string, columns []string, vals [][]any) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin %s: %w", table, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, tableDDL[table]); err != nil {
		return fmt.Errorf("postgres: ensure %s: %w", table, err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", pgx.Identifier{table}.Sanitize())); err != nil {
		return fmt.Errorf("postgres: truncate %s: %w", table, err)
	}
	if len(vals) > 0 {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(vals))
		if err != nil {
			return fmt.Errorf("postgres: copy %s: %w", table, err)
		}
		if n != int64(len(vals)) {
			return fmt.Errorf("postgres: copy %s: wrote %d of %d rows", table, n, len(vals))
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit %s: %w", table, err)
	}

	s.log.Info("table loaded",
		zap.String("table", table),
		zap.Int("rows", len(vals)),
	)
	return nil
}
