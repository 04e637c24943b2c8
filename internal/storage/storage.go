// Package storage defines the table writer abstraction the pipeline persists
// through, plus the factory registry that concrete backends hook into.
//
// The contract for every backend is full overwrite per table: writing a table
// replaces any previous version at the same logical location in its entirety,
// and the swap must be atomic from the point of view of a concurrent reader.
// There is deliberately no cross-table transaction; a failed run can leave a
// mix of fresh and stale tables behind.
package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"github.com/jrwils/sparkify-datalake/internal/model"
)

// Table names of the five star-schema tables.
const (
	TableSongs     = "songs"
	TableArtists   = "artists"
	TableUsers     = "users"
	TableTime      = "time"
	TableSongplays = "songplays"
)

// Writer persists the five tables. WriteSongs must be durably visible to
// ReadSongs once it returns; the orchestrator relies on that barrier before
// starting the fact join.
type Writer interface {
	WriteSongs(ctx context.Context, rows []model.SongRow) error
	WriteArtists(ctx context.Context, rows []model.ArtistRow) error
	WriteUsers(ctx context.Context, rows []model.UserRow) error
	WriteTime(ctx context.Context, rows []model.TimeRow) error
	WriteSongplays(ctx context.Context, rows []model.SongplayRow) error

	// ReadSongs reads the persisted songs dimension back for the fact join.
	ReadSongs(ctx context.Context) ([]model.SongRow, error)

	Close() error
}

// Credentials is the object-storage access key pair handed to backends that
// talk to remote storage. Secrets come from the environment only and must
// never be logged.
type Credentials struct {
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// LoadCredentials reads the key pair from the process environment once at
// startup. Missing values are not an error here; a backend that actually
// needs them rejects the run in its factory.
func LoadCredentials() (Credentials, error) {
	var c Credentials
	if err := cleanenv.ReadEnv(&c); err != nil {
		return Credentials{}, fmt.Errorf("storage: read credentials: %w", err)
	}
	return c, nil
}

// Config selects and configures a storage backend.
type Config struct {
	// Kind selects the backend implementation ("parquet", "postgres").
	Kind string

	// Root is the output root directory (or object-store prefix) for
	// file-based backends. Each table lives in a subdirectory named after it.
	Root string

	// DSN is the connection string for database backends.
	DSN string

	// Credentials is passed through to backends addressing remote storage.
	Credentials Credentials

	// Logger is required; pass zap.NewNop() to silence a backend.
	Logger *zap.Logger
}

// Factory constructs a Writer for one backend kind.
type Factory func(ctx context.Context, cfg Config) (Writer, error)

var factories = map[string]Factory{}

// Register installs a backend factory under kind. Backends call Register from
// init; the cmd layer imports storage/all for its side effects.
func Register(kind string, f Factory) {
	if _, dup := factories[kind]; dup {
		panic(fmt.Sprintf("storage: duplicate backend %q", kind))
	}
	factories[kind] = f
}

// Kinds returns the registered backend kinds, sorted, for error messages and
// config validation.
func Kinds() []string {
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open constructs the Writer selected by cfg.Kind.
func Open(ctx context.Context, cfg Config) (Writer, error) {
	f, ok := factories[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("storage: unknown backend %q (registered: %v)", cfg.Kind, Kinds())
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	w, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", cfg.Kind, err)
	}
	return w, nil
}
