// Package config defines the JSON-serializable configuration model for a
// pipeline run. It is deliberately small and explicit: a run file under
// configs/ decodes straight into Pipeline with no glue code, and secrets
// never appear in it (those load from the environment via the storage
// package).
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pipeline is the top-level object decoded from a run file.
type Pipeline struct {
	// Job names the run for logs and metrics grouping.
	Job string `json:"job"`

	// Input locates the two raw input families.
	Input Input `json:"input"`

	// Storage selects and configures the sink for the five tables.
	Storage Storage `json:"storage"`

	// Time controls timestamp decoding.
	Time TimeConfig `json:"time"`

	// Keys controls surrogate key generation for the fact table.
	Keys Keys `json:"keys"`

	Runtime RuntimeConfig `json:"runtime"`
}

// Input holds the root directories of the raw JSON sources.
type Input struct {
	// SongData is the root of the catalog tree (one record per file).
	SongData string `json:"song_data"`

	// LogData is the root of the event log (NDJSON files).
	LogData string `json:"log_data"`
}

// Storage selects the sink used to persist the five tables.
type Storage struct {
	// Kind selects the backend ("parquet", "postgres").
	Kind string `json:"kind"`

	// Parquet carries options for the "parquet" backend.
	Parquet ParquetConfig `json:"parquet"`

	// DB carries options for database backends.
	DB DBConfig `json:"db"`
}

// ParquetConfig configures the columnar file sink.
type ParquetConfig struct {
	// Root is the output directory; each table becomes a subdirectory.
	Root string `json:"root"`
}

// DBConfig configures the warehouse sink.
type DBConfig struct {
	// DSN is the connection string for pgx/pgxpool.
	DSN string `json:"dsn"`
}

// TimeConfig controls timestamp decoding.
type TimeConfig struct {
	// Zone is "" or "Local" for host-local time (the compatibility default),
	// "UTC", or an IANA zone name.
	Zone string `json:"zone"`
}

// Keys controls fact-table surrogate key generation.
type Keys struct {
	// Mode is "random" (default; fresh UUID per row) or "stable"
	// (content-derived, reproducible across runs).
	Mode string `json:"mode"`
}

// RuntimeConfig controls write retries. Transform fan-out needs no knobs: the
// per-record work is pure and the row volumes are bounded by the raw inputs.
type RuntimeConfig struct {
	// WriteAttempts bounds attempts per table write. Zero or one preserves
	// the historical fail-fast behavior; each retry re-runs the whole
	// table-scoped overwrite, which is idempotent.
	WriteAttempts int `json:"write_attempts"`
}

// Load decodes a pipeline run file.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	var p Pipeline
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return p, nil
}
