package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
		"job": "sparkify",
		"input": {"song_data": "in/song_data", "log_data": "in/log_data"},
		"storage": {"kind": "parquet", "parquet": {"root": "out"}},
		"time": {"zone": "UTC"},
		"keys": {"mode": "stable"},
		"runtime": {"write_attempts": 3}
	}`)

	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Job != "sparkify" || p.Input.SongData != "in/song_data" || p.Input.LogData != "in/log_data" {
		t.Fatalf("decoded: %+v", p)
	}
	if p.Storage.Kind != "parquet" || p.Storage.Parquet.Root != "out" {
		t.Fatalf("storage: %+v", p.Storage)
	}
	if p.Time.Zone != "UTC" || p.Keys.Mode != "stable" || p.Runtime.WriteAttempts != 3 {
		t.Fatalf("options: %+v", p)
	}
}

func TestLoad_UnknownFieldIsError(t *testing.T) {
	path := writeConfig(t, `{"job": "x", "inputs": {}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for misspelled field")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error")
	}
}
